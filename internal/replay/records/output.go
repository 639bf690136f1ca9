package records

import "fmt"

// Output is the stable identity a collection is published under: detector
// origin, record-kind description and a numeric sub-stream selector.
type Output struct {
	Origin      string
	Description string
	SubSpec     uint32
}

func (o Output) String() string {
	return fmt.Sprintf("%s/%s/%d", o.Origin, o.Description, o.SubSpec)
}

// Matches reports whether o and other address the same stream.
func (o Output) Matches(other Output) bool {
	return o == other
}
