package records

// NamedCollection is one branch of a bundle.
type NamedCollection struct {
	Name       string
	Output     Output
	Collection Collection
}

// Bundle holds every enabled branch collection for one dataset entry, in
// branch order. The reader builds a fresh Bundle per entry and never touches it
// after handing it downstream.
type Bundle struct {
	Entry       int
	Collections []NamedCollection
}

// Names returns the branch names in bundle order.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.Collections))
	for _, c := range b.Collections {
		names = append(names, c.Name)
	}
	return names
}

// Get returns the collection stored under name.
func (b *Bundle) Get(name string) (Collection, bool) {
	for _, c := range b.Collections {
		if c.Name == name {
			return c.Collection, true
		}
	}
	return nil, false
}

// Sizes returns the record count per branch name.
func (b *Bundle) Sizes() map[string]int {
	sizes := make(map[string]int, len(b.Collections))
	for _, c := range b.Collections {
		sizes[c.Name] = c.Collection.Len()
	}
	return sizes
}
