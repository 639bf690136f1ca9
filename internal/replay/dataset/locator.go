package dataset

import (
	"os"
	"path/filepath"
)

// Locator addresses a dataset by directory and name.
type Locator struct {
	Dir  string
	Name string
}

// Path joins the rectified directory and the name. An empty directory or the
// literal "none" means the working directory; environment variables in the
// directory are expanded.
func (l Locator) Path() string {
	dir := l.Dir
	if dir == "" || dir == "none" {
		dir = "."
	} else {
		dir = os.ExpandEnv(dir)
	}
	return filepath.Join(dir, l.Name)
}

func (l Locator) String() string { return l.Path() }
