// internal/changes/types.go
package changes

import "fmt"

// Kind classifies a detected file change.
type Kind int

const (
	Added Kind = iota
	Modified
	Removed
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Change is a single file change detected for a task property.
type Change struct {
	Path     string `json:"path"`     // Absolute path of the affected file
	Kind     Kind   `json:"kind"`     // added, modified, removed
	Property string `json:"property"` // Label of the property the file belongs to
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s (%s)", c.Kind, c.Path, c.Property)
}
