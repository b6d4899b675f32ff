package theory

import "fmt"

// InvalidNoteError indicates that a note or key name could not be parsed
// because it does not start with a letter A through G.
type InvalidNoteError struct {
	Name string
}

// Error implements the error interface.
func (e *InvalidNoteError) Error() string {
	return fmt.Sprintf("invalid note name %q", e.Name)
}
