package model

import "fmt"

// ValidationError reports a malformed entity. It is raised synchronously
// before any I/O and always surfaced to the caller.
type ValidationError struct {
	Entity string // "list" or "item"
	Field  string
	Reason string
	ID     string // entity id when known
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid %s %q: %s %s", e.Entity, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}
