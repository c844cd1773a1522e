package persistence

import "fmt"

// OpError wraps a failed direct cloud-write operation. It is always
// surfaced to the immediate caller of that write; swallowing cloud
// failures is the Syncer's job, not the operations layer's.
type OpError struct {
	// Op names the operation, e.g. "save list" or "delete item".
	Op string

	// ID is the target entity id.
	ID string

	// Err is the original cause.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("cloud %s (id=%s): %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
