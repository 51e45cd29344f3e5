package store

import "fmt"

// StorageError wraps a local I/O failure. It is fatal to the triggering call
// but never to the process; callers aggregate or surface it as appropriate.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
