package repositories

import "fmt"

// NotFoundError reports that no row exists for the requested entity.
type NotFoundError struct {
	Entity string
	ID     int64
	Key    string // set instead of ID for lookups by business key
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// DuplicateKeyError reports a write that violated a uniqueness constraint,
// such as inserting a second dataset with the same (name, mode) pair.
type DuplicateKeyError struct {
	Entity string
	Err    error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s violates a unique constraint: %v", e.Entity, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// UnknownRepositoryError reports a registry lookup for a name that was never
// registered. This is a programmer error, not a data condition.
type UnknownRepositoryError struct {
	Name string
}

func (e *UnknownRepositoryError) Error() string {
	return fmt.Sprintf("no repository registered for %q", e.Name)
}

// TransactionStateError reports a transaction control call outside the
// allowed lifecycle: beginning while another transaction is open, reusing a
// consumed unit of work, rolling back twice, or touching repositories after
// the scope was rolled back.
type TransactionStateError struct {
	Op     string
	Reason string
}

func (e *TransactionStateError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Reason)
}

// ConnectionError wraps a driver or connection level failure.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
