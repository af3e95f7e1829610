package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/rsx/internal/shared"
)

// uowState tracks a unit of work through its single-use lifecycle.
type uowState int

const (
	uowIdle uowState = iota
	uowActive
	uowRolledBack
	uowDone
)

// UnitOfWork scopes a group of repository operations to one transaction on
// the shared database connection. Writes performed inside Run are buffered
// until the scope exits: a nil return commits them, a non-nil return, panic
// or explicit Rollback reverts them. Each value runs at most once; construct
// a fresh unit of work per logical transaction.
type UnitOfWork struct {
	db    *shared.Database
	reg   *Registry
	state uowState
}

func NewUnitOfWork(db *shared.Database, reg *Registry) *UnitOfWork {
	return &UnitOfWork{db: db, reg: reg}
}

// Repo returns the repository registered under name.
func (u *UnitOfWork) Repo(name string) (Repository, error) {
	return u.reg.Get(name)
}

// mustRepo backs the typed accessors. The default registry wires every name
// it asserts, so a failure here is a construction bug rather than a runtime
// condition.
func (u *UnitOfWork) mustRepo(name string) Repository {
	r, err := u.reg.Get(name)
	if err != nil {
		panic(err)
	}
	return r
}

func (u *UnitOfWork) Datasets() *DatasetRepository {
	return u.mustRepo(EntityDataset).(*DatasetRepository)
}
func (u *UnitOfWork) Frames() *DataFrameRepository {
	return u.mustRepo(EntityDataFrame).(*DataFrameRepository)
}
func (u *UnitOfWork) Sources() *DataSourceRepository {
	return u.mustRepo(EntityDataSource).(*DataSourceRepository)
}
func (u *UnitOfWork) Jobs() *JobRepository   { return u.mustRepo(EntityJob).(*JobRepository) }
func (u *UnitOfWork) Tasks() *TaskRepository { return u.mustRepo(EntityTask).(*TaskRepository) }
func (u *UnitOfWork) Files() *FileRepository { return u.mustRepo(EntityFile).(*FileRepository) }
func (u *UnitOfWork) Profiles() *ProfileRepository {
	return u.mustRepo(EntityProfile).(*ProfileRepository)
}

// Run executes fn inside a transaction scope. The transaction begins on
// entry. When fn returns nil the scope commits, unless it already rolled
// back explicitly; a non-nil return rolls back and the error propagates. A
// panic rolls back before unwinding past Run. Exactly one terminal action
// happens on every exit path.
func (u *UnitOfWork) Run(ctx context.Context, fn func(u *UnitOfWork) error) error {
	if u.state != uowIdle {
		return &TransactionStateError{Op: "begin", Reason: "unit of work already consumed"}
	}
	if err := u.db.Begin(ctx); err != nil {
		if errors.Is(err, shared.ErrTransactionOpen) {
			return &TransactionStateError{Op: "begin", Reason: "a transaction is already open on this connection"}
		}
		return &ConnectionError{Op: "begin", Err: err}
	}
	u.state = uowActive
	u.db.Guard(true)

	completed := false
	defer func() {
		u.db.Guard(false)
		if completed {
			return
		}
		// fn panicked. Revert the scope, then let the panic continue.
		if u.state == uowActive {
			u.state = uowDone
			_ = u.db.Rollback()
		}
	}()

	ferr := fn(u)
	completed = true

	if u.state == uowRolledBack {
		// Explicit Rollback inside the scope was the terminal action.
		u.state = uowDone
		return ferr
	}
	u.state = uowDone
	if ferr != nil {
		if rerr := u.db.Rollback(); rerr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rerr, ferr)
		}
		return ferr
	}
	if err := u.db.Commit(); err != nil {
		return &ConnectionError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback reverts every write buffered in the current scope. It may be
// called at most once, and only inside Run. Repository operations issued
// after a rollback fail with a TransactionStateError until the scope exits.
func (u *UnitOfWork) Rollback() error {
	switch u.state {
	case uowActive:
	case uowRolledBack:
		return &TransactionStateError{Op: "rollback", Reason: "scope already rolled back"}
	default:
		return &TransactionStateError{Op: "rollback", Reason: "no active scope"}
	}
	u.state = uowRolledBack
	if err := u.db.Rollback(); err != nil {
		return &ConnectionError{Op: "rollback", Err: err}
	}
	return nil
}
