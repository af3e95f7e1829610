package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// Repository is the dynamically typed view of an entity repository, as
// handed out by [Registry.Get] and [UnitOfWork.Repo].
type Repository interface {
	Table() string
	AddEntity(ctx context.Context, e models.Entity) (models.Entity, error)
	GetEntity(ctx context.Context, id int64) (models.Entity, error)
	AllEntities(ctx context.Context) ([]models.Entity, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

// rowScanner is satisfied by [sql.Rows] and lets mappers scan either a
// single row or a row inside an iteration.
type rowScanner interface {
	Scan(dest ...any) error
}

// Mapper translates between an entity and its table row: InsertArgs and
// UpdateArgs produce the placeholder values for the entity's insert and
// update statements, Scan rehydrates an entity from one row.
type Mapper[T models.Entity] struct {
	InsertArgs func(T) []any
	UpdateArgs func(T) []any
	Scan       func(rowScanner) (T, error)
}

// Repo is the generic CRUD base shared by all entity repositories. Add
// inserts when the entity has no id yet and updates otherwise; reads and
// deletes go by id. All statements run through the shared catalog
// connection, inside whatever transaction is currently open on it.
type Repo[T models.Entity] struct {
	name   string
	db     *shared.Database
	stmts  StatementSet
	mapper Mapper[T]
}

// NewRepo builds a repository base from an entity's statement set and
// mapper.
func NewRepo[T models.Entity](name string, db *shared.Database, stmts StatementSet, mapper Mapper[T]) *Repo[T] {
	return &Repo[T]{name: name, db: db, stmts: stmts, mapper: mapper}
}

// Table returns the entity's table name.
func (r *Repo[T]) Table() string { return r.stmts.Table }

// Add persists the entity: an insert when it has no id yet, an update
// otherwise. The assigned id is set on the entity after a first insert.
// Add never commits; visibility is decided by the enclosing scope.
func (r *Repo[T]) Add(ctx context.Context, e T) (T, error) {
	var zero T

	if err := e.Validate(); err != nil {
		return zero, fmt.Errorf("cannot add %s: %w", r.name, err)
	}

	if e.ID() == 0 {
		res, err := r.db.Exec(ctx, r.stmts.Insert, r.mapper.InsertArgs(e)...)
		if err != nil {
			return zero, r.writeErr("insert "+r.name, err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return zero, &ConnectionError{Op: "insert " + r.name, Err: err}
		}

		if err := e.AssignID(id); err != nil {
			return zero, err
		}
		return e, nil
	}

	e.Touch(time.Now().UTC())
	res, err := r.db.Exec(ctx, r.stmts.Update, r.mapper.UpdateArgs(e)...)
	if err != nil {
		return zero, r.writeErr("update "+r.name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return zero, &ConnectionError{Op: "update " + r.name, Err: err}
	}
	if affected == 0 {
		return zero, &NotFoundError{Entity: r.name, ID: e.ID()}
	}

	return e, nil
}

// Get retrieves an entity by id.
func (r *Repo[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T

	rows, err := r.db.Query(ctx, r.stmts.SelectByID, id)
	if err != nil {
		return zero, r.readErr("select "+r.name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, &ConnectionError{Op: "select " + r.name, Err: err}
		}
		return zero, &NotFoundError{Entity: r.name, ID: id}
	}

	e, err := r.mapper.Scan(rows)
	if err != nil {
		return zero, fmt.Errorf("failed to scan %s: %w", r.name, err)
	}

	return e, nil
}

// GetAll retrieves every entity, ordered by the entity's natural key.
func (r *Repo[T]) GetAll(ctx context.Context) ([]T, error) {
	rows, err := r.db.Query(ctx, r.stmts.SelectAll)
	if err != nil {
		return nil, r.readErr("select all "+r.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := r.mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectionError{Op: "select all " + r.name, Err: err}
	}

	return out, nil
}

// Exists reports whether a row with the given id is present.
func (r *Repo[T]) Exists(ctx context.Context, id int64) (bool, error) {
	rows, err := r.db.Query(ctx, r.stmts.RowExists, id)
	if err != nil {
		return false, r.readErr("check "+r.name, err)
	}
	defer rows.Close()

	var present bool
	if rows.Next() {
		if err := rows.Scan(&present); err != nil {
			return false, fmt.Errorf("failed to scan %s check: %w", r.name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, &ConnectionError{Op: "check " + r.name, Err: err}
	}

	return present, nil
}

// Remove deletes the entity with the given id.
func (r *Repo[T]) Remove(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, r.stmts.Delete, id)
	if err != nil {
		return r.writeErr("delete "+r.name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &ConnectionError{Op: "delete " + r.name, Err: err}
	}
	if affected == 0 {
		return &NotFoundError{Entity: r.name, ID: id}
	}

	return nil
}

// AddEntity is the dynamically typed form of Add.
func (r *Repo[T]) AddEntity(ctx context.Context, e models.Entity) (models.Entity, error) {
	t, ok := e.(T)
	if !ok {
		return nil, fmt.Errorf("%s repository cannot store %T", r.name, e)
	}

	added, err := r.Add(ctx, t)
	if err != nil {
		return nil, err
	}
	return added, nil
}

// GetEntity is the dynamically typed form of Get.
func (r *Repo[T]) GetEntity(ctx context.Context, id int64) (models.Entity, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// AllEntities is the dynamically typed form of GetAll.
func (r *Repo[T]) AllEntities(ctx context.Context) ([]models.Entity, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Entity, len(all))
	for i, e := range all {
		out[i] = e
	}
	return out, nil
}

// getBy runs a single-row lookup statement with the given key arguments.
func (r *Repo[T]) getBy(ctx context.Context, stmt, key string, args ...any) (T, error) {
	var zero T

	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return zero, r.readErr("select "+r.name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, &ConnectionError{Op: "select " + r.name, Err: err}
		}
		return zero, &NotFoundError{Entity: r.name, Key: key}
	}

	e, err := r.mapper.Scan(rows)
	if err != nil {
		return zero, fmt.Errorf("failed to scan %s: %w", r.name, err)
	}

	return e, nil
}

// listBy runs a multi-row lookup statement with the given arguments.
func (r *Repo[T]) listBy(ctx context.Context, stmt string, args ...any) ([]T, error) {
	rows, err := r.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, r.readErr("select "+r.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		e, err := r.mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.name, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &ConnectionError{Op: "select " + r.name, Err: err}
	}

	return out, nil
}

// writeErr translates driver failures on write statements: unique constraint
// violations become [DuplicateKeyError], guard violations become
// [TransactionStateError], anything else a [ConnectionError].
func (r *Repo[T]) writeErr(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return &DuplicateKeyError{Entity: r.name, Err: err}
	}
	return r.readErr(op, err)
}

// readErr translates driver failures on read statements.
func (r *Repo[T]) readErr(op string, err error) error {
	if errors.Is(err, shared.ErrNoTransaction) {
		return &TransactionStateError{Op: op, Reason: "scope was rolled back"}
	}
	return &ConnectionError{Op: op, Err: err}
}

// nullString boxes s for a nullable TEXT column, storing NULL for the empty
// string.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt64 boxes v for a nullable INTEGER column, storing NULL for zero.
// Foreign keys use it so unset references read back as zero.
func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// nullTime boxes t for a nullable DATETIME column, storing NULL for the zero
// time.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
