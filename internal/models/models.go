package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rsx/internal/shared"
)

// ErrIDReassigned is returned by [Base.AssignID] when an entity that already
// holds a persistent id is assigned a different one.
var ErrIDReassigned = errors.New("entity id may only be assigned once")

// Entity is the base interface implemented by all persistent models.
type Entity interface {
	ID() int64               // ID returns the persistent identifier, zero until first insert
	OID() string             // OID returns the stable UUID assigned at construction
	Name() string            // Name returns the entity's display name
	CreatedAt() time.Time    // CreatedAt returns when this entity was created
	ModifiedAt() time.Time   // ModifiedAt returns when this entity was last modified
	AssignID(id int64) error // AssignID sets the persistent id, exactly once
	Touch(at time.Time)      // Touch records a modification time
	Validate() error         // Validate checks the entity's data and returns an error if invalid
}

// Mode identifies the environment an entity belongs to.
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeTest Mode = "test"
	ModeProd Mode = "prod"
)

func (m Mode) String() string { return string(m) }

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeDev, ModeTest, ModeProd:
		return true
	}
	return false
}

// ParseMode converts s into a [Mode].
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// Stage identifies how far along the pipeline a piece of data is.
type Stage string

const (
	StageRaw     Stage = "raw"
	StageInterim Stage = "interim"
	StageCooked  Stage = "cooked"
)

func (s Stage) String() string { return string(s) }

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageRaw, StageInterim, StageCooked:
		return true
	}
	return false
}

// ParseStage converts s into a [Stage].
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown stage %q", s)
	}
	return st, nil
}

// State is the lifecycle of a job or task.
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

func (s State) String() string { return string(s) }

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateCreated, StateRunning, StateCompleted, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether s is an end state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ParseState converts s into a [State].
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown state %q", s)
	}
	return st, nil
}

// Base carries the identity and bookkeeping fields shared by every entity.
type Base struct {
	id       int64
	oid      string
	name     string
	created  time.Time
	modified time.Time
}

func newBase(name string) Base {
	now := time.Now().UTC()
	return Base{
		oid:      shared.GenerateID(),
		name:     name,
		created:  now,
		modified: now,
	}
}

func (b *Base) ID() int64             { return b.id }
func (b *Base) OID() string           { return b.oid }
func (b *Base) Name() string          { return b.name }
func (b *Base) CreatedAt() time.Time  { return b.created }
func (b *Base) ModifiedAt() time.Time { return b.modified }

// AssignID sets the persistent id. Assigning the same id again is a no-op;
// assigning a different one fails with [ErrIDReassigned] and the original id
// is retained.
func (b *Base) AssignID(id int64) error {
	if b.id != 0 && b.id != id {
		return fmt.Errorf("%w: have %d, got %d", ErrIDReassigned, b.id, id)
	}
	b.id = id
	return nil
}

// Touch records a modification time.
func (b *Base) Touch(at time.Time) { b.modified = at.UTC() }

// SetOID overwrites the construction-time oid. Used when rehydrating an
// entity from a stored row.
func (b *Base) SetOID(oid string) { b.oid = oid }

// SetCreatedAt overwrites the construction-time timestamp. Used when
// rehydrating an entity from a stored row.
func (b *Base) SetCreatedAt(at time.Time) { b.created = at }

// Rename changes the entity's display name.
func (b *Base) Rename(name string) { b.name = name }

func (b *Base) validateBase() error {
	if b.name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
