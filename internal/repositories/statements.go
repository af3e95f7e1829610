package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/shared"
)

// StatementSet holds the parameterized SQL for one entity's table. Each
// entity file declares its set next to its row type and mapper, and the
// repositories run statements exclusively out of these sets.
type StatementSet struct {
	Table       string
	CreateTable string
	DropTable   string
	TableExists string
	Insert      string
	Update      string
	SelectByID  string
	SelectByKey string
	SelectAll   string
	RowExists   string
	Delete      string
}

// tableExistsStmt is shared by every set; SQLite keeps the table catalog in
// sqlite_master.
const tableExistsStmt = `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`

// AllStatements returns the statement sets for every catalog table in
// creation order.
func AllStatements() []StatementSet {
	return []StatementSet{
		datasourceStatements,
		datasetStatements,
		dataframeStatements,
		jobStatements,
		taskStatements,
		fileStatements,
		profileStatements,
	}
}

// Schema creates and drops the catalog tables through the statement
// provider.
type Schema struct {
	db *shared.Database
}

// NewSchema returns a schema manager for the given catalog connection.
func NewSchema(db *shared.Database) *Schema {
	return &Schema{db: db}
}

// Create runs every CreateTable statement. Tables that already exist are
// left alone.
func (s *Schema) Create(ctx context.Context) error {
	for _, set := range AllStatements() {
		if _, err := s.db.Exec(ctx, set.CreateTable); err != nil {
			return fmt.Errorf("failed to create table %s: %w", set.Table, err)
		}
	}
	return nil
}

// Drop removes every catalog table in reverse creation order.
func (s *Schema) Drop(ctx context.Context) error {
	sets := AllStatements()
	for i := len(sets) - 1; i >= 0; i-- {
		if _, err := s.db.Exec(ctx, sets[i].DropTable); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", sets[i].Table, err)
		}
	}
	return nil
}

// Reset drops and recreates every catalog table.
func (s *Schema) Reset(ctx context.Context) error {
	if err := s.Drop(ctx); err != nil {
		return err
	}
	return s.Create(ctx)
}

// Exists reports whether every catalog table is present.
func (s *Schema) Exists(ctx context.Context) (bool, error) {
	for _, set := range AllStatements() {
		rows, err := s.db.Query(ctx, set.TableExists, set.Table)
		if err != nil {
			return false, fmt.Errorf("failed to check table %s: %w", set.Table, err)
		}

		var present bool
		if rows.Next() {
			if err := rows.Scan(&present); err != nil {
				rows.Close()
				return false, fmt.Errorf("failed to scan table check for %s: %w", set.Table, err)
			}
		}
		rows.Close()

		if !present {
			return false, nil
		}
	}
	return true, nil
}
