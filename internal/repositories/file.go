package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var fileStatements = StatementSet{
	Table: "file",
	CreateTable: `CREATE TABLE IF NOT EXISTS file (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	datasource_id INTEGER,
	mode TEXT NOT NULL,
	stage TEXT NOT NULL,
	uri TEXT NOT NULL,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	task_id INTEGER,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL,
	UNIQUE(name, mode)
)`,
	DropTable:   `DROP TABLE IF EXISTS file`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO file (oid, name, description, datasource_id, mode, stage, uri, size_bytes, task_id, created, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE file SET name = ?, description = ?, datasource_id = ?, mode = ?, stage = ?, uri = ?, size_bytes = ?, task_id = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, description, datasource_id, mode, stage, uri, size_bytes, task_id, created, modified FROM file WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, description, datasource_id, mode, stage, uri, size_bytes, task_id, created, modified FROM file WHERE name = ? AND mode = ?`,
	SelectAll:   `SELECT id, oid, name, description, datasource_id, mode, stage, uri, size_bytes, task_id, created, modified FROM file ORDER BY name, mode`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM file WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM file WHERE id = ?`,
}

// fileRow is the flat row shape for the file table.
type fileRow struct {
	id           int64
	oid          string
	name         string
	description  sql.NullString
	datasourceID sql.NullInt64
	mode         string
	stage        string
	uri          string
	sizeBytes    int64
	taskID       sql.NullInt64
	created      time.Time
	modified     time.Time
}

func (r fileRow) entity() (*models.File, error) {
	mode, err := models.ParseMode(r.mode)
	if err != nil {
		return nil, err
	}
	stage, err := models.ParseStage(r.stage)
	if err != nil {
		return nil, err
	}
	f := models.NewFile(r.name, r.description.String, r.uri, mode, stage)
	f.SetSourceID(r.datasourceID.Int64)
	f.SetSizeBytes(r.sizeBytes)
	f.SetTaskID(r.taskID.Int64)
	if err := f.AssignID(r.id); err != nil {
		return nil, err
	}
	f.SetOID(r.oid)
	f.SetCreatedAt(r.created)
	f.Touch(r.modified)
	return f, nil
}

func scanFile(row rowScanner) (*models.File, error) {
	var r fileRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.description, &r.datasourceID, &r.mode, &r.stage, &r.uri, &r.sizeBytes, &r.taskID, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func fileMapper() Mapper[*models.File] {
	return Mapper[*models.File]{
		InsertArgs: func(f *models.File) []any {
			return []any{f.OID(), f.Name(), nullString(f.Description()), nullInt64(f.SourceID()), f.Mode().String(), f.Stage().String(), f.URI(), f.SizeBytes(), nullInt64(f.TaskID()), f.CreatedAt(), f.ModifiedAt()}
		},
		UpdateArgs: func(f *models.File) []any {
			return []any{f.Name(), nullString(f.Description()), nullInt64(f.SourceID()), f.Mode().String(), f.Stage().String(), f.URI(), f.SizeBytes(), nullInt64(f.TaskID()), f.ModifiedAt(), f.ID()}
		},
		Scan: scanFile,
	}
}

// FileRepository persists workspace file records.
type FileRepository struct {
	*Repo[*models.File]
}

func NewFileRepository(db *shared.Database) *FileRepository {
	return &FileRepository{Repo: NewRepo("file", db, fileStatements, fileMapper())}
}

// GetByNameMode retrieves the file registered under a name and mode.
func (r *FileRepository) GetByNameMode(ctx context.Context, name string, mode models.Mode) (*models.File, error) {
	return r.getBy(ctx, fileStatements.SelectByKey, name+"/"+mode.String(), name, mode.String())
}
