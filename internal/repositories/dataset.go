package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var datasetStatements = StatementSet{
	Table: "dataset",
	CreateTable: `CREATE TABLE IF NOT EXISTS dataset (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	datasource_id INTEGER,
	mode TEXT NOT NULL,
	stage TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	task_id INTEGER,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL,
	UNIQUE (name, mode)
)`,
	DropTable:   `DROP TABLE IF EXISTS dataset`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO dataset (oid, name, description, datasource_id, mode, stage, version, task_id, created, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE dataset SET name = ?, description = ?, datasource_id = ?, mode = ?, stage = ?, version = ?, task_id = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, description, datasource_id, mode, stage, version, task_id, created, modified FROM dataset WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, description, datasource_id, mode, stage, version, task_id, created, modified FROM dataset WHERE name = ? AND mode = ?`,
	SelectAll:   `SELECT id, oid, name, description, datasource_id, mode, stage, version, task_id, created, modified FROM dataset ORDER BY name, mode`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM dataset WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM dataset WHERE id = ?`,
}

// datasetRow is the flat row shape for the dataset table.
type datasetRow struct {
	id          int64
	oid         string
	name        string
	description sql.NullString
	sourceID    sql.NullInt64
	mode        string
	stage       string
	version     int64
	taskID      sql.NullInt64
	created     time.Time
	modified    time.Time
}

func (r datasetRow) entity() (*models.Dataset, error) {
	ds := models.NewDataset(r.name, r.description.String, r.sourceID.Int64, models.Mode(r.mode), models.Stage(r.stage))
	ds.SetVersion(int(r.version))
	ds.SetTaskID(r.taskID.Int64)
	if err := ds.AssignID(r.id); err != nil {
		return nil, err
	}
	ds.SetOID(r.oid)
	ds.SetCreatedAt(r.created)
	ds.Touch(r.modified)
	return ds, nil
}

func scanDataset(row rowScanner) (*models.Dataset, error) {
	var r datasetRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.description, &r.sourceID, &r.mode, &r.stage, &r.version, &r.taskID, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func datasetMapper() Mapper[*models.Dataset] {
	return Mapper[*models.Dataset]{
		InsertArgs: func(d *models.Dataset) []any {
			return []any{d.OID(), d.Name(), nullString(d.Description()), nullInt64(d.SourceID()), d.Mode().String(), d.Stage().String(), d.Version(), nullInt64(d.TaskID()), d.CreatedAt(), d.ModifiedAt()}
		},
		UpdateArgs: func(d *models.Dataset) []any {
			return []any{d.Name(), nullString(d.Description()), nullInt64(d.SourceID()), d.Mode().String(), d.Stage().String(), d.Version(), nullInt64(d.TaskID()), d.ModifiedAt(), d.ID()}
		},
		Scan: scanDataset,
	}
}

// DatasetRepository persists datasets together with their dataframe
// aggregate.
type DatasetRepository struct {
	*Repo[*models.Dataset]
	frames *DataFrameRepository
}

func NewDatasetRepository(db *shared.Database, frames *DataFrameRepository) *DatasetRepository {
	return &DatasetRepository{
		Repo:   NewRepo("dataset", db, datasetStatements, datasetMapper()),
		frames: frames,
	}
}

// Add persists the dataset and every dataframe attached to it. Frames pick
// up the dataset's id as their parent before they are written.
func (r *DatasetRepository) Add(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	ds, err := r.Repo.Add(ctx, ds)
	if err != nil {
		return nil, err
	}

	for _, f := range ds.Frames() {
		f.SetDatasetID(ds.ID())
		if _, err := r.frames.Add(ctx, f); err != nil {
			return nil, fmt.Errorf("failed to add dataframe %q: %w", f.Name(), err)
		}
	}

	return ds, nil
}

// Get retrieves a dataset by id with its dataframes loaded.
func (r *DatasetRepository) Get(ctx context.Context, id int64) (*models.Dataset, error) {
	ds, err := r.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.withFrames(ctx, ds)
}

// GetByNameMode retrieves a dataset by its (name, mode) business key with
// its dataframes loaded.
func (r *DatasetRepository) GetByNameMode(ctx context.Context, name string, mode models.Mode) (*models.Dataset, error) {
	ds, err := r.getBy(ctx, r.stmts.SelectByKey, name+"/"+mode.String(), name, mode.String())
	if err != nil {
		return nil, err
	}
	return r.withFrames(ctx, ds)
}

// Remove deletes the dataset and its dataframes.
func (r *DatasetRepository) Remove(ctx context.Context, id int64) error {
	if err := r.frames.RemoveByDataset(ctx, id); err != nil {
		return err
	}
	return r.Repo.Remove(ctx, id)
}

// AddEntity is the dynamically typed form of Add.
func (r *DatasetRepository) AddEntity(ctx context.Context, e models.Entity) (models.Entity, error) {
	ds, ok := e.(*models.Dataset)
	if !ok {
		return nil, fmt.Errorf("dataset repository cannot store %T", e)
	}

	added, err := r.Add(ctx, ds)
	if err != nil {
		return nil, err
	}
	return added, nil
}

// GetEntity is the dynamically typed form of Get.
func (r *DatasetRepository) GetEntity(ctx context.Context, id int64) (models.Entity, error) {
	ds, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *DatasetRepository) withFrames(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	frames, err := r.frames.GetByDataset(ctx, ds.ID())
	if err != nil {
		return nil, err
	}
	for _, f := range frames {
		ds.AddFrame(f)
	}
	return ds, nil
}
