package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var dataframeStatements = StatementSet{
	Table: "dataframe",
	CreateTable: `CREATE TABLE IF NOT EXISTS dataframe (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	dataset_id INTEGER,
	datasource_id INTEGER,
	mode TEXT NOT NULL,
	stage TEXT NOT NULL,
	frame_table TEXT NOT NULL,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	nrows INTEGER NOT NULL DEFAULT 0,
	ncols INTEGER NOT NULL DEFAULT 0,
	nulls INTEGER NOT NULL DEFAULT 0,
	pct_nulls REAL NOT NULL DEFAULT 0,
	task_id INTEGER,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL,
	UNIQUE (name, mode)
)`,
	DropTable:   `DROP TABLE IF EXISTS dataframe`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO dataframe (oid, name, description, dataset_id, datasource_id, mode, stage, frame_table, size_bytes, nrows, ncols, nulls, pct_nulls, task_id, created, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE dataframe SET name = ?, description = ?, dataset_id = ?, datasource_id = ?, mode = ?, stage = ?, frame_table = ?, size_bytes = ?, nrows = ?, ncols = ?, nulls = ?, pct_nulls = ?, task_id = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, description, dataset_id, datasource_id, mode, stage, frame_table, size_bytes, nrows, ncols, nulls, pct_nulls, task_id, created, modified FROM dataframe WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, description, dataset_id, datasource_id, mode, stage, frame_table, size_bytes, nrows, ncols, nulls, pct_nulls, task_id, created, modified FROM dataframe WHERE name = ? AND mode = ?`,
	SelectAll:   `SELECT id, oid, name, description, dataset_id, datasource_id, mode, stage, frame_table, size_bytes, nrows, ncols, nulls, pct_nulls, task_id, created, modified FROM dataframe ORDER BY name, mode`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM dataframe WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM dataframe WHERE id = ?`,
}

const dataframeSelectByDataset = `SELECT id, oid, name, description, dataset_id, datasource_id, mode, stage, frame_table, size_bytes, nrows, ncols, nulls, pct_nulls, task_id, created, modified FROM dataframe WHERE dataset_id = ? ORDER BY name`

const dataframeDeleteByDataset = `DELETE FROM dataframe WHERE dataset_id = ?`

// dataframeRow is the flat row shape for the dataframe table.
type dataframeRow struct {
	id          int64
	oid         string
	name        string
	description sql.NullString
	datasetID   sql.NullInt64
	sourceID    sql.NullInt64
	mode        string
	stage       string
	frameTable  string
	sizeBytes   int64
	nrows       int64
	ncols       int64
	nulls       int64
	pctNulls    float64
	taskID      sql.NullInt64
	created     time.Time
	modified    time.Time
}

func (r dataframeRow) entity() (*models.DataFrame, error) {
	f := models.NewDataFrame(r.name, r.description.String, r.frameTable, models.Mode(r.mode), models.Stage(r.stage))
	f.SetDatasetID(r.datasetID.Int64)
	f.SetSourceID(r.sourceID.Int64)
	f.SetTaskID(r.taskID.Int64)
	f.SetStats(r.nrows, r.ncols, r.nulls, r.pctNulls, r.sizeBytes)
	if err := f.AssignID(r.id); err != nil {
		return nil, err
	}
	f.SetOID(r.oid)
	f.SetCreatedAt(r.created)
	f.Touch(r.modified)
	return f, nil
}

func scanDataFrame(row rowScanner) (*models.DataFrame, error) {
	var r dataframeRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.description, &r.datasetID, &r.sourceID, &r.mode, &r.stage, &r.frameTable, &r.sizeBytes, &r.nrows, &r.ncols, &r.nulls, &r.pctNulls, &r.taskID, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func dataframeMapper() Mapper[*models.DataFrame] {
	return Mapper[*models.DataFrame]{
		InsertArgs: func(f *models.DataFrame) []any {
			return []any{f.OID(), f.Name(), nullString(f.Description()), nullInt64(f.DatasetID()), nullInt64(f.SourceID()), f.Mode().String(), f.Stage().String(), f.Table(), f.SizeBytes(), f.Rows(), f.Cols(), f.Nulls(), f.PctNulls(), nullInt64(f.TaskID()), f.CreatedAt(), f.ModifiedAt()}
		},
		UpdateArgs: func(f *models.DataFrame) []any {
			return []any{f.Name(), nullString(f.Description()), nullInt64(f.DatasetID()), nullInt64(f.SourceID()), f.Mode().String(), f.Stage().String(), f.Table(), f.SizeBytes(), f.Rows(), f.Cols(), f.Nulls(), f.PctNulls(), nullInt64(f.TaskID()), f.ModifiedAt(), f.ID()}
		},
		Scan: scanDataFrame,
	}
}

// DataFrameRepository persists dataframes.
type DataFrameRepository struct {
	*Repo[*models.DataFrame]
}

func NewDataFrameRepository(db *shared.Database) *DataFrameRepository {
	return &DataFrameRepository{NewRepo("dataframe", db, dataframeStatements, dataframeMapper())}
}

// GetByNameMode retrieves a dataframe by its (name, mode) business key.
func (r *DataFrameRepository) GetByNameMode(ctx context.Context, name string, mode models.Mode) (*models.DataFrame, error) {
	return r.getBy(ctx, r.stmts.SelectByKey, name+"/"+mode.String(), name, mode.String())
}

// GetByDataset retrieves the dataframes belonging to a dataset.
func (r *DataFrameRepository) GetByDataset(ctx context.Context, datasetID int64) ([]*models.DataFrame, error) {
	return r.listBy(ctx, dataframeSelectByDataset, datasetID)
}

// RemoveByDataset deletes every dataframe belonging to a dataset. Removing
// none is not an error.
func (r *DataFrameRepository) RemoveByDataset(ctx context.Context, datasetID int64) error {
	if _, err := r.db.Exec(ctx, dataframeDeleteByDataset, datasetID); err != nil {
		return r.writeErr("delete dataframe", err)
	}
	return nil
}
