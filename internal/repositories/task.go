package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var taskStatements = StatementSet{
	Table: "task",
	CreateTable: `CREATE TABLE IF NOT EXISTS task (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	job_id INTEGER,
	operator TEXT NOT NULL,
	position INTEGER NOT NULL,
	state TEXT NOT NULL,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL
)`,
	DropTable:   `DROP TABLE IF EXISTS task`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO task (oid, name, job_id, operator, position, state, created, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE task SET name = ?, job_id = ?, operator = ?, position = ?, state = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, job_id, operator, position, state, created, modified FROM task WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, job_id, operator, position, state, created, modified FROM task WHERE name = ? ORDER BY id DESC LIMIT 1`,
	SelectAll:   `SELECT id, oid, name, job_id, operator, position, state, created, modified FROM task ORDER BY job_id, position`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM task WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM task WHERE id = ?`,
}

const taskSelectByJob = `SELECT id, oid, name, job_id, operator, position, state, created, modified FROM task WHERE job_id = ? ORDER BY position`

const taskDeleteByJob = `DELETE FROM task WHERE job_id = ?`

// taskRow is the flat row shape for the task table.
type taskRow struct {
	id       int64
	oid      string
	name     string
	jobID    sql.NullInt64
	operator string
	position int64
	state    string
	created  time.Time
	modified time.Time
}

func (r taskRow) entity() (*models.Task, error) {
	t := models.NewTask(r.name, r.operator, int(r.position))
	t.SetJobID(r.jobID.Int64)
	if err := t.SetState(models.State(r.state)); err != nil {
		return nil, err
	}
	if err := t.AssignID(r.id); err != nil {
		return nil, err
	}
	t.SetOID(r.oid)
	t.SetCreatedAt(r.created)
	t.Touch(r.modified)
	return t, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var r taskRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.jobID, &r.operator, &r.position, &r.state, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func taskMapper() Mapper[*models.Task] {
	return Mapper[*models.Task]{
		InsertArgs: func(t *models.Task) []any {
			return []any{t.OID(), t.Name(), nullInt64(t.JobID()), t.Operator(), t.Position(), t.State().String(), t.CreatedAt(), t.ModifiedAt()}
		},
		UpdateArgs: func(t *models.Task) []any {
			return []any{t.Name(), nullInt64(t.JobID()), t.Operator(), t.Position(), t.State().String(), t.ModifiedAt(), t.ID()}
		},
		Scan: scanTask,
	}
}

// TaskRepository persists tasks.
type TaskRepository struct {
	*Repo[*models.Task]
	profiles *ProfileRepository
}

func NewTaskRepository(db *shared.Database, profiles *ProfileRepository) *TaskRepository {
	return &TaskRepository{
		Repo:     NewRepo("task", db, taskStatements, taskMapper()),
		profiles: profiles,
	}
}

// GetByJob retrieves a job's tasks in run order.
func (r *TaskRepository) GetByJob(ctx context.Context, jobID int64) ([]*models.Task, error) {
	return r.listBy(ctx, taskSelectByJob, jobID)
}

// RemoveByJob deletes every task belonging to a job, along with their
// profiles. Removing none is not an error.
func (r *TaskRepository) RemoveByJob(ctx context.Context, jobID int64) error {
	if err := r.profiles.RemoveByJob(ctx, jobID); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, taskDeleteByJob, jobID); err != nil {
		return r.writeErr("delete task", err)
	}
	return nil
}
