package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var jobStatements = StatementSet{
	Table: "job",
	CreateTable: `CREATE TABLE IF NOT EXISTS job (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	state TEXT NOT NULL,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL
)`,
	DropTable:   `DROP TABLE IF EXISTS job`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO job (oid, name, description, state, created, modified)
VALUES (?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE job SET name = ?, description = ?, state = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, description, state, created, modified FROM job WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, description, state, created, modified FROM job WHERE name = ? ORDER BY id DESC LIMIT 1`,
	SelectAll:   `SELECT id, oid, name, description, state, created, modified FROM job ORDER BY id DESC`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM job WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM job WHERE id = ?`,
}

// jobRow is the flat row shape for the job table.
type jobRow struct {
	id          int64
	oid         string
	name        string
	description sql.NullString
	state       string
	created     time.Time
	modified    time.Time
}

func (r jobRow) entity() (*models.Job, error) {
	job := models.NewJob(r.name, r.description.String)
	if err := job.SetState(models.State(r.state)); err != nil {
		return nil, err
	}
	if err := job.AssignID(r.id); err != nil {
		return nil, err
	}
	job.SetOID(r.oid)
	job.SetCreatedAt(r.created)
	job.Touch(r.modified)
	return job, nil
}

func scanJob(row rowScanner) (*models.Job, error) {
	var r jobRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.description, &r.state, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func jobMapper() Mapper[*models.Job] {
	return Mapper[*models.Job]{
		InsertArgs: func(j *models.Job) []any {
			return []any{j.OID(), j.Name(), nullString(j.Description()), j.State().String(), j.CreatedAt(), j.ModifiedAt()}
		},
		UpdateArgs: func(j *models.Job) []any {
			return []any{j.Name(), nullString(j.Description()), j.State().String(), j.ModifiedAt(), j.ID()}
		},
		Scan: scanJob,
	}
}

// JobRepository persists jobs together with their task aggregate.
type JobRepository struct {
	*Repo[*models.Job]
	tasks *TaskRepository
}

func NewJobRepository(db *shared.Database, tasks *TaskRepository) *JobRepository {
	return &JobRepository{
		Repo:  NewRepo("job", db, jobStatements, jobMapper()),
		tasks: tasks,
	}
}

// Add persists the job and every task attached to it. Tasks pick up the
// job's id before they are written.
func (r *JobRepository) Add(ctx context.Context, job *models.Job) (*models.Job, error) {
	job, err := r.Repo.Add(ctx, job)
	if err != nil {
		return nil, err
	}

	for _, t := range job.Tasks() {
		t.SetJobID(job.ID())
		if _, err := r.tasks.Add(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to add task %q: %w", t.Name(), err)
		}
	}

	return job, nil
}

// Get retrieves a job by id with its tasks loaded in run order.
func (r *JobRepository) Get(ctx context.Context, id int64) (*models.Job, error) {
	job, err := r.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tasks, err := r.tasks.GetByJob(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		job.AddTask(t)
	}

	return job, nil
}

// GetByName retrieves the most recent job with the given name.
func (r *JobRepository) GetByName(ctx context.Context, name string) (*models.Job, error) {
	job, err := r.getBy(ctx, r.stmts.SelectByKey, name, name)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, job.ID())
}

// Remove deletes the job, its tasks and their profiles.
func (r *JobRepository) Remove(ctx context.Context, id int64) error {
	if err := r.tasks.RemoveByJob(ctx, id); err != nil {
		return err
	}
	return r.Repo.Remove(ctx, id)
}

// AddEntity is the dynamically typed form of Add.
func (r *JobRepository) AddEntity(ctx context.Context, e models.Entity) (models.Entity, error) {
	job, ok := e.(*models.Job)
	if !ok {
		return nil, fmt.Errorf("job repository cannot store %T", e)
	}

	added, err := r.Add(ctx, job)
	if err != nil {
		return nil, err
	}
	return added, nil
}

// GetEntity is the dynamically typed form of Get.
func (r *JobRepository) GetEntity(ctx context.Context, id int64) (models.Entity, error) {
	job, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return job, nil
}
