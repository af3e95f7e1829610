package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var profileStatements = StatementSet{
	Table: "profile",
	CreateTable: `CREATE TABLE IF NOT EXISTS profile (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	task_id INTEGER NOT NULL,
	started DATETIME,
	ended DATETIME,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	cpu_pct REAL NOT NULL DEFAULT 0,
	mem_rss INTEGER NOT NULL DEFAULT 0,
	mem_pct REAL NOT NULL DEFAULT 0,
	read_bytes INTEGER NOT NULL DEFAULT 0,
	write_bytes INTEGER NOT NULL DEFAULT 0,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL
)`,
	DropTable:   `DROP TABLE IF EXISTS profile`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO profile (oid, name, task_id, started, ended, duration_ms, cpu_pct, mem_rss, mem_pct, read_bytes, write_bytes, created, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE profile SET name = ?, task_id = ?, started = ?, ended = ?, duration_ms = ?, cpu_pct = ?, mem_rss = ?, mem_pct = ?, read_bytes = ?, write_bytes = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, task_id, started, ended, duration_ms, cpu_pct, mem_rss, mem_pct, read_bytes, write_bytes, created, modified FROM profile WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, task_id, started, ended, duration_ms, cpu_pct, mem_rss, mem_pct, read_bytes, write_bytes, created, modified FROM profile WHERE name = ? ORDER BY id DESC LIMIT 1`,
	SelectAll:   `SELECT id, oid, name, task_id, started, ended, duration_ms, cpu_pct, mem_rss, mem_pct, read_bytes, write_bytes, created, modified FROM profile ORDER BY task_id, id`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM profile WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM profile WHERE id = ?`,
}

const profileSelectByTask = `SELECT id, oid, name, task_id, started, ended, duration_ms, cpu_pct, mem_rss, mem_pct, read_bytes, write_bytes, created, modified FROM profile WHERE task_id = ? ORDER BY id`

const profileDeleteByJob = `DELETE FROM profile WHERE task_id IN (SELECT id FROM task WHERE job_id = ?)`

// profileRow is the flat row shape for the profile table.
type profileRow struct {
	id         int64
	oid        string
	name       string
	taskID     int64
	started    sql.NullTime
	ended      sql.NullTime
	durationMS int64
	cpuPct     float64
	memRSS     int64
	memPct     float64
	readBytes  int64
	writeBytes int64
	created    time.Time
	modified   time.Time
}

func (r profileRow) entity() (*models.Profile, error) {
	p := models.NewProfile(r.name, r.taskID)
	if r.started.Valid || r.ended.Valid {
		p.SetWindow(r.started.Time, r.ended.Time)
	}
	p.SetUsage(r.cpuPct, uint64(r.memRSS), r.memPct, uint64(r.readBytes), uint64(r.writeBytes))
	if err := p.AssignID(r.id); err != nil {
		return nil, err
	}
	p.SetOID(r.oid)
	p.SetCreatedAt(r.created)
	p.Touch(r.modified)
	return p, nil
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var r profileRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.taskID, &r.started, &r.ended, &r.durationMS, &r.cpuPct, &r.memRSS, &r.memPct, &r.readBytes, &r.writeBytes, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func profileMapper() Mapper[*models.Profile] {
	return Mapper[*models.Profile]{
		InsertArgs: func(p *models.Profile) []any {
			return []any{
				p.OID(), p.Name(), p.TaskID(),
				nullTime(p.Started()), nullTime(p.Ended()), p.Duration().Milliseconds(),
				p.CPUPercent(), int64(p.MemoryRSS()), p.MemoryPercent(),
				int64(p.ReadBytes()), int64(p.WriteBytes()),
				p.CreatedAt(), p.ModifiedAt(),
			}
		},
		UpdateArgs: func(p *models.Profile) []any {
			return []any{
				p.Name(), p.TaskID(),
				nullTime(p.Started()), nullTime(p.Ended()), p.Duration().Milliseconds(),
				p.CPUPercent(), int64(p.MemoryRSS()), p.MemoryPercent(),
				int64(p.ReadBytes()), int64(p.WriteBytes()),
				p.ModifiedAt(), p.ID(),
			}
		},
		Scan: scanProfile,
	}
}

// ProfileRepository persists task resource profiles.
type ProfileRepository struct {
	*Repo[*models.Profile]
}

func NewProfileRepository(db *shared.Database) *ProfileRepository {
	return &ProfileRepository{Repo: NewRepo("profile", db, profileStatements, profileMapper())}
}

// GetByTask retrieves the profiles recorded for a task, oldest first.
func (r *ProfileRepository) GetByTask(ctx context.Context, taskID int64) ([]*models.Profile, error) {
	return r.listBy(ctx, profileSelectByTask, taskID)
}

// RemoveByJob deletes the profiles of every task belonging to a job.
// Removing none is not an error.
func (r *ProfileRepository) RemoveByJob(ctx context.Context, jobID int64) error {
	if _, err := r.db.Exec(ctx, profileDeleteByJob, jobID); err != nil {
		return r.writeErr("delete profile", err)
	}
	return nil
}
