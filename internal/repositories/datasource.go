package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
)

var datasourceStatements = StatementSet{
	Table: "datasource",
	CreateTable: `CREATE TABLE IF NOT EXISTS datasource (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	oid TEXT NOT NULL,
	name TEXT NOT NULL,
	publisher TEXT,
	website TEXT,
	url TEXT NOT NULL,
	description TEXT,
	created DATETIME NOT NULL,
	modified DATETIME NOT NULL,
	UNIQUE (name)
)`,
	DropTable:   `DROP TABLE IF EXISTS datasource`,
	TableExists: tableExistsStmt,
	Insert: `INSERT INTO datasource (oid, name, publisher, website, url, description, created, modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	Update: `UPDATE datasource SET name = ?, publisher = ?, website = ?, url = ?, description = ?, modified = ?
WHERE id = ?`,
	SelectByID:  `SELECT id, oid, name, publisher, website, url, description, created, modified FROM datasource WHERE id = ?`,
	SelectByKey: `SELECT id, oid, name, publisher, website, url, description, created, modified FROM datasource WHERE name = ?`,
	SelectAll:   `SELECT id, oid, name, publisher, website, url, description, created, modified FROM datasource ORDER BY name`,
	RowExists:   `SELECT EXISTS (SELECT 1 FROM datasource WHERE id = ? LIMIT 1)`,
	Delete:      `DELETE FROM datasource WHERE id = ?`,
}

// datasourceRow is the flat row shape for the datasource table.
type datasourceRow struct {
	id          int64
	oid         string
	name        string
	publisher   sql.NullString
	website     sql.NullString
	url         string
	description sql.NullString
	created     time.Time
	modified    time.Time
}

func (r datasourceRow) entity() (*models.DataSource, error) {
	src := models.NewDataSource(r.name, r.publisher.String, r.website.String, r.url, r.description.String)
	if err := src.AssignID(r.id); err != nil {
		return nil, err
	}
	src.SetOID(r.oid)
	src.SetCreatedAt(r.created)
	src.Touch(r.modified)
	return src, nil
}

func scanDataSource(row rowScanner) (*models.DataSource, error) {
	var r datasourceRow
	if err := row.Scan(&r.id, &r.oid, &r.name, &r.publisher, &r.website, &r.url, &r.description, &r.created, &r.modified); err != nil {
		return nil, err
	}
	return r.entity()
}

func datasourceMapper() Mapper[*models.DataSource] {
	return Mapper[*models.DataSource]{
		InsertArgs: func(s *models.DataSource) []any {
			return []any{s.OID(), s.Name(), nullString(s.Publisher()), nullString(s.Website()), s.URL(), nullString(s.Description()), s.CreatedAt(), s.ModifiedAt()}
		},
		UpdateArgs: func(s *models.DataSource) []any {
			return []any{s.Name(), nullString(s.Publisher()), nullString(s.Website()), s.URL(), nullString(s.Description()), s.ModifiedAt(), s.ID()}
		},
		Scan: scanDataSource,
	}
}

// DataSourceRepository persists datasources.
type DataSourceRepository struct {
	*Repo[*models.DataSource]
}

func NewDataSourceRepository(db *shared.Database) *DataSourceRepository {
	return &DataSourceRepository{NewRepo("datasource", db, datasourceStatements, datasourceMapper())}
}

// GetByName retrieves a datasource by its unique name.
func (r *DataSourceRepository) GetByName(ctx context.Context, name string) (*models.DataSource, error) {
	return r.getBy(ctx, r.stmts.SelectByKey, name, name)
}
