package frames

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// ErrInvalidIdentifier reports a frame or column name that is not a plain
// identifier and therefore cannot be quoted into a statement.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a DuckDB database holding one table per frame.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a frame store at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create frame store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping frame store: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory frame store.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open frame store: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ident validates name and returns it double-quoted for interpolation into
// a statement.
func ident(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return `"` + name + `"`, nil
}

// Column names and types one CSV column for ingestion.
type Column struct {
	Name string
	Type string
}

var typePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*$`)

// IngestOptions tune CSV ingestion. The zero value lets DuckDB detect the
// delimiter, header row and column types.
type IngestOptions struct {
	Columns   []Column // declared column set; empty means sniff
	Delimiter string   // field delimiter; empty means sniff
	Header    bool     // force header parsing instead of sniffing
}

// IngestCSV loads the CSV file at path into a frame named table, replacing
// any frame already stored under that name. It returns the stats of the
// ingested frame, with SizeBytes taken from the source file.
func (s *Store) IngestCSV(ctx context.Context, table, path string, opts IngestOptions) (FrameStats, error) {
	qt, err := ident(table)
	if err != nil {
		return FrameStats{}, err
	}

	reader, err := readCSVClause(opts)
	if err != nil {
		return FrameStats{}, err
	}

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM %s`, qt, reader)
	if _, err := s.db.ExecContext(ctx, stmt, path); err != nil {
		return FrameStats{}, fmt.Errorf("failed to ingest %s: %w", table, err)
	}

	stats, err := s.Stats(ctx, table)
	if err != nil {
		return FrameStats{}, err
	}
	if info, err := os.Stat(path); err == nil {
		stats.SizeBytes = info.Size()
	}

	return stats, nil
}

// readCSVClause renders the read_csv table function call for opts, with the
// file path left as the bound parameter.
func readCSVClause(opts IngestOptions) (string, error) {
	var parts []string

	if opts.Delimiter != "" {
		parts = append(parts, fmt.Sprintf("delim = '%s'", strings.ReplaceAll(opts.Delimiter, "'", "''")))
	}
	if opts.Header || len(opts.Columns) > 0 {
		parts = append(parts, "header = true")
	}
	if len(opts.Columns) > 0 {
		cols := make([]string, 0, len(opts.Columns))
		for _, c := range opts.Columns {
			if !identPattern.MatchString(c.Name) {
				return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, c.Name)
			}
			if !typePattern.MatchString(c.Type) {
				return "", fmt.Errorf("invalid column type %q", c.Type)
			}
			cols = append(cols, fmt.Sprintf("'%s': '%s'", c.Name, c.Type))
		}
		parts = append(parts, fmt.Sprintf("columns = {%s}", strings.Join(cols, ", ")))
	}

	if len(parts) == 0 {
		return "read_csv_auto(?)", nil
	}
	return fmt.Sprintf("read_csv(?, %s)", strings.Join(parts, ", ")), nil
}

// ExportCSV writes a frame to a CSV file with a header row, creating parent
// directories as needed.
func (s *Store) ExportCSV(ctx context.Context, table, path string) error {
	qt, err := ident(table)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	stmt := fmt.Sprintf(`COPY %s TO ? (FORMAT CSV, HEADER)`, qt)
	if _, err := s.db.ExecContext(ctx, stmt, path); err != nil {
		return fmt.Errorf("failed to export %s: %w", table, err)
	}

	return nil
}

// FrameStats is the shape summary of one frame. SizeBytes is the size of
// the source payload where one is known; transforms inside the store carry
// no payload of their own.
type FrameStats struct {
	Rows      int64
	Cols      int64
	Nulls     int64
	PctNulls  float64
	SizeBytes int64
}

// Stats computes the row, column and null counts of a frame in one scan.
func (s *Store) Stats(ctx context.Context, table string) (FrameStats, error) {
	qt, err := ident(table)
	if err != nil {
		return FrameStats{}, err
	}

	cols, err := s.columns(ctx, table)
	if err != nil {
		return FrameStats{}, err
	}

	terms := make([]string, 0, len(cols))
	for _, c := range cols {
		qc, err := ident(c)
		if err != nil {
			return FrameStats{}, err
		}
		terms = append(terms, fmt.Sprintf("COUNT(*) - COUNT(%s)", qc))
	}

	stmt := fmt.Sprintf(`SELECT COUNT(*), %s FROM %s`, strings.Join(terms, " + "), qt)
	stats := FrameStats{Cols: int64(len(cols))}
	if err := s.db.QueryRowContext(ctx, stmt).Scan(&stats.Rows, &stats.Nulls); err != nil {
		return FrameStats{}, fmt.Errorf("failed to compute stats for %s: %w", table, err)
	}

	if cells := stats.Rows * stats.Cols; cells > 0 {
		stats.PctNulls = float64(stats.Nulls) / float64(cells) * 100
	}

	return stats, nil
}

// columns lists a frame's column names in declaration order.
func (s *Store) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", table, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("frame %s does not exist", table)
	}

	return cols, nil
}

// HasFrame reports whether a frame is stored under name.
func (s *Store) HasFrame(ctx context.Context, name string) (bool, error) {
	var present bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = ?)`, name).Scan(&present)
	if err != nil {
		return false, fmt.Errorf("failed to check frame %s: %w", name, err)
	}
	return present, nil
}

// ListFrames lists the stored frame names in sorted order.
func (s *Store) ListFrames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to list frames: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	return names, nil
}

// DropFrame removes a frame if it exists.
func (s *Store) DropFrame(ctx context.Context, name string) error {
	qt, err := ident(name)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, qt)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	return nil
}

// Rows counts a frame's rows.
func (s *Store) Rows(ctx context.Context, table string) (int64, error) {
	qt, err := ident(table)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, qt)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
