package storage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/okian/formmatch/internal/domain/template"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Connection pool limits.
const (
	maxOpenConns    = 16
	maxIdleConns    = 4
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// SQLStore reads templates from the form_templates table, one JSON record
// per row, ordered by id. The same named queries serve SQLite and
// PostgreSQL; placeholders are rebound per driver.
type SQLStore struct {
	db  *sqlx.DB
	dot *dotsql.DotSql
}

type templateRow struct {
	ID       int64  `db:"id"`
	Document string `db:"document"`
}

// NewSQLiteStore opens a SQLite database file. Both plain paths and
// sqlite:// URLs are accepted.
func NewSQLiteStore(ctx context.Context, name string) (*SQLStore, error) {
	if strings.TrimSpace(name) == "" {
		return nil, unavailable("open", errors.New("sqlite file name is empty"))
	}
	if strings.HasPrefix(name, "sqlite://") {
		u, err := url.Parse(name)
		if err != nil {
			return nil, unavailable("open", fmt.Errorf("invalid database URL: %w", err))
		}
		// sqlite://file.db is relative, sqlite:///abs/file.db absolute.
		name = u.Host + u.Path
	}
	return openSQL(ctx, "sqlite3", name)
}

// NewPostgresStore opens a PostgreSQL database from a DSN or URL.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, unavailable("open", errors.New("postgres DSN is empty"))
	}
	return openSQL(ctx, "postgres", dsn)
}

func openSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dot, err := loadQueries()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, unavailable("open", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("open", err)
	}
	return &SQLStore{db: db, dot: dot}, nil
}

// loadQueries parses every embedded .sql file into one set of named queries.
func loadQueries() (*dotsql.DotSql, error) {
	var combined strings.Builder
	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		combined.Write(content)
		combined.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load query files: %w", err)
	}
	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}
	return dot, nil
}

func (s *SQLStore) query(name string) (string, error) {
	q, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return s.db.Rebind(q), nil
}

// DriverName returns the sqlx driver in use.
func (s *SQLStore) DriverName() string { return s.db.DriverName() }

// ListTemplates returns every row of form_templates ordered by id.
func (s *SQLStore) ListTemplates(ctx context.Context) ([]template.Template, error) {
	const op = "list templates"
	q, err := s.query("list-templates")
	if err != nil {
		return nil, unavailable(op, err)
	}
	var rows []templateRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, unavailable(op, err)
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		var rec map[string]any
		if err := json.Unmarshal([]byte(row.Document), &rec); err != nil {
			return nil, corruptf(op, err, "row %d", row.ID)
		}
		records = append(records, rec)
	}
	return decodeRecords(op, records)
}

// EnsureSchema creates form_templates if it is missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	q, err := s.query("create-templates-table")
	if err != nil {
		return unavailable("create table", err)
	}
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return unavailable("create table", err)
	}
	return nil
}

// Seed inserts records after the current highest id in one transaction.
func (s *SQLStore) Seed(ctx context.Context, records []template.Record) error {
	const op = "seed"
	if _, err := decodeRecords(op, recordMaps(records)); err != nil {
		return err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	nextQ, err := s.query("next-template-id")
	if err != nil {
		return unavailable(op, err)
	}
	insertQ, err := s.query("insert-template")
	if err != nil {
		return unavailable(op, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	if err := tx.GetContext(ctx, &next, nextQ); err != nil {
		return unavailable(op, err)
	}
	for _, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return corrupt(op, err)
		}
		if _, err := tx.ExecContext(ctx, insertQ, next, string(doc)); err != nil {
			return unavailable(op, err)
		}
		next++
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
