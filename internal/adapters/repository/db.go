package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a storage backend.
type Driver string

// Supported drivers. DriverMemory never opens a database.
const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver parses a configured driver name.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DriverMemory:
		return DriverMemory, nil
	case DriverSQLite, DriverPostgres:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, s)
}

// Open opens a database and ensures the review and raw data tables exist.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:udrf.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/udrf?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One writer at a time; concurrent transactions on a shared cache
		// would otherwise fail with SQLITE_LOCKED.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS expert_reviews (
  id TEXT PRIMARY KEY,
  expert_id TEXT NOT NULL,
  department_id TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  section_scores TEXT NOT NULL,
  expert_total REAL,
  item_overrides TEXT NOT NULL DEFAULT '{}',
  narrative_overrides TEXT NOT NULL DEFAULT '{}',
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  is_locked INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  completed_at INTEGER,
  UNIQUE (expert_id, department_id, academic_year)
);
CREATE INDEX IF NOT EXISTS idx_reviews_dept_year ON expert_reviews(department_id, academic_year);

CREATE TABLE IF NOT EXISTS departments (
  id TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  code TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (id, academic_year)
);

CREATE TABLE IF NOT EXISTS department_sections (
  department_id TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  section TEXT NOT NULL,
  payload TEXT NOT NULL,
  PRIMARY KEY (department_id, academic_year, section)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS expert_reviews (
  id TEXT PRIMARY KEY,
  expert_id TEXT NOT NULL,
  department_id TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  section_scores TEXT NOT NULL,
  expert_total DOUBLE PRECISION,
  item_overrides TEXT NOT NULL DEFAULT '{}',
  narrative_overrides TEXT NOT NULL DEFAULT '{}',
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  is_locked BOOLEAN NOT NULL DEFAULT FALSE,
  version BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  completed_at BIGINT,
  UNIQUE (expert_id, department_id, academic_year)
);
CREATE INDEX IF NOT EXISTS idx_reviews_dept_year ON expert_reviews(department_id, academic_year);

CREATE TABLE IF NOT EXISTS departments (
  id TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  code TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (id, academic_year)
);

CREATE TABLE IF NOT EXISTS department_sections (
  department_id TEXT NOT NULL,
  academic_year TEXT NOT NULL,
  section TEXT NOT NULL,
  payload TEXT NOT NULL,
  PRIMARY KEY (department_id, academic_year, section)
);
`
