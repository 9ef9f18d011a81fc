package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("database: record not found")
	// ErrConflict is returned when a conditional update lost a race with another writer
	ErrConflict = errors.New("database: concurrent update")
)

// DriverName maps a DB_TYPE value onto a registered sql driver
func DriverName(dbType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "", "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres", "postgresql":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// Connect establishes the global connection for the given DB_TYPE and DSN
func Connect(dbType, dsn string) error {
	driver, err := DriverName(dbType)
	if err != nil {
		return err
	}
	db, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects to the database and makes sure the schema exists
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite3" {
		if err := ensureDirForSQLite(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers, and :memory: databases are per connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the global database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// ensureDirForSQLite creates the parent directory of a SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %q: %w", dir, err)
	}
	return nil
}

// schema is written in the subset of SQL shared by SQLite and PostgreSQL.
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			daily_target INTEGER NOT NULL DEFAULT 10,
			goal_total INTEGER NOT NULL DEFAULT 0,
			notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"drills", `
		CREATE TABLE IF NOT EXISTS drills (
			id TEXT NOT NULL,
			user_id BIGINT NOT NULL REFERENCES users(id),
			module TEXT NOT NULL DEFAULT 'vocabulary',
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			interval_days INTEGER NOT NULL DEFAULT 1,
			repetition INTEGER NOT NULL DEFAULT 0,
			ease DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			due TEXT NOT NULL,
			last_grade INTEGER NOT NULL DEFAULT 0,
			last_review TEXT NOT NULL DEFAULT '',
			review_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, id)
		)
	`},
	{"drills_due_idx", `CREATE INDEX IF NOT EXISTS drills_user_due_idx ON drills (user_id, due)`},
	{"streaks", `
		CREATE TABLE IF NOT EXISTS streaks (
			user_id BIGINT PRIMARY KEY REFERENCES users(id),
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_day_key TEXT NOT NULL DEFAULT '',
			version BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`},
	{"daily_attempts", `
		CREATE TABLE IF NOT EXISTS daily_attempts (
			user_id BIGINT NOT NULL REFERENCES users(id),
			day TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, day)
		)
	`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
