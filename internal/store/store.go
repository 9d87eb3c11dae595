package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/hqlcore/internal/sqlwalk"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config selects the database to open.
type Config struct {
	// Driver is one of the Driver constants. Empty means sqlite3.
	Driver string `yaml:"driver"`

	// DSN is the driver-specific data source name. For sqlite3 it is a
	// file path or ":memory:".
	DSN string `yaml:"dsn"`
}

// ConfigFromEnv reads HQLC_DRIVER and HQLC_DSN.
func ConfigFromEnv() Config {
	return Config{
		Driver: os.Getenv("HQLC_DRIVER"),
		DSN:    os.Getenv("HQLC_DSN"),
	}
}

func (c Config) driver() string {
	if c.Driver == "" {
		return DriverSQLite
	}
	return strings.ToLower(c.Driver)
}

// PlaceholderStyle returns the placeholder syntax the driver expects.
func (c Config) PlaceholderStyle() sqlwalk.PlaceholderStyle {
	if c.driver() == DriverPostgres {
		return sqlwalk.Dollar
	}
	return sqlwalk.Question
}

// Store provides database connections for query execution.
type Store struct {
	db     *sql.DB
	config Config
}

// Open opens and pings the configured database. SQLite databases get
// pragmas applied and are limited to one connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := cfg.driver()
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("no data source name for driver %s", driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows one writer, and each connection to ":memory:" is
		// a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	return &Store{db: db, config: Config{Driver: driver, DSN: cfg.DSN}}, nil
}

// OpenSQLite opens a SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	return Open(context.Background(), Config{Driver: DriverSQLite, DSN: path})
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Config returns the normalized configuration the store was opened with.
func (s *Store) Config() Config {
	return s.config
}

// ExecScript runs a multi-statement SQL script, such as fixture DDL.
// Statements are split on semicolons at line ends.
func (s *Store) ExecScript(ctx context.Context, script string) error {
	for i, stmt := range splitScript(script) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute statement %d: %w", i+1, err)
		}
	}
	return nil
}

// LoadScript runs the SQL script at path.
func (s *Store) LoadScript(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if err := s.ExecScript(ctx, string(data)); err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	return nil
}

func splitScript(script string) []string {
	var stmts []string
	var current strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
