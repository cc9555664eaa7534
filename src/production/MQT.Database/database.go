package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	_ "modernc.org/sqlite"
)

// Open creates a connection pool for the configured driver and verifies it within timeout
func Open(cfg config.DatabaseConfig, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open SQLite database: %w", err)
	}

	// SQLite serialises writers; an in-memory database also lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping SQLite: %w", err)
	}
	return db, nil
}

// Manager handles schema operations
type Manager struct {
	db     *sql.DB
	driver string
}

// NewManager creates a new database manager
func NewManager(db *sql.DB, driver string) *Manager {
	return &Manager{db: db, driver: driver}
}

// CreateTables creates the required tables if they don't exist
func (m *Manager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ts := "TIMESTAMPTZ"
	if m.driver == config.DriverSQLite {
		ts = "TIMESTAMP"
	}

	for _, stmt := range schema {
		query := strings.ReplaceAll(stmt, "{{ts}}", ts)
		if _, err := m.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id     TEXT PRIMARY KEY,
		username    TEXT NOT NULL UNIQUE,
		email       TEXT NOT NULL UNIQUE,
		password    TEXT NOT NULL,
		role        TEXT NOT NULL,
		active      BOOLEAN NOT NULL DEFAULT true,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		role_id     TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		board_id    TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT '',
		image       TEXT NOT NULL DEFAULT '',
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sensors (
		sensor_id   TEXT PRIMARY KEY,
		board_id    TEXT NOT NULL REFERENCES boards(board_id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		pin         INTEGER NOT NULL,
		sensor_type TEXT NOT NULL,
		topic       TEXT NOT NULL UNIQUE,
		image       TEXT NOT NULL DEFAULT '',
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		reading_id  TEXT PRIMARY KEY,
		sensor_id   TEXT NOT NULL REFERENCES sensors(sensor_id) ON DELETE CASCADE,
		value       DOUBLE PRECISION NOT NULL,
		unit        TEXT NOT NULL DEFAULT '',
		created_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alert_rules (
		rule_id     TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		sensor_id   TEXT NOT NULL REFERENCES sensors(sensor_id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		message     TEXT NOT NULL,
		threshold   DOUBLE PRECISION NOT NULL,
		operator    TEXT NOT NULL,
		channel     TEXT NOT NULL,
		address     TEXT NOT NULL,
		seq         BIGINT NOT NULL,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dashboards (
		dashboard_id TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		sensor_ids   TEXT NOT NULL DEFAULT '[]',
		created_at   {{ts}} NOT NULL,
		updated_at   {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_user ON boards (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sensors_board ON sensors (board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_sensor_created_desc ON readings (sensor_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_created_desc ON readings (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_alert_rules_sensor ON alert_rules (sensor_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_dashboards_user ON dashboards (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_roles_name ON roles (name)`,
}
