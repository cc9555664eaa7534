package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db     *sql.DB
	driver string
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB, driver string) *HealthChecker {
	return &HealthChecker{db: db, driver: driver}
}

// Ping checks if the database connection is healthy
func (h *HealthChecker) Ping(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// CheckDatabaseHealth pings and runs a trivial query
func (h *HealthChecker) CheckDatabaseHealth(ctx context.Context) error {
	if err := h.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}

// GetHealthStatus returns the current health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	check := map[string]interface{}{"status": "ok"}
	overall := "ok"
	if err := h.CheckDatabaseHealth(ctx); err != nil {
		check["status"] = "error"
		check["error"] = err.Error()
		overall = "degraded"
	}

	return map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
		"status":    overall,
		"checks": map[string]interface{}{
			h.driver: check,
		},
	}
}
