// Package database provides database helper functions
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
)

// SlowQueryThreshold marks queries worth a warning.
const SlowQueryThreshold = 250 * time.Millisecond

// TestConnection runs a trivial query against db.
func TestConnection(ctx context.Context, db *sql.DB) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("connection test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}
	return nil
}

// CheckAndLogSlowQuery logs query on the database channel when it ran longer
// than SlowQueryThreshold.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	if logger == nil || duration <= SlowQueryThreshold {
		return
	}
	query = strings.Join(strings.Fields(query), " ")
	if len(query) > 200 {
		query = query[:200] + "..."
	}
	logger.Database().Warn("Slow query detected", "query", query, "duration", duration)
}

// NullString returns the string or "" for NULL.
func NullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
