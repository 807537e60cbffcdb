package content

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
)

// OptionRepository serves option lists from the options table.
type OptionRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewOptionRepository(db *sql.DB, logger *logging.ChanneledLogger) *OptionRepository {
	return &OptionRepository{db: db, logger: logger}
}

// FetchOptions returns the options of kind whose value or label contains
// query, case-insensitively, in weight order.
func (r *OptionRepository) FetchOptions(ctx context.Context, kind, query string) ([]rendering.Option, error) {
	sqlQuery := `SELECT value, label FROM options WHERE kind = ?`
	args := []any{kind}
	if q := strings.TrimSpace(query); q != "" {
		sqlQuery += ` AND (lower(value) LIKE ? OR lower(label) LIKE ?)`
		pattern := "%" + strings.ToLower(q) + "%"
		args = append(args, pattern, pattern)
	}
	sqlQuery += ` ORDER BY weight, label`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query options of %s: %w", kind, err)
	}
	defer rows.Close()

	var options []rendering.Option
	for rows.Next() {
		var opt rendering.Option
		if err := rows.Scan(&opt.Value, &opt.Label); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	database.CheckAndLogSlowQuery(r.logger, sqlQuery, time.Since(start))
	return options, rows.Err()
}

// Store inserts or relabels an option.
func (r *OptionRepository) Store(ctx context.Context, row *content.OptionRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO options (kind, value, label, weight) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind, value) DO UPDATE SET label = excluded.label, weight = excluded.weight`,
		row.Kind, row.Value, row.Label, row.Weight)
	if err != nil {
		return fmt.Errorf("failed to store option %s/%s: %w", row.Kind, row.Value, err)
	}
	return nil
}
