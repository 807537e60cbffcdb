package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
)

type RecordRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewRecordRepository(db *sql.DB, logger *logging.ChanneledLogger) *RecordRepository {
	return &RecordRepository{db: db, logger: logger}
}

// FindBySection returns the records of section. With a record id only that
// record is returned; otherwise all rows, most recently changed first.
func (r *RecordRepository) FindBySection(ctx context.Context, section, recordID string) ([]rendering.Record, error) {
	query := `SELECT record_id, data FROM records WHERE section = ? ORDER BY changed DESC, record_id`
	args := []any{section}
	if recordID != "" {
		query = `SELECT record_id, data FROM records WHERE section = ? AND record_id = ?`
		args = append(args, recordID)
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records of %s: %w", section, err)
	}
	defer rows.Close()

	var records []rendering.Record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec rendering.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			r.logger.Content().Warn("Skipping malformed record", "section", section, "recordId", id, "error", err.Error())
			continue
		}
		if _, hasID := rec["id"]; !hasID {
			rec["id"] = id
		}
		records = append(records, rec)
	}
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return records, rows.Err()
}

// Store inserts or replaces a record row.
func (r *RecordRepository) Store(ctx context.Context, row *content.RecordRow) error {
	data, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("failed to encode record %s/%s: %w", row.Section, row.RecordID, err)
	}
	changed := row.Changed
	if changed.IsZero() {
		changed = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO records (section, record_id, data, changed) VALUES (?, ?, ?, ?)
		 ON CONFLICT(section, record_id) DO UPDATE SET data = excluded.data, changed = excluded.changed`,
		row.Section, row.RecordID, string(data), changed)
	if err != nil {
		return fmt.Errorf("failed to store record %s/%s: %w", row.Section, row.RecordID, err)
	}
	return nil
}
