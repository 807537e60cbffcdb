package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
)

// SubmissionRepository is the SQL submission sink.
type SubmissionRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewSubmissionRepository(db *sql.DB, logger *logging.ChanneledLogger) *SubmissionRepository {
	return &SubmissionRepository{db: db, logger: logger}
}

func (r *SubmissionRepository) Store(ctx context.Context, s *content.Submission) error {
	payload, err := json.Marshal(s.Values)
	if err != nil {
		return fmt.Errorf("failed to encode submission %s: %w", s.ID, err)
	}
	var files sql.NullString
	if len(s.Files) > 0 {
		encoded, err := json.Marshal(s.Files)
		if err != nil {
			return fmt.Errorf("failed to encode files of submission %s: %w", s.ID, err)
		}
		files = sql.NullString{String: string(encoded), Valid: true}
	}
	created := s.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	query := `INSERT INTO submissions (id, page_id, form_id, form_node, record_id, payload, files, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	start := time.Now()
	_, err = r.db.ExecContext(ctx, query, s.ID, s.PageID, s.FormID, s.FormNode, s.RecordID, string(payload), files, created)
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to store submission %s: %w", s.ID, err)
	}
	return nil
}

// FindByPage lists the submissions of a page, newest first.
func (r *SubmissionRepository) FindByPage(ctx context.Context, pageID string) ([]*content.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, page_id, form_id, form_node, record_id, payload, files, created
		 FROM submissions WHERE page_id = ? ORDER BY created DESC, id DESC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions of %s: %w", pageID, err)
	}
	defer rows.Close()

	var out []*content.Submission
	for rows.Next() {
		var (
			s               content.Submission
			recordID, files sql.NullString
			payload         string
		)
		if err := rows.Scan(&s.ID, &s.PageID, &s.FormID, &s.FormNode, &recordID, &payload, &files, &s.Created); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		s.RecordID = database.NullString(recordID)
		if err := json.Unmarshal([]byte(payload), &s.Values); err != nil {
			return nil, fmt.Errorf("failed to decode submission %s: %w", s.ID, err)
		}
		if raw := database.NullString(files); raw != "" {
			if err := json.Unmarshal([]byte(raw), &s.Files); err != nil {
				return nil, fmt.Errorf("failed to decode files of submission %s: %w", s.ID, err)
			}
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
