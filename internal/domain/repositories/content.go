// Package repositories defines the collaborator interfaces the engine talks
// to. They abstract the data persistence details so the application layer
// stays decoupled from the database.
package repositories

import (
	"context"
	"errors"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
)

var (
	// ErrPageNotFound is returned when no page matches an id or slug.
	ErrPageNotFound = errors.New("page not found")
	// ErrMissingPage is returned when a submission names no page.
	ErrMissingPage = errors.New("form is not attached to a page")
	// ErrInvalidFormToken is returned when a submission token fails validation.
	ErrInvalidFormToken = errors.New("invalid form token")
)

// PageRepository is the content source of style trees.
type PageRepository interface {
	FindByID(ctx context.Context, id string) (*content.Page, error)
	FindBySlug(ctx context.Context, slug string) (*content.Page, error)
	FindAll(ctx context.Context) ([]*content.Page, error)
	Store(ctx context.Context, page *content.Page) error
}

// RecordRepository supplies the records nodes bind to.
type RecordRepository interface {
	FindBySection(ctx context.Context, section, recordID string) ([]rendering.Record, error)
	Store(ctx context.Context, row *content.RecordRow) error
}

// OptionSource fetches remote option lists. It may block; callers run it in
// a goroutine bound to a context.
type OptionSource interface {
	FetchOptions(ctx context.Context, kind, query string) ([]rendering.Option, error)
}

// SubmissionSink receives accepted submissions.
type SubmissionSink interface {
	Store(ctx context.Context, submission *content.Submission) error
}
