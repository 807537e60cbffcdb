// Package content provides the SQL-backed content repositories
package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
)

// TreeParser decodes a stored tree document.
type TreeParser func(data []byte) (*rendering.StyleNode, error)

func defaultTreeParser(data []byte) (*rendering.StyleNode, error) {
	var root rendering.StyleNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

type PageRepository struct {
	db     *sql.DB
	cache  *stores.PageStore
	parse  TreeParser
	logger *logging.ChanneledLogger
}

// NewPageRepository creates a page repository. A nil parse decodes nested
// trees only.
func NewPageRepository(db *sql.DB, cache *stores.PageStore, parse TreeParser, logger *logging.ChanneledLogger) *PageRepository {
	if parse == nil {
		parse = defaultTreeParser
	}
	return &PageRepository{
		db:     db,
		cache:  cache,
		parse:  parse,
		logger: logger,
	}
}

func (r *PageRepository) FindByID(ctx context.Context, id string) (*content.Page, error) {
	start := time.Now()
	if page, found := r.cache.GetPage(id); found {
		r.logger.LogCacheOperation("page", id, true, time.Since(start))
		return page, nil
	}
	r.logger.LogCacheOperation("page", id, false, time.Since(start))

	page, err := r.loadFromDB(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	r.cache.SetPage(page)
	return page, nil
}

func (r *PageRepository) FindBySlug(ctx context.Context, slug string) (*content.Page, error) {
	if id, found := r.cache.GetPageIDBySlug(slug); found {
		if page, ok := r.cache.GetPage(id); ok {
			return page, nil
		}
	}
	page, err := r.loadFromDB(ctx, `WHERE slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	r.cache.SetPage(page)
	return page, nil
}

func (r *PageRepository) FindAll(ctx context.Context) ([]*content.Page, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM pages ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan page id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pages := make([]*content.Page, 0, len(ids))
	for _, id := range ids {
		page, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Store inserts or replaces a page and drops its cache entry.
func (r *PageRepository) Store(ctx context.Context, page *content.Page) error {
	if page == nil || page.ID == "" {
		return errors.New("page requires an id")
	}
	if page.Root == nil {
		return fmt.Errorf("page %s has no tree", page.ID)
	}
	tree, err := json.Marshal(page.Root)
	if err != nil {
		return fmt.Errorf("failed to encode tree of page %s: %w", page.ID, err)
	}
	languages, err := json.Marshal(page.Languages)
	if err != nil {
		return fmt.Errorf("failed to encode languages of page %s: %w", page.ID, err)
	}
	slug := page.Slug
	if slug == "" {
		slug = page.ID
	}
	created := page.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	query := `INSERT INTO pages (id, slug, title, default_language, languages, tree, created, changed)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(id) DO UPDATE SET slug = excluded.slug, title = excluded.title,
	          default_language = excluded.default_language, languages = excluded.languages,
	          tree = excluded.tree, changed = excluded.changed`
	start := time.Now()
	_, err = r.db.ExecContext(ctx, query, page.ID, slug, page.Title, page.DefaultLanguage,
		string(languages), string(tree), created, time.Now().UTC())
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to store page %s: %w", page.ID, err)
	}
	r.cache.InvalidatePage(page.ID)
	return nil
}

func (r *PageRepository) loadFromDB(ctx context.Context, where string, arg string) (*content.Page, error) {
	query := `SELECT id, slug, title, default_language, languages, tree, created, changed FROM pages ` + where

	var (
		page               content.Page
		defaultLang, langs sql.NullString
		tree               string
		changed            sql.NullTime
	)
	start := time.Now()
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&page.ID, &page.Slug, &page.Title, &defaultLang, &langs, &tree, &page.Created, &changed)
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPageNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", arg, err)
	}

	page.DefaultLanguage = database.NullString(defaultLang)
	if raw := database.NullString(langs); raw != "" {
		if err := json.Unmarshal([]byte(raw), &page.Languages); err != nil {
			r.logger.Content().Warn("Ignoring malformed page languages", "pageId", page.ID, "error", err.Error())
		}
	}
	if changed.Valid {
		t := changed.Time
		page.Changed = &t
	}

	root, err := r.parse([]byte(tree))
	if err != nil {
		return nil, fmt.Errorf("failed to decode tree of page %s: %w", page.ID, err)
	}
	page.Root = root
	return &page, nil
}
