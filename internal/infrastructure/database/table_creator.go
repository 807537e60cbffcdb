// Package database provides schema creation and seeding
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent adds the welcome page and the default option lists when
// they are missing.
func (tc *TableCreator) SeedInitialContent(ctx context.Context, db *sql.DB) error {
	var pageExists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pages WHERE slug = 'hello')").Scan(&pageExists)
	if err != nil {
		return fmt.Errorf("failed to check for page existence: %w", err)
	}
	if !pageExists {
		_, err = db.ExecContext(ctx,
			`INSERT INTO pages (id, slug, title, default_language, languages, tree, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			"hello", "hello", "Hello", "en", `["en"]`, welcomeTree, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to insert welcome page: %w", err)
		}
	}

	var optionCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM options WHERE kind = 'group'").Scan(&optionCount); err != nil {
		return fmt.Errorf("failed to count options: %w", err)
	}
	if optionCount == 0 {
		for i, group := range [][2]string{{"editors", "Editors"}, {"authors", "Authors"}, {"readers", "Readers"}} {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO options (kind, value, label, weight) VALUES (?, ?, ?, ?)`,
				"group", group[0], group[1], i); err != nil {
				return fmt.Errorf("failed to insert default option %s: %w", group[0], err)
			}
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS pages (id TEXT PRIMARY KEY, slug TEXT NOT NULL UNIQUE, title TEXT NOT NULL, default_language TEXT, languages TEXT, tree TEXT NOT NULL, created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, changed TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS records (section TEXT NOT NULL, record_id TEXT NOT NULL, data TEXT NOT NULL, changed TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, PRIMARY KEY(section, record_id))`,
	`CREATE TABLE IF NOT EXISTS options (id INTEGER PRIMARY KEY AUTOINCREMENT, kind TEXT NOT NULL, value TEXT NOT NULL, label TEXT NOT NULL, weight INTEGER NOT NULL DEFAULT 0, UNIQUE(kind, value))`,
	`CREATE TABLE IF NOT EXISTS submissions (id TEXT PRIMARY KEY, page_id TEXT NOT NULL REFERENCES pages(id), form_id TEXT NOT NULL, form_node INTEGER NOT NULL, record_id TEXT, payload TEXT NOT NULL, files TEXT, created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_pages_slug ON pages(slug)`,
	`CREATE INDEX IF NOT EXISTS idx_options_kind ON options(kind, weight)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_page_id ON submissions(page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_record ON submissions(page_id, record_id)`,
}

const welcomeTree = `{"id": 1, "type": "page", "children": [
  {"id": 2, "type": "heading", "fields": {"content": {"content": "Hello"}, "level": {"content": "1"}}},
  {"id": 3, "type": "form", "fields": {"notify_email": {"content": ""}}, "children": [
    {"id": 4, "type": "text-input", "fields": {"name": {"content": "name"}, "label": {"content": "Name"}, "required": {"content": "1"}}},
    {"id": 5, "type": "email-input", "fields": {"name": {"content": "email"}, "label": {"content": "Email"}}},
    {"id": 6, "type": "group-picker", "fields": {"name": {"content": "group"}, "label": {"content": "Group"}, "option_kind": {"content": "group"}}},
    {"id": 7, "type": "switch", "fields": {"name": {"content": "subscribe"}, "label": {"content": "Subscribe"}}},
    {"id": 8, "type": "submit-button", "fields": {"content": {"content": "Send"}}}
  ]}
]}`
