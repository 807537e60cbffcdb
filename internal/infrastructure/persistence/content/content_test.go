package content

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/caching/stores"
	schema "github.com/AtRiskMedia/styletree-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
	"github.com/google/go-cmp/cmp"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = io.Discard
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatalf("NewChanneledLogger: %v", err)
	}
	return logger
}

func openTestDB(t *testing.T) (*database.DB, *logging.ChanneledLogger) {
	t.Helper()
	logger := testLogger(t)
	db, err := database.NewConnection(database.Options{
		Driver:     "sqlite3",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tc := schema.NewTableCreator()
	if err := tc.CreateSchema(context.Background(), db.DB); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	if err := tc.SeedInitialContent(context.Background(), db.DB); err != nil {
		t.Fatalf("SeedInitialContent: %v", err)
	}
	return db, logger
}

func TestPageRepositoryRoundTrip(t *testing.T) {
	db, logger := openTestDB(t)
	ctx := context.Background()
	repo := NewPageRepository(db.DB, stores.NewPageStore(time.Minute), nil, logger)

	root := rendering.NewStyleNode(1, "form", nil,
		rendering.NewStyleNode(2, "text-input", map[string]rendering.FieldValue{"name": rendering.Text("title")}))
	page := &content.Page{ID: "p1", Slug: "contact", Title: "Contact", Languages: []string{"en", "fr"}, Root: root}
	if err := repo.Store(ctx, page); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := repo.FindBySlug(ctx, "contact")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if got.ID != "p1" || got.Root.Type() != "form" || len(got.Root.Children) != 1 {
		t.Fatalf("unexpected page %+v", got)
	}
	if diff := cmp.Diff([]string{"en", "fr"}, got.Languages); diff != "" {
		t.Errorf("languages (-want +got):\n%s", diff)
	}
	if name := rendering.ResolveField(got.Root.Children[0], "name", "en"); name != "title" {
		t.Errorf("child name = %q", name)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("FindAll returned %d pages, want seeded + stored", len(all))
	}
}

func TestPageRepositoryNotFound(t *testing.T) {
	db, logger := openTestDB(t)
	repo := NewPageRepository(db.DB, stores.NewPageStore(0), nil, logger)
	_, err := repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, repositories.ErrPageNotFound) {
		t.Errorf("err = %v, want ErrPageNotFound", err)
	}
}

func TestRecordRepository(t *testing.T) {
	db, logger := openTestDB(t)
	ctx := context.Background()
	repo := NewRecordRepository(db.DB, logger)

	for _, row := range []*content.RecordRow{
		{Section: "people", RecordID: "a", Data: rendering.Record{"title": "Ada"}, Changed: time.Unix(100, 0)},
		{Section: "people", RecordID: "b", Data: rendering.Record{"title": "Bob"}, Changed: time.Unix(200, 0)},
	} {
		if err := repo.Store(ctx, row); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	all, err := repo.FindBySection(ctx, "people", "")
	if err != nil {
		t.Fatalf("FindBySection: %v", err)
	}
	want := []rendering.Record{{"id": "b", "title": "Bob"}, {"id": "a", "title": "Ada"}}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}

	one, err := repo.FindBySection(ctx, "people", "a")
	if err != nil || len(one) != 1 || one[0]["title"] != "Ada" {
		t.Errorf("FindBySection(a) = %v, %v", one, err)
	}
}

func TestOptionRepository(t *testing.T) {
	db, logger := openTestDB(t)
	repo := NewOptionRepository(db.DB, logger)

	got, err := repo.FetchOptions(context.Background(), "group", "")
	if err != nil {
		t.Fatalf("FetchOptions: %v", err)
	}
	want := []rendering.Option{{Value: "editors", Label: "Editors"}, {Value: "authors", Label: "Authors"}, {Value: "readers", Label: "Readers"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}

	filtered, err := repo.FetchOptions(context.Background(), "group", "AUTH")
	if err != nil {
		t.Fatalf("FetchOptions: %v", err)
	}
	if diff := cmp.Diff([]rendering.Option{{Value: "authors", Label: "Authors"}}, filtered); diff != "" {
		t.Errorf("filtered (-want +got):\n%s", diff)
	}
}

func TestSubmissionRepository(t *testing.T) {
	db, logger := openTestDB(t)
	ctx := context.Background()
	repo := NewSubmissionRepository(db.DB, logger)

	sub := &content.Submission{
		ID: "s1", PageID: "hello", FormID: "f1", FormNode: 3,
		Values: map[string][]string{"name": {"Ada"}},
		Files:  []content.StoredFile{{Field: "avatar", Name: "a.png", Path: "uploads/a.png", Size: 3}},
	}
	if err := repo.Store(ctx, sub); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := repo.FindByPage(ctx, "hello")
	if err != nil || len(got) != 1 {
		t.Fatalf("FindByPage = %v, %v", got, err)
	}
	if diff := cmp.Diff(sub.Values, got[0].Values); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sub.Files, got[0].Files); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
}

func TestFilePageLoaderSeed(t *testing.T) {
	db, logger := openTestDB(t)
	dir := t.TempDir()
	fixture := `
title: People
languages: [en, fr]
tree:
  id: 1
  type: section
  fields:
    section: {content: people}
  children:
    - id: 2
      type: text-input
      fields:
        name: {content: title}
records:
  - section: people
    id: r1
    data: {title: Ada}
options:
  - kind: colour
    value: red
`
	if err := os.WriteFile(filepath.Join(dir, "people.yaml"), []byte(fixture), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	pages := NewPageRepository(db.DB, stores.NewPageStore(0), nil, logger)
	records := NewRecordRepository(db.DB, logger)
	options := NewOptionRepository(db.DB, logger)

	n, err := NewFilePageLoader(dir, nil, logger).Seed(ctx, pages, records, options)
	if err != nil || n != 1 {
		t.Fatalf("Seed = %d, %v", n, err)
	}

	page, err := pages.FindByID(ctx, "people")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if page.Title != "People" || page.Root.Type() != "section" {
		t.Errorf("unexpected page %+v", page)
	}
	recs, _ := records.FindBySection(ctx, "people", "r1")
	if len(recs) != 1 {
		t.Errorf("records = %v", recs)
	}
	opts, _ := options.FetchOptions(ctx, "colour", "")
	if diff := cmp.Diff([]rendering.Option{{Value: "red", Label: "red"}}, opts); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}
}

func TestFilePageLoaderBareTree(t *testing.T) {
	loaded, err := NewFilePageLoader("", nil, testLogger(t)).Decode("pages/solo.json", []byte(`{"id": 1, "type": "page"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if loaded.Page.ID != "solo" || loaded.Page.Root.Type() != "page" {
		t.Errorf("unexpected page %+v", loaded.Page)
	}
	if _, err := NewFilePageLoader("", nil, testLogger(t)).Decode("x.yaml", []byte("title: nothing")); err == nil {
		t.Error("expected error for fixture without tree")
	}
}
