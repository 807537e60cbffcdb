package formstate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/google/go-cmp/cmp"
)

func openStore(t *testing.T, path string) *BoltStore {
	t.Helper()
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "forms.db")
	s := openStore(t, path)

	key := binding.Key{FormID: "f1", NodeID: 7, Field: "value"}
	want := binding.Entry{Value: "edited", RecordID: "r1", Edited: true}
	if err := s.Put(key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = openStore(t, path)
	defer s.Close()
	got, ok := s.Get(key)
	if !ok {
		t.Fatal("entry lost across reopen")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry (-want +got):\n%s", diff)
	}
}

func TestBoltStoreFormIsolation(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "forms.db"))
	defer s.Close()

	a := binding.Key{FormID: "a", NodeID: 1, Field: "value"}
	b := binding.Key{FormID: "b", NodeID: 1, Field: "value"}
	s.Put(a, binding.Entry{Value: "A"})
	s.Put(b, binding.Entry{Value: "B"})

	if err := s.DeleteForm("a"); err != nil {
		t.Fatalf("DeleteForm: %v", err)
	}
	if err := s.DeleteForm("never-existed"); err != nil {
		t.Fatalf("DeleteForm unknown: %v", err)
	}
	if _, ok := s.Get(a); ok {
		t.Error("deleted form still has state")
	}
	if got, ok := s.Get(b); !ok || got.Value != "B" {
		t.Errorf("other form affected: %+v %v", got, ok)
	}
	ids, err := s.FormIDs()
	if err != nil {
		t.Fatalf("FormIDs: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, ids); diff != "" {
		t.Errorf("form ids (-want +got):\n%s", diff)
	}
}

func TestBoltStoreDrivesBinder(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "forms.db"))
	defer s.Close()
	b := binding.NewBinder(s, nil)

	scope := binding.Scope{FormID: "f", NodeID: 2, Key: "value", RecordID: "r1", RecordValue: "Ada", HasRecord: true}
	if got := b.Bind(scope, "declared"); got != "Ada" {
		t.Fatalf("initial bind = %q", got)
	}
	if err := b.Edit("f", 2, "value", "Grace"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got := b.Bind(scope, "declared"); got != "Grace" {
		t.Errorf("rebind after edit = %q, want Grace", got)
	}
}

func TestBoltStorePurgesIdleForms(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "forms.db"))
	defer s.Close()
	base := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base.Add(-3 * time.Hour) }
	s.Put(binding.Key{FormID: "old", NodeID: 1, Field: "value"}, binding.Entry{Value: "stale"})
	s.now = func() time.Time { return base }
	fresh := binding.Key{FormID: "new", NodeID: 1, Field: "value"}
	s.Put(fresh, binding.Entry{Value: "kept"})
	if err := s.Touch("viewed"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	purged, err := s.PurgeIdle(base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeIdle: %v", err)
	}
	if diff := cmp.Diff([]string{"old"}, purged); diff != "" {
		t.Errorf("purged (-want +got):\n%s", diff)
	}
	ids, err := s.FormIDs()
	if err != nil {
		t.Fatalf("FormIDs: %v", err)
	}
	if diff := cmp.Diff([]string{"new", "viewed"}, ids); diff != "" {
		t.Errorf("form ids (-want +got):\n%s", diff)
	}
	if got, ok := s.Get(fresh); !ok || got.Value != "kept" {
		t.Errorf("fresh entry = %+v %v", got, ok)
	}
}
