package binding

import (
	"log/slog"
	"time"
)

// pendingRecord marks an entry created by a live edit before the field was
// ever rendered. The next Bind adopts whatever record is bound at that time.
const pendingRecord = "\x00pending"

// Scope identifies the value being bound and carries the record context it
// is read from.
type Scope struct {
	FormID      string
	NodeID      int
	Key         string
	RecordID    string
	RecordValue string
	HasRecord   bool
}

func (s Scope) key() Key {
	return Key{FormID: s.FormID, NodeID: s.NodeID, Field: s.Key}
}

// Binder implements the value binding contract on top of a Store.
type Binder struct {
	store   Store
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewBinder creates a binder over the given store. A nil logger falls back to slog.Default.
func NewBinder(store Store, logger *slog.Logger) *Binder {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{store: store, now: time.Now, logger: logger}
}

// SetIdleTTL sets how long an untouched form instance keeps its state.
// Zero disables purging.
func (b *Binder) SetIdleTTL(ttl time.Duration) {
	b.idleTTL = ttl
}

// Bind returns the current value for scope. The first call for a key
// initialises it from the record value, falling back to declared. Later calls
// return the stored value untouched unless the bound record identity changed.
func (b *Binder) Bind(scope Scope, declared string) string {
	key := scope.key()

	if entry, ok := b.store.Get(key); ok {
		if entry.RecordID == scope.RecordID {
			return entry.Value
		}
		if entry.RecordID == pendingRecord {
			entry.RecordID = scope.RecordID
			b.put(key, entry)
			return entry.Value
		}
	}

	value := declared
	if scope.HasRecord {
		value = scope.RecordValue
	}
	b.put(key, Entry{Value: value, RecordID: scope.RecordID})
	return value
}

// Edit applies a live user edit. It never changes the bound record identity.
func (b *Binder) Edit(formID string, nodeID int, field, value string) error {
	key := Key{FormID: formID, NodeID: nodeID, Field: field}

	entry, ok := b.store.Get(key)
	if !ok {
		entry.RecordID = pendingRecord
	}
	entry.Value = value
	entry.Edited = true
	return b.store.Put(key, entry)
}

// Current returns the stored value without initialising it.
func (b *Binder) Current(formID string, nodeID int, field string) (string, bool) {
	entry, ok := b.store.Get(Key{FormID: formID, NodeID: nodeID, Field: field})
	if !ok {
		return "", false
	}
	return entry.Value, true
}

// Forget drops all state of a form instance.
func (b *Binder) Forget(formID string) error {
	return b.store.DeleteForm(formID)
}

// Touch marks formID as rendered now.
func (b *Binder) Touch(formID string) {
	if err := b.store.Touch(formID); err != nil {
		b.logger.Error("Failed to touch form state", "formId", formID, "error", err.Error())
	}
}

// PurgeExpired drops form instances idle longer than the TTL and returns
// how many were dropped.
func (b *Binder) PurgeExpired() int {
	if b.idleTTL <= 0 {
		return 0
	}
	purged, err := b.store.PurgeIdle(b.now().Add(-b.idleTTL))
	if err != nil {
		b.logger.Error("Failed to purge idle form state", "error", err.Error())
	}
	return len(purged)
}

func (b *Binder) put(key Key, entry Entry) {
	if err := b.store.Put(key, entry); err != nil {
		b.logger.Error("Failed to store bound value",
			"formId", key.FormID, "nodeId", key.NodeID, "field", key.Field, "error", err.Error())
	}
}
