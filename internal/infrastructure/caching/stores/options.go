package stores

import (
	"sync"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
)

type optionKey struct {
	kind  string
	query string
}

type cachedOptions struct {
	options  []rendering.Option
	storedAt time.Time
}

// OptionStore caches fetched option lists by kind and query so that several
// form instances asking for the same list share one fetch result.
type OptionStore struct {
	lists map[optionKey]cachedOptions
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
}

// NewOptionStore creates an option list cache with the given ttl.
func NewOptionStore(ttl time.Duration) *OptionStore {
	return &OptionStore{
		lists: make(map[optionKey]cachedOptions),
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetOptions returns a copy of a cached list.
func (s *OptionStore) GetOptions(kind, query string) ([]rendering.Option, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.lists[optionKey{kind, query}]
	if !exists || s.expired(entry.storedAt) {
		return nil, false
	}
	return append([]rendering.Option(nil), entry.options...), true
}

// SetOptions caches a copy of options.
func (s *OptionStore) SetOptions(kind, query string, options []rendering.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[optionKey{kind, query}] = cachedOptions{
		options:  append([]rendering.Option(nil), options...),
		storedAt: s.now(),
	}
}

// InvalidateKind drops every cached list of kind.
func (s *OptionStore) InvalidateKind(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.lists {
		if key.kind == kind {
			delete(s.lists, key)
		}
	}
}

// PurgeExpired removes expired lists and returns how many were dropped.
func (s *OptionStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int
	for key, entry := range s.lists {
		if s.expired(entry.storedAt) {
			delete(s.lists, key)
			purged++
		}
	}
	return purged
}

func (s *OptionStore) expired(storedAt time.Time) bool {
	return s.ttl > 0 && s.now().Sub(storedAt) > s.ttl
}
