// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/content"
)

type cachedPage struct {
	page     *content.Page
	storedAt time.Time
}

// PageStore caches loaded pages by id with a slug index. Cached pages are
// shared between requests and must be treated as read-only.
type PageStore struct {
	pages    map[string]cachedPage
	slugToID map[string]string
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewPageStore creates a page cache whose entries expire after ttl. A zero
// ttl keeps entries until invalidated.
func NewPageStore(ttl time.Duration) *PageStore {
	return &PageStore{
		pages:    make(map[string]cachedPage),
		slugToID: make(map[string]string),
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetPage returns a cached page unless it expired.
func (s *PageStore) GetPage(id string) (*content.Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.pages[id]
	if !exists || s.expired(entry.storedAt) {
		return nil, false
	}
	return entry.page, true
}

// GetPageIDBySlug resolves a slug through the index.
func (s *PageStore) GetPageIDBySlug(slug string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, exists := s.slugToID[slug]
	return id, exists
}

// SetPage caches page and indexes its slug.
func (s *PageStore) SetPage(page *content.Page) {
	if page == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[page.ID] = cachedPage{page: page, storedAt: s.now()}
	if page.Slug != "" {
		s.slugToID[page.Slug] = page.ID
	}
}

// InvalidatePage drops a page and its slug entry.
func (s *PageStore) InvalidatePage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.pages[id]; exists && entry.page.Slug != "" {
		delete(s.slugToID, entry.page.Slug)
	}
	delete(s.pages, id)
}

// PurgeExpired removes expired pages and returns how many were dropped.
func (s *PageStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int
	for id, entry := range s.pages {
		if s.expired(entry.storedAt) {
			if entry.page.Slug != "" {
				delete(s.slugToID, entry.page.Slug)
			}
			delete(s.pages, id)
			purged++
		}
	}
	return purged
}

// Len reports the number of cached pages, expired or not.
func (s *PageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

func (s *PageStore) expired(storedAt time.Time) bool {
	return s.ttl > 0 && s.now().Sub(storedAt) > s.ttl
}
