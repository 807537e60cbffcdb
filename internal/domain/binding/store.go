// Package binding reconciles record values, declared defaults and live edits
// into the canonical form value of one field of one node.
package binding

import (
	"sync"
	"time"
)

// Key addresses one bound value inside one form instance.
type Key struct {
	FormID string `json:"formId"`
	NodeID int    `json:"nodeId"`
	Field  string `json:"field"`
}

// Entry is the stored state of a bound value.
type Entry struct {
	Value    string `json:"value"`
	RecordID string `json:"recordId"`
	Edited   bool   `json:"edited"`
}

// Store holds local UI state for form instances. Implementations must be safe
// for concurrent use; distinct form instances never share entries.
type Store interface {
	Get(key Key) (Entry, bool)
	Put(key Key, entry Entry) error
	DeleteForm(formID string) error
	// Touch marks formID as in use.
	Touch(formID string) error
	// PurgeIdle drops every form last touched before cutoff and returns
	// the dropped ids.
	PurgeIdle(cutoff time.Time) ([]string, error)
}

type nodeField struct {
	nodeID int
	field  string
}

// MemoryStore is the in-process Store used when no persistent path is configured.
type MemoryStore struct {
	forms   map[string]map[nodeField]Entry
	touched map[string]time.Time
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		forms:   make(map[string]map[nodeField]Entry),
		touched: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, exists := s.forms[key.FormID]
	if !exists {
		return Entry{}, false
	}
	entry, exists := form[nodeField{key.NodeID, key.Field}]
	return entry, exists
}

func (s *MemoryStore) Put(key Key, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	form, exists := s.forms[key.FormID]
	if !exists {
		form = make(map[nodeField]Entry)
		s.forms[key.FormID] = form
	}
	form[nodeField{key.NodeID, key.Field}] = entry
	s.touched[key.FormID] = s.now()
	return nil
}

func (s *MemoryStore) DeleteForm(formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, formID)
	delete(s.touched, formID)
	return nil
}

func (s *MemoryStore) Touch(formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[formID] = s.now()
	return nil
}

func (s *MemoryStore) PurgeIdle(cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged []string
	for formID, at := range s.touched {
		if at.Before(cutoff) {
			purged = append(purged, formID)
		}
	}
	for _, formID := range purged {
		delete(s.forms, formID)
		delete(s.touched, formID)
	}
	return purged, nil
}

// FormCount reports how many form instances hold state.
func (s *MemoryStore) FormCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}
