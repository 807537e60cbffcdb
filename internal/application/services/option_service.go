package services

import (
	"context"
	"sync"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
)

type optionTaskKey struct {
	formID string
	nodeID int
}

// optionTask is one fetch owned by a (form, node) pair.
type optionTask struct {
	generation uint64
	kind       string
	query      string
	cancel     context.CancelFunc
	done       bool
	options    []rendering.Option
}

// OptionService fetches remote option lists in the background. Each (form,
// node) owns at most one live fetch; a new kind or query supersedes and
// cancels the previous one, and results arriving for a stale generation or
// an unmounted node are dropped.
type OptionService struct {
	source   repositories.OptionSource
	cache    *stores.OptionStore
	notifier messaging.Notifier
	timeout  time.Duration
	logger   *logging.ChanneledLogger

	mu         sync.Mutex
	generation uint64
	tasks      map[optionTaskKey]*optionTask
	mounted    map[string]map[int]struct{}
	touched    map[string]time.Time
	idleTTL    time.Duration
	now        func() time.Time
	inflight   sync.WaitGroup
}

// NewOptionService creates a new option service. notifier may be nil.
func NewOptionService(source repositories.OptionSource, cache *stores.OptionStore, notifier messaging.Notifier, timeout time.Duration, logger *logging.ChanneledLogger) *OptionService {
	return &OptionService{
		source:   source,
		cache:    cache,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
		tasks:    make(map[optionTaskKey]*optionTask),
		mounted:  make(map[string]map[int]struct{}),
		touched:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetIdleTTL sets how long a form instance stays mounted without a render.
// Zero disables purging.
func (s *OptionService) SetIdleTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleTTL = ttl
}

// Options implements rendering.OptionProvider. It never blocks: a cache miss
// starts a fetch and reports ready=false.
func (s *OptionService) Options(formID string, nodeID int, kind, query string) ([]rendering.Option, bool) {
	key := optionTaskKey{formID: formID, nodeID: nodeID}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.markMountedLocked(formID, nodeID)

	task := s.tasks[key]
	if task != nil && task.kind == kind && task.query == query {
		if task.done {
			return copyOptions(task.options), true
		}
		return nil, false
	}

	if cached, ok := s.cache.GetOptions(kind, query); ok {
		if task != nil {
			task.cancel()
		}
		s.generation++
		s.tasks[key] = &optionTask{
			generation: s.generation,
			kind:       kind,
			query:      query,
			cancel:     func() {},
			done:       true,
			options:    cached,
		}
		return cached, true
	}

	if task != nil && !task.done {
		s.logger.Options().Debug("Superseding option fetch", "formId", formID, "nodeId", nodeID,
			"generation", task.generation, "kind", kind)
		task.cancel()
	}
	s.startLocked(key, kind, query)
	return nil, false
}

func (s *OptionService) startLocked(key optionTaskKey, kind, query string) {
	s.generation++
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	task := &optionTask{generation: s.generation, kind: kind, query: query, cancel: cancel}
	s.tasks[key] = task

	s.inflight.Add(1)
	go s.fetch(ctx, key, task)
}

func (s *OptionService) fetch(ctx context.Context, key optionTaskKey, task *optionTask) {
	defer s.inflight.Done()
	defer task.cancel()

	start := time.Now()
	options, err := s.source.FetchOptions(ctx, task.kind, task.query)
	duration := time.Since(start)

	s.mu.Lock()
	current := s.tasks[key]
	if current != task {
		s.mu.Unlock()
		s.logger.Options().Debug("Discarding stale option list", "formId", key.formID, "nodeId", key.nodeID,
			"generation", task.generation, "duration", duration)
		return
	}
	if !s.isMountedLocked(key.formID, key.nodeID) {
		delete(s.tasks, key)
		s.mu.Unlock()
		s.logger.Options().Debug("Discarding option list for unmounted node", "formId", key.formID, "nodeId", key.nodeID)
		return
	}
	if err != nil {
		// An empty list is shown; the failure is not cached so the next
		// render retries.
		s.logger.LogError(logging.ChannelOptions, "fetch options", err, map[string]any{
			"formId": key.formID, "nodeId": key.nodeID, "kind": task.kind,
		})
		options = nil
	} else {
		s.cache.SetOptions(task.kind, task.query, options)
	}
	task.done = true
	task.options = options
	s.mu.Unlock()

	s.logger.Options().Debug("Option list ready", "formId", key.formID, "nodeId", key.nodeID,
		"kind", task.kind, "count", len(options), "duration", duration)

	if err == nil {
		if s.notifier != nil {
			s.notifier.NotifyOptionsReady(messaging.OptionsReady{
				FormID:     key.formID,
				NodeID:     key.nodeID,
				Kind:       task.kind,
				Generation: task.generation,
				Count:      len(options),
			})
		}
		return
	}
	s.mu.Lock()
	if s.tasks[key] == task {
		delete(s.tasks, key)
	}
	s.mu.Unlock()
}

// Retain replaces the mounted node set of formID after a render pass and
// cancels fetches owned by nodes that are gone.
func (s *OptionService) Retain(formID string, mounted []int) {
	set := make(map[int]struct{}, len(mounted))
	for _, id := range mounted {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted[formID] = set
	s.touched[formID] = s.now()
	for key, task := range s.tasks {
		if key.formID != formID {
			continue
		}
		if _, ok := set[key.nodeID]; !ok {
			task.cancel()
			delete(s.tasks, key)
		}
	}
}

// Release unmounts every node of formID and cancels its fetches.
func (s *OptionService) Release(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(formID)
}

// PurgeExpired releases form instances not rendered within the idle TTL
// and returns how many were released.
func (s *OptionService) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)
	var purged int
	for formID, at := range s.touched {
		if at.Before(cutoff) {
			s.releaseLocked(formID)
			purged++
		}
	}
	return purged
}

// MountedForms reports how many form instances hold mounted nodes.
func (s *OptionService) MountedForms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mounted)
}

func (s *OptionService) releaseLocked(formID string) {
	delete(s.mounted, formID)
	delete(s.touched, formID)
	for key, task := range s.tasks {
		if key.formID == formID {
			task.cancel()
			delete(s.tasks, key)
		}
	}
}

// Pending reports whether formID has fetches still running.
func (s *OptionService) Pending(formID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, task := range s.tasks {
		if key.formID == formID && !task.done {
			return true
		}
	}
	return false
}

// WaitIdle blocks until no fetch is running or ctx ends.
func (s *OptionService) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InvalidateKind drops cached lists of kind so the next render refetches.
func (s *OptionService) InvalidateKind(kind string) {
	s.cache.InvalidateKind(kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, task := range s.tasks {
		if task.kind == kind {
			task.cancel()
			delete(s.tasks, key)
		}
	}
}

func (s *OptionService) markMountedLocked(formID string, nodeID int) {
	set := s.mounted[formID]
	if set == nil {
		set = make(map[int]struct{})
		s.mounted[formID] = set
	}
	set[nodeID] = struct{}{}
	s.touched[formID] = s.now()
}

func (s *OptionService) isMountedLocked(formID string, nodeID int) bool {
	_, ok := s.mounted[formID][nodeID]
	return ok
}

func copyOptions(options []rendering.Option) []rendering.Option {
	if options == nil {
		return nil
	}
	out := make([]rendering.Option, len(options))
	copy(out, options)
	return out
}
