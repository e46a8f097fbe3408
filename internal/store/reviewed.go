package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ReviewedSetStore keeps, per list key, the identifiers of cards already decided on.
// Sets only grow; writes are debounced and coalesced.
type ReviewedSetStore struct {
	kv       KV
	logger   *zap.Logger
	debounce *debouncer

	mutex  sync.Mutex
	sets   map[string]map[string]struct{}
	dirty  map[string]struct{}
	writes sync.Mutex
}

// NewReviewedSetStore creates a store persisting to kv.
func NewReviewedSetStore(kv KV, logger *zap.Logger, opts ...Option) *ReviewedSetStore {
	o := buildOptions(opts)
	s := &ReviewedSetStore{
		kv:     kv,
		logger: logger,
		sets:   make(map[string]map[string]struct{}),
		dirty:  make(map[string]struct{}),
	}
	s.debounce = newDebouncer(o.debounce, func() {
		s.write(context.Background())
	})
	return s
}

// Load returns a copy of the reviewed set for listKey, empty if nothing was persisted.
func (s *ReviewedSetStore) Load(ctx context.Context, listKey string) map[string]struct{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	set := s.ensureLoaded(ctx, listKey)
	out := make(map[string]struct{}, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out
}

// Add records one reviewed identifier.
func (s *ReviewedSetStore) Add(ctx context.Context, listKey, id string) {
	s.AddBatch(ctx, listKey, []string{id})
}

// AddBatch records several reviewed identifiers and schedules a write.
func (s *ReviewedSetStore) AddBatch(ctx context.Context, listKey string, ids []string) {
	s.mutex.Lock()
	set := s.ensureLoaded(ctx, listKey)
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, exists := set[id]; !exists {
			set[id] = struct{}{}
			added++
		}
	}
	if added > 0 {
		s.dirty[listKey] = struct{}{}
	}
	s.mutex.Unlock()

	if added > 0 {
		s.debounce.Trigger()
	}
}

// Has reports whether id was reviewed in listKey.
func (s *ReviewedSetStore) Has(ctx context.Context, listKey, id string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, ok := s.ensureLoaded(ctx, listKey)[id]
	return ok
}

// Flush cancels any pending debounced write and writes immediately.
func (s *ReviewedSetStore) Flush(ctx context.Context) {
	s.debounce.Cancel()
	s.write(ctx)
}

// ensureLoaded must be called with s.mutex held.
func (s *ReviewedSetStore) ensureLoaded(ctx context.Context, listKey string) map[string]struct{} {
	if set, ok := s.sets[listKey]; ok {
		return set
	}

	set := make(map[string]struct{})
	raw, found, err := s.kv.Get(ctx, ReviewedKeyPrefix+listKey)
	switch {
	case err != nil:
		s.logger.Warn("Failed to read reviewed set, starting empty",
			zap.String("listKey", listKey), zap.Error(err))
	case found:
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			s.logger.Warn("Reviewed set corrupted, starting empty",
				zap.String("listKey", listKey), zap.Error(err))
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}

	s.sets[listKey] = set
	return set
}

func (s *ReviewedSetStore) write(ctx context.Context) {
	s.writes.Lock()
	defer s.writes.Unlock()

	s.mutex.Lock()
	snapshot := make(map[string][]string, len(s.dirty))
	for listKey := range s.dirty {
		ids := make([]string, 0, len(s.sets[listKey]))
		for id := range s.sets[listKey] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		snapshot[listKey] = ids
	}
	s.dirty = make(map[string]struct{})
	s.mutex.Unlock()

	for listKey, ids := range snapshot {
		data, err := json.Marshal(ids)
		if err == nil {
			err = s.kv.Put(ctx, ReviewedKeyPrefix+listKey, data)
		}
		if err != nil {
			s.logger.Warn("Failed to persist reviewed set",
				zap.String("listKey", listKey), zap.Error(err))
			s.mutex.Lock()
			s.dirty[listKey] = struct{}{}
			s.mutex.Unlock()
			continue
		}

		s.logger.Debug("Persisted reviewed set",
			zap.String("listKey", listKey), zap.Int("count", len(ids)))
	}
}
