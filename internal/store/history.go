package store

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"swipesort/internal/core"
)

// HistoryStore is the bounded removal log, newest first.
type HistoryStore struct {
	kv       KV
	logger   *zap.Logger
	debounce *debouncer

	mutex   sync.Mutex
	entries []core.RemovalEntry
	writes  sync.Mutex
}

// NewHistoryStore creates a store and loads any persisted history.
func NewHistoryStore(ctx context.Context, kv KV, logger *zap.Logger, opts ...Option) *HistoryStore {
	o := buildOptions(opts)
	h := &HistoryStore{
		kv:     kv,
		logger: logger,
	}
	h.debounce = newDebouncer(o.debounce, func() {
		h.write(context.Background())
	})
	h.load(ctx)
	return h
}

func (h *HistoryStore) load(ctx context.Context) {
	raw, found, err := h.kv.Get(ctx, HistoryKey)
	if err != nil {
		h.logger.Warn("Failed to read removal history, starting empty", zap.Error(err))
		return
	}
	if !found {
		return
	}

	var entries []core.RemovalEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		h.logger.Warn("Removal history corrupted, starting empty", zap.Error(err))
		return
	}
	if len(entries) > core.MaxHistory {
		entries = entries[:core.MaxHistory]
	}
	h.entries = entries
	h.logger.Debug("Loaded removal history", zap.Int("count", len(entries)))
}

// Add prepends batch, keeping its internal order, and trims the oldest entries.
func (h *HistoryStore) Add(batch ...core.RemovalEntry) {
	if len(batch) == 0 {
		return
	}

	h.mutex.Lock()
	next := make([]core.RemovalEntry, 0, len(batch)+len(h.entries))
	next = append(next, batch...)
	next = append(next, h.entries...)
	if len(next) > core.MaxHistory {
		next = next[:core.MaxHistory]
	}
	h.entries = next
	h.mutex.Unlock()

	h.debounce.Trigger()
}

// Remove deletes the entry with the given id, if present.
func (h *HistoryStore) Remove(id string) {
	h.RemoveBatch([]string{id})
}

// RemoveBatch deletes all entries whose id is in ids.
func (h *HistoryStore) RemoveBatch(ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	h.mutex.Lock()
	kept := h.entries[:0:0]
	for _, entry := range h.entries {
		if _, ok := drop[entry.ID]; !ok {
			kept = append(kept, entry)
		}
	}
	changed := len(kept) != len(h.entries)
	h.entries = kept
	h.mutex.Unlock()

	if changed {
		h.debounce.Trigger()
	}
}

// Clear empties the history and writes immediately.
func (h *HistoryStore) Clear(ctx context.Context) {
	h.mutex.Lock()
	h.entries = nil
	h.mutex.Unlock()

	h.Flush(ctx)
}

// Entries returns a snapshot, newest first.
func (h *HistoryStore) Entries() []core.RemovalEntry {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	out := make([]core.RemovalEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Get returns the entries matching ids, in history order.
func (h *HistoryStore) Get(ids []string) []core.RemovalEntry {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	var out []core.RemovalEntry
	for _, entry := range h.entries {
		if _, ok := want[entry.ID]; ok {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of entries.
func (h *HistoryStore) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.entries)
}

// Flush cancels any pending debounced write and writes immediately.
func (h *HistoryStore) Flush(ctx context.Context) {
	h.debounce.Cancel()
	h.write(ctx)
}

func (h *HistoryStore) write(ctx context.Context) {
	h.writes.Lock()
	defer h.writes.Unlock()

	entries := h.Entries()
	data, err := json.Marshal(entries)
	if err == nil {
		err = h.kv.Put(ctx, HistoryKey, data)
	}
	if err != nil {
		h.logger.Warn("Failed to persist removal history", zap.Int("count", len(entries)), zap.Error(err))
		return
	}
	h.logger.Debug("Persisted removal history", zap.Int("count", len(entries)))
}
