// Package store persists deck state: reviewed sets, removal history and track metadata.
package store

import (
	"context"
	"sync"
	"time"
)

const (
	// ReviewedKeyPrefix prefixes a list key to form its reviewed-set storage key
	ReviewedKeyPrefix = "reviewed."
	// HistoryKey stores the removal history
	HistoryKey = "history.removals.v1"
	// MetadataCacheKey stores artist genres, track popularity and preview bindings
	MetadataCacheKey = "trackMetadataCache.v1"
	// LegacyPreviewCacheKey is the older preview-only cache, read through on load
	LegacyPreviewCacheKey = "deezer.preview.cache"
	// WaveformCacheKey stores base64-encoded waveform envelopes
	WaveformCacheKey = "waveforms.cache.v1"
)

// KV is a durable blob store keyed by name.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV is an in-process KV, used in tests and when no store path is configured.
type MemoryKV struct {
	mutex sync.RWMutex
	data  map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.data, key)
	return nil
}

// Option configures a store.
type Option func(*options)

type options struct {
	debounce time.Duration
}

func defaultOptions() options {
	return options{debounce: 500 * time.Millisecond}
}

// WithDebounce overrides the delay between a mutation and the debounced write.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
