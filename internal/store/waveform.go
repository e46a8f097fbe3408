package store

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultWaveformCapacity bounds the number of envelopes kept in memory and on disk.
const DefaultWaveformCapacity = 2000

// WaveformCache keeps waveform envelopes per preview key, bounded by LRU eviction.
// Envelopes persist as base64 of little-endian float32 samples.
type WaveformCache struct {
	kv       KV
	logger   *zap.Logger
	debounce *debouncer

	mutex    sync.RWMutex
	capacity int
	bloom    *bloom.BloomFilter
	lru      *lru.Cache[string, []float32]
	writes   sync.Mutex
}

// NewWaveformCache creates a cache holding up to capacity envelopes and loads the persisted map.
func NewWaveformCache(ctx context.Context, kv KV, logger *zap.Logger, capacity int, opts ...Option) *WaveformCache {
	if capacity <= 0 {
		capacity = DefaultWaveformCapacity
	}
	o := buildOptions(opts)
	cache, _ := lru.New[string, []float32](capacity)

	w := &WaveformCache{
		kv:       kv,
		logger:   logger,
		capacity: capacity,
		bloom:    bloom.NewWithEstimates(uint(capacity), 0.001),
		lru:      cache,
	}
	w.debounce = newDebouncer(o.debounce, func() {
		w.write(context.Background())
	})
	w.load(ctx)
	return w
}

func (w *WaveformCache) load(ctx context.Context) {
	raw, found, err := w.kv.Get(ctx, WaveformCacheKey)
	if err != nil {
		w.logger.Warn("Failed to read waveform cache, starting empty", zap.Error(err))
		return
	}
	if !found {
		return
	}

	var encoded map[string]string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		w.logger.Warn("Waveform cache corrupted, starting empty", zap.Error(err))
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	skipped := 0
	for key, value := range encoded {
		samples, err := DecodeWaveform(value)
		if err != nil {
			skipped++
			continue
		}
		w.bloom.AddString(key)
		w.lru.Add(key, samples)
	}
	if skipped > 0 {
		w.logger.Warn("Skipped undecodable waveforms", zap.Int("count", skipped))
	}
}

// Get returns the envelope cached for key.
func (w *WaveformCache) Get(key string) ([]float32, bool) {
	w.mutex.RLock()
	maybe := w.bloom.TestString(key)
	w.mutex.RUnlock()
	if !maybe {
		return nil, false
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.lru.Get(key)
}

// Put stores an envelope and schedules a write.
func (w *WaveformCache) Put(key string, samples []float32) {
	if key == "" || len(samples) == 0 {
		return
	}

	w.mutex.Lock()
	w.bloom.AddString(key)
	w.lru.Add(key, append([]float32(nil), samples...))
	w.mutex.Unlock()

	w.debounce.Trigger()
}

// Len returns the number of cached envelopes.
func (w *WaveformCache) Len() int {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.lru.Len()
}

// Flush cancels any pending debounced write and writes immediately.
func (w *WaveformCache) Flush(ctx context.Context) {
	w.debounce.Cancel()
	w.write(ctx)
}

func (w *WaveformCache) write(ctx context.Context) {
	w.writes.Lock()
	defer w.writes.Unlock()

	w.mutex.RLock()
	encoded := make(map[string]string, w.lru.Len())
	for _, key := range w.lru.Keys() {
		if samples, ok := w.lru.Peek(key); ok {
			encoded[key] = EncodeWaveform(samples)
		}
	}
	w.mutex.RUnlock()

	data, err := json.Marshal(encoded)
	if err == nil {
		err = w.kv.Put(ctx, WaveformCacheKey, data)
	}
	if err != nil {
		w.logger.Warn("Failed to persist waveform cache", zap.Error(err))
	}
}

// EncodeWaveform renders samples as base64 of little-endian float32 values.
func EncodeWaveform(samples []float32) string {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeWaveform is the inverse of EncodeWaveform.
func DecodeWaveform(encoded string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(buf)%4 != 0 {
		return nil, errors.New("waveform length is not a multiple of 4 bytes")
	}
	samples := make([]float32, len(buf)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return samples, nil
}
