package store

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type metadataBlob struct {
	ArtistGenres    map[string][]string `json:"artistGenres"`
	TrackPopularity map[string]int      `json:"trackPopularity"`
	PreviewMap      map[string]string   `json:"previewMap"`
}

// MetadataCache holds artist genres, track popularity and preview bindings.
// Values are best-effort; there is no eviction.
type MetadataCache struct {
	kv       KV
	logger   *zap.Logger
	debounce *debouncer

	mutex      sync.RWMutex
	genres     map[string][]string
	popularity map[string]int
	previews   map[string]string
	writes     sync.Mutex
}

// NewMetadataCache creates a cache and loads the persisted blob, merging the
// legacy preview-only cache underneath it.
func NewMetadataCache(ctx context.Context, kv KV, logger *zap.Logger, opts ...Option) *MetadataCache {
	o := buildOptions(opts)
	c := &MetadataCache{
		kv:         kv,
		logger:     logger,
		genres:     make(map[string][]string),
		popularity: make(map[string]int),
		previews:   make(map[string]string),
	}
	c.debounce = newDebouncer(o.debounce, func() {
		c.write(context.Background())
	})
	c.load(ctx)
	return c
}

func (c *MetadataCache) load(ctx context.Context) {
	raw, found, err := c.kv.Get(ctx, MetadataCacheKey)
	switch {
	case err != nil:
		c.logger.Warn("Failed to read metadata cache, starting empty", zap.Error(err))
	case found:
		var blob metadataBlob
		if err := json.Unmarshal(raw, &blob); err != nil {
			c.logger.Warn("Metadata cache corrupted, starting empty", zap.Error(err))
			break
		}
		for k, v := range blob.ArtistGenres {
			c.genres[k] = v
		}
		for k, v := range blob.TrackPopularity {
			c.popularity[k] = v
		}
		for k, v := range blob.PreviewMap {
			c.previews[k] = v
		}
	}

	raw, found, err = c.kv.Get(ctx, LegacyPreviewCacheKey)
	if err != nil || !found {
		return
	}
	var legacy map[string]string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		c.logger.Warn("Legacy preview cache corrupted, ignoring", zap.Error(err))
		return
	}
	merged := 0
	for k, v := range legacy {
		if _, exists := c.previews[k]; !exists && v != "" {
			c.previews[k] = v
			merged++
		}
	}
	if merged > 0 {
		c.logger.Info("Merged legacy preview cache", zap.Int("count", merged))
	}
}

// Genres returns the cached genres of an artist.
func (c *MetadataCache) Genres(artistID string) ([]string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	genres, ok := c.genres[artistID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), genres...), true
}

// HasGenres reports whether genres for the artist are cached, including an empty list.
func (c *MetadataCache) HasGenres(artistID string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.genres[artistID]
	return ok
}

// SetGenres caches the genres of one artist. A nil list is stored as empty.
func (c *MetadataCache) SetGenres(artistID string, genres []string) {
	c.SetGenresBatch(map[string][]string{artistID: genres})
}

// SetGenresBatch caches genres for several artists. It does not schedule a save.
func (c *MetadataCache) SetGenresBatch(batch map[string][]string) {
	c.mutex.Lock()
	for id, genres := range batch {
		if genres == nil {
			genres = []string{}
		}
		c.genres[id] = append([]string(nil), genres...)
	}
	c.mutex.Unlock()
}

// Popularity returns the cached popularity of a track.
func (c *MetadataCache) Popularity(trackID string) (int, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	p, ok := c.popularity[trackID]
	return p, ok
}

// HasPopularity reports whether the track's popularity is cached.
func (c *MetadataCache) HasPopularity(trackID string) bool {
	_, ok := c.Popularity(trackID)
	return ok
}

// SetPopularity caches the popularity of one track.
func (c *MetadataCache) SetPopularity(trackID string, popularity int) {
	c.SetPopularityBatch(map[string]int{trackID: popularity})
}

// SetPopularityBatch caches popularity for several tracks. It does not schedule a save.
func (c *MetadataCache) SetPopularityBatch(batch map[string]int) {
	c.mutex.Lock()
	for id, p := range batch {
		c.popularity[id] = p
	}
	c.mutex.Unlock()
}

// PreviewURL returns the cached preview binding for a preview key.
func (c *MetadataCache) PreviewURL(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	url, ok := c.previews[key]
	return url, ok
}

// HasPreviewURL reports whether a preview binding exists for key.
func (c *MetadataCache) HasPreviewURL(key string) bool {
	_, ok := c.PreviewURL(key)
	return ok
}

// SetPreviewURL binds a preview key to a playable URL.
func (c *MetadataCache) SetPreviewURL(key, url string) {
	c.SetPreviewURLBatch(map[string]string{key: url})
}

// SetPreviewURLBatch binds several preview keys. It does not schedule a save.
func (c *MetadataCache) SetPreviewURLBatch(batch map[string]string) {
	c.mutex.Lock()
	for k, v := range batch {
		c.previews[k] = v
	}
	c.mutex.Unlock()
}

// RemovePreviewURL evicts a preview binding.
func (c *MetadataCache) RemovePreviewURL(key string) {
	c.mutex.Lock()
	delete(c.previews, key)
	c.mutex.Unlock()
}

// Save writes the three mappings immediately.
func (c *MetadataCache) Save(ctx context.Context) error {
	c.writes.Lock()
	defer c.writes.Unlock()

	c.mutex.RLock()
	data, err := json.Marshal(metadataBlob{
		ArtistGenres:    c.genres,
		TrackPopularity: c.popularity,
		PreviewMap:      c.previews,
	})
	c.mutex.RUnlock()
	if err != nil {
		return err
	}
	return c.kv.Put(ctx, MetadataCacheKey, data)
}

// ScheduleSave arms the debounced writer.
func (c *MetadataCache) ScheduleSave() {
	c.debounce.Trigger()
}

// Flush cancels any pending debounced write and saves immediately.
func (c *MetadataCache) Flush(ctx context.Context) {
	c.debounce.Cancel()
	c.write(ctx)
}

func (c *MetadataCache) write(ctx context.Context) {
	if err := c.Save(ctx); err != nil {
		c.logger.Warn("Failed to persist metadata cache", zap.Error(err))
	}
}
