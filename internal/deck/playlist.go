package deck

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/dedup"
	"swipesort/internal/paging"
	"swipesort/internal/ranking"
)

// PlaylistSource reads a whole playlist listing.
type PlaylistSource interface {
	FetchAllPlaylistTracks(ctx context.Context, playlistID string) ([]core.ListingItem, error)
}

// PlaylistEngine orders one playlist, fetched in full up front. Duplicate
// detection runs in the background after the listing is ranked.
type PlaylistEngine struct {
	source       PlaylistSource
	playlist     core.Playlist
	seed         string
	onDuplicates func(dedup.Set)
	logger       *zap.Logger

	mutex      sync.Mutex
	ordered    []core.ListingItem
	duplicates dedup.Set
	loaded     bool
	detected   chan struct{}
}

// NewPlaylistEngine creates an engine. onDuplicates, if set, receives the
// duplicate set once detection finishes.
func NewPlaylistEngine(
	source PlaylistSource, playlist core.Playlist, seed string, onDuplicates func(dedup.Set), logger *zap.Logger,
) *PlaylistEngine {
	return &PlaylistEngine{
		source:       source,
		playlist:     playlist,
		seed:         seed,
		onDuplicates: onDuplicates,
		logger:       logger,
		detected:     make(chan struct{}),
	}
}

// Load fetches the playlist, ranks it once and starts duplicate detection.
func (e *PlaylistEngine) Load(ctx context.Context, reviewed ranking.ReviewedSet) error {
	items, err := e.source.FetchAllPlaylistTracks(ctx, e.playlist.ID)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	ordered := ranking.Sort(items, reviewed, e.seed)

	e.mutex.Lock()
	e.ordered = ordered
	e.loaded = true
	e.mutex.Unlock()

	e.logger.Info("Playlist loaded",
		zap.String("playlist", e.playlist.Name),
		zap.Int("items", len(ordered)))

	results := dedup.DetectAsync(ctx, ordered)
	go func() {
		defer close(e.detected)
		set, ok := <-results
		if !ok {
			return
		}
		e.mutex.Lock()
		e.duplicates = set
		e.mutex.Unlock()
		if len(set) > 0 {
			e.logger.Info("Duplicates found", zap.Int("count", len(set)))
		}
		if e.onDuplicates != nil {
			e.onDuplicates(set)
		}
	}()
	return nil
}

// Page returns the slice at [cursor, cursor+pageSize).
func (e *PlaylistEngine) Page(cursor, pageSize int) []core.ListingItem {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	r, ok := paging.NextRange(cursor, pageSize, len(e.ordered))
	if !ok {
		return nil
	}
	return append([]core.ListingItem(nil), e.ordered[r.Start:r.End]...)
}

// HasMore reports whether items beyond cursor exist.
func (e *PlaylistEngine) HasMore(cursor int) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return paging.HasMore(cursor, len(e.ordered), true)
}

// Duplicates returns the detected duplicate track IDs; nil until detection finishes.
func (e *PlaylistEngine) Duplicates() dedup.Set {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.duplicates
}

// Detected is closed when duplicate detection finishes or is abandoned.
func (e *PlaylistEngine) Detected() <-chan struct{} {
	return e.detected
}

func (e *PlaylistEngine) Loaded() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.loaded
}

func (e *PlaylistEngine) Playlist() core.Playlist {
	return e.playlist
}

// Len returns the number of ranked items.
func (e *PlaylistEngine) Len() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return len(e.ordered)
}
