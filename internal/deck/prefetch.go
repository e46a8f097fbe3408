package deck

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swipesort/internal/core"
	"swipesort/internal/store"
)

// MetadataSource batch-fetches track and artist metadata.
type MetadataSource interface {
	FetchArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error)
	FetchTrackPopularity(ctx context.Context, trackIDs []string) (map[string]int, error)
}

// Prefetcher fills the metadata cache with popularity and primary-artist genres
// for tracks about to be shown.
type Prefetcher struct {
	source MetadataSource
	cache  *store.MetadataCache
	logger *zap.Logger
}

func NewPrefetcher(source MetadataSource, cache *store.MetadataCache, logger *zap.Logger) *Prefetcher {
	return &Prefetcher{source: source, cache: cache, logger: logger}
}

// Prefetch fetches what the cache lacks for tracks. Popularity already carried
// by the listing is stored without a request. Failures are logged and swallowed.
func (p *Prefetcher) Prefetch(ctx context.Context, tracks []core.Track) {
	trackIDs, artistIDs := p.missing(tracks)
	if len(trackIDs) == 0 && len(artistIDs) == 0 {
		return
	}

	var g errgroup.Group
	if len(trackIDs) > 0 {
		g.Go(func() error {
			popularity, err := p.source.FetchTrackPopularity(ctx, trackIDs)
			if err != nil {
				p.logger.Debug("Popularity prefetch incomplete", zap.Error(err))
			}
			p.cache.SetPopularityBatch(popularity)
			return nil
		})
	}
	if len(artistIDs) > 0 {
		g.Go(func() error {
			genres, err := p.source.FetchArtistGenres(ctx, artistIDs)
			if err != nil {
				p.logger.Debug("Genre prefetch incomplete", zap.Error(err))
			}
			p.cache.SetGenresBatch(genres)
			return nil
		})
	}
	_ = g.Wait()

	p.cache.ScheduleSave()
	p.logger.Debug("Prefetched metadata",
		zap.Int("tracks", len(trackIDs)),
		zap.Int("artists", len(artistIDs)))
}

func (p *Prefetcher) missing(tracks []core.Track) (trackIDs, artistIDs []string) {
	seenTracks := make(map[string]struct{})
	seenArtists := make(map[string]struct{})

	known := make(map[string]int)
	for i := range tracks {
		track := &tracks[i]
		if track.ID != "" && track.Popularity != nil {
			known[track.ID] = *track.Popularity
		} else if track.ID != "" && !p.cache.HasPopularity(track.ID) {
			if _, dup := seenTracks[track.ID]; !dup {
				seenTracks[track.ID] = struct{}{}
				trackIDs = append(trackIDs, track.ID)
			}
		}
		artist, ok := track.PrimaryArtist()
		if !ok || artist.ID == "" || p.cache.HasGenres(artist.ID) {
			continue
		}
		if _, dup := seenArtists[artist.ID]; !dup {
			seenArtists[artist.ID] = struct{}{}
			artistIDs = append(artistIDs, artist.ID)
		}
	}
	if len(known) > 0 {
		p.cache.SetPopularityBatch(known)
	}
	return trackIDs, artistIDs
}
