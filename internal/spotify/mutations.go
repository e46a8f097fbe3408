package spotify

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swipesort/internal/core"
)

const metadataConcurrency = 2

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

// trackIDs converts track URIs to IDs. ok is false when any URI is not a track URI.
func trackIDs(uris []string) (ids []spotify.ID, ok bool) {
	ids = make([]spotify.ID, 0, len(uris))
	for _, uri := range uris {
		id, found := strings.CutPrefix(uri, core.TrackURIPrefix)
		if !found || id == "" {
			return nil, false
		}
		ids = append(ids, spotify.ID(id))
	}
	return ids, true
}

// RemoveTracks deletes uris from a playlist, 90 per request, in order.
// Mutations are not retried; the first failure stops the remaining chunks.
func (c *Client) RemoveTracks(ctx context.Context, playlistID string, uris []string) error {
	for chunk := range slices.Chunk(uris, URIChunkSize) {
		err := c.call(ctx, "remove playlist tracks", func(ctx context.Context) error {
			if ids, ok := trackIDs(chunk); ok {
				_, err := c.api.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), ids...)
				return err
			}
			// local files have no track ID and are removed by URI
			tracks := make([]spotify.TrackToRemove, 0, len(chunk))
			for _, uri := range chunk {
				tracks = append(tracks, spotify.TrackToRemove{URI: uri})
			}
			_, err := c.api.RemoveTracksFromPlaylistOpt(ctx, spotify.ID(playlistID), tracks, "")
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AddTracks appends uris to a playlist, 90 per request, in order. Only track
// URIs can be added back; anything else fails before a request is sent.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	const op = "add playlist tracks"
	for chunk := range slices.Chunk(uris, URIChunkSize) {
		ids, ok := trackIDs(chunk)
		if !ok {
			return &core.APIError{Op: op, Kind: core.ErrBadRequest, Message: "only track URIs can be added"}
		}
		if err := c.call(ctx, op, func(ctx context.Context) error {
			_, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// UnsaveTracks removes ids from the saved-tracks collection, 50 per request, in order.
func (c *Client) UnsaveTracks(ctx context.Context, ids []string) error {
	for chunk := range slices.Chunk(ids, IDChunkSize) {
		if err := c.call(ctx, "unsave tracks", func(ctx context.Context) error {
			return c.api.RemoveTracksFromLibrary(ctx, toIDs(chunk)...)
		}); err != nil {
			return err
		}
	}
	return nil
}

// SaveTracks adds ids to the saved-tracks collection, 50 per request, in order.
func (c *Client) SaveTracks(ctx context.Context, ids []string) error {
	for chunk := range slices.Chunk(ids, IDChunkSize) {
		if err := c.call(ctx, "save tracks", func(ctx context.Context) error {
			return c.api.AddTracksToLibrary(ctx, toIDs(chunk)...)
		}); err != nil {
			return err
		}
	}
	return nil
}

// FetchArtistGenres looks up genres for artistIDs in chunks of 50. Results from
// successful chunks are returned even when other chunks fail.
func (c *Client) FetchArtistGenres(ctx context.Context, artistIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(artistIDs))
	var mutex sync.Mutex

	err := c.eachChunk(ctx, artistIDs, func(ctx context.Context, chunk []string) error {
		var artists []*spotify.FullArtist
		if err := c.call(ctx, "fetch artists", func(ctx context.Context) error {
			var err error
			artists, err = c.api.GetArtists(ctx, toIDs(chunk)...)
			return err
		}); err != nil {
			return err
		}

		mutex.Lock()
		defer mutex.Unlock()
		for _, artist := range artists {
			if artist == nil || artist.ID == "" {
				continue
			}
			genres := artist.Genres
			if genres == nil {
				genres = []string{}
			}
			result[string(artist.ID)] = genres
		}
		return nil
	})
	return result, err
}

// FetchTrackPopularity looks up popularity for trackIDs in chunks of 50. Results
// from successful chunks are returned even when other chunks fail.
func (c *Client) FetchTrackPopularity(ctx context.Context, trackIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(trackIDs))
	var mutex sync.Mutex

	err := c.eachChunk(ctx, trackIDs, func(ctx context.Context, chunk []string) error {
		var tracks []*spotify.FullTrack
		if err := c.call(ctx, "fetch tracks", func(ctx context.Context) error {
			var err error
			tracks, err = c.api.GetTracks(ctx, toIDs(chunk), spotify.Market(spotify.MarketFromToken))
			return err
		}); err != nil {
			return err
		}

		mutex.Lock()
		defer mutex.Unlock()
		for _, track := range tracks {
			if track == nil || track.ID == "" {
				continue
			}
			result[string(track.ID)] = track.Popularity
		}
		return nil
	})
	return result, err
}

// eachChunk runs fn over 50-id chunks with bounded concurrency. A failed chunk
// does not cancel the others; all failures are joined.
func (c *Client) eachChunk(ctx context.Context, ids []string, fn func(context.Context, []string) error) error {
	var (
		g     errgroup.Group
		mutex sync.Mutex
		errs  []error
	)
	g.SetLimit(metadataConcurrency)

	for chunk := range slices.Chunk(ids, IDChunkSize) {
		g.Go(func() error {
			if err := fn(ctx, chunk); err != nil {
				c.logger.Warn("Metadata chunk failed", zap.Int("size", len(chunk)), zap.Error(err))
				mutex.Lock()
				errs = append(errs, err)
				mutex.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
