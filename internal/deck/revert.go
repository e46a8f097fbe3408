package deck

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"swipesort/internal/core"
)

// ErrNotRevertible is returned for history entries that lack the identifier their inverse mutation needs
var ErrNotRevertible = errors.New("removal cannot be reverted")

// Restore chunk sizes match the client's request sizes.
const (
	restoreSavedChunk    = 50
	restorePlaylistChunk = 90
)

// Revert restores removals by issuing the inverse mutation per source and
// dropping the restored entries from history. Entries that could not be
// restored stay in history; their failures are joined into the error.
func (c *Controller) Revert(ctx context.Context, ids []string) ([]string, error) {
	entries := c.history.Get(ids)

	var (
		saved       []core.RemovalEntry
		byPlaylist  = make(map[string][]core.RemovalEntry)
		playlistIDs []string
		reverted    []string
		errs        []error
	)
	for _, entry := range entries {
		switch {
		case entry.Source == core.SourceSaved && entry.TrackID != "":
			saved = append(saved, entry)
		case entry.Source == core.SourcePlaylist && entry.PlaylistID != "" && entry.TrackURI != "":
			if _, ok := byPlaylist[entry.PlaylistID]; !ok {
				playlistIDs = append(playlistIDs, entry.PlaylistID)
			}
			byPlaylist[entry.PlaylistID] = append(byPlaylist[entry.PlaylistID], entry)
		default:
			errs = append(errs, fmt.Errorf("entry %s: %w", entry.ID, ErrNotRevertible))
		}
	}

	for chunk := range slices.Chunk(saved, restoreSavedChunk) {
		trackIDs := make([]string, 0, len(chunk))
		for _, entry := range chunk {
			trackIDs = append(trackIDs, entry.TrackID)
		}
		if err := c.service.SaveTracks(ctx, trackIDs); err != nil {
			c.recorder.RecordMutationError("save")
			errs = append(errs, fmt.Errorf("failed to restore saved tracks: %w", err))
			break
		}
		reverted = append(reverted, c.dropRestored(chunk)...)
	}

	for _, playlistID := range playlistIDs {
		for chunk := range slices.Chunk(byPlaylist[playlistID], restorePlaylistChunk) {
			uris := make([]string, 0, len(chunk))
			for _, entry := range chunk {
				uris = append(uris, entry.TrackURI)
			}
			if err := c.service.AddTracks(ctx, playlistID, uris); err != nil {
				c.recorder.RecordMutationError("add")
				errs = append(errs, fmt.Errorf("failed to restore tracks to %s: %w", chunk[0].PlaylistName, err))
				break
			}
			reverted = append(reverted, c.dropRestored(chunk)...)
		}
	}

	c.logger.Info("Reverted removals", zap.Int("requested", len(ids)), zap.Int("reverted", len(reverted)))
	return reverted, errors.Join(errs...)
}

// dropRestored removes entries from history and returns their IDs.
func (c *Controller) dropRestored(entries []core.RemovalEntry) []string {
	entryIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		entryIDs = append(entryIDs, entry.ID)
	}
	c.history.RemoveBatch(entryIDs)
	return entryIDs
}

// History returns removal entries, newest first.
func (c *Controller) History() []core.RemovalEntry {
	return c.history.Entries()
}
