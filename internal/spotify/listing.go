package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"swipesort/internal/core"
)

// trackObject is the listing form of a track. Optional fields are pointers
// so absence survives decoding.
type trackObject struct {
	ID      string                 `json:"id"`
	URI     string                 `json:"uri"`
	Name    string                 `json:"name"`
	Type    string                 `json:"type"`
	Artists []spotify.SimpleArtist `json:"artists"`
	Album   struct {
		Name        string          `json:"name"`
		ReleaseDate string          `json:"release_date"`
		Images      []spotify.Image `json:"images"`
	} `json:"album"`
	PreviewURL   *string           `json:"preview_url"`
	DurationMs   *int              `json:"duration_ms"`
	Explicit     *bool             `json:"explicit"`
	Popularity   *int              `json:"popularity"`
	ExternalIDs  map[string]string `json:"external_ids"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type savedTrackObject struct {
	AddedAt string       `json:"added_at"`
	Track   *trackObject `json:"track"`
}

type playlistItemObject struct {
	AddedAt string        `json:"added_at"`
	AddedBy *spotify.User `json:"added_by"`
	Track   *trackObject  `json:"track"`
}

// convertTrack returns false for non-song objects and unusable tracks.
func convertTrack(obj *trackObject) (core.Track, bool) {
	if obj == nil || (obj.Type != "" && obj.Type != "track") {
		return core.Track{}, false
	}

	track := core.Track{
		ID:          obj.ID,
		URI:         obj.URI,
		Name:        obj.Name,
		Explicit:    obj.Explicit,
		Popularity:  obj.Popularity,
		ExternalURL: obj.ExternalURLs,
	}
	for _, a := range obj.Artists {
		track.Artists = append(track.Artists, core.Artist{ID: string(a.ID), Name: a.Name})
	}
	track.Album.Name = obj.Album.Name
	track.Album.ReleaseDate = obj.Album.ReleaseDate
	for _, img := range obj.Album.Images {
		if img.URL != "" {
			track.Album.ImageURLs = append(track.Album.ImageURLs, img.URL)
		}
	}
	if obj.PreviewURL != nil {
		track.PreviewURL = *obj.PreviewURL
	}
	if obj.DurationMs != nil {
		track.DurationMs = *obj.DurationMs
	}
	if obj.ExternalIDs != nil {
		track.ISRC = obj.ExternalIDs["isrc"]
	}

	track.EnsureURI()
	if !track.Usable() {
		return core.Track{}, false
	}
	return track, true
}

func newListingItem(addedAt, addedBy string, track core.Track) core.ListingItem {
	return core.ListingItem{
		AddedAt:   addedAt,
		AddedBy:   addedBy,
		Track:     track,
		SessionID: uuid.NewString(),
	}
}

// decodeItems decodes each raw item independently and keeps those convert accepts.
func decodeItems[T any](logger *zap.Logger, op string, raw json.RawMessage, convert func(*T) (core.ListingItem, bool)) ([]core.ListingItem, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, err
	}

	items := make([]core.ListingItem, 0, len(elements))
	skipped := 0
	for _, element := range elements {
		var obj T
		if err := json.Unmarshal(element, &obj); err != nil {
			skipped++
			continue
		}
		if item, ok := convert(&obj); ok {
			items = append(items, item)
		}
	}
	if skipped > 0 {
		logger.Warn("Skipped malformed listing items", zap.String("op", op), zap.Int("count", skipped))
	}
	return items, nil
}

func convertSaved(obj *savedTrackObject) (core.ListingItem, bool) {
	track, ok := convertTrack(obj.Track)
	if !ok {
		return core.ListingItem{}, false
	}
	return newListingItem(obj.AddedAt, "", track), true
}

func convertPlaylistItem(obj *playlistItemObject) (core.ListingItem, bool) {
	track, ok := convertTrack(obj.Track)
	if !ok {
		return core.ListingItem{}, false
	}
	addedBy := ""
	if obj.AddedBy != nil {
		addedBy = obj.AddedBy.ID
	}
	return newListingItem(obj.AddedAt, addedBy, track), true
}

// tolerantPage is a listing page fetched through the spotify package with
// its items left raw, so one malformed item does not fail the page. Only
// the embedded paging fields of SavedTrackPage are used.
type tolerantPage struct {
	spotify.SavedTrackPage
	Items json.RawMessage `json:"items"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	if len(query) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + query.Encode()
}

// withMarket sets market=from_token exactly once, whatever the cursor already carried.
func withMarket(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("market", spotify.MarketFromToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchPage reads one listing page. A malformed item array is reported as a
// decode error together with the next cursor so paging can continue.
func fetchPage[T any](
	ctx context.Context, c *Client, op, pageURL string, convert func(*T) (core.ListingItem, bool),
) ([]core.ListingItem, string, error) {
	p := &tolerantPage{}
	p.Next = pageURL
	if err := c.call(ctx, op, func(ctx context.Context) error {
		return c.api.NextPage(ctx, p)
	}); err != nil {
		return nil, "", err
	}

	next := p.Next
	items, err := decodeItems(c.logger, op, p.Items, convert)
	if err != nil {
		return nil, next, &core.APIError{Op: op, Kind: core.ErrDecode, Err: err}
	}
	return items, next, nil
}

// collectPages follows next cursors until exhausted. A page that fails to
// decode is dropped and paging goes on; any other failure aborts.
func collectPages[T any](
	ctx context.Context, c *Client, op, first string, convert func(*T) (core.ListingItem, bool),
) ([]core.ListingItem, error) {
	var all []core.ListingItem
	cursor := first
	for cursor != "" {
		pageURL, err := withMarket(cursor)
		if err != nil {
			return all, &core.APIError{Op: op, Kind: core.ErrBadRequest, Err: err}
		}

		items, next, err := fetchPage(ctx, c, op, pageURL, convert)
		if err != nil {
			if !errors.Is(err, core.ErrDecode) {
				return nil, err
			}
			c.logger.Warn("Discarding malformed page",
				zap.String("op", op),
				zap.Bool("last", next == ""),
				zap.Error(err))
		}
		all = append(all, items...)
		cursor = next
	}
	return all, nil
}

// FetchSavedTracksPage returns one page of saved tracks. An empty cursor starts
// from the beginning; an empty next cursor means the listing is exhausted.
func (c *Client) FetchSavedTracksPage(ctx context.Context, cursor string) ([]core.ListingItem, string, error) {
	if cursor == "" {
		cursor = c.endpoint("me/tracks", url.Values{"limit": {strconv.Itoa(SavedTracksPageLimit)}})
	}
	pageURL, err := withMarket(cursor)
	if err != nil {
		return nil, "", &core.APIError{Op: "fetch saved tracks", Kind: core.ErrBadRequest, Err: err}
	}
	return fetchPage(ctx, c, "fetch saved tracks", pageURL, convertSaved)
}

// FetchAllSavedTracks pages through the whole saved-tracks collection.
func (c *Client) FetchAllSavedTracks(ctx context.Context) ([]core.ListingItem, error) {
	first := c.endpoint("me/tracks", url.Values{"limit": {strconv.Itoa(SavedTracksPageLimit)}})
	return collectPages(ctx, c, "fetch saved tracks", first, convertSaved)
}

// FetchAllPlaylistTracks pages through a playlist's tracks, dropping episodes and local-only items.
func (c *Client) FetchAllPlaylistTracks(ctx context.Context, playlistID string) ([]core.ListingItem, error) {
	first := c.endpoint("playlists/"+url.PathEscape(playlistID)+"/tracks",
		url.Values{"limit": {strconv.Itoa(PlaylistTracksPageLimit)}})
	return collectPages(ctx, c, "fetch playlist tracks", first, convertPlaylistItem)
}

// FetchPlaylists pages through the current user's playlists.
func (c *Client) FetchPlaylists(ctx context.Context) ([]core.Playlist, error) {
	const op = "fetch playlists"

	var page *spotify.SimplePlaylistPage
	err := c.call(ctx, op, func(ctx context.Context) error {
		var err error
		page, err = c.api.CurrentUsersPlaylists(ctx, spotify.Limit(PlaylistsPageLimit))
		return err
	})
	if err != nil {
		return nil, err
	}

	var playlists []core.Playlist
	for {
		for i := range page.Playlists {
			if page.Playlists[i].ID == "" {
				continue
			}
			playlists = append(playlists, convertPlaylist(&page.Playlists[i]))
		}
		if page.Next == "" {
			return playlists, nil
		}
		if err := c.call(ctx, op, func(ctx context.Context) error {
			return c.api.NextPage(ctx, page)
		}); err != nil {
			return nil, err
		}
	}
}

func convertPlaylist(sp *spotify.SimplePlaylist) core.Playlist {
	playlist := core.Playlist{
		ID:   string(sp.ID),
		Name: sp.Name,
		Owner: core.Owner{
			ID:          sp.Owner.ID,
			DisplayName: sp.Owner.DisplayName,
		},
		TotalTracks: int(sp.Tracks.Total), //nolint:gosec // playlist sizes fit in int
	}
	for _, img := range sp.Images {
		if img.URL != "" {
			playlist.ImageURLs = append(playlist.ImageURLs, img.URL)
		}
	}
	return playlist
}
