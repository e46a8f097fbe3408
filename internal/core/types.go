package core

import (
	"strings"
	"time"
)

const (
	// TrackURIPrefix is prepended to a track ID to synthesize a missing URI
	TrackURIPrefix = "spotify:track:"
	// ShareURLPrefix is used to derive a share link when the listing carries none
	ShareURLPrefix = "https://open.spotify.com/track/"
	// MaxHistory bounds the number of removal entries kept in history
	MaxHistory = 500
	// SavedListKey is the reviewed-set namespace for the saved-tracks list
	SavedListKey = "saved"
	// PlaylistListKeyPrefix prefixes the playlist ID in a playlist reviewed-set namespace
	PlaylistListKeyPrefix = "playlist:"
)

// Artist is a credited artist of a track. ID is empty for local files.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Album is the album a track appears on. ImageURLs are ordered largest first, as listed remotely.
type Album struct {
	Name        string   `json:"name"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

// Track is a song as read from a listing. Explicit and Popularity are nil when the
// listing did not carry them.
type Track struct {
	ID          string            `json:"id,omitempty"`
	URI         string            `json:"uri,omitempty"`
	Name        string            `json:"name"`
	Artists     []Artist          `json:"artists"`
	Album       Album             `json:"album"`
	PreviewURL  string            `json:"previewUrl,omitempty"`
	DurationMs  int               `json:"durationMs,omitempty"`
	Explicit    *bool             `json:"explicit,omitempty"`
	Popularity  *int              `json:"popularity,omitempty"`
	ISRC        string            `json:"isrc,omitempty"`
	ExternalURL map[string]string `json:"-"`
}

// Usable reports whether the track can take part in a deck.
func (t *Track) Usable() bool {
	return t.Name != "" && (t.ID != "" || t.URI != "")
}

// EnsureURI synthesizes the URI from the ID when the listing omitted it.
func (t *Track) EnsureURI() {
	if t.URI == "" && t.ID != "" {
		t.URI = TrackURIPrefix + t.ID
	}
}

// ShareURL returns the external Spotify link, derived from the ID when absent.
func (t *Track) ShareURL() string {
	if u := t.ExternalURL["spotify"]; u != "" {
		return u
	}
	if t.ID == "" {
		return ""
	}
	return ShareURLPrefix + t.ID
}

// PrimaryArtist returns the first listed artist, if any.
func (t *Track) PrimaryArtist() (Artist, bool) {
	if len(t.Artists) == 0 {
		return Artist{}, false
	}
	return t.Artists[0], true
}

// ArtistNames returns the artist names in listing order.
func (t *Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// ArtworkURL returns the first album image, which Spotify lists largest first.
func (t *Track) ArtworkURL() string {
	if len(t.Album.ImageURLs) == 0 {
		return ""
	}
	return t.Album.ImageURLs[0]
}

// PreviewKey is the stable key under which preview URLs and waveforms are cached.
func (t *Track) PreviewKey() string {
	if t.ID != "" {
		return t.ID
	}
	if t.URI != "" {
		return t.URI
	}
	first := ""
	if a, ok := t.PrimaryArtist(); ok {
		first = a.Name
	}
	return t.Name + "|" + first
}

// ListingItem wraps a track as it appears in a saved-tracks or playlist listing.
type ListingItem struct {
	AddedAt   string `json:"addedAt,omitempty"`
	AddedBy   string `json:"addedBy,omitempty"`
	Track     Track  `json:"track"`
	SessionID string `json:"-"`
}

// Owner is the user that owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

// Playlist is a playlist summary from the current user's playlist listing.
type Playlist struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Owner       Owner    `json:"owner"`
	TotalTracks int      `json:"totalTracks"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

// User is the signed-in user. Country is only set with the user-read-private scope.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Sortable reports whether the playlist is a candidate for sorting by the given user.
func (p *Playlist) Sortable(userID string) bool {
	return p.Owner.ID == userID && p.TotalTracks > 0
}

// RemovalSource identifies the list a removal was applied to
type RemovalSource string

const (
	// SourceSaved marks removals from the saved-tracks collection
	SourceSaved RemovalSource = "saved"
	// SourcePlaylist marks removals from an owned playlist
	SourcePlaylist RemovalSource = "playlist"
)

// RemovalEntry is an immutable record of a committed removal.
type RemovalEntry struct {
	ID           string        `json:"id" yaml:"id"`
	Timestamp    time.Time     `json:"timestamp" yaml:"timestamp"`
	Source       RemovalSource `json:"source" yaml:"source"`
	PlaylistID   string        `json:"playlistId,omitempty" yaml:"playlistId,omitempty"`
	PlaylistName string        `json:"playlistName,omitempty" yaml:"playlistName,omitempty"`
	TrackID      string        `json:"trackId,omitempty" yaml:"trackId,omitempty"`
	TrackURI     string        `json:"trackUri,omitempty" yaml:"trackUri,omitempty"`
	TrackName    string        `json:"trackName" yaml:"trackName"`
	Artists      []string      `json:"artists" yaml:"artists"`
	AlbumName    string        `json:"albumName,omitempty" yaml:"albumName,omitempty"`
	ArtworkURL   string        `json:"artworkUrl,omitempty" yaml:"artworkUrl,omitempty"`
}

// ModeKind selects the list being curated
type ModeKind int

const (
	// ModeSaved curates the user's saved tracks
	ModeSaved ModeKind = iota
	// ModePlaylist curates a single owned playlist
	ModePlaylist
)

// Mode is the deck mode; Playlist is set only for ModePlaylist.
type Mode struct {
	Kind     ModeKind
	Playlist *Playlist
}

// SavedMode returns the saved-tracks mode.
func SavedMode() Mode {
	return Mode{Kind: ModeSaved}
}

// PlaylistMode returns the mode curating the given playlist.
func PlaylistMode(p Playlist) Mode {
	return Mode{Kind: ModePlaylist, Playlist: &p}
}

// ListKey returns the reviewed-set namespace for the mode.
func (m Mode) ListKey() string {
	if m.Kind == ModePlaylist && m.Playlist != nil {
		return PlaylistListKeyPrefix + m.Playlist.ID
	}
	return SavedListKey
}

// ReviewID returns the identifier recorded in the reviewed set for a track in this mode.
// Saved lists are keyed by track ID, playlists by URI.
func (m Mode) ReviewID(t *Track) string {
	if m.Kind == ModePlaylist {
		return t.URI
	}
	return t.ID
}

func (m Mode) String() string {
	if m.Kind == ModePlaylist {
		return "playlist"
	}
	return "saved"
}

// Direction is the swipe direction of a decision
type Direction int

const (
	// SwipeRight keeps the track
	SwipeRight Direction = iota
	// SwipeLeft removes the track
	SwipeLeft
)

func (d Direction) String() string {
	if d == SwipeLeft {
		return "left"
	}
	return "right"
}

// ParseDirection maps "left"/"right" (and the keep/remove aliases) to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "remove":
		return SwipeLeft, true
	case "right", "keep":
		return SwipeRight, true
	}
	return SwipeRight, false
}
