// Package text parses user-supplied Spotify references: share links, URIs and bare IDs.
package text

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the resource type a reference points at
type Kind string

const (
	// KindTrack is a track reference
	KindTrack Kind = "track"
	// KindPlaylist is a playlist reference
	KindPlaylist Kind = "playlist"
)

var (
	// ErrInvalidReference is returned when the input is not a Spotify track or playlist reference
	ErrInvalidReference = errors.New("invalid spotify reference")

	idRegex = regexp.MustCompile(`^[a-zA-Z0-9]{16,32}$`)

	spotifyDomains = map[string]bool{
		"open.spotify.com": true,
		"play.spotify.com": true,
		"spotify.com":      true,
	}
)

// Reference identifies a Spotify resource.
type Reference struct {
	Kind Kind
	ID   string
}

// URI renders the reference as a spotify: URI.
func (r Reference) URI() string {
	return "spotify:" + string(r.Kind) + ":" + r.ID
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse accepts a share link, a spotify: URI, or a bare ID. A bare ID is
// interpreted as fallback.
func (p *Parser) Parse(input string, fallback Kind) (Reference, error) {
	input = p.normalizeText(input)
	if input == "" {
		return Reference{}, ErrInvalidReference
	}

	if strings.HasPrefix(input, "spotify:") {
		return p.parseURI(input)
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return p.parseURL(input)
	}

	if idRegex.MatchString(input) {
		return Reference{Kind: fallback, ID: input}, nil
	}
	return Reference{}, ErrInvalidReference
}

// ParsePlaylistID returns the playlist ID in input.
func (p *Parser) ParsePlaylistID(input string) (string, error) {
	ref, err := p.Parse(input, KindPlaylist)
	if err != nil {
		return "", err
	}
	if ref.Kind != KindPlaylist {
		return "", ErrInvalidReference
	}
	return ref.ID, nil
}

func (p *Parser) normalizeText(text string) string {
	text = norm.NFKC.String(text)
	return strings.TrimSpace(text)
}

// parseURI handles spotify:<kind>:<id> and the legacy spotify:user:<user>:playlist:<id>.
func (p *Parser) parseURI(uri string) (Reference, error) {
	parts := strings.Split(uri, ":")
	if len(parts) < 3 {
		return Reference{}, ErrInvalidReference
	}
	kind, id := parts[len(parts)-2], parts[len(parts)-1]
	return p.reference(kind, id)
}

func (p *Parser) parseURL(rawURL string) (Reference, error) {
	rawURL = strings.TrimRight(rawURL, ".,!?;")

	u, err := url.Parse(rawURL)
	if err != nil {
		return Reference{}, ErrInvalidReference
	}
	if !spotifyDomains[strings.ToLower(u.Hostname())] {
		return Reference{}, ErrInvalidReference
	}

	pathParts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range pathParts {
		if (part == string(KindTrack) || part == string(KindPlaylist)) && i+1 < len(pathParts) {
			return p.reference(part, pathParts[i+1])
		}
	}
	return Reference{}, ErrInvalidReference
}

func (p *Parser) reference(kind, id string) (Reference, error) {
	if !idRegex.MatchString(id) {
		return Reference{}, ErrInvalidReference
	}
	switch Kind(kind) {
	case KindTrack, KindPlaylist:
		return Reference{Kind: Kind(kind), ID: id}, nil
	}
	return Reference{}, ErrInvalidReference
}
