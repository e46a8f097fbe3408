// Package fuzzy normalizes track titles and artist names for third-party catalog searches.
package fuzzy

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// titleCutMarkers end the searchable part of a title. Matching is done on the lowercased title.
var titleCutMarkers = []string{
	"(feat.",
	"(with ",
	" - remaster",
	" - radio edit",
	" - single",
	" - explicit",
}

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeArtist lowercases and keeps only the first credited artist.
func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.basicNormalize(artist)

	if i := strings.IndexAny(artist, "&,"); i >= 0 {
		artist = artist[:i]
	}

	return strings.TrimSpace(artist)
}

// NormalizeTitle lowercases and drops featuring credits and version suffixes.
func (n *Normalizer) NormalizeTitle(title string) string {
	title = n.basicNormalize(title)

	cut := len(title)
	for _, marker := range titleCutMarkers {
		if i := strings.Index(title, marker); i >= 0 && i < cut {
			cut = i
		}
	}

	return strings.TrimSpace(title[:cut])
}

// SearchQuery builds an artist:"a" track:"t" query from raw names.
func (n *Normalizer) SearchQuery(artist, title string) string {
	a := strings.ReplaceAll(n.NormalizeArtist(artist), `"`, "")
	t := strings.ReplaceAll(n.NormalizeTitle(title), `"`, "")
	return `artist:"` + a + `" track:"` + t + `"`
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFC.String(text)
	return strings.ToLower(text)
}
