package text

import (
	"errors"
	"testing"
)

// getParseTestData returns test cases for the Parse function.
func getParseTestData() []struct {
	name     string
	input    string
	expected Reference
	hasError bool
} {
	return []struct {
		name     string
		input    string
		expected Reference
		hasError bool
	}{
		{"Track share link", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", Reference{KindTrack, "4uLU6hMCjMI75M1A2tKUQC"}, false},
		{
			"Playlist link with si parameter",
			"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			Reference{KindPlaylist, "37i9dQZF1DXcBWIGoYBM5M"},
			false,
		},
		{
			"Localized link",
			"https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC",
			Reference{KindTrack, "4uLU6hMCjMI75M1A2tKUQC"},
			false,
		},
		{"Trailing punctuation", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC!", Reference{KindTrack, "4uLU6hMCjMI75M1A2tKUQC"}, false},
		{"Track URI", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", Reference{KindTrack, "4uLU6hMCjMI75M1A2tKUQC"}, false},
		{"Legacy playlist URI", "spotify:user:someone:playlist:37i9dQZF1DXcBWIGoYBM5M", Reference{KindPlaylist, "37i9dQZF1DXcBWIGoYBM5M"}, false},
		{"Bare ID uses fallback", "  37i9dQZF1DXcBWIGoYBM5M ", Reference{KindPlaylist, "37i9dQZF1DXcBWIGoYBM5M"}, false},
		{"Album URL", "https://open.spotify.com/album/4uLU6hMCjMI75M1A2tKUQC", Reference{}, true},
		{"Foreign host", "https://www.youtube.com/track/4uLU6hMCjMI75M1A2tKUQC", Reference{}, true},
		{"Short URI", "spotify:track", Reference{}, true},
		{"Free text", "not a reference", Reference{}, true},
		{"Empty", "", Reference{}, true},
	}
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	for _, tt := range getParseTestData() {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.Parse(tt.input, KindPlaylist)

			if tt.hasError {
				if !errors.Is(err, ErrInvalidReference) {
					t.Errorf("Parse() error = %v, want ErrInvalidReference", err)
				}
				return
			}

			if err != nil {
				t.Errorf("Parse() unexpected error: %v", err)
			}

			if result != tt.expected {
				t.Errorf("Parse() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestParser_ParsePlaylistID(t *testing.T) {
	parser := NewParser()

	id, err := parser.ParsePlaylistID("spotify:playlist:37i9dQZF1DXcBWIGoYBM5M")
	if err != nil || id != "37i9dQZF1DXcBWIGoYBM5M" {
		t.Errorf("ParsePlaylistID() = %q, %v", id, err)
	}

	if _, err := parser.ParsePlaylistID("spotify:track:4uLU6hMCjMI75M1A2tKUQC"); err == nil {
		t.Error("ParsePlaylistID() should reject a track reference")
	}
}

func TestReference_URI(t *testing.T) {
	ref := Reference{Kind: KindTrack, ID: "abc"}
	if ref.URI() != "spotify:track:abc" {
		t.Errorf("URI() = %q", ref.URI())
	}
}
