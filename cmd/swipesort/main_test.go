package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"swipesort/internal/core"
	"swipesort/internal/i18n"
)

func historyFixture() []core.RemovalEntry {
	return []core.RemovalEntry{
		{
			ID:           "e2",
			Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Source:       core.SourcePlaylist,
			TrackName:    "The Boxer",
			Artists:      []string{"Simon & Garfunkel"},
			PlaylistID:   "p1",
			PlaylistName: "Road Trip",
		},
		{
			ID:        "e1",
			Timestamp: time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC),
			Source:    core.SourceSaved,
			TrackName: "Intro",
		},
	}
}

func TestWriteHistory(t *testing.T) {
	localizer := i18n.NewLocalizer(i18n.DefaultLanguage)

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		if err := writeHistory(&out, historyFixture(), "table", localizer); err != nil {
			t.Fatalf("writeHistory() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %q", out.String())
		}
		if !strings.HasPrefix(lines[0], "e2") || !strings.Contains(lines[0], "Simon & Garfunkel - The Boxer") ||
			!strings.Contains(lines[0], "Road Trip") {
			t.Errorf("unexpected first line %q", lines[0])
		}
		if !strings.Contains(lines[1], "Intro") || !strings.HasSuffix(lines[1], "saved") {
			t.Errorf("unexpected second line %q", lines[1])
		}
	})

	t.Run("empty table", func(t *testing.T) {
		var out bytes.Buffer
		if err := writeHistory(&out, nil, "table", localizer); err != nil {
			t.Fatalf("writeHistory() error = %v", err)
		}
		if strings.TrimSpace(out.String()) != localizer.T("status.no_history") {
			t.Errorf("got %q", out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		if err := writeHistory(&out, historyFixture(), "json", localizer); err != nil {
			t.Fatalf("writeHistory() error = %v", err)
		}
		var decoded []core.RemovalEntry
		if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].PlaylistName != "Road Trip" {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		if err := writeHistory(&out, historyFixture(), "yaml", localizer); err != nil {
			t.Fatalf("writeHistory() error = %v", err)
		}
		var decoded []map[string]any
		if err := yaml.Unmarshal(out.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if len(decoded) != 2 || decoded[1]["source"] != "saved" {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := writeHistory(&bytes.Buffer{}, nil, "xml", localizer); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestBuildConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("spotify-access-token", "token")
	viper.Set("deck-page-size", 0)
	viper.Set("deck-warm-start-target", 50)
	viper.Set("mode", "Playlist")
	viper.Set("playlist", "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M")
	viper.Set("language", "xx")
	viper.Set("store-debounce", "250ms")

	cfg := buildConfig()

	if cfg.Spotify.AccessToken != "token" {
		t.Errorf("AccessToken = %q", cfg.Spotify.AccessToken)
	}
	if cfg.Deck.PageSize != core.DefaultDeckPageSize {
		t.Errorf("invalid page size should fall back to default, got %d", cfg.Deck.PageSize)
	}
	if cfg.Deck.WarmStartTarget != 50 {
		t.Errorf("WarmStartTarget = %d", cfg.Deck.WarmStartTarget)
	}
	if cfg.App.Mode != "playlist" {
		t.Errorf("Mode = %q", cfg.App.Mode)
	}
	if cfg.App.Language != i18n.DefaultLanguage {
		t.Errorf("unsupported language should fall back, got %q", cfg.App.Language)
	}
	if cfg.Store.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Store.Debounce)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Config)
		wantErr bool
	}{
		{"Valid saved", func(*core.Config) {}, false},
		{"Missing token", func(c *core.Config) { c.Spotify.AccessToken = "" }, true},
		{"Playlist without id", func(c *core.Config) { c.App.Mode = "playlist" }, true},
		{"Playlist with id", func(c *core.Config) { c.App.Mode = "playlist"; c.App.PlaylistID = "x" }, false},
		{"Unknown mode", func(c *core.Config) { c.App.Mode = "albums" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config = core.DefaultConfig()
			config.Spotify.AccessToken = "token"
			tt.mutate(config)
			if err := validateConfig(); (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		if buildLogger("debug", format) == nil {
			t.Errorf("buildLogger(%q) returned nil", format)
		}
	}
}
