package core

import (
	"time"
)

const (
	// DefaultSpotifyAPIURL is the base URL of the Spotify Web API
	DefaultSpotifyAPIURL = "https://api.spotify.com/v1/"
	// DefaultDeezerAPIURL is the base URL of the preview lookup service
	DefaultDeezerAPIURL = "https://api.deezer.com/"
	// DefaultRequestTimeout bounds a whole remote call including body read
	DefaultRequestTimeout = 15 * time.Second
	// DefaultPreviewTimeout bounds a single preview lookup or validation request
	DefaultPreviewTimeout = 8 * time.Second
	// DefaultWarmStartTarget is how many saved tracks are fetched before the deck becomes interactive
	DefaultWarmStartTarget = 100
	// DefaultDeckPageSize is how many cards are added to the deck per top-up
	DefaultDeckPageSize = 20
	// DefaultTopUpThreshold is the number of remaining cards that triggers a top-up
	DefaultTopUpThreshold = 5
	// DefaultBackgroundPacing is the delay between background page fetches
	DefaultBackgroundPacing = 100 * time.Millisecond
	// DefaultPersistDebounce is the delay before debounced state is written
	DefaultPersistDebounce = 500 * time.Millisecond
	// DefaultWaveformSamples is the length of a waveform envelope
	DefaultWaveformSamples = 180
	// DefaultServerPort is the port of the HTTP host
	DefaultServerPort = 8080
	// DefaultStorePath is the SQLite file holding persisted state
	DefaultStorePath = "./swipesort.db"
	// DefaultLanguage is the language of host-rendered messages
	DefaultLanguage = "en"
	// DefaultRemovalsPerMinute caps left swipes per client; 0 disables the cap
	DefaultRemovalsPerMinute = 60
)

type Config struct {
	Spotify SpotifyConfig
	Deezer  DeezerConfig
	Deck    DeckConfig
	Store   StoreConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

type SpotifyConfig struct {
	APIURL         string
	AccessToken    string
	RequestTimeout time.Duration
}

type DeezerConfig struct {
	APIURL         string
	RequestTimeout time.Duration
}

type DeckConfig struct {
	WarmStartTarget  int
	PageSize         int
	TopUpThreshold   int
	BackgroundPacing time.Duration
}

type StoreConfig struct {
	Path     string
	Debounce time.Duration
}

type ServerConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RemovalsPerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language   string
	Mode       string
	PlaylistID string
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			APIURL:         DefaultSpotifyAPIURL,
			RequestTimeout: DefaultRequestTimeout,
		},
		Deezer: DeezerConfig{
			APIURL:         DefaultDeezerAPIURL,
			RequestTimeout: DefaultPreviewTimeout,
		},
		Deck: DeckConfig{
			WarmStartTarget:  DefaultWarmStartTarget,
			PageSize:         DefaultDeckPageSize,
			TopUpThreshold:   DefaultTopUpThreshold,
			BackgroundPacing: DefaultBackgroundPacing,
		},
		Store: StoreConfig{
			Path:     DefaultStorePath,
			Debounce: DefaultPersistDebounce,
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              DefaultServerPort,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			RemovalsPerMinute: DefaultRemovalsPerMinute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language: DefaultLanguage,
			Mode:     "saved",
		},
	}
}
