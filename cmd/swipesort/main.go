// Package main provides the SwipeSort CLI application entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"swipesort/internal/core"
	"swipesort/internal/deck"
	httpserver "swipesort/internal/http"
	"swipesort/internal/i18n"
	"swipesort/internal/preview"
	"swipesort/internal/spotify"
	"swipesort/internal/store"
	"swipesort/pkg/text"
)

const (
	envPrefix = "SWIPESORT"
	// memoryStore keeps state in memory only
	memoryStore = "memory"
	// flushTimeout bounds the final write of persisted state on shutdown
	flushTimeout = 5 * time.Second
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swipesort",
	Short: "SwipeSort - swipe through your Spotify library",
	Long: `SwipeSort serves a swipe deck over your Spotify saved tracks or one of your playlists.
Swipe right to keep a track, left to remove it. Removals are recorded and can be reverted.`,
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deck API",
	RunE:  runServe,
}

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List the playlists that can be sorted",
	RunE:  runPlaylists,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and revert removals",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List removals, newest first",
	RunE:  runHistoryList,
}

var historyRevertCmd = &cobra.Command{
	Use:   "revert <entry-id>...",
	Short: "Restore removed tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistoryRevert,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .env)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	flags.String("language", i18n.DefaultLanguage, fmt.Sprintf("Message language (%s)", supportedLangs))
	flags.String("spotify-access-token", "", "Spotify access token with library and playlist scopes")
	flags.String("spotify-api-url", core.DefaultSpotifyAPIURL, "Spotify Web API base URL")
	flags.Duration("spotify-request-timeout", core.DefaultRequestTimeout, "Timeout of a Spotify API request")
	flags.String("deezer-api-url", core.DefaultDeezerAPIURL, "Preview lookup API base URL")
	flags.Duration("preview-timeout", core.DefaultPreviewTimeout, "Timeout of a preview lookup or validation")
	flags.Int("deck-warm-start-target", core.DefaultWarmStartTarget, "Saved tracks fetched before the deck opens")
	flags.Int("deck-page-size", core.DefaultDeckPageSize, "Cards added per top-up")
	flags.Int("deck-top-up-threshold", core.DefaultTopUpThreshold, "Remaining cards that trigger a top-up")
	flags.Duration("deck-background-pacing", core.DefaultBackgroundPacing, "Delay between background page fetches")
	flags.String("deck-seed", "", "Shuffle seed (random per run when empty)")
	flags.String("store-path", core.DefaultStorePath, "SQLite file for persisted state (\"memory\" keeps nothing)")
	flags.Duration("store-debounce", core.DefaultPersistDebounce, "Delay before state is written")
	flags.String("server-host", "127.0.0.1", "HTTP server host")
	flags.Int("server-port", core.DefaultServerPort, "HTTP server port")
	flags.Int("server-removals-per-minute", core.DefaultRemovalsPerMinute, "Removals allowed per client per minute (0 disables)")
	flags.String("mode", "saved", "Initial deck mode (saved, playlist)")
	flags.String("playlist", "", "Playlist link, URI or ID for playlist mode")

	historyListCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")

	historyCmd.AddCommand(historyListCmd, historyRevertCmd)
	rootCmd.AddCommand(serveCmd, playlistsCmd, historyCmd)

	if err := viper.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSpotify(cfg)
	configureDeck(cfg)
	configureStore(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.AccessToken = viper.GetString("spotify-access-token")
	cfg.Spotify.APIURL = viper.GetString("spotify-api-url")
	cfg.Spotify.RequestTimeout = viper.GetDuration("spotify-request-timeout")
	cfg.Deezer.APIURL = viper.GetString("deezer-api-url")
	cfg.Deezer.RequestTimeout = viper.GetDuration("preview-timeout")
}

func configureDeck(cfg *core.Config) {
	cfg.Deck.WarmStartTarget = viper.GetInt("deck-warm-start-target")
	if cfg.Deck.WarmStartTarget <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid warm start target (%d), using default (%d)\n",
			cfg.Deck.WarmStartTarget, core.DefaultWarmStartTarget)
		cfg.Deck.WarmStartTarget = core.DefaultWarmStartTarget
	}
	cfg.Deck.PageSize = viper.GetInt("deck-page-size")
	if cfg.Deck.PageSize <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid deck page size (%d), using default (%d)\n",
			cfg.Deck.PageSize, core.DefaultDeckPageSize)
		cfg.Deck.PageSize = core.DefaultDeckPageSize
	}
	cfg.Deck.TopUpThreshold = max(viper.GetInt("deck-top-up-threshold"), 0)
	cfg.Deck.BackgroundPacing = viper.GetDuration("deck-background-pacing")
}

func configureStore(cfg *core.Config) {
	cfg.Store.Path = viper.GetString("store-path")
	cfg.Store.Debounce = viper.GetDuration("store-debounce")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Server.RemovalsPerMinute = viper.GetInt("server-removals-per-minute")
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = viper.GetString("log-format")
}

func configureApp(cfg *core.Config) {
	cfg.App.Mode = strings.ToLower(viper.GetString("mode"))
	cfg.App.PlaylistID = viper.GetString("playlist")

	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}

	supportedLanguages := i18n.GetSupportedLanguages()
	if !slices.Contains(supportedLanguages, cfg.App.Language) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(supportedLanguages, ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func validateConfig() error {
	if config.Spotify.AccessToken == "" {
		return fmt.Errorf("spotify access token is required (--spotify-access-token or %s_SPOTIFY_ACCESS_TOKEN)",
			envPrefix)
	}

	switch config.App.Mode {
	case "saved":
	case "playlist":
		if config.App.PlaylistID == "" {
			return fmt.Errorf("playlist mode requires --playlist")
		}
	default:
		return fmt.Errorf("unknown mode: %s", config.App.Mode)
	}
	return nil
}

type services struct {
	kv         store.KV
	closeKV    func() error
	spotify    *spotify.Client
	reviewed   *store.ReviewedSetStore
	history    *store.HistoryStore
	metadata   *store.MetadataCache
	waveforms  *store.WaveformCache
	metrics    *httpserver.Metrics
	effects    *httpserver.EffectsQueue
	controller *deck.Controller
}

func openKV(ctx context.Context) (store.KV, func() error, error) {
	if config.Store.Path == "" || config.Store.Path == memoryStore {
		logger.Info("Using in-memory store; state is lost on exit")
		return store.NewMemoryKV(), func() error { return nil }, nil
	}

	kv, err := store.OpenSQLite(ctx, config.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Opened state store", zap.String("path", config.Store.Path))
	return kv, kv.Close, nil
}

func initializeServices(ctx context.Context, withPreviews bool) (*services, error) {
	kv, closeKV, err := openKV(ctx)
	if err != nil {
		return nil, err
	}

	debounce := store.WithDebounce(config.Store.Debounce)
	svcs := &services{
		kv:        kv,
		closeKV:   closeKV,
		reviewed:  store.NewReviewedSetStore(kv, logger.Named("reviewed"), debounce),
		history:   store.NewHistoryStore(ctx, kv, logger.Named("history"), debounce),
		metadata:  store.NewMetadataCache(ctx, kv, logger.Named("metadata"), debounce),
		waveforms: store.NewWaveformCache(ctx, kv, logger.Named("waveforms"), store.DefaultWaveformCapacity, debounce),
		metrics:   httpserver.NewMetrics(),
		effects:   httpserver.NewEffectsQueue(httpserver.DefaultEffectsLimit),
	}

	svcs.spotify, err = spotify.NewClient(&config.Spotify, core.StaticToken(config.Spotify.AccessToken),
		logger.Named("spotify"))
	if err != nil {
		return nil, errors.Join(err, closeKV())
	}

	deps := deck.Dependencies{
		Service:  svcs.spotify,
		Reviewed: svcs.reviewed,
		History:  svcs.history,
		Metadata: svcs.metadata,
		Effects:  svcs.effects,
		Recorder: svcs.metrics,
		Logger:   logger.Named("deck"),
		Seed:     viper.GetString("deck-seed"),
	}
	if withPreviews {
		resolver, err := preview.NewResolver(&config.Deezer, svcs.metadata, svcs.waveforms, nil, svcs.metrics,
			logger.Named("preview"), nil)
		if err != nil {
			return nil, errors.Join(err, closeKV())
		}
		deps.Previews = resolver
	}
	svcs.controller = deck.NewController(config.Deck, deps)

	return svcs, nil
}

// shutdown stops background work and writes all pending state.
func (s *services) shutdown() {
	s.controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.controller.Flush(ctx)
	s.waveforms.Flush(ctx)

	if err := s.closeKV(); err != nil {
		logger.Warn("Failed to close state store", zap.Error(err))
	}
}

func selectInitialMode(ctx context.Context, svcs *services) error {
	if config.App.Mode != "playlist" {
		return nil
	}
	playlistID, err := text.NewParser().ParsePlaylistID(config.App.PlaylistID)
	if err != nil {
		return fmt.Errorf("invalid playlist %q: %w", config.App.PlaylistID, err)
	}
	playlist, err := svcs.controller.SelectPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}
	logger.Info("Sorting playlist", zap.String("playlist", playlist.Name), zap.Int("tracks", playlist.TotalTracks))
	return nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting SwipeSort",
		zap.String("mode", config.App.Mode),
		zap.String("store", config.Store.Path),
		zap.String("language", config.App.Language))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx, true)
	if err != nil {
		return err
	}
	defer svcs.shutdown()

	if err := selectInitialMode(ctx, svcs); err != nil {
		return err
	}

	httpServer := httpserver.NewServer(&config.Server, httpserver.Dependencies{
		Deck:      svcs.controller,
		Waveforms: svcs.waveforms,
		Effects:   svcs.effects,
		Metrics:   svcs.metrics,
		Localizer: i18n.NewLocalizer(config.App.Language),
	}, logger.Named("http"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	g.Go(func() error {
		if err := svcs.controller.Load(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Initial deck load failed; clients can retry", zap.Error(err))
		}
		return nil
	})

	logger.Info("SwipeSort started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("SwipeSort stopped with error", zap.Error(err))
		return err
	}

	logger.Info("SwipeSort stopped gracefully")
	return nil
}

func runPlaylists(cmd *cobra.Command, _ []string) error {
	if err := validateConfig(); err != nil {
		return err
	}
	ctx := cmd.Context()

	svcs, err := initializeServices(ctx, false)
	if err != nil {
		return err
	}
	defer svcs.shutdown()

	playlists, err := svcs.controller.SortablePlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	localizer := i18n.NewLocalizer(config.App.Language)
	out := cmd.OutOrStdout()
	if len(playlists) == 0 {
		fmt.Fprintln(out, localizer.T("status.no_playlist"))
		return nil
	}
	for _, p := range playlists {
		fmt.Fprintf(out, "%s\t%s\n", p.ID, localizer.T("format.playlist", p.Name, p.TotalTracks))
	}
	return nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	kv, closeKV, err := openKV(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeKV(); err != nil {
			logger.Warn("Failed to close state store", zap.Error(err))
		}
	}()

	entries := store.NewHistoryStore(ctx, kv, logger.Named("history")).Entries()
	format, _ := cmd.Flags().GetString("output")
	return writeHistory(cmd.OutOrStdout(), entries, format, i18n.NewLocalizer(config.App.Language))
}

func writeHistory(out io.Writer, entries []core.RemovalEntry, format string, localizer *i18n.Localizer) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(entries)
	case "table":
		if len(entries) == 0 {
			fmt.Fprintln(out, localizer.T("status.no_history"))
			return nil
		}
		for _, e := range entries {
			track := e.TrackName
			if len(e.Artists) > 0 {
				track = localizer.T("format.track", e.Artists[0], e.TrackName)
			}
			source := string(e.Source)
			if e.PlaylistName != "" {
				source = e.PlaylistName
			}
			fmt.Fprintf(out, "%s  %s\n", e.ID,
				localizer.T("format.removal", e.Timestamp.Local().Format(time.DateTime), track, source))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func runHistoryRevert(cmd *cobra.Command, args []string) error {
	if config.Spotify.AccessToken == "" {
		return fmt.Errorf("spotify access token is required to revert removals")
	}
	ctx := cmd.Context()

	svcs, err := initializeServices(ctx, false)
	if err != nil {
		return err
	}
	defer svcs.shutdown()

	reverted, err := svcs.controller.Revert(ctx, args)
	localizer := i18n.NewLocalizer(config.App.Language)
	if len(reverted) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), localizer.T("success.reverted", len(reverted)))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", localizer.T("error.revert_failed"), err)
	}
	return nil
}
