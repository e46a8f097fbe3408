// Package http serves the deck as a JSON API for swipe clients, plus health
// and Prometheus endpoints.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/deck"
	"swipesort/internal/flood"
	"swipesort/internal/i18n"
	"swipesort/internal/preview"
	"swipesort/internal/store"
	"swipesort/pkg/text"
)

// Deck is the deck surface served by the API.
type Deck interface {
	State(upcoming int) deck.State
	Load(ctx context.Context) error
	Abort()
	SetMode(mode core.Mode)
	SelectPlaylist(ctx context.Context, playlistID string) (core.Playlist, error)
	Swipe(ctx context.Context, direction core.Direction) (deck.SwipeResult, error)
	Undo() bool
	ResolveCurrentPreview(ctx context.Context) (preview.Result, bool, error)
	SortablePlaylists(ctx context.Context) ([]core.Playlist, error)
	History() []core.RemovalEntry
	Revert(ctx context.Context, ids []string) ([]string, error)
}

// Dependencies are the collaborators of a Server. Waveforms may be nil.
type Dependencies struct {
	Deck      Deck
	Waveforms *store.WaveformCache
	Effects   *EffectsQueue
	Metrics   *Metrics
	Localizer *i18n.Localizer
}

type Server struct {
	config    *core.ServerConfig
	logger    *zap.Logger
	server    *http.Server
	metrics   *Metrics
	deck      Deck
	waveforms *store.WaveformCache
	effects   *EffectsQueue
	localizer *i18n.Localizer
	parser    *text.Parser
	removals  *flood.Floodgate
}

func NewServer(config *core.ServerConfig, deps Dependencies, logger *zap.Logger) *Server {
	s := &Server{
		config:    config,
		logger:    logger,
		metrics:   deps.Metrics,
		deck:      deps.Deck,
		waveforms: deps.Waveforms,
		effects:   deps.Effects,
		localizer: deps.Localizer,
		parser:    text.NewParser(),
		removals:  flood.New(config.RemovalsPerMinute, flood.DefaultWindow),
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.effects == nil {
		s.effects = NewEffectsQueue(DefaultEffectsLimit)
	}
	if s.localizer == nil {
		s.localizer = i18n.NewLocalizer(i18n.DefaultLanguage)
	}

	s.server = createHTTPServer(config, s.setupRoutes())
	return s
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","service":"swipesort"}`)); err != nil {
			s.logger.Debug("Failed to write health response", zap.Error(err))
		}
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ready","service":"swipesort"}`)); err != nil {
			s.logger.Debug("Failed to write readiness response", zap.Error(err))
		}
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	s.route(mux, "GET /api/deck", s.handleDeck)
	s.route(mux, "POST /api/deck/load", s.handleLoad)
	s.route(mux, "POST /api/deck/abort", s.handleAbort)
	s.route(mux, "POST /api/deck/mode", s.handleMode)
	s.route(mux, "POST /api/deck/swipe", s.handleSwipe)
	s.route(mux, "POST /api/deck/undo", s.handleUndo)
	s.route(mux, "GET /api/deck/preview", s.handlePreview)
	s.route(mux, "PUT /api/waveform", s.handleWaveform)
	s.route(mux, "GET /api/playlists", s.handlePlaylists)
	s.route(mux, "GET /api/history", s.handleHistory)
	s.route(mux, "POST /api/history/revert", s.handleRevert)

	mux.HandleFunc("GET /{$}", homeHandler(s.logger))
	return mux
}

// route registers handler under pattern with request duration instrumentation.
func (s *Server) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	observer := s.metrics.RequestDuration.MustCurryWith(prometheus.Labels{"route": pattern})
	mux.Handle(pattern, promhttp.InstrumentHandlerDuration(observer, handler))
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>SwipeSort</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
        code { background: #f4f4f4; padding: 2px 4px; }
    </style>
</head>
<body>
    <h1 class="header">SwipeSort</h1>
    <p>Swipe through your Spotify library: keep or remove, one card at a time.</p>

    <h2>Deck API</h2>
    <div class="endpoint"><a href="/api/deck">GET /api/deck</a> - Current deck state</div>
    <div class="endpoint"><code>POST /api/deck/load</code> - Load the deck for the current mode</div>
    <div class="endpoint"><code>POST /api/deck/mode</code> - Switch between saved tracks and a playlist</div>
    <div class="endpoint"><code>POST /api/deck/swipe</code> - Keep or remove the current card</div>
    <div class="endpoint"><code>POST /api/deck/undo</code> - Go back one card</div>
    <div class="endpoint"><a href="/api/deck/preview">GET /api/deck/preview</a> - Preview clip of the current card</div>
    <div class="endpoint"><a href="/api/playlists">GET /api/playlists</a> - Sortable playlists</div>
    <div class="endpoint"><a href="/api/history">GET /api/history</a> - Removal history</div>

    <h2>Operations</h2>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go s.removals.Run(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
