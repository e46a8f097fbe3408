package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/deck"
	"swipesort/pkg/text"
)

const (
	// defaultUpcoming is how many cards after the current one a deck response lists
	defaultUpcoming = 3
	// maxUpcoming caps the upcoming query parameter
	maxUpcoming = 50
	// maxBodyBytes caps request bodies
	maxBodyBytes = 1 << 20
	// maxWaveformSamples caps uploaded waveform envelopes
	maxWaveformSamples = 1024
)

var (
	errInvalidRequest  = errors.New("invalid request")
	errTooManyRemovals = errors.New("too many removals")
)

type deckResponse struct {
	deck.State
	Error   string   `json:"error,omitempty"`
	Status  string   `json:"status,omitempty"`
	Effects []Effect `json:"effects"`
}

type swipeRequest struct {
	Direction string `json:"direction"`
}

type swipeResponse struct {
	Result *deck.SwipeResult `json:"result,omitempty"`
	Deck   deckResponse      `json:"deck"`
}

type modeRequest struct {
	Mode     string `json:"mode"`
	Playlist string `json:"playlist,omitempty"`
}

type undoResponse struct {
	Undone bool         `json:"undone"`
	Deck   deckResponse `json:"deck"`
}

type previewResponse struct {
	PreviewURL string    `json:"previewUrl,omitempty"`
	Waveform   []float32 `json:"waveform,omitempty"`
	Source     string    `json:"source"`
	Current    bool      `json:"current"`
}

type waveformRequest struct {
	Key     string    `json:"key"`
	Samples []float32 `json:"samples"`
}

type revertRequest struct {
	IDs []string `json:"ids"`
}

type revertResponse struct {
	Reverted []string `json:"reverted"`
	Error    string   `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	upcoming := defaultUpcoming
	if raw := r.URL.Query().Get("upcoming"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("%w: upcoming=%q", errInvalidRequest, raw))
			return
		}
		upcoming = min(n, maxUpcoming)
	}
	s.writeJSON(w, http.StatusOK, s.deckResponse(upcoming))
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.deck.Load(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.deckResponse(defaultUpcoming))
}

func (s *Server) handleAbort(w http.ResponseWriter, _ *http.Request) {
	s.deck.Abort()
	s.writeJSON(w, http.StatusOK, s.deckResponse(defaultUpcoming))
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !s.decode(w, r, &req) {
		return
	}

	switch req.Mode {
	case "saved":
		s.deck.SetMode(core.SavedMode())
		s.effects.Toast(s.localizer.T("success.mode_saved"), core.DefaultToastDuration)
	case "playlist":
		playlistID, err := s.parser.ParsePlaylistID(req.Playlist)
		if err != nil {
			s.writeError(w, err)
			return
		}
		playlist, err := s.deck.SelectPlaylist(r.Context(), playlistID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.effects.Toast(s.localizer.T("success.mode_playlist", playlist.Name), core.DefaultToastDuration)
	default:
		s.writeError(w, fmt.Errorf("%w: mode=%q", errInvalidRequest, req.Mode))
		return
	}
	s.writeJSON(w, http.StatusOK, s.deckResponse(defaultUpcoming))
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if !s.decode(w, r, &req) {
		return
	}
	direction, ok := core.ParseDirection(req.Direction)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: direction=%q", errInvalidRequest, req.Direction))
		return
	}

	if direction == core.SwipeLeft && !s.removals.Allow(clientKey(r)) {
		s.writeError(w, errTooManyRemovals)
		return
	}

	result, err := s.deck.Swipe(r.Context(), direction)
	if errors.Is(err, deck.ErrNoCard) {
		s.writeError(w, err)
		return
	}

	track := s.trackLabel(&result.Item.Track)
	switch {
	case err != nil:
		s.effects.Toast(s.localizer.T("error.remove_failed", track), core.DefaultToastDuration)
	case result.Removal != nil && result.Removal.Source == core.SourcePlaylist:
		s.effects.Toast(s.localizer.T("success.removed_playlist", result.Removal.PlaylistName, track),
			core.DefaultToastDuration)
	case result.Removal != nil:
		s.effects.Toast(s.localizer.T("success.removed_saved", track), core.DefaultToastDuration)
	}

	status := http.StatusOK
	if err != nil {
		status, _ = s.classify(err)
		s.logger.Warn("Swipe removal failed", zap.String("track", track), zap.Error(err))
	}
	s.writeJSON(w, status, swipeResponse{Result: &result, Deck: s.deckResponse(defaultUpcoming)})
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	undone := s.deck.Undo()
	if undone {
		s.effects.Toast(s.localizer.T("success.undo"), core.DefaultToastDuration)
	}
	s.writeJSON(w, http.StatusOK, undoResponse{Undone: undone, Deck: s.deckResponse(defaultUpcoming)})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, current, err := s.deck.ResolveCurrentPreview(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, previewResponse{
		PreviewURL: result.PreviewURL,
		Waveform:   result.Waveform,
		Source:     result.Source,
		Current:    current,
	})
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	var req waveformRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Key == "" || len(req.Samples) == 0 || len(req.Samples) > maxWaveformSamples {
		s.writeError(w, fmt.Errorf("%w: waveform key=%q samples=%d", errInvalidRequest, req.Key, len(req.Samples)))
		return
	}
	if s.waveforms != nil {
		s.waveforms.Put(req.Key, req.Samples)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.deck.SortablePlaylists(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if playlists == nil {
		playlists = []core.Playlist{}
	}
	s.writeJSON(w, http.StatusOK, playlists)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deck.History())
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	var req revertRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, fmt.Errorf("%w: no ids", errInvalidRequest))
		return
	}

	reverted, err := s.deck.Revert(r.Context(), req.IDs)
	if reverted == nil {
		reverted = []string{}
	}
	if len(reverted) > 0 {
		s.effects.Toast(s.localizer.T("success.reverted", len(reverted)), core.DefaultToastDuration)
	}

	resp := revertResponse{Reverted: reverted}
	status := http.StatusOK
	if err != nil {
		s.logger.Warn("Revert incomplete", zap.Int("reverted", len(reverted)), zap.Error(err))
		resp.Error = s.localizer.T("error.revert_failed")
		s.effects.Toast(resp.Error, core.DefaultToastDuration)
		if len(reverted) == 0 {
			status, _ = s.classify(err)
		}
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) deckResponse(upcoming int) deckResponse {
	state := s.deck.State(upcoming)
	resp := deckResponse{State: state}

	if state.LastError != nil {
		_, key := s.classify(state.LastError)
		resp.Error = s.localizer.T(key)
	}
	switch {
	case state.Loading:
		resp.Status = s.localizer.T("status.loading")
	case state.Engine == deck.StatePaused:
		resp.Status = s.localizer.T("status.paused")
	case state.Complete && state.DeckSize > 0:
		resp.Status = s.localizer.T("success.deck_complete")
	case len(state.Duplicates) > 0:
		resp.Status = s.localizer.T("status.duplicates", len(state.Duplicates))
	}

	resp.Effects = s.effects.Drain()
	return resp
}

func (s *Server) trackLabel(track *core.Track) string {
	if artist, ok := track.PrimaryArtist(); ok {
		return s.localizer.T("format.track", artist.Name, track.Name)
	}
	return track.Name
}

// classify maps an error to a status code and a message key.
func (s *Server) classify(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, "error.invalid_request"
	case errors.Is(err, errTooManyRemovals):
		return http.StatusTooManyRequests, "error.too_fast"
	case errors.Is(err, text.ErrInvalidReference):
		return http.StatusBadRequest, "error.playlist.invalid_link"
	case errors.Is(err, deck.ErrNoCard):
		return http.StatusConflict, "error.no_card"
	case errors.Is(err, deck.ErrPlaylistNotFound):
		return http.StatusNotFound, "error.playlist.not_found"
	case errors.Is(err, deck.ErrPlaylistNotSortable):
		return http.StatusUnprocessableEntity, "error.playlist.not_sortable"
	case errors.Is(err, deck.ErrNoPreviewResolver):
		return http.StatusNotImplemented, "error.no_preview"
	case core.IsAuth(err):
		return http.StatusUnauthorized, "error.auth"
	case errors.Is(err, core.ErrTooManyRequests):
		return http.StatusTooManyRequests, "error.rate_limited"
	case errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway, "error.network"
	case errors.Is(err, context.Canceled):
		return http.StatusConflict, "error.load_failed"
	default:
		return http.StatusBadGateway, "error.generic"
	}
}

// clientKey identifies the requesting client by remote host.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, key := s.classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Message: s.localizer.T(key)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errInvalidRequest, err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", zap.Error(err))
	}
}
