// Package spotify is a typed client for the parts of the Spotify Web API the deck needs:
// paged listings, chunked library mutations and batch metadata lookups.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"swipesort/internal/core"
)

const (
	// PlaylistsPageLimit is the page size of the current user's playlist listing
	PlaylistsPageLimit = 50
	// PlaylistTracksPageLimit is the page size of a playlist's track listing
	PlaylistTracksPageLimit = 100
	// SavedTracksPageLimit is the page size of the saved-tracks listing
	SavedTracksPageLimit = 50
	// URIChunkSize bounds the URIs sent in one playlist mutation
	URIChunkSize = 90
	// IDChunkSize bounds the IDs sent in one library mutation or metadata lookup
	IDChunkSize = 50
)

type Client struct {
	api     *spotify.Client
	baseURL string
	auth    core.AuthProvider
	logger  *zap.Logger
}

// tokenSource adapts the host's AuthProvider to oauth2. The token is re-read
// on every request because the host may refresh it at any time.
type tokenSource struct {
	auth core.AuthProvider
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	token, ok := s.auth.CurrentAccessToken()
	if !ok {
		return nil, core.ErrNoToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// responseMeta holds what the spotify package drops from a response: the
// status of an empty error body and the Retry-After header.
type responseMeta struct {
	status     int
	retryAfter time.Duration
}

type responseMetaKey struct{}

// metaTransport records responseMeta for requests whose context carries one.
type metaTransport struct {
	base http.RoundTripper
}

func (t *metaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if meta, ok := req.Context().Value(responseMetaKey{}).(*responseMeta); ok {
		meta.status = resp.StatusCode
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			meta.retryAfter = time.Duration(seconds) * time.Second
		}
	}
	return resp, nil
}

func NewClient(config *core.SpotifyConfig, auth core.AuthProvider, logger *zap.Logger) (*Client, error) {
	return NewClientWithTransport(config, auth, logger, http.DefaultTransport)
}

// NewClientWithTransport is NewClient with an explicit base transport.
func NewClientWithTransport(
	config *core.SpotifyConfig, auth core.AuthProvider, logger *zap.Logger, base http.RoundTripper,
) (*Client, error) {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = core.DefaultSpotifyAPIURL
	}
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return nil, fmt.Errorf("invalid spotify api url: %q", apiURL)
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: tokenSource{auth: auth},
			Base:   &metaTransport{base: base},
		},
	}

	return &Client{
		api:     spotify.New(httpClient, spotify.WithBaseURL(apiURL)),
		baseURL: apiURL,
		auth:    auth,
		logger:  logger,
	}, nil
}

// call runs fn against the API and maps its failure to a *core.APIError.
// Without a token nothing is sent.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if _, ok := c.auth.CurrentAccessToken(); !ok {
		return &core.APIError{Op: op, Kind: core.ErrNoToken}
	}

	meta := &responseMeta{}
	err := fn(context.WithValue(ctx, responseMetaKey{}, meta))
	if err == nil {
		return nil
	}

	apiErr := c.classify(ctx, op, meta, err)
	c.logger.Debug("Spotify request failed",
		zap.String("op", op),
		zap.Int("status", apiErr.Status),
		zap.Error(apiErr))
	return apiErr
}

func (c *Client) classify(ctx context.Context, op string, meta *responseMeta, err error) *core.APIError {
	apiErr := &core.APIError{Op: op, Status: meta.status, RetryAfter: meta.retryAfter}

	var spotifyErr spotify.Error
	if errors.As(err, &spotifyErr) {
		apiErr.Message = spotifyErr.Message
		if apiErr.Status == 0 {
			apiErr.Status = spotifyErr.Status
		}
	} else {
		apiErr.Err = err
	}

	switch kind := core.KindForStatus(apiErr.Status); {
	case errors.Is(err, core.ErrNoToken):
		apiErr.Kind = core.ErrNoToken
		apiErr.Err = nil
	case kind != nil:
		apiErr.Kind = kind
	case ctx.Err() != nil:
		apiErr.Kind = core.ErrTransport
		apiErr.Err = ctx.Err()
	case apiErr.Status >= 200 && apiErr.Status < 300:
		// a response arrived but its body did not decode
		apiErr.Kind = core.ErrDecode
	default:
		apiErr.Kind = core.ErrTransport
	}
	return apiErr
}

// FetchUser returns the current user.
func (c *Client) FetchUser(ctx context.Context) (*core.User, error) {
	var user *spotify.PrivateUser
	err := c.call(ctx, "fetch user", func(ctx context.Context) error {
		var err error
		user, err = c.api.CurrentUser(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &core.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Country:     user.Country,
	}, nil
}
