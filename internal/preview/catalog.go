// Package preview resolves playable preview clips for tracks that lack one,
// using a third-party catalog and a validated cache.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"swipesort/internal/core"
)

const (
	// maxHTTPRedirects is the maximum number of redirects followed by catalog and validation requests
	maxHTTPRedirects = 3
	// maxCatalogBody bounds a catalog response
	maxCatalogBody = 1 << 20
)

// ErrTooManyRedirects is returned when too many redirects are encountered.
var ErrTooManyRedirects = errors.New("too many redirects")

func newHTTPClient(config *core.DeezerConfig, transport http.RoundTripper) *http.Client {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = core.DefaultPreviewTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxHTTPRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
}

type catalogError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type catalogTrack struct {
	ID      int64         `json:"id"`
	Title   string        `json:"title"`
	Preview string        `json:"preview"`
	Error   *catalogError `json:"error"`
}

type catalogSearch struct {
	Data  []catalogTrack `json:"data"`
	Error *catalogError  `json:"error"`
}

// Catalog is a client for the third-party track catalog that carries preview URLs.
type Catalog struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCatalog creates a catalog client. A nil transport uses http.DefaultTransport.
func NewCatalog(config *core.DeezerConfig, logger *zap.Logger, transport http.RoundTripper) (*Catalog, error) {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = core.DefaultDeezerAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	baseURL, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog api url: %w", err)
	}

	return &Catalog{
		baseURL:    baseURL,
		httpClient: newHTTPClient(config, transport),
		logger:     logger,
	}, nil
}

func (c *Catalog) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &core.APIError{Op: "catalog " + path, Kind: core.ErrTransport, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if kind := core.KindForStatus(resp.StatusCode); kind != nil {
		return &core.APIError{Op: "catalog " + path, Status: resp.StatusCode, Kind: kind}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBody)).Decode(dest); err != nil {
		return &core.APIError{Op: "catalog " + path, Kind: core.ErrDecode, Err: err}
	}
	return nil
}

// TrackByISRC returns the preview URL of the track with the given ISRC.
// A catalog miss is reported as core.ErrNotFound.
func (c *Catalog) TrackByISRC(ctx context.Context, isrc string) (string, error) {
	var track catalogTrack
	if err := c.getJSON(ctx, "track/isrc:"+isrc, nil, &track); err != nil {
		return "", err
	}
	// The catalog answers misses with 200 and an error object.
	if track.Error != nil || track.Preview == "" {
		return "", &core.APIError{Op: "catalog isrc", Kind: core.ErrNotFound}
	}
	return track.Preview, nil
}

// Search returns the non-empty preview URLs of up to limit results, in result order.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]string, error) {
	var result catalogSearch
	params := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "search/track", params, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, &core.APIError{Op: "catalog search", Kind: core.ErrBadRequest, Message: result.Error.Message}
	}

	var previews []string
	for _, track := range result.Data {
		if track.Preview != "" {
			previews = append(previews, track.Preview)
		}
	}
	return previews, nil
}
