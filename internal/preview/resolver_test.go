package preview

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/store"
)

type route struct {
	status int
	body   string
}

// routeTransport answers "METHOD URL" with canned responses and records every request.
type routeTransport struct {
	mutex    sync.Mutex
	routes   map[string]route
	requests []string
	ranges   []string
}

func (rt *routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.String()

	rt.mutex.Lock()
	rt.requests = append(rt.requests, key)
	if req.Method == http.MethodHead {
		rt.ranges = append(rt.ranges, req.Header.Get("Range"))
	}
	r, ok := rt.routes[key]
	rt.mutex.Unlock()

	if !ok {
		r = route{status: http.StatusNotFound, body: `{}`}
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (rt *routeTransport) recorded() []string {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	return append([]string(nil), rt.requests...)
}

type fakeWaveforms struct {
	mutex sync.Mutex
	urls  []string
}

func (f *fakeWaveforms) Waveform(_ context.Context, _, previewURL string) ([]float32, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.urls = append(f.urls, previewURL)
	return []float32{0.1, 0.9}, nil
}

type fixture struct {
	transport *routeTransport
	cache     *store.MetadataCache
	waveforms *store.WaveformCache
	provider  *fakeWaveforms
	resolver  *Resolver
}

func newFixture(t *testing.T, routes map[string]route) *fixture {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	f := &fixture{
		transport: &routeTransport{routes: routes},
		cache:     store.NewMetadataCache(ctx, kv, zap.NewNop(), store.WithDebounce(time.Hour)),
		waveforms: store.NewWaveformCache(ctx, kv, zap.NewNop(), 10, store.WithDebounce(time.Hour)),
		provider:  &fakeWaveforms{},
	}
	config := &core.DeezerConfig{APIURL: "https://api.catalog.test/", RequestTimeout: time.Second}
	resolver, err := NewResolver(config, f.cache, f.waveforms, f.provider, nil, zap.NewNop(), f.transport)
	require.NoError(t, err)
	f.resolver = resolver
	return f
}

func TestResolve_CacheEvictionAndFreshLookup(t *testing.T) {
	f := newFixture(t, map[string]route{
		"HEAD https://cdnt-preview.example/x.mp3":                {status: http.StatusForbidden},
		"HEAD https://cdns-preview.example/x.mp3":                {status: http.StatusForbidden},
		"GET https://api.catalog.test/track/isrc:GBAYE0601498":   {status: http.StatusOK, body: `{"id":1,"preview":"https://cdns-preview.example/y.mp3"}`},
		"HEAD https://cdns-preview.example/y.mp3":                {status: http.StatusOK},
	})
	f.cache.SetPreviewURL("k", "http://cdnt-preview.example/x.mp3")

	track := &core.Track{ID: "k", Name: "Song", ISRC: "GBAYE0601498"}
	result, ok := f.resolver.Resolve(context.Background(), f.resolver.Begin(), track)

	require.True(t, ok)
	assert.Equal(t, "https://cdns-preview.example/y.mp3", result.PreviewURL)
	assert.Equal(t, OutcomeLookup, result.Source)

	cached, _ := f.cache.PreviewURL("k")
	assert.Equal(t, "https://cdns-preview.example/y.mp3", cached)

	assert.Equal(t, []string{"https://cdns-preview.example/y.mp3"}, f.provider.urls)
	assert.Equal(t, []float32{0.1, 0.9}, result.Waveform)

	for _, r := range f.transport.ranges {
		assert.Equal(t, "bytes=0-", r)
	}
}

func TestResolve_DirectPreviewSkipsNetwork(t *testing.T) {
	f := newFixture(t, nil)

	track := &core.Track{ID: "a", Name: "Song", PreviewURL: "http://p.example/a.mp3"}
	result, ok := f.resolver.Resolve(context.Background(), f.resolver.Begin(), track)

	require.True(t, ok)
	assert.Equal(t, "https://p.example/a.mp3", result.PreviewURL)
	assert.Equal(t, OutcomeDirect, result.Source)
	assert.Empty(t, f.transport.recorded())
}

func TestResolve_CachedHostSwap(t *testing.T) {
	f := newFixture(t, map[string]route{
		"HEAD https://cdns-preview.example/x.mp3": {status: http.StatusForbidden},
		"HEAD https://cdn-preview.example/x.mp3":  {status: http.StatusPartialContent},
	})
	f.cache.SetPreviewURL("k", "https://cdns-preview.example/x.mp3")

	result, ok := f.resolver.Resolve(context.Background(), f.resolver.Begin(), &core.Track{ID: "k", Name: "S"})

	require.True(t, ok)
	assert.Equal(t, OutcomeCached, result.Source)
	assert.Equal(t, "https://cdn-preview.example/x.mp3", result.PreviewURL)
	cached, _ := f.cache.PreviewURL("k")
	assert.Equal(t, "https://cdn-preview.example/x.mp3", cached)
}

func TestResolve_ValidatedURLIsMemoized(t *testing.T) {
	f := newFixture(t, map[string]route{
		"HEAD https://cdns-preview.example/x.mp3": {status: http.StatusOK},
	})
	f.cache.SetPreviewURL("k", "https://cdns-preview.example/x.mp3")
	track := &core.Track{ID: "k", Name: "S"}

	_, _ = f.resolver.Resolve(context.Background(), f.resolver.Begin(), track)
	_, _ = f.resolver.Resolve(context.Background(), f.resolver.Begin(), track)

	assert.Len(t, f.transport.recorded(), 1)
}

func TestResolve_SearchFallbackByArtistAndTitle(t *testing.T) {
	query := `https://api.catalog.test/search/track?limit=3&q=artist%3A%22simon%22+track%3A%22the+boxer%22`
	f := newFixture(t, map[string]route{
		"GET https://api.catalog.test/track/isrc:USX":                {status: http.StatusOK, body: `{"error":{"type":"DataException","message":"no data","code":800}}`},
		"GET https://api.catalog.test/search/track?limit=1&q=isrc%3AUSX": {status: http.StatusOK, body: `{"data":[]}`},
		"GET " + query:                                              {status: http.StatusOK, body: `{"data":[{"preview":""},{"preview":"http://cdnt-preview.example/z.mp3"}]}`},
		"HEAD https://cdnt-preview.example/z.mp3":                    {status: http.StatusOK},
	})

	track := &core.Track{
		ID:      "t",
		Name:    "The Boxer - Remastered",
		ISRC:    "USX",
		Artists: []core.Artist{{Name: "Simon & Garfunkel"}},
	}
	result, ok := f.resolver.Resolve(context.Background(), f.resolver.Begin(), track)

	require.True(t, ok)
	assert.Equal(t, "https://cdnt-preview.example/z.mp3", result.PreviewURL)
	assert.Equal(t, OutcomeLookup, result.Source)
}

func TestResolve_NoPreviewIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)

	track := &core.Track{ID: "t", Name: "Obscure", Artists: []core.Artist{{Name: "Nobody"}}}
	result, ok := f.resolver.Resolve(context.Background(), f.resolver.Begin(), track)

	require.True(t, ok)
	assert.Empty(t, result.PreviewURL)
	assert.Equal(t, OutcomeNone, result.Source)
	assert.Nil(t, result.Waveform)
	assert.Empty(t, f.provider.urls)
}

func TestResolve_StaleTicketDropsResult(t *testing.T) {
	f := newFixture(t, map[string]route{
		"GET https://api.catalog.test/track/isrc:ISRC1": {status: http.StatusOK, body: `{"preview":"https://cdns-preview.example/late.mp3"}`},
		"HEAD https://cdns-preview.example/late.mp3":    {status: http.StatusOK},
	})

	ticket := f.resolver.Begin()
	f.resolver.Begin()

	result, ok := f.resolver.Resolve(context.Background(), ticket, &core.Track{ID: "late", Name: "L", ISRC: "ISRC1"})

	assert.False(t, ok)
	assert.Empty(t, result.PreviewURL)
	assert.False(t, f.cache.HasPreviewURL("late"), "stale result must not reach the cache")
	assert.Empty(t, f.provider.urls)
}

func TestResolve_WaveformFromCache(t *testing.T) {
	f := newFixture(t, nil)
	f.waveforms.Put("a", []float32{0.5})

	result, ok := f.resolver.Resolve(context.Background(), f.resolver.Begin(), &core.Track{ID: "a", Name: "S", PreviewURL: "https://p/a.mp3"})

	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, result.Waveform)
	assert.Empty(t, f.provider.urls)
}

func TestSwapHost(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"https://cdnt-preview.example/a", "https://cdns-preview.example/a", true},
		{"https://cdns-preview.example/a", "https://cdn-preview.example/a", true},
		{"https://cdn-preview.example/a", "https://cdnt-preview.example/a", true},
		{"https://other.example/a", "", false},
	}

	for _, tt := range tests {
		got, ok := swapHost(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("swapHost(%q) = %q, %v", tt.input, got, ok)
		}
	}
}

func TestUpgradeScheme(t *testing.T) {
	if got := upgradeScheme("http://a/b"); got != "https://a/b" {
		t.Errorf("upgradeScheme() = %q", got)
	}
	if got := upgradeScheme("https://a/b"); got != "https://a/b" {
		t.Errorf("upgradeScheme() = %q", got)
	}
}
