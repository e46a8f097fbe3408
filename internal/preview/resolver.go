package preview

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/store"
	"swipesort/pkg/fuzzy"
)

const (
	// SearchLimit is the number of catalog results considered for an artist/title search
	SearchLimit = 3
	// validatedTTL is how long a successful HEAD check is trusted
	validatedTTL = 10 * time.Minute
	// validatedCapacity bounds the validated-URL memo
	validatedCapacity = 512
)

// Outcomes reported to the metrics recorder.
const (
	OutcomeDirect = "direct"
	OutcomeCached = "cached"
	OutcomeLookup = "lookup"
	OutcomeNone   = "none"
	OutcomeStale  = "stale"
)

// hostVariants are the preview CDN hosts, tried in order on validation failure.
var hostVariants = []string{"cdnt-preview.", "cdns-preview.", "cdn-preview."}

// Result is the outcome of a resolution. An empty PreviewURL means no preview.
type Result struct {
	PreviewURL string    `json:"previewUrl,omitempty"`
	Waveform   []float32 `json:"waveform,omitempty"`
	Source     string    `json:"source"`
}

// Ticket identifies one resolution. It goes stale once a newer ticket is issued
// or the resolver is cancelled; stale resolutions never write to the caches.
type Ticket struct {
	generation uint64
}

type Resolver struct {
	cache      *store.MetadataCache
	waveforms  *store.WaveformCache
	provider   core.WaveformProvider
	catalog    *Catalog
	httpClient *http.Client
	normalizer *fuzzy.Normalizer
	validated  *expirable.LRU[string, struct{}]
	recorder   core.Recorder
	logger     *zap.Logger

	mutex      sync.Mutex
	generation uint64
}

// NewResolver wires a resolver. provider and waveforms may be nil, in which case
// results carry no waveform. A nil transport uses http.DefaultTransport.
func NewResolver(
	config *core.DeezerConfig,
	cache *store.MetadataCache,
	waveforms *store.WaveformCache,
	provider core.WaveformProvider,
	recorder core.Recorder,
	logger *zap.Logger,
	transport http.RoundTripper,
) (*Resolver, error) {
	catalog, err := NewCatalog(config, logger.Named("catalog"), transport)
	if err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = core.NopRecorder{}
	}

	return &Resolver{
		cache:      cache,
		waveforms:  waveforms,
		provider:   provider,
		catalog:    catalog,
		httpClient: newHTTPClient(config, transport),
		normalizer: fuzzy.NewNormalizer(),
		validated:  expirable.NewLRU[string, struct{}](validatedCapacity, nil, validatedTTL),
		recorder:   recorder,
		logger:     logger,
	}, nil
}

// Begin issues a ticket and makes every earlier ticket stale.
func (r *Resolver) Begin() Ticket {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.generation++
	return Ticket{generation: r.generation}
}

// Cancel makes every issued ticket stale.
func (r *Resolver) Cancel() {
	r.mutex.Lock()
	r.generation++
	r.mutex.Unlock()
}

// Current reports whether t is the latest ticket.
func (r *Resolver) Current(t Ticket) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return t.generation == r.generation
}

// Resolve finds a playable preview for track. It never fails; the boolean is
// false when the ticket went stale before the result was ready.
func (r *Resolver) Resolve(ctx context.Context, ticket Ticket, track *core.Track) (Result, bool) {
	key := track.PreviewKey()
	result := r.resolveURL(ctx, ticket, track, key)

	if !r.Current(ticket) {
		r.recorder.RecordPreview(OutcomeStale)
		return Result{}, false
	}
	r.recorder.RecordPreview(result.Source)
	if result.PreviewURL == "" {
		return result, true
	}

	result.Waveform = r.waveform(ctx, ticket, key, result.PreviewURL)
	if !r.Current(ticket) {
		r.recorder.RecordPreview(OutcomeStale)
		return Result{}, false
	}
	return result, true
}

func (r *Resolver) resolveURL(ctx context.Context, ticket Ticket, track *core.Track, key string) Result {
	if track.PreviewURL != "" {
		return Result{PreviewURL: upgradeScheme(track.PreviewURL), Source: OutcomeDirect}
	}

	if cached, ok := r.cache.PreviewURL(key); ok && cached != "" {
		if valid, ok := r.validate(ctx, upgradeScheme(cached)); ok {
			if valid != cached && r.Current(ticket) {
				r.cache.SetPreviewURL(key, valid)
				r.cache.ScheduleSave()
			}
			return Result{PreviewURL: valid, Source: OutcomeCached}
		}

		if !r.Current(ticket) {
			return Result{Source: OutcomeStale}
		}
		r.logger.Debug("Cached preview failed validation, evicting", zap.String("key", key))
		r.cache.RemovePreviewURL(key)
		r.cache.ScheduleSave()
	}

	for _, candidate := range r.lookup(ctx, track) {
		if valid, ok := r.validate(ctx, upgradeScheme(candidate)); ok {
			if r.Current(ticket) {
				r.cache.SetPreviewURL(key, valid)
				r.cache.ScheduleSave()
			}
			return Result{PreviewURL: valid, Source: OutcomeLookup}
		}
		if ctx.Err() != nil {
			break
		}
	}

	return Result{Source: OutcomeNone}
}

// lookup returns candidate preview URLs from the catalog: by ISRC through the
// direct endpoint then search, then by normalized artist and title.
func (r *Resolver) lookup(ctx context.Context, track *core.Track) []string {
	if track.ISRC != "" {
		preview, err := r.catalog.TrackByISRC(ctx, track.ISRC)
		if err == nil {
			return []string{preview}
		}
		r.logger.Debug("ISRC lookup missed", zap.String("isrc", track.ISRC), zap.Error(err))

		if previews, err := r.catalog.Search(ctx, "isrc:"+track.ISRC, 1); err == nil && len(previews) > 0 {
			return previews[:1]
		}
	}

	artist, ok := track.PrimaryArtist()
	if !ok || track.Name == "" || ctx.Err() != nil {
		return nil
	}

	previews, err := r.catalog.Search(ctx, r.normalizer.SearchQuery(artist.Name, track.Name), SearchLimit)
	if err != nil {
		r.logger.Debug("Catalog search failed", zap.String("track", track.Name), zap.Error(err))
		return nil
	}
	if len(previews) == 0 {
		return nil
	}
	return previews[:1]
}

// validate checks rawURL and, on failure, one alternate CDN host.
// It returns the URL that answered.
func (r *Resolver) validate(ctx context.Context, rawURL string) (string, bool) {
	if r.head(ctx, rawURL) {
		return rawURL, true
	}
	if alt, ok := swapHost(rawURL); ok && r.head(ctx, alt) {
		return alt, true
	}
	return "", false
}

func (r *Resolver) head(ctx context.Context, rawURL string) bool {
	if _, ok := r.validated.Get(rawURL); ok {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Range", "bytes=0-")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Debug("Preview HEAD failed", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	_ = resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if ok {
		r.validated.Add(rawURL, struct{}{})
	}
	return ok
}

func (r *Resolver) waveform(ctx context.Context, ticket Ticket, key, previewURL string) []float32 {
	if r.waveforms != nil {
		if samples, ok := r.waveforms.Get(key); ok {
			return samples
		}
	}
	if r.provider == nil {
		return nil
	}

	samples, err := r.provider.Waveform(ctx, key, previewURL)
	if err != nil {
		r.logger.Debug("Waveform unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}
	if len(samples) > 0 && r.waveforms != nil && r.Current(ticket) {
		r.waveforms.Put(key, samples)
	}
	return samples
}

func upgradeScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") {
		return "https://" + strings.TrimPrefix(rawURL, "http://")
	}
	return rawURL
}

// swapHost replaces the CDN host variant with the next one in hostVariants.
func swapHost(rawURL string) (string, bool) {
	for i, variant := range hostVariants {
		marker := "://" + variant
		if strings.Contains(rawURL, marker) {
			next := hostVariants[(i+1)%len(hostVariants)]
			return strings.Replace(rawURL, marker, "://"+next, 1), true
		}
	}
	return "", false
}
