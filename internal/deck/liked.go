package deck

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/paging"
	"swipesort/internal/ranking"
)

// DefaultRateLimitBackoff applies when a 429 carries no Retry-After
const DefaultRateLimitBackoff = 30 * time.Second

// EngineState is the lifecycle phase of a deck engine
type EngineState string

const (
	// StateFresh is before any fetch
	StateFresh EngineState = "fresh"
	// StateWarming is the foreground warm-start loop
	StateWarming EngineState = "warming"
	// StateReady means enough items are available to start swiping
	StateReady EngineState = "ready"
	// StateStreaming means background pages are still arriving
	StateStreaming EngineState = "streaming"
	// StatePaused means background paging stopped on a remote failure and can be re-driven
	StatePaused EngineState = "paused"
	// StateComplete means the remote listing is exhausted
	StateComplete EngineState = "complete"
)

// SavedPager reads the saved-tracks listing one page at a time.
type SavedPager interface {
	FetchSavedTracksPage(ctx context.Context, cursor string) ([]core.ListingItem, string, error)
}

// LikedEngine orders the saved-tracks listing while it is still being paged in.
// Every merge re-sorts the whole list, so the deck is always read as a prefix.
type LikedEngine struct {
	source     SavedPager
	seed       string
	warmTarget int
	pacing     time.Duration
	onMerge    func()
	logger     *zap.Logger

	mutex    sync.Mutex
	reviewed ranking.ReviewedSet
	all      []core.ListingItem
	ordered  []core.ListingItem
	cursor   string
	started  bool
	fetching bool
	state    EngineState
	err      error
	// resumeAt is the earliest time paused paging may be re-driven
	resumeAt time.Time
	now      func() time.Time
}

// NewLikedEngine creates an engine. onMerge, if set, runs after every background merge.
func NewLikedEngine(source SavedPager, seed string, config core.DeckConfig, onMerge func(), logger *zap.Logger) *LikedEngine {
	warmTarget := config.WarmStartTarget
	if warmTarget <= 0 {
		warmTarget = core.DefaultWarmStartTarget
	}
	return &LikedEngine{
		source:     source,
		seed:       seed,
		warmTarget: warmTarget,
		pacing:     config.BackgroundPacing,
		onMerge:    onMerge,
		logger:     logger,
		state:      StateFresh,
		now:        time.Now,
	}
}

// WarmStart fetches pages until the warm-start target is reached or the listing ends.
// The reviewed set is captured here and used for every later re-sort.
func (e *LikedEngine) WarmStart(ctx context.Context, reviewed ranking.ReviewedSet) error {
	e.mutex.Lock()
	e.reviewed = make(ranking.ReviewedSet, len(reviewed))
	for id := range reviewed {
		e.reviewed[id] = struct{}{}
	}
	e.state = StateWarming
	e.mutex.Unlock()

	for {
		e.mutex.Lock()
		enough := len(e.all) >= e.warmTarget
		done := e.started && e.cursor == ""
		e.mutex.Unlock()
		if enough || done {
			break
		}

		if _, err := e.fetchNext(ctx); err != nil {
			e.mutex.Lock()
			e.err = err
			e.state = StateFresh
			e.mutex.Unlock()
			return err
		}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.cursor == "" {
		e.state = StateComplete
	} else {
		e.state = StateReady
	}
	e.logger.Info("Warm start finished",
		zap.Int("items", len(e.ordered)),
		zap.Bool("complete", e.state == StateComplete))
	return nil
}

// BackgroundFetchRemaining pages in the rest of the listing with a pacing delay
// between pages. It returns the failure that paused paging, if any.
func (e *LikedEngine) BackgroundFetchRemaining(ctx context.Context) error {
	e.mutex.Lock()
	if e.fetching || e.state == StateComplete || e.state == StateFresh || e.state == StateWarming {
		e.mutex.Unlock()
		return nil
	}
	e.fetching = true
	e.state = StateStreaming
	e.err = nil
	e.mutex.Unlock()

	defer func() {
		e.mutex.Lock()
		e.fetching = false
		e.mutex.Unlock()
	}()

	for {
		if e.pacing > 0 {
			timer := time.NewTimer(e.pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				e.pause(ctx.Err())
				return ctx.Err()
			case <-timer.C:
			}
		}

		more, err := e.fetchNext(ctx)
		if err != nil {
			e.pause(err)
			e.logger.Warn("Background paging paused", zap.Error(err))
			return err
		}
		if e.onMerge != nil {
			e.onMerge()
		}
		if !more {
			e.mutex.Lock()
			e.state = StateComplete
			total := len(e.ordered)
			e.mutex.Unlock()
			e.logger.Info("Saved tracks fully loaded", zap.Int("items", total))
			return nil
		}
	}
}

func (e *LikedEngine) pause(err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.state = StatePaused
	e.err = err
	e.resumeAt = time.Time{}

	if errors.Is(err, core.ErrTooManyRequests) {
		backoff := DefaultRateLimitBackoff
		var apiErr *core.APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			backoff = apiErr.RetryAfter
		}
		e.resumeAt = e.now().Add(backoff)
	}
}

// CanResume reports whether paused paging may be re-driven now. Auth failures
// never resume on their own; rate limits wait out their Retry-After.
func (e *LikedEngine) CanResume() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.state != StatePaused || core.IsAuth(e.err) {
		return false
	}
	return !e.now().Before(e.resumeAt)
}

// fetchNext fetches and merges one page. It reports whether more pages remain.
func (e *LikedEngine) fetchNext(ctx context.Context) (bool, error) {
	e.mutex.Lock()
	cursor := e.cursor
	e.mutex.Unlock()

	items, next, err := e.source.FetchSavedTracksPage(ctx, cursor)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		if !errors.Is(err, core.ErrDecode) {
			return false, err
		}
		// the page is lost but its cursor still leads on
		e.logger.Warn("Discarding malformed saved tracks page",
			zap.Bool("more", next != ""),
			zap.Error(err))
		items = nil
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.started = true
	e.cursor = next
	e.all = append(e.all, items...)
	e.ordered = ranking.Sort(e.all, e.reviewed, e.seed)
	e.logger.Debug("Merged saved tracks page",
		zap.Int("pageItems", len(items)),
		zap.Int("total", len(e.ordered)),
		zap.Bool("more", next != ""))
	return next != "", nil
}

// Prefix returns ordered[:min(cursor+pageSize, len)].
func (e *LikedEngine) Prefix(cursor, pageSize int) []core.ListingItem {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	end := min(cursor+pageSize, len(e.ordered))
	if end <= 0 {
		return nil
	}
	out := make([]core.ListingItem, end)
	copy(out, e.ordered[:end])
	return out
}

// Ordered returns a copy of the full ordered list.
func (e *LikedEngine) Ordered() []core.ListingItem {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return append([]core.ListingItem(nil), e.ordered...)
}

// HasMore reports whether items beyond cursor exist locally or remotely.
func (e *LikedEngine) HasMore(cursor int) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return paging.HasMore(cursor, len(e.ordered), e.state == StateComplete)
}

func (e *LikedEngine) State() EngineState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.state
}

// Err returns the failure that last stopped paging.
func (e *LikedEngine) Err() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.err
}

// Len returns the number of items merged so far.
func (e *LikedEngine) Len() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return len(e.ordered)
}
