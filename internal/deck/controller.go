// Package deck turns paged Spotify listings into a swipeable deck: ranking,
// top-up, swipe commits, undo and revert of removals.
package deck

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swipesort/internal/core"
	"swipesort/internal/dedup"
	"swipesort/internal/paging"
	"swipesort/internal/preview"
	"swipesort/internal/ranking"
	"swipesort/internal/store"
)

var (
	// ErrNoCard is returned when there is no card left to swipe
	ErrNoCard = errors.New("no card to swipe")
	// ErrPlaylistNotFound is returned when a playlist is not in the user's catalog
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrPlaylistNotSortable is returned for playlists the user does not own or that are empty
	ErrPlaylistNotSortable = errors.New("playlist is not sortable")
	// ErrNoPreviewResolver is returned when previews are requested without a resolver
	ErrNoPreviewResolver = errors.New("preview resolution is not configured")
)

// Service is the remote API the controller drives.
type Service interface {
	SavedPager
	PlaylistSource
	MetadataSource
	FetchUser(ctx context.Context) (*core.User, error)
	FetchPlaylists(ctx context.Context) ([]core.Playlist, error)
	UnsaveTracks(ctx context.Context, ids []string) error
	SaveTracks(ctx context.Context, ids []string) error
	RemoveTracks(ctx context.Context, playlistID string, uris []string) error
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// PreviewResolver resolves preview clips under per-card tickets.
type PreviewResolver interface {
	Begin() preview.Ticket
	Cancel()
	Resolve(ctx context.Context, ticket preview.Ticket, track *core.Track) (preview.Result, bool)
}

// Dependencies are the collaborators of a Controller. Previews, Effects and
// Recorder are optional.
type Dependencies struct {
	Service  Service
	Reviewed *store.ReviewedSetStore
	History  *store.HistoryStore
	Metadata *store.MetadataCache
	Previews PreviewResolver
	Effects  core.Effects
	Recorder core.Recorder
	Logger   *zap.Logger
	// Seed fixes the session shuffle; a random seed is drawn when empty.
	Seed string
}

// SwipeResult describes a committed swipe.
type SwipeResult struct {
	Item      core.ListingItem   `json:"item"`
	Direction core.Direction     `json:"direction"`
	Removal   *core.RemovalEntry `json:"removal,omitempty"`
}

// Card is a deck item enriched with cached metadata.
type Card struct {
	Item       core.ListingItem `json:"item"`
	ShareURL   string           `json:"shareUrl,omitempty"`
	Duplicate  bool             `json:"duplicate"`
	Popularity *int             `json:"popularity,omitempty"`
	Genres     []string         `json:"genres,omitempty"`
}

// State is a snapshot of the controller.
type State struct {
	Mode       string         `json:"mode"`
	Playlist   *core.Playlist `json:"playlist,omitempty"`
	Engine     EngineState    `json:"engine"`
	TopIndex   int            `json:"topIndex"`
	DeckSize   int            `json:"deckSize"`
	Current    *Card          `json:"current,omitempty"`
	Upcoming   []Card         `json:"upcoming"`
	Loading    bool           `json:"loading"`
	HasMore    bool           `json:"hasMore"`
	Complete   bool           `json:"complete"`
	Failed     bool           `json:"failed"`
	LastError  error          `json:"-"`
	Duplicates []string       `json:"duplicates"`
}

// Controller is the mode-agnostic deck facade used by hosts.
type Controller struct {
	service    Service
	reviewed   *store.ReviewedSetStore
	history    *store.HistoryStore
	metadata   *store.MetadataCache
	previews   PreviewResolver
	prefetcher *Prefetcher
	effects    core.Effects
	recorder   core.Recorder
	config     core.DeckConfig
	seed       string
	logger     *zap.Logger
	now        func() time.Time

	root      context.Context
	closeRoot context.CancelFunc
	wg        sync.WaitGroup

	// swipes holds the whole swipe sequence so commits apply in issue order.
	swipes sync.Mutex

	mutex       sync.Mutex
	generation  uint64
	loadCtx     context.Context
	cancelLoad  context.CancelFunc
	mode        core.Mode
	user        *core.User
	playlists   []core.Playlist
	reviewedIDs ranking.ReviewedSet
	liked       *LikedEngine
	playlist    *PlaylistEngine
	deck        []core.ListingItem
	deckLimit   int
	topIndex    int
	loading     bool
	hasMore     bool
	duplicates  dedup.Set
	lastError   error
	// pagingError is the background paging failure currently held in lastError
	pagingError error
}

func NewController(config core.DeckConfig, deps Dependencies) *Controller {
	if config.PageSize <= 0 {
		config.PageSize = core.DefaultDeckPageSize
	}
	if config.TopUpThreshold < 0 {
		config.TopUpThreshold = core.DefaultTopUpThreshold
	}
	seed := deps.Seed
	if seed == "" {
		seed = uuid.NewString()
	}
	effects := deps.Effects
	if effects == nil {
		effects = core.NopEffects{}
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = core.NopRecorder{}
	}

	root, cancel := context.WithCancel(context.Background())
	return &Controller{
		service:     deps.Service,
		reviewed:    deps.Reviewed,
		history:     deps.History,
		metadata:    deps.Metadata,
		previews:    deps.Previews,
		prefetcher:  NewPrefetcher(deps.Service, deps.Metadata, deps.Logger.Named("prefetch")),
		effects:     effects,
		recorder:    recorder,
		config:      config,
		seed:        seed,
		logger:      deps.Logger,
		now:         time.Now,
		root:        root,
		closeRoot:   cancel,
		mode:        core.SavedMode(),
		reviewedIDs: ranking.NewReviewedSet(),
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() core.Mode {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.mode
}

// SetMode switches lists. Any in-flight load is abandoned and the deck is cleared.
func (c *Controller) SetMode(mode core.Mode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.generation++
	c.mode = mode
	c.resetDeckLocked()
	c.loading = false
	c.lastError = nil
	c.pagingError = nil
	c.cancelPreview()
	c.logger.Info("Mode changed", zap.String("mode", mode.String()))
}

// SelectPlaylist switches to playlist mode for one of the user's sortable playlists.
func (c *Controller) SelectPlaylist(ctx context.Context, playlistID string) (core.Playlist, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return core.Playlist{}, err
	}

	c.mutex.Lock()
	userID := c.user.ID
	idx := slices.IndexFunc(c.playlists, func(p core.Playlist) bool { return p.ID == playlistID })
	var playlist core.Playlist
	if idx >= 0 {
		playlist = c.playlists[idx]
	}
	c.mutex.Unlock()

	if idx < 0 {
		return core.Playlist{}, fmt.Errorf("%w: %s", ErrPlaylistNotFound, playlistID)
	}
	if !playlist.Sortable(userID) {
		return core.Playlist{}, fmt.Errorf("%w: %s", ErrPlaylistNotSortable, playlist.Name)
	}

	c.SetMode(core.PlaylistMode(playlist))
	return playlist, nil
}

func (c *Controller) resetDeckLocked() {
	c.liked = nil
	c.playlist = nil
	c.deck = nil
	c.deckLimit = 0
	c.topIndex = 0
	c.hasMore = false
	c.duplicates = nil
	c.reviewedIDs = ranking.NewReviewedSet()
}

// Load fetches the user catalog if needed, then builds the deck for the current mode.
// A newer Load, SetMode, Abort or cancellation of ctx abandons it without
// touching the deck.
func (c *Controller) Load(ctx context.Context) error {
	c.mutex.Lock()
	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	loadCtx, cancel := context.WithCancel(c.root)
	c.loadCtx = loadCtx
	c.cancelLoad = cancel
	c.generation++
	gen := c.generation
	mode := c.mode
	c.resetDeckLocked()
	c.loading = true
	c.lastError = nil
	c.pagingError = nil
	c.mutex.Unlock()

	c.cancelPreview()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	logger := c.logger.With(zap.String("mode", mode.String()))
	logger.Info("Loading deck")

	if err := c.ensureCatalog(loadCtx); err != nil {
		return c.failLoad(gen, err)
	}

	reviewed := ranking.ReviewedSet(c.reviewed.Load(loadCtx, mode.ListKey()))

	switch mode.Kind {
	case core.ModeSaved:
		engine := NewLikedEngine(recordingSource{c.service, c.recorder}, c.seed, c.config, func() { c.onSavedMerge(gen) }, logger.Named("liked"))
		if err := engine.WarmStart(loadCtx, reviewed); err != nil {
			return c.failLoad(gen, err)
		}

		c.mutex.Lock()
		if gen != c.generation {
			c.mutex.Unlock()
			return context.Canceled
		}
		c.liked = engine
		c.reviewedIDs = reviewed
		c.deckLimit = c.config.PageSize
		c.refreshSavedDeckLocked()
		c.loading = false
		c.mutex.Unlock()

		c.startBackground(loadCtx, engine, gen)

	case core.ModePlaylist:
		engine := NewPlaylistEngine(recordingSource{c.service, c.recorder}, *mode.Playlist, c.seed,
			func(set dedup.Set) { c.onDuplicates(gen, set) }, logger.Named("playlist"))
		if err := engine.Load(loadCtx, reviewed); err != nil {
			return c.failLoad(gen, err)
		}

		c.mutex.Lock()
		if gen != c.generation {
			c.mutex.Unlock()
			return context.Canceled
		}
		c.playlist = engine
		c.reviewedIDs = reviewed
		c.deck = engine.Page(0, c.config.PageSize)
		c.deckLimit = len(c.deck)
		c.hasMore = engine.HasMore(len(c.deck))
		c.loading = false
		c.mutex.Unlock()
	}

	c.afterDeckChange()
	logger.Info("Deck ready", zap.Int("deckSize", c.deckSize()))
	return nil
}

func (c *Controller) failLoad(gen uint64, err error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if gen != c.generation {
		return context.Canceled
	}
	c.loading = false
	if errors.Is(err, context.Canceled) {
		return err
	}
	c.lastError = err
	c.logger.Warn("Deck load failed", zap.Error(err))
	return err
}

// Abort abandons an in-flight load. It is a no-op once loading has finished.
func (c *Controller) Abort() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.loading {
		return
	}
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.generation++
	c.loading = false
	c.logger.Info("Deck load aborted")
}

func (c *Controller) ensureCatalog(ctx context.Context) error {
	c.mutex.Lock()
	ready := c.user != nil
	c.mutex.Unlock()
	if ready {
		return nil
	}

	var (
		user      *core.User
		playlists []core.Playlist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = c.service.FetchUser(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		playlists, err = c.service.FetchPlaylists(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	c.mutex.Lock()
	c.user = user
	c.playlists = playlists
	c.mutex.Unlock()
	c.logger.Info("Catalog loaded", zap.String("user", user.ID), zap.Int("playlists", len(playlists)))
	return nil
}

// User returns the current user, fetching the catalog if needed.
func (c *Controller) User(ctx context.Context) (core.User, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return core.User{}, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return *c.user, nil
}

// SortablePlaylists returns the playlists the user owns that have tracks.
func (c *Controller) SortablePlaylists(ctx context.Context) ([]core.Playlist, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	var out []core.Playlist
	for i := range c.playlists {
		if c.playlists[i].Sortable(c.user.ID) {
			out = append(out, c.playlists[i])
		}
	}
	return out, nil
}

func (c *Controller) startBackground(ctx context.Context, engine *LikedEngine, gen uint64) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := engine.BackgroundFetchRemaining(ctx)

		c.mutex.Lock()
		defer c.mutex.Unlock()
		if gen != c.generation || c.liked != engine {
			return
		}
		c.hasMore = engine.HasMore(len(c.deck))
		switch {
		case err == nil:
			if c.lastError != nil && c.lastError == c.pagingError {
				c.lastError = nil
			}
			c.pagingError = nil
		case !errors.Is(err, context.Canceled):
			c.lastError = err
			c.pagingError = err
		}
	}()
}

func (c *Controller) onSavedMerge(gen uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if gen != c.generation || c.liked == nil {
		return
	}
	c.refreshSavedDeckLocked()
}

func (c *Controller) onDuplicates(gen uint64, set dedup.Set) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if gen != c.generation {
		return
	}
	c.duplicates = set
}

// refreshSavedDeckLocked re-anchors the deck on the engine's current order.
// Consumed cards keep their positions; the rest is the ordered list minus
// those cards, so with nothing consumed the deck is exactly the ordered prefix.
func (c *Controller) refreshSavedDeckLocked() {
	ordered := c.liked.Ordered()
	consumed := c.deck[:c.topIndex]

	var previousCurrent string
	if c.topIndex < len(c.deck) {
		previousCurrent = itemKey(&c.deck[c.topIndex])
	}

	target := max(min(c.deckLimit, len(ordered)), len(consumed))
	skip := make(map[string]struct{}, len(consumed))
	next := make([]core.ListingItem, 0, target)
	for i := range consumed {
		skip[itemKey(&consumed[i])] = struct{}{}
		next = append(next, consumed[i])
	}
	for i := range ordered {
		if len(next) >= target {
			break
		}
		if _, ok := skip[itemKey(&ordered[i])]; ok {
			continue
		}
		next = append(next, ordered[i])
	}

	c.deck = next
	c.hasMore = c.liked.HasMore(len(next))
	c.recorder.SetDeckSize(len(next))

	if c.topIndex < len(next) && itemKey(&next[c.topIndex]) != previousCurrent {
		c.cancelPreview()
	}
}

// Swipe consumes the current card. A left swipe removes the track remotely and
// records it in history; when that mutation fails the card is still consumed,
// no history entry is written and the error is returned.
func (c *Controller) Swipe(ctx context.Context, direction core.Direction) (SwipeResult, error) {
	c.swipes.Lock()
	defer c.swipes.Unlock()

	c.mutex.Lock()
	if c.topIndex >= len(c.deck) {
		c.mutex.Unlock()
		return SwipeResult{}, ErrNoCard
	}
	item := c.deck[c.topIndex]
	mode := c.mode
	gen := c.generation
	reviewID := mode.ReviewID(&item.Track)
	if reviewID == "" {
		reviewID = ranking.Identifier(&item)
	}
	c.reviewedIDs[reviewID] = struct{}{}
	c.mutex.Unlock()

	c.reviewed.Add(ctx, mode.ListKey(), reviewID)

	result := SwipeResult{Item: item, Direction: direction}
	var mutationErr error
	if direction == core.SwipeLeft {
		result.Removal, mutationErr = c.commitRemoval(ctx, mode, &item.Track)
	}

	c.mutex.Lock()
	if gen == c.generation && c.topIndex < len(c.deck) && itemKey(&c.deck[c.topIndex]) == itemKey(&item) {
		c.topIndex++
		if mutationErr != nil {
			c.lastError = mutationErr
		}
		c.topUpLocked()
	}
	c.mutex.Unlock()

	style := core.HapticLight
	if direction == core.SwipeLeft {
		style = core.HapticMedium
	}
	c.effects.Impact(style)
	c.recorder.RecordSwipe(mode.String(), direction)
	c.cancelPreview()
	c.afterDeckChange()

	c.logger.Debug("Swiped",
		zap.String("direction", direction.String()),
		zap.String("track", item.Track.Name),
		zap.Bool("removed", result.Removal != nil))
	return result, mutationErr
}

func (c *Controller) commitRemoval(ctx context.Context, mode core.Mode, track *core.Track) (*core.RemovalEntry, error) {
	entry := core.RemovalEntry{
		ID:         uuid.NewString(),
		Timestamp:  c.now().UTC(),
		TrackID:    track.ID,
		TrackURI:   track.URI,
		TrackName:  track.Name,
		Artists:    track.ArtistNames(),
		AlbumName:  track.Album.Name,
		ArtworkURL: track.ArtworkURL(),
	}

	switch mode.Kind {
	case core.ModeSaved:
		if track.ID == "" {
			return nil, nil
		}
		if err := c.service.UnsaveTracks(ctx, []string{track.ID}); err != nil {
			c.recorder.RecordMutationError("unsave")
			c.logger.Warn("Failed to unsave track", zap.String("trackID", track.ID), zap.Error(err))
			return nil, err
		}
		entry.Source = core.SourceSaved

	case core.ModePlaylist:
		if track.URI == "" {
			return nil, nil
		}
		if err := c.service.RemoveTracks(ctx, mode.Playlist.ID, []string{track.URI}); err != nil {
			c.recorder.RecordMutationError("remove")
			c.logger.Warn("Failed to remove track from playlist",
				zap.String("playlistID", mode.Playlist.ID), zap.String("trackURI", track.URI), zap.Error(err))
			return nil, err
		}
		entry.Source = core.SourcePlaylist
		entry.PlaylistID = mode.Playlist.ID
		entry.PlaylistName = mode.Playlist.Name
	}

	c.history.Add(entry)
	c.recorder.RecordRemoval(entry.Source)
	return &entry, nil
}

// topUpLocked extends the deck when few cards remain.
func (c *Controller) topUpLocked() {
	if !paging.ShouldTopUp(c.topIndex, len(c.deck), c.config.TopUpThreshold) {
		return
	}

	switch {
	case c.liked != nil:
		c.deckLimit = max(c.deckLimit, len(c.deck)+c.config.PageSize)
		c.refreshSavedDeckLocked()
		if c.liked.CanResume() {
			c.logger.Info("Re-driving paused background paging")
			c.startBackground(c.loadCtx, c.liked, c.generation)
		}
	case c.playlist != nil:
		page := c.playlist.Page(len(c.deck), c.config.PageSize)
		c.deck = append(c.deck, page...)
		c.deckLimit = len(c.deck)
		c.hasMore = c.playlist.HasMore(len(c.deck))
		c.recorder.SetDeckSize(len(c.deck))
	}
}

// Undo rewinds one card. It does not touch reviewed sets or committed removals.
func (c *Controller) Undo() bool {
	c.swipes.Lock()
	defer c.swipes.Unlock()

	c.mutex.Lock()
	undone := c.topIndex > 0
	if undone {
		c.topIndex--
	}
	c.mutex.Unlock()

	if undone {
		c.cancelPreview()
	}
	return undone
}

// IsDuplicate reports whether item's track occurs more than once in the current playlist.
func (c *Controller) IsDuplicate(item *core.ListingItem) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.duplicates.Has(item.Track.ID)
}

// Current returns the card on top of the deck.
func (c *Controller) Current() (core.ListingItem, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.topIndex >= len(c.deck) {
		return core.ListingItem{}, false
	}
	return c.deck[c.topIndex], true
}

// ResolveCurrentPreview resolves the preview of the current card. The boolean is
// false when the card changed before resolution finished.
func (c *Controller) ResolveCurrentPreview(ctx context.Context) (preview.Result, bool, error) {
	if c.previews == nil {
		return preview.Result{}, false, ErrNoPreviewResolver
	}
	item, ok := c.Current()
	if !ok {
		return preview.Result{}, false, ErrNoCard
	}

	ticket := c.previews.Begin()
	result, current := c.previews.Resolve(ctx, ticket, &item.Track)
	return result, current, nil
}

func (c *Controller) cancelPreview() {
	if c.previews != nil {
		c.previews.Cancel()
	}
}

// State returns a snapshot of the deck. upcoming bounds the number of cards
// listed after the current one.
func (c *Controller) State(upcoming int) State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s := State{
		Mode:       c.mode.String(),
		Playlist:   c.mode.Playlist,
		Engine:     StateFresh,
		TopIndex:   c.topIndex,
		DeckSize:   len(c.deck),
		Loading:    c.loading,
		HasMore:    c.hasMore,
		LastError:  c.lastError,
		Duplicates: make([]string, 0, len(c.duplicates)),
	}
	s.Complete = !c.loading && c.topIndex >= len(c.deck) && !c.hasMore
	s.Failed = c.lastError != nil

	switch {
	case c.liked != nil:
		s.Engine = c.liked.State()
	case c.playlist != nil:
		s.Engine = StateComplete
	}

	for id := range c.duplicates {
		s.Duplicates = append(s.Duplicates, id)
	}
	slices.Sort(s.Duplicates)

	if c.topIndex < len(c.deck) {
		card := c.cardLocked(c.deck[c.topIndex])
		s.Current = &card
	}
	end := min(len(c.deck), c.topIndex+1+max(upcoming, 0))
	for i := c.topIndex + 1; i < end; i++ {
		s.Upcoming = append(s.Upcoming, c.cardLocked(c.deck[i]))
	}
	return s
}

func (c *Controller) cardLocked(item core.ListingItem) Card {
	card := Card{
		Item:       item,
		ShareURL:   item.Track.ShareURL(),
		Duplicate:  c.duplicates.Has(item.Track.ID),
		Popularity: item.Track.Popularity,
	}
	if card.Popularity == nil && item.Track.ID != "" {
		if p, ok := c.metadata.Popularity(item.Track.ID); ok {
			card.Popularity = &p
		}
	}
	if artist, ok := item.Track.PrimaryArtist(); ok && artist.ID != "" {
		card.Genres, _ = c.metadata.Genres(artist.ID)
	}
	return card
}

// itemKey identifies a listing item within one session.
func itemKey(item *core.ListingItem) string {
	if item.SessionID != "" {
		return item.SessionID
	}
	return ranking.Identifier(item)
}

func (c *Controller) deckSize() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.deck)
}

// afterDeckChange publishes the deck size and prefetches metadata for the visible window.
func (c *Controller) afterDeckChange() {
	c.mutex.Lock()
	size := len(c.deck)
	end := min(len(c.deck), c.topIndex+c.config.PageSize)
	var visible []core.Track
	for i := c.topIndex; i < end; i++ {
		visible = append(visible, c.deck[i].Track)
	}
	c.mutex.Unlock()

	c.recorder.SetDeckSize(size)
	if len(visible) == 0 || c.root.Err() != nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.prefetcher.Prefetch(c.root, visible)
	}()
}

// Flush writes reviewed sets, history and the metadata cache immediately.
func (c *Controller) Flush(ctx context.Context) {
	c.reviewed.Flush(ctx)
	c.history.Flush(ctx)
	c.metadata.Flush(ctx)
}

// Close stops background work and waits for it to finish.
func (c *Controller) Close() {
	c.closeRoot()
	c.mutex.Lock()
	if c.cancelLoad != nil {
		c.cancelLoad()
	}
	c.mutex.Unlock()
	c.wg.Wait()
}

// recordingSource counts fetched listing pages.
type recordingSource struct {
	service  Service
	recorder core.Recorder
}

func (r recordingSource) FetchSavedTracksPage(ctx context.Context, cursor string) ([]core.ListingItem, string, error) {
	items, next, err := r.service.FetchSavedTracksPage(ctx, cursor)
	if err == nil {
		r.recorder.RecordPageFetched("saved", len(items))
	}
	return items, next, err
}

func (r recordingSource) FetchAllPlaylistTracks(ctx context.Context, playlistID string) ([]core.ListingItem, error) {
	items, err := r.service.FetchAllPlaylistTracks(ctx, playlistID)
	if err == nil {
		r.recorder.RecordPageFetched("playlist", len(items))
	}
	return items, err
}
