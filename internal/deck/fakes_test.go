package deck

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"swipesort/internal/core"
	"swipesort/internal/store"
)

type fakeService struct {
	mutex sync.Mutex

	user      core.User
	playlists []core.Playlist

	savedPages     [][]core.ListingItem
	pageErrors     map[int]error
	blockPages     bool
	pageCalls      int
	playlistTracks map[string][]core.ListingItem

	mutationErr error
	saveErrs    map[int]error
	saveCalls   int
	unsaved     [][]string
	saved       [][]string
	removed     map[string][][]string
	added       map[string][][]string

	genres     map[string][]string
	popularity map[string]int
	genreCalls [][]string
	popCalls   [][]string
}

func newFakeService() *fakeService {
	return &fakeService{
		user:           core.User{ID: "me"},
		pageErrors:     make(map[int]error),
		saveErrs:       make(map[int]error),
		playlistTracks: make(map[string][]core.ListingItem),
		removed:        make(map[string][][]string),
		added:          make(map[string][][]string),
		genres:         make(map[string][]string),
		popularity:     make(map[string]int),
	}
}

func (f *fakeService) FetchUser(context.Context) (*core.User, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	u := f.user
	return &u, nil
}

func (f *fakeService) FetchPlaylists(context.Context) ([]core.Playlist, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]core.Playlist(nil), f.playlists...), nil
}

func (f *fakeService) FetchSavedTracksPage(ctx context.Context, cursor string) ([]core.ListingItem, string, error) {
	f.mutex.Lock()
	block := f.blockPages
	f.mutex.Unlock()
	if block {
		<-ctx.Done()
		return nil, "", ctx.Err()
	}

	index := 0
	if cursor != "" {
		index, _ = strconv.Atoi(strings.TrimPrefix(cursor, "page-"))
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.pageCalls++
	next := ""
	if index+1 < len(f.savedPages) {
		next = fmt.Sprintf("page-%d", index+1)
	}
	// like the client, a page error still reports the cursor that follows it
	if err := f.pageErrors[index]; err != nil {
		return nil, next, err
	}
	if index >= len(f.savedPages) {
		return nil, "", nil
	}
	return append([]core.ListingItem(nil), f.savedPages[index]...), next, nil
}

func (f *fakeService) pageCallCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.pageCalls
}

func (f *fakeService) FetchAllPlaylistTracks(_ context.Context, playlistID string) ([]core.ListingItem, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]core.ListingItem(nil), f.playlistTracks[playlistID]...), nil
}

func (f *fakeService) UnsaveTracks(_ context.Context, ids []string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.unsaved = append(f.unsaved, ids)
	return nil
}

func (f *fakeService) SaveTracks(_ context.Context, ids []string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	call := f.saveCalls
	f.saveCalls++
	if err := f.saveErrs[call]; err != nil {
		return err
	}
	f.saved = append(f.saved, ids)
	return nil
}

func (f *fakeService) RemoveTracks(_ context.Context, playlistID string, uris []string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.removed[playlistID] = append(f.removed[playlistID], uris)
	return nil
}

func (f *fakeService) AddTracks(_ context.Context, playlistID string, uris []string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.added[playlistID] = append(f.added[playlistID], uris)
	return nil
}

func (f *fakeService) FetchArtistGenres(_ context.Context, ids []string) (map[string][]string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.genreCalls = append(f.genreCalls, ids)
	out := make(map[string][]string)
	for _, id := range ids {
		if g, ok := f.genres[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

func (f *fakeService) FetchTrackPopularity(_ context.Context, ids []string) (map[string]int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.popCalls = append(f.popCalls, ids)
	out := make(map[string]int)
	for _, id := range ids {
		if p, ok := f.popularity[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeService) setMutationErr(err error) {
	f.mutex.Lock()
	f.mutationErr = err
	f.mutex.Unlock()
}

type fakeEffects struct {
	mutex   sync.Mutex
	impacts []core.HapticStyle
}

func (f *fakeEffects) Impact(style core.HapticStyle) {
	f.mutex.Lock()
	f.impacts = append(f.impacts, style)
	f.mutex.Unlock()
}

func (f *fakeEffects) Toast(string, time.Duration) {}

func listing(ids ...string) []core.ListingItem {
	out := make([]core.ListingItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.ListingItem{
			SessionID: "s-" + id,
			Track: core.Track{
				ID:      id,
				URI:     core.TrackURIPrefix + id,
				Name:    "Track " + id,
				Artists: []core.Artist{{ID: "artist-" + id, Name: "Artist " + id}},
				Album:   core.Album{Name: "Album " + id},
			},
		})
	}
	return out
}

func trackIDs(items []core.ListingItem) []string {
	out := make([]string, 0, len(items))
	for i := range items {
		out = append(out, items[i].Track.ID)
	}
	return out
}

type harness struct {
	service    *fakeService
	effects    *fakeEffects
	kv         *store.MemoryKV
	reviewed   *store.ReviewedSetStore
	history    *store.HistoryStore
	metadata   *store.MetadataCache
	controller *Controller
}

func newHarness(t *testing.T, config core.DeckConfig) *harness {
	t.Helper()
	ctx := context.Background()
	h := &harness{
		service: newFakeService(),
		effects: &fakeEffects{},
		kv:      store.NewMemoryKV(),
	}
	h.reviewed = store.NewReviewedSetStore(h.kv, zap.NewNop(), store.WithDebounce(time.Hour))
	h.history = store.NewHistoryStore(ctx, h.kv, zap.NewNop(), store.WithDebounce(time.Hour))
	h.metadata = store.NewMetadataCache(ctx, h.kv, zap.NewNop(), store.WithDebounce(time.Hour))
	h.controller = NewController(config, Dependencies{
		Service:  h.service,
		Reviewed: h.reviewed,
		History:  h.history,
		Metadata: h.metadata,
		Effects:  h.effects,
		Logger:   zap.NewNop(),
		Seed:     "seed-A",
	})
	t.Cleanup(h.controller.Close)
	return h
}

func deckConfig() core.DeckConfig {
	return core.DeckConfig{
		WarmStartTarget: 100,
		PageSize:        20,
		TopUpThreshold:  5,
	}
}
