package dedup

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"swipesort/internal/core"
)

func listing(ids ...string) []core.ListingItem {
	out := make([]core.ListingItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.ListingItem{Track: core.Track{ID: id, Name: "n"}})
	}
	return out
}

func keys(s Set) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestDetect_PlaylistListing(t *testing.T) {
	dups := Detect(listing("1", "2", "1", "3", "2", "2"))

	if got := keys(dups); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Detect() = %v, want [1 2]", got)
	}
}

func TestDetect_IgnoresMissingIDs(t *testing.T) {
	items := listing("", "", "a")
	items = append(items, core.ListingItem{Track: core.Track{URI: "spotify:local:x", Name: "x"}})

	if dups := Detect(items); len(dups) != 0 {
		t.Errorf("Detect() = %v, want empty", keys(dups))
	}
}

func TestDetect_MatchesCountDefinition(t *testing.T) {
	var ids []string
	for i := 0; i < 3000; i++ {
		ids = append(ids, fmt.Sprintf("t%d", i%1700))
	}

	counts := map[string]int{}
	for _, id := range ids {
		counts[id]++
	}
	want := Set{}
	for id, c := range counts {
		if c >= 2 {
			want[id] = struct{}{}
		}
	}

	got := Detect(listing(ids...))
	if !reflect.DeepEqual(keys(got), keys(want)) {
		t.Errorf("Detect() returned %d ids, want %d", len(got), len(want))
	}
}

func TestGroup_Indices(t *testing.T) {
	groups := Group(listing("1", "2", "1", "3", "2", "2"))

	want := map[string][]int{
		"1": {0, 2},
		"2": {1, 4, 5},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Group() = %v, want %v", groups, want)
	}
}

func TestDetectAsync(t *testing.T) {
	ch := DetectAsync(context.Background(), listing("a", "b", "a"))

	dups, ok := <-ch
	if !ok {
		t.Fatal("DetectAsync() closed without a result")
	}
	if !dups.Has("a") || dups.Has("b") {
		t.Errorf("DetectAsync() = %v", keys(dups))
	}

	if _, ok := <-ch; ok {
		t.Error("DetectAsync() channel should be closed after one result")
	}
}

func TestDetectAsync_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := <-DetectAsync(ctx, listing("a", "a")); ok {
		t.Error("DetectAsync() should not deliver after cancellation")
	}
}

func BenchmarkDetect(b *testing.B) {
	var ids []string
	for i := 0; i < 10000; i++ {
		ids = append(ids, fmt.Sprintf("track_%d", i%9000))
	}
	items := listing(ids...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Detect(items)
	}
}

func TestGroup_DistinctListingHasNoGroups(t *testing.T) {
	var ids []string
	for i := 0; i < 20000; i++ {
		ids = append(ids, fmt.Sprintf("unique-%d", i))
	}

	if groups := Group(listing(ids...)); len(groups) != 0 {
		t.Errorf("Group() found %d groups in a listing without duplicates", len(groups))
	}
}
