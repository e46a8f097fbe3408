// Package dedup finds tracks that occur more than once in a listing.
package dedup

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"

	"swipesort/internal/core"
)

const (
	// bloomFalsePositiveRate keeps look-backs rare on lists without duplicates
	bloomFalsePositiveRate = 0.001
	// minBloomCapacity avoids degenerate filters for tiny lists
	minBloomCapacity = 64
)

// Set is a set of duplicated track IDs.
type Set map[string]struct{}

// Has reports whether id is a duplicate.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Detect returns the track IDs occurring at least twice. Items without a track ID are ignored.
func Detect(items []core.ListingItem) Set {
	groups := Group(items)
	dups := make(Set, len(groups))
	for id := range groups {
		dups[id] = struct{}{}
	}
	return dups
}

// Group maps each duplicated track ID to the indices where it occurs, in listing order.
// The bloom filter answers for first occurrences, so a listing without duplicates
// never touches a map; only filter hits look back for the earlier occurrence.
func Group(items []core.ListingItem) map[string][]int {
	capacity := uint(len(items))
	if capacity < minBloomCapacity {
		capacity = minBloomCapacity
	}
	filter := bloom.NewWithEstimates(capacity, bloomFalsePositiveRate)

	groups := make(map[string][]int)
	for i := range items {
		id := items[i].Track.ID
		if id == "" || !filter.TestAndAddString(id) {
			continue
		}

		if indices, grouped := groups[id]; grouped {
			groups[id] = append(indices, i)
			continue
		}
		first := indexOf(items[:i], id)
		if first < 0 {
			// bloom false positive
			continue
		}
		groups[id] = []int{first, i}
	}

	return groups
}

func indexOf(items []core.ListingItem, id string) int {
	for i := range items {
		if items[i].Track.ID == id {
			return i
		}
	}
	return -1
}

// DetectAsync runs Detect on its own goroutine. The channel yields exactly one result and is
// then closed; if ctx ends first the channel is closed without a value.
func DetectAsync(ctx context.Context, items []core.ListingItem) <-chan Set {
	out := make(chan Set, 1)
	snapshot := append([]core.ListingItem(nil), items...)

	go func() {
		defer close(out)
		dups := Detect(snapshot)
		if ctx.Err() != nil {
			return
		}
		out <- dups
	}()

	return out
}
