// Package ranking orders listing items with a seeded, reviewed-last deterministic shuffle.
package ranking

import (
	"cmp"
	"hash/fnv"
	"slices"

	"swipesort/internal/core"
)

// Key is the total-order key of an item: reviewed items sort after unreviewed ones,
// and within each group items sort by the seeded hash.
type Key struct {
	Reviewed bool
	Hash     uint64
}

// Compare orders keys ascending.
func (k Key) Compare(o Key) int {
	if k.Reviewed != o.Reviewed {
		if k.Reviewed {
			return 1
		}
		return -1
	}
	return cmp.Compare(k.Hash, o.Hash)
}

// ReviewedSet is a set of reviewed identifiers (track IDs or URIs).
type ReviewedSet map[string]struct{}

// NewReviewedSet builds a set from identifiers.
func NewReviewedSet(ids ...string) ReviewedSet {
	set := make(ReviewedSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is in the set.
func (s ReviewedSet) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// Identifier returns the hash identity of an item: track ID, then URI, then the session identity.
func Identifier(item *core.ListingItem) string {
	if item.Track.ID != "" {
		return item.Track.ID
	}
	if item.Track.URI != "" {
		return item.Track.URI
	}
	return item.SessionID
}

// IsReviewed matches the reviewed set on either the track ID or the URI, so it works for
// saved lists (keyed by ID) and playlists (keyed by URI) alike.
func IsReviewed(item *core.ListingItem, reviewed ReviewedSet) bool {
	return reviewed.Has(item.Track.ID) || reviewed.Has(item.Track.URI)
}

// Hash is the 64-bit FNV-1a digest of seed + "|" + id.
func Hash(seed, id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// RankKey computes the ordering key of a single item.
func RankKey(item *core.ListingItem, reviewed ReviewedSet, seed string) Key {
	return Key{
		Reviewed: IsReviewed(item, reviewed),
		Hash:     Hash(seed, Identifier(item)),
	}
}

// Sort returns a new slice ordered by RankKey: unreviewed items first, each group in the
// seeded shuffle order. Equal keys keep their input order. The input is not modified.
func Sort(items []core.ListingItem, reviewed ReviewedSet, seed string) []core.ListingItem {
	type keyed struct {
		key  Key
		item core.ListingItem
	}

	ks := make([]keyed, len(items))
	for i := range items {
		ks[i] = keyed{key: RankKey(&items[i], reviewed, seed), item: items[i]}
	}

	slices.SortStableFunc(ks, func(a, b keyed) int {
		return a.key.Compare(b.key)
	})

	out := make([]core.ListingItem, len(ks))
	for i := range ks {
		out[i] = ks[i].item
	}
	return out
}
