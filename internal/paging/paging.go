// Package paging holds the cursor and top-up arithmetic shared by the deck engines.
package paging

// Range is a half-open index range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// NextRange returns [cursor, min(cursor+pageSize, total)), or false when cursor >= total.
func NextRange(cursor, pageSize, total int) (Range, bool) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total || pageSize <= 0 {
		return Range{}, false
	}
	return Range{Start: cursor, End: min(cursor+pageSize, total)}, true
}

// HasMore reports whether more items can still arrive: either remote paging is incomplete or
// local items remain past the cursor.
func HasMore(cursor, total int, remoteComplete bool) bool {
	return !remoteComplete || cursor < total
}

// ShouldTopUp reports whether the deck is within threshold cards of running out.
func ShouldTopUp(currentPosition, deckSize, threshold int) bool {
	return deckSize-currentPosition <= threshold
}
