package http

import (
	"sync"
	"time"

	"swipesort/internal/core"
)

// DefaultEffectsLimit bounds the number of undelivered effects
const DefaultEffectsLimit = 32

// Effect is a haptic or toast waiting to be rendered by the client.
type Effect struct {
	Kind       string           `json:"kind"`
	Style      core.HapticStyle `json:"style,omitempty"`
	Message    string           `json:"message,omitempty"`
	DurationMS int64            `json:"durationMs,omitempty"`
}

// EffectsQueue implements core.Effects by queueing effects until the next
// deck response drains them. The oldest effects are dropped past the limit.
type EffectsQueue struct {
	limit int

	mutex   sync.Mutex
	pending []Effect
}

func NewEffectsQueue(limit int) *EffectsQueue {
	if limit <= 0 {
		limit = DefaultEffectsLimit
	}
	return &EffectsQueue{limit: limit}
}

func (q *EffectsQueue) Impact(style core.HapticStyle) {
	q.push(Effect{Kind: "haptic", Style: style})
}

func (q *EffectsQueue) Toast(message string, duration time.Duration) {
	q.push(Effect{Kind: "toast", Message: message, DurationMS: duration.Milliseconds()})
}

func (q *EffectsQueue) push(effect Effect) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.pending = append(q.pending, effect)
	if over := len(q.pending) - q.limit; over > 0 {
		q.pending = append(q.pending[:0:0], q.pending[over:]...)
	}
}

// Drain returns and clears the pending effects, oldest first.
func (q *EffectsQueue) Drain() []Effect {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	out := q.pending
	q.pending = nil
	if out == nil {
		out = []Effect{}
	}
	return out
}
