// Package flood limits how often a client may trigger destructive actions.
package flood

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultWindow is the sliding window over which actions are counted
	DefaultWindow = time.Minute
	// cleanupInterval is how often idle clients are forgotten
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long a client may stay quiet before it is forgotten
	idleTimeout = 10 * time.Minute
)

// Floodgate is a per-client sliding-window limiter. A limit of zero or less
// disables it.
type Floodgate struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mutex   sync.Mutex
	entries map[string]*clientEntry
}

type clientEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a Floodgate allowing limit actions per window per client.
func New(limit int, window time.Duration) *Floodgate {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Floodgate{
		limit:   limit,
		window:  window,
		now:     time.Now,
		entries: make(map[string]*clientEntry),
	}
}

// Enabled reports whether the gate limits anything.
func (fg *Floodgate) Enabled() bool {
	return fg != nil && fg.limit > 0
}

// Allow records an action by client and reports whether it is within the limit.
// Blocked actions are not recorded.
func (fg *Floodgate) Allow(client string) bool {
	if !fg.Enabled() {
		return true
	}
	now := fg.now()

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	entry, exists := fg.entries[client]
	if !exists {
		entry = &clientEntry{timestamps: make([]time.Time, 0, fg.limit+1)}
		fg.entries[client] = entry
	}
	entry.lastSeen = now

	windowStart := now.Add(-fg.window)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= fg.limit {
		return false
	}
	entry.timestamps = append(entry.timestamps, now)
	return true
}

// Run forgets idle clients until ctx is done.
func (fg *Floodgate) Run(ctx context.Context) {
	if !fg.Enabled() {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.performCleanup()
		case <-ctx.Done():
			return
		}
	}
}

func (fg *Floodgate) performCleanup() {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	cutoff := fg.now().Add(-idleTimeout)
	for key, entry := range fg.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(fg.entries, key)
		}
	}
}

// Stats returns statistics about the floodgate for monitoring/debugging
func (fg *Floodgate) Stats() Stats {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	return Stats{
		ActiveClients: len(fg.entries),
		Limit:         fg.limit,
		WindowSeconds: int(fg.window.Seconds()),
	}
}

// Stats contains floodgate statistics
type Stats struct {
	ActiveClients int `json:"activeClients"`
	Limit         int `json:"limit"`
	WindowSeconds int `json:"windowSeconds"`
}
