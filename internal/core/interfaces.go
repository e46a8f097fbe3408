package core

import (
	"context"
	"time"
)

// AuthProvider supplies the current access token. The core never refreshes tokens.
type AuthProvider interface {
	CurrentAccessToken() (string, bool)
}

// StaticToken is an AuthProvider backed by a fixed token.
type StaticToken string

// CurrentAccessToken returns the token if it is non-empty.
func (s StaticToken) CurrentAccessToken() (string, bool) {
	return string(s), s != ""
}

// WaveformProvider computes a low-resolution amplitude envelope for a preview clip.
// A nil slice with a nil error means no waveform is available.
type WaveformProvider interface {
	Waveform(ctx context.Context, key, previewURL string) ([]float32, error)
}

// HapticStyle is the strength of a haptic impact
type HapticStyle string

const (
	// HapticLight is used for keep decisions
	HapticLight HapticStyle = "light"
	// HapticMedium is used for remove decisions
	HapticMedium HapticStyle = "medium"
)

// DefaultToastDuration is how long a toast stays visible
const DefaultToastDuration = 1800 * time.Millisecond

// Effects are the host's audio/UI side effects.
type Effects interface {
	Impact(style HapticStyle)
	Toast(message string, duration time.Duration)
}

// Recorder receives deck metrics. Implemented by the HTTP host.
type Recorder interface {
	RecordSwipe(mode string, direction Direction)
	RecordRemoval(source RemovalSource)
	RecordMutationError(op string)
	RecordPageFetched(mode string, items int)
	RecordPreview(outcome string)
	SetDeckSize(size int)
}

// NopEffects discards all effects.
type NopEffects struct{}

func (NopEffects) Impact(HapticStyle) {}
func (NopEffects) Toast(string, time.Duration) {}

// NopRecorder discards all metrics.
type NopRecorder struct{}

func (NopRecorder) RecordSwipe(string, Direction) {}
func (NopRecorder) RecordRemoval(RemovalSource) {}
func (NopRecorder) RecordMutationError(string) {}
func (NopRecorder) RecordPageFetched(string, int) {}
func (NopRecorder) RecordPreview(string) {}
func (NopRecorder) SetDeckSize(int) {}
