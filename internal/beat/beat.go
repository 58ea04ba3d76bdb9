// Package beat estimates beat onsets from decoded audio and keeps them in step
// with live playback.
//
// Analysis is offline: a track is fetched, decoded, band-limited and reduced to
// a short list of amplitude peaks. A Timeline binds those peaks to the source
// they were computed from and is consumed frame by frame against the playhead.
// The Coordinator runs analyses asynchronously and drops any result whose
// source is no longer the one playing.
package beat

import (
	"context"
	"errors"
	"time"
)

// Analysis defaults.
const (
	WindowSize          = 22050 // samples per window, 0.5s at 44.1kHz
	ReferenceSampleRate = 44100
	MaxAnalysisDuration = 30 * time.Second
)

var (
	// ErrFetch marks a failure to retrieve the raw bytes of a source.
	ErrFetch = errors.New("fetch failed")
	// ErrDecode marks a payload that could not be decoded or filtered.
	ErrDecode = errors.New("decode failed")
)

// SourceID identifies the audio asset loaded for playback. Two IDs refer to
// the same asset iff they are equal; the empty ID means nothing is loaded.
type SourceID string

// Samples is a decoded, band-limited stereo buffer.
type Samples struct {
	Left     []float64
	Right    []float64
	Duration time.Duration
}

// Len returns the number of usable sample frames.
func (s Samples) Len() int {
	return min(len(s.Left), len(s.Right))
}

// DecodeOptions bounds a decode request.
type DecodeOptions struct {
	MaxDuration time.Duration // longer tracks are truncated
	SampleRate  int           // output rate in Hz
}

// IdentitySource reports what is loaded for playback right now.
type IdentitySource interface {
	CurrentSourceIdentity() SourceID
}

// IdentityFunc adapts a plain function to IdentitySource.
type IdentityFunc func() SourceID

// CurrentSourceIdentity calls f.
func (f IdentityFunc) CurrentSourceIdentity() SourceID { return f() }

// Fetcher retrieves the raw encoded bytes of a source.
type Fetcher interface {
	Fetch(ctx context.Context, id SourceID) ([]byte, error)
}

// SampleSource decodes an encoded payload and band-limits it to the range
// where kicks and similar onsets live.
type SampleSource interface {
	DecodeAndFilter(ctx context.Context, data []byte, opts DecodeOptions) (Samples, error)
}
