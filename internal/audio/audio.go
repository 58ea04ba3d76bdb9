// Package audio plays queued tracks in real time as 20ms PCM frames and
// reports what is playing and where the playhead is.
package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// TrackInfo identifies a queued track.
type TrackInfo struct {
	ID   string
	Path string // file path or URL, also the track's source identity
	Name string // display name
}
