// Package decode turns encoded audio into the band-limited stereo buffers
// used for beat analysis.
//
// WAV and FLAC are decoded natively. Anything else (MP3, Ogg, AAC, ...) is
// handed to FFmpeg when a binary is configured.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/satindergrewal/beatsync/internal/beat"
)

// ErrUnsupportedFormat is returned for payloads no decoder recognises.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Default pass band for kick detection.
const (
	DefaultLowHz  = 100
	DefaultHighHz = 150
	DefaultQ      = 1.0
)

// Format is a detected container format.
type Format string

const (
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
	FormatUnknown Format = ""
)

// Config configures a Decoder. Zero fields take defaults; an empty FFmpeg
// path disables the FFmpeg fallback.
type Config struct {
	LowHz  float64
	HighHz float64
	Q      float64
	FFmpeg string
}

// Decoder implements beat.SampleSource.
type Decoder struct {
	lowHz, highHz, q float64
	ffmpeg           string
}

// New creates a Decoder.
func New(cfg Config) *Decoder {
	d := &Decoder{
		lowHz:  cfg.LowHz,
		highHz: cfg.HighHz,
		q:      cfg.Q,
		ffmpeg: cfg.FFmpeg,
	}
	if d.lowHz <= 0 {
		d.lowHz = DefaultLowHz
	}
	if d.highHz <= 0 {
		d.highHz = DefaultHighHz
	}
	if d.q <= 0 {
		d.q = DefaultQ
	}
	return d
}

// Sniff detects the container format from the leading bytes of data.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("fLaC")):
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

// DecodeAndFilter decodes data, keeps at most opts.MaxDuration of it,
// resamples to opts.SampleRate and band-limits both channels.
func (d *Decoder) DecodeAndFilter(ctx context.Context, data []byte, opts beat.DecodeOptions) (beat.Samples, error) {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = beat.ReferenceSampleRate
	}

	var (
		raw pcm
		err error
	)
	switch Sniff(data) {
	case FormatWAV:
		raw, err = decodeWAV(data, opts.MaxDuration)
	case FormatFLAC:
		raw, err = decodeFLAC(data, opts.MaxDuration)
	default:
		err = ErrUnsupportedFormat
	}
	if errors.Is(err, ErrUnsupportedFormat) && d.ffmpeg != "" {
		// FFmpeg applies truncation, rate and filters itself.
		raw, err = d.decodeFFmpeg(ctx, data, opts.MaxDuration, rate)
		if err != nil {
			return beat.Samples{}, err
		}
		return samplesOf(raw), nil
	}
	if err != nil {
		return beat.Samples{}, err
	}
	if err := ctx.Err(); err != nil {
		return beat.Samples{}, err
	}

	if raw.rate != rate {
		raw.left = resample(raw.left, raw.rate, rate)
		raw.right = resample(raw.right, raw.rate, rate)
		raw.rate = rate
	}
	if err := bandLimit(raw.left, rate, d.lowHz, d.highHz, d.q); err != nil {
		return beat.Samples{}, fmt.Errorf("filter left channel: %w", err)
	}
	if err := bandLimit(raw.right, rate, d.lowHz, d.highHz, d.q); err != nil {
		return beat.Samples{}, fmt.Errorf("filter right channel: %w", err)
	}
	return samplesOf(raw), nil
}

func samplesOf(p pcm) beat.Samples {
	n := min(len(p.left), len(p.right))
	s := beat.Samples{Left: p.left[:n], Right: p.right[:n]}
	if p.rate > 0 {
		s.Duration = time.Duration(float64(n) / float64(p.rate) * float64(time.Second))
	}
	return s
}
