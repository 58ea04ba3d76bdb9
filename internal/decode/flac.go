package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tphakala/flac"
)

func decodeFLAC(data []byte, maxDur time.Duration) (pcm, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return pcm{}, fmt.Errorf("open FLAC stream: %w", err)
	}

	channels := decoder.NChannels
	if channels < 1 {
		return pcm{}, fmt.Errorf("unsupported number of channels: %d", channels)
	}
	divisor, err := bitDepthDivisor(decoder.BitsPerSample)
	if err != nil {
		return pcm{}, err
	}
	width := decoder.BitsPerSample / 8

	out := pcm{rate: decoder.SampleRate}
	limit := frameLimit(maxDur, decoder.SampleRate)
	var chunk []float64

	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pcm{}, fmt.Errorf("read FLAC frame: %w", err)
		}

		chunk = chunk[:0]
		for i := 0; i+width <= len(frame); i += width {
			chunk = append(chunk, float64(sampleAt(frame[i:], width))/divisor)
		}
		if out.appendInterleaved(chunk, channels, limit) {
			break
		}
	}
	return out, nil
}

// sampleAt reads one little-endian signed sample of the given byte width.
func sampleAt(b []byte, width int) int32 {
	switch width {
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(b)))
	case 3:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		return v << 8 >> 8
	default:
		return int32(binary.LittleEndian.Uint32(b))
	}
}
