package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavChunkFrames = 8192

// WAVE format tags.
const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(data []byte, maxDur time.Duration) (pcm, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return pcm{}, errors.New("invalid WAV file")
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return pcm{}, fmt.Errorf("unsupported number of channels: %d", channels)
	}
	rate := int(decoder.SampleRate)
	if rate <= 0 {
		return pcm{}, fmt.Errorf("invalid sample rate: %d", rate)
	}
	var scale func(int) float64
	switch format := wavSampleFormat(data, decoder.WavAudioFormat); {
	case format == wavFormatPCM:
		divisor, err := bitDepthDivisor(int(decoder.BitDepth))
		if err != nil {
			return pcm{}, err
		}
		scale = func(s int) float64 { return float64(s) / divisor }
	case format == wavFormatFloat && decoder.BitDepth == 32:
		// The reader hands back the raw bits as a sign-extended int32.
		scale = func(s int) float64 { return float64(math.Float32frombits(uint32(s))) }
	default:
		return pcm{}, fmt.Errorf("%w: WAV format 0x%04x at %d bits", ErrUnsupportedFormat, format, decoder.BitDepth)
	}

	out := pcm{rate: rate}
	limit := frameLimit(maxDur, rate)
	buf := &audio.IntBuffer{
		Data:   make([]int, wavChunkFrames*channels),
		Format: &audio.Format{SampleRate: rate, NumChannels: channels},
	}
	chunk := make([]float64, 0, len(buf.Data))

	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return pcm{}, fmt.Errorf("read WAV samples: %w", err)
		}
		if n == 0 {
			break
		}
		chunk = chunk[:0]
		for _, s := range buf.Data[:n] {
			chunk = append(chunk, scale(s))
		}
		if out.appendInterleaved(chunk, channels, limit) {
			break
		}
	}
	return out, nil
}

// wavSampleFormat resolves WAVE_FORMAT_EXTENSIBLE to the tag held in the
// first two bytes of its sub-format GUID. The wav reader skips that field.
func wavSampleFormat(data []byte, tag uint16) uint16 {
	if tag != wavFormatExtensible {
		return tag
	}
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if id == "fmt " {
			if size >= 26 && body+26 <= len(data) {
				return binary.LittleEndian.Uint16(data[body+24 : body+26])
			}
			return tag
		}
		off = body + size + size&1
	}
	return tag
}
