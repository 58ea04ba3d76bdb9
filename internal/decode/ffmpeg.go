package decode

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// decodeFFmpeg pipes data through FFmpeg, which decodes, truncates, resamples
// and band-limits in one pass and writes interleaved stereo float32.
func (d *Decoder) decodeFFmpeg(ctx context.Context, data []byte, maxDur time.Duration, rate int) (pcm, error) {
	args := []string{"-i", "pipe:0"}
	if maxDur > 0 {
		args = append(args, "-t", strconv.FormatFloat(maxDur.Seconds(), 'f', -1, 64))
	}
	args = append(args,
		"-af", d.filterGraph(),
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(rate),
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, d.ffmpeg, args...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return pcm{}, fmt.Errorf("ffmpeg decode: %w: %s", err, msg)
		}
		return pcm{}, fmt.Errorf("ffmpeg decode: %w", err)
	}

	frames := len(out) / 8
	result := pcm{
		left:  make([]float64, frames),
		right: make([]float64, frames),
		rate:  rate,
	}
	for i := range frames {
		result.left[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(out[i*8:])))
		result.right[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(out[i*8+4:])))
	}
	return result, nil
}

// filterGraph mirrors the native band-limit: low-pass at the top of the band
// followed by high-pass at the bottom.
func (d *Decoder) filterGraph() string {
	q := strconv.FormatFloat(d.q, 'f', -1, 64)
	return fmt.Sprintf("lowpass=f=%s:width_type=q:w=%s,highpass=f=%s:width_type=q:w=%s",
		strconv.FormatFloat(d.highHz, 'f', -1, 64), q,
		strconv.FormatFloat(d.lowHz, 'f', -1, 64), q)
}
