package decode

import (
	"fmt"
	"time"
)

// pcm is decoded audio before resampling and filtering.
type pcm struct {
	left, right []float64
	rate        int
}

// frameLimit is the number of frames that fit in maxDur at rate, or -1 for no limit.
func frameLimit(maxDur time.Duration, rate int) int {
	if maxDur <= 0 {
		return -1
	}
	return int(maxDur.Seconds() * float64(rate))
}

// appendInterleaved splits interleaved samples into left and right. Mono
// input is duplicated, channels past the second are ignored. It stops once
// limit frames are held and reports whether the limit was reached.
func (p *pcm) appendInterleaved(samples []float64, channels, limit int) bool {
	for i := 0; i+channels <= len(samples); i += channels {
		if limit >= 0 && len(p.left) >= limit {
			return true
		}
		l := samples[i]
		r := l
		if channels > 1 {
			r = samples[i+1]
		}
		p.left = append(p.left, l)
		p.right = append(p.right, r)
	}
	return limit >= 0 && len(p.left) >= limit
}

// bitDepthDivisor returns the full-scale value for signed integer PCM.
func bitDepthDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768, nil
	case 24:
		return 8388608, nil
	case 32:
		return 2147483648, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}
