package beat

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// Peak is the loudest sample of one analysis window.
type Peak struct {
	Position  int           `json:"position"`  // absolute sample index
	Time      time.Duration `json:"time"`      // offset from the start of the track
	Amplitude float64       `json:"amplitude"` // max(|left|, |right|)
}

// ExtractPeaks runs ExtractPeaksWindow with the default WindowSize.
func ExtractPeaks(left, right []float64, total time.Duration) []Peak {
	return ExtractPeaksWindow(left, right, total, WindowSize)
}

// ExtractPeaksWindow splits the buffer into non-overlapping windows of the
// given size, takes the loudest sample of each, keeps the louder half of
// those and returns them ordered by time. A trailing partial window is
// ignored, so buffers shorter than one window produce no peaks.
func ExtractPeaksWindow(left, right []float64, total time.Duration, window int) []Peak {
	n := min(len(left), len(right))
	if window <= 0 || n < window {
		return nil
	}

	windows := n / window
	candidates := make([]Peak, 0, windows)
	for w := range windows {
		start := w * window
		best := start
		bestAmp := amplitude(left[start], right[start])
		for i := start + 1; i < start+window; i++ {
			if a := amplitude(left[i], right[i]); a > bestAmp {
				best, bestAmp = i, a
			}
		}
		candidates = append(candidates, Peak{
			Position:  best,
			Time:      sampleTime(best, n, total),
			Amplitude: bestAmp,
		})
	}

	// Loudest first, then keep the top half and restore time order.
	slices.SortStableFunc(candidates, func(a, b Peak) int {
		return cmp.Compare(b.Amplitude, a.Amplitude)
	})
	kept := slices.Clip(candidates[:len(candidates)/2])
	slices.SortFunc(kept, func(a, b Peak) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return kept
}

func amplitude(l, r float64) float64 {
	return math.Max(math.Abs(l), math.Abs(r))
}

// sampleTime maps a sample index to a track offset using the buffer's own
// duration, so the implied rate is n / total.
func sampleTime(pos, n int, total time.Duration) time.Duration {
	return time.Duration(float64(total) * float64(pos) / float64(n))
}
