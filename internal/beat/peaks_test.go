package beat

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noiseBuffer(rng *rand.Rand, n int) (left, right []float64) {
	left = make([]float64, n)
	right = make([]float64, n)
	for i := range n {
		left[i] = rng.Float64()*2 - 1
		right[i] = rng.Float64()*2 - 1
	}
	return left, right
}

func TestExtractPeaksThreeWindowExample(t *testing.T) {
	const n = 66150
	left := make([]float64, n)
	right := make([]float64, n)
	left[100] = 0.3
	right[30000] = -0.9 // loudest overall, negative and on the right channel
	left[50000] = 0.5

	total := 1500 * time.Millisecond
	peaks := ExtractPeaks(left, right, total)

	require.Len(t, peaks, 1)
	assert.Equal(t, 30000, peaks[0].Position)
	assert.InDelta(t, 0.9, peaks[0].Amplitude, 1e-12)
	assert.InDelta(t, 30000.0/44100.0, peaks[0].Time.Seconds(), 1e-6)
}

func TestExtractPeaksCount(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tests := []struct {
		n, window int
	}{
		{0, 4},
		{3, 4},
		{4, 4},
		{8, 4},
		{12, 4},
		{13, 4},
		{100, 7},
		{1000, 10},
		{22049, WindowSize},
		{44100, WindowSize},
		{66150, WindowSize},
	}
	for _, tt := range tests {
		left, right := noiseBuffer(rng, tt.n)
		got := ExtractPeaksWindow(left, right, time.Second, tt.window)
		want := (tt.n / tt.window) / 2
		assert.Len(t, got, want, "n=%d window=%d", tt.n, tt.window)
	}
}

func TestExtractPeaksOrderedByTime(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	left, right := noiseBuffer(rng, 5000)
	peaks := ExtractPeaksWindow(left, right, 5*time.Second, 50)

	require.NotEmpty(t, peaks)
	for i := 1; i < len(peaks); i++ {
		assert.Less(t, peaks[i-1].Position, peaks[i].Position)
		assert.Less(t, peaks[i-1].Time, peaks[i].Time)
	}
}

func TestExtractPeaksKeepsLoudestHalf(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	const window = 25
	left, right := noiseBuffer(rng, 1000)
	peaks := ExtractPeaksWindow(left, right, time.Second, window)

	kept := make(map[int]bool, len(peaks))
	minKept := 2.0
	for _, p := range peaks {
		kept[p.Position] = true
		minKept = min(minKept, p.Amplitude)
	}

	for w := 0; w < len(left)/window; w++ {
		best, bestAmp := -1, -1.0
		for i := w * window; i < (w+1)*window; i++ {
			if a := amplitude(left[i], right[i]); a > bestAmp {
				best, bestAmp = i, a
			}
		}
		if !kept[best] {
			assert.GreaterOrEqual(t, minKept, bestAmp, "window %d maximum was dropped but is louder than a kept peak", w)
		}
	}
}

func TestExtractPeaksSilence(t *testing.T) {
	left := make([]float64, 40)
	right := make([]float64, 40)
	peaks := ExtractPeaksWindow(left, right, time.Second, 10)

	require.Len(t, peaks, 2)
	for _, p := range peaks {
		assert.Zero(t, p.Amplitude)
	}
}

func TestExtractPeaksShortBuffer(t *testing.T) {
	left := make([]float64, WindowSize-1)
	right := make([]float64, WindowSize-1)
	assert.Empty(t, ExtractPeaks(left, right, time.Second))
}

func TestExtractPeaksMismatchedChannels(t *testing.T) {
	left := []float64{0, 1, 0, 0, 0, 0.5, 0, 0, 0.2}
	right := []float64{0, 0, 0, 0, 0, 0, 0, 0}
	peaks := ExtractPeaksWindow(left, right, time.Second, 4)

	require.Len(t, peaks, 1)
	assert.Equal(t, 1, peaks[0].Position)
}

func TestAnalyseDerivesDurationFromRate(t *testing.T) {
	s := Samples{
		Left:  []float64{0, 0, 0, 0.8, 0, 0, 0, 0},
		Right: make([]float64, 8),
	}
	peaks := Analyse(s, 4, 4)

	require.Len(t, peaks, 1)
	assert.Equal(t, 750*time.Millisecond, peaks[0].Time)
}
