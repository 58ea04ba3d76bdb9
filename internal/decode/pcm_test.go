package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppendInterleaved(t *testing.T) {
	var p pcm
	full := p.appendInterleaved([]float64{1, 2, 3, 4, 5, 6}, 2, -1)
	assert.False(t, full)
	assert.Equal(t, []float64{1, 3, 5}, p.left)
	assert.Equal(t, []float64{2, 4, 6}, p.right)

	var mono pcm
	mono.appendInterleaved([]float64{1, 2}, 1, -1)
	assert.Equal(t, mono.left, mono.right)

	var multi pcm
	multi.appendInterleaved([]float64{1, 2, 3, 4, 5, 6}, 3, -1)
	assert.Equal(t, []float64{1, 4}, multi.left)
	assert.Equal(t, []float64{2, 5}, multi.right)

	var limited pcm
	assert.True(t, limited.appendInterleaved([]float64{1, 2, 3, 4, 5, 6}, 2, 2))
	assert.Len(t, limited.left, 2)
}

func TestFrameLimit(t *testing.T) {
	assert.Equal(t, 44100, frameLimit(time.Second, 44100))
	assert.Equal(t, -1, frameLimit(0, 44100))
}

func TestBitDepthDivisor(t *testing.T) {
	for depth, want := range map[int]float64{16: 1 << 15, 24: 1 << 23, 32: 1 << 31} {
		got, err := bitDepthDivisor(depth)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := bitDepthDivisor(8)
	assert.Error(t, err)
}

func TestSampleAt(t *testing.T) {
	assert.Equal(t, int32(-2), sampleAt([]byte{0xfe, 0xff}, 2))
	assert.Equal(t, int32(-1), sampleAt([]byte{0xff, 0xff, 0xff}, 3))
	assert.Equal(t, int32(0x123456), sampleAt([]byte{0x56, 0x34, 0x12}, 3))
	assert.Equal(t, int32(1), sampleAt([]byte{1, 0, 0, 0}, 4))
}

func TestResample(t *testing.T) {
	in := make([]float64, 100)
	for i := range in {
		in[i] = float64(i)
	}
	up := resample(in, 100, 200)
	assert.Len(t, up, 200)
	// Cubic interpolation reproduces a linear ramp away from the edges.
	assert.InDelta(t, 50.0, up[100], 1e-9)
	assert.InDelta(t, 50.5, up[101], 1e-9)

	assert.Equal(t, in, resample(in, 100, 100))
	assert.Len(t, resample([]float64{1, 2}, 1, 3), 6)
}
