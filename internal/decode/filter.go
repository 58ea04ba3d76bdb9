package decode

import (
	"fmt"
	"math"
)

// biquad is a second-order IIR section from the RBJ audio EQ cookbook,
// normalised by a0. It filters in place and keeps state across calls.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newBiquad(a0, a1, a2, b0, b1, b2 float64) *biquad {
	return &biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// newLowPass returns a low-pass section with cutoff frequency in Hz.
func newLowPass(sampleRate, frequency, q float64) (*biquad, error) {
	w0, alpha, err := biquadParams(sampleRate, frequency, q)
	if err != nil {
		return nil, err
	}
	cos := math.Cos(w0)
	return newBiquad(
		1+alpha, -2*cos, 1-alpha,
		(1-cos)/2, 1-cos, (1-cos)/2,
	), nil
}

// newHighPass returns a high-pass section with cutoff frequency in Hz.
func newHighPass(sampleRate, frequency, q float64) (*biquad, error) {
	w0, alpha, err := biquadParams(sampleRate, frequency, q)
	if err != nil {
		return nil, err
	}
	cos := math.Cos(w0)
	return newBiquad(
		1+alpha, -2*cos, 1-alpha,
		(1+cos)/2, -(1 + cos), (1+cos)/2,
	), nil
}

func biquadParams(sampleRate, frequency, q float64) (w0, alpha float64, err error) {
	if q <= 0 {
		return 0, 0, fmt.Errorf("filter q must be positive, got %v", q)
	}
	if frequency <= 0 || frequency >= sampleRate/2 {
		return 0, 0, fmt.Errorf("filter frequency %v Hz outside (0, %v)", frequency, sampleRate/2)
	}
	w0 = 2 * math.Pi * frequency / sampleRate
	return w0, math.Sin(w0) / (2 * q), nil
}

func (f *biquad) apply(samples []float64) {
	for i, x := range samples {
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		samples[i] = y
	}
}

// bandLimit runs a low-pass then a high-pass over one channel, keeping the
// band where kick drums sit and dropping most of the bass line below it.
func bandLimit(samples []float64, sampleRate int, low, high, q float64) error {
	lp, err := newLowPass(float64(sampleRate), high, q)
	if err != nil {
		return fmt.Errorf("low-pass: %w", err)
	}
	hp, err := newHighPass(float64(sampleRate), low, q)
	if err != nil {
		return fmt.Errorf("high-pass: %w", err)
	}
	lp.apply(samples)
	hp.apply(samples)
	return nil
}
