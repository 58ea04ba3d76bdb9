package decode

// resample converts one channel between sample rates with cubic
// interpolation. Inputs shorter than four samples fall back to nearest
// neighbour.
func resample(in []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(in) == 0 {
		return in
	}

	ratio := float64(to) / float64(from)
	out := make([]float64, int(float64(len(in))*ratio))

	if len(in) < 4 {
		for i := range out {
			out[i] = in[min(int(float64(i)/ratio), len(in)-1)]
		}
		return out
	}

	last := len(in) - 3
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx < 1 {
			idx = 1
		} else if idx > last {
			idx = last
		}
		mu := pos - float64(idx)
		y0, y1, y2, y3 := in[idx-1], in[idx], in[idx+1], in[idx+2]

		a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
		a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
		a2 := -0.5*y0 + 0.5*y2
		out[i] = a0*mu*mu*mu + a1*mu*mu + a2*mu + y1
	}
	return out
}
