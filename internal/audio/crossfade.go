package audio

// Smoothstep eases t in [0,1] along 3t^2 - 2t^3; values outside clamp.
func Smoothstep(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	return t * t * (3 - 2*t)
}

// CrossfadeFrames mixes outgoing into incoming at progress (0 all outgoing,
// 1 all incoming) along the smoothstep curve, clipping to int16. The result
// has the length of the shorter frame.
func CrossfadeFrames(outgoing, incoming []int16, progress float64) []int16 {
	gain := Smoothstep(progress)
	n := min(len(outgoing), len(incoming))
	mixed := make([]int16, n)
	for i := range n {
		v := float64(outgoing[i])*(1-gain) + float64(incoming[i])*gain
		mixed[i] = int16(max(-32768, min(32767, v)))
	}
	return mixed
}
