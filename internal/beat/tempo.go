package beat

import (
	"cmp"
	"math"
	"slices"
)

// Canonical tempo octave. Every raw tempo is folded into [MinBPM, MaxBPM).
const (
	MinBPM = 90
	MaxBPM = 180

	tempoNeighbours = 9 // later peaks each peak is paired with
)

// TempoCandidate is one bucket of the tempo histogram.
type TempoCandidate struct {
	BPM   int `json:"bpm"`
	Votes int `json:"votes"`
}

// FoldTempo doubles or halves bpm until it lands in [MinBPM, MaxBPM).
// It reports false for zero, negative or non-finite input, which would
// otherwise never converge.
func FoldTempo(bpm float64) (float64, bool) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return 0, false
	}
	for bpm < MinBPM {
		bpm *= 2
	}
	for bpm >= MaxBPM {
		bpm /= 2
	}
	return bpm, true
}

// roundTempo rounds a folded tempo to whole BPM, keeping it inside the octave.
func roundTempo(bpm float64) int {
	r := int(math.Round(bpm))
	if r >= MaxBPM {
		r /= 2
	}
	return r
}

// ClusterTempo builds a tempo histogram from the distances between each peak
// and up to nine following peaks. sampleRate converts position deltas into
// seconds. Candidates are returned in the order their BPM was first seen;
// use RankTempo to order them by votes.
func ClusterTempo(peaks []Peak, sampleRate int) []TempoCandidate {
	if sampleRate <= 0 {
		return nil
	}

	var groups []TempoCandidate
	index := make(map[int]int)
	for i, p := range peaks {
		for j := i + 1; j < len(peaks) && j-i <= tempoNeighbours; j++ {
			delta := peaks[j].Position - p.Position
			if delta <= 0 {
				continue
			}
			folded, ok := FoldTempo(60 * float64(sampleRate) / float64(delta))
			if !ok {
				continue
			}
			bpm := roundTempo(folded)
			if k, seen := index[bpm]; seen {
				groups[k].Votes++
				continue
			}
			index[bpm] = len(groups)
			groups = append(groups, TempoCandidate{BPM: bpm, Votes: 1})
		}
	}
	return groups
}

// RankTempo returns a copy of candidates ordered by votes, most first.
// Ties go to the slower tempo.
func RankTempo(candidates []TempoCandidate) []TempoCandidate {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b TempoCandidate) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		return cmp.Compare(a.BPM, b.BPM)
	})
	return ranked
}

// DominantTempo returns the best ranked candidate.
func DominantTempo(candidates []TempoCandidate) (TempoCandidate, bool) {
	if len(candidates) == 0 {
		return TempoCandidate{}, false
	}
	return RankTempo(candidates)[0], true
}
