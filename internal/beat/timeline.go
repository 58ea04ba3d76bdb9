package beat

import (
	"cmp"
	"slices"
	"time"
)

// Timeline is a sequence of peaks bound to the source they were computed
// from. Peaks are consumed in order as playback passes them; a consumed peak
// is never reported again, even if playback seeks backwards.
//
// A Timeline is not safe for concurrent use. It is meant to be owned by the
// single consumer that polls IsDue once per rendered frame.
type Timeline struct {
	source SourceID
	peaks  []Peak
	cursor int
}

// NewTimeline copies peaks, ordering them by time, and binds them to source.
func NewTimeline(source SourceID, peaks []Peak) *Timeline {
	sorted := slices.Clone(peaks)
	slices.SortStableFunc(sorted, func(a, b Peak) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return &Timeline{source: source, peaks: sorted}
}

// Source returns the identity the timeline is valid for.
func (t *Timeline) Source() SourceID {
	return t.source
}

// Len returns the total number of peaks.
func (t *Timeline) Len() int {
	return len(t.peaks)
}

// Remaining returns the number of peaks not yet consumed.
func (t *Timeline) Remaining() int {
	return len(t.peaks) - t.cursor
}

// Peaks returns a copy of all peaks, consumed or not.
func (t *Timeline) Peaks() []Peak {
	return slices.Clone(t.peaks)
}

// Next returns the first unconsumed peak.
func (t *Timeline) Next() (Peak, bool) {
	if t.cursor >= len(t.peaks) {
		return Peak{}, false
	}
	return t.peaks[t.cursor], true
}

// IsDue consumes every pending peak at or before now and reports whether
// there was at least one. It always reports false when current is not the
// timeline's source.
func (t *Timeline) IsDue(now time.Duration, current SourceID) bool {
	if current != t.source {
		return false
	}
	start := t.cursor
	for t.cursor < len(t.peaks) && t.peaks[t.cursor].Time <= now {
		t.cursor++
	}
	return t.cursor > start
}
