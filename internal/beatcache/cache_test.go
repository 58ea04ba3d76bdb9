package beatcache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/beatsync/internal/beat"
)

func TestFromResult(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	peaks := []beat.Peak{
		{Position: 44100, Time: time.Second, Amplitude: 0.9},
		{Position: 22050, Time: 500 * time.Millisecond, Amplitude: 0.8},
	}
	res := beat.Result{
		RequestID: "req-1",
		Source:    "/music/a.wav",
		Timeline:  beat.NewTimeline("/music/a.wav", peaks),
		Tempo:     []beat.TempoCandidate{{BPM: 120, Votes: 4}, {BPM: 96, Votes: 1}},
	}

	s := FromResult(res, at)
	assert.Equal(t, beat.SourceID("/music/a.wav"), s.Source)
	assert.Equal(t, "req-1", s.RequestID)
	assert.Equal(t, 120, s.BPM)
	assert.Equal(t, at, s.AnalyzedAt)
	assert.Empty(t, s.Error)
	require.Len(t, s.Beats, 2)
	assert.Equal(t, 500*time.Millisecond, s.Beats[0].Time, "beats in time order")
}

func TestFromResultFailure(t *testing.T) {
	s := FromResult(beat.Result{Source: "x", Err: errors.New("fetch failed")}, time.Now())
	assert.Equal(t, "fetch failed", s.Error)
	assert.Empty(t, s.Beats)
	assert.Zero(t, s.BPM)
}

func TestPutGet(t *testing.T) {
	c := New(time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put(Summary{Source: "a", BPM: 100})
	c.Put(Summary{Source: "a", BPM: 128})
	c.Put(Summary{}) // no source, ignored

	s, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 128, s.BPM)
	assert.Equal(t, 1, c.Len())
}

func TestExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Put(Summary{Source: "a"})
	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNoExpiry(t *testing.T) {
	c := New(0)
	c.Put(Summary{Source: "a"})
	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestListNewestFirst(t *testing.T) {
	c := New(time.Minute)
	base := time.Now()
	c.Put(Summary{Source: "old", AnalyzedAt: base})
	c.Put(Summary{Source: "new", AnalyzedAt: base.Add(time.Second)})

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, beat.SourceID("new"), list[0].Source)
	assert.Equal(t, beat.SourceID("old"), list[1].Source)
}
