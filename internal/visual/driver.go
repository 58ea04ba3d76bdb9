// Package visual turns beat timelines into events timed against live
// playback, the way a renderer polls for beats once per frame.
package visual

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/beatsync/internal/beat"
)

// DefaultFrameRate is how often the driver polls playback.
const DefaultFrameRate = 60

// Playhead reports what is playing and where.
type Playhead interface {
	Playhead() (beat.SourceID, time.Duration)
}

// CountingPlayhead also reports how many tracks have started, so a source
// played twice in a row is told apart from one long play. See
// audio.Pipeline.
type CountingPlayhead interface {
	PlayheadCount() (beat.SourceID, time.Duration, uint64)
}

// Analyzer starts beat analyses. See beat.Coordinator.
type Analyzer interface {
	Analyze(ctx context.Context, id beat.SourceID) (<-chan beat.Result, bool)
}

// Releaser is implemented by analyzers that ignore repeat requests and can be
// told to forget the last one.
type Releaser interface {
	Release()
}

// Event is published each frame on which at least one beat fell due.
type Event struct {
	Seq      uint64        `json:"seq"`
	Source   beat.SourceID `json:"source"`
	Position time.Duration `json:"-"`
	TimeMS   int64         `json:"time_ms"`
	BPM      int           `json:"bpm,omitempty"`
}

// Status is a snapshot of the driver's beat state.
type Status struct {
	Source    beat.SourceID         `json:"source,omitempty"`
	Beats     int                   `json:"beats"`
	Remaining int                   `json:"remaining"`
	Fired     uint64                `json:"fired"`
	BPM       int                   `json:"bpm,omitempty"`
	Tempo     []beat.TempoCandidate `json:"tempo,omitempty"`
}

// Option configures a Driver.
type Option func(*Driver)

// WithFrameRate sets the polling rate in frames per second.
func WithFrameRate(fps int) Option {
	return func(d *Driver) {
		if fps > 0 {
			d.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithResultHook is called with every analysis result the driver receives,
// failures included.
func WithResultHook(fn func(beat.Result)) Option {
	return func(d *Driver) { d.onResult = fn }
}

// Driver polls the playhead every frame. While it has no timeline for the
// playing source it asks the analyzer for one; the analyzer ignores repeats
// for the same source. Once a timeline is held, each frame on which a beat
// falls due publishes an Event. When playback goes idle or the same source
// starts over, the timeline is dropped and the analyzer released so the next
// play is analysed afresh.
type Driver struct {
	playhead Playhead
	analyzer Analyzer
	publish  func(Event)
	onResult func(beat.Result)
	interval time.Duration

	results chan beat.Result
	wg      sync.WaitGroup

	// Last playhead reading, only touched by tick.
	playing beat.SourceID
	plays   uint64

	mu       sync.RWMutex
	timeline *beat.Timeline
	tempo    []beat.TempoCandidate
	seq      uint64
}

// NewDriver creates a driver that sends beat events to publish.
func NewDriver(playhead Playhead, analyzer Analyzer, publish func(Event), opts ...Option) *Driver {
	d := &Driver{
		playhead: playhead,
		analyzer: analyzer,
		publish:  publish,
		interval: time.Second / DefaultFrameRate,
		results:  make(chan beat.Result, 4),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run polls until ctx is cancelled, then waits for outstanding analyses to
// report back or be abandoned.
func (d *Driver) Run(ctx context.Context) {
	defer d.wg.Wait()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-d.results:
			d.accept(res)
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// Status returns the current beat state.
func (d *Driver) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := Status{Fired: d.seq}
	if d.timeline != nil {
		st.Source = d.timeline.Source()
		st.Beats = d.timeline.Len()
		st.Remaining = d.timeline.Remaining()
	}
	if len(d.tempo) > 0 {
		st.BPM = d.tempo[0].BPM
		st.Tempo = append([]beat.TempoCandidate(nil), d.tempo...)
	}
	return st
}

func (d *Driver) tick(ctx context.Context) {
	id, pos, plays := d.read()
	ended := d.playing != "" && (id == "" || (id == d.playing && plays != d.plays))
	d.playing, d.plays = id, plays
	if ended {
		d.forget()
	}
	if id == "" {
		return
	}

	d.mu.Lock()
	held := d.timeline != nil && d.timeline.Source() == id
	if !held {
		d.mu.Unlock()
		d.request(ctx, id)
		return
	}
	if !d.timeline.IsDue(pos, id) {
		d.mu.Unlock()
		return
	}
	d.seq++
	ev := Event{Seq: d.seq, Source: id, Position: pos, TimeMS: pos.Milliseconds()}
	if len(d.tempo) > 0 {
		ev.BPM = d.tempo[0].BPM
	}
	d.mu.Unlock()

	if d.publish != nil {
		d.publish(ev)
	}
}

func (d *Driver) read() (beat.SourceID, time.Duration, uint64) {
	if cp, ok := d.playhead.(CountingPlayhead); ok {
		return cp.PlayheadCount()
	}
	id, pos := d.playhead.Playhead()
	return id, pos, d.plays
}

// forget drops the held timeline and lets the analyzer take the same source
// again.
func (d *Driver) forget() {
	d.mu.Lock()
	d.timeline = nil
	d.tempo = nil
	d.mu.Unlock()
	if r, ok := d.analyzer.(Releaser); ok {
		r.Release()
	}
}

func (d *Driver) request(ctx context.Context, id beat.SourceID) {
	ch, ok := d.analyzer.Analyze(ctx, id)
	if !ok {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res, ok := <-ch
		if !ok {
			return
		}
		select {
		case d.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (d *Driver) accept(res beat.Result) {
	if d.onResult != nil {
		d.onResult(res)
	}
	if res.Err != nil || res.Timeline == nil {
		return
	}
	if id, _ := d.playhead.Playhead(); res.Source != id {
		log.Printf("Dropped beat timeline for %s, now playing %q", res.Source, id)
		return
	}
	d.mu.Lock()
	d.timeline = res.Timeline
	d.tempo = res.Tempo
	d.mu.Unlock()
	log.Printf("Beat timeline loaded for %s (%d beats)", res.Source, res.Timeline.Len())
}
