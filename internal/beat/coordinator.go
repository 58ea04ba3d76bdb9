package beat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one analysis.
type Result struct {
	RequestID string
	Source    SourceID
	Timeline  *Timeline        // nil when Err is set
	Tempo     []TempoCandidate // ranked, most votes first
	Err       error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics records analysis outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithSampleRate sets the decode rate and the tempo reference rate.
func WithSampleRate(rate int) Option {
	return func(c *Coordinator) {
		if rate > 0 {
			c.decodeOpts.SampleRate = rate
		}
	}
}

// WithMaxDuration caps how much of each track is analysed.
func WithMaxDuration(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.decodeOpts.MaxDuration = d
		}
	}
}

// WithWindowSize sets the peak window in samples.
func WithWindowSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.window = n
		}
	}
}

// Coordinator runs beat analyses for a single playback context. It keeps at
// most one active request per source identity: asking again for the identity
// already requested is a no-op. Superseded requests are not cancelled; they
// finish and are dropped because the playing source no longer matches.
type Coordinator struct {
	identity IdentitySource
	fetcher  Fetcher
	decoder  SampleSource

	decodeOpts DecodeOptions
	window     int
	metrics    *Metrics

	mu         sync.Mutex
	active     SourceID
	inFlight   bool
	generation uint64

	wg sync.WaitGroup
}

// NewCoordinator creates a coordinator that validates results against identity.
func NewCoordinator(identity IdentitySource, fetcher Fetcher, decoder SampleSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		identity: identity,
		fetcher:  fetcher,
		decoder:  decoder,
		decodeOpts: DecodeOptions{
			MaxDuration: MaxAnalysisDuration,
			SampleRate:  ReferenceSampleRate,
		},
		window: WindowSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze starts analysing id unless it is already the active request, in
// which case it returns false and does nothing.
//
// The returned channel yields exactly one Result on success or failure and is
// then closed. If playback has moved to another source by the time the work
// completes, the channel is closed without a value. ctx bounds the fetch and
// decode I/O only.
func (c *Coordinator) Analyze(ctx context.Context, id SourceID) (<-chan Result, bool) {
	c.mu.Lock()
	if id == c.active {
		c.mu.Unlock()
		c.metrics.outcome(OutcomeDuplicate)
		return nil, false
	}
	c.active = id
	c.inFlight = true
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	out := make(chan Result, 1)
	reqID := uuid.NewString()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(out)
		if res, ok := c.run(ctx, id, gen, reqID); ok {
			out <- res
		}
	}()
	return out, true
}

// Active returns the most recently requested identity and whether its
// analysis is still running.
func (c *Coordinator) Active() (SourceID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.inFlight
}

// Release forgets the active identity so the next Analyze starts a fresh
// analysis, even for the source requested last. An analysis still running
// finishes as usual and is only delivered if its source is playing then.
func (c *Coordinator) Release() {
	c.mu.Lock()
	c.active = ""
	c.inFlight = false
	c.generation++
	c.mu.Unlock()
}

// Wait blocks until every started analysis has finished, including
// superseded ones.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) run(ctx context.Context, id SourceID, gen uint64, reqID string) (Result, bool) {
	start := time.Now()
	c.metrics.started()
	peaks, err := c.analyse(ctx, id)
	c.metrics.finished(time.Since(start))
	c.finish(gen)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			c.metrics.outcome(OutcomeCanceled)
		case errors.Is(err, ErrFetch):
			c.metrics.outcome(OutcomeFetchError)
		default:
			c.metrics.outcome(OutcomeDecodeError)
		}
		log.Printf("Beat analysis %s failed: %v", reqID, err)
		return Result{RequestID: reqID, Source: id, Err: err}, true
	}

	// Playback runs independently of analysis; only the identity observed now
	// decides whether the result is still wanted.
	observed := c.identity.CurrentSourceIdentity()
	if observed != id {
		c.metrics.outcome(OutcomeStale)
		log.Printf("Discarded beats for %s, playback moved to %q", id, observed)
		return Result{}, false
	}

	c.metrics.outcome(OutcomeSuccess)
	c.metrics.kept(len(peaks))
	tempo := RankTempo(ClusterTempo(peaks, c.decodeOpts.SampleRate))
	log.Printf("Beats ready for %s: %d peaks in %v", id, len(peaks), time.Since(start).Round(time.Millisecond))

	return Result{
		RequestID: reqID,
		Source:    observed,
		Timeline:  NewTimeline(observed, peaks),
		Tempo:     tempo,
	}, true
}

func (c *Coordinator) analyse(ctx context.Context, id SourceID) ([]Peak, error) {
	data, err := c.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrFetch, id, err)
	}
	samples, err := c.decoder.DecodeAndFilter(ctx, data, c.decodeOpts)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrDecode, id, err)
	}
	return Analyse(samples, c.window, c.decodeOpts.SampleRate), nil
}

// finish clears the in-flight flag if gen is still the active request.
func (c *Coordinator) finish(gen uint64) {
	c.mu.Lock()
	if gen == c.generation {
		c.inFlight = false
	}
	c.mu.Unlock()
}

// Analyse extracts peaks from a decoded buffer. A buffer without a duration
// is timed from its length and sampleRate.
func Analyse(s Samples, window, sampleRate int) []Peak {
	total := s.Duration
	if total <= 0 && sampleRate > 0 {
		total = time.Duration(float64(s.Len()) / float64(sampleRate) * float64(time.Second))
	}
	return ExtractPeaksWindow(s.Left, s.Right, total, window)
}
