package audio

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/beatsync/internal/beat"
)

type queuedTrack struct {
	info  TrackInfo
	epoch uint64
}

type decodedTrack struct {
	info    TrackInfo
	samples []int16
	epoch   uint64
}

// Pipeline decodes tracks, applies crossfade, and outputs PCM frames at real-time rate.
// It is the authority on which source is playing.
type Pipeline struct {
	trackCh      chan queuedTrack
	frameCh      chan []int16
	skipCh       chan struct{}
	crossfadeDur time.Duration

	mu            sync.RWMutex
	currentTrack  TrackInfo
	trackPosition time.Duration
	trackDuration time.Duration
	plays         uint64 // tracks started, crossfaded ones included
	epoch         uint64 // bumped by Flush; older queued tracks are dropped
}

// NewPipeline creates an audio pipeline with the given crossfade duration.
func NewPipeline(crossfadeDuration time.Duration) *Pipeline {
	return &Pipeline{
		trackCh:      make(chan queuedTrack, 8),
		frameCh:      make(chan []int16, 100),
		skipCh:       make(chan struct{}, 1),
		crossfadeDur: crossfadeDuration,
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// Enqueue adds a track to the pipeline's playback queue.
func (p *Pipeline) Enqueue(t TrackInfo) {
	p.mu.RLock()
	epoch := p.epoch
	p.mu.RUnlock()
	p.trackCh <- queuedTrack{info: t, epoch: epoch}
}

// Flush drops every queued track, including ones already decoded. The
// playing track is unaffected; call Skip to cut it short.
func (p *Pipeline) Flush() {
	p.mu.Lock()
	p.epoch++
	p.mu.Unlock()
	for {
		select {
		case <-p.trackCh:
		default:
			return
		}
	}
}

func (p *Pipeline) current(epoch uint64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return epoch == p.epoch
}

// QueueSize returns the number of tracks waiting in the queue.
func (p *Pipeline) QueueSize() int {
	return len(p.trackCh)
}

// Skip interrupts the current track.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// Status returns current playback info.
func (p *Pipeline) Status() (track TrackInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTrack, p.trackPosition, p.trackDuration
}

// CurrentSourceIdentity returns the location of the playing track, or the
// empty identity while nothing is playing.
func (p *Pipeline) CurrentSourceIdentity() beat.SourceID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return beat.SourceID(p.currentTrack.Path)
}

// Playhead returns the playing source and the position within it, read
// together so they always belong to the same track.
func (p *Pipeline) Playhead() (beat.SourceID, time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return beat.SourceID(p.currentTrack.Path), p.trackPosition
}

// PlayheadCount is Playhead plus the number of tracks started so far, which
// tells a track played twice in a row apart from one long play.
func (p *Pipeline) PlayheadCount() (beat.SourceID, time.Duration, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return beat.SourceID(p.currentTrack.Path), p.trackPosition, p.plays
}

// CrossfadeDuration returns the configured crossfade length.
func (p *Pipeline) CrossfadeDuration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.crossfadeDur
}

// SetCrossfade changes the crossfade length for the next transition.
func (p *Pipeline) SetCrossfade(d time.Duration) {
	p.mu.Lock()
	p.crossfadeDur = d
	p.mu.Unlock()
}

// Run starts the pipeline. Blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	// Background decoder: converts file paths to decoded PCM
	decodedCh := make(chan *decodedTrack, 4)
	go func() {
		defer close(decodedCh)
		for {
			select {
			case <-ctx.Done():
				return
			case q, ok := <-p.trackCh:
				if !ok {
					return
				}
				if !p.current(q.epoch) {
					continue
				}
				samples, err := DecodeFile(ctx, q.info.Path)
				if err != nil {
					log.Printf("Decode failed %s: %v", q.info.Path, err)
					continue
				}
				select {
				case decodedCh <- &decodedTrack{info: q.info, samples: samples, epoch: q.epoch}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	// Main playback loop
	var pending *decodedTrack
	var startFrame int

	for {
		var dt *decodedTrack

		if pending != nil {
			dt = pending
			pending = nil
		} else {
			p.clearTrack()
			select {
			case <-ctx.Done():
				return
			case d, ok := <-decodedCh:
				if !ok {
					return
				}
				if !p.current(d.epoch) {
					continue
				}
				dt = d
				startFrame = 0
			}
		}

		next, nextStart := p.playTrack(ctx, ticker, decodedCh, dt, startFrame)
		if next != nil {
			pending = next
			startFrame = nextStart
		} else {
			startFrame = 0
		}
	}
}

// playTrack plays a decoded track with crossfade into the next one if available.
// Returns the next decoded track and starting frame if a crossfade occurred.
func (p *Pipeline) playTrack(ctx context.Context, ticker *time.Ticker, decodedCh <-chan *decodedTrack, dt *decodedTrack, startFrame int) (*decodedTrack, int) {
	samples := dt.samples
	totalFrames := len(samples) / FrameSamples
	cfFrames := int(p.CrossfadeDuration().Seconds() * SampleRate / FrameSize)
	if cfFrames > totalFrames/2 {
		cfFrames = totalFrames / 2 // don't crossfade more than half the track
	}
	cfStart := totalFrames - cfFrames

	p.setTrack(dt.info, startFrame, totalFrames)
	log.Printf("Now playing: %s (%s, frames: %d)", dt.info.Name, dt.info.Path, totalFrames)

	// Play pre-crossfade frames
	for i := startFrame; i < cfStart; i++ {
		if !p.sendFrame(ctx, ticker, samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	// Try to get next decoded track for crossfade
	var next *decodedTrack
	select {
	case d := <-decodedCh:
		if d != nil && p.current(d.epoch) {
			next = d
		}
	default:
	}

	if next != nil {
		// Crossfade zone: blend outgoing with incoming
		for i := 0; i < cfFrames; i++ {
			outPos := (cfStart + i) * FrameSamples
			inPos := i * FrameSamples

			if outPos+FrameSamples > len(samples) || inPos+FrameSamples > len(next.samples) {
				break
			}

			progress := float64(i) / float64(cfFrames)
			frame := CrossfadeFrames(
				samples[outPos:outPos+FrameSamples],
				next.samples[inPos:inPos+FrameSamples],
				progress,
			)

			if !p.sendFrame(ctx, ticker, frame) {
				return nil, 0
			}
			p.updatePosition(cfStart + i)
		}

		log.Printf("Crossfaded into: %s", next.info.Name)
		return next, cfFrames
	}

	// No next track available: play remaining frames without crossfade
	for i := cfStart; i < totalFrames; i++ {
		if !p.sendFrame(ctx, ticker, samples[i*FrameSamples:(i+1)*FrameSamples]) {
			return nil, 0
		}
		p.updatePosition(i)
	}

	return nil, 0
}

// sendFrame waits for the ticker then sends a frame. Returns false on skip or cancel.
func (p *Pipeline) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.skipCh:
		log.Println("Track skipped")
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Pipeline) setTrack(info TrackInfo, startFrame, totalFrames int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTrack = info
	p.plays++
	p.trackPosition = time.Duration(startFrame) * FrameDuration
	p.trackDuration = time.Duration(totalFrames) * FrameDuration
}

func (p *Pipeline) clearTrack() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTrack = TrackInfo{}
	p.trackPosition = 0
	p.trackDuration = 0
}

func (p *Pipeline) updatePosition(frameIdx int) {
	p.mu.Lock()
	p.trackPosition = time.Duration(frameIdx) * FrameDuration
	p.mu.Unlock()
}
