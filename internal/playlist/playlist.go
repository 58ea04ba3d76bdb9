// Package playlist keeps the playback pipeline fed from a fixed list of tracks.
package playlist

import (
	"context"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/satindergrewal/beatsync/internal/audio"
)

// maxBufferAhead matches the pipeline's track queue capacity.
const maxBufferAhead = 8

// Enqueuer is the part of the pipeline the playlist drives.
type Enqueuer interface {
	Enqueue(t audio.TrackInfo)
	QueueSize() int
	Flush()
	Skip()
}

// Config holds playlist behaviour.
type Config struct {
	Shuffle     bool
	BufferAhead int // tracks to keep queued in the pipeline
}

// Status is the current state of the playlist.
type Status struct {
	Tracks    int  `json:"tracks"`
	Position  int  `json:"position"` // index of the last queued track, -1 before the first
	Shuffle   bool `json:"shuffle"`
	QueueSize int  `json:"queue_size"`
}

// Playlist cycles through its tracks, wrapping at the end.
type Playlist struct {
	pipeline Enqueuer
	cfg      Config

	// feed serialises queue writes so a jump cannot interleave with Run.
	feed sync.Mutex

	mu     sync.RWMutex
	tracks []audio.TrackInfo
	index  int
}

// New creates a playlist over tracks. With cfg.Shuffle the order is
// randomised once up front.
func New(pipeline Enqueuer, tracks []audio.TrackInfo, cfg Config) *Playlist {
	if cfg.BufferAhead < 1 {
		cfg.BufferAhead = 1
	}
	if cfg.BufferAhead > maxBufferAhead {
		cfg.BufferAhead = maxBufferAhead
	}
	p := &Playlist{
		pipeline: pipeline,
		cfg:      cfg,
		tracks:   append([]audio.TrackInfo(nil), tracks...),
		index:    -1,
	}
	if cfg.Shuffle {
		p.Shuffle()
	}
	return p
}

// Next advances to the following track, wrapping around at the end.
func (p *Playlist) Next() (audio.TrackInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return audio.TrackInfo{}, false
	}
	p.index = (p.index + 1) % len(p.tracks)
	return p.tracks[p.index], true
}

// Prev steps back to the track before current and makes it the playlist
// position, so Next continues from there. When current is not in the
// playlist it steps back from the last queued track.
func (p *Playlist) Prev(current audio.TrackInfo) (audio.TrackInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.tracks)
	if n == 0 {
		return audio.TrackInfo{}, false
	}
	at := p.index
	for i, t := range p.tracks {
		if current.ID != "" && t.ID == current.ID {
			at = i
			break
		}
	}
	if at < 0 {
		at = 0
	}
	p.index = (at - 1 + n) % n
	return p.tracks[p.index], true
}

// Previous replaces whatever is queued with the track before current and
// cuts current short.
func (p *Playlist) Previous(current audio.TrackInfo) (audio.TrackInfo, bool) {
	p.feed.Lock()
	defer p.feed.Unlock()
	t, ok := p.Prev(current)
	if !ok {
		return t, false
	}
	p.pipeline.Flush()
	p.pipeline.Enqueue(t)
	p.pipeline.Skip()
	log.Printf("Jumping back to: %s", t.Name)
	return t, true
}

// Shuffle randomises the remaining order and restarts from the top.
func (p *Playlist) Shuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	rand.Shuffle(len(p.tracks), func(i, j int) {
		p.tracks[i], p.tracks[j] = p.tracks[j], p.tracks[i]
	})
	p.index = -1
}

// Reshuffle shuffles and replaces whatever is queued with the new order.
// The playing track finishes normally.
func (p *Playlist) Reshuffle() {
	p.feed.Lock()
	defer p.feed.Unlock()
	p.Shuffle()
	p.pipeline.Flush()
	log.Println("Playlist reshuffled")
}

// Tracks returns a copy of the current order.
func (p *Playlist) Tracks() []audio.TrackInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]audio.TrackInfo(nil), p.tracks...)
}

// Status returns the playlist state.
func (p *Playlist) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{
		Tracks:    len(p.tracks),
		Position:  p.index,
		Shuffle:   p.cfg.Shuffle,
		QueueSize: p.pipeline.QueueSize(),
	}
}

// Run keeps the pipeline queue topped up. Blocks until ctx is cancelled.
func (p *Playlist) Run(ctx context.Context) {
	log.Printf("Playlist started with %d tracks (shuffle: %v)", len(p.Tracks()), p.cfg.Shuffle)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		queued, ok := p.fill()
		if !ok {
			log.Println("Playlist is empty, nothing to play")
			return
		}
		if queued {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// fill queues one track when the pipeline is below its buffer target.
func (p *Playlist) fill() (queued, ok bool) {
	p.feed.Lock()
	defer p.feed.Unlock()
	if p.pipeline.QueueSize() >= p.cfg.BufferAhead {
		return false, true
	}
	t, ok := p.Next()
	if !ok {
		return false, false
	}
	log.Printf("Queued: %s", t.Name)
	p.pipeline.Enqueue(t)
	return true, true
}
