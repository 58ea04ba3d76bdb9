// Package beatcache keeps recent beat analysis summaries for the HTTP API.
package beatcache

import (
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/satindergrewal/beatsync/internal/beat"
)

// Summary is what the API reports about one analysed source.
type Summary struct {
	Source     beat.SourceID         `json:"source"`
	RequestID  string                `json:"request_id"`
	Beats      []beat.Peak           `json:"beats"`
	Tempo      []beat.TempoCandidate `json:"tempo,omitempty"`
	BPM        int                   `json:"bpm,omitempty"`
	Error      string                `json:"error,omitempty"`
	AnalyzedAt time.Time             `json:"analyzed_at"`
}

// FromResult summarises a coordinator result.
func FromResult(res beat.Result, at time.Time) Summary {
	s := Summary{
		Source:     res.Source,
		RequestID:  res.RequestID,
		Tempo:      res.Tempo,
		AnalyzedAt: at,
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	if res.Timeline != nil {
		s.Beats = res.Timeline.Peaks()
	}
	if best, ok := beat.DominantTempo(res.Tempo); ok {
		s.BPM = best.BPM
	}
	return s
}

// Cache holds summaries keyed by source, expiring after a TTL.
type Cache struct {
	items *cache.Cache
}

// New creates a cache whose entries live for ttl. A ttl of zero keeps
// entries until they are replaced.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{items: cache.New(cache.NoExpiration, 0)}
	}
	return &Cache{items: cache.New(ttl, ttl*2)}
}

// Put stores s, replacing any earlier summary for the same source.
func (c *Cache) Put(s Summary) {
	if s.Source == "" {
		return
	}
	c.items.SetDefault(string(s.Source), s)
}

// Get returns the summary for id.
func (c *Cache) Get(id beat.SourceID) (Summary, bool) {
	v, ok := c.items.Get(string(id))
	if !ok {
		return Summary{}, false
	}
	s, ok := v.(Summary)
	return s, ok
}

// List returns every live summary, most recent first.
func (c *Cache) List() []Summary {
	items := c.items.Items()
	out := make([]Summary, 0, len(items))
	for _, it := range items {
		if s, ok := it.Object.(Summary); ok {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return b.AnalyzedAt.Compare(a.AnalyzedAt)
	})
	return out
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}
