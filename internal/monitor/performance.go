package monitor

import (
	"slices"
	"sync"
	"time"

	"github.com/vk/plugflow/internal/process"
)

// Stats are the counters kept for one plug.
type Stats struct {
	Plug            string        `json:"plug" yaml:"plug"`
	HashCount       int           `json:"hashCount" yaml:"hashCount"`
	ComputeCount    int           `json:"computeCount" yaml:"computeCount"`
	HashCacheHits   int           `json:"hashCacheHits" yaml:"hashCacheHits"`
	ValueCacheHits  int           `json:"valueCacheHits" yaml:"valueCacheHits"`
	Errors          int           `json:"errors" yaml:"errors"`
	HashDuration    time.Duration `json:"hashDuration" yaml:"hashDuration"`
	ComputeDuration time.Duration `json:"computeDuration" yaml:"computeDuration"`
}

// Performance keeps per-plug counts and accumulated durations.
type Performance struct {
	mu    sync.Mutex
	stats map[string]*Stats
}

// NewPerformance returns an empty collector.
func NewPerformance() *Performance {
	return &Performance{stats: make(map[string]*Stats)}
}

// Observe implements process.Monitor.
func (p *Performance) Observe(e process.Event) {
	name := e.Plug.FullName()

	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[name]
	if !ok {
		s = &Stats{Plug: name}
		p.stats[name] = s
	}
	if e.Err != nil {
		s.Errors++
	}
	switch e.Kind {
	case process.KindHash:
		if e.CacheHit {
			s.HashCacheHits++
			return
		}
		s.HashCount++
		s.HashDuration += e.Duration
	case process.KindCompute:
		if e.CacheHit {
			s.ValueCacheHits++
			return
		}
		s.ComputeCount++
		s.ComputeDuration += e.Duration
	}
}

// Snapshot returns a copy of the statistics sorted by plug name.
func (p *Performance) Snapshot() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Stats, 0, len(p.stats))
	for _, s := range p.stats {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b Stats) int {
		switch {
		case a.Plug < b.Plug:
			return -1
		case a.Plug > b.Plug:
			return 1
		}
		return 0
	})
	return out
}

// Reset drops all statistics.
func (p *Performance) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = make(map[string]*Stats)
}
