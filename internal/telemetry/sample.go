// Package telemetry records headless simulation runs as CSV, one row per
// sampling window.
package telemetry

import (
	"sync"
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
	"github.com/roach88/godseed/internal/event"
)

// Sample is one telemetry row: the run state at the end of a window plus
// the notifications seen during it.
type Sample struct {
	Frame       int           `csv:"frame"`
	SimMs       int64         `csv:"sim_ms"`
	Entropy     float64       `csv:"entropy"`
	EntropyRaw  float64       `csv:"entropy_raw"`
	Tier        domain.Tier   `csv:"tier"`
	Season      domain.Season `csv:"season"`
	SeasonCount int           `csv:"season_count"`

	// Ecology at window end
	Seeds  int `csv:"seeds"`
	Mature int `csv:"mature"`
	Gods   int `csv:"gods"`

	// Run totals
	Awakened  int     `csv:"awakened"`
	Starved   int     `csv:"starved"`
	Harvested int     `csv:"harvested"`
	Omens     int     `csv:"omens"`
	Score     float64 `csv:"score"`

	// Notifications during the window
	Events     int `csv:"events"`
	Thresholds int `csv:"thresholds"`
	Seizures   int `csv:"seizures"`

	Ending domain.Ending `csv:"ending"`
}

// FromState builds a sample from a snapshot. Event counts are left zero.
func FromState(frame int, elapsed time.Duration, s engine.State) Sample {
	smp := Sample{
		Frame:       frame,
		SimMs:       elapsed.Milliseconds(),
		Entropy:     s.Entropy,
		EntropyRaw:  s.EntropyRaw,
		Tier:        domain.TierOf(s.Entropy),
		Season:      s.Season,
		SeasonCount: s.SeasonCount,
		Seeds:       len(s.PersistentSeeds),
		Gods:        len(s.PersistentGods),
		Awakened:    s.Stats.Awakened,
		Starved:     s.Stats.Starved,
		Harvested:   s.Stats.Harvested,
		Omens:       s.Stats.OmenCount,
		Score:       engine.Score(s.Stats, s.SeasonCount, s.Entropy),
	}
	for _, seed := range s.PersistentSeeds {
		if seed.State == domain.Mature {
			smp.Mature++
		}
	}
	if s.Ending != nil {
		smp.Ending = s.Ending.Type
		smp.Score = s.Ending.Score
	}
	return smp
}

// Collector counts notifications between samples. Subscribe it to a bus.
//
// Thread-safety: Collector is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	events   int
	families map[event.Family]int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{families: make(map[event.Family]int)}
}

// Notify counts e.
func (c *Collector) Notify(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events++
	c.families[e.Family()]++
}

// Drain fills the event counts of s and resets the window.
func (c *Collector) Drain(s *Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Events = c.events
	s.Thresholds = c.families[event.FamilyThreshold]
	s.Seizures = c.families[event.FamilySeizure]
	c.events = 0
	clear(c.families)
}
