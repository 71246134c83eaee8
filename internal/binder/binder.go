// Package binder turns continuous entropy changes and discrete lifecycle
// transitions into edge-triggered notifications on two independent channels:
// one facing audio, one facing visual effects.
//
// The binder is an observer. It holds only the last entropy value it saw and
// a short window of recent click timestamps; it never reaches back into the
// simulation. Every emission is synchronous on the caller's goroutine.
package binder

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/event"
)

const (
	// BurstWindow is how long a click stays in the burst window.
	BurstWindow = 800 * time.Millisecond

	// BurstThreshold is the number of in-window clicks that counts as a burst.
	BurstThreshold = 3
)

// Binder emits notifications on its audio and FX channels.
//
// Thread-safety: Binder is safe for concurrent use; emission happens outside
// the internal lock so subscribers may call read-only Binder methods.
type Binder struct {
	audio  event.Notifier
	fx     event.Notifier
	logger *slog.Logger

	mu     sync.Mutex
	last   float64
	clicks []time.Time
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger used for debug traces of emitted events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		b.logger = l
	}
}

// New creates a Binder. Nil notifiers are replaced with event.Discard.
func New(audio, fx event.Notifier, opts ...Option) *Binder {
	if audio == nil {
		audio = event.Discard
	}
	if fx == nil {
		fx = event.Discard
	}
	b := &Binder{
		audio:  audio,
		fx:     fx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Last returns the last entropy value the binder observed.
func (b *Binder) Last() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Sync sets the last observed value without emitting anything.
// Used after a restore or reset so the next change is measured from the
// restored value rather than producing a burst of catch-up events.
func (b *Binder) Sync(value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = value
}

// UpdateEntropy compares value against the last observed value and emits
// the resulting edge events.
func (b *Binder) UpdateEntropy(value float64) {
	b.mu.Lock()
	prev := b.last
	b.last = value
	b.mu.Unlock()

	b.emitCrossings(prev, value)
}

// Observe emits the edge events for an explicit prev→next transition and
// records next as the last observed value.
func (b *Binder) Observe(prev, next float64) {
	b.mu.Lock()
	b.last = next
	b.mu.Unlock()

	b.emitCrossings(prev, next)
}

// Crossings returns the events a transition from prev to next produces, in
// emission order: tier exit/enter, threshold crossings ascending, seizure.
func Crossings(prev, next float64) []event.Event {
	var out []event.Event

	if from, to := domain.TierOf(prev), domain.TierOf(next); from != to {
		out = append(out,
			event.TierChanged{Tier: from},
			event.TierChanged{Tier: to, Entering: true},
		)
	}

	for _, t := range event.Thresholds {
		level := float64(t)
		switch {
		case prev < level && next >= level:
			out = append(out, event.ThresholdCrossed{Threshold: t, Entering: true})
		case prev >= level && next < level:
			out = append(out, event.ThresholdCrossed{Threshold: t})
		}
	}

	if prev < event.SeizureLevel && next >= event.SeizureLevel {
		out = append(out, event.Seizure{})
	}
	return out
}

func (b *Binder) emitCrossings(prev, next float64) {
	for _, e := range Crossings(prev, next) {
		b.both(e)
	}
}

// RecordClick records an interaction at now and fires entropy.tick.fast on
// the audio channel for as long as the burst condition holds.
// It returns whether the click was part of a burst.
func (b *Binder) RecordClick(now time.Time) bool {
	b.mu.Lock()
	b.clicks = append(b.clicks, now)
	b.clicks = slices.DeleteFunc(b.clicks, func(ts time.Time) bool {
		return now.Sub(ts) > BurstWindow
	})
	burst := len(b.clicks) >= BurstThreshold
	b.mu.Unlock()

	if burst {
		b.audioOnly(event.EntropyTick{Fast: true})
	}
	return burst
}

// SeedFlag fires story.flags.seed.
func (b *Binder) SeedFlag() { b.both(event.StoryFlag{Flag: event.FlagSeed}) }

// AwakenFlag fires story.flags.awaken.
func (b *Binder) AwakenFlag() { b.both(event.StoryFlag{Flag: event.FlagAwaken}) }

// ChoiceOpen fires ui.choice.open.
func (b *Binder) ChoiceOpen() { b.both(event.ChoiceOpen{}) }

// CorruptionInject fires corruption.inject on both channels followed by one
// corruption.tag.<tag> per tag on the audio channel.
func (b *Binder) CorruptionInject(text string, tags []string) {
	tags = slices.Clone(tags)
	if tags == nil {
		tags = []string{}
	}
	b.both(event.CorruptionInject{Text: text, Tags: tags})
	for _, tag := range tags {
		b.audioOnly(event.CorruptionTag{Tag: tag})
	}
}

// EntropyTick fires entropy.tick.fast or entropy.tick.normal.
func (b *Binder) EntropyTick(fast bool) { b.both(event.EntropyTick{Fast: fast}) }

// Omen fires omen.trigger.
func (b *Binder) Omen() { b.both(event.Omen{}) }

// Seed fires a seed lifecycle event.
func (b *Binder) Seed(kind event.SeedKind, id string) {
	b.both(event.SeedLifecycle{Kind: kind, ID: id})
}

// God fires a god lifecycle event.
func (b *Binder) God(kind event.GodKind, id string) {
	b.both(event.GodLifecycle{Kind: kind, ID: id})
}

// Boon fires god.boon.<boon>.
func (b *Binder) Boon(boon domain.Boon) { b.both(event.BoonApplied{Boon: boon}) }

// Price fires god.price.<price>.
func (b *Binder) Price(price domain.Price) { b.both(event.PriceApplied{Price: price}) }

// SeasonChange fires season.enter.<season>.
func (b *Binder) SeasonChange(s domain.Season) { b.both(event.SeasonEntered{Season: s}) }

// GameEnd fires ending.<ending>.
func (b *Binder) GameEnd(ending domain.Ending, score float64) {
	b.both(event.GameEnded{Ending: ending, Score: score})
}

func (b *Binder) both(e event.Event) {
	b.logger.Debug("emit", "event", event.String(e))
	b.audio.Notify(e)
	b.fx.Notify(e)
}

func (b *Binder) audioOnly(e event.Event) {
	b.logger.Debug("emit", "event", event.String(e), "channel", "audio")
	b.audio.Notify(e)
}
