// Package fx maps binder notifications onto visual effect toggles.
//
// The router keeps the set of active effect classes. A renderer reads it with
// Active or Classes each frame; nothing here touches simulation state. Timed
// effects (seizure and omen flashes, the text rift) carry an expiry and are
// cleared by Sweep.
package fx

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/event"
)

// Effect is a visual effect, rendered as the CSS-style class "fx--<effect>".
type Effect string

const (
	Shimmer        Effect = "shimmer"
	Flicker        Effect = "flicker"
	IntenseFlicker Effect = "intense-flicker"
	BloomPulse     Effect = "bloom-pulse"
	Vignette       Effect = "vignette"
	Scanline       Effect = "scanline"
	Whiteout       Effect = "whiteout"
	TextRift       Effect = "text-rift"
)

// Class returns the class name for e.
func (e Effect) Class() string { return "fx--" + string(e) }

const (
	seizureFlash = 500 * time.Millisecond
	omenFlash    = 3 * time.Second
	riftDuration = 2 * time.Second
)

var (
	seedEffects = map[event.SeedKind]Effect{
		event.SeedSpawn:       BloomPulse,
		event.SeedExpire:      Vignette,
		event.SeedClickViable: BloomPulse,
		event.SeedClickRot:    Scanline,
		event.SeedFeed:        BloomPulse,
		event.SeedStarve:      Vignette,
		event.SeedMature:      Shimmer,
	}
	godEffects = map[event.GodKind]Effect{
		event.GodSpawn:       Shimmer,
		event.GodBargainOpen: BloomPulse,
		event.GodAwaken:      BloomPulse,
	}
	boonEffects = map[domain.Boon]Effect{
		domain.Harvest:   BloomPulse,
		domain.Stillness: Vignette,
		domain.Veil:      Shimmer,
		domain.Echo:      BloomPulse,
	}
	priceEffects = map[domain.Price]Effect{
		domain.TithedBreath: Scanline,
		domain.StoneDue:     Flicker,
		domain.AshTax:       Scanline,
		domain.DreamDebt:    Shimmer,
	}
	tierEffects = map[domain.Tier]Effect{
		domain.Pulse:  Shimmer,
		domain.Fever:  Flicker,
		domain.Famine: Scanline,
	}
	seasonEffects = map[domain.Season]Effect{
		domain.Spring: Shimmer,
		domain.Summer: BloomPulse,
		domain.Autumn: Flicker,
		domain.Winter: Scanline,
	}
	endingEffects = map[domain.Ending]Effect{
		domain.AscendantChorus: BloomPulse,
		domain.GardenFamine:    Vignette,
		domain.StoneSleep:      Shimmer,
	}
)

// Clock supplies the time used for timed effects.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Router tracks active effects.
//
// Thread-safety: Router is safe for concurrent use.
type Router struct {
	clock  Clock
	logger *slog.Logger

	mu           sync.Mutex
	reduceMotion bool
	active       map[Effect]bool
	expiry       map[Effect]time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithClock sets the clock used for timed effects.
func WithClock(c Clock) Option {
	return func(r *Router) { r.clock = c }
}

// WithReduceMotion starts the router with motion reduced.
func WithReduceMotion(reduce bool) Option {
	return func(r *Router) { r.reduceMotion = reduce }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a Router with no active effects.
func NewRouter(opts ...Option) *Router {
	r := &Router{
		clock:  systemClock{},
		logger: slog.Default(),
		active: make(map[Effect]bool),
		expiry: make(map[Effect]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Notify applies the effect mapping for e.
func (r *Router) Notify(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.sweep(now)

	switch v := e.(type) {
	case event.ThresholdCrossed:
		r.threshold(v)
	case event.Seizure:
		r.flash(now, seizureFlash)
	case event.TierChanged:
		if !v.Entering {
			return
		}
		if v.Tier == domain.Seizure {
			r.flash(now, seizureFlash)
			return
		}
		addFrom(r, tierEffects, v.Tier)
	case event.ChoiceOpen:
		r.add(BloomPulse)
	case event.CorruptionInject:
		// The rift marks text, not the scene, so it ignores reduce-motion.
		r.active[TextRift] = true
		r.expiry[TextRift] = now.Add(riftDuration)
	case event.Omen:
		r.flash(now, omenFlash)
	case event.SeedLifecycle:
		addFrom(r, seedEffects, v.Kind)
	case event.GodLifecycle:
		addFrom(r, godEffects, v.Kind)
	case event.BoonApplied:
		addFrom(r, boonEffects, v.Boon)
	case event.PriceApplied:
		addFrom(r, priceEffects, v.Price)
	case event.SeasonEntered:
		addFrom(r, seasonEffects, v.Season)
	case event.GameEnded:
		addFrom(r, endingEffects, v.Ending)
	}
}

func (r *Router) threshold(v event.ThresholdCrossed) {
	if !v.Entering {
		switch v.Threshold {
		case 40:
			r.remove(Shimmer)
		case 60:
			r.remove(Flicker)
		case 80, 90:
			r.remove(IntenseFlicker)
		}
		return
	}
	switch v.Threshold {
	case 40:
		r.add(Shimmer)
	case 60:
		r.add(Flicker)
	case 80:
		if r.reduceMotion {
			return
		}
		r.remove(Flicker)
		r.add(IntenseFlicker)
	case 90:
		r.add(IntenseFlicker)
	}
}

func addFrom[K comparable](r *Router, m map[K]Effect, k K) {
	if fx, ok := m[k]; ok {
		r.add(fx)
	}
}

func (r *Router) add(fx Effect) {
	if r.reduceMotion {
		return
	}
	if !r.active[fx] {
		r.logger.Debug("fx add", "effect", fx)
	}
	r.active[fx] = true
}

// flash shows whiteout and scanline for d. A flash removes both when it
// expires, even if scanline was also switched on by something else.
func (r *Router) flash(now time.Time, d time.Duration) {
	if r.reduceMotion {
		return
	}
	until := now.Add(d)
	for _, fx := range []Effect{Whiteout, Scanline} {
		r.add(fx)
		if until.After(r.expiry[fx]) {
			r.expiry[fx] = until
		}
	}
}

func (r *Router) remove(fx Effect) {
	if r.active[fx] {
		r.logger.Debug("fx remove", "effect", fx)
	}
	delete(r.active, fx)
	delete(r.expiry, fx)
}

// Sweep clears timed effects that have expired at now.
func (r *Router) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(now)
}

func (r *Router) sweep(now time.Time) {
	for fx, until := range r.expiry {
		if !now.Before(until) {
			r.remove(fx)
		}
	}
}

// Active returns the active effects, sorted.
func (r *Router) Active() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.active))
}

// Classes returns the class names of the active effects, sorted.
func (r *Router) Classes() []string {
	var out []string
	for _, fx := range r.Active() {
		out = append(out, fx.Class())
	}
	return out
}

// IsActive reports whether fx is on.
func (r *Router) IsActive(fx Effect) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[fx]
}

// SetReduceMotion toggles reduce-motion. Turning it on does not clear
// effects that are already showing.
func (r *Router) SetReduceMotion(reduce bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reduceMotion = reduce
}

// Clear removes every effect.
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.active)
	clear(r.expiry)
}
