package audio

import (
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/roach88/godseed/internal/event"
	"github.com/roach88/godseed/internal/loop"
)

// Playback is one request to the player.
type Playback struct {
	Cue  Cue
	Gain float64
	Rate float64

	// Loop cues only. When FullBuffer is set the whole file loops and
	// LoopStart/LoopEnd are zero.
	LoopStart   int
	LoopEnd     int
	CrossfadeMs float64
	FullBuffer  bool
}

// Player is the sound output. Implementations must not block.
type Player interface {
	Play(p Playback)
	Stop(cueID string)
	Duck(amount float64, d time.Duration)
}

// Clock supplies the time used for cue cooldowns.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Rand supplies playback-rate variation.
type Rand interface {
	Float64() float64
}

// Settings are the listener's preferences.
type Settings struct {
	MasterVolume float64
	Muted        bool
	CueVolumes   map[string]float64
}

// DefaultSettings matches a fresh install.
func DefaultSettings() Settings {
	return Settings{MasterVolume: 0.7}
}

// Router dispatches events from the binder's audio channel to a Player
// through the catalog's routing table.
//
// Thread-safety: Router is safe for concurrent use. Player calls happen while
// the router lock is held, so a Player must not call back into the Router.
type Router struct {
	catalog *Catalog
	routes  map[string][]Route
	player  Player
	meta    loop.MetadataMap
	entropy func() float64
	clock   Clock
	rnd     Rand
	logger  *slog.Logger

	mu        sync.Mutex
	settings  Settings
	cooldowns map[string]time.Time
	active    map[string]bool
}

// Option configures a Router.
type Option func(*Router)

// WithMetadata sets the loop metadata used for loop cues.
func WithMetadata(m loop.MetadataMap) Option {
	return func(r *Router) { r.meta = m }
}

// WithEntropy sets the source of the current entropy for cue windows.
// Without one, windows are not checked.
func WithEntropy(f func() float64) Option {
	return func(r *Router) { r.entropy = f }
}

// WithClock sets the cooldown clock.
func WithClock(c Clock) Option {
	return func(r *Router) { r.clock = c }
}

// WithRand sets the rate variation source.
func WithRand(rnd Rand) Option {
	return func(r *Router) { r.rnd = rnd }
}

// WithSettings sets the initial listener settings.
func WithSettings(s Settings) Option {
	return func(r *Router) { r.settings = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// NewRouter creates a Router over catalog. A nil player discards playback.
func NewRouter(catalog *Catalog, player Player, opts ...Option) *Router {
	if player == nil {
		player = discardPlayer{}
	}
	r := &Router{
		catalog:   catalog,
		routes:    make(map[string][]Route),
		player:    player,
		clock:     systemClock{},
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:    slog.Default(),
		settings:  DefaultSettings(),
		cooldowns: make(map[string]time.Time),
		active:    make(map[string]bool),
	}
	for _, route := range catalog.Routes {
		r.routes[route.When] = append(r.routes[route.When], route)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Notify applies every route whose when matches the event name.
func (r *Router) Notify(e event.Event) {
	routes := r.routes[e.Name()]

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, route := range routes {
		for _, id := range route.Play {
			r.play(id)
		}
		for _, id := range route.Stop {
			r.stop(id)
		}
		if route.Duck > 0 && route.ForMs > 0 && !r.settings.Muted {
			r.player.Duck(route.Duck, time.Duration(route.ForMs)*time.Millisecond)
		}
	}
}

func (r *Router) play(id string) {
	if r.settings.Muted {
		return
	}
	cue, ok := r.catalog.Cue(id)
	if !ok {
		r.logger.Debug("unknown cue", "cue", id)
		return
	}
	if r.entropy != nil && !cue.InWindow(r.entropy()) {
		return
	}

	p := Playback{Cue: cue, Gain: r.gain(cue), Rate: r.rate(cue)}

	if cue.Type == CueLoop {
		if r.active[id] {
			r.player.Stop(id)
		}
		if md, ok := r.meta.Lookup(cue.Src); ok && md.IsLoopable {
			p.LoopStart = md.LoopStart
			p.LoopEnd = md.LoopEnd
			p.CrossfadeMs = md.CrossfadeMs
		} else {
			p.FullBuffer = true
		}
		r.active[id] = true
		r.player.Play(p)
		return
	}

	now := r.clock.Now()
	if last, ok := r.cooldowns[id]; ok && now.Sub(last) < time.Duration(cue.CooldownMs)*time.Millisecond {
		return
	}
	r.cooldowns[id] = now
	r.player.Play(p)
}

func (r *Router) stop(id string) {
	if !r.active[id] {
		return
	}
	delete(r.active, id)
	r.player.Stop(id)
}

func (r *Router) gain(c Cue) float64 {
	v := 1.0
	if cv, ok := r.settings.CueVolumes[c.ID]; ok {
		v = cv
	}
	return c.Gain * v * r.settings.MasterVolume
}

func (r *Router) rate(c Cue) float64 {
	if len(c.RateVar) != 2 {
		return 1
	}
	lo, hi := c.RateVar[0], c.RateVar[1]
	return lo + r.rnd.Float64()*(hi-lo)
}

// SetMuted mutes or unmutes. Muting stops every active loop.
func (r *Router) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Muted = muted
	if muted {
		for _, id := range slices.Sorted(maps.Keys(r.active)) {
			r.stop(id)
		}
	}
}

// SetMasterVolume sets the master volume, clamped to [0,1]. It applies to
// the next playback.
func (r *Router) SetMasterVolume(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.MasterVolume = max(0, min(1, v))
}

// Settings returns the current listener settings.
func (r *Router) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.settings
	s.CueVolumes = maps.Clone(s.CueVolumes)
	return s
}

// ActiveLoops lists the loop cues currently playing, sorted.
func (r *Router) ActiveLoops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.active))
}

type discardPlayer struct{}

func (discardPlayer) Play(Playback)               {}
func (discardPlayer) Stop(string)                 {}
func (discardPlayer) Duck(float64, time.Duration) {}

// LogPlayer logs every playback request. The headless runner uses it in
// place of a sound device.
type LogPlayer struct {
	Logger *slog.Logger
}

func (p LogPlayer) Play(pb Playback) {
	p.Logger.Debug("audio play", "cue", pb.Cue.ID, "gain", pb.Gain, "rate", pb.Rate, "full_buffer", pb.FullBuffer)
}

func (p LogPlayer) Stop(id string) {
	p.Logger.Debug("audio stop", "cue", id)
}

func (p LogPlayer) Duck(amount float64, d time.Duration) {
	p.Logger.Debug("audio duck", "amount", amount, "for", d)
}
