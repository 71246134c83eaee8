package engine

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/roach88/godseed/internal/binder"
	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/story"
)

// Rand is the single uniform random source behind every probabilistic
// outcome (starvation, awakening, season length, spawn jitter, flavor text).
// Float64 must return values in [0,1).
type Rand interface {
	Float64() float64
}

// Persister stores and loads save blobs by slot.
// Implemented by store.SlotSaver.
type Persister interface {
	Save(ctx context.Context, slot domain.Slot, blob []byte) error
	Load(ctx context.Context, slot domain.Slot) ([]byte, error)
}

// ScoreRecorder is implemented by persisters that also keep a scoreboard.
// The engine appends every ending to it when present.
type ScoreRecorder interface {
	AppendScore(ctx context.Context, slot domain.Slot, ending Ending) error
}

// Entropy sources. Passive sources do not count as player interaction.
const (
	SourceManualTick    = "manual-tick"
	SourceIdleDrain     = "idle-drain"
	SourceIdleDecay     = "idle-decay"
	SourceRotBleed      = "rot-bleed"
	SourceFastClick     = "fast-click"
	SourceAdvanceLine   = "advance-line"
	SourceViableSeed    = "viable-seed"
	SourceRotSeed       = "rot-seed"
	SourceSeedFeed      = "seed-feed"
	SourceSeedStarve    = "seed-starve"
	SourceGodAwaken     = "god-awaken"
	SourceOmenRelease   = "omen-release"
	SourceChoiceTimeout = "choice-timeout"
	SourceFalseChoice   = "false-choice"
)

func passiveSource(source string) bool {
	switch source {
	case SourceIdleDrain, SourceIdleDecay, SourceRotBleed:
		return true
	}
	return false
}

// Engine owns the simulation aggregate.
//
// Every mutation goes through an Engine method. Subscribers only ever see
// events emitted by the binder and cannot reach back into State.
//
// Thread-safety model:
//   - Engine methods must be called from exactly one goroutine.
//   - While Run owns the engine, other goroutines use Submit.
//   - Snapshot returns a deep copy and is the only way state leaves the engine.
type Engine struct {
	state     State
	binder    *binder.Binder
	rand      Rand
	clock     Clock
	ids       IDGenerator
	content   *story.Content
	persister Persister
	logger    *slog.Logger

	queue         *commandQueue
	tasks         *scheduler
	frameInterval time.Duration

	// epoch increments on every reset or restore. Scheduled tasks from an
	// older epoch are dropped.
	epoch uint64

	dirty        bool
	flushAt      time.Time
	pendingScore *Ending

	// current caches the line chosen for the present story position.
	current *story.Line

	lastClickAt time.Time
	lastFrame   time.Time
	lastDrain   time.Time

	// stoneGen increments whenever the garden is observed non-empty, which
	// invalidates any pending stone sleep check.
	stoneGen     uint64
	stonePending bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source.
func WithRand(r Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithSeed seeds a PCG random source.
// Two engines built with the same seed and driven by the same commands
// produce identical state.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithClock sets the clock used by commands without an explicit now.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDs sets the id generator for seeds and gods.
func WithIDs(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithBinder sets the binder that receives every entropy change and
// lifecycle transition.
func WithBinder(b *binder.Binder) Option {
	return func(e *Engine) {
		e.binder = b
	}
}

// WithPersister enables debounced persistence to the given slot store.
func WithPersister(p Persister) Option {
	return func(e *Engine) {
		e.persister = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithContent sets the story content. Defaults to story.Fallback().
func WithContent(c *story.Content) Option {
	return func(e *Engine) {
		e.content = c
	}
}

// WithSlot selects the save slot of a fresh run. Defaults to A.
func WithSlot(slot domain.Slot) Option {
	return func(e *Engine) {
		e.state.SaveSlot = slot
	}
}

// New creates an engine holding a fresh run.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:  SystemClock{},
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		queue:  newCommandQueue(),
		tasks:  newScheduler(),

		frameInterval: DefaultFrameInterval,
	}
	e.state.SaveSlot = domain.SlotA

	for _, opt := range opts {
		opt(e)
	}

	if e.rand == nil {
		e.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.binder == nil {
		e.binder = binder.New(nil, nil, binder.WithLogger(e.logger))
	}
	if e.content == nil {
		e.content = story.Fallback()
	}

	e.state = initialState(e.clock.Now(), e.state.SaveSlot)
	e.binder.Sync(0)
	return e
}

// Binder returns the binder the engine notifies.
func (e *Engine) Binder() *binder.Binder {
	return e.binder
}

// Content returns the story content.
func (e *Engine) Content() *story.Content {
	return e.content
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	return e.state.clone()
}

// Entropy returns the clamped entropy value.
func (e *Engine) Entropy() float64 {
	return clampEntropy(e.state.EntropyRaw)
}

// Tier returns the tier of the current entropy.
func (e *Engine) Tier() domain.Tier {
	return domain.TierOf(e.Entropy())
}

// TierOf classifies an entropy value.
func TierOf(entropy float64) domain.Tier {
	return domain.TierOf(entropy)
}

// RunOver reports whether the run has ended.
func (e *Engine) RunOver() bool {
	return e.state.RunOver
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// maxEntropyRaw caps the raw accumulator so it stays finite.
const maxEntropyRaw = 1e6

func clampEntropy(raw float64) float64 {
	return min(100, max(0, round2(raw)))
}

// ModifyEntropy adds delta to the raw accumulator and notifies the binder of
// the clamped before/after values. The raw value never drops below zero but
// may exceed 100, up to maxEntropyRaw. NaN and infinite deltas are ignored.
func (e *Engine) ModifyEntropy(delta float64, source string) {
	e.modifyEntropyAt(delta, source, e.clock.Now())
}

func (e *Engine) modifyEntropyAt(delta float64, source string, now time.Time) {
	if e.state.RunOver || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	prev := e.state.Entropy
	e.state.EntropyRaw = min(maxEntropyRaw, max(0, e.state.EntropyRaw+delta))
	e.state.Entropy = clampEntropy(e.state.EntropyRaw)
	if !passiveSource(source) {
		e.state.LastInteraction = now
	}

	if TierOf(prev) != TierOf(e.state.Entropy) {
		e.logger.Debug("entropy tier changed",
			"from", TierOf(prev),
			"tier", TierOf(e.state.Entropy),
			"source", source,
		)
	}
	e.binder.Observe(prev, e.state.Entropy)
	e.markDirty(now)
}

// TickEntropy applies a manual entropy delta.
func (e *Engine) TickEntropy(delta float64) {
	e.ModifyEntropy(delta, SourceManualTick)
}

// Submit queues a command for the loop goroutine.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Submit(c Command) bool {
	return e.queue.Enqueue(c)
}

// Stop closes the command queue, which causes Run to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// QueueLen returns the number of commands waiting for the loop.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

func (e *Engine) pick(n int) int {
	return min(int(e.rand.Float64()*float64(n)), n-1)
}

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rand.Float64()*(hi-lo)
}

func (e *Engine) randomDomain() domain.Domain {
	return domain.Domains[e.pick(len(domain.Domains))]
}
