package engine

import (
	"context"
	"time"
)

// DefaultFrameInterval is the frame period used by Run.
const DefaultFrameInterval = 16 * time.Millisecond

const (
	idleDrainInterval = time.Second
	idleDrainDelta    = -0.1
	omenEntropyLevel  = 90
)

// WithFrameInterval sets the frame period used by Run.
func WithFrameInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.frameInterval = d
		}
	}
}

// Step runs one frame at now. Queued commands run first, then, in order:
// persistent seed tick, awakening attempt on each 1.2s boundary, seasons,
// endings, focus seeds, idle decay, the once-a-second idle drain, the
// high-entropy omen check, due scheduled tasks and a debounced save.
//
// Step is the headless entry point; Run calls it from a ticker.
func (e *Engine) Step(now time.Time) {
	e.step(context.Background(), now)
}

func (e *Engine) step(ctx context.Context, now time.Time) {
	e.drain()

	prev := e.lastFrame
	dt := 0.0
	if !prev.IsZero() && now.After(prev) {
		dt = now.Sub(prev).Seconds()
	}
	e.lastFrame = now
	if e.lastDrain.IsZero() {
		e.lastDrain = now
	}

	if !e.state.RunOver {
		e.TickPersistentSeeds(dt, now)
		if !prev.IsZero() && crossedBoundary(prev, now, awakeningInterval) {
			e.AttemptAwakening(now)
		}
		e.TickSeasons(now)
		e.CheckEndings(now)
		e.TickSeeds(now)
		e.Decay(now)

		if now.Sub(e.lastDrain) >= idleDrainInterval {
			e.lastDrain = now
			if e.state.Entropy > 0 {
				e.modifyEntropyAt(idleDrainDelta, SourceIdleDrain, now)
			}
		}
		if e.state.Entropy >= omenEntropyLevel {
			e.triggerOmenAt(now)
		}
	}

	e.runDue(now)
	e.flushIfDue(ctx, now)
}

func crossedBoundary(prev, now time.Time, every time.Duration) bool {
	n := every.Milliseconds()
	return prev.UnixMilli()/n != now.UnixMilli()/n
}

// drain runs every queued command.
func (e *Engine) drain() {
	for {
		c, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		c(e)
	}
}

// Run drives the engine from a ticker until ctx is cancelled or Stop is
// called. Submitted commands run as soon as they arrive.
//
// CRITICAL: Must be called from exactly ONE goroutine, and no other
// goroutine may call Engine methods other than Submit and Stop while it
// runs.
//
// Pending state is flushed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()

	e.logger.Info("engine starting", "slot", e.state.SaveSlot, "frame", e.frameInterval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			e.drain()
			e.finalFlush(context.WithoutCancel(ctx))
			return ctx.Err()

		case <-e.queue.Wait():
			e.drain()
			if e.queue.Closed() {
				e.logger.Info("engine stopping: queue closed")
				e.finalFlush(ctx)
				return nil
			}

		case <-ticker.C:
			e.step(ctx, e.clock.Now())
		}
	}
}

func (e *Engine) finalFlush(ctx context.Context) {
	if !e.dirty && e.pendingScore == nil {
		return
	}
	if err := e.Flush(ctx); err != nil {
		e.logger.Warn("final save failed", "slot", e.state.SaveSlot, "error", err)
	}
}
