// Package engine implements the godseed simulation: entropy, the persistent
// seed and god ecology, seasons, endings and save state.
//
// The engine owns one State aggregate. Every mutation is an Engine method,
// and every entropy change or lifecycle transition is reported to a
// binder.Binder, which turns it into events for the audio and FX routers.
// Subscribers never see State and cannot mutate it.
//
// ARCHITECTURE:
//
// Single-Writer Frame Loop:
// All mutation happens on one goroutine. Run drives Step from a ticker;
// other goroutines hand work over with Submit, and the loop drains the
// command queue before every frame. Headless callers (the CLI simulator,
// the scenario harness, tests) call Step directly with explicit times.
//
// Frame Order:
//  1. queued commands
//  2. TickPersistentSeeds (food decay, growth, starvation)
//  3. AttemptAwakening on every 1.2s boundary
//  4. TickSeasons, CheckEndings
//  5. TickSeeds, Decay (focus seeds, idle decay, boon/price expiry)
//  6. once-a-second idle drain and the high-entropy omen check
//  7. due scheduled tasks, then a debounced save
//
// CRITICAL PATTERNS:
//
// Injectable Randomness:
// Every probabilistic outcome draws from one Rand. WithSeed or WithRand
// makes a run reproducible.
//
// Epoch-Guarded Tasks:
// Delayed mutations (starved seed removal, the stone sleep re-check) are
// scheduled tasks tagged with the engine epoch. Reset and restore bump the
// epoch, so a task scheduled before them never acts on regenerated ids.
// Each task also re-checks that its target is still the entity it meant.
//
// Debounced Persistence:
// The first mutation after a flush opens a FlushDelay window; everything
// that changes inside it is written once when the window closes. Flushes
// happen on the loop goroutine, never from a timer.
package engine
