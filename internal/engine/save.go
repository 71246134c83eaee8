package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/roach88/godseed/internal/domain"
)

// FlushDelay is the save coalescing window. Every mutation within
// FlushDelay of the first unsaved one lands in a single write.
const FlushDelay = 100 * time.Millisecond

// ErrNoPersister is returned by Load when the engine has no persister.
var ErrNoPersister = errors.New("engine has no persister")

func (e *Engine) markDirty(now time.Time) {
	if e.dirty {
		return
	}
	e.dirty = true
	e.flushAt = now.Add(FlushDelay)
}

// Dirty reports whether state changed since the last flush.
func (e *Engine) Dirty() bool {
	return e.dirty
}

func (e *Engine) flushIfDue(ctx context.Context, now time.Time) {
	if !e.dirty || now.Before(e.flushAt) {
		return
	}
	if err := e.Flush(ctx); err != nil {
		e.flushAt = now.Add(FlushDelay)
		e.logger.Warn("save failed", "slot", e.state.SaveSlot, "error", err)
	}
}

// Flush writes the current state to the persister immediately, along with
// any ending not yet recorded on the scoreboard.
func (e *Engine) Flush(ctx context.Context) error {
	if e.persister == nil {
		e.dirty = false
		e.pendingScore = nil
		return nil
	}

	blob, err := e.exportBytes()
	if err != nil {
		return newPersistError(err)
	}
	if err := e.persister.Save(ctx, e.state.SaveSlot, blob); err != nil {
		return newPersistError(err)
	}
	e.dirty = false

	if e.pendingScore != nil {
		if sr, ok := e.persister.(ScoreRecorder); ok {
			if err := sr.AppendScore(ctx, e.state.SaveSlot, *e.pendingScore); err != nil {
				return newPersistError(err)
			}
		}
		e.pendingScore = nil
	}
	e.logger.Debug("saved", "slot", e.state.SaveSlot, "bytes", len(blob))
	return nil
}

func (e *Engine) exportBytes() ([]byte, error) {
	return json.MarshalIndent(e.state, "", "  ")
}

// ExportSave serializes the whole aggregate. ImportSave accepts the same
// layout.
func (e *Engine) ExportSave() string {
	blob, err := e.exportBytes()
	if err != nil {
		// State holds only plain data; marshaling cannot fail.
		panic(err)
	}
	return string(blob)
}

// ImportSave restores an exported save. On failure it returns false and
// leaves state untouched.
func (e *Engine) ImportSave(blob string) bool {
	if err := e.Restore([]byte(blob)); err != nil {
		e.logger.Warn("import failed", "error", err)
		return false
	}
	return true
}

// Restore replaces the aggregate with a decoded save blob. The blob is fully
// validated before anything changes; on error state is untouched.
//
// Restoring starts a new epoch: tasks scheduled before the restore never
// run. Starved seeds in the blob get a fresh removal timer.
func (e *Engine) Restore(blob []byte) error {
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return newMalformedError(err)
	}
	if err := validate(&s); err != nil {
		return err
	}
	s.normalize()
	if s.EntropyRaw == 0 && s.Entropy > 0 {
		s.EntropyRaw = s.Entropy
	}
	s.EntropyRaw = min(maxEntropyRaw, s.EntropyRaw)
	s.Entropy = clampEntropy(s.EntropyRaw)
	s.IsPlaying = true

	now := e.clock.Now()
	e.state = s
	e.bumpEpoch()
	e.resetTransient()
	e.binder.Sync(s.Entropy)

	e.rescheduleStarved(now)
	e.logger.Info("save restored", "slot", s.SaveSlot, "entropy", s.Entropy, "seeds", len(s.PersistentSeeds))
	e.markDirty(now)
	return nil
}

func validate(s *State) error {
	if s.SaveSlot == "" {
		s.SaveSlot = domain.SlotA
	}
	if _, err := domain.ParseSlot(string(s.SaveSlot)); err != nil {
		return newFieldError("saveSlot", "%v", err)
	}
	if s.Season == "" {
		s.Season = domain.Spring
	}
	if !validSeason(s.Season) {
		return newFieldError("season", "unknown season %q", s.Season)
	}
	for _, v := range []float64{s.Entropy, s.EntropyRaw} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return newFieldError("entropy", "entropy %v out of range", v)
		}
	}
	for id, seed := range s.PersistentSeeds {
		if !validSeedState(seed.State) {
			return newFieldError("persistentSeeds", "seed %s has unknown state %q", id, seed.State)
		}
		if seed.Food < 0 || seed.Food > 1 || seed.Maturity < 0 || seed.Maturity > 1 {
			return newFieldError("persistentSeeds", "seed %s food or maturity outside [0,1]", id)
		}
	}
	for id, god := range s.PersistentGods {
		if _, err := domain.ParseDomain(string(god.Domain)); err != nil {
			return newFieldError("persistentGods", "god %s: %v", id, err)
		}
	}
	for d := range s.DomainAlignments {
		if _, err := domain.ParseDomain(string(d)); err != nil {
			return newFieldError("domainAlignments", "%v", err)
		}
	}
	return nil
}

func validSeason(s domain.Season) bool {
	for _, v := range domain.Seasons {
		if v == s {
			return true
		}
	}
	return false
}

func validSeedState(s domain.SeedState) bool {
	switch s {
	case domain.Planted, domain.Growing, domain.Mature, domain.Starved, domain.Awakened:
		return true
	}
	return false
}

// Load restores the save stored in slot.
func (e *Engine) Load(ctx context.Context, slot domain.Slot) error {
	if e.persister == nil {
		return ErrNoPersister
	}
	blob, err := e.persister.Load(ctx, slot)
	if err != nil {
		return err
	}
	if err := e.Restore(blob); err != nil {
		return err
	}
	e.state.SaveSlot = slot
	return nil
}

// ResetRun restarts the run. With preserveMeta the ecology, seasons, stats
// and scoreboard survive and only the narrative, entropy and ending reset;
// otherwise everything but the save slot starts fresh.
func (e *Engine) ResetRun(preserveMeta bool) {
	now := e.clock.Now()
	if preserveMeta {
		e.state.LineIndex = 0
		e.state.History = []HistoryEntry{}
		e.state.Seeds = 0
		e.state.Awakened = 0
		e.state.Entropy = 0
		e.state.EntropyRaw = 0
		e.state.IsPlaying = false
		e.state.RunOver = false
		e.state.Score = nil
		e.state.Ending = nil
	} else {
		e.state = initialState(now, e.state.SaveSlot)
	}
	e.bumpEpoch()
	e.resetTransient()
	e.rescheduleStarved(now)
	e.binder.Sync(0)
	e.logger.Info("run reset", "slot", e.state.SaveSlot, "preserve_meta", preserveMeta)
	e.markDirty(now)
}

// HardReset wipes everything, including the scoreboard.
func (e *Engine) HardReset() {
	e.ResetRun(false)
}

// SwitchSlot moves persistence to another slot without touching state.
func (e *Engine) SwitchSlot(slot domain.Slot) {
	e.state.SaveSlot = slot
	e.markDirty(e.clock.Now())
}

// rescheduleStarved gives every starved seed a fresh removal task in the
// current epoch.
func (e *Engine) rescheduleStarved(now time.Time) {
	for _, id := range sortedKeys(e.state.PersistentSeeds) {
		if seed := e.state.PersistentSeeds[id]; seed.State == domain.Starved {
			e.scheduleRemoval(id, seed.BornAt, now)
		}
	}
}

func (e *Engine) resetTransient() {
	e.current = nil
	e.lastClickAt = time.Time{}
}
