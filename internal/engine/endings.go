package engine

import (
	"time"

	"github.com/roach88/godseed/internal/domain"
)

const (
	chorusAwakened = 15
	chorusEntropy  = 15
	chorusCycles   = 3

	famineStarved = 50
	famineEntropy = 95
	famineCycles  = 2

	stoneSleepDelay = 30 * time.Second
)

// CheckEndings evaluates the three endings in priority order. Once the run is
// over nothing changes the recorded ending.
//
// Stone sleep needs an empty garden for thirty continuous seconds: the first
// empty observation schedules a re-check, and any non-empty observation in
// between cancels it.
func (e *Engine) CheckEndings(now time.Time) {
	if e.state.RunOver {
		return
	}
	st := e.state.Stats
	entropy := e.state.Entropy
	cycles := e.state.SeasonCount

	if st.Awakened >= chorusAwakened && entropy < chorusEntropy && cycles >= chorusCycles {
		e.endRun(domain.AscendantChorus, now)
		return
	}
	if st.Starved >= famineStarved || (entropy >= famineEntropy && cycles >= famineCycles) {
		e.endRun(domain.GardenFamine, now)
		return
	}

	if !e.gardenEmpty() {
		if e.stonePending {
			e.stoneGen++
			e.stonePending = false
		}
		return
	}
	if e.stonePending {
		return
	}
	e.stonePending = true
	gen := e.stoneGen
	e.schedule("stone-sleep", now.Add(stoneSleepDelay), func(e *Engine, at time.Time) {
		if gen != e.stoneGen {
			return
		}
		e.stonePending = false
		if e.gardenEmpty() {
			e.endRun(domain.StoneSleep, at)
		}
	})
}

func (e *Engine) gardenEmpty() bool {
	return len(e.state.PersistentSeeds) == 0 && len(e.state.PersistentGods) == 0
}

// CalculateScore scores the run so far:
//
//	100·awakened + 25·cycles + 8·harvested − 5·starved − 2·falseChoices
//	+ max(0, 120 − 4·entropy) + 60 − 10·min(6, omens)
//
// floored at zero.
func (e *Engine) CalculateScore() float64 {
	return Score(e.state.Stats, e.state.SeasonCount, e.state.Entropy)
}

// Score is the pure scoring function behind CalculateScore.
func Score(st Stats, cycles int, entropy float64) float64 {
	base := 100*float64(st.Awakened) + 25*float64(cycles) + 8*float64(st.Harvested)
	penalty := 5*float64(st.Starved) + 2*float64(st.FalseChoicesTaken)
	discipline := max(0, 120-4*entropy)
	omens := 60 - 10*float64(min(6, st.OmenCount))
	return max(0, base-penalty+discipline+omens)
}

func (e *Engine) endRun(kind domain.Ending, now time.Time) {
	if e.state.RunOver {
		return
	}
	score := e.CalculateScore()
	ending := Ending{Type: kind, Score: score, Timestamp: now}

	e.state.RunOver = true
	e.state.Score = &score
	e.state.Ending = &ending
	e.state.LastScoreboard = append(e.state.LastScoreboard, ScoreEntry{Score: score, Timestamp: now})
	if n := len(e.state.LastScoreboard); n > scoreboardSize {
		e.state.LastScoreboard = e.state.LastScoreboard[n-scoreboardSize:]
	}
	e.pendingScore = &ending

	e.logger.Info("run ended", "ending", kind, "score", score, "slot", e.state.SaveSlot)
	e.binder.Omen()
	e.binder.GameEnd(kind, score)
	e.markDirty(now)
}
