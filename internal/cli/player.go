package cli

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
)

const (
	surfaceWidth  = 800
	surfaceHeight = 600

	feedEvery     = time.Second
	godClickEvery = 5 * time.Second
)

// autoPlayer is the scripted player of a headless run. It taps the surface
// at a fixed rate, feeds the hungriest seed once a second, pets a god every
// few seconds and answers choices at random.
type autoPlayer struct {
	rnd             *rand.Rand
	clicksPerSecond float64

	clickDebt float64
	lastFeed  time.Time
	lastGod   time.Time
	clicks    int
	answered  int // line index of the last answered choice, -1 for none
}

func newAutoPlayer(seed uint64, clicksPerSecond float64) *autoPlayer {
	return &autoPlayer{
		rnd:             rand.New(rand.NewPCG(seed, seed+1)),
		clicksPerSecond: clicksPerSecond,
		answered:        -1,
	}
}

// act performs whatever the player does during a frame of length dt ending
// at now.
func (p *autoPlayer) act(e *engine.Engine, dt time.Duration, now time.Time) {
	if e.RunOver() {
		return
	}

	p.clickDebt += dt.Seconds() * p.clicksPerSecond
	for p.clickDebt >= 1 {
		p.clickDebt--
		p.clicks++
		if line := e.Snapshot().LineIndex; line != p.answered {
			if choices := e.PendingChoices(); len(choices) > 0 {
				p.answered = line
				if e.Tier() == domain.Fever && p.rnd.IntN(4) == 0 && e.FalseChoice(now) {
					continue
				}
				e.Choose(p.rnd.IntN(len(choices)), now)
				continue
			}
		}
		e.Click(p.rnd.Float64()*surfaceWidth, p.rnd.Float64()*surfaceHeight, now)
	}

	if now.Sub(p.lastFeed) >= feedEvery {
		p.lastFeed = now
		if id := hungriest(e.Snapshot()); id != "" {
			e.FeedSeed(id, now)
		}
	}

	if now.Sub(p.lastGod) >= godClickEvery {
		p.lastGod = now
		gods := sortedKeys(e.Snapshot().PersistentGods)
		if len(gods) > 0 {
			e.ClickPersistentGod(gods[p.rnd.IntN(len(gods))], now)
		}
	}
}

// hungriest returns the living seed with the least food, ties broken by id.
func hungriest(s engine.State) string {
	best := ""
	for _, id := range sortedKeys(s.PersistentSeeds) {
		seed := s.PersistentSeeds[id]
		if seed.State.Terminal() {
			continue
		}
		if best == "" || seed.Food < s.PersistentSeeds[best].Food {
			best = id
		}
	}
	return best
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
