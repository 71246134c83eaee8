package engine

import (
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/event"
	"github.com/roach88/godseed/internal/story"
)

// Focus seed and god tuning.
const (
	focusViableBase      = 2500.0
	focusViableJitter    = 2500.0
	focusViableEntropy   = 6.0
	focusViableMin       = 1200.0
	focusSpread          = 200.0
	focusEdge            = 32.0
	focusRotDuration     = 4 * time.Second
	rotBleedPerFrame     = 0.02 / 60
	viableClickEntropy   = -0.07
	rotClickEntropy      = 0.12
	focusGodJitter       = 96.0
	focusGodCooldown     = 12 * time.Second
	idleDecayAfter       = 3 * time.Second
	idleDecayPerFrame    = 0.01 / 60
	stillnessDecayFactor = 1.6
	tithedDecayFactor    = 0.7
	omenCooldown         = 10 * time.Second
	omenEntropy          = -0.8
)

var (
	microLore = []string{
		"root drinks deeper",
		"the soil remembers",
		"tendrils spread",
		"earth whispers back",
	}
	rotLines = []string{
		"the rot spreads",
		"decay takes hold",
		"something festers",
		"the garden sickens",
	}
	omenLines = []string{
		"The garden shudders with ancient knowledge",
		"Something vast stirs beneath the soil",
		"The air itself trembles with forgotten power",
		"A presence older than memory awakens",
	}
)

// SpawnSeeds places n focus seeds around at, or around the surface centre
// when at is nil. Each stays viable for max(1200, 2500+U*2500-6*entropy) ms.
func (e *Engine) SpawnSeeds(n int, at *Point) []string {
	if e.state.RunOver {
		return nil
	}
	now := e.clock.Now()
	surface := e.state.Surface
	center := Point{X: surface.Width / 2, Y: surface.Height / 2}
	if at != nil {
		center = *at
	}

	ids := make([]string, 0, n)
	for range n {
		id := e.newSeedID()
		viable := max(focusViableMin, focusViableBase+e.rand.Float64()*focusViableJitter-e.state.Entropy*focusViableEntropy)
		x := max(focusEdge, min(surface.Width-focusEdge, center.X+(e.rand.Float64()-0.5)*focusSpread))
		y := max(focusEdge, min(surface.Height-focusEdge, center.Y+(e.rand.Float64()-0.5)*focusSpread))
		e.state.SeedsAlive[id] = SeedNode{ID: id, X: x, Y: y, BornAt: now, ViableMs: viable}
		ids = append(ids, id)
	}
	return ids
}

// TickSeeds expires focus seeds into rot, removes rot once it is done, and
// bleeds entropy for every rotting seed.
func (e *Engine) TickSeeds(now time.Time) {
	bleed := 0.0
	for _, id := range sortedKeys(e.state.SeedsAlive) {
		seed := e.state.SeedsAlive[id]
		switch {
		case !seed.Expired && now.Sub(seed.BornAt) >= time.Duration(seed.ViableMs*float64(time.Millisecond)):
			rotUntil := now.Add(focusRotDuration)
			seed.Expired = true
			seed.RotUntil = &rotUntil
			e.state.SeedsAlive[id] = seed
			e.binder.Seed(event.SeedExpire, id)
		case seed.Expired && seed.RotUntil != nil && !now.Before(*seed.RotUntil):
			delete(e.state.SeedsAlive, id)
		case seed.Expired && seed.RotUntil != nil:
			bleed += rotBleedPerFrame
		}
	}
	if bleed > 0 {
		e.modifyEntropyAt(bleed, SourceRotBleed, now)
	}
}

// ClickSeed harvests a focus seed. A viable seed calms the garden and leaves
// a line of lore; a rotten one feeds the chaos.
func (e *Engine) ClickSeed(id string, now time.Time) {
	seed, ok := e.state.SeedsAlive[id]
	if !ok || e.state.RunOver {
		return
	}
	delete(e.state.SeedsAlive, id)

	if !seed.Expired {
		e.IncrementSeed()
		e.modifyEntropyAt(viableClickEntropy, SourceViableSeed, now)
		e.binder.SeedFlag()
		e.binder.Seed(event.SeedSpawn, id)
		e.binder.Seed(event.SeedClickViable, id)
		e.AddToHistory(HistoryEntry{ID: story.CorruptionLineID, Text: microLore[e.pick(len(microLore))], TS: now})
		return
	}

	e.modifyEntropyAt(rotClickEntropy, SourceRotSeed, now)
	e.binder.Seed(event.SeedClickRot, id)
	e.AddToHistory(HistoryEntry{ID: story.CorruptionLineID, Text: rotLines[e.pick(len(rotLines))], TS: now})
}

// SpawnGod places a focus god near at with up to 48px of jitter.
func (e *Engine) SpawnGod(d domain.Domain, at Point, now time.Time) string {
	if e.state.RunOver {
		return ""
	}
	id := e.newGodID()
	e.state.GodsAlive[id] = GodNode{
		ID:     id,
		X:      at.X + (e.rand.Float64()-0.5)*focusGodJitter,
		Y:      at.Y + (e.rand.Float64()-0.5)*focusGodJitter,
		Domain: d,
	}
	e.markDirty(now)
	return id
}

// ClickGod touches a focus god. Gods cooling down ignore the click.
func (e *Engine) ClickGod(id string, now time.Time) bool {
	god, ok := e.state.GodsAlive[id]
	if !ok || now.Before(god.CooldownUntil) || e.state.RunOver {
		return false
	}
	god.CooldownUntil = now.Add(focusGodCooldown)
	e.state.GodsAlive[id] = god

	e.binder.AwakenFlag()
	e.binder.God(event.GodSpawn, id)
	return true
}

// ApplyBoon activates a boon until the given time. Boons of the same kind
// stack.
func (e *Engine) ApplyBoon(b domain.Boon, until time.Time) {
	if e.state.RunOver {
		return
	}
	e.state.ActiveBoons = append(e.state.ActiveBoons, ActiveBoon{Boon: b, Until: until})
	e.binder.Boon(b)
	e.markDirty(e.clock.Now())
}

// ApplyPrice activates a price until the given time.
func (e *Engine) ApplyPrice(p domain.Price, until time.Time) {
	if e.state.RunOver {
		return
	}
	e.state.ActivePrices = append(e.state.ActivePrices, ActivePrice{Price: p, Until: until})
	e.binder.Price(p)
	e.markDirty(e.clock.Now())
}

// SetDomainBias sets or, with "", clears the domain bias.
func (e *Engine) SetDomainBias(d domain.Domain) {
	e.state.DomainBias = d
}

// Decay drains entropy after three idle seconds and drops expired boons and
// prices. Stillness speeds the drain; TithedBreath slows it.
func (e *Engine) Decay(now time.Time) {
	if e.state.EntropyRaw > 0 && now.Sub(e.state.LastInteraction) > idleDecayAfter {
		factor := 1.0
		switch {
		case e.hasBoon(domain.Stillness, now):
			factor = stillnessDecayFactor
		case e.hasPrice(domain.TithedBreath, now):
			factor = tithedDecayFactor
		}
		e.modifyEntropyAt(-idleDecayPerFrame*factor, SourceIdleDecay, now)
	}

	e.state.ActiveBoons = filterLive(e.state.ActiveBoons, now, func(b ActiveBoon) time.Time { return b.Until })
	e.state.ActivePrices = filterLive(e.state.ActivePrices, now, func(p ActivePrice) time.Time { return p.Until })
}

func filterLive[T any](in []T, now time.Time, until func(T) time.Time) []T {
	out := in[:0]
	for _, v := range in {
		if until(v).After(now) {
			out = append(out, v)
		}
	}
	return out
}

// TriggerOmen fires an omen unless one fired in the last ten seconds.
// An omen releases entropy and leaves a line in the history.
func (e *Engine) TriggerOmen() bool {
	return e.triggerOmenAt(e.clock.Now())
}

func (e *Engine) triggerOmenAt(now time.Time) bool {
	if now.Before(e.state.OmenCooldownUntil) || e.state.RunOver {
		return false
	}
	e.state.OmenCooldownUntil = now.Add(omenCooldown)
	e.state.Stats.OmenCount++

	e.binder.Omen()
	e.AddToHistory(HistoryEntry{ID: story.CorruptionLineID, Text: omenLines[e.pick(len(omenLines))], TS: now})
	e.modifyEntropyAt(omenEntropy, SourceOmenRelease, now)
	return true
}
