package engine

import (
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/event"
)

// Persistent seed tuning.
const (
	seedInitialFood   = 0.35
	seedStarveRiskMin = 0.10
	seedStarveRiskMax = 0.22
	seedFeedAmount    = 0.25
	seedFeedEntropy   = -0.03

	foodDecayRate    = 0.02
	entropyDecayGain = 0.8
	growthRate       = 0.015
	fedBonus         = 0.4
	fedBonusWindow   = 2500 * time.Millisecond
	choiceAura       = 1.35

	starveFoodLevel     = 0.05
	starveEntropyWeight = 0.15
	starveBoonRelief    = 0.05
	starveProbMin       = 0.02
	starveProbMax       = 0.7
	starveEntropy       = 0.12
	starvedRemoveDelay  = 4 * time.Second
)

// Awakening, bargain and season timing.
const (
	awakenBase         = 0.25
	awakenBiasBonus    = 0.10
	awakenMoodAffinity = 0.06
	awakenEntropyGate  = 70
	awakenEntropyMalus = 0.15
	awakenHarvestBonus = 0.08
	awakenEchoBonus    = 0.05
	awakenProbMin      = 0.02
	awakenProbMax      = 0.85
	awakenEntropy      = -0.05
	godInitialCooldown = 8 * time.Second
	awakeningInterval  = 1200 * time.Millisecond
	bargainDuration    = 20 * time.Second
	bargainCooldown    = 12 * time.Second
	firstSeasonLength  = 45 * time.Second
	seasonLengthMin    = 45 * time.Second
	seasonLengthJitter = 25 * time.Second
)

// SpawnPersistentSeed plants a seed at (x, y) and returns its id.
// Returns "" once the run is over.
func (e *Engine) SpawnPersistentSeed(x, y float64, hint domain.Domain) string {
	if e.state.RunOver {
		return ""
	}
	now := e.clock.Now()
	id := e.newSeedID()
	e.state.PersistentSeeds[id] = Seed{
		ID:         id,
		X:          x,
		Y:          y,
		BornAt:     now,
		State:      domain.Planted,
		Food:       seedInitialFood,
		DomainHint: hint,
		StarveRisk: e.uniform(seedStarveRiskMin, seedStarveRiskMax),
	}
	e.binder.Seed(event.SeedSpawn, id)
	e.markDirty(now)
	return id
}

// FeedSeed tops up a seed's food. Absent and terminal seeds are ignored.
func (e *Engine) FeedSeed(id string, now time.Time) {
	if e.state.RunOver {
		return
	}
	seed, ok := e.state.PersistentSeeds[id]
	if !ok || seed.State.Terminal() {
		return
	}

	seed.Food = min(1, seed.Food+seedFeedAmount)
	fedAt := now
	seed.LastFedAt = &fedAt
	if seed.State == domain.Planted {
		seed.State = domain.Growing
	}
	e.state.PersistentSeeds[id] = seed
	e.state.Stats.Harvested++

	e.modifyEntropyAt(seedFeedEntropy, SourceSeedFeed, now)
	e.binder.Seed(event.SeedClickViable, id)
	e.binder.Seed(event.SeedFeed, id)
}

// TickPersistentSeeds advances food decay, growth and starvation by dt
// seconds.
//
// Food decay scales with season and entropy. Maturity grows faster for
// recently fed seeds and while a domain bias is set. A seed at or below
// the starvation food level rolls a starvation draw every tick.
func (e *Engine) TickPersistentSeeds(dt float64, now time.Time) {
	if e.state.RunOver || dt <= 0 || len(e.state.PersistentSeeds) == 0 {
		return
	}
	entropy := e.state.Entropy
	season := e.state.Season
	decay := foodDecayRate * season.DecayMultiplier() * (1 + entropy/100*entropyDecayGain)
	aura := 1.0
	if e.state.DomainBias != "" {
		aura = choiceAura
	}
	protected := e.hasProtectiveBoon(now)

	for _, id := range sortedKeys(e.state.PersistentSeeds) {
		seed := e.state.PersistentSeeds[id]
		if seed.State.Terminal() {
			continue
		}

		bonus := 0.0
		if seed.LastFedAt != nil && now.Sub(*seed.LastFedAt) < fedBonusWindow {
			bonus = fedBonus
		}
		seed.Food = max(0, seed.Food-decay*dt)
		seed.Maturity = min(1, seed.Maturity+growthRate*(1+bonus)*aura*dt)

		if seed.Maturity >= 1 && seed.State != domain.Mature {
			seed.State = domain.Mature
			e.binder.Seed(event.SeedMature, id)
		}

		if seed.Food <= starveFoodLevel {
			p := seed.StarveRisk + starveEntropyWeight*entropy/100 + season.StarveBias()
			if protected {
				p -= starveBoonRelief
			}
			p = min(starveProbMax, max(starveProbMin, p))
			if e.rand.Float64() < p {
				e.state.PersistentSeeds[id] = seed
				e.starve(id, now)
				continue
			}
		}
		e.state.PersistentSeeds[id] = seed
	}
	e.markDirty(now)
}

func (e *Engine) starve(id string, now time.Time) {
	seed := e.state.PersistentSeeds[id]
	seed.State = domain.Starved
	e.state.PersistentSeeds[id] = seed
	e.state.Stats.Starved++

	e.binder.Seed(event.SeedExpire, id)
	e.binder.Seed(event.SeedStarve, id)
	e.modifyEntropyAt(starveEntropy, SourceSeedStarve, now)

	e.scheduleRemoval(id, seed.BornAt, now)
}

// scheduleRemoval drops a starved seed after the rot grace period.
func (e *Engine) scheduleRemoval(id string, bornAt, now time.Time) {
	e.schedule("remove-starved "+id, now.Add(starvedRemoveDelay), func(e *Engine, _ time.Time) {
		// The id must still name the same starved seed.
		s, ok := e.state.PersistentSeeds[id]
		if !ok || s.State != domain.Starved || !s.BornAt.Equal(bornAt) {
			return
		}
		delete(e.state.PersistentSeeds, id)
	})
}

// AwakeningChance returns the current probability that an awakening attempt
// succeeds.
func (e *Engine) AwakeningChance(now time.Time) float64 {
	p := awakenBase + awakenMoodAffinity
	if e.state.DomainBias != "" {
		p += awakenBiasBonus
	}
	if e.state.Entropy >= awakenEntropyGate {
		p -= awakenEntropyMalus
	}
	if e.hasBoon(domain.Harvest, now) {
		p += awakenHarvestBonus
	}
	if e.hasBoon(domain.Echo, now) {
		p += awakenEchoBonus
	}
	return min(awakenProbMax, max(awakenProbMin, p))
}

// AttemptAwakening picks one mature seed uniformly and rolls for it to
// awaken into a god. Returns the new god's id, or "" when nothing awoke.
//
// Notifications and the entropy release only happen on success.
func (e *Engine) AttemptAwakening(now time.Time) string {
	if e.state.RunOver {
		return ""
	}
	var mature []string
	for _, id := range sortedKeys(e.state.PersistentSeeds) {
		if e.state.PersistentSeeds[id].State == domain.Mature {
			mature = append(mature, id)
		}
	}
	if len(mature) == 0 {
		return ""
	}

	seed := e.state.PersistentSeeds[mature[e.pick(len(mature))]]
	if e.rand.Float64() >= e.AwakeningChance(now) {
		return ""
	}

	d := seed.DomainHint
	if d == "" {
		d = e.randomDomain()
	}
	god := God{
		ID:             e.newGodID(),
		X:              seed.X,
		Y:              seed.Y,
		Domain:         d,
		BornFromSeedID: seed.ID,
		Favor:          domain.Boons[e.pick(len(domain.Boons))],
		Price:          domain.Prices[e.pick(len(domain.Prices))],
		CooldownUntil:  now.Add(godInitialCooldown),
	}
	delete(e.state.PersistentSeeds, seed.ID)
	e.state.PersistentGods[god.ID] = god
	e.state.Stats.Awakened++

	e.logger.Info("god awakened", "god", god.ID, "seed", seed.ID, "domain", god.Domain)
	e.modifyEntropyAt(awakenEntropy, SourceGodAwaken, now)
	e.binder.God(event.GodSpawn, god.ID)
	e.binder.God(event.GodAwaken, god.ID)
	return god.ID
}

// ClickPersistentGod bargains with a god: its favor and price apply for 20s
// and it cools down for 12s. Absent or cooling gods are ignored.
func (e *Engine) ClickPersistentGod(id string, now time.Time) bool {
	if e.state.RunOver {
		return false
	}
	god, ok := e.state.PersistentGods[id]
	if !ok || now.Before(god.CooldownUntil) {
		return false
	}
	god.CooldownUntil = now.Add(bargainCooldown)
	e.state.PersistentGods[id] = god

	e.binder.God(event.GodBargainOpen, id)
	e.ApplyBoon(god.Favor, now.Add(bargainDuration))
	e.ApplyPrice(god.Price, now.Add(bargainDuration))
	e.markDirty(now)
	return true
}

// TickSeasons advances the season once its time is up. The cycle count
// increments on each wrap back to spring.
func (e *Engine) TickSeasons(now time.Time) {
	if e.state.RunOver || now.Before(e.state.SeasonUntil) {
		return
	}
	next := e.state.Season.Next()
	if next == domain.Spring {
		e.state.SeasonCount++
	}
	e.state.Season = next
	e.state.SeasonUntil = now.Add(seasonLengthMin + time.Duration(e.rand.Float64()*float64(seasonLengthJitter)))

	e.logger.Info("season changed", "season", next, "cycle", e.state.SeasonCount)
	e.binder.SeasonChange(next)
	e.markDirty(now)
}

func (e *Engine) hasBoon(b domain.Boon, now time.Time) bool {
	for _, ab := range e.state.ActiveBoons {
		if ab.Boon == b && ab.Until.After(now) {
			return true
		}
	}
	return false
}

func (e *Engine) hasPrice(p domain.Price, now time.Time) bool {
	for _, ap := range e.state.ActivePrices {
		if ap.Price == p && ap.Until.After(now) {
			return true
		}
	}
	return false
}

func (e *Engine) hasProtectiveBoon(now time.Time) bool {
	for _, ab := range e.state.ActiveBoons {
		if ab.Boon.Protective() && ab.Until.After(now) {
			return true
		}
	}
	return false
}
