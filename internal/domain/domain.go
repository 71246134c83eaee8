// Package domain defines the closed vocabularies shared by the simulation
// engine, the threshold binder and the audio/FX routers.
//
// Every enum is a string type whose value is exactly the token that appears
// in event names ("entropy.tier.enter.Pulse", "god.boon.Veil",
// "season.enter.WINTER") and in the persisted save blob.
package domain

import "fmt"

// Domain is one of the four thematic alignments.
type Domain string

const (
	Flesh Domain = "FLESH"
	Stone Domain = "STONE"
	Ash   Domain = "ASH"
	Dream Domain = "DREAM"
)

// Domains lists every domain in canonical order.
var Domains = []Domain{Flesh, Stone, Ash, Dream}

// ParseDomain validates a domain token.
func ParseDomain(s string) (Domain, error) {
	for _, d := range Domains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Tier is the coarse classification of the entropy value.
type Tier string

const (
	Dormant Tier = "Dormant"
	Breath  Tier = "Breath"
	Pulse   Tier = "Pulse"
	Fever   Tier = "Fever"
	Famine  Tier = "Famine"
	Seizure Tier = "Seizure"
)

// Tiers lists every tier from calmest to most chaotic.
var Tiers = []Tier{Dormant, Breath, Pulse, Fever, Famine, Seizure}

// TierOf classifies a clamped entropy value.
// Breakpoints: <10 Dormant, <25 Breath, <50 Pulse, <75 Fever, <90 Famine.
func TierOf(entropy float64) Tier {
	switch {
	case entropy < 10:
		return Dormant
	case entropy < 25:
		return Breath
	case entropy < 50:
		return Pulse
	case entropy < 75:
		return Fever
	case entropy < 90:
		return Famine
	default:
		return Seizure
	}
}

// Boon is the favor a god grants when bargained with.
type Boon string

const (
	Harvest    Boon = "Harvest"
	Stillness  Boon = "Stillness"
	Veil       Boon = "Veil"
	Echo       Boon = "Echo"
	GraveMercy Boon = "GraveMercy"
)

// Boons lists every boon.
var Boons = []Boon{Harvest, Stillness, Veil, Echo, GraveMercy}

// Protective reports whether the boon lowers starvation odds.
func (b Boon) Protective() bool {
	return b == Veil || b == Stillness
}

// Price is the cost paired with a boon.
type Price string

const (
	TithedBreath Price = "TithedBreath"
	StoneDue     Price = "StoneDue"
	AshTax       Price = "AshTax"
	DreamDebt    Price = "DreamDebt"
	GnawMemory   Price = "GnawMemory"
)

// Prices lists every price.
var Prices = []Price{TithedBreath, StoneDue, AshTax, DreamDebt, GnawMemory}

// SeedState is the lifecycle stage of a persistent seed.
type SeedState string

const (
	Planted  SeedState = "PLANTED"
	Growing  SeedState = "GROWING"
	Mature   SeedState = "MATURE"
	Starved  SeedState = "STARVED"
	Awakened SeedState = "AWAKENED"
)

// Terminal reports whether no further transition is possible.
func (s SeedState) Terminal() bool {
	return s == Starved || s == Awakened
}

// Season is one step of the cyclic seasonal clock.
type Season string

const (
	Spring Season = "SPRING"
	Summer Season = "SUMMER"
	Autumn Season = "AUTUMN"
	Winter Season = "WINTER"
)

// Seasons lists the seasons in cycle order.
var Seasons = []Season{Spring, Summer, Autumn, Winter}

// Next returns the following season; Winter wraps to Spring.
func (s Season) Next() Season {
	for i, v := range Seasons {
		if v == s {
			return Seasons[(i+1)%len(Seasons)]
		}
	}
	return Spring
}

// DecayMultiplier scales seed food decay.
func (s Season) DecayMultiplier() float64 {
	switch s {
	case Spring:
		return 0.8
	case Autumn:
		return 1.2
	case Winter:
		return 1.35
	default:
		return 1.0
	}
}

// StarveBias shifts the per-tick starvation probability.
func (s Season) StarveBias() float64 {
	switch s {
	case Spring:
		return -0.03
	case Summer:
		return 0.02
	case Autumn:
		return 0.05
	default:
		return 0.08
	}
}

// Ending is one of the three terminal run outcomes.
type Ending string

const (
	AscendantChorus Ending = "AscendantChorus"
	GardenFamine    Ending = "GardenFamine"
	StoneSleep      Ending = "StoneSleep"
)

// Endings lists the endings in evaluation priority order.
var Endings = []Ending{AscendantChorus, GardenFamine, StoneSleep}

// Slot names a save slot.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
	SlotC Slot = "C"
)

// ParseSlot validates a save slot name.
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotA, SlotB, SlotC:
		return Slot(s), nil
	}
	return "", fmt.Errorf("invalid save slot %q: must be one of A, B, C", s)
}
