// Package event defines the closed set of notifications produced by the
// threshold binder and consumed by the audio and FX routers.
//
// Each notification is a concrete type implementing Event. Subscribers branch
// on the concrete type (or on Family) instead of parsing strings; Name()
// renders the dotted wire name used by the audio cue catalog's routing table
// ("entropy.enter.60", "god.boon.Veil").
//
// The interface is sealed: only types in this package satisfy it, so a type
// switch over Event is exhaustive by construction.
package event

import (
	"fmt"
	"strconv"

	"github.com/roach88/godseed/internal/domain"
)

// Family groups events for subscribers that only care about the kind.
type Family string

const (
	FamilyThreshold  Family = "threshold"
	FamilySeizure    Family = "seizure"
	FamilyTier       Family = "tier"
	FamilyTick       Family = "tick"
	FamilyStory      Family = "story"
	FamilyChoice     Family = "choice"
	FamilyCorruption Family = "corruption"
	FamilyTag        Family = "tag"
	FamilyOmen       Family = "omen"
	FamilySeed       Family = "seed"
	FamilyGod        Family = "god"
	FamilyBoon       Family = "boon"
	FamilyPrice      Family = "price"
	FamilySeason     Family = "season"
	FamilyEnding     Family = "ending"
)

// Thresholds are the fixed entropy levels that fire enter/exit events.
var Thresholds = []int{40, 60, 80, 90}

// SeizureLevel is the entropy level whose upward crossing fires Seizure.
const SeizureLevel = 90

// Event is a single notification.
type Event interface {
	Family() Family
	Name() string
	sealed()
}

// ThresholdCrossed fires when entropy crosses one of Thresholds.
type ThresholdCrossed struct {
	Threshold int
	Entering  bool
}

func (ThresholdCrossed) Family() Family { return FamilyThreshold }
func (e ThresholdCrossed) Name() string {
	return "entropy." + direction(e.Entering) + "." + strconv.Itoa(e.Threshold)
}
func (ThresholdCrossed) sealed() {}

// Seizure fires once per upward crossing of SeizureLevel.
type Seizure struct{}

func (Seizure) Family() Family { return FamilySeizure }
func (Seizure) Name() string   { return "entropy.seizure" }
func (Seizure) sealed()        {}

// TierChanged fires in exit/enter pairs when the entropy tier changes.
type TierChanged struct {
	Tier     domain.Tier
	Entering bool
}

func (TierChanged) Family() Family { return FamilyTier }
func (e TierChanged) Name() string {
	return "entropy.tier." + direction(e.Entering) + "." + string(e.Tier)
}
func (TierChanged) sealed() {}

// EntropyTick reports interaction pacing.
type EntropyTick struct {
	Fast bool
}

func (EntropyTick) Family() Family { return FamilyTick }
func (e EntropyTick) Name() string {
	if e.Fast {
		return "entropy.tick.fast"
	}
	return "entropy.tick.normal"
}
func (EntropyTick) sealed() {}

// StoryFlagKind is a narrative flag carried by a story line.
type StoryFlagKind string

const (
	FlagSeed   StoryFlagKind = "seed"
	FlagAwaken StoryFlagKind = "awaken"
)

// StoryFlag fires when a story line's flag is applied.
type StoryFlag struct {
	Flag StoryFlagKind
}

func (StoryFlag) Family() Family { return FamilyStory }
func (e StoryFlag) Name() string { return "story.flags." + string(e.Flag) }
func (StoryFlag) sealed()        {}

// ChoiceOpen fires when a line presents choices.
type ChoiceOpen struct{}

func (ChoiceOpen) Family() Family { return FamilyChoice }
func (ChoiceOpen) Name() string   { return "ui.choice.open" }
func (ChoiceOpen) sealed()        {}

// CorruptionInject carries a corruption line and its parsed tags.
type CorruptionInject struct {
	Text string
	Tags []string
}

func (CorruptionInject) Family() Family { return FamilyCorruption }
func (CorruptionInject) Name() string   { return "corruption.inject" }
func (CorruptionInject) sealed()        {}

// CorruptionTag fires once per tag of a CorruptionInject.
type CorruptionTag struct {
	Tag string
}

func (CorruptionTag) Family() Family { return FamilyTag }
func (e CorruptionTag) Name() string { return "corruption.tag." + e.Tag }
func (CorruptionTag) sealed()        {}

// Omen fires when an omen is triggered.
type Omen struct{}

func (Omen) Family() Family { return FamilyOmen }
func (Omen) Name() string   { return "omen.trigger" }
func (Omen) sealed()        {}

// SeedKind names a seed lifecycle transition.
type SeedKind string

const (
	SeedSpawn       SeedKind = "spawn"
	SeedExpire      SeedKind = "expire"
	SeedClickViable SeedKind = "click.viable"
	SeedClickRot    SeedKind = "click.rot"
	SeedFeed        SeedKind = "feed"
	SeedStarve      SeedKind = "starve"
	SeedMature      SeedKind = "mature"
)

// SeedKinds lists every seed lifecycle kind.
var SeedKinds = []SeedKind{SeedSpawn, SeedExpire, SeedClickViable, SeedClickRot, SeedFeed, SeedStarve, SeedMature}

// SeedLifecycle reports a seed transition. ID may be empty for legacy seeds.
type SeedLifecycle struct {
	Kind SeedKind
	ID   string
}

func (SeedLifecycle) Family() Family { return FamilySeed }
func (e SeedLifecycle) Name() string { return "seed." + string(e.Kind) }
func (SeedLifecycle) sealed()        {}

// GodKind names a god lifecycle transition.
type GodKind string

const (
	GodSpawn       GodKind = "spawn"
	GodBargainOpen GodKind = "bargain.open"
	GodAwaken      GodKind = "awaken"
)

// GodKinds lists every god lifecycle kind.
var GodKinds = []GodKind{GodSpawn, GodBargainOpen, GodAwaken}

// GodLifecycle reports a god transition.
type GodLifecycle struct {
	Kind GodKind
	ID   string
}

func (GodLifecycle) Family() Family { return FamilyGod }
func (e GodLifecycle) Name() string { return "god." + string(e.Kind) }
func (GodLifecycle) sealed()        {}

// BoonApplied fires when a boon becomes active.
type BoonApplied struct {
	Boon domain.Boon
}

func (BoonApplied) Family() Family { return FamilyBoon }
func (e BoonApplied) Name() string { return "god.boon." + string(e.Boon) }
func (BoonApplied) sealed()        {}

// PriceApplied fires when a price becomes active.
type PriceApplied struct {
	Price domain.Price
}

func (PriceApplied) Family() Family { return FamilyPrice }
func (e PriceApplied) Name() string { return "god.price." + string(e.Price) }
func (PriceApplied) sealed()        {}

// SeasonEntered fires when the seasonal clock advances.
type SeasonEntered struct {
	Season domain.Season
}

func (SeasonEntered) Family() Family { return FamilySeason }
func (e SeasonEntered) Name() string { return "season.enter." + string(e.Season) }
func (SeasonEntered) sealed()        {}

// GameEnded fires once when a run reaches a terminal outcome.
type GameEnded struct {
	Ending domain.Ending
	Score  float64
}

func (GameEnded) Family() Family { return FamilyEnding }
func (e GameEnded) Name() string { return "ending." + string(e.Ending) }
func (GameEnded) sealed()        {}

func direction(entering bool) string {
	if entering {
		return "enter"
	}
	return "exit"
}

// String renders an event for logs.
func String(e Event) string {
	switch v := e.(type) {
	case CorruptionInject:
		return fmt.Sprintf("%s text=%q tags=%v", v.Name(), v.Text, v.Tags)
	case SeedLifecycle:
		if v.ID != "" {
			return fmt.Sprintf("%s id=%s", v.Name(), v.ID)
		}
	case GodLifecycle:
		if v.ID != "" {
			return fmt.Sprintf("%s id=%s", v.Name(), v.ID)
		}
	case GameEnded:
		return fmt.Sprintf("%s score=%.2f", v.Name(), v.Score)
	}
	return e.Name()
}
