package event

import (
	"slices"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/tags"
)

// AllNames returns every wire name an event can render to, sorted.
// The audio cue catalog uses it to reject routes that can never fire.
func AllNames() []string {
	var evs []Event
	for _, t := range Thresholds {
		evs = append(evs, ThresholdCrossed{Threshold: t, Entering: true}, ThresholdCrossed{Threshold: t})
	}
	evs = append(evs, Seizure{})
	for _, tier := range domain.Tiers {
		evs = append(evs, TierChanged{Tier: tier, Entering: true}, TierChanged{Tier: tier})
	}
	evs = append(evs,
		EntropyTick{Fast: true}, EntropyTick{},
		StoryFlag{Flag: FlagSeed}, StoryFlag{Flag: FlagAwaken},
		ChoiceOpen{}, CorruptionInject{}, Omen{},
	)
	for _, tag := range tags.All {
		evs = append(evs, CorruptionTag{Tag: tag})
	}
	for _, k := range SeedKinds {
		evs = append(evs, SeedLifecycle{Kind: k})
	}
	for _, k := range GodKinds {
		evs = append(evs, GodLifecycle{Kind: k})
	}
	for _, b := range domain.Boons {
		evs = append(evs, BoonApplied{Boon: b})
	}
	for _, p := range domain.Prices {
		evs = append(evs, PriceApplied{Price: p})
	}
	for _, s := range domain.Seasons {
		evs = append(evs, SeasonEntered{Season: s})
	}
	for _, e := range domain.Endings {
		evs = append(evs, GameEnded{Ending: e})
	}

	names := make([]string, 0, len(evs))
	for _, e := range evs {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// IsKnownName reports whether name is one of AllNames.
func IsKnownName(name string) bool {
	_, found := slices.BinarySearch(AllNames(), name)
	return found
}
