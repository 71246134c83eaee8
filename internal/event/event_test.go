package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/domain"
)

func TestEventNames(t *testing.T) {
	tests := []struct {
		ev     Event
		name   string
		family Family
	}{
		{ThresholdCrossed{Threshold: 60, Entering: true}, "entropy.enter.60", FamilyThreshold},
		{ThresholdCrossed{Threshold: 90}, "entropy.exit.90", FamilyThreshold},
		{Seizure{}, "entropy.seizure", FamilySeizure},
		{TierChanged{Tier: domain.Pulse, Entering: true}, "entropy.tier.enter.Pulse", FamilyTier},
		{TierChanged{Tier: domain.Dormant}, "entropy.tier.exit.Dormant", FamilyTier},
		{EntropyTick{Fast: true}, "entropy.tick.fast", FamilyTick},
		{EntropyTick{}, "entropy.tick.normal", FamilyTick},
		{StoryFlag{Flag: FlagSeed}, "story.flags.seed", FamilyStory},
		{ChoiceOpen{}, "ui.choice.open", FamilyChoice},
		{CorruptionInject{Text: "x"}, "corruption.inject", FamilyCorruption},
		{CorruptionTag{Tag: "loud"}, "corruption.tag.loud", FamilyTag},
		{Omen{}, "omen.trigger", FamilyOmen},
		{SeedLifecycle{Kind: SeedClickRot}, "seed.click.rot", FamilySeed},
		{GodLifecycle{Kind: GodBargainOpen}, "god.bargain.open", FamilyGod},
		{BoonApplied{Boon: domain.GraveMercy}, "god.boon.GraveMercy", FamilyBoon},
		{PriceApplied{Price: domain.AshTax}, "god.price.AshTax", FamilyPrice},
		{SeasonEntered{Season: domain.Winter}, "season.enter.WINTER", FamilySeason},
		{GameEnded{Ending: domain.StoneSleep}, "ending.StoneSleep", FamilyEnding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.ev.Name())
			assert.Equal(t, tt.family, tt.ev.Family())
		})
	}
}

func TestAllNames_CompleteAndUnique(t *testing.T) {
	names := AllNames()
	assert.Len(t, names, 59)

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate name %s", n)
		seen[n] = true
	}

	assert.True(t, IsKnownName("entropy.enter.40"))
	assert.True(t, IsKnownName("corruption.tag.mirror"))
	assert.False(t, IsKnownName("entropy.enter.50"))
	assert.False(t, IsKnownName("god.boon.Unknown"))
}

func TestBus_SubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b Recorder

	unsubA := bus.Subscribe(&a)
	bus.Subscribe(&b)
	require.Equal(t, 2, bus.Len())

	bus.Notify(Omen{})
	unsubA()
	bus.Notify(Seizure{})

	assert.Equal(t, []string{"omen.trigger"}, a.Names())
	assert.Equal(t, []string{"omen.trigger", "entropy.seizure"}, b.Names())
	assert.Equal(t, 1, bus.Len())

	unsubA()
	assert.Equal(t, 1, bus.Len(), "double unsubscribe is a no-op")
}

func TestRecorder_CountAndReset(t *testing.T) {
	var r Recorder
	r.Notify(Omen{})
	r.Notify(Omen{})
	r.Notify(ChoiceOpen{})

	assert.Equal(t, 2, r.Count("omen.trigger"))
	assert.Len(t, r.Events(), 3)

	r.Reset()
	assert.Empty(t, r.Names())
}

func TestString(t *testing.T) {
	assert.Equal(t, `corruption.inject text="hi" tags=[loud]`,
		String(CorruptionInject{Text: "hi", Tags: []string{"loud"}}))
	assert.Equal(t, "seed.feed id=seed-1", String(SeedLifecycle{Kind: SeedFeed, ID: "seed-1"}))
	assert.Equal(t, "omen.trigger", String(Omen{}))
}
