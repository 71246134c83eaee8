package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/story"
	"github.com/roach88/godseed/internal/testutil"
)

// choiceContent is a three-line story whose first line branches.
func choiceContent() *story.Content {
	return &story.Content{
		Story: story.Story{Title: "Fork", Lines: []story.Line{
			{ID: 1, Text: "The soil waits.", Choices: []story.Choice{
				{Label: "bleed", Domain: domain.Flesh, Goto: 3},
				{Label: "sleep", Domain: domain.Dream},
			}},
			{ID: 2, Text: "Skipped."},
			{ID: 3, Text: "Blood answers."},
		}},
		Corruption: story.FallbackCorruption(),
	}
}

func TestClick_AdvancesStory(t *testing.T) {
	f := newFixture(t)
	now := f.now()

	res := f.e.Click(10, 20, now)
	assert.Equal(t, 1, res.Line.ID)
	assert.False(t, res.Fast)

	s := f.e.Snapshot()
	assert.Equal(t, 1, s.LineIndex)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, 0.08, s.Entropy)
	require.Len(t, s.History, 1)
	assert.Equal(t, "In the beginning, there was only darkness.", s.History[0].Text)
	assert.Equal(t, &Point{X: 10, Y: 20}, s.Surface.LastClick)
	assert.Equal(t, now, s.LastInteraction)
}

func TestClick_FastClicksAndBurst(t *testing.T) {
	f := newFixture(t)
	start := f.now()

	f.e.Click(0, 0, start)
	r2 := f.e.Click(0, 0, start.Add(100*time.Millisecond))
	r3 := f.e.Click(0, 0, start.Add(150*time.Millisecond))
	r4 := f.e.Click(0, 0, start.Add(time.Second))

	assert.True(t, r2.Fast)
	assert.False(t, r2.Burst)
	assert.True(t, r3.Fast)
	assert.True(t, r3.Burst)
	assert.False(t, r4.Fast)
	assert.False(t, r4.Burst)

	// One per fast click, plus the audio burst tick on the third click.
	assert.Equal(t, 3, f.rec.Count("entropy.tick.fast"))
	assert.InDelta(t, 0.66, f.e.Entropy(), 1e-9)
}

func TestClick_SeedFlag(t *testing.T) {
	f := newFixture(t)
	now := f.now()
	for i := range 3 {
		f.e.Click(50, 50, now.Add(time.Duration(i)*time.Second))
	}
	f.rec.Reset()

	res := f.e.Click(50, 50, now.Add(3*time.Second))

	require.Equal(t, 4, res.Line.ID)
	require.Equal(t, []string{"seed-1"}, res.Seeds)
	s := f.e.Snapshot()
	assert.Equal(t, 1, s.Seeds)
	seed := s.PersistentSeeds["seed-1"]
	assert.Equal(t, 50.0, seed.X)
	assert.Equal(t, 50.0, seed.Y)
	assert.Equal(t, 1, f.rec.Count("story.flags.seed"))
	assert.Equal(t, 1, f.rec.Count("seed.spawn"))
}

func TestClick_SeedFlagSpawnsMoreWhenFeverish(t *testing.T) {
	tests := []struct {
		entropy float64
		want    int
	}{
		{entropy: 5, want: 1},
		{entropy: 30, want: 3},
		{entropy: 60, want: 2},
		{entropy: 80, want: 1},
	}
	for _, tt := range tests {
		f := newFixtureWith(t, testutil.NewScriptedRand().WithFallback(0.5), WithContent(&story.Content{
			Story: story.Story{Lines: []story.Line{{ID: 1, Text: "A root.", Flags: &story.Flags{Seed: true}}}},
		}))
		f.e.ModifyEntropy(tt.entropy, "test")

		res := f.e.Click(0, 0, f.now())
		assert.Len(t, res.Seeds, tt.want, "entropy %v", tt.entropy)
	}
}

func TestClick_AwakenFlag(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithContent(&story.Content{
		Story: story.Story{Lines: []story.Line{{ID: 1, Text: "It wakes.", Flags: &story.Flags{Awaken: true}}}},
	}))
	f.e.SetDomainBias(domain.Stone)

	res := f.e.Click(100, 100, f.now())

	require.Equal(t, "god-1", res.God)
	s := f.e.Snapshot()
	assert.Equal(t, 1, s.Awakened)
	assert.Equal(t, domain.Stone, s.GodsAlive["god-1"].Domain)
	assert.Equal(t, 1, f.rec.Count("story.flags.awaken"))
}

func TestClick_CorruptionLine(t *testing.T) {
	f := newFixture(t)
	f.e.ModifyEntropy(80, "test")
	f.rnd.Push(0.05, 0.0)

	res := f.e.Click(0, 0, f.now())

	assert.Equal(t, story.CorruptionLineID, res.Line.ID)
	assert.Equal(t, story.FallbackCorruption()[0], res.Line.Text)
	assert.Equal(t, 1, f.rec.Count("corruption.inject"))
	s := f.e.Snapshot()
	assert.Equal(t, story.CorruptionLineID, s.History[len(s.History)-1].ID)
}

func TestClick_TaggedHistoryAnnounced(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithContent(&story.Content{
		Story: story.Story{Lines: []story.Line{{ID: 1, Text: "The root hums [loud]."}}},
	}))

	f.e.Click(0, 0, f.now())

	assert.Equal(t, 1, f.rec.Count("corruption.inject"))
	assert.Equal(t, 1, f.rec.Count("corruption.tag.loud"))
}

func TestClick_EndOfStory(t *testing.T) {
	f := newFixture(t)
	f.e.state.LineIndex = len(story.FallbackStory().Lines)

	res := f.e.Click(0, 0, f.now())
	assert.Equal(t, story.EndLineID, res.Line.ID)
	assert.Equal(t, story.EndText, res.Line.Text)
}

func TestCurrentLine_Stable(t *testing.T) {
	f := newFixture(t)
	f.e.ModifyEntropy(80, "test")
	f.rnd.Push(0.05, 0.0)

	first := f.e.CurrentLine()
	draws := f.rnd.Draws()
	second := f.e.CurrentLine()

	assert.Equal(t, first, second)
	assert.Equal(t, draws, f.rnd.Draws(), "the line is chosen once per position")
}

func TestChoose_FollowsGoto(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithContent(choiceContent()))
	now := f.now()

	f.e.Click(0, 0, now)
	assert.Equal(t, 1, f.rec.Count("ui.choice.open"))
	require.Len(t, f.e.PendingChoices(), 2)
	assert.Equal(t, 1, f.e.CurrentLine().ID, "a choice point repeats until answered")

	assert.False(t, f.e.Choose(5, now))
	require.True(t, f.e.Choose(0, now))

	s := f.e.Snapshot()
	assert.Equal(t, 1.0, s.DomainAlignments[domain.Flesh])
	assert.Equal(t, domain.Flesh, s.DominantGod)
	assert.Equal(t, domain.Flesh, s.DomainBias)
	assert.Equal(t, 1, s.Stats.ChoicesMade)
	last := s.History[len(s.History)-1]
	assert.Equal(t, "Chose Flesh", last.Text)
	require.NotNil(t, last.Flags)
	assert.Equal(t, domain.Flesh, last.Flags.Branch)

	assert.Equal(t, "Blood answers.", f.e.CurrentLine().Text)
	assert.Empty(t, f.e.PendingChoices())
}

func TestChoose_WithoutGotoContinues(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithContent(choiceContent()))
	f.e.Click(0, 0, f.now())

	require.True(t, f.e.Choose(1, f.now()))
	assert.Equal(t, "Skipped.", f.e.CurrentLine().Text)
}

func TestChoiceWindow(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 6*time.Second, f.e.ChoiceWindow())

	f.e.ModifyEntropy(50, "test")
	assert.Equal(t, 5400*time.Millisecond, f.e.ChoiceWindow())

	f.e.ModifyEntropy(50, "test")
	assert.Equal(t, 4800*time.Millisecond, f.e.ChoiceWindow())
}

func TestChoiceTimeout(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithContent(choiceContent()))
	f.e.Click(0, 0, f.now())

	d := f.e.ChoiceTimeout(f.now())

	require.Contains(t, domain.Domains, d)
	s := f.e.Snapshot()
	assert.Equal(t, 1.0, s.DomainAlignments[d])
	assert.InDelta(t, 0.18, s.Entropy, 1e-9)
	n := len(s.History)
	assert.Contains(t, spitefulLines, s.History[n-2].Text)
	assert.Equal(t, "Chose "+string(d), s.History[n-1].Text)
}

func TestChoiceTimeout_NoChoicePending(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.e.ChoiceTimeout(f.now()))
	assert.Empty(t, f.e.Snapshot().History)
}

func TestFalseChoice_OnlyWhenFeverish(t *testing.T) {
	f := newFixtureWith(t, testutil.NewScriptedRand(), WithContent(choiceContent()))
	f.e.Click(0, 0, f.now())

	assert.False(t, f.e.FalseChoice(f.now()))

	f.e.ModifyEntropy(60, "test")
	require.True(t, f.e.FalseChoice(f.now()))

	s := f.e.Snapshot()
	assert.Equal(t, 1, s.Stats.FalseChoicesTaken)
	assert.Zero(t, s.Stats.ChoicesMade)
	assert.InDelta(t, 60.23, s.Entropy, 1e-9)
	assert.Contains(t, eerieLines, s.History[len(s.History)-1].Text)
	for _, v := range s.DomainAlignments {
		assert.Zero(t, v)
	}
}

func TestUpdateDomainAlignment_FloorsAtZero(t *testing.T) {
	f := newFixture(t)
	f.e.UpdateDomainAlignment(domain.Ash, 2)
	f.e.UpdateDomainAlignment(domain.Ash, -5)

	s := f.e.Snapshot()
	assert.Zero(t, s.DomainAlignments[domain.Ash])
}

func TestApplyChoice_DominantGod(t *testing.T) {
	f := newFixture(t)
	f.e.ApplyChoice(domain.Stone)
	f.e.ApplyChoice(domain.Dream)
	f.e.ApplyChoice(domain.Dream)

	s := f.e.Snapshot()
	assert.Equal(t, domain.Dream, s.DominantGod)
	assert.Equal(t, 3, s.Stats.ChoicesMade)
}

func TestIncrementSeed_EveryFifthAwakens(t *testing.T) {
	f := newFixture(t)
	for range 11 {
		f.e.IncrementSeed()
	}
	s := f.e.Snapshot()
	assert.Equal(t, 11, s.Seeds)
	assert.Equal(t, 2, s.Awakened)
}

func TestUpdateMoodFromText(t *testing.T) {
	f := newFixture(t)
	f.e.UpdateMoodFromText("Blood and ASH and blood in the mirror")

	m := f.e.Snapshot().Mood
	assert.Equal(t, 2.0, m.Flesh)
	assert.Equal(t, 1.0, m.Ash)
	assert.Equal(t, 1.0, m.Dream)
	assert.Zero(t, m.Stone)

	f.e.UpdateMoodFromText("")
	assert.InDelta(t, 1.9, f.e.Snapshot().Mood.Flesh, 1e-9)
}

func TestRenderLine_CalmTextUnchanged(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "quiet soil", f.e.RenderLine("quiet soil"))
}
