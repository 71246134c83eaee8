package engine

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/story"
	"github.com/roach88/godseed/internal/tags"
)

const (
	fastClickWindow  = 200 * time.Millisecond
	fastClickEntropy = 0.25
	clickEntropy     = 0.08
	flagSeedSpread   = 100.0
	moodDecay        = 0.95
	seedsPerAwakened = 5

	choiceWindowBase    = 6000.0
	choiceWindowEntropy = 12.0
	choiceWindowMin     = 3200.0
	choiceTimeoutDelta  = 0.1
	falseChoiceDelta    = 0.15
)

var moodLexicon = map[string]domain.Domain{}

func init() {
	words := map[domain.Domain][]string{
		domain.Flesh: {"blood", "warm", "mouth", "vein", "tooth", "pulse", "flesh", "heart", "breath"},
		domain.Stone: {"weight", "cliff", "gravity", "hinge", "mountain", "stone", "rock", "heavy", "solid"},
		domain.Ash:   {"ash", "dust", "silence", "white", "ember", "cold", "void", "empty", "fade"},
		domain.Dream: {"dream", "echo", "sleep", "mirror", "name", "memory", "shadow", "whisper", "vision"},
	}
	for d, ws := range words {
		for _, w := range ws {
			moodLexicon[w] = d
		}
	}
}

var (
	spitefulLines = []string{
		"The garden chooses for you.",
		"Time runs thin, and the soil decides.",
		"Your hesitation becomes the garden's will.",
		"The earth takes what you cannot give.",
	}
	eerieLines = []string{
		"The choice dissolves like mist.",
		"Your selection becomes a whisper.",
		"The garden laughs at your attempt.",
		"Reality shifts and your choice is forgotten.",
	}
)

// ClickResult describes what a click did.
type ClickResult struct {
	Line  story.Line
	Burst bool
	Fast  bool
	Seeds []string
	God   string
}

// CurrentLine returns the line the player is looking at. The choice is made
// once per story position, so repeated calls return the same line.
func (e *Engine) CurrentLine() story.Line {
	if e.current == nil {
		last := story.CorruptionLineID
		if n := len(e.state.History); n > 0 {
			last = e.state.History[n-1].ID
		}
		line := e.content.NextLine(story.Progress{
			LineIndex:     e.state.LineIndex,
			Entropy:       e.state.Entropy,
			LastHistoryID: last,
		}, e.rand)
		e.current = &line
	}
	return *e.current
}

// RenderLine corrupts text for display at the current entropy.
func (e *Engine) RenderLine(text string) string {
	return story.ApplyEntropy(text, e.state.Entropy, e.rand)
}

// Click is a tap on the surface at (x, y): it feeds entropy, applies the
// current line's flags, records the line and advances the story.
//
// A click less than 200ms after the previous one counts as fast.
func (e *Engine) Click(x, y float64, now time.Time) ClickResult {
	if e.state.RunOver {
		return ClickResult{}
	}
	e.SetLastClick(x, y)

	res := ClickResult{Burst: e.binder.RecordClick(now)}
	res.Fast = !e.lastClickAt.IsZero() && now.Sub(e.lastClickAt) < fastClickWindow
	e.lastClickAt = now
	if res.Fast {
		e.modifyEntropyAt(fastClickEntropy, SourceFastClick, now)
		e.binder.EntropyTick(true)
	} else {
		e.modifyEntropyAt(clickEntropy, SourceAdvanceLine, now)
	}

	line := e.CurrentLine()
	res.Line = line
	e.UpdateMoodFromText(line.Text)

	entry := HistoryEntry{ID: line.ID, Text: line.Text, Flags: line.Flags, TS: now}
	if line.ID == story.CorruptionLineID {
		parsed := tags.Parse(line.Text)
		e.binder.CorruptionInject(line.Text, parsed.Tags)
		e.appendHistory(entry)
	} else {
		e.AddToHistory(entry)
	}

	if line.HasSeed() {
		e.IncrementSeed()
		n := 1
		switch e.Tier() {
		case domain.Pulse:
			n = 3
		case domain.Fever:
			n = 2
		}
		for range n {
			sx := x + (e.rand.Float64()-0.5)*flagSeedSpread
			sy := y + (e.rand.Float64()-0.5)*flagSeedSpread
			res.Seeds = append(res.Seeds, e.SpawnPersistentSeed(sx, sy, ""))
		}
		e.binder.SeedFlag()
	}

	if line.HasAwaken() {
		e.IncrementAwakened()
		d := e.state.DomainBias
		if d == "" {
			d = e.randomDomain()
		}
		res.God = e.SpawnGod(d, Point{X: x, Y: y}, now)
		e.binder.AwakenFlag()
	}

	if len(line.Choices) > 0 {
		e.binder.ChoiceOpen()
	}

	e.AdvanceStory()
	return res
}

// PendingChoices returns the choices of the current line, if any.
func (e *Engine) PendingChoices() []story.Choice {
	return slices.Clone(e.CurrentLine().Choices)
}

// Choose picks one of the current line's choices. The story resumes at the
// choice's goto target when it has one. Returns false for an invalid index.
func (e *Engine) Choose(index int, now time.Time) bool {
	choices := e.CurrentLine().Choices
	if index < 0 || index >= len(choices) || e.state.RunOver {
		return false
	}
	c := choices[index]
	e.choose(c.Domain, now)
	if c.Goto > 0 {
		e.state.LineIndex = c.Goto - 1
		e.current = nil
	}
	return true
}

func (e *Engine) choose(d domain.Domain, now time.Time) {
	e.ApplyChoice(d)
	e.AddToHistory(HistoryEntry{
		ID:    story.CorruptionLineID,
		Text:  "Chose " + string(d),
		Flags: &story.Flags{Branch: d},
		TS:    now,
	})
}

// ChoiceWindow is how long the player has to choose before the garden
// decides: 6s less 12ms per entropy point, never under 3.2s.
func (e *Engine) ChoiceWindow() time.Duration {
	ms := max(choiceWindowMin, choiceWindowBase-e.state.Entropy*choiceWindowEntropy)
	return time.Duration(ms * float64(time.Millisecond))
}

// ChoiceTimeout lets the garden choose a random domain when the player
// hesitated too long.
func (e *Engine) ChoiceTimeout(now time.Time) domain.Domain {
	if len(e.CurrentLine().Choices) == 0 || e.state.RunOver {
		return ""
	}
	d := e.randomDomain()
	e.modifyEntropyAt(choiceTimeoutDelta, SourceChoiceTimeout, now)
	e.AddToHistory(HistoryEntry{ID: story.CorruptionLineID, Text: spitefulLines[e.pick(len(spitefulLines))], TS: now})
	e.choose(d, now)
	return d
}

// FalseChoice takes the phantom option offered in the Fever tier. It closes
// the choice without branching and counts against the score.
func (e *Engine) FalseChoice(now time.Time) bool {
	if len(e.CurrentLine().Choices) == 0 || e.Tier() != domain.Fever || e.state.RunOver {
		return false
	}
	e.state.Stats.FalseChoicesTaken++
	e.modifyEntropyAt(falseChoiceDelta, SourceFalseChoice, now)
	e.AddToHistory(HistoryEntry{ID: story.CorruptionLineID, Text: eerieLines[e.pick(len(eerieLines))], TS: now})
	return true
}

// AdvanceStory moves to the next line.
func (e *Engine) AdvanceStory() {
	e.state.LineIndex++
	e.state.IsPlaying = true
	e.current = nil
	e.markDirty(e.clock.Now())
}

// ApplyChoice aligns the garden with a domain and sets it as the bias.
func (e *Engine) ApplyChoice(d domain.Domain) {
	e.state.DomainAlignments[d]++
	e.state.Stats.ChoicesMade++
	e.state.DomainBias = d
	e.determineDominantGod()
	e.markDirty(e.clock.Now())
}

// UpdateDomainAlignment adds delta to a domain's alignment, never going
// below zero.
func (e *Engine) UpdateDomainAlignment(d domain.Domain, delta float64) {
	e.state.DomainAlignments[d] = max(0, e.state.DomainAlignments[d]+delta)
	e.determineDominantGod()
	e.markDirty(e.clock.Now())
}

func (e *Engine) determineDominantGod() {
	d, _ := story.DominantDomain(e.state.DomainAlignments)
	e.state.DominantGod = d
}

// AddToHistory records a seen line. Lines carrying corruption tags are
// announced to the binder.
func (e *Engine) AddToHistory(entry HistoryEntry) {
	if parsed := tags.Parse(entry.Text); len(parsed.Tags) > 0 {
		e.binder.CorruptionInject(entry.Text, parsed.Tags)
	}
	e.appendHistory(entry)
}

func (e *Engine) appendHistory(entry HistoryEntry) {
	e.state.History = append(e.state.History, entry)
	e.current = nil
	e.markDirty(e.clock.Now())
}

// IncrementSeed counts a harvested story seed. Every fifth one also counts
// as an awakening.
func (e *Engine) IncrementSeed() {
	prev := e.state.Seeds
	e.state.Seeds++
	if e.state.Seeds/seedsPerAwakened > prev/seedsPerAwakened {
		e.state.Awakened++
	}
	e.markDirty(e.clock.Now())
}

// IncrementAwakened counts a story awakening.
func (e *Engine) IncrementAwakened() {
	e.state.Awakened++
	e.markDirty(e.clock.Now())
}

// UpdateMoodFromText decays the mood and adds one point per lexicon word in
// line.
func (e *Engine) UpdateMoodFromText(line string) {
	m := &e.state.Mood
	m.Flesh *= moodDecay
	m.Stone *= moodDecay
	m.Ash *= moodDecay
	m.Dream *= moodDecay

	lower := cases.Lower(language.Und)
	for _, w := range strings.Fields(lower.String(line)) {
		switch moodLexicon[w] {
		case domain.Flesh:
			m.Flesh++
		case domain.Stone:
			m.Stone++
		case domain.Ash:
			m.Ash++
		case domain.Dream:
			m.Dream++
		}
	}
}

// SetSurfaceSize records the click surface dimensions.
func (e *Engine) SetSurfaceSize(width, height float64) {
	e.state.Surface.Width = width
	e.state.Surface.Height = height
}

// SetLastClick records the last click position.
func (e *Engine) SetLastClick(x, y float64) {
	e.state.Surface.LastClick = &Point{X: x, Y: y}
}
