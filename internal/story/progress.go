package story

import (
	"strings"

	"github.com/roach88/godseed/internal/domain"
)

// Progress is the slice of simulation state the story needs to choose a line.
type Progress struct {
	LineIndex int
	Entropy   float64

	// LastHistoryID is the id of the most recent history entry, or
	// CorruptionLineID when history is empty.
	LastHistoryID int
}

const (
	corruptionEntropy = 70
	corruptionChance  = 0.1
)

// NextLine picks the line to present.
//
// Above 70 entropy there is a 10% chance of an injected corruption line.
// Otherwise the last history entry's goto is followed; a choice point
// without a goto repeats until a choice is made; and everything else
// advances linearly to the line whose id is LineIndex+1. Running off the
// end yields the synthetic end line.
func (c *Content) NextLine(p Progress, r Rand) Line {
	if p.Entropy > corruptionEntropy && r.Float64() < corruptionChance && len(c.Corruption) > 0 {
		return Line{
			ID:    CorruptionLineID,
			Text:  c.Corruption[pick(r, len(c.Corruption))],
			Flags: &Flags{Branch: domain.Ash},
		}
	}

	var next Line
	var found bool

	current, ok := c.Story.Find(p.LastHistoryID)
	switch {
	case ok && p.LastHistoryID != CorruptionLineID && current.Goto != 0:
		next, found = c.Story.Find(current.Goto)
	case ok && p.LastHistoryID != CorruptionLineID && len(current.Choices) > 0:
		return current
	default:
		next, found = c.Story.Find(p.LineIndex + 1)
	}

	if !found {
		return Line{ID: EndLineID, Text: EndText}
	}
	return next
}

var (
	glyphs    = []string{"█", "▓", "▒", "░", "▄", "▀", "▌", "▐"}
	zeroWidth = []string{"\u200b", "\u200c", "\u200d", "\ufeff"}
)

// ApplyEntropy corrupts text for display. Below 10 the text is unchanged.
// From 10, characters are replaced with block glyphs at rate
// min(0.3, entropy/100); from 40, two adjacent words swap with 5% chance;
// from 70, zero-width characters are sprinkled after 10% of characters.
func ApplyEntropy(text string, entropy float64, r Rand) string {
	if entropy < 10 {
		return text
	}

	rate := min(0.3, entropy/100)
	var b strings.Builder
	for _, ch := range text {
		if ch != ' ' && r.Float64() < rate {
			b.WriteString(glyphs[pick(r, len(glyphs))])
			continue
		}
		b.WriteRune(ch)
	}
	out := b.String()

	if entropy >= 40 && r.Float64() < 0.05 {
		words := strings.Split(out, " ")
		if len(words) > 1 {
			i := pick(r, len(words)-1)
			words[i], words[i+1] = words[i+1], words[i]
			out = strings.Join(words, " ")
		}
	}

	if entropy >= 70 {
		b.Reset()
		for _, ch := range out {
			b.WriteRune(ch)
			if ch != ' ' && r.Float64() < 0.1 {
				b.WriteString(zeroWidth[pick(r, len(zeroWidth))])
			}
		}
		out = b.String()
	}
	return out
}

// DominantDomain returns the first domain, in canonical order, holding at
// least 40% of the total alignment.
func DominantDomain(alignments map[domain.Domain]float64) (domain.Domain, bool) {
	total := 0.0
	for _, d := range domain.Domains {
		total += alignments[d]
	}
	if total <= 0 {
		return "", false
	}
	for _, d := range domain.Domains {
		if alignments[d]/total*100 >= 40 {
			return d, true
		}
	}
	return "", false
}

func pick(r Rand, n int) int {
	return min(int(r.Float64()*float64(n)), n-1)
}
