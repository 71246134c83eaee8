// Package story loads narrative content and picks the next line to show.
//
// Content is read-only to the simulation. Missing or malformed files are
// replaced with built-in fallback content and logged; they never surface as
// errors to the engine.
package story

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/godseed/internal/domain"
)

const (
	// CorruptionLineID marks an injected corruption line and non-story
	// history entries (choices, omens, lore).
	CorruptionLineID = -1

	// EndLineID marks the synthetic end-of-story line.
	EndLineID = 999

	// EndText is the text of the end-of-story line.
	EndText = "The garden sleeps. Click to begin again."

	fallbackTitle  = "The Withering Garden"
	fallbackAuthor = "System"
)

// Rand is the random source used for corruption decisions.
type Rand interface {
	Float64() float64
}

// Flags are the narrative flags a line may carry.
type Flags struct {
	Seed   bool          `json:"seed,omitempty"`
	Awaken bool          `json:"awaken,omitempty"`
	Branch domain.Domain `json:"branch,omitempty"`
}

// Choice is one option of a choice point.
type Choice struct {
	Label  string        `json:"label"`
	Domain domain.Domain `json:"domain"`
	Goto   int           `json:"goto"`
}

// Line is a single story line.
type Line struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Flags   *Flags   `json:"flags,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	Goto    int      `json:"goto,omitempty"`
}

// HasSeed reports whether the line carries the seed flag.
func (l Line) HasSeed() bool { return l.Flags != nil && l.Flags.Seed }

// HasAwaken reports whether the line carries the awaken flag.
func (l Line) HasAwaken() bool { return l.Flags != nil && l.Flags.Awaken }

// Story is a story document.
type Story struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Lines  []Line `json:"lines"`
}

// Find returns the line with the given id.
func (s Story) Find(id int) (Line, bool) {
	i := slices.IndexFunc(s.Lines, func(l Line) bool { return l.ID == id })
	if i < 0 {
		return Line{}, false
	}
	return s.Lines[i], true
}

// FallbackStory is used when no story file can be read.
func FallbackStory() Story {
	return Story{
		Title:  fallbackTitle,
		Author: fallbackAuthor,
		Lines: []Line{
			{ID: 1, Text: "In the beginning, there was only darkness."},
			{ID: 2, Text: "A single seed fell from the void."},
			{ID: 3, Text: "It whispered secrets to the earth."},
			{ID: 4, Text: "The first root took hold.", Flags: &Flags{Seed: true}},
			{ID: 5, Text: "Tendrils of thought spread through the soil."},
			{ID: 6, Text: "Each root a memory, each memory a dream."},
			{ID: 7, Text: "The garden began to remember itself."},
			{ID: 8, Text: "And in remembering, it awakened.", Flags: &Flags{Awaken: true}},
			{ID: 9, Text: "But memory is a fragile thing."},
			{ID: 10, Text: "The first forgetting came like a storm."},
			{ID: 11, Text: "Leaves turned to ash in the wind."},
			{ID: 12, Text: "Yet the roots held fast.", Flags: &Flags{Seed: true}},
			{ID: 13, Text: "The garden learned to forget."},
			{ID: 14, Text: "And in forgetting, it grew stronger."},
			{ID: 15, Text: "Each cycle brought new understanding."},
			{ID: 16, Text: "The garden became wise.", Flags: &Flags{Awaken: true}},
			{ID: 17, Text: "But wisdom is a burden."},
			{ID: 18, Text: "The weight of all memories pressed down."},
			{ID: 19, Text: "The garden began to wither."},
			{ID: 20, Text: "Yet even in withering, there is beauty.", Flags: &Flags{Seed: true}},
			{ID: 21, Text: "The final seed falls."},
			{ID: 22, Text: "The cycle begins anew."},
			{ID: 23, Text: "In the end, there is only the garden."},
		},
	}
}

// FallbackCorruption is used when no corruption pool can be read.
func FallbackCorruption() []string {
	return []string{
		"The cursor is a worm.",
		"Do not count your clicks aloud.",
		"Something else is saving.",
		"Which hand are you missing?",
		"The seed remembers a different gardener.",
		"Close your eyes to continue.",
	}
}

// ParseStory decodes a story document. Both the object form and a bare
// array of lines are accepted.
func ParseStory(data []byte) (Story, error) {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err == nil {
		return Story{Title: fallbackTitle, Author: fallbackAuthor, Lines: lines}, nil
	}

	var s Story
	if err := json.Unmarshal(data, &s); err != nil {
		return Story{}, fmt.Errorf("parse story: %w", err)
	}
	if len(s.Lines) == 0 {
		return Story{}, errors.New("parse story: no lines")
	}
	return s, nil
}

// ReadStory reads and parses a story file.
func ReadStory(path string) (Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Story{}, fmt.Errorf("read story: %w", err)
	}
	return ParseStory(data)
}

// ReadCorruption reads a JSON array of corruption lines.
func ReadCorruption(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corruption: %w", err)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse corruption: %w", err)
	}
	return out, nil
}

// Content is the loaded story plus corruption pool.
type Content struct {
	Story      Story
	Corruption []string
}

// Fallback returns built-in content.
func Fallback() *Content {
	return &Content{Story: FallbackStory(), Corruption: FallbackCorruption()}
}

// Load reads story and corruption files, substituting fallback content for
// anything missing or malformed. An empty path selects the fallback without
// logging.
func Load(storyPath, corruptionPath string, logger *slog.Logger) *Content {
	if logger == nil {
		logger = slog.Default()
	}
	c := Fallback()

	if storyPath != "" {
		s, err := ReadStory(storyPath)
		if err != nil {
			logger.Warn("story unavailable, using fallback", "path", storyPath, "error", err)
		} else {
			c.Story = s
		}
	}

	if corruptionPath != "" {
		lines, err := ReadCorruption(corruptionPath)
		switch {
		case err != nil:
			logger.Warn("corruption pool unavailable, using fallback", "path", corruptionPath, "error", err)
		case len(lines) == 0:
			logger.Warn("corruption pool empty, using fallback", "path", corruptionPath)
		default:
			c.Corruption = lines
		}
	}
	return c
}
