package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/story"
)

// Seed is a persistent ecology unit.
type Seed struct {
	ID         string           `json:"id"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	BornAt     time.Time        `json:"bornAt"`
	State      domain.SeedState `json:"state"`
	Food       float64          `json:"food"`
	Maturity   float64          `json:"maturity"`
	DomainHint domain.Domain    `json:"domainHint,omitempty"`
	LastFedAt  *time.Time       `json:"lastFedAt,omitempty"`
	StarveRisk float64          `json:"starveRisk"`
}

// God is created when a mature seed awakens.
type God struct {
	ID             string        `json:"id"`
	X              float64       `json:"x"`
	Y              float64       `json:"y"`
	Domain         domain.Domain `json:"domain"`
	BornFromSeedID string        `json:"bornFromSeedId"`
	Favor          domain.Boon   `json:"favor"`
	Price          domain.Price  `json:"price"`
	CooldownUntil  time.Time     `json:"cooldownUntil"`
}

// SeedNode is a short-lived focus seed from the click surface. It is viable
// for ViableMs after birth, then rots.
type SeedNode struct {
	ID       string     `json:"id"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	BornAt   time.Time  `json:"bornAt"`
	ViableMs float64    `json:"viableMs"`
	Expired  bool       `json:"expired"`
	RotUntil *time.Time `json:"rotUntil,omitempty"`
}

// GodNode is a focus god spawned by an awaken flag.
type GodNode struct {
	ID            string        `json:"id"`
	X             float64       `json:"x"`
	Y             float64       `json:"y"`
	Domain        domain.Domain `json:"domain"`
	CooldownUntil time.Time     `json:"cooldownUntil"`
}

// ActiveBoon is a boon with a natural expiry.
type ActiveBoon struct {
	Boon  domain.Boon `json:"boon"`
	Until time.Time   `json:"until"`
}

// ActivePrice is a price with a natural expiry.
type ActivePrice struct {
	Price domain.Price `json:"price"`
	Until time.Time    `json:"until"`
}

// Stats are monotonic run counters.
type Stats struct {
	Awakened          int `json:"awakened"`
	Starved           int `json:"starved"`
	Harvested         int `json:"harvested"`
	OmenCount         int `json:"omenCount"`
	ChoicesMade       int `json:"choicesMade"`
	FalseChoicesTaken int `json:"falseChoicesTaken"`
}

// Ending records how a run finished.
type Ending struct {
	Type      domain.Ending `json:"type"`
	Score     float64       `json:"score"`
	Timestamp time.Time     `json:"timestamp"`
}

// ScoreEntry is one row of the recent-runs scoreboard.
type ScoreEntry struct {
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is a line the player has seen.
type HistoryEntry struct {
	ID    int          `json:"id"`
	Text  string       `json:"text"`
	Flags *story.Flags `json:"flags,omitempty"`
	TS    time.Time    `json:"ts"`
}

// Mood accumulates domain words from the lines the player reads.
type Mood struct {
	Flesh float64 `json:"flesh"`
	Stone float64 `json:"stone"`
	Ash   float64 `json:"ash"`
	Dream float64 `json:"dream"`
}

// Point is a surface coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Surface is the click surface geometry used to place focus seeds.
type Surface struct {
	LastClick *Point  `json:"lastClick,omitempty"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// State is the full simulation aggregate. It is also the save blob: export
// and import use this layout verbatim.
type State struct {
	LineIndex        int                       `json:"lineIndex"`
	History          []HistoryEntry            `json:"history"`
	Seeds            int                       `json:"seeds"`
	Awakened         int                       `json:"awakened"`
	Entropy          float64                   `json:"entropy"`
	EntropyRaw       float64                   `json:"entropyRaw"`
	DomainAlignments map[domain.Domain]float64 `json:"domainAlignments"`
	DominantGod      domain.Domain             `json:"dominantGod,omitempty"`
	SaveSlot         domain.Slot               `json:"saveSlot"`
	IsPlaying        bool                      `json:"isPlaying"`
	Mood             Mood                      `json:"mood"`
	Surface          Surface                   `json:"surface"`

	SeedsAlive        map[string]SeedNode `json:"seedsAlive"`
	GodsAlive         map[string]GodNode  `json:"godsAlive"`
	ActiveBoons       []ActiveBoon        `json:"activeBoons"`
	ActivePrices      []ActivePrice       `json:"activePrices"`
	DomainBias        domain.Domain       `json:"domainBias,omitempty"`
	LastInteraction   time.Time           `json:"lastInteraction"`
	OmenCooldownUntil time.Time           `json:"omenCooldownUntil"`

	PersistentSeeds map[string]Seed `json:"persistentSeeds"`
	PersistentGods  map[string]God  `json:"persistentGods"`
	Season          domain.Season   `json:"season"`
	SeasonUntil     time.Time       `json:"seasonUntil"`
	SeasonCount     int             `json:"seasonCount"`
	Stats           Stats           `json:"stats"`

	RunOver        bool         `json:"runOver"`
	Score          *float64     `json:"score,omitempty"`
	Ending         *Ending      `json:"ending,omitempty"`
	LastScoreboard []ScoreEntry `json:"lastScoreboard"`
}

const scoreboardSize = 5

// initialState returns a fresh run starting at now.
func initialState(now time.Time, slot domain.Slot) State {
	return State{
		History:          []HistoryEntry{},
		DomainAlignments: freshAlignments(),
		SaveSlot:         slot,
		SeedsAlive:       map[string]SeedNode{},
		GodsAlive:        map[string]GodNode{},
		ActiveBoons:      []ActiveBoon{},
		ActivePrices:     []ActivePrice{},
		PersistentSeeds:  map[string]Seed{},
		PersistentGods:   map[string]God{},
		Season:           domain.Spring,
		SeasonUntil:      now.Add(firstSeasonLength),
		LastScoreboard:   []ScoreEntry{},
	}
}

func freshAlignments() map[domain.Domain]float64 {
	m := make(map[domain.Domain]float64, len(domain.Domains))
	for _, d := range domain.Domains {
		m[d] = 0
	}
	return m
}

// clone returns a deep copy. Pointer fields (LastFedAt, RotUntil, Score,
// Ending) are replaced rather than mutated by the engine, so sharing them
// is safe.
func (s State) clone() State {
	out := s
	out.History = slices.Clone(s.History)
	out.DomainAlignments = maps.Clone(s.DomainAlignments)
	out.SeedsAlive = maps.Clone(s.SeedsAlive)
	out.GodsAlive = maps.Clone(s.GodsAlive)
	out.ActiveBoons = slices.Clone(s.ActiveBoons)
	out.ActivePrices = slices.Clone(s.ActivePrices)
	out.PersistentSeeds = maps.Clone(s.PersistentSeeds)
	out.PersistentGods = maps.Clone(s.PersistentGods)
	out.LastScoreboard = slices.Clone(s.LastScoreboard)
	if s.Surface.LastClick != nil {
		p := *s.Surface.LastClick
		out.Surface.LastClick = &p
	}
	return out
}

// normalize replaces nil collections so the engine never writes to a nil map.
func (s *State) normalize() {
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	if s.DomainAlignments == nil {
		s.DomainAlignments = freshAlignments()
	}
	if s.SeedsAlive == nil {
		s.SeedsAlive = map[string]SeedNode{}
	}
	if s.GodsAlive == nil {
		s.GodsAlive = map[string]GodNode{}
	}
	if s.ActiveBoons == nil {
		s.ActiveBoons = []ActiveBoon{}
	}
	if s.ActivePrices == nil {
		s.ActivePrices = []ActivePrice{}
	}
	if s.PersistentSeeds == nil {
		s.PersistentSeeds = map[string]Seed{}
	}
	if s.PersistentGods == nil {
		s.PersistentGods = map[string]God{}
	}
	if s.LastScoreboard == nil {
		s.LastScoreboard = []ScoreEntry{}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
