package audio

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/godseed/internal/event"
)

//go:embed schema.cue
var schemaSource string

//go:embed cues.json
var defaultCatalog []byte

// CueType distinguishes looping beds from one-shot effects.
type CueType string

const (
	CueLoop CueType = "loop"
	CueOne  CueType = "one"
)

// Cue is one playable sound.
type Cue struct {
	ID         string    `json:"id"`
	Type       CueType   `json:"type"`
	Src        string    `json:"src"`
	Gain       float64   `json:"gain"`
	EntropyMin *float64  `json:"entropyMin,omitempty"`
	EntropyMax *float64  `json:"entropyMax,omitempty"`
	RateVar    []float64 `json:"rateVar,omitempty"`
	CooldownMs int       `json:"cooldownMs,omitempty"`
	Tags       []string  `json:"tags"`
	DuckOn     []string  `json:"duckOn,omitempty"`
}

// InWindow reports whether entropy lies inside the cue's optional range.
func (c Cue) InWindow(entropy float64) bool {
	if c.EntropyMin != nil && entropy < *c.EntropyMin {
		return false
	}
	if c.EntropyMax != nil && entropy > *c.EntropyMax {
		return false
	}
	return true
}

// Route maps one event name to the cue actions it triggers.
type Route struct {
	When  string   `json:"when"`
	Play  []string `json:"play,omitempty"`
	Stop  []string `json:"stop,omitempty"`
	Duck  float64  `json:"duck,omitempty"`
	ForMs int      `json:"forMs,omitempty"`
}

// Catalog is the audio_cues.json document: the contract between the
// binder's event names and audio playback.
type Catalog struct {
	Cues   []Cue   `json:"cues"`
	Routes []Route `json:"routes"`
}

// Cue finds a cue by id.
func (c *Catalog) Cue(id string) (Cue, bool) {
	for _, cue := range c.Cues {
		if cue.ID == id {
			return cue, true
		}
	}
	return Cue{}, false
}

// Error codes for catalog problems.
const (
	ErrCodeRead         = "A001" // Catalog file unreadable
	ErrCodeSchema       = "A002" // Document does not match the schema
	ErrCodeUnknownEvent = "A101" // Route or duckOn names an event that never fires
	ErrCodeUnknownCue   = "A102" // Route references a missing cue
	ErrCodeDuplicateCue = "A103" // Two cues share an id
	ErrCodeDuckWindow   = "A104" // duck and forMs must be set together
)

// CatalogError describes one catalog problem. Pos is set for schema errors.
type CatalogError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	cat, errs := ParseCatalog(defaultCatalog, "cues.json")
	if len(errs) > 0 {
		panic(fmt.Sprintf("built-in audio catalog is invalid: %v", errs[0]))
	}
	return cat
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&CatalogError{Code: ErrCodeRead, Message: err.Error()}}
	}
	return ParseCatalog(data, filepath.Base(path))
}

// ParseCatalog checks data against the catalog schema, decodes it, and runs
// the routing checks in Validate. Schema errors stop before decoding.
func ParseCatalog(data []byte, filename string) (*Catalog, []error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, []error{&CatalogError{Code: ErrCodeSchema, Message: fmt.Sprintf("compiling schema: %v", err)}}
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, schemaErrors(err)
	}

	value := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(doc)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, schemaErrors(err)
	}

	var cat Catalog
	if err := value.Decode(&cat); err != nil {
		return nil, []error{&CatalogError{Code: ErrCodeSchema, Message: fmt.Sprintf("decoding catalog: %v", err)}}
	}
	if errs := cat.Validate(); len(errs) > 0 {
		return &cat, errs
	}
	return &cat, nil
}

func schemaErrors(err error) []error {
	var out []error
	for _, e := range cueerrors.Errors(err) {
		out = append(out, &CatalogError{
			Code:    ErrCodeSchema,
			Message: e.Error(),
			Pos:     e.Position(),
		})
	}
	if len(out) == 0 {
		out = append(out, &CatalogError{Code: ErrCodeSchema, Message: err.Error()})
	}
	return out
}

// Validate checks the routing table: every when is an event the binder can
// emit, every referenced cue exists, and cue ids are unique.
func (c *Catalog) Validate() []error {
	var errs []error

	ids := make(map[string]bool, len(c.Cues))
	for _, cue := range c.Cues {
		if ids[cue.ID] {
			errs = append(errs, &CatalogError{Code: ErrCodeDuplicateCue, Message: fmt.Sprintf("cue %q defined twice", cue.ID)})
		}
		ids[cue.ID] = true
		for _, name := range cue.DuckOn {
			if !event.IsKnownName(name) {
				errs = append(errs, &CatalogError{Code: ErrCodeUnknownEvent, Message: fmt.Sprintf("cue %q: duckOn event %q never fires", cue.ID, name)})
			}
		}
	}

	for i, r := range c.Routes {
		if !event.IsKnownName(r.When) {
			errs = append(errs, &CatalogError{Code: ErrCodeUnknownEvent, Message: fmt.Sprintf("routes[%d]: event %q never fires", i, r.When)})
		}
		for _, id := range append(append([]string{}, r.Play...), r.Stop...) {
			if !ids[id] {
				errs = append(errs, &CatalogError{Code: ErrCodeUnknownCue, Message: fmt.Sprintf("routes[%d] (%s): unknown cue %q", i, r.When, id)})
			}
		}
		if (r.Duck > 0) != (r.ForMs > 0) {
			errs = append(errs, &CatalogError{Code: ErrCodeDuckWindow, Message: fmt.Sprintf("routes[%d] (%s): duck needs both duck and forMs", i, r.When)})
		}
	}
	return errs
}

// Unrouted lists the event names no route listens for, sorted.
func (c *Catalog) Unrouted() []string {
	routed := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		routed[r.When] = true
	}
	var out []string
	for _, name := range event.AllNames() {
		if !routed[name] {
			out = append(out, name)
		}
	}
	return out
}
