// Package tags extracts inline corruption directives from narrative text.
//
// Only four directives are recognized: [soft], [loud], [loop] and [mirror],
// matched case-insensitively. Any other bracketed content is left in place.
package tags

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Known tag names, in lower case.
const (
	Soft   = "soft"
	Loud   = "loud"
	Loop   = "loop"
	Mirror = "mirror"
)

// All lists every recognized tag.
var All = []string{Soft, Loud, Loop, Mirror}

// pattern consumes the horizontal whitespace around a directive so that
// "A [loud] B" collapses to "A B" instead of leaving a double space.
var pattern = regexp.MustCompile(`[ \t]*\[(?i:(soft|loud|loop|mirror))\][ \t]*`)

// Parsed is the result of Parse.
type Parsed struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

// Parse returns the text with every recognized directive removed and the
// directives found, lower-cased and de-duplicated in first-seen order.
// Parse never fails: text without directives is returned trimmed with an
// empty (non-nil) tag list.
func Parse(text string) Parsed {
	found := []string{}
	fold := cases.Fold()

	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		tag := fold.String(m[1])
		if !slices.Contains(found, tag) {
			found = append(found, tag)
		}
	}

	clean := pattern.ReplaceAllStringFunc(text, func(match string) string {
		if strings.TrimSpace(match) != match {
			return " "
		}
		return ""
	})

	return Parsed{
		Text: strings.TrimSpace(clean),
		Tags: found,
	}
}

// HasTag reports whether text carries the given directive.
func HasTag(text, tag string) bool {
	return slices.Contains(Parse(text).Tags, strings.ToLower(tag))
}

// Strip returns text with every recognized directive removed.
func Strip(text string) string {
	return Parse(text).Text
}

// Tags returns only the directives found in text.
func Tags(text string) []string {
	return Parse(text).Tags
}
