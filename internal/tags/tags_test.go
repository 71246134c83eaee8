package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantText string
		wantTags []string
	}{
		{
			name:     "mixed case dedup",
			input:    "A [loud] B [Soft] C",
			wantText: "A B C",
			wantTags: []string{"loud", "soft"},
		},
		{
			name:     "no tags",
			input:    "  plain words  ",
			wantText: "plain words",
			wantTags: []string{},
		},
		{
			name:     "duplicates keep first position",
			input:    "[mirror] one [LOOP] two [Mirror] three [loop]",
			wantText: "one two three",
			wantTags: []string{"mirror", "loop"},
		},
		{
			name:     "unknown bracket untouched",
			input:    "the [garden] sighs [soft]",
			wantText: "the [garden] sighs",
			wantTags: []string{"soft"},
		},
		{
			name:     "adjacent tag and word",
			input:    "[loud]Wake",
			wantText: "Wake",
			wantTags: []string{"loud"},
		},
		{
			name:     "empty",
			input:    "",
			wantText: "",
			wantTags: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantTags, got.Tags)
		})
	}
}

func TestHasTag(t *testing.T) {
	assert.True(t, HasTag("a [LOUD] b", "loud"))
	assert.True(t, HasTag("a [loud] b", "Loud"))
	assert.False(t, HasTag("a [loud] b", "soft"))
	assert.False(t, HasTag("a [noise] b", "noise"))
}

func TestStripAndTags(t *testing.T) {
	assert.Equal(t, "roots remember", Strip("roots [loop] remember"))
	assert.Equal(t, []string{"loop"}, Tags("roots [loop] remember"))
}
