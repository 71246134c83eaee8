package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execValidate(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate_BuiltInContent(t *testing.T) {
	out, err := execValidate(t, "text", "--loop-meta", filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All content valid")
}

func TestValidate_JSONSuccess(t *testing.T) {
	dir := t.TempDir()
	story := writeFile(t, dir, "story.json", `{"title": "T", "author": "A", "lines": [{"id": 1, "text": "The soil listens."}]}`)
	corruption := writeFile(t, dir, "corruption.json", `["it hums", "it waits"]`)
	meta := writeFile(t, dir, "loop_meta.json", `{"drone_low.ogg": {"loopStart": 0, "loopEnd": 441000, "isLoopable": true}}`)

	out, err := execValidate(t, "json", "--story", story, "--corruption", corruption, "--loop-meta", meta)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{SourceCatalog, SourceStory, SourceCorruption, SourceLoopMeta}, resp.Data.Checked)
	assert.Positive(t, resp.Data.Unrouted)
}

func TestValidate_Failures(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	tests := []struct {
		name       string
		args       []string
		wantSource string
		wantCode   string
	}{
		{
			name:       "catalog references unknown event and cue",
			args:       []string{"--cues", writeFile(t, dir, "cues.json", `{"cues": [], "routes": [{"when": "never.fires", "play": ["ghost"]}]}`)},
			wantSource: SourceCatalog,
		},
		{
			name:       "catalog unreadable",
			args:       []string{"--cues", missing},
			wantSource: SourceCatalog,
			wantCode:   "A001",
		},
		{
			name:       "story without lines",
			args:       []string{"--story", writeFile(t, dir, "story.json", `{"title": "empty"}`)},
			wantSource: SourceStory,
			wantCode:   CodeContent,
		},
		{
			name:       "corruption is not a list",
			args:       []string{"--corruption", writeFile(t, dir, "corruption.json", `{"line": "x"}`)},
			wantSource: SourceCorruption,
			wantCode:   CodeContent,
		},
		{
			name:       "loop metadata malformed",
			args:       []string{"--loop-meta", writeFile(t, dir, "meta.json", `[1, 2`)},
			wantSource: SourceLoopMeta,
			wantCode:   CodeAnalysis,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--loop-meta", missing}, tt.args...)
			out, err := execValidate(t, "json", args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp struct {
				Status string           `json:"status"`
				Data   ValidationResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.False(t, resp.Data.Valid)
			require.NotEmpty(t, resp.Data.Errors)
			assert.Equal(t, tt.wantSource, resp.Data.Errors[0].Source)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Data.Errors[0].Code)
			}
		})
	}
}

func TestValidate_TextFailure(t *testing.T) {
	dir := t.TempDir()
	story := writeFile(t, dir, "story.json", `not json`)

	out, err := execValidate(t, "text", "--story", story, "--loop-meta", filepath.Join(dir, "none.json"))
	require.Error(t, err)
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "story\n")
	assert.Contains(t, out, CodeContent)
}

func TestValidate_BadConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "godseed.yaml", "slot: Q\n")

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text", Config: cfg})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), CodeConfig)
}
