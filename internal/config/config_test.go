package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/godseed/internal/domain"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "godseed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "godseed.db", cfg.Database)
	assert.Equal(t, domain.SlotA, cfg.SaveSlot())
	assert.Equal(t, 0.7, cfg.Settings.MasterVolume)
	assert.Equal(t, 16, cfg.Simulate.FrameMs)
	assert.Equal(t, "dist/loop_meta.json", cfg.Loop.Output)
}

func TestLoad_OverlaysUserFile(t *testing.T) {
	path := writeFile(t, "slot: C\nsimulate:\n  frames: 600\nsettings:\n  muted: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.SlotC, cfg.SaveSlot())
	assert.Equal(t, 600, cfg.Simulate.Frames)
	assert.True(t, cfg.Settings.Muted)
	assert.Equal(t, 16, cfg.Simulate.FrameMs, "keys the file omits keep their defaults")
	assert.Equal(t, 0.7, cfg.Settings.MasterVolume)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "slot", body: "slot: D\n", want: "slot"},
		{name: "volume", body: "settings:\n  master_volume: 1.5\n", want: "master_volume"},
		{name: "frame interval", body: "simulate:\n  frame_ms: 0\n", want: "frame_ms"},
		{name: "syntax", body: "slot: [\n", want: "parsing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Slot = "B"
	cfg.Simulate.Seed = 42
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "slot: C\nsimulate:\n  seed: 5\n")
	t.Setenv("GODSEED_SLOT", "B")
	t.Setenv("GODSEED_SIMULATE_SEED", "77")
	t.Setenv("GODSEED_SETTINGS_MUTED", "true")
	t.Setenv("GODSEED_CONTENT_LOOP_META", "meta.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.SlotB, cfg.SaveSlot())
	assert.Equal(t, uint64(77), cfg.Simulate.Seed)
	assert.True(t, cfg.Settings.Muted)
	assert.Equal(t, "meta.json", cfg.Content.LoopMeta)
	assert.Equal(t, 16, cfg.Simulate.FrameMs)
}

func TestLoad_EnvironmentInvalid(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		t.Setenv("GODSEED_SIMULATE_FRAMES", "many")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing environment")
	})
	t.Run("fails validation", func(t *testing.T) {
		t.Setenv("GODSEED_SLOT", "Z")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "slot")
	})
}
