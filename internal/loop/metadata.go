package loop

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// MetadataMap maps an audio file name to its loop metadata. This is the
// layout of loop_meta.json.
type MetadataMap map[string]Metadata

// Lookup finds metadata by file name, matching on the base name so cue
// sources with directories ("assets/drone_low.ogg") resolve.
func (m MetadataMap) Lookup(src string) (Metadata, bool) {
	if md, ok := m[src]; ok {
		return md, true
	}
	md, ok := m[filepath.Base(src)]
	return md, ok
}

// Summary counts loopable and one-shot entries.
func (m MetadataMap) Summary() (loopable, oneShot int) {
	for _, md := range m {
		if md.IsLoopable {
			loopable++
		} else {
			oneShot++
		}
	}
	return loopable, oneShot
}

// PlaceholderMetadata is written when no asset directory exists, so the
// audio player still finds an entry for the stock cue files.
func PlaceholderMetadata() MetadataMap {
	drone := Metadata{LoopEnd: 441000, CrossfadeMs: 400, IsLoopable: true, Confidence: 0.8, Duration: 10.0}
	return MetadataMap{
		"drone_low.ogg":   drone,
		"drone_mid.ogg":   drone,
		"hiss_static.ogg": {LoopEnd: 441000, CrossfadeMs: 300, IsLoopable: true, Confidence: 0.9, Duration: 10.0},
		"pulse_heart.ogg": {LoopEnd: 44100, Confidence: 1.0, Duration: 1.0},
		"chime_glass.ogg": {LoopEnd: 22050, Confidence: 1.0, Duration: 0.5},
		"bell_far.ogg":    {LoopEnd: 88200, Confidence: 1.0, Duration: 2.0},
	}
}

// ReadMetadataFile loads a loop_meta.json file.
func ReadMetadataFile(path string) (MetadataMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loop metadata: %w", err)
	}
	var m MetadataMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse loop metadata %s: %w", path, err)
	}
	if m == nil {
		m = MetadataMap{}
	}
	return m, nil
}

// LoadMetadata reads path and degrades to an empty map when the file is
// missing or malformed. Callers treat a missing entry as a full-buffer loop.
func LoadMetadata(path string, logger *slog.Logger) MetadataMap {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := ReadMetadataFile(path)
	if err != nil {
		logger.Warn("loop metadata unavailable, using full-buffer loops", "path", path, "error", err)
		return MetadataMap{}
	}
	return m
}

// WriteMetadataFile writes m as indented JSON, creating parent directories.
func WriteMetadataFile(path string, m MetadataMap) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metadata dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal loop metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write loop metadata: %w", err)
	}
	return nil
}

// Analyzer runs file and batch analysis with logging.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger uses slog.Default().
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// AnalyzeFile decodes and analyzes one file. Decoding failures are logged
// and yield Fallback.
func (a *Analyzer) AnalyzeFile(path string) Metadata {
	buf, err := Decode(path)
	if err != nil {
		a.logger.Warn("loop analysis failed, using fallback", "file", path, "error", err)
		return Fallback()
	}
	return Analyze(buf, filepath.Base(path))
}

// AnalyzeFile analyzes one file with the default logger.
func AnalyzeFile(path string) Metadata {
	return NewAnalyzer(nil).AnalyzeFile(path)
}

// ErrNoAssets is returned by AnalyzeDir when the directory does not exist.
var ErrNoAssets = errors.New("assets directory not found")

// AnalyzeDir analyzes every .wav and .ogg file directly inside dir, in name
// order. A failing file gets Fallback without aborting the batch.
func (a *Analyzer) AnalyzeDir(dir string) (MetadataMap, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoAssets, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read assets dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && SupportedExt(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	out := make(MetadataMap, len(names))
	for _, name := range names {
		md := a.AnalyzeFile(filepath.Join(dir, name))
		a.logger.Info("analyzed",
			"file", name,
			"loopable", md.IsLoopable,
			"confidence", fmt.Sprintf("%.2f", md.Confidence),
		)
		out[name] = md
	}
	return out, nil
}
