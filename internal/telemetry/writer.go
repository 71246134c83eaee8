package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// Writer appends samples as CSV. The header is written with the first row.
type Writer struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
	rows          int
}

// NewWriter writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create opens path for writing, creating parent directories.
// Returns nil if path is empty (telemetry disabled); a nil Writer
// accepts and discards every call.
func Create(path string) (*Writer, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry file: %w", err)
	}
	return &Writer{w: f, closer: f}, nil
}

// Write appends one sample.
func (w *Writer) Write(s Sample) error {
	if w == nil {
		return nil
	}
	records := []Sample{s}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		w.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, w.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}
	w.rows++
	return nil
}

// Rows returns how many samples were written.
func (w *Writer) Rows() int {
	if w == nil {
		return 0
	}
	return w.rows
}

// Close closes the underlying file, if Create opened one.
func (w *Writer) Close() error {
	if w == nil || w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// ReadSamples parses a telemetry CSV.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var out []Sample
	if err := gocsv.Unmarshal(r, &out); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return out, nil
}
