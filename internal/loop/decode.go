package loop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
)

// ErrUnsupportedFormat is returned by Decode for extensions other than
// .wav and .ogg.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExt reports whether Decode understands the file extension.
func SupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".ogg":
		return true
	}
	return false
}

// Decode reads a WAV or Ogg Vorbis file into a Buffer.
func Decode(path string) (Buffer, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return decodeWAV(path)
	case ".ogg":
		return decodeOGG(path)
	default:
		return Buffer{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func decodeWAV(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return Buffer{}, fmt.Errorf("invalid wav file %s", filepath.Base(path))
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("decode wav: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return Buffer{}, fmt.Errorf("wav %s has no channels", filepath.Base(path))
	}

	bitDepth := int(d.BitDepth)
	if bitDepth <= 0 {
		bitDepth = pcm.SourceBitDepth
	}
	if bitDepth <= 0 {
		return Buffer{}, fmt.Errorf("wav %s has no bit depth", filepath.Base(path))
	}
	full := float64(int64(1) << (bitDepth - 1))

	chans := pcm.Format.NumChannels
	frames := len(pcm.Data) / chans
	out := Buffer{
		SampleRate: pcm.Format.SampleRate,
		Channels:   make([][]float64, chans),
	}
	for c := range out.Channels {
		out.Channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < chans; c++ {
			out.Channels[c][i] = float64(pcm.Data[i*chans+c]) / full
		}
	}
	return out, nil
}

func decodeOGG(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open ogg: %w", err)
	}
	defer f.Close()

	samples, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("decode ogg: %w", err)
	}
	if format.Channels <= 0 {
		return Buffer{}, fmt.Errorf("ogg %s has no channels", filepath.Base(path))
	}

	chans := format.Channels
	frames := len(samples) / chans
	out := Buffer{
		SampleRate: format.SampleRate,
		Channels:   make([][]float64, chans),
	}
	for c := range out.Channels {
		out.Channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < chans; c++ {
			out.Channels[c][i] = float64(samples[i*chans+c])
		}
	}
	return out, nil
}
