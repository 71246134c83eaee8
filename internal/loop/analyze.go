// Package loop estimates seamless loop points for ambient audio cues.
//
// The analyzer downsamples the first channel, cross-correlates the last
// segment of the sound against the first, and picks the offset where the
// tail best matches the head. Percussive or short sounds are marked as
// one-shots. Any decoding failure degrades to Fallback so content always
// plays.
package loop

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// AnalysisSampleRate is the rate signals are downsampled to before
	// correlation.
	AnalysisSampleRate = 11025

	// CorrelationThreshold is the minimum peak correlation for a detected loop.
	CorrelationThreshold = 0.8

	// FadeSamples is the guard band kept between loopEnd and the buffer end.
	FadeSamples = 1000

	// SegmentSeconds is the length of the head and tail segments compared.
	SegmentSeconds = 1.5

	// MinLoopSeconds is the shortest sound considered for looping.
	MinLoopSeconds = 2.0

	minCrossfadeMs = 200
	maxCrossfadeMs = 600
	minPeakWidth   = 100
	peakWidthRatio = 0.8
)

// percussive names mark one-shot sounds regardless of length.
var percussive = []string{"chime", "bell", "pulse", "click", "hit", "snap"}

// Metadata describes where and how a sound loops.
type Metadata struct {
	LoopStart   int     `json:"loopStart"`
	LoopEnd     int     `json:"loopEnd"`
	CrossfadeMs float64 `json:"crossfadeMs"`
	IsLoopable  bool    `json:"isLoopable"`
	Confidence  float64 `json:"confidence"`
	Duration    float64 `json:"duration"`
}

// Buffer is decoded PCM audio with one slice per channel, samples in [-1,1].
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// Len returns the number of frames in the buffer.
func (b Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}

// Fallback is the metadata used whenever a file cannot be analyzed.
func Fallback() Metadata {
	return Metadata{
		LoopStart:   0,
		LoopEnd:     44100 - FadeSamples,
		CrossfadeMs: 400,
		IsLoopable:  true,
		Confidence:  0.3,
		Duration:    1.0,
	}
}

// IsPercussive reports whether a sound should be treated as a one-shot.
func IsPercussive(name string, duration float64) bool {
	lower := strings.ToLower(name)
	for _, p := range percussive {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return duration < MinLoopSeconds
}

// Analyze estimates loop points for buf. name is used only for the
// percussive check. Analyze is deterministic and never fails; an empty
// buffer yields Fallback.
func Analyze(buf Buffer, name string) Metadata {
	n := buf.Len()
	if n == 0 || buf.SampleRate <= 0 {
		return Fallback()
	}
	duration := buf.Duration()
	loopEnd := max(0, n-FadeSamples)

	if IsPercussive(name, duration) {
		return Metadata{
			LoopStart:   0,
			LoopEnd:     loopEnd,
			CrossfadeMs: 0,
			IsLoopable:  false,
			Confidence:  1.0,
			Duration:    duration,
		}
	}

	full := Metadata{
		LoopStart:   0,
		LoopEnd:     loopEnd,
		CrossfadeMs: 500,
		IsLoopable:  true,
		Confidence:  0.5,
		Duration:    duration,
	}

	down := Downsample(buf.Channels[0], buf.SampleRate, AnalysisSampleRate)
	segLen := int(math.Floor(math.Min(SegmentSeconds*AnalysisSampleRate, float64(len(down))/2)))
	if segLen == 0 {
		return full
	}

	tail := down[len(down)-segLen:]
	head := down[:segLen]

	corr := Correlate(tail, head)
	best := floats.MaxIdx(corr)
	peak := corr[best]

	if peak < CorrelationThreshold {
		return full
	}

	scale := float64(buf.SampleRate) / AnalysisSampleRate
	width := PeakWidth(corr, best)
	crossfade := float64(width) * scale / float64(buf.SampleRate) * 1000

	return Metadata{
		LoopStart:   int(math.Floor(float64(best) * scale)),
		LoopEnd:     loopEnd,
		CrossfadeMs: math.Min(maxCrossfadeMs, math.Max(minCrossfadeMs, crossfade)),
		IsLoopable:  true,
		Confidence:  math.Min(1, peak),
		Duration:    duration,
	}
}

// Downsample resamples src from srcRate to dstRate using linear
// interpolation between neighbouring source samples.
func Downsample(src []float64, srcRate, dstRate int) []float64 {
	if len(src) == 0 || srcRate <= 0 || dstRate <= 0 {
		return nil
	}
	ratio := float64(srcRate) / float64(dstRate)
	out := make([]float64, int(math.Floor(float64(len(src))/ratio)))

	for i := range out {
		pos := float64(i) * ratio
		idx := int(math.Floor(pos))
		frac := pos - float64(idx)

		if idx < len(src)-1 {
			out[i] = src[idx] + frac*(src[idx+1]-src[idx])
		} else {
			out[i] = src[min(idx, len(src)-1)]
		}
	}
	return out
}

// Correlate returns the normalized cross-correlation of a against b for
// every offset in [0, min(len(a), len(b))):
//
//	corr[off] = Σ a[i]·b[i+off] / sqrt(Σ a[i]² · Σ b[i+off]²)
//
// over the overlap i ∈ [0, n-off). Offsets whose overlap is shorter than
// half the segment are left at zero; a handful of samples can match
// perfectly by accident and would otherwise dominate the peak search.
func Correlate(a, b []float64) []float64 {
	n := min(len(a), len(b))
	corr := make([]float64, n)
	if n == 0 {
		return corr
	}

	// Prefix sums of squares give each overlap's energy in O(1).
	ea := make([]float64, n+1)
	eb := make([]float64, n+1)
	for i := 0; i < n; i++ {
		ea[i+1] = ea[i] + a[i]*a[i]
		eb[i+1] = eb[i] + b[i]*b[i]
	}

	minOverlap := (n + 1) / 2
	for off := 0; off < n; off++ {
		overlap := n - off
		if overlap < minOverlap {
			break
		}
		energy := ea[overlap] * (eb[n] - eb[off])
		if energy <= 0 {
			continue
		}
		corr[off] = floats.Dot(a[:overlap], b[off:n]) / math.Sqrt(energy)
	}
	return corr
}

// PeakWidth returns how many offsets past peak the correlation stays at or
// above 80% of the peak value, with a floor of 100.
func PeakWidth(corr []float64, peak int) int {
	limit := corr[peak] * peakWidthRatio
	width := 0
	for i := peak; i < len(corr); i++ {
		if corr[i] < limit {
			width = i - peak
			break
		}
	}
	return max(minPeakWidth, width)
}
