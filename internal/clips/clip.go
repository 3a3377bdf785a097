package clips

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

// MinClipLength is the shortest trimmed duration a clip may have, in seconds
const MinClipLength = 0.1

// ErrPlacementRejected is returned when a clip cannot be placed without overlapping another
var ErrPlacementRejected = errors.New("placement rejected: interval overlaps an existing clip")

// Clip is a placed, trimmed instance of a source asset on the timeline.
// All times are in seconds.
type Clip struct {
	ID             string  `yaml:"id" json:"id"`
	MediaRef       string  `yaml:"media_ref" json:"media_ref"`
	Name           string  `yaml:"name,omitempty" json:"name,omitempty"`
	StartTime      float64 `yaml:"start_time" json:"start_time"`
	SourceDuration float64 `yaml:"source_duration" json:"source_duration"`
	TrimStart      float64 `yaml:"trim_start" json:"trim_start"`
	TrimEnd        float64 `yaml:"trim_end" json:"trim_end"`
	Width          int     `yaml:"width,omitempty" json:"width,omitempty"`
	Height         int     `yaml:"height,omitempty" json:"height,omitempty"`
	FrameRate      float64 `yaml:"frame_rate,omitempty" json:"frame_rate,omitempty"`
}

// Duration returns the trimmed length of the clip
func (c Clip) Duration() float64 {
	return c.TrimEnd - c.TrimStart
}

// End returns the exclusive end of the clip's timeline interval
func (c Clip) End() float64 {
	return c.StartTime + c.Duration()
}

// Contains reports whether t falls in [StartTime, End)
func (c Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.End()
}

// Overlaps reports whether [pos, pos+duration) intersects the clip's interval
func (c Clip) Overlaps(pos, duration float64) bool {
	return pos < c.End() && pos+duration > c.StartTime
}

// SourceTimeAt maps a timeline time inside the clip to the source asset's clock
func (c Clip) SourceTimeAt(t float64) float64 {
	return c.TrimStart + (t - c.StartTime)
}

// TimelineTimeAt maps a source asset time back onto the timeline
func (c Clip) TimelineTimeAt(assetTime float64) float64 {
	return c.StartTime + (assetTime - c.TrimStart)
}

// Valid reports whether the clip satisfies the trim and position invariants
func (c Clip) Valid() bool {
	if !finite(c.StartTime, c.SourceDuration, c.TrimStart, c.TrimEnd) {
		return false
	}
	if c.StartTime < 0 || c.TrimStart < 0 || c.TrimEnd > c.SourceDuration {
		return false
	}
	return c.Duration() >= MinClipLength-epsilon
}

// Draft describes a clip that has not been placed yet
type Draft struct {
	MediaRef       string
	Name           string
	SourceDuration float64
	StartTime      float64
	TrimStart      float64
	// TrimEnd of zero means the whole source
	TrimEnd   float64
	Width     int
	Height    int
	FrameRate float64
}

// DraftFrom copies a clip's media and trim into a new draft
func DraftFrom(c Clip) Draft {
	return Draft{
		MediaRef:       c.MediaRef,
		Name:           c.Name,
		SourceDuration: c.SourceDuration,
		StartTime:      c.StartTime,
		TrimStart:      c.TrimStart,
		TrimEnd:        c.TrimEnd,
		Width:          c.Width,
		Height:         c.Height,
		FrameRate:      c.FrameRate,
	}
}

// Duration returns the trimmed length the draft will occupy once placed
func (d Draft) Duration() float64 {
	start, end := ClampTrim(d.TrimStart, d.trimEnd(), d.SourceDuration)
	return end - start
}

func (d Draft) trimEnd() float64 {
	if d.TrimEnd <= 0 {
		return d.SourceDuration
	}
	return d.TrimEnd
}

func (d Draft) toClip(id string, start float64) Clip {
	trimStart, trimEnd := ClampTrim(d.TrimStart, d.trimEnd(), d.SourceDuration)
	return Clip{
		ID:             id,
		MediaRef:       d.MediaRef,
		Name:           d.Name,
		StartTime:      math.Max(0, start),
		SourceDuration: d.SourceDuration,
		TrimStart:      trimStart,
		TrimEnd:        trimEnd,
		Width:          d.Width,
		Height:         d.Height,
		FrameRate:      d.FrameRate,
	}
}

// ClampTrim applies the trim clamping policy and returns the corrected in/out points.
// The result always satisfies 0 <= start < end <= sourceDuration and, when the
// source is long enough, end-start >= MinClipLength.
func ClampTrim(start, end, sourceDuration float64) (float64, float64) {
	start = clamp(start, 0, sourceDuration)
	end = clamp(end, start, sourceDuration)
	if end-start < MinClipLength {
		end = math.Min(start+MinClipLength, sourceDuration)
	}
	if end-start < MinClipLength {
		start = math.Max(0, end-MinClipLength)
	}
	return start, end
}

// NewID returns a fresh clip identifier
func NewID() string {
	return uuid.NewString()
}

const epsilon = 1e-9

// finite reports whether every value is a real number, neither NaN nor infinite
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
