package overlays

import (
	"fmt"
	"math"
	"strings"
)

// Geometry constants shared by the live preview and the encode-time composite
const (
	MinSize = 64
	Padding = 20
)

// DefaultAspect is used when the source aspect is unusable
const DefaultAspect = 16.0 / 9.0

// Position is the container corner the overlay is anchored to
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

// Size is an overlay size tier
type Size string

const (
	Small  Size = "small"
	Medium Size = "medium"
	Large  Size = "large"
)

// Percent returns the tier's share of the container width
func (s Size) Percent() float64 {
	switch s {
	case Small:
		return 0.12
	case Large:
		return 0.25
	default:
		return 0.18
	}
}

// Config is a picture-in-picture configuration
type Config struct {
	Position     Position `json:"position" yaml:"position"`
	Size         Size     `json:"size" yaml:"size"`
	CameraRef    string   `json:"camera_ref,omitempty" yaml:"camera_ref,omitempty"`
	AudioRef     string   `json:"audio_ref,omitempty" yaml:"audio_ref,omitempty"`
	IncludeAudio bool     `json:"include_audio" yaml:"include_audio"`
}

// DefaultConfig returns bottom-right, medium, audio on
func DefaultConfig() Config {
	return Config{
		Position:     BottomRight,
		Size:         Medium,
		IncludeAudio: true,
	}
}

// Validate checks that position and size are known values
func (c Config) Validate() error {
	switch c.Position {
	case TopLeft, TopRight, BottomLeft, BottomRight:
	default:
		return fmt.Errorf("unknown overlay position %q", c.Position)
	}
	switch c.Size {
	case Small, Medium, Large:
	default:
		return fmt.Errorf("unknown overlay size %q", c.Size)
	}
	return nil
}

// ParsePosition accepts dashed, camel-case and two-letter corner names
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, "-", ""), "_", "")) {
	case "topleft", "tl":
		return TopLeft, nil
	case "topright", "tr":
		return TopRight, nil
	case "bottomleft", "bl":
		return BottomLeft, nil
	case "bottomright", "br":
		return BottomRight, nil
	}
	return "", fmt.Errorf("unknown overlay position %q", s)
}

// ParseSize accepts small, medium or large
func ParseSize(s string) (Size, error) {
	switch Size(strings.ToLower(s)) {
	case Small:
		return Small, nil
	case Medium:
		return Medium, nil
	case Large:
		return Large, nil
	}
	return "", fmt.Errorf("unknown overlay size %q", s)
}

// Rect is an overlay rectangle in container pixels
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Aspect returns width over height, or 0 when either side is missing
func Aspect(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}
	return float64(width) / float64(height)
}

// OverlayRect computes where the secondary source is drawn inside the container.
// Both dimensions are even and the rect always lies inside the container.
func OverlayRect(cfg Config, containerW, containerH int, sourceAspect float64) Rect {
	if containerW <= 0 || containerH <= 0 {
		return Rect{}
	}
	if sourceAspect <= 0 || math.IsNaN(sourceAspect) || math.IsInf(sourceAspect, 0) {
		sourceAspect = DefaultAspect
	}

	w := clampInt(int(math.Round(float64(containerW)*cfg.Size.Percent())), MinSize, containerW)
	h := clampInt(int(math.Round(float64(w)/sourceAspect)), MinSize, containerH)
	if w%2 != 0 {
		w--
	}
	if h%2 != 0 {
		h--
	}

	var x, y int
	switch cfg.Position {
	case TopLeft:
		x, y = Padding, Padding
	case TopRight:
		x, y = containerW-w-Padding, Padding
	case BottomLeft:
		x, y = Padding, containerH-h-Padding
	default:
		x, y = containerW-w-Padding, containerH-h-Padding
	}

	return Rect{
		X: clampInt(x, 0, containerW-w),
		Y: clampInt(y, 0, containerH-h),
		W: w,
		H: h,
	}
}

// clampInt bounds v to [lo, hi]; hi wins when the range is empty
func clampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
