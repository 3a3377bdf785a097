package render

import (
	"fmt"
	"math"
)

// Zoom and scale constants
const (
	BasePixelsPerSecond = 50.0
	MinZoom             = 0.1
	MaxZoom             = 10.0
)

// PanPolicy decides how far the view may scroll right
type PanPolicy string

const (
	// PanUnbounded only floors the pan at 0
	PanUnbounded PanPolicy = "unbounded"
	// PanContent stops one viewport past the end of the content
	PanContent PanPolicy = "content"
)

// ParsePanPolicy accepts unbounded or content; empty means unbounded
func ParsePanPolicy(s string) (PanPolicy, error) {
	switch PanPolicy(s) {
	case "", PanUnbounded:
		return PanUnbounded, nil
	case PanContent:
		return PanContent, nil
	}
	return "", fmt.Errorf("unknown pan policy %q", s)
}

// View maps timeline seconds to horizontal pixels
type View struct {
	Zoom   float64
	Pan    float64
	Width  int
	Height int
	Policy PanPolicy
}

// NewView returns a view at zoom 1 with no pan
func NewView(width, height int) View {
	return View{Zoom: 1, Width: width, Height: height, Policy: PanUnbounded}
}

// PixelsPerSecond returns the current horizontal scale
func (v View) PixelsPerSecond() float64 {
	return BasePixelsPerSecond * v.Zoom
}

// TimeToPixel converts seconds to a view x coordinate
func (v View) TimeToPixel(t float64) float64 {
	return t*v.PixelsPerSecond() - v.Pan
}

// PixelToTime converts a view x coordinate to seconds
func (v View) PixelToTime(x float64) float64 {
	return (x + v.Pan) / v.PixelsPerSecond()
}

// VisibleRange returns the first and last visible second
func (v View) VisibleRange() (float64, float64) {
	return v.PixelToTime(0), v.PixelToTime(float64(v.Width))
}

// SetZoom clamps z into [MinZoom, MaxZoom]
func (v *View) SetZoom(z float64) {
	if math.IsNaN(z) || z <= 0 {
		return
	}
	v.Zoom = math.Min(MaxZoom, math.Max(MinZoom, z))
}

// ZoomAt multiplies the zoom by factor keeping the time under x fixed
func (v *View) ZoomAt(factor, x, contentEnd float64) {
	t := v.PixelToTime(x)
	v.SetZoom(v.Zoom * factor)
	v.Pan = t*v.PixelsPerSecond() - x
	v.ClampPan(contentEnd)
}

// PanBy scrolls by dx pixels
func (v *View) PanBy(dx, contentEnd float64) {
	v.Pan += dx
	v.ClampPan(contentEnd)
}

// ClampPan applies the floor of 0 and the policy's ceiling
func (v *View) ClampPan(contentEnd float64) {
	if v.Policy == PanContent {
		// scrollable extent is the content plus one viewport
		ceiling := math.Max(0, contentEnd*v.PixelsPerSecond())
		v.Pan = math.Min(v.Pan, ceiling)
	}
	v.Pan = math.Max(0, v.Pan)
}
