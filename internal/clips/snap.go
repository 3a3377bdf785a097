package clips

import "math"

// SnapThresholdPixels is the on-screen distance within which a dragged clip snaps
const SnapThresholdPixels = 10.0

// SnapType names the edge a position snapped to
type SnapType string

const (
	SnapNone        SnapType = "none"
	SnapPreviousEnd SnapType = "previous-end"
	SnapNextStart   SnapType = "next-start"
)

// SnapResult is the outcome of a snap calculation
type SnapResult struct {
	Position float64  `json:"position"`
	Type     SnapType `json:"type"`
	TargetID string   `json:"target_id,omitempty"`
}

// ThresholdSeconds converts a pixel threshold to timeline seconds at the given scale
func ThresholdSeconds(pixels, pixelsPerSecond float64) float64 {
	if pixelsPerSecond <= 0 {
		return 0
	}
	return pixels / pixelsPerSecond
}

// CalculateSnapPosition aligns a candidate interval with the end of the nearest
// preceding clip or the start of the nearest following clip, whichever is closer
// and within threshold. Otherwise the candidate is returned unchanged.
// When both edges are equally close the previous clip's end wins.
func (s *Store) CalculateSnapPosition(candidate, duration float64, excludeID string, threshold float64) SnapResult {
	result := SnapResult{Position: candidate, Type: SnapNone}

	var prev, next *Clip
	for i := range s.clips {
		c := &s.clips[i]
		if c.ID == excludeID {
			continue
		}
		if c.StartTime <= candidate {
			if prev == nil || c.End() > prev.End() {
				prev = c
			}
		} else if next == nil || c.StartTime < next.StartTime {
			next = c
		}
	}

	best := threshold
	if prev != nil {
		if d := math.Abs(candidate - prev.End()); d <= best {
			best = d
			result = SnapResult{Position: prev.End(), Type: SnapPreviousEnd, TargetID: prev.ID}
		}
	}
	if next != nil {
		if d := math.Abs(candidate + duration - next.StartTime); d < best || (d <= threshold && result.Type == SnapNone) {
			result = SnapResult{Position: math.Max(0, next.StartTime-duration), Type: SnapNextStart, TargetID: next.ID}
		}
	}
	return result
}
