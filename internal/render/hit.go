package render

import "math"

// HitKind is what a pointer-down landed on
type HitKind int

const (
	HitEmpty HitKind = iota
	HitPlayhead
	HitTrimStart
	HitTrimEnd
	HitClip
	HitRuler
)

func (k HitKind) String() string {
	switch k {
	case HitPlayhead:
		return "playhead"
	case HitTrimStart:
		return "trim-start"
	case HitTrimEnd:
		return "trim-end"
	case HitClip:
		return "clip"
	case HitRuler:
		return "ruler"
	default:
		return "empty"
	}
}

// Hit is the result of HitTest
type Hit struct {
	Kind   HitKind
	ClipID string
	Time   float64
}

// HitTest resolves a pointer position in priority order: playhead handle,
// trim handles of the selected clip, clip body, ruler, then empty space.
func HitTest(s Scene, x, y float64) Hit {
	v := s.View
	t := v.PixelToTime(x)

	if math.Abs(x-v.TimeToPixel(s.Playhead)) <= PlayheadHandle {
		return Hit{Kind: HitPlayhead, Time: s.Playhead}
	}

	inTrack := y >= TrackTop && y < TrackTop+TrackHeight
	if inTrack && s.SelectedID != "" {
		for _, c := range s.Clips {
			if c.ID != s.SelectedID {
				continue
			}
			x0, x1 := v.TimeToPixel(c.StartTime), v.TimeToPixel(c.End())
			switch {
			case x >= x0 && x <= x0+TrimHandleWidth:
				return Hit{Kind: HitTrimStart, ClipID: c.ID, Time: t}
			case x >= x1-TrimHandleWidth && x <= x1:
				return Hit{Kind: HitTrimEnd, ClipID: c.ID, Time: t}
			}
			break
		}
	}

	if inTrack {
		for _, c := range s.Clips {
			if c.Contains(t) {
				return Hit{Kind: HitClip, ClipID: c.ID, Time: t}
			}
		}
	}

	if y >= 0 && y < RulerHeight {
		return Hit{Kind: HitRuler, Time: math.Max(0, t)}
	}
	return Hit{Kind: HitEmpty, Time: t}
}
