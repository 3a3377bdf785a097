package playback

import "github.com/keagan/clipforge/internal/clips"

// Active is the clip under a virtual time and the matching source position
type Active struct {
	Clip       clips.Clip
	SourceTime float64
}

// ActiveAt finds the clip whose interval contains t, start inclusive and end exclusive.
// It reports false for gaps and for times past the last clip.
func ActiveAt(all []clips.Clip, t float64) (Active, bool) {
	for _, c := range all {
		if c.Contains(t) {
			return Active{Clip: c, SourceTime: c.SourceTimeAt(t)}, true
		}
	}
	return Active{}, false
}

func timelineEnd(all []clips.Clip) float64 {
	end := 0.0
	for _, c := range all {
		end = max(end, c.End())
	}
	return end
}
