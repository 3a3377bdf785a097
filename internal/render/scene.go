package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/pkg/util"
)

// Layout, in pixels
const (
	RulerHeight        = 30.0
	TrackTop           = 40.0
	TrackHeight        = 60.0
	PlayheadHandle     = 6.0
	TrimHandleWidth    = 8.0
	MinTickSpacing     = 60.0
	playheadHeadHeight = 10.0
)

// Palette
var (
	ColorBackground = color.RGBA{0x1e, 0x1e, 0x22, 0xff}
	ColorRuler      = color.RGBA{0x2a, 0x2a, 0x30, 0xff}
	ColorTick       = color.RGBA{0x88, 0x88, 0x90, 0xff}
	ColorLabel      = color.RGBA{0xcc, 0xcc, 0xd0, 0xff}
	ColorTrack      = color.RGBA{0x26, 0x26, 0x2c, 0xff}
	ColorClip       = color.RGBA{0x3b, 0x6e, 0xc4, 0xff}
	ColorClipLabel  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ColorSelection  = color.RGBA{0xff, 0xc8, 0x3c, 0xff}
	ColorHandle     = color.RGBA{0xff, 0xe0, 0x90, 0xff}
	ColorPlayhead   = color.RGBA{0xe5, 0x3e, 0x3e, 0xff}
)

// Kind is a draw primitive
type Kind int

const (
	KindRect Kind = iota
	KindStroke
	KindLine
	KindText
)

// DrawCommand is one primitive in view pixels. Lines run from (X, Y) to (X2, Y2);
// text is anchored at its baseline origin (X, Y).
type DrawCommand struct {
	Kind  Kind
	X, Y  float64
	W, H  float64
	X2    float64
	Y2    float64
	Text  string
	Color color.RGBA
}

// Scene is everything Describe needs to draw one frame
type Scene struct {
	View       View
	Clips      []clips.Clip
	Playhead   float64
	SelectedID string
}

// Executor draws a command list onto some surface
type Executor interface {
	Execute(cmds []DrawCommand)
}

var tickSteps = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30, 60, 120, 300, 600, 1800, 3600}

// TickStep returns the smallest ruler step keeping labels MinTickSpacing apart
func TickStep(pixelsPerSecond float64) float64 {
	for _, s := range tickSteps {
		if s*pixelsPerSecond >= MinTickSpacing {
			return s
		}
	}
	return tickSteps[len(tickSteps)-1]
}

// Describe lays out a frame: background, ruler, track, clips, selection
// with trim handles, then the playhead on top.
func Describe(s Scene) []DrawCommand {
	v := s.View
	w, h := float64(v.Width), float64(v.Height)
	cmds := []DrawCommand{
		{Kind: KindRect, W: w, H: h, Color: ColorBackground},
		{Kind: KindRect, W: w, H: RulerHeight, Color: ColorRuler},
	}

	cmds = append(cmds, describeRuler(v)...)
	cmds = append(cmds, DrawCommand{Kind: KindRect, Y: TrackTop, W: w, H: TrackHeight, Color: ColorTrack})

	var selected *clips.Clip
	for i := range s.Clips {
		c := s.Clips[i]
		x0, x1 := v.TimeToPixel(c.StartTime), v.TimeToPixel(c.End())
		if x1 < 0 || x0 > w {
			continue
		}
		cmds = append(cmds, DrawCommand{Kind: KindRect, X: x0, Y: TrackTop, W: x1 - x0, H: TrackHeight, Color: ColorClip})
		if c.Name != "" && x1-x0 > 2*TrimHandleWidth {
			cmds = append(cmds, DrawCommand{Kind: KindText, X: x0 + TrimHandleWidth, Y: TrackTop + 16, Text: c.Name, Color: ColorClipLabel})
		}
		if c.ID == s.SelectedID {
			selected = &s.Clips[i]
		}
	}

	if selected != nil {
		x0, x1 := v.TimeToPixel(selected.StartTime), v.TimeToPixel(selected.End())
		cmds = append(cmds,
			DrawCommand{Kind: KindStroke, X: x0, Y: TrackTop, W: x1 - x0, H: TrackHeight, Color: ColorSelection},
			DrawCommand{Kind: KindRect, X: x0, Y: TrackTop, W: TrimHandleWidth, H: TrackHeight, Color: ColorHandle},
			DrawCommand{Kind: KindRect, X: x1 - TrimHandleWidth, Y: TrackTop, W: TrimHandleWidth, H: TrackHeight, Color: ColorHandle},
		)
	}

	px := v.TimeToPixel(s.Playhead)
	if px >= -PlayheadHandle && px <= w+PlayheadHandle {
		cmds = append(cmds,
			DrawCommand{Kind: KindRect, X: px - PlayheadHandle, Y: 0, W: 2 * PlayheadHandle, H: playheadHeadHeight, Color: ColorPlayhead},
			DrawCommand{Kind: KindLine, X: px, Y: 0, X2: px, Y2: h, Color: ColorPlayhead},
		)
	}
	return cmds
}

func describeRuler(v View) []DrawCommand {
	step := TickStep(v.PixelsPerSecond())
	t0, t1 := v.VisibleRange()

	var cmds []DrawCommand
	for t := math.Floor(math.Max(0, t0)/step) * step; t <= t1; t += step {
		x := v.TimeToPixel(t)
		cmds = append(cmds,
			DrawCommand{Kind: KindLine, X: x, Y: RulerHeight - 10, X2: x, Y2: RulerHeight, Color: ColorTick},
			DrawCommand{Kind: KindText, X: x + 3, Y: RulerHeight - 14, Text: tickLabel(t, step), Color: ColorLabel},
		)
	}
	return cmds
}

func tickLabel(t, step float64) string {
	if step >= 1 {
		return util.FormatClock(math.Round(t))
	}
	cs := int(math.Round(t * 100))
	return fmt.Sprintf("%s.%02d", util.FormatClock(float64(cs/100)), cs%100)
}
