package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/keagan/clipforge/internal/render"
)

// labelSize is the ruler and clip label text size
const labelSize = 11

// canvasExecutor turns draw commands into fyne canvas objects, painted in order
type canvasExecutor struct {
	objects []fyne.CanvasObject
}

func (e *canvasExecutor) Execute(cmds []render.DrawCommand) {
	objects := make([]fyne.CanvasObject, 0, len(cmds))
	for _, cmd := range cmds {
		if obj := canvasObject(cmd); obj != nil {
			objects = append(objects, obj)
		}
	}
	e.objects = objects
}

func canvasObject(cmd render.DrawCommand) fyne.CanvasObject {
	switch cmd.Kind {
	case render.KindRect:
		r := canvas.NewRectangle(cmd.Color)
		r.Move(fyne.NewPos(float32(cmd.X), float32(cmd.Y)))
		r.Resize(fyne.NewSize(float32(cmd.W), float32(cmd.H)))
		return r
	case render.KindStroke:
		r := canvas.NewRectangle(nil)
		r.StrokeColor = cmd.Color
		r.StrokeWidth = 2
		r.Move(fyne.NewPos(float32(cmd.X), float32(cmd.Y)))
		r.Resize(fyne.NewSize(float32(cmd.W), float32(cmd.H)))
		return r
	case render.KindLine:
		l := canvas.NewLine(cmd.Color)
		l.StrokeWidth = 1
		l.Position1 = fyne.NewPos(float32(cmd.X), float32(cmd.Y))
		l.Position2 = fyne.NewPos(float32(cmd.X2), float32(cmd.Y2))
		return l
	case render.KindText:
		t := canvas.NewText(cmd.Text, cmd.Color)
		t.TextSize = labelSize
		// Commands anchor text at the baseline; fyne positions its top-left corner
		t.Move(fyne.NewPos(float32(cmd.X), float32(cmd.Y)-labelSize))
		return t
	}
	return nil
}
