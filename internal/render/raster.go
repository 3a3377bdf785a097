package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterExecutor draws commands into an RGBA image for timeline snapshots
type RasterExecutor struct {
	Image *image.RGBA
	face  font.Face
}

// NewRasterExecutor allocates a width x height target
func NewRasterExecutor(width, height int) *RasterExecutor {
	return &RasterExecutor{
		Image: image.NewRGBA(image.Rect(0, 0, width, height)),
		face:  basicfont.Face7x13,
	}
}

// Execute draws cmds in order
func (r *RasterExecutor) Execute(cmds []DrawCommand) {
	for _, c := range cmds {
		switch c.Kind {
		case KindRect:
			r.fill(c.X, c.Y, c.W, c.H, c.Color)
		case KindStroke:
			r.fill(c.X, c.Y, c.W, 1, c.Color)
			r.fill(c.X, c.Y+c.H-1, c.W, 1, c.Color)
			r.fill(c.X, c.Y, 1, c.H, c.Color)
			r.fill(c.X+c.W-1, c.Y, 1, c.H, c.Color)
		case KindLine:
			r.line(c.X, c.Y, c.X2, c.Y2, c.Color)
		case KindText:
			d := font.Drawer{
				Dst:  r.Image,
				Src:  image.NewUniform(c.Color),
				Face: r.face,
				Dot:  fixed.P(int(math.Round(c.X)), int(math.Round(c.Y))),
			}
			d.DrawString(c.Text)
		}
	}
}

func (r *RasterExecutor) fill(x, y, w, h float64, c color.RGBA) {
	rect := image.Rect(
		int(math.Floor(x)), int(math.Floor(y)),
		int(math.Ceil(x+w)), int(math.Ceil(y+h)),
	).Intersect(r.Image.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(r.Image, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

func (r *RasterExecutor) line(x0, y0, x1, y1 float64, c color.RGBA) {
	steps := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0)))
	if steps == 0 {
		r.Image.Set(int(x0), int(y0), c)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		r.Image.Set(int(math.Round(x0+(x1-x0)*f)), int(math.Round(y0+(y1-y0)*f)), c)
	}
}
