package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder assembles a comma-separated filter chain
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder starts an empty chain
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{}
}

func (fb *FilterBuilder) add(format string, args ...any) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf(format, args...))
	return fb
}

// Scale resizes to width x height; non-positive sizes leave the chain unchanged
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	return fb.add("scale=%d:%d", width, height)
}

// ScaleWidth resizes to width and derives the height from the aspect ratio
func (fb *FilterBuilder) ScaleWidth(width int) *FilterBuilder {
	if width <= 0 {
		return fb
	}
	return fb.add("scale=%d:-1", width)
}

// Overlay draws the second input with its top-left corner at x, y
func (fb *FilterBuilder) Overlay(x, y int) *FilterBuilder {
	return fb.add("overlay=%d:%d", x, y)
}

// Build joins the chain; an empty chain yields ""
func (fb *FilterBuilder) Build() string {
	return strings.Join(fb.filters, ",")
}
