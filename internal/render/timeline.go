package render

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/clips"
)

// DragState is the pointer interaction in progress
type DragState int

const (
	Idle DragState = iota
	DraggingPlayhead
	DraggingTrimStart
	DraggingTrimEnd
	Panning
)

func (d DragState) String() string {
	switch d {
	case DraggingPlayhead:
		return "dragging-playhead"
	case DraggingTrimStart:
		return "dragging-trim-start"
	case DraggingTrimEnd:
		return "dragging-trim-end"
	case Panning:
		return "panning"
	default:
		return "idle"
	}
}

// WheelZoomStep is the zoom factor applied per modifier+wheel notch
const WheelZoomStep = 1.1

// Timeline owns the view state of the timeline and turns pointer input into
// store mutations. It redraws only when something visible changed.
type Timeline struct {
	store *clips.Store
	view  View

	playhead   float64
	selectedID string
	snapPixels float64

	drag     DragState
	dragClip string
	lastX    float64

	dirty       bool
	seenVersion uint64
	onSeek      func(float64)

	logger zerolog.Logger
}

// NewTimeline creates a timeline view over store
func NewTimeline(store *clips.Store, view View, logger zerolog.Logger) *Timeline {
	if view.Zoom == 0 {
		view.Zoom = 1
	}
	return &Timeline{
		store:      store,
		view:       view,
		snapPixels: clips.SnapThresholdPixels,
		dirty:      true,
		logger:     logger.With().Str("component", "timeline").Logger(),
	}
}

// SetSnapPixels overrides the snapping distance
func (tl *Timeline) SetSnapPixels(px float64) {
	if px >= 0 {
		tl.snapPixels = px
	}
}

// OnSeek registers a callback for user-initiated playhead moves
func (tl *Timeline) OnSeek(fn func(float64)) {
	tl.onSeek = fn
}

// View returns the current view transform
func (tl *Timeline) View() View {
	return tl.view
}

// Resize updates the viewport size
func (tl *Timeline) Resize(width, height int) {
	if width == tl.view.Width && height == tl.view.Height {
		return
	}
	tl.view.Width, tl.view.Height = width, height
	tl.dirty = true
}

// SetZoom sets the zoom level directly
func (tl *Timeline) SetZoom(z float64) {
	before := tl.view
	tl.view.SetZoom(z)
	tl.view.ClampPan(tl.store.EndTime())
	tl.dirty = tl.dirty || before != tl.view
}

// Playhead returns the playhead position in seconds
func (tl *Timeline) Playhead() float64 {
	return tl.playhead
}

// SetPlayhead moves the playhead without notifying OnSeek
func (tl *Timeline) SetPlayhead(t float64) {
	t = math.Max(0, t)
	if t != tl.playhead {
		tl.playhead = t
		tl.dirty = true
	}
}

// Selected returns the selected clip ID, empty when nothing is selected
func (tl *Timeline) Selected() string {
	if _, ok := tl.store.Get(tl.selectedID); !ok {
		return ""
	}
	return tl.selectedID
}

// Select selects a clip by ID
func (tl *Timeline) Select(id string) {
	if tl.selectedID != id {
		tl.selectedID = id
		tl.dirty = true
	}
}

// Drag returns the current drag state
func (tl *Timeline) Drag() DragState {
	return tl.drag
}

// Scene snapshots what should be drawn
func (tl *Timeline) Scene() Scene {
	return Scene{
		View:       tl.view,
		Clips:      tl.store.Clips(),
		Playhead:   tl.playhead,
		SelectedID: tl.Selected(),
	}
}

// Dirty reports whether a redraw is due
func (tl *Timeline) Dirty() bool {
	return tl.dirty || tl.store.Version() != tl.seenVersion
}

// Invalidate forces the next Frame to redraw
func (tl *Timeline) Invalidate() {
	tl.dirty = true
}

// Frame draws the scene with exec if anything changed and reports whether it drew
func (tl *Timeline) Frame(exec Executor) bool {
	if !tl.Dirty() {
		return false
	}
	tl.seenVersion = tl.store.Version()
	tl.dirty = false
	exec.Execute(Describe(tl.Scene()))
	return true
}

// PointerDown starts an interaction at view coordinates x, y
func (tl *Timeline) PointerDown(x, y float64) {
	hit := HitTest(tl.Scene(), x, y)
	tl.lastX = x

	switch hit.Kind {
	case HitPlayhead:
		tl.drag = DraggingPlayhead
	case HitTrimStart, HitTrimEnd:
		tl.drag = DraggingTrimStart
		if hit.Kind == HitTrimEnd {
			tl.drag = DraggingTrimEnd
		}
		tl.dragClip = hit.ClipID
		tl.store.BeginGesture()
	case HitClip:
		tl.Select(hit.ClipID)
	case HitRuler:
		tl.seek(hit.Time)
		tl.drag = DraggingPlayhead
	default:
		tl.Select("")
		tl.drag = Panning
	}

	tl.logger.Debug().
		Str("hit", hit.Kind.String()).
		Str("drag", tl.drag.String()).
		Float64("time", hit.Time).
		Msg("pointer down")
}

// PointerMove continues the active interaction
func (tl *Timeline) PointerMove(x, y float64) {
	t := tl.view.PixelToTime(x)

	switch tl.drag {
	case DraggingPlayhead:
		tl.seek(t)
	case DraggingTrimStart:
		tl.store.TrimStartTo(tl.dragClip, t)
	case DraggingTrimEnd:
		if c, ok := tl.store.Get(tl.dragClip); ok {
			tl.store.SetTrim(c.ID, c.TrimStart, c.SourceTimeAt(t))
		}
	case Panning:
		tl.PanBy(tl.lastX - x)
	}
	tl.lastX = x
}

// PointerUp ends the interaction
func (tl *Timeline) PointerUp() {
	if tl.drag == DraggingTrimStart || tl.drag == DraggingTrimEnd {
		tl.store.EndGesture()
	}
	tl.drag = Idle
	tl.dragClip = ""
}

// PointerLeave behaves like PointerUp
func (tl *Timeline) PointerLeave() {
	tl.PointerUp()
}

// Wheel zooms around x when zoomModifier is held, otherwise pans
func (tl *Timeline) Wheel(dx, dy, x float64, zoomModifier bool) {
	before := tl.view
	if zoomModifier {
		switch {
		case dy < 0:
			tl.view.ZoomAt(WheelZoomStep, x, tl.store.EndTime())
		case dy > 0:
			tl.view.ZoomAt(1/WheelZoomStep, x, tl.store.EndTime())
		}
	} else {
		delta := dx
		if delta == 0 {
			delta = dy
		}
		tl.view.PanBy(delta, tl.store.EndTime())
	}
	tl.dirty = tl.dirty || before != tl.view
}

// PanBy scrolls the view by dx pixels
func (tl *Timeline) PanBy(dx float64) {
	before := tl.view.Pan
	tl.view.PanBy(dx, tl.store.EndTime())
	tl.dirty = tl.dirty || before != tl.view.Pan
}

// SnapThreshold converts the snapping distance to seconds at the current zoom
func (tl *Timeline) SnapThreshold() float64 {
	return clips.ThresholdSeconds(tl.snapPixels, tl.view.PixelsPerSecond())
}

// Drop places a draft at view x, snapping to neighbours and shifting later clips
func (tl *Timeline) Drop(d clips.Draft, x float64) (clips.Clip, error) {
	snap := tl.store.CalculateSnapPosition(tl.view.PixelToTime(x), d.Duration(), "", tl.SnapThreshold())
	c, err := tl.store.InsertWithShift(d, snap.Position)
	if err != nil {
		return clips.Clip{}, err
	}
	tl.Select(c.ID)
	tl.logger.Debug().Str("id", c.ID).Float64("start", c.StartTime).Str("snap", string(snap.Type)).Msg("clip dropped")
	return c, nil
}

// MoveClip repositions a clip near candidate seconds with snapping
func (tl *Timeline) MoveClip(id string, candidate float64) (clips.Clip, clips.SnapResult, bool) {
	c, ok := tl.store.Get(id)
	if !ok {
		return clips.Clip{}, clips.SnapResult{}, false
	}
	snap := tl.store.CalculateSnapPosition(candidate, c.Duration(), id, tl.SnapThreshold())
	moved, ok := tl.store.SetPosition(id, snap.Position)
	return moved, snap, ok
}

func (tl *Timeline) seek(t float64) {
	t = math.Max(0, t)
	tl.SetPlayhead(t)
	if tl.onSeek != nil {
		tl.onSeek(t)
	}
}
