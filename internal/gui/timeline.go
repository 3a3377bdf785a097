package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/render"
)

// timelineHeight is the minimum widget height: ruler, gap and one track
const timelineHeight = render.TrackTop + render.TrackHeight + 20

// timelineWidget forwards pointer input to render.Timeline and shows its frames
type timelineWidget struct {
	widget.BaseWidget

	shared *editor.Shared
	exec   canvasExecutor
}

var (
	_ desktop.Mouseable = (*timelineWidget)(nil)
	_ desktop.Hoverable = (*timelineWidget)(nil)
	_ fyne.Draggable    = (*timelineWidget)(nil)
	_ fyne.Scrollable   = (*timelineWidget)(nil)
)

func newTimelineWidget(shared *editor.Shared) *timelineWidget {
	w := &timelineWidget{shared: shared}
	w.ExtendBaseWidget(w)
	return w
}

func (w *timelineWidget) CreateRenderer() fyne.WidgetRenderer {
	return &timelineRenderer{w: w}
}

func (w *timelineWidget) timeline(fn func(tl *render.Timeline)) {
	w.shared.Do(func(s *editor.Session) { fn(s.Timeline) })
}

// redrawIfDirty refreshes the widget when the timeline has changes to show
func (w *timelineWidget) redrawIfDirty() {
	dirty := false
	w.timeline(func(tl *render.Timeline) { dirty = tl.Dirty() })
	if dirty {
		w.Refresh()
	}
}

func (w *timelineWidget) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	w.timeline(func(tl *render.Timeline) { tl.PointerDown(float64(ev.Position.X), float64(ev.Position.Y)) })
	w.redrawIfDirty()
}

func (w *timelineWidget) MouseUp(*desktop.MouseEvent) {
	w.timeline(func(tl *render.Timeline) { tl.PointerUp() })
	w.redrawIfDirty()
}

func (w *timelineWidget) MouseIn(*desktop.MouseEvent) {}

func (w *timelineWidget) MouseMoved(ev *desktop.MouseEvent) {
	w.timeline(func(tl *render.Timeline) { tl.PointerMove(float64(ev.Position.X), float64(ev.Position.Y)) })
	w.redrawIfDirty()
}

func (w *timelineWidget) MouseOut() {
	w.timeline(func(tl *render.Timeline) { tl.PointerLeave() })
	w.redrawIfDirty()
}

func (w *timelineWidget) Dragged(ev *fyne.DragEvent) {
	w.timeline(func(tl *render.Timeline) { tl.PointerMove(float64(ev.Position.X), float64(ev.Position.Y)) })
	w.redrawIfDirty()
}

func (w *timelineWidget) DragEnd() {
	w.timeline(func(tl *render.Timeline) { tl.PointerUp() })
	w.redrawIfDirty()
}

func (w *timelineWidget) Scrolled(ev *fyne.ScrollEvent) {
	zoom := zoomModifierHeld()
	w.timeline(func(tl *render.Timeline) {
		tl.Wheel(float64(ev.Scrolled.DX), float64(ev.Scrolled.DY), float64(ev.Position.X), zoom)
	})
	w.redrawIfDirty()
}

// zoomModifierHeld reports whether Ctrl or Cmd is down
func zoomModifierHeld() bool {
	app := fyne.CurrentApp()
	if app == nil {
		return false
	}
	drv, ok := app.Driver().(desktop.Driver)
	if !ok {
		return false
	}
	mods := drv.CurrentKeyModifiers()
	return mods&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0
}

type timelineRenderer struct {
	w *timelineWidget
}

func (r *timelineRenderer) Layout(size fyne.Size) {
	r.w.timeline(func(tl *render.Timeline) {
		tl.Resize(int(size.Width), int(size.Height))
		tl.Frame(&r.w.exec)
	})
}

func (r *timelineRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, timelineHeight)
}

func (r *timelineRenderer) Refresh() {
	r.w.timeline(func(tl *render.Timeline) { tl.Frame(&r.w.exec) })
	for _, obj := range r.w.exec.objects {
		obj.Refresh()
	}
}

func (r *timelineRenderer) Objects() []fyne.CanvasObject {
	return r.w.exec.objects
}

func (r *timelineRenderer) Destroy() {}
