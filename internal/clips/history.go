package clips

// DefaultHistoryLimit bounds the number of undo snapshots kept
const DefaultHistoryLimit = 100

// history keeps full snapshots of the clip collection
type history struct {
	undo  [][]Clip
	redo  [][]Clip
	limit int
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &history{limit: limit}
}

// record pushes the state prior to a mutation and invalidates redo
func (h *history) record(prev []Clip) {
	h.undo = append(h.undo, cloneClips(prev))
	if len(h.undo) > h.limit {
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
}

func (h *history) popUndo(current []Clip) ([]Clip, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cloneClips(current))
	return last, true
}

func (h *history) popRedo(current []Clip) ([]Clip, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cloneClips(current))
	return last, true
}

func (h *history) clear() {
	h.undo = nil
	h.redo = nil
}

func cloneClips(in []Clip) []Clip {
	out := make([]Clip, len(in))
	copy(out, in)
	return out
}
