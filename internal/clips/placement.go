package clips

import "fmt"

// CanDropAt reports whether [pos, pos+duration) is free of every clip except excludeID
func (s *Store) CanDropAt(pos, duration float64, excludeID string) bool {
	if !finite(pos, duration) {
		return false
	}
	for _, c := range s.clips {
		if c.ID == excludeID {
			continue
		}
		if c.Overlaps(pos, duration) {
			return false
		}
	}
	return true
}

// InsertWithShift places a draft at target, pushing later clips forward to make room.
// A target strictly inside a clip moves the insertion point to that clip's end.
// Clips that collide are shifted by exactly their overlap, transitively, in order.
func (s *Store) InsertWithShift(d Draft, target float64) (Clip, error) {
	if err := validateDraft(d); err != nil {
		return Clip{}, err
	}

	if !finite(target) {
		return Clip{}, fmt.Errorf("%w: insertion point %v", ErrPlacementRejected, target)
	}
	pos := max(0, target)
	for _, c := range s.clips {
		if c.StartTime < pos && pos < c.End() {
			pos = c.End()
			break
		}
	}

	clip := d.toClip(s.newID(), pos)
	next := cloneClips(s.clips)
	edge := clip.End()
	for i := range next {
		if next[i].StartTime < pos {
			continue
		}
		if next[i].StartTime >= edge {
			break
		}
		next[i].StartTime = edge
		edge = next[i].End()
	}

	s.commit(append(next, clip))
	return clip, nil
}

// Append inserts a draft right after the last clip, or at 0 on an empty timeline
func (s *Store) Append(d Draft) (Clip, error) {
	return s.InsertWithShift(d, s.EndTime())
}
