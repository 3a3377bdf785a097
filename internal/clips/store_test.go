package clips

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

// seqIDs returns a deterministic ID generator for tests
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("clip-%d", n)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(WithIDGenerator(seqIDs()))
}

func draft(ref string, start, source float64) Draft {
	return Draft{MediaRef: ref, StartTime: start, SourceDuration: source}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// assertInvariants checks trim bounds and pairwise non-overlap
func assertInvariants(t *testing.T, s *Store) {
	t.Helper()
	all := s.Clips()
	for i, c := range all {
		if c.TrimStart < 0 || c.TrimEnd > c.SourceDuration+1e-9 {
			t.Errorf("clip %s trim [%f,%f] outside source %f", c.ID, c.TrimStart, c.TrimEnd, c.SourceDuration)
		}
		if c.Duration() < MinClipLength-1e-9 {
			t.Errorf("clip %s shorter than minimum: %f", c.ID, c.Duration())
		}
		if c.StartTime < 0 {
			t.Errorf("clip %s starts before zero: %f", c.ID, c.StartTime)
		}
		for _, o := range all[i+1:] {
			if c.StartTime < o.End()-1e-9 && o.StartTime < c.End()-1e-9 {
				t.Errorf("clips %s [%f,%f) and %s [%f,%f) overlap", c.ID, c.StartTime, c.End(), o.ID, o.StartTime, o.End())
			}
		}
	}
}

func TestAddRejectsCollision(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Add(draft("a.mp4", 0, 5))
	if err != nil {
		t.Fatalf("add a: %v", err)
	}
	if a.TrimEnd != 5 || a.Duration() != 5 {
		t.Errorf("expected whole source, got trim [%f,%f]", a.TrimStart, a.TrimEnd)
	}

	before := s.Clips()
	version := s.Version()
	if _, err := s.Add(draft("b.mp4", 3, 4)); !errors.Is(err, ErrPlacementRejected) {
		t.Fatalf("expected ErrPlacementRejected, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Clips()) || s.Version() != version {
		t.Error("rejected add mutated the store")
	}
	if len(s.history.undo) != 1 {
		t.Errorf("rejected add should not record history, undo depth %d", len(s.history.undo))
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	s := newTestStore(t)

	tests := []Draft{
		{SourceDuration: 5},
		{MediaRef: "a.mp4", SourceDuration: 0.05},
		{MediaRef: "a.mp4", SourceDuration: math.NaN()},
		{MediaRef: "a.mp4", SourceDuration: 5, StartTime: math.NaN()},
		{MediaRef: "a.mp4", SourceDuration: 5, TrimStart: math.Inf(-1)},
		{MediaRef: "a.mp4", SourceDuration: 5, TrimEnd: math.NaN()},
	}
	for _, d := range tests {
		if _, err := s.Add(d); !errors.Is(err, ErrInvalidDraft) {
			t.Errorf("draft %+v: expected ErrInvalidDraft, got %v", d, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d clips", s.Len())
	}
}

func TestSetTrimClamping(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		end       float64
		wantStart float64
		wantEnd   float64
	}{
		{"in range", 1, 4, 1, 4},
		{"negative start", -2, 3, 0, 3},
		{"end past source", 2, 12, 2, 10},
		{"end before start", 5, 2, 5, 5.1},
		{"too short", 3, 3.05, 3, 3.1},
		{"at source end", 10, 10, 9.9, 10},
		{"start past source", 15, 20, 9.9, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			c, err := s.Add(draft("a.mp4", 0, 10))
			if err != nil {
				t.Fatalf("add: %v", err)
			}

			got, ok := s.SetTrim(c.ID, tt.start, tt.end)
			if !ok {
				t.Fatal("SetTrim reported unknown clip")
			}
			if !approx(got.TrimStart, tt.wantStart) || !approx(got.TrimEnd, tt.wantEnd) {
				t.Errorf("got [%f,%f], want [%f,%f]", got.TrimStart, got.TrimEnd, tt.wantStart, tt.wantEnd)
			}
			if got.StartTime != 0 {
				t.Errorf("trim moved the clip to %f", got.StartTime)
			}
			assertInvariants(t, s)
		})
	}
}

func TestSetTrimLimitedByNextClip(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add(Draft{MediaRef: "a.mp4", SourceDuration: 10, TrimEnd: 3})
	if _, err := s.Add(draft("b.mp4", 4, 2)); err != nil {
		t.Fatalf("add b: %v", err)
	}

	got, _ := s.SetTrim(a.ID, 0, 8)
	if !approx(got.TrimEnd, 4) {
		t.Errorf("expected trim end limited to 4, got %f", got.TrimEnd)
	}
	assertInvariants(t, s)
}

func TestTrimStartToKeepsRightEdge(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add(draft("a.mp4", 0, 2)); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Add(Draft{MediaRef: "b.mp4", StartTime: 5, SourceDuration: 10, TrimStart: 2, TrimEnd: 6})

	got, _ := s.TrimStartTo(b.ID, 4)
	if !approx(got.StartTime, 4) || !approx(got.TrimStart, 1) || !approx(got.End(), 9) {
		t.Errorf("extend left: got start %f trim [%f,%f]", got.StartTime, got.TrimStart, got.TrimEnd)
	}

	got, _ = s.TrimStartTo(b.ID, 0)
	if !approx(got.StartTime, 3) || !approx(got.TrimStart, 0) {
		t.Errorf("source floor: got start %f trimStart %f", got.StartTime, got.TrimStart)
	}

	got, _ = s.TrimStartTo(b.ID, 100)
	if !approx(got.Duration(), MinClipLength) || !approx(got.End(), 9) {
		t.Errorf("min length: got duration %f end %f", got.Duration(), got.End())
	}
	assertInvariants(t, s)
}

func TestTrimStartToStopsAtPreviousClip(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add(draft("a.mp4", 0, 4)); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Add(Draft{MediaRef: "b.mp4", StartTime: 6, SourceDuration: 10, TrimStart: 5, TrimEnd: 8})

	got, _ := s.TrimStartTo(b.ID, 1)
	if !approx(got.StartTime, 4) || !approx(got.TrimStart, 3) {
		t.Errorf("got start %f trimStart %f", got.StartTime, got.TrimStart)
	}
	assertInvariants(t, s)
}

func TestSetPosition(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add(draft("a.mp4", 0, 5))
	b, _ := s.Add(draft("b.mp4", 5, 3))

	if _, ok := s.SetPosition(b.ID, 2); ok {
		t.Error("expected colliding move to be rejected")
	}
	if got, _ := s.Get(b.ID); got.StartTime != 5 {
		t.Errorf("rejected move changed start to %f", got.StartTime)
	}

	got, ok := s.SetPosition(a.ID, -3)
	if !ok || got.StartTime != 0 {
		t.Errorf("negative position: ok=%v start=%f", ok, got.StartTime)
	}

	got, ok = s.SetPosition(b.ID, 12)
	if !ok || got.StartTime != 12 {
		t.Errorf("free move: ok=%v start=%f", ok, got.StartTime)
	}

	got, ok = s.SetPosition(a.ID, 7)
	if !ok || got.StartTime != 7 {
		t.Errorf("move into gap: ok=%v start=%f", ok, got.StartTime)
	}
	if all := s.Clips(); all[0].ID != a.ID {
		t.Error("clips not kept in start order")
	}
	assertInvariants(t, s)
}

func TestSplit(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.Add(Draft{MediaRef: "a.mp4", StartTime: 2, SourceDuration: 10, TrimStart: 1, TrimEnd: 7})

	left, right, ok := s.Split(c.ID, 5)
	if !ok {
		t.Fatal("split failed")
	}
	if left.ID != c.ID || !approx(left.TrimEnd, 4) || !approx(left.End(), 5) {
		t.Errorf("left half: %+v", left)
	}
	if right.ID == c.ID || !approx(right.StartTime, 5) || !approx(right.TrimStart, 4) || !approx(right.TrimEnd, 7) {
		t.Errorf("right half: %+v", right)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 clips, got %d", s.Len())
	}

	if _, _, ok := s.Split(right.ID, 5.05); ok {
		t.Error("split leaving a sub-minimum half should fail")
	}
	assertInvariants(t, s)
}

func TestUndoRedo(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add(draft("a.mp4", 0, 5))
	afterAdd := s.Clips()

	s.SetTrim(a.ID, 1, 4)
	afterTrim := s.Clips()

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	if !reflect.DeepEqual(s.Clips(), afterAdd) {
		t.Error("undo did not restore pre-trim state")
	}
	if !s.CanRedo() {
		t.Fatal("expected redo available")
	}
	if !s.Redo() || !reflect.DeepEqual(s.Clips(), afterTrim) {
		t.Error("redo did not restore trimmed state")
	}

	s.Undo()
	s.Remove(a.ID)
	if s.CanRedo() {
		t.Error("new mutation should clear redo")
	}

	s.Undo()
	s.Undo()
	if s.Len() != 0 || s.CanUndo() {
		t.Errorf("expected empty store with no undo, got %d clips", s.Len())
	}
	if s.Undo() {
		t.Error("undo on empty history should report false")
	}
}

func TestUndoRoundTripRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		s := NewStore(WithIDGenerator(seqIDs()))
		var states [][]Clip
		states = append(states, s.Clips())

		for i := 0; i < 20; i++ {
			version := s.Version()
			applyRandomOp(s, rng)
			if s.Version() != version {
				states = append(states, s.Clips())
			}
			assertInvariants(t, s)
		}

		for i := len(states) - 2; i >= 0; i-- {
			if !s.Undo() {
				t.Fatalf("round %d: undo %d failed", round, i)
			}
			if !reflect.DeepEqual(s.Clips(), states[i]) {
				t.Fatalf("round %d: undo to state %d mismatch", round, i)
			}
		}
		for i := 1; i < len(states); i++ {
			if !s.Redo() {
				t.Fatalf("round %d: redo %d failed", round, i)
			}
			if !reflect.DeepEqual(s.Clips(), states[i]) {
				t.Fatalf("round %d: redo to state %d mismatch", round, i)
			}
		}
	}
}

func applyRandomOp(s *Store, rng *rand.Rand) {
	all := s.Clips()
	pick := func() string {
		if len(all) == 0 {
			return ""
		}
		return all[rng.Intn(len(all))].ID
	}

	switch rng.Intn(7) {
	case 0:
		s.Add(draft("a.mp4", rng.Float64()*30, 0.5+rng.Float64()*8))
	case 1:
		s.InsertWithShift(draft("b.mp4", 0, 0.5+rng.Float64()*8), rng.Float64()*30)
	case 2:
		s.Remove(pick())
	case 3:
		s.SetTrim(pick(), rng.Float64()*6-1, rng.Float64()*10)
	case 4:
		s.SetPosition(pick(), rng.Float64()*40-2)
	case 5:
		s.TrimStartTo(pick(), rng.Float64()*30)
	case 6:
		if id := pick(); id != "" {
			c, _ := s.Get(id)
			s.Split(id, c.StartTime+rng.Float64()*c.Duration())
		}
	}
}

func TestHistoryLimit(t *testing.T) {
	s := NewStore(WithHistoryLimit(3), WithIDGenerator(seqIDs()))
	for i := 0; i < 5; i++ {
		if _, err := s.Append(draft("a.mp4", 0, 1)); err != nil {
			t.Fatal(err)
		}
	}

	undone := 0
	for s.Undo() {
		undone++
	}
	if undone != 3 {
		t.Errorf("expected 3 undo steps, got %d", undone)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 clips after exhausting history, got %d", s.Len())
	}
}

func TestGestureRecordsOneEntry(t *testing.T) {
	s := newTestStore(t)
	c, _ := s.Add(draft("a.mp4", 0, 10))
	before := s.Clips()

	s.BeginGesture()
	for _, end := range []float64{9, 8, 7, 6} {
		s.SetTrim(c.ID, 0, end)
	}
	s.EndGesture()

	if got, _ := s.Get(c.ID); got.TrimEnd != 6 {
		t.Fatalf("expected trim end 6, got %f", got.TrimEnd)
	}
	s.Undo()
	if !reflect.DeepEqual(s.Clips(), before) {
		t.Error("one undo should revert the whole gesture")
	}

	s.BeginGesture()
	s.EndGesture()
	s.Undo()
	if s.Len() != 0 {
		t.Error("empty gesture should not add a history entry")
	}
}

func TestReplace(t *testing.T) {
	s := newTestStore(t)
	err := s.Replace([]Clip{
		{MediaRef: "b.mp4", StartTime: 6, SourceDuration: 3, TrimEnd: 3},
		{ID: "keep", MediaRef: "a.mp4", StartTime: 0, SourceDuration: 5, TrimEnd: 5},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	all := s.Clips()
	if all[0].ID != "keep" || all[1].ID == "" {
		t.Errorf("unexpected clips after replace: %+v", all)
	}

	err = s.Replace([]Clip{
		{ID: "x", MediaRef: "a.mp4", StartTime: 0, SourceDuration: 5, TrimEnd: 5},
		{ID: "y", MediaRef: "a.mp4", StartTime: 4, SourceDuration: 5, TrimEnd: 5},
	})
	if !errors.Is(err, ErrPlacementRejected) {
		t.Errorf("expected overlap rejection, got %v", err)
	}
	if s.Len() != 2 || s.Clips()[0].ID != "keep" {
		t.Error("rejected replace mutated the store")
	}

	if !s.Undo() || s.Len() != 0 {
		t.Error("replace should be undoable")
	}
}

func TestClampTrimInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		source := MinClipLength + rng.Float64()*20
		start, end := ClampTrim(rng.Float64()*30-5, rng.Float64()*30-5, source)
		if start < 0 || end > source || end-start < MinClipLength-1e-9 {
			t.Fatalf("ClampTrim produced [%f,%f] for source %f", start, end, source)
		}
	}
}

func TestNonFiniteEditsRejected(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Add(draft("a.mp4", 0, 5))
	s.Add(draft("b.mp4", 10, 5))
	before := s.Clips()

	nan, inf := math.NaN(), math.Inf(1)
	if _, ok := s.SetTrim(a.ID, nan, 3); ok {
		t.Error("SetTrim accepted NaN start")
	}
	if _, ok := s.SetTrim(a.ID, 1, inf); ok {
		t.Error("SetTrim accepted infinite end")
	}
	if _, ok := s.SetPosition(a.ID, nan); ok {
		t.Error("SetPosition accepted NaN")
	}
	if _, ok := s.SetPosition(a.ID, inf); ok {
		t.Error("SetPosition accepted +Inf")
	}
	if _, ok := s.TrimStartTo(a.ID, nan); ok {
		t.Error("TrimStartTo accepted NaN")
	}
	if _, _, ok := s.Split(a.ID, nan); ok {
		t.Error("Split accepted NaN")
	}
	if _, err := s.InsertWithShift(draft("c.mp4", 0, 2), nan); !errors.Is(err, ErrPlacementRejected) {
		t.Errorf("InsertWithShift(NaN) = %v, want ErrPlacementRejected", err)
	}
	if s.CanDropAt(nan, 1, "") {
		t.Error("CanDropAt accepted NaN position")
	}

	if !reflect.DeepEqual(s.Clips(), before) {
		t.Errorf("rejected edits mutated the store: %+v", s.Clips())
	}
	assertInvariants(t, s)

	s.Undo()
	if s.Len() != 1 {
		t.Errorf("rejected edits left history entries, undo gave %d clips", s.Len())
	}
}

func TestReplaceRejectsNonFiniteClip(t *testing.T) {
	s := newTestStore(t)
	err := s.Replace([]Clip{{ID: "x", MediaRef: "a.mp4", StartTime: math.Inf(1), SourceDuration: 5, TrimEnd: 5}})
	if !errors.Is(err, ErrInvalidDraft) {
		t.Errorf("expected ErrInvalidDraft, got %v", err)
	}
}
