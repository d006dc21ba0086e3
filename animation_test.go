package swfanim

import "testing"

func TestFindKeyFrameExactMatch(t *testing.T) {
	times := []float32{0, 1, 2, 3}
	res := findKeyFrame(times, 2)
	if res.Index != 2 || res.InterpIndex != -1 {
		t.Fatalf("exact match: got %+v", res)
	}
}

func TestFindKeyFrameBeforeFirst(t *testing.T) {
	times := []float32{1, 2, 3}
	res := findKeyFrame(times, 0.5)
	if res.Index != -1 || res.InterpIndex != -1 {
		t.Fatalf("before-first: got %+v, want not-placed", res)
	}
}

func TestFindKeyFrameAfterLastHolds(t *testing.T) {
	times := []float32{0, 1, 2}
	res := findKeyFrame(times, 100)
	if res.Index != 2 || res.InterpIndex != -1 {
		t.Fatalf("after-last: got %+v, want hold at index 2", res)
	}
}

func TestFindKeyFrameBetweenInterpolates(t *testing.T) {
	times := []float32{0, 2, 4}
	res := findKeyFrame(times, 3)
	if res.Index != 1 || res.InterpIndex != 2 {
		t.Fatalf("between: got %+v, want Index=1 InterpIndex=2", res)
	}
}

func TestLookupTransformHoldsWithoutInterpolate(t *testing.T) {
	lane := []TransformKey{
		{Time: 0, Matrix: Matrix{A: 1, D: 1, Tx: 0}},
		{Time: 2, Matrix: Matrix{A: 1, D: 1, Tx: 10}},
	}
	m, ok := lookupTransform(lane, 1, false)
	if !ok {
		t.Fatal("expected a resolved transform")
	}
	if m.Tx != 0 {
		t.Fatalf("hold semantics: got Tx=%v, want 0 (held from first key)", m.Tx)
	}
}

func TestLookupTransformInterpolatesWhenEnabled(t *testing.T) {
	lane := []TransformKey{
		{Time: 0, Matrix: Matrix{A: 1, D: 1, Tx: 0}},
		{Time: 2, Matrix: Matrix{A: 1, D: 1, Tx: 10}},
	}
	m, ok := lookupTransform(lane, 1, true)
	if !ok {
		t.Fatal("expected a resolved transform")
	}
	almostEqual(t, m.Tx, 5, "interpolated Tx at midpoint")
}

func TestLookupResourceBlankSentinel(t *testing.T) {
	lane := []Resource{
		{Time: 0, ResourceID: 7},
		{Time: 1, ResourceID: 0},
	}
	res, ok := lookupResource(lane, 1.5)
	if !ok {
		t.Fatal("expected a resolved resource")
	}
	if res.ResourceID != 0 {
		t.Fatalf("expected blank sentinel to resolve, got id=%d", res.ResourceID)
	}
}

func TestLookupBlendInheritsWhenAbsent(t *testing.T) {
	_, ok := lookupBlend(nil, 5)
	if ok {
		t.Fatal("empty blend lane should report not-present so the caller inherits the parent's blend")
	}
}
