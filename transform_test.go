package swfanim

import (
	"math"
	"testing"
)

func almostEqual(t *testing.T, got, want float32, msg string) {
	t.Helper()
	if math.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func TestMatrixComposeIdentity(t *testing.T) {
	m := Matrix{A: 2, D: 3, Tx: 5, Ty: 7}
	out := Identity.Compose(m)
	almostEqual(t, out.A, m.A, "A")
	almostEqual(t, out.D, m.D, "D")
	almostEqual(t, out.Tx, m.Tx, "Tx")
	almostEqual(t, out.Ty, m.Ty, "Ty")
}

func TestMatrixComposeTranslation(t *testing.T) {
	parent := Matrix{A: 1, D: 1, Tx: 10, Ty: 20}
	child := Matrix{A: 1, D: 1, Tx: 1, Ty: 1}
	out := parent.Compose(child)
	almostEqual(t, out.Tx, 11, "Tx")
	almostEqual(t, out.Ty, 21, "Ty")
}

func TestMatrixComposeScale(t *testing.T) {
	parent := Matrix{A: 2, D: 2}
	child := Matrix{A: 1, D: 1, Tx: 3, Ty: 4}
	out := parent.Compose(child)
	// parent scales child's translation too.
	almostEqual(t, out.Tx, 6, "Tx")
	almostEqual(t, out.Ty, 8, "Ty")
}

func TestMatrixTransformPoint(t *testing.T) {
	m := Matrix{A: 2, D: 3, Tx: 1, Ty: 1}
	x, y := m.TransformPoint(5, 5)
	almostEqual(t, x, 11, "x")
	almostEqual(t, y, 16, "y")
}

func TestColorTransformComposeIdentity(t *testing.T) {
	ct := ColorTransform{Mult: [4]float32{0.5, 0.5, 0.5, 1}, Add: [4]float32{0.1, 0, 0, 0}}
	out := IdentityColorTransform.Compose(ct)
	for i := range out.Mult {
		almostEqual(t, out.Mult[i], ct.Mult[i], "mult")
		almostEqual(t, out.Add[i], ct.Add[i], "add")
	}
}

func TestColorTransformComposeMultAdd(t *testing.T) {
	a := ColorTransform{Mult: [4]float32{2, 2, 2, 2}, Add: [4]float32{1, 1, 1, 1}}
	b := ColorTransform{Mult: [4]float32{0.5, 0.5, 0.5, 0.5}, Add: [4]float32{0.25, 0.25, 0.25, 0.25}}
	out := a.Compose(b)
	for i := range out.Mult {
		almostEqual(t, out.Mult[i], 1.0, "mult")
		// a.Add*b.Mult + b.Add = 1*0.5 + 0.25 = 0.75
		almostEqual(t, out.Add[i], 0.75, "add")
	}
}

func TestColorTransformIsIdentity(t *testing.T) {
	if !IdentityColorTransform.IsIdentity() {
		t.Fatal("expected IdentityColorTransform.IsIdentity() to be true")
	}
	other := ColorTransform{Mult: [4]float32{1, 1, 1, 1}, Add: [4]float32{0, 0, 0, 0.001}}
	if other.IsIdentity() {
		t.Fatal("expected non-identity color transform to report false")
	}
}
