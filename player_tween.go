package swfanim

import "github.com/tanema/gween/ease"

// lerp blends two scalars via the package's interpolation curve. Per
// SPEC_FULL.md §4 resolution 1, the keyframe model uses linear
// interpolation; the indirection through gween/ease (rather than a bare
// a+(b-a)*f expression) keeps the door open for a per-lane easing curve
// later, and is grounded on willow's TweenGroup/TweenPosition pattern
// (animation.go) which drives every one of its tween fields through a
// gween.Tween rather than hand-rolled lerp math.
func lerp(a, b, f float32) float32 {
	return ease.Linear(f, a, b-a, 1)
}

func lerpMatrix(a, b Matrix, f float32) Matrix {
	return Matrix{
		A:  lerp(a.A, b.A, f),
		B:  lerp(a.B, b.B, f),
		C:  lerp(a.C, b.C, f),
		D:  lerp(a.D, b.D, f),
		Tx: lerp(a.Tx, b.Tx, f),
		Ty: lerp(a.Ty, b.Ty, f),
	}
}

func lerpColorTransform(a, b ColorTransform, f float32) ColorTransform {
	var out ColorTransform
	for i := 0; i < 4; i++ {
		out.Mult[i] = lerp(a.Mult[i], b.Mult[i], f)
		out.Add[i] = lerp(a.Add[i], b.Add[i], f)
	}
	return out
}
