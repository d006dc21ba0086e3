package swfanim

import "testing"

func TestFilterIsImpotent(t *testing.T) {
	identity := Filter{Kind: FilterColorMatrix, Matrix: identityColorMatrix}
	if !identity.IsImpotent() {
		t.Fatal("identity color matrix should be impotent")
	}

	nonIdentity := Filter{Kind: FilterColorMatrix, Matrix: identityColorMatrix}
	nonIdentity.Matrix[0] = 2
	if nonIdentity.IsImpotent() {
		t.Fatal("scaled color matrix should not be impotent")
	}

	blur := Filter{Kind: FilterBlur, BlurX: 4, BlurY: 4}
	if blur.IsImpotent() {
		t.Fatal("a blur filter is never impotent")
	}
}

func TestFilterExpandBoundsBlur(t *testing.T) {
	f := Filter{Kind: FilterBlur, BlurX: 4, BlurY: 6}
	left, top, right, bottom := f.ExpandBounds()
	for name, got := range map[string]float32{"left": left, "right": right} {
		if got != 4 {
			t.Errorf("%s: got %v, want 4", name, got)
		}
	}
	for name, got := range map[string]float32{"top": top, "bottom": bottom} {
		if got != 6 {
			t.Errorf("%s: got %v, want 6", name, got)
		}
	}
}

func TestFilterExpandBoundsColorMatrixIsZero(t *testing.T) {
	f := Filter{Kind: FilterColorMatrix, Matrix: identityColorMatrix}
	left, top, right, bottom := f.ExpandBounds()
	if left != 0 || top != 0 || right != 0 || bottom != 0 {
		t.Fatalf("color matrix should never expand bounds, got %v %v %v %v", left, top, right, bottom)
	}
}

func TestFilterExpandBoundsConvolutionKernelOverhang(t *testing.T) {
	f := Filter{Kind: FilterConvolution, NumMatrixRows: 5, NumMatrixColumns: 3}
	left, top, right, bottom := f.ExpandBounds()
	if left != 1 || right != 1 {
		t.Errorf("column pad: got left=%v right=%v, want 1", left, right)
	}
	if top != 2 || bottom != 2 {
		t.Errorf("row pad: got top=%v bottom=%v, want 2", top, bottom)
	}
}

func TestFilterJSONRoundTrip(t *testing.T) {
	original := Filter{
		Kind:     FilterDropShadow,
		Color:    [4]uint8{255, 0, 0, 255},
		BlurX:    4,
		BlurY:    4,
		Distance: 3,
		Angle:    1.2,
		Strength: 1,
	}
	data, err := original.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Filter
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Kind != original.Kind || decoded.Color != original.Color || decoded.BlurX != original.BlurX {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}
