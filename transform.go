package swfanim

// Matrix is a 2x3 affine transform: scale/skew a,b,c,d plus pixel-space
// translation tx,ty. Composition is standard matrix multiply; Identity is
// the neutral element. Layout mirrors willow's [6]float64 affine convention
// (transform.go), narrowed to float32 per the spec's storage width.
//
//	| A  C  Tx |
//	| B  D  Ty |
//	| 0  0   1 |
type Matrix struct {
	A  float32 `json:"a"`
	B  float32 `json:"b"`
	C  float32 `json:"c"`
	D  float32 `json:"d"`
	Tx float32 `json:"tx"`
	Ty float32 `json:"ty"`
}

// Identity is the neutral affine transform.
var Identity = Matrix{A: 1, D: 1}

// Compose returns parent*child — applying child's local transform first,
// then parent's. Grounded on willow's multiplyAffine.
func (parent Matrix) Compose(child Matrix) Matrix {
	return Matrix{
		A:  parent.A*child.A + parent.C*child.B,
		B:  parent.B*child.A + parent.D*child.B,
		C:  parent.A*child.C + parent.C*child.D,
		D:  parent.B*child.C + parent.D*child.D,
		Tx: parent.A*child.Tx + parent.C*child.Ty + parent.Tx,
		Ty: parent.B*child.Tx + parent.D*child.Ty + parent.Ty,
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix) TransformPoint(x, y float32) (float32, float32) {
	return m.A*x + m.C*y + m.Tx, m.B*x + m.D*y + m.Ty
}

// ColorTransform is a normalized-RGBA multiply+add pair. Identity is
// mult=1,1,1,1 add=0,0,0,0.
type ColorTransform struct {
	Mult [4]float32 `json:"mult"`
	Add  [4]float32 `json:"add"`
}

// IdentityColorTransform is the neutral color transform.
var IdentityColorTransform = ColorTransform{Mult: [4]float32{1, 1, 1, 1}}

// Compose returns a.Compose(b) such that applying the result to a color is
// equivalent to applying a then b: result.mult = a.mult*b.mult,
// result.add = a.add*b.mult + b.add. Per spec §3.
func (a ColorTransform) Compose(b ColorTransform) ColorTransform {
	var out ColorTransform
	for i := 0; i < 4; i++ {
		out.Mult[i] = a.Mult[i] * b.Mult[i]
		out.Add[i] = a.Add[i]*b.Mult[i] + b.Add[i]
	}
	return out
}

// IsIdentity reports whether the color transform has no visible effect.
func (c ColorTransform) IsIdentity() bool {
	return c == IdentityColorTransform
}
