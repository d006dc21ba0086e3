package tessellate

import "testing"

func almostEqual(a, b float32) bool {
	const eps = 1e-4
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestTessellateConvexPolygonFansAroundFirstVertex(t *testing.T) {
	square := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	draw := TessellateConvexPolygon(square, [4]uint8{255, 0, 0, 255})

	if len(draw.Vertices) != 4 {
		t.Fatalf("got %d vertices, want 4", len(draw.Vertices))
	}
	if len(draw.Indices) != 6 {
		t.Fatalf("got %d indices, want 6 (2 triangles)", len(draw.Indices))
	}
	// Every triangle fans around vertex 0.
	for i := 0; i < len(draw.Indices); i += 3 {
		if draw.Indices[i] != 0 {
			t.Fatalf("triangle %d did not fan around vertex 0: %v", i/3, draw.Indices[i:i+3])
		}
	}
}

func TestTessellateConvexPolygonRejectsDegenerateContours(t *testing.T) {
	draw := TessellateConvexPolygon([]Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, [4]uint8{0, 0, 0, 255})
	if len(draw.Vertices) != 0 || len(draw.Indices) != 0 {
		t.Fatalf("expected an empty draw for a 2-point contour, got %+v", draw)
	}
}

func TestComputeAABB(t *testing.T) {
	box := ComputeAABB([]Point{{X: -5, Y: 2}, {X: 10, Y: -3}, {X: 1, Y: 8}})
	if box.MinX != -5 || box.MaxX != 10 || box.MinY != -3 || box.MaxY != 8 {
		t.Fatalf("got %+v", box)
	}
}

func TestBoundsSpansEveryDrawsVertices(t *testing.T) {
	a := TessellateConvexPolygon([]Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}}, [4]uint8{255, 255, 255, 255})
	b := TessellateConvexPolygon([]Point{{X: -2, Y: 10}, {X: 6, Y: 10}, {X: 6, Y: 20}}, [4]uint8{0, 0, 0, 255})

	box := Bounds([]Draw{a, b})
	if !almostEqual(box.MinX, -2) || !almostEqual(box.MaxX, 6) {
		t.Fatalf("got x range [%v, %v], want [-2, 6]", box.MinX, box.MaxX)
	}
	if !almostEqual(box.MinY, 0) || !almostEqual(box.MaxY, 20) {
		t.Fatalf("got y range [%v, %v], want [0, 20]", box.MinY, box.MaxY)
	}
}

func TestScaleDrawsTranslatesAndScalesVertices(t *testing.T) {
	draw := TessellateConvexPolygon([]Point{{X: 2, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 8}}, [4]uint8{1, 2, 3, 255})
	box := AABB{MinX: 2, MinY: 4, MaxX: 6, MaxY: 8}

	scaled := ScaleDraws([]Draw{draw}, box, 2.0)
	if len(scaled) != 1 {
		t.Fatalf("got %d draws, want 1", len(scaled))
	}
	got := scaled[0].Vertices
	want := []Point{{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 8, Y: 8}}
	for i, w := range want {
		if !almostEqual(got[i].DstX, w.X) || !almostEqual(got[i].DstY, w.Y) {
			t.Fatalf("vertex %d: got (%v, %v), want (%v, %v)", i, got[i].DstX, got[i].DstY, w.X, w.Y)
		}
	}
	// The original draw's vertices must be untouched.
	if !almostEqual(draw.Vertices[0].DstX, 2) {
		t.Fatal("ScaleDraws mutated its input")
	}
}

func TestBuildGradientRampInterpolatesBetweenStops(t *testing.T) {
	stops := []GradientStop{
		{Ratio: 0, Color: [4]uint8{0, 0, 0, 255}},
		{Ratio: 255, Color: [4]uint8{255, 255, 255, 255}},
	}
	ramp := BuildGradientRamp(stops)
	if ramp[0] != [4]uint8{0, 0, 0, 255} {
		t.Fatalf("got %v at ratio 0, want black", ramp[0])
	}
	if ramp[255] != [4]uint8{255, 255, 255, 255} {
		t.Fatalf("got %v at ratio 255, want white", ramp[255])
	}
	mid := ramp[128]
	if mid[0] < 120 || mid[0] > 135 {
		t.Fatalf("got %v at ratio 128, want an approximately mid-gray value", mid)
	}
}

func TestBuildGradientRampEmptyStops(t *testing.T) {
	ramp := BuildGradientRamp(nil)
	if ramp[0] != [4]uint8{} {
		t.Fatalf("expected a zero-valued ramp for no stops, got %v", ramp[0])
	}
}
