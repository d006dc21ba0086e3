// Package tessellate implements spec component C3, the Shape Tessellator:
// turning a DefineShape record's fill/stroke edges into GPU-ready vertex
// and index buffers. Fan triangulation is grounded on
// phanxgames-willow's buildPolygonFan (mesh_helpers.go); AABB computation
// on its computeMeshAABB (mesh.go).
package tessellate

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// FillKind selects how a Draw batch should be shaded.
type FillKind uint8

const (
	FillColor FillKind = iota
	FillGradient
	FillBitmap
)

// Draw is one tessellated fill or stroke batch: a triangle list (vertices
// plus indices into them) sharing a single fill. Kind-specific fields
// (GradientRamp, BitmapID) are populated only for their matching Kind.
type Draw struct {
	Kind FillKind

	Vertices []ebiten.Vertex
	Indices  []uint16

	// GradientRamp is a 256-sample pre-resolved color ramp for FillGradient
	// batches, built from the shape's gradient stop records so the
	// rasterizer can sample it with a single texture lookup instead of
	// evaluating stops per-pixel.
	GradientRamp [256][4]uint8

	// BitmapID identifies the fill's source bitmap character for FillBitmap
	// batches; the rasterizer resolves it against the bitmap catalog.
	BitmapID uint16
}

// Point is a shape-space vertex in twips-converted pixel units.
type Point struct{ X, Y float32 }

// AABB is an axis-aligned bounding box in the same units as the points it
// was computed from.
type AABB struct{ MinX, MinY, MaxX, MaxY float32 }

// TessellateConvexPolygon fan-triangulates a single convex fill contour
// around its first vertex, the same approach as willow's buildPolygonFan:
// SWF shape records decompose into convex sub-paths at the edge-record
// level, so a fan (rather than a general polygon triangulator) is
// sufficient and far cheaper.
func TessellateConvexPolygon(points []Point, color [4]uint8) Draw {
	if len(points) < 3 {
		return Draw{Kind: FillColor}
	}
	verts := make([]ebiten.Vertex, len(points))
	r, g, b, a := colorComponents(color)
	for i, p := range points {
		verts[i] = ebiten.Vertex{
			DstX: p.X, DstY: p.Y,
			SrcX: 0, SrcY: 0,
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		}
	}
	indices := make([]uint16, 0, (len(points)-2)*3)
	for i := 1; i < len(points)-1; i++ {
		indices = append(indices, 0, uint16(i), uint16(i+1))
	}
	return Draw{Kind: FillColor, Vertices: verts, Indices: indices}
}

func colorComponents(c [4]uint8) (r, g, b, a float32) {
	a = float32(c[3]) / 255
	r = float32(c[0]) / 255 * a
	g = float32(c[1]) / 255 * a
	b = float32(c[2]) / 255 * a
	return
}

// ComputeAABB returns the tight bounding box of points, matching the
// convention of willow's computeMeshAABB.
func ComputeAABB(points []Point) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		if p.X < box.MinX {
			box.MinX = p.X
		}
		if p.Y < box.MinY {
			box.MinY = p.Y
		}
		if p.X > box.MaxX {
			box.MaxX = p.X
		}
		if p.Y > box.MaxY {
			box.MaxY = p.Y
		}
	}
	return box
}

// Bounds returns the tight bounding box, in the same local units as the
// vertices, spanning every draw's vertices — used to size a shape's output
// canvas and locate its origin offset per spec §6.2/§4.4.
func Bounds(draws []Draw) AABB {
	var box AABB
	first := true
	for _, d := range draws {
		for _, v := range d.Vertices {
			if first {
				box = AABB{MinX: v.DstX, MinY: v.DstY, MaxX: v.DstX, MaxY: v.DstY}
				first = false
				continue
			}
			if v.DstX < box.MinX {
				box.MinX = v.DstX
			}
			if v.DstY < box.MinY {
				box.MinY = v.DstY
			}
			if v.DstX > box.MaxX {
				box.MaxX = v.DstX
			}
			if v.DstY > box.MaxY {
				box.MaxY = v.DstY
			}
		}
	}
	return box
}

// ScaleDraws returns a copy of draws with every vertex translated so box's
// origin sits at (0,0) and scaled by scale, leaving colors, indices, and
// fill kind untouched. Used to fit a shape's geometry into its rasterized
// canvas, which is sized to box's scaled extent.
func ScaleDraws(draws []Draw, box AABB, scale float32) []Draw {
	out := make([]Draw, len(draws))
	for i, d := range draws {
		verts := make([]ebiten.Vertex, len(d.Vertices))
		for j, v := range d.Vertices {
			v.DstX = (v.DstX - box.MinX) * scale
			v.DstY = (v.DstY - box.MinY) * scale
			verts[j] = v
		}
		nd := d
		nd.Vertices = verts
		out[i] = nd
	}
	return out
}

// GradientStop is one control point of a SWF gradient fill.
type GradientStop struct {
	Ratio uint8
	Color [4]uint8
}

// BuildGradientRamp resolves a sparse set of gradient stops into the dense
// 256-sample ramp §4.3 specifies, linearly interpolating between
// neighboring stops.
func BuildGradientRamp(stops []GradientStop) [256][4]uint8 {
	var ramp [256][4]uint8
	if len(stops) == 0 {
		return ramp
	}
	for i := 0; i < 256; i++ {
		ratio := uint8(i)
		lo, hi := stops[0], stops[len(stops)-1]
		for j := 0; j < len(stops)-1; j++ {
			if stops[j].Ratio <= ratio && ratio <= stops[j+1].Ratio {
				lo, hi = stops[j], stops[j+1]
				break
			}
		}
		ramp[i] = lerpColor(lo, hi, ratio)
	}
	return ramp
}

func lerpColor(lo, hi GradientStop, ratio uint8) [4]uint8 {
	span := int(hi.Ratio) - int(lo.Ratio)
	if span <= 0 {
		return lo.Color
	}
	f := float64(int(ratio)-int(lo.Ratio)) / float64(span)
	var out [4]uint8
	for i := 0; i < 4; i++ {
		out[i] = uint8(float64(lo.Color[i]) + f*float64(int(hi.Color[i])-int(lo.Color[i])))
	}
	return out
}
