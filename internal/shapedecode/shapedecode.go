// Package shapedecode implements the fill-geometry half of spec component
// C3: decoding a DefineShape/DefineShape2/DefineShape3/DefineShape4 tag's
// bit-packed edge records into the polygons internal/tessellate turns into
// vertex batches. Grounded on original_source/convert/src/shape.rs's
// edge-record walk; the bit-level field layout follows the same MSB-first
// convention internal/distill and internal/swf already read MATRIX/RECT
// with, duplicated here as its own unexported bitReader for the same
// reason distill keeps its own rather than importing swf's unexported one.
//
// Scope: only straight edges contribute real curvature; a curved edge's
// control point is decoded to stay correctly positioned in the bit stream
// but dropped from the output contour, so curves render as chords rather
// than arcs (documented in DESIGN.md). Gradient and bitmap fills are
// reduced to a single representative color since internal/tessellate only
// tessellates flat-color polygons today; the bitmap's character id is kept
// on the fill style for a future textured-fill pass even though it isn't
// consumed yet.
package shapedecode

import (
	"fmt"
	"sort"

	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/tessellate"
)

type fillStyle struct {
	kind     tessellate.FillKind
	color    [4]uint8
	bitmapID uint16
}

// Decode turns a DefineShape-family tag's raw body (including its leading
// character id) into one tessellated Draw per fill style that ended up with
// at least one closed contour. shapeVersion is 1 for DefineShape, 2 for
// DefineShape2, 3 for DefineShape3, 4 for DefineShape4 — later versions add
// an edge-bounds rect, an extra flags byte, and RGBA (rather than RGB)
// colors.
func Decode(shapeVersion int, data []byte) ([]tessellate.Draw, error) {
	br := newBitReader(data)

	if _, err := br.readUint(16); err != nil {
		return nil, fmt.Errorf("shapedecode: character id: %w", err)
	}
	if err := readRect(br); err != nil {
		return nil, fmt.Errorf("shapedecode: shape bounds: %w", err)
	}
	if shapeVersion == 4 {
		if err := readRect(br); err != nil {
			return nil, fmt.Errorf("shapedecode: edge bounds: %w", err)
		}
		if _, err := br.readUint(8); err != nil {
			return nil, fmt.Errorf("shapedecode: shape4 flags: %w", err)
		}
	}

	fills, err := readFillStyleArray(br, shapeVersion)
	if err != nil {
		return nil, fmt.Errorf("shapedecode: fill styles: %w", err)
	}
	if err := skipLineStyleArray(br, shapeVersion); err != nil {
		return nil, fmt.Errorf("shapedecode: line styles: %w", err)
	}

	numFillBits, err := br.readUint(4)
	if err != nil {
		return nil, fmt.Errorf("shapedecode: num fill bits: %w", err)
	}
	numLineBits, err := br.readUint(4)
	if err != nil {
		return nil, fmt.Errorf("shapedecode: num line bits: %w", err)
	}

	w := &shapeWalker{fills: fills, contours: make(map[int][]tessellate.Point)}
	if err := w.run(br, shapeVersion, int(numFillBits), int(numLineBits)); err != nil {
		return nil, fmt.Errorf("shapedecode: shape records: %w", err)
	}

	var draws []tessellate.Draw
	for _, idx := range sortedStyleIndices(w.contours) {
		points := w.contours[idx]
		if len(points) < 3 || idx-1 < 0 || idx-1 >= len(w.fills) {
			continue
		}
		style := w.fills[idx-1]
		draws = append(draws, tessellate.TessellateConvexPolygon(points, style.color))
	}
	return draws, nil
}

// shapeWalker replays a shape's edge records, tracking the current pen
// position and active fill style indices, and accumulates every edge
// traversed under fill style 1 (the "forward" fill per SWF's winding
// convention) into that style's contour.
type shapeWalker struct {
	fills    []fillStyle
	x, y     int32
	fill0    int
	fill1    int
	contours map[int][]tessellate.Point
}

func (w *shapeWalker) run(br *bitReader, shapeVersion, numFillBits, numLineBits int) error {
	for {
		isEdge, err := br.readBool()
		if err != nil {
			return err
		}
		if !isEdge {
			done, err := w.styleChangeRecord(br, &shapeVersion, &numFillBits, &numLineBits)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			continue
		}
		if err := w.edgeRecord(br); err != nil {
			return err
		}
	}
}

// styleChangeRecord decodes one non-edge SHAPERECORD. It returns done=true
// on an EndShapeRecord (all five flag bits clear).
func (w *shapeWalker) styleChangeRecord(br *bitReader, shapeVersion, numFillBits, numLineBits *int) (bool, error) {
	newStyles, err := br.readBool()
	if err != nil {
		return false, err
	}
	lineStyle, err := br.readBool()
	if err != nil {
		return false, err
	}
	fillStyle1, err := br.readBool()
	if err != nil {
		return false, err
	}
	fillStyle0, err := br.readBool()
	if err != nil {
		return false, err
	}
	moveTo, err := br.readBool()
	if err != nil {
		return false, err
	}
	if !newStyles && !lineStyle && !fillStyle1 && !fillStyle0 && !moveTo {
		return true, nil
	}

	if moveTo {
		nbits, err := br.readUint(5)
		if err != nil {
			return false, err
		}
		x, err := br.readSigned(int(nbits))
		if err != nil {
			return false, err
		}
		y, err := br.readSigned(int(nbits))
		if err != nil {
			return false, err
		}
		w.x, w.y = x, y
	}
	if fillStyle0 {
		v, err := br.readUint(*numFillBits)
		if err != nil {
			return false, err
		}
		w.fill0 = int(v)
	}
	if fillStyle1 {
		v, err := br.readUint(*numFillBits)
		if err != nil {
			return false, err
		}
		w.fill1 = int(v)
	}
	if lineStyle {
		if _, err := br.readUint(*numLineBits); err != nil {
			return false, err
		}
	}
	if newStyles {
		fills, err := readFillStyleArray(br, *shapeVersion)
		if err != nil {
			return false, err
		}
		if err := skipLineStyleArray(br, *shapeVersion); err != nil {
			return false, err
		}
		w.fills = fills
		nf, err := br.readUint(4)
		if err != nil {
			return false, err
		}
		nl, err := br.readUint(4)
		if err != nil {
			return false, err
		}
		*numFillBits, *numLineBits = int(nf), int(nl)
	}
	return false, nil
}

// edgeRecord decodes one straight or curved edge and, when fill style 1 is
// active, appends the edge's endpoint to that style's contour.
func (w *shapeWalker) edgeRecord(br *bitReader) error {
	straight, err := br.readBool()
	if err != nil {
		return err
	}
	nbits, err := br.readUint(4)
	if err != nil {
		return err
	}
	bits := int(nbits) + 2

	var dx, dy int32
	if straight {
		general, err := br.readBool()
		if err != nil {
			return err
		}
		if general {
			if dx, err = br.readSigned(bits); err != nil {
				return err
			}
			if dy, err = br.readSigned(bits); err != nil {
				return err
			}
		} else {
			vertical, err := br.readBool()
			if err != nil {
				return err
			}
			if vertical {
				dy, err = br.readSigned(bits)
			} else {
				dx, err = br.readSigned(bits)
			}
			if err != nil {
				return err
			}
		}
	} else {
		// Control point is read to stay aligned but not kept: see the
		// package doc's curved-edge scope note.
		if _, err := br.readSigned(bits); err != nil {
			return err
		}
		if _, err := br.readSigned(bits); err != nil {
			return err
		}
		if dx, err = br.readSigned(bits); err != nil {
			return err
		}
		if dy, err = br.readSigned(bits); err != nil {
			return err
		}
	}

	w.x += dx
	w.y += dy
	if w.fill1 > 0 {
		w.contours[w.fill1] = append(w.contours[w.fill1], twipsToPoint(w.x, w.y))
	}
	return nil
}

func twipsToPoint(x, y int32) tessellate.Point {
	return tessellate.Point{X: float32(x) / 20, Y: float32(y) / 20}
}

func sortedStyleIndices(m map[int][]tessellate.Point) []int {
	idx := make([]int, 0, len(m))
	for k := range m {
		idx = append(idx, k)
	}
	sort.Ints(idx)
	return idx
}

func readFillStyleArray(br *bitReader, shapeVersion int) ([]fillStyle, error) {
	count, err := br.readUint(8)
	if err != nil {
		return nil, err
	}
	if count == 0xFF {
		if count, err = br.readUint(16); err != nil {
			return nil, err
		}
	}
	styles := make([]fillStyle, count)
	for i := range styles {
		style, err := readFillStyle(br, shapeVersion)
		if err != nil {
			return nil, err
		}
		styles[i] = style
	}
	return styles, nil
}

func readFillStyle(br *bitReader, shapeVersion int) (fillStyle, error) {
	kind, err := br.readUint(8)
	if err != nil {
		return fillStyle{}, err
	}
	switch kind {
	case 0x00:
		c, err := readColor(br, shapeVersion >= 3)
		if err != nil {
			return fillStyle{}, err
		}
		return fillStyle{kind: tessellate.FillColor, color: c}, nil
	case 0x10, 0x12, 0x13:
		if err := skipMatrix(br); err != nil {
			return fillStyle{}, err
		}
		stops, err := readGradient(br, shapeVersion >= 3, kind == 0x13)
		if err != nil {
			return fillStyle{}, err
		}
		c := [4]uint8{128, 128, 128, 255}
		if len(stops) > 0 {
			c = stops[0].Color
		}
		return fillStyle{kind: tessellate.FillGradient, color: c}, nil
	case 0x40, 0x41, 0x42, 0x43:
		bitmapID, err := br.readUint(16)
		if err != nil {
			return fillStyle{}, err
		}
		if err := skipMatrix(br); err != nil {
			return fillStyle{}, err
		}
		return fillStyle{kind: tessellate.FillBitmap, bitmapID: uint16(bitmapID), color: [4]uint8{255, 255, 255, 255}}, nil
	default:
		return fillStyle{}, fmt.Errorf("unknown fill style type 0x%02x", kind)
	}
}

func readColor(br *bitReader, hasAlpha bool) ([4]uint8, error) {
	var c [4]uint8
	for i := 0; i < 3; i++ {
		v, err := br.readUint(8)
		if err != nil {
			return c, err
		}
		c[i] = uint8(v)
	}
	if hasAlpha {
		v, err := br.readUint(8)
		if err != nil {
			return c, err
		}
		c[3] = uint8(v)
	} else {
		c[3] = 255
	}
	return c, nil
}

func readGradient(br *bitReader, hasAlpha, focal bool) ([]tessellate.GradientStop, error) {
	if _, err := br.readUint(2); err != nil { // spread mode
		return nil, err
	}
	if _, err := br.readUint(2); err != nil { // interpolation mode
		return nil, err
	}
	count, err := br.readUint(4)
	if err != nil {
		return nil, err
	}
	stops := make([]tessellate.GradientStop, count)
	for i := range stops {
		ratio, err := br.readUint(8)
		if err != nil {
			return nil, err
		}
		color, err := readColor(br, hasAlpha)
		if err != nil {
			return nil, err
		}
		stops[i] = tessellate.GradientStop{Ratio: uint8(ratio), Color: color}
	}
	if focal {
		if _, err := br.readUint(16); err != nil { // focal point, FIXED8
			return nil, err
		}
	}
	return stops, nil
}

// skipMatrix consumes a MATRIX record's bits without materializing it: a
// gradient or bitmap fill's placement matrix only matters once this module
// supports textured/gradient rendering, but its bits must still be read to
// stay positioned for whatever follows.
func skipMatrix(br *bitReader) error {
	hasScale, err := br.readBool()
	if err != nil {
		return err
	}
	if hasScale {
		n, err := br.readUint(5)
		if err != nil {
			return err
		}
		if _, err := br.readUint(int(n)); err != nil {
			return err
		}
		if _, err := br.readUint(int(n)); err != nil {
			return err
		}
	}
	hasRotate, err := br.readBool()
	if err != nil {
		return err
	}
	if hasRotate {
		n, err := br.readUint(5)
		if err != nil {
			return err
		}
		if _, err := br.readUint(int(n)); err != nil {
			return err
		}
		if _, err := br.readUint(int(n)); err != nil {
			return err
		}
	}
	n, err := br.readUint(5)
	if err != nil {
		return err
	}
	if _, err := br.readUint(int(n)); err != nil {
		return err
	}
	if _, err := br.readUint(int(n)); err != nil {
		return err
	}
	return nil
}

// skipLineStyleArray advances past the line style array. Strokes aren't
// tessellated by this module (§3 scopes C3 to fills), but the array must
// still be parsed correctly to reach the shape records that follow it,
// including DefineShape4's LINESTYLE2 which can itself embed a nested
// FILLSTYLE.
func skipLineStyleArray(br *bitReader, shapeVersion int) error {
	count, err := br.readUint(8)
	if err != nil {
		return err
	}
	if count == 0xFF {
		if count, err = br.readUint(16); err != nil {
			return err
		}
	}
	for i := uint32(0); i < count; i++ {
		if _, err := br.readUint(16); err != nil { // width
			return err
		}
		if shapeVersion < 4 {
			if _, err := readColor(br, shapeVersion >= 3); err != nil {
				return err
			}
			continue
		}
		if _, err := br.readUint(2); err != nil { // start cap
			return err
		}
		joinStyle, err := br.readUint(2)
		if err != nil {
			return err
		}
		hasFill, err := br.readBool()
		if err != nil {
			return err
		}
		if _, err := br.readUint(3); err != nil { // no-h-scale, no-v-scale, pixel-hinting
			return err
		}
		if _, err := br.readUint(5); err != nil { // reserved
			return err
		}
		if _, err := br.readBool(); err != nil { // no-close
			return err
		}
		if _, err := br.readUint(2); err != nil { // end cap
			return err
		}
		if joinStyle == 2 {
			if _, err := br.readUint(16); err != nil { // miter limit
				return err
			}
		}
		if hasFill {
			if _, err := readFillStyle(br, shapeVersion); err != nil {
				return err
			}
		} else {
			if _, err := readColor(br, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func readRect(br *bitReader) error {
	n, err := br.readUint(5)
	if err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if _, err := br.readUint(int(n)); err != nil {
			return err
		}
	}
	br.align()
	return nil
}

// bitReader is shapedecode's own MSB-first bit reader, operating directly
// on an in-memory tag body rather than a stream since a shape tag is always
// read whole.
type bitReader struct {
	data    []byte
	pos     int
	current byte
	bits    int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (b *bitReader) readUint(n int) (uint32, error) {
	var v uint32
	for n > 0 {
		if b.bits == 0 {
			if b.pos >= len(b.data) {
				return 0, fmt.Errorf("shapedecode: bit reader underrun")
			}
			b.current = b.data[b.pos]
			b.pos++
			b.bits = 8
		}
		take := n
		if take > b.bits {
			take = b.bits
		}
		shift := b.bits - take
		mask := byte((1 << take) - 1)
		v = (v << take) | uint32((b.current>>shift)&mask)
		b.bits -= take
		n -= take
	}
	return v, nil
}

func (b *bitReader) readBool() (bool, error) {
	v, err := b.readUint(1)
	return v != 0, err
}

func (b *bitReader) readSigned(n int) (int32, error) {
	v, err := b.readUint(n)
	if err != nil || n == 0 {
		return 0, err
	}
	signBit := uint32(1) << (n - 1)
	if v&signBit != 0 {
		return int32(v) - int32(uint32(1)<<n), nil
	}
	return int32(v), nil
}

func (b *bitReader) align() {
	b.bits = 0
}
