// Package distill implements spec component C5, the Timeline Distiller:
// walking a decoded tag stream and turning its imperative display-list
// operations (PlaceObject/RemoveObject/ShowFrame/FrameLabel) into the
// declarative per-depth keyframe lanes the rest of the module consumes.
// Grounded on original_source/runtime/src/parser.rs's parse_animation_data
// (root walker) and parse_sprite_animation (nested-clip walker), and on
// convert/src/animation.rs's add_time_line/apply_place_object/
// replace_at_depth/remove_at_depth/clear_blank_frame.
package distill

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	swfanim "github.com/aojiaoxiaolinlin/swf-animation-sub000"
	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/swf"
)

// symbolClass maps a character id to its exported linkage name, built from
// the movie's single SymbolClass tag.
type symbolClass map[uint16]string

// Walker accumulates one timeline (root or nested sprite) tag-by-tag.
type walker struct {
	frameRate   float32
	frameIndex  int
	time        float32
	placements  map[swfanim.Depth]*swfanim.Placement
	events      []swfanim.Event
	names       map[string]bool // duplicate-label detection
	isSprite    bool
	skinFrames  map[string]int
	defaultSkin string
}

func newWalker(frameRate float32, isSprite bool) *walker {
	return &walker{
		frameRate:  frameRate,
		placements: make(map[swfanim.Depth]*swfanim.Placement),
		names:      make(map[string]bool),
		isSprite:   isSprite,
		skinFrames: make(map[string]int),
	}
}

func (w *walker) placementAt(depth swfanim.Depth) *swfanim.Placement {
	p, ok := w.placements[depth]
	if !ok {
		p = &swfanim.Placement{Depth: depth}
		w.placements[depth] = p
	}
	return p
}

// showFrame advances the time cursor by one frame, the unit every other
// lane timestamp is expressed in once converted to seconds.
func (w *walker) showFrame() {
	w.frameIndex++
	w.time = float32(w.frameIndex) / w.frameRate
}

// frameLabel handles a FrameLabel tag per §4.5.1/§4.5.2: a name prefixed
// "event_" registers a root animation event; "skin_" (sprite walker only)
// records a skin frame. Any other label on the root timeline partitions the
// movie into a new named Animation — that case is recognized by Run before
// it ever calls frameLabel (via rootAnimationStart), since it replaces the
// walker entirely rather than mutating it, so this method only ever sees
// the two frame-local cases. A duplicate event or skin label is ignored,
// keeping the first occurrence; no warning is logged.
func (w *walker) frameLabel(name string) {
	switch {
	case strings.HasPrefix(name, "event_"):
		eventName := strings.TrimPrefix(name, "event_")
		if w.names[name] {
			return
		}
		w.names[name] = true
		w.events = append(w.events, swfanim.Event{Time: w.time, Name: eventName})
	case w.isSprite && strings.HasPrefix(name, "skin_"):
		skinName := strings.TrimPrefix(name, "skin_")
		if _, dup := w.skinFrames[skinName]; dup {
			return
		}
		w.skinFrames[skinName] = w.frameIndex
		if w.defaultSkin == "" {
			w.defaultSkin = skinName
		}
	}
}

// rootAnimationStart reports whether a root-timeline FrameLabel partitions
// the movie into a new named Animation per §4.5.1: every label that isn't
// an "event_" marker starts one, named from the label with any "anim_"
// prefix stripped.
func rootAnimationStart(name string) (animName string, starts bool) {
	if strings.HasPrefix(name, "event_") {
		return "", false
	}
	return strings.TrimPrefix(name, "anim_"), true
}

// placeObject2 is the decoded subset of a PlaceObject2/3 record this
// distiller acts on. Clip depth, filter lists and blend modes are not
// decoded: decodePlaceObject2 never sets hasBlend, and there is no filters
// field.
type placeObject2 struct {
	hasCharacter bool
	characterID  uint16
	hasMatrix    bool
	matrix       swfanim.Matrix
	hasColor     bool
	color        swfanim.ColorTransform
	hasBlend     bool
	blend        swfanim.BlendMode
	depth        swfanim.Depth
	move         bool
}

// placeObject applies a decoded PlaceObject2/3 to the depth's lanes,
// per §4.5.3's conditional-append table: only the fields actually present
// on this tag get a new keyframe appended; omitted fields continue
// holding whatever the lane last resolved to (the binary-search lookup's
// own hold semantics handle that at playback time, so distillation simply
// never appends a redundant keyframe for an unspecified field).
func (w *walker) placeObject(op placeObject2) {
	p := w.placementAt(op.depth)
	if op.hasCharacter {
		p.Resources = append(p.Resources, swfanim.Resource{Time: w.time, ResourceID: op.characterID})
	}
	if op.hasMatrix {
		p.Transforms = append(p.Transforms, swfanim.TransformKey{Time: w.time, Matrix: op.matrix})
	}
	if op.hasColor {
		p.ColorTransforms = append(p.ColorTransforms, swfanim.ColorTransformKey{Time: w.time, ColorTransform: op.color})
	}
	if op.hasBlend {
		p.Blends = append(p.Blends, swfanim.BlendKey{Time: w.time, Mode: op.blend})
	}
}

// removeObject appends the depth's blank sentinel resource keyframe
// (ResourceID 0), per §4.5.1: a RemoveObject tag is recorded as data, not
// as a deletion of prior history, so playback can still resolve what was
// on screen a moment before the removal.
func (w *walker) removeObject(depth swfanim.Depth) {
	p := w.placementAt(depth)
	p.Resources = append(p.Resources, swfanim.Resource{Time: w.time, ResourceID: 0})
}

// finish produces the final timeline, running clear_blank_frame (§4.5.4):
// a depth with no non-blank resource keyframe (every entry is the blank
// sentinel, or there is none) carried no visible content for the whole clip and is dropped entirely, rather than
// emitted as a placement that is always empty.
func (w *walker) finish() map[swfanim.Depth]*swfanim.Placement {
	out := make(map[swfanim.Depth]*swfanim.Placement, len(w.placements))
	for depth, p := range w.placements {
		if isAlwaysBlank(p) {
			continue
		}
		out[depth] = p
	}
	return out
}

func isAlwaysBlank(p *swfanim.Placement) bool {
	for _, r := range p.Resources {
		if r.ResourceID != 0 {
			return false
		}
	}
	return true
}

// DistillResult is everything the converter needs out of C5: every
// partitioned root animation in declaration order, every nested sprite's
// ClipDef, and the SymbolClass-derived names attached to both.
type DistillResult struct {
	Animations     map[string]*swfanim.Animation
	AnimationOrder []string
	Clips          map[uint16]*swfanim.ClipDef
	SymbolNames    symbolClass
}

// Run distills a fully tag-read Movie. frameRate comes from the movie
// header; spriteTagStreams holds each DefineSprite's own nested tag
// bytes, keyed by character id, as produced while scanning the root tag
// stream.
//
// The root timeline is partitioned into one or more named Animations by
// FrameLabel per §4.5.1: the movie starts as "Default", and every
// non-"event_" label closes out the animation accumulated so far and opens
// a fresh one (its own empty placements, own event list, own frame
// counter), named from the label with an "anim_" prefix stripped. A label
// naming an animation that already exists, or the current one, is ignored.
func Run(movie *swf.Movie, tags []swf.Tag, spriteTagStreams map[uint16][]swf.Tag) (*DistillResult, error) {
	symbols := make(symbolClass)
	frameRate := movie.Header.FrameRate

	animations := make(map[string]*swfanim.Animation)
	var animationOrder []string

	root := newWalker(frameRate, false)
	currentName := "Default"
	finalizeCurrent := func() {
		if _, exists := animations[currentName]; exists {
			return
		}
		animations[currentName] = &swfanim.Animation{
			Name:     currentName,
			Duration: root.time,
			Timeline: root.finish(),
			Events:   root.events,
		}
		animationOrder = append(animationOrder, currentName)
	}

	for _, tag := range tags {
		switch tag.Code {
		case swf.TagShowFrame:
			root.showFrame()
		case swf.TagFrameLabel:
			name, err := decodeFrameLabel(tag.Data)
			if err != nil {
				return nil, fmt.Errorf("distill: frame label: %w", err)
			}
			if newName, starts := rootAnimationStart(name); starts {
				if _, dup := animations[newName]; dup || newName == currentName {
					// Duplicate animation name: the label is ignored and
					// frames keep accumulating into the current animation.
					continue
				}
				finalizeCurrent()
				root = newWalker(frameRate, false)
				currentName = newName
				continue
			}
			root.frameLabel(name)
		case swf.TagPlaceObject2, swf.TagPlaceObject3:
			op, err := decodePlaceObject2(tag.Data)
			if err != nil {
				return nil, fmt.Errorf("distill: place object: %w", err)
			}
			root.placeObject(op)
		case swf.TagRemoveObject2:
			depth, err := decodeRemoveObject2(tag.Data)
			if err != nil {
				return nil, fmt.Errorf("distill: remove object: %w", err)
			}
			root.removeObject(depth)
		case swf.TagSymbolClass:
			if err := decodeSymbolClass(tag.Data, symbols); err != nil {
				return nil, fmt.Errorf("distill: symbol class: %w", err)
			}
		}
	}
	finalizeCurrent()

	clips := make(map[uint16]*swfanim.ClipDef, len(spriteTagStreams))
	for charID, spriteTags := range spriteTagStreams {
		clip, err := distillSprite(frameRate, spriteTags)
		if err != nil {
			return nil, fmt.Errorf("distill: sprite %d: %w", charID, err)
		}
		if name, ok := symbols[charID]; ok {
			// A "Skin"-prefixed class name contributes only its suffix; a
			// class named exactly "Skin" yields the empty name.
			clip.Name = strings.TrimPrefix(name, "Skin")
		}
		clips[charID] = clip
	}

	return &DistillResult{
		Animations:     animations,
		AnimationOrder: animationOrder,
		Clips:          clips,
		SymbolNames:    symbols,
	}, nil
}

func distillSprite(frameRate float32, tags []swf.Tag) (*swfanim.ClipDef, error) {
	w := newWalker(frameRate, true)
	for _, tag := range tags {
		switch tag.Code {
		case swf.TagShowFrame:
			w.showFrame()
		case swf.TagFrameLabel:
			name, err := decodeFrameLabel(tag.Data)
			if err != nil {
				return nil, err
			}
			w.frameLabel(name)
		case swf.TagPlaceObject2, swf.TagPlaceObject3:
			op, err := decodePlaceObject2(tag.Data)
			if err != nil {
				return nil, err
			}
			w.placeObject(op)
		case swf.TagRemoveObject2:
			depth, err := decodeRemoveObject2(tag.Data)
			if err != nil {
				return nil, err
			}
			w.removeObject(depth)
		}
	}
	return &swfanim.ClipDef{
		Duration:    float32(w.frameIndex) / w.frameRate,
		Timeline:    w.finish(),
		SkinFrames:  w.skinFrames,
		DefaultSkin: w.defaultSkin,
	}, nil
}

func decodeFrameLabel(data []byte) (string, error) {
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return "", fmt.Errorf("missing nul terminator")
	}
	return string(data[:i]), nil
}

func decodeRemoveObject2(data []byte) (swfanim.Depth, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("short RemoveObject2 record")
	}
	return swfanim.Depth(binary.LittleEndian.Uint16(data)), nil
}

func decodeSymbolClass(data []byte, out symbolClass) error {
	if len(data) < 2 {
		return fmt.Errorf("short SymbolClass record")
	}
	count := binary.LittleEndian.Uint16(data)
	r := bytes.NewReader(data[2:])
	for i := uint16(0); i < count; i++ {
		var idBuf [2]byte
		if _, err := r.Read(idBuf[:]); err != nil {
			return err
		}
		name, err := readNulString(r)
		if err != nil {
			return err
		}
		out[binary.LittleEndian.Uint16(idBuf[:])] = name
	}
	return nil
}

func readNulString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// decodePlaceObject2 decodes the common (non-clip-action) fields of a
// PlaceObject2/3 record: the flag byte, depth, and the optional
// character/matrix/colorTransform/ratio/name/clip-depth fields in their
// fixed wire order. PlaceObject3's filter list and blend-mode byte are not
// read, so the result never carries a blend or filters.
func decodePlaceObject2(data []byte) (placeObject2, error) {
	if len(data) < 3 {
		return placeObject2{}, fmt.Errorf("short PlaceObject2 record")
	}
	flags := data[0]
	depth := binary.LittleEndian.Uint16(data[1:3])
	r := bytes.NewReader(data[3:])

	op := placeObject2{depth: depth, move: flags&0x01 != 0}
	hasClipActions := flags&0x80 != 0
	hasClipDepth := flags&0x40 != 0
	hasName := flags&0x20 != 0
	hasRatio := flags&0x10 != 0
	hasColor := flags&0x08 != 0
	hasMatrix := flags&0x04 != 0
	hasCharacter := flags&0x02 != 0

	if hasCharacter {
		var buf [2]byte
		if _, err := r.Read(buf[:]); err != nil {
			return op, err
		}
		op.hasCharacter = true
		op.characterID = binary.LittleEndian.Uint16(buf[:])
	}
	if hasMatrix {
		m, err := readMatrix(r)
		if err != nil {
			return op, err
		}
		op.hasMatrix = true
		op.matrix = m
	}
	if hasColor {
		c, err := readColorTransformWithAlpha(r)
		if err != nil {
			return op, err
		}
		op.hasColor = true
		op.color = c
	}
	if hasRatio {
		var buf [2]byte
		if _, err := r.Read(buf[:]); err != nil {
			return op, err
		}
	}
	if hasName {
		if _, err := readNulString(r); err != nil {
			return op, err
		}
	}
	if hasClipDepth {
		var buf [2]byte
		if _, err := r.Read(buf[:]); err != nil {
			return op, err
		}
	}
	if hasClipActions {
		// Clip event/action records run to the end of the tag; this
		// distiller has no use for ActionScript, so the rest of the tag is
		// simply not parsed further.
	}
	return op, nil
}

func readLengthPrefixedString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readMatrix decodes a SWF MATRIX record: an optional scale pair, an
// optional rotate/skew pair, then a mandatory translate pair, each as a
// bit-packed signed fixed-point field preceded by its own bit-width.
func readMatrix(r *bytes.Reader) (swfanim.Matrix, error) {
	br := newBitReader(r)
	m := swfanim.Identity

	hasScale, err := br.readBool()
	if err != nil {
		return m, err
	}
	if hasScale {
		nbits, _ := br.readUint(5)
		a, err := br.readFixed(int(nbits))
		if err != nil {
			return m, err
		}
		d, err := br.readFixed(int(nbits))
		if err != nil {
			return m, err
		}
		m.A, m.D = a, d
	}

	hasRotate, err := br.readBool()
	if err != nil {
		return m, err
	}
	if hasRotate {
		nbits, _ := br.readUint(5)
		b, err := br.readFixed(int(nbits))
		if err != nil {
			return m, err
		}
		c, err := br.readFixed(int(nbits))
		if err != nil {
			return m, err
		}
		m.B, m.C = b, c
	}

	nbits, err := br.readUint(5)
	if err != nil {
		return m, err
	}
	tx, err := br.readSigned(int(nbits))
	if err != nil {
		return m, err
	}
	ty, err := br.readSigned(int(nbits))
	if err != nil {
		return m, err
	}
	// Translation is stored in twips; convert to pixels at ingest per §3.
	m.Tx = float32(tx) / 20
	m.Ty = float32(ty) / 20
	return m, nil
}

// readColorTransformWithAlpha decodes a CXFORMWITHALPHA record: a has-add,
// has-mult flag pair, a shared bit width, then up to 8 signed fields
// (r/g/b/a mult, then r/g/b/a add) present only for the flags that were set.
func readColorTransformWithAlpha(r *bytes.Reader) (swfanim.ColorTransform, error) {
	br := newBitReader(r)
	ct := swfanim.IdentityColorTransform

	hasAdd, err := br.readBool()
	if err != nil {
		return ct, err
	}
	hasMult, err := br.readBool()
	if err != nil {
		return ct, err
	}
	nbits, err := br.readUint(4)
	if err != nil {
		return ct, err
	}
	if hasMult {
		for i := 0; i < 4; i++ {
			v, err := br.readSigned(int(nbits))
			if err != nil {
				return ct, err
			}
			ct.Mult[i] = float32(v) / 256
		}
	}
	if hasAdd {
		for i := 0; i < 4; i++ {
			v, err := br.readSigned(int(nbits))
			if err != nil {
				return ct, err
			}
			ct.Add[i] = float32(v) / 255
		}
	}
	return ct, nil
}

// bitReader is distill's own MSB-first bit reader (the swf package's is
// unexported since nothing outside tag framing needs it there).
type bitReader struct {
	br      *bytes.Reader
	current byte
	bits    int
}

func newBitReader(r *bytes.Reader) *bitReader {
	return &bitReader{br: r}
}

func (b *bitReader) readUint(n int) (uint32, error) {
	var v uint32
	for n > 0 {
		if b.bits == 0 {
			c, err := b.br.ReadByte()
			if err != nil {
				return 0, err
			}
			b.current = c
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

// readFixed decodes an n-bit signed 16.16-style fixed-point field used by
// MATRIX's scale/rotate components, scaled to a plain float32.
func (b *bitReader) readFixed(n int) (float32, error) {
	v, err := b.readSigned(n)
	if err != nil {
		return 0, err
	}
	return float32(v) / 65536, nil
}
