package swfanim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Meta carries the source movie's frame rate, frame count, and the
// converter version that produced the package, for diagnostics and for
// runtime dt-independent pacing.
type Meta struct {
	FrameRate float32 `json:"frame_rate"`
	Frames    uint16  `json:"frames"`
	Version   string  `json:"version"`
}

// Offset is a shape's draw-time origin offset in pixels, the midpoint
// convention documented in spec §4.4: a rasterized shape's PNG is addressed
// by its center, and Offset records where that center sits relative to the
// shape's own local origin.
type Offset struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Package is the full, self-contained output of the converter: every shape
// and movie-clip definition reachable from the source movie, every named
// root animation, and the per-shape draw offsets needed to place a
// rasterized PNG back at its original local origin. A Package is immutable
// once loaded; Player never mutates it.
type Package struct {
	Meta Meta

	// Definitions holds every nested movie-clip reachable from the root,
	// keyed by character id. Shapes are not definitions: they are leaves
	// referenced directly by a Resource and rendered from ShapeOffsets plus
	// the converter's PNG output, never recursed into.
	Definitions map[CharacterId]*ClipDef

	// Animations holds every root-level named timeline. AnimationOrder
	// preserves the order animations were declared in the source movie
	// (first-seen FrameLabel order), since Go maps are unordered and
	// AnimationNames() must return a stable, meaningful sequence.
	Animations     map[string]*Animation
	AnimationOrder []string

	ShapeOffsets map[CharacterId]Offset
}

// clipDefWire is the {"MovieClip": {...}} tagged-union wrapper spec §6.3
// requires for every definitions entry — a deliberately single-variant
// union today, kept as a wrapper rather than a bare object so a future
// definition kind (e.g. a precomposed sprite sheet) can be added without
// breaking the schema.
type clipDefWire struct {
	MovieClip *ClipDef `json:"MovieClip"`
}

// MarshalJSON writes p in the exact layout spec §6.3 describes.
func (p *Package) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"meta":`)
	metaJSON, err := json.Marshal(p.Meta)
	if err != nil {
		return nil, fmt.Errorf("swfanim: marshal meta: %w", err)
	}
	buf.Write(metaJSON)

	buf.WriteString(`,"definitions":`)
	if err := marshalOrderedUint16Map(&buf, p.Definitions, func(c *ClipDef) (json.RawMessage, error) {
		return json.Marshal(clipDefWire{MovieClip: c})
	}); err != nil {
		return nil, err
	}

	buf.WriteString(`,"animations":{`)
	for i, name := range p.AnimationOrder {
		anim, ok := p.Animations[name]
		if !ok {
			continue
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		animJSON, err := json.Marshal(anim)
		if err != nil {
			return nil, fmt.Errorf("swfanim: marshal animation %q: %w", name, err)
		}
		buf.Write(animJSON)
	}
	buf.WriteByte('}')

	buf.WriteString(`,"shape_offset":`)
	if err := marshalOrderedUint16Map(&buf, p.ShapeOffsets, func(o Offset) (json.RawMessage, error) {
		return json.Marshal(o)
	}); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalOrderedUint16Map writes m as a JSON object with keys in ascending
// numeric order, regardless of m's underlying map iteration order.
// encoding/json's own map encoder sorts keys as strings, which would place
// character id 10 before 2; spec §6.3 requires numeric order, so this
// corner of the package is hand-rolled against the standard library rather
// than any third-party JSON library (see DESIGN.md).
func marshalOrderedUint16Map[V any](buf *bytes.Buffer, m map[CharacterId]V, encode func(V) (json.RawMessage, error)) error {
	ids := make([]CharacterId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	buf.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.FormatUint(uint64(id), 10))
		buf.WriteString(`":`)
		v, err := encode(m[id])
		if err != nil {
			return fmt.Errorf("swfanim: marshal entry %d: %w", id, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON restores p, tolerating any map iteration order in the
// source document: definitions and shape_offset load into plain Go maps
// (order no longer matters once loaded), and animations load via an
// order-preserving object walk so AnimationOrder still reflects the file's
// declaration order.
func (p *Package) UnmarshalJSON(data []byte) error {
	var raw struct {
		Meta        Meta                   `json:"meta"`
		Definitions map[string]clipDefWire `json:"definitions"`
		Animations  json.RawMessage        `json:"animations"`
		ShapeOffset map[string]Offset      `json:"shape_offset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("swfanim: unmarshal package: %w", err)
	}

	p.Meta = raw.Meta

	p.Definitions = make(map[CharacterId]*ClipDef, len(raw.Definitions))
	for key, wire := range raw.Definitions {
		id, err := parseCharacterID(key)
		if err != nil {
			return fmt.Errorf("swfanim: definitions: %w", err)
		}
		if wire.MovieClip == nil {
			return fmt.Errorf("swfanim: definitions[%s]: missing MovieClip variant", key)
		}
		wire.MovieClip.ID = id
		p.Definitions[id] = wire.MovieClip
	}

	p.ShapeOffsets = make(map[CharacterId]Offset, len(raw.ShapeOffset))
	for key, off := range raw.ShapeOffset {
		id, err := parseCharacterID(key)
		if err != nil {
			return fmt.Errorf("swfanim: shape_offset: %w", err)
		}
		p.ShapeOffsets[id] = off
	}

	names, rawAnims, err := decodeOrderedObject(raw.Animations)
	if err != nil {
		return fmt.Errorf("swfanim: animations: %w", err)
	}
	p.Animations = make(map[string]*Animation, len(names))
	p.AnimationOrder = names
	for i, name := range names {
		var anim Animation
		if err := json.Unmarshal(rawAnims[i], &anim); err != nil {
			return fmt.Errorf("swfanim: animation %q: %w", name, err)
		}
		anim.Name = name
		p.Animations[name] = &anim
	}

	return nil
}

func parseCharacterID(key string) (CharacterId, error) {
	n, err := strconv.ParseUint(key, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid character id %q: %w", key, err)
	}
	return CharacterId(n), nil
}

// decodeOrderedObject walks a raw JSON object token-by-token to recover its
// key declaration order, which encoding/json's map-based decoding discards.
func decodeOrderedObject(data json.RawMessage) ([]string, []json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object")
	}

	var keys []string
	var values []json.RawMessage
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected string object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, raw)
	}
	return keys, values, nil
}

// LoadPackage reads and parses a converter-produced package JSON file.
func LoadPackage(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("swfanim: load package: %w", err)
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("swfanim: load package %s: %w", path, err)
	}
	return &pkg, nil
}

// Save writes p to path as formatted JSON, overwriting any existing file.
func (p *Package) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("swfanim: save package: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("swfanim: save package %s: %w", path, err)
	}
	return nil
}
