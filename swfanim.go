package swfanim

import "encoding/json"

// CharacterId is a 16-bit identifier for any reusable SWF asset (shape,
// sprite, bitmap).
type CharacterId = uint16

// Depth is a 16-bit identifier for a slot in a timeline's display list; at
// any instant, each depth holds at most one display object.
type Depth = uint16

// Rect is an axis-aligned rectangle in pixel space, origin top-left.
type Rect struct {
	X, Y, Width, Height float32
}

// TextEncoding names the SWF string encodings: version >= 6 uses UTF-8,
// earlier versions a legacy codepage. Nothing in this module consults it;
// FrameLabel and SymbolClass strings are taken as raw bytes.
type TextEncoding uint8

const (
	EncodingUTF8 TextEncoding = iota
	EncodingLegacyCodepage
)

// BlendMode selects a compositing operation for a draw instance. The closed
// set of 14 variants mirrors the SWF blend mode enumeration; the host
// renderer is responsible for translating a mode into its own pipeline
// state, the same way willow's BlendMode.EbitenBlend translates into
// Ebitengine blend factors — but here the translation is the host's job,
// since no GPU rendering happens inside this module.
type BlendMode uint8

const (
	BlendNormal     BlendMode = iota // source-over (standard alpha blending); the default
	BlendLayer                       // isolates the subtree into its own compositing layer
	BlendMultiply                    // multiply (source * destination)
	BlendScreen                      // screen (1-(1-src)*(1-dst))
	BlendLighten                     // component-wise max(src, dst)
	BlendDarken                      // component-wise min(src, dst)
	BlendDifference                  // abs(src - dst)
	BlendAdd                         // additive / lighter
	BlendSubtract                    // dst - src, clamped
	BlendInvert                      // inverts the destination wherever source is opaque
	BlendAlpha                       // uses source alpha to punch into destination alpha
	BlendErase                       // destination-out (punch transparent holes)
	BlendOverlay                     // overlay (screen or multiply depending on dst luminance)
	BlendHardLight                   // hard light (screen or multiply depending on src luminance)
)

// String returns the SWF-spec name of the blend mode, matching the package
// JSON encoding.
func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "Normal"
	case BlendLayer:
		return "Layer"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendLighten:
		return "Lighten"
	case BlendDarken:
		return "Darken"
	case BlendDifference:
		return "Difference"
	case BlendAdd:
		return "Add"
	case BlendSubtract:
		return "Subtract"
	case BlendInvert:
		return "Invert"
	case BlendAlpha:
		return "Alpha"
	case BlendErase:
		return "Erase"
	case BlendOverlay:
		return "Overlay"
	case BlendHardLight:
		return "HardLight"
	default:
		return "Normal"
	}
}

// MarshalJSON encodes b as its SWF-spec name rather than its numeric value.
func (b BlendMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes b from its SWF-spec name.
func (b *BlendMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = blendModeFromString(s)
	return nil
}

// blendModeFromString parses the package JSON blend-mode name, falling back
// to BlendNormal for anything unrecognized (a corrupt or future value should
// degrade gracefully rather than abort playback of an otherwise-valid tick).
func blendModeFromString(s string) BlendMode {
	switch s {
	case "Layer":
		return BlendLayer
	case "Multiply":
		return BlendMultiply
	case "Screen":
		return BlendScreen
	case "Lighten":
		return BlendLighten
	case "Darken":
		return BlendDarken
	case "Difference":
		return BlendDifference
	case "Add":
		return BlendAdd
	case "Subtract":
		return BlendSubtract
	case "Invert":
		return BlendInvert
	case "Alpha":
		return BlendAlpha
	case "Erase":
		return BlendErase
	case "Overlay":
		return BlendOverlay
	case "HardLight":
		return BlendHardLight
	default:
		return BlendNormal
	}
}
