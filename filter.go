package swfanim

import (
	"encoding/json"
	"fmt"
	"math"
)

// FilterKind selects which variant of Filter is populated. Filter is a
// tagged union rather than an interface (unlike willow's Filter interface
// with Apply/Padding, see filter.go) because this module never renders a
// filter itself — the GPU application is the host renderer's job; only the
// declarative parameters and the bounds-expansion math travel with a
// RuntimeInstance.
type FilterKind uint8

const (
	FilterDropShadow FilterKind = iota
	FilterBlur
	FilterGlow
	FilterBevel
	FilterGradientGlow
	FilterConvolution
	FilterColorMatrix
	FilterGradientBevel
)

// GradientRecord is one stop of a gradient-family filter's color ramp.
type GradientRecord struct {
	Ratio uint8
	Color [4]uint8
}

// Filter is a tagged variant over the 8 SWF filter kinds. Only the fields
// relevant to Kind are populated; the rest are zero. Grounded field-for-
// field on original_source/convert/src/animation/filter.rs's Rust structs
// (DropShadowFilter, BlurFilter, GlowFilter, BevelFilter, GradientFilter,
// ConvolutionFilter, ColorMatrixFilter).
type Filter struct {
	Kind FilterKind

	// DropShadow, Glow, Bevel, GradientGlow, GradientBevel
	Color          [4]uint8
	ShadowColor    [4]uint8
	HighlightColor [4]uint8
	Colors         []GradientRecord

	// Shared blur-style params (DropShadow, Blur, Glow, Bevel, Gradient*).
	BlurX, BlurY float32
	Angle        float32
	Distance     float32
	Strength     float32
	Flags        uint8

	// Convolution
	NumMatrixRows, NumMatrixColumns uint8
	ConvMatrix                      []float32
	Divisor, Bias                   float32
	DefaultColor                    [4]uint8

	// ColorMatrix
	Matrix [20]float32
}

// identityColorMatrix is the 4x5 identity used by color-matrix filters.
var identityColorMatrix = [20]float32{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// IsImpotent reports whether this filter has no visible effect and may be
// skipped by the host renderer — per spec §4.8, a color-matrix filter equal
// to the 4x5 identity.
func (f Filter) IsImpotent() bool {
	return f.Kind == FilterColorMatrix && f.Matrix == identityColorMatrix
}

// ExpandBounds returns how much this filter grows a shape's destination
// bounds on each side, in pixels, following §4.8: a drop-shadow expands by
// its blur radius plus offset distance; a convolution filter only expands
// when its kernel overhangs the source pixel; a color-matrix filter never
// expands bounds. Modeled on willow's filterChainPadding (filter.go),
// generalized from a single scalar pad to independent per-axis growth since
// SWF filters are not necessarily symmetric (distance + angle skews the
// drop-shadow offset).
func (f Filter) ExpandBounds() (left, top, right, bottom float32) {
	switch f.Kind {
	case FilterDropShadow:
		dx := f.Distance * float32(math.Cos(float64(f.Angle)))
		dy := f.Distance * float32(math.Sin(float64(f.Angle)))
		bx, by := f.BlurX, f.BlurY
		left, right = expandAxis(bx, dx)
		top, bottom = expandAxis(by, dy)
		return
	case FilterBlur, FilterGlow, FilterBevel, FilterGradientGlow, FilterGradientBevel:
		return f.BlurX, f.BlurY, f.BlurX, f.BlurY
	case FilterConvolution:
		// Kernel overhangs the source by floor(dimension/2) on each side.
		rowPad := float32(f.NumMatrixRows / 2)
		colPad := float32(f.NumMatrixColumns / 2)
		return colPad, rowPad, colPad, rowPad
	case FilterColorMatrix:
		return 0, 0, 0, 0
	default:
		return 0, 0, 0, 0
	}
}

// expandAxis splits a symmetric blur radius plus a signed directional
// offset into independent negative/positive side growth.
func expandAxis(blur, offset float32) (neg, pos float32) {
	neg = blur
	pos = blur
	if offset < 0 {
		neg -= offset
	} else {
		pos += offset
	}
	return
}

// String returns the package JSON "kind" discriminator for k.
func (k FilterKind) String() string {
	switch k {
	case FilterDropShadow:
		return "DropShadow"
	case FilterBlur:
		return "Blur"
	case FilterGlow:
		return "Glow"
	case FilterBevel:
		return "Bevel"
	case FilterGradientGlow:
		return "GradientGlow"
	case FilterConvolution:
		return "Convolution"
	case FilterColorMatrix:
		return "ColorMatrix"
	case FilterGradientBevel:
		return "GradientBevel"
	default:
		return "Unknown"
	}
}

func (k FilterKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *FilterKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := filterKindFromString(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func filterKindFromString(s string) (FilterKind, error) {
	switch s {
	case "DropShadow":
		return FilterDropShadow, nil
	case "Blur":
		return FilterBlur, nil
	case "Glow":
		return FilterGlow, nil
	case "Bevel":
		return FilterBevel, nil
	case "GradientGlow":
		return FilterGradientGlow, nil
	case "Convolution":
		return FilterConvolution, nil
	case "ColorMatrix":
		return FilterColorMatrix, nil
	case "GradientBevel":
		return FilterGradientBevel, nil
	default:
		return 0, fmt.Errorf("swfanim: unknown filter kind %q", s)
	}
}

// filterWire is the tagged-union JSON shape of Filter: a "kind"
// discriminator plus whichever fields that kind populates. Kept separate
// from Filter itself so the in-memory type stays a plain flat struct for
// the math in ExpandBounds/IsImpotent.
type filterWire struct {
	Kind FilterKind `json:"kind"`

	Color          *[4]uint8        `json:"color,omitempty"`
	ShadowColor    *[4]uint8        `json:"shadow_color,omitempty"`
	HighlightColor *[4]uint8        `json:"highlight_color,omitempty"`
	Colors         []GradientRecord `json:"colors,omitempty"`

	BlurX    float32 `json:"blur_x,omitempty"`
	BlurY    float32 `json:"blur_y,omitempty"`
	Angle    float32 `json:"angle,omitempty"`
	Distance float32 `json:"distance,omitempty"`
	Strength float32 `json:"strength,omitempty"`
	Flags    uint8   `json:"flags,omitempty"`

	NumMatrixRows    uint8     `json:"num_matrix_rows,omitempty"`
	NumMatrixColumns uint8     `json:"num_matrix_columns,omitempty"`
	ConvMatrix       []float32 `json:"matrix,omitempty"`
	Divisor          float32   `json:"divisor,omitempty"`
	Bias             float32   `json:"bias,omitempty"`
	DefaultColor     *[4]uint8 `json:"default_color,omitempty"`

	ColorMatrix *[20]float32 `json:"color_matrix,omitempty"`
}

func (f Filter) MarshalJSON() ([]byte, error) {
	w := filterWire{
		Kind:     f.Kind,
		Colors:   f.Colors,
		BlurX:    f.BlurX,
		BlurY:    f.BlurY,
		Angle:    f.Angle,
		Distance: f.Distance,
		Strength: f.Strength,
		Flags:    f.Flags,
	}
	switch f.Kind {
	case FilterDropShadow:
		w.Color = &f.Color
	case FilterGlow:
		w.Color = &f.Color
	case FilterBevel:
		w.ShadowColor = &f.ShadowColor
		w.HighlightColor = &f.HighlightColor
	case FilterGradientGlow, FilterGradientBevel:
		// Colors already assigned above.
	case FilterConvolution:
		w.NumMatrixRows = f.NumMatrixRows
		w.NumMatrixColumns = f.NumMatrixColumns
		w.ConvMatrix = f.ConvMatrix
		w.Divisor = f.Divisor
		w.Bias = f.Bias
		w.DefaultColor = &f.DefaultColor
	case FilterColorMatrix:
		w.ColorMatrix = &f.Matrix
	}
	return json.Marshal(w)
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	var w filterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = Filter{
		Kind:             w.Kind,
		Colors:           w.Colors,
		BlurX:            w.BlurX,
		BlurY:            w.BlurY,
		Angle:            w.Angle,
		Distance:         w.Distance,
		Strength:         w.Strength,
		Flags:            w.Flags,
		NumMatrixRows:    w.NumMatrixRows,
		NumMatrixColumns: w.NumMatrixColumns,
		ConvMatrix:       w.ConvMatrix,
		Divisor:          w.Divisor,
		Bias:             w.Bias,
	}
	if w.Color != nil {
		f.Color = *w.Color
	}
	if w.ShadowColor != nil {
		f.ShadowColor = *w.ShadowColor
	}
	if w.HighlightColor != nil {
		f.HighlightColor = *w.HighlightColor
	}
	if w.DefaultColor != nil {
		f.DefaultColor = *w.DefaultColor
	}
	if w.ColorMatrix != nil {
		f.Matrix = *w.ColorMatrix
	}
	return nil
}
