package swfanim

import "sort"

// Resource is one entry of a depth's resources lane: the character placed at
// Time, or 0 to mean "blanked/removed".
type Resource struct {
	Time       float32     `json:"time"`
	ResourceID CharacterId `json:"resource_id"`
}

// TransformKey is one entry of a depth's transforms lane.
type TransformKey struct {
	Time   float32 `json:"time"`
	Matrix Matrix  `json:"matrix"`
}

// ColorTransformKey is one entry of a depth's color_transforms lane.
type ColorTransformKey struct {
	Time           float32        `json:"time"`
	ColorTransform ColorTransform `json:"color_transform"`
}

// BlendKey is one entry of a depth's blends lane.
type BlendKey struct {
	Time float32   `json:"time"`
	Mode BlendMode `json:"mode"`
}

// FiltersKey is one entry of a depth's filters lane.
type FiltersKey struct {
	Time    float32  `json:"time"`
	Filters []Filter `json:"filters"`
}

// Placement is the per-depth union of the five independent keyframe lanes
// plus the depth itself. Per spec §3, resource and transform lanes are
// never empty for an occupied depth; color/blend/filter lanes may be empty
// (treated as identity).
type Placement struct {
	Depth           Depth               `json:"-"`
	Resources       []Resource          `json:"resources,omitempty"`
	Transforms      []TransformKey      `json:"transforms,omitempty"`
	ColorTransforms []ColorTransformKey `json:"color_transforms,omitempty"`
	Blends          []BlendKey          `json:"blends,omitempty"`
	Filters         []FiltersKey        `json:"filters,omitempty"`

	// Interpolate opts this depth's transform and color-transform lanes into
	// the lerp branch of the §4.7.3 binary-search contract instead of the
	// default hold-previous behavior. See SPEC_FULL.md §4 resolution 1.
	Interpolate bool `json:"interpolate,omitempty"`
}

// Event is a named marker fired when playback crosses Time.
type Event struct {
	Time float32 `json:"time"`
	Name string  `json:"name"`
}

// Animation is a root-level named timeline. The package carries at least
// one, named "Default".
type Animation struct {
	Name     string               `json:"-"`
	Duration float32              `json:"duration_seconds"`
	Timeline map[Depth]*Placement `json:"timeline"`
	Events   []Event              `json:"events,omitempty"`
}

// ClipDef is a nested movie-clip's definition: a timeline identical in
// shape to Animation's, plus optional skin metadata. A clip with at least
// one skin_frames entry is a "skin clip" (see Player's time-selection
// rule); otherwise it animates on its own time cursor like the root.
type ClipDef struct {
	ID          CharacterId          `json:"-"`
	Duration    float32              `json:"duration_seconds"`
	Timeline    map[Depth]*Placement `json:"timeline"`
	SkinFrames  map[string]int       `json:"skin_frames,omitempty"`
	DefaultSkin string               `json:"default_skin,omitempty"`
	Name        string               `json:"name,omitempty"`
}

// IsSkinClip reports whether c has at least one skin label.
func (c *ClipDef) IsSkinClip() bool {
	return len(c.SkinFrames) > 0
}

// laneLookup is the result of the §4.7.3 binary-search contract over a
// sorted, strictly-non-decreasing lane of keyframe times. Index is -1 when
// t precedes the first keyframe (the depth is not yet placed at time t).
// InterpIndex is -1 unless t falls strictly between Index and the next
// keyframe, in which case the caller may lerp between the two.
type laneLookup struct {
	Index       int
	InterpIndex int
}

// findKeyFrame implements the four-case lane contract of spec §4.7.3:
//   - exact match: Index == i, InterpIndex == -1
//   - t before times[0]: Index == -1, InterpIndex == -1
//   - t >= times[last]: Index == last, InterpIndex == -1 (hold last)
//   - times[i-1] < t < times[i]: Index == i-1, InterpIndex == i
//
// Grounded on original_source/runtime/src/core.rs's find_key_frame.
func findKeyFrame(times []float32, t float32) laneLookup {
	n := len(times)
	if n == 0 || t < times[0] {
		return laneLookup{Index: -1, InterpIndex: -1}
	}
	if t >= times[n-1] {
		return laneLookup{Index: n - 1, InterpIndex: -1}
	}
	// sort.Search finds the smallest i such that times[i] > t (since times
	// may contain duplicates when successive PlaceObjects share a timestamp,
	// take the first strictly-greater entry as "next").
	i := sort.Search(n, func(i int) bool { return times[i] > t })
	if times[i-1] == t {
		return laneLookup{Index: i - 1, InterpIndex: -1}
	}
	return laneLookup{Index: i - 1, InterpIndex: i}
}

func lookupResource(lane []Resource, t float32) (Resource, bool) {
	times := make([]float32, len(lane))
	for i, r := range lane {
		times[i] = r.Time
	}
	res := findKeyFrame(times, t)
	if res.Index < 0 {
		return Resource{}, false
	}
	return lane[res.Index], true
}

func lookupTransform(lane []TransformKey, t float32, interpolate bool) (Matrix, bool) {
	times := make([]float32, len(lane))
	for i, k := range lane {
		times[i] = k.Time
	}
	res := findKeyFrame(times, t)
	if res.Index < 0 {
		return Identity, false
	}
	if interpolate && res.InterpIndex >= 0 {
		return lerpMatrix(lane[res.Index].Matrix, lane[res.InterpIndex].Matrix,
			lerpFactor(lane[res.Index].Time, lane[res.InterpIndex].Time, t)), true
	}
	return lane[res.Index].Matrix, true
}

func lookupColorTransform(lane []ColorTransformKey, t float32, interpolate bool) ColorTransform {
	if len(lane) == 0 {
		return IdentityColorTransform
	}
	times := make([]float32, len(lane))
	for i, k := range lane {
		times[i] = k.Time
	}
	res := findKeyFrame(times, t)
	if res.Index < 0 {
		return IdentityColorTransform
	}
	if interpolate && res.InterpIndex >= 0 {
		return lerpColorTransform(lane[res.Index].ColorTransform, lane[res.InterpIndex].ColorTransform,
			lerpFactor(lane[res.Index].Time, lane[res.InterpIndex].Time, t))
	}
	return lane[res.Index].ColorTransform
}

func lookupBlend(lane []BlendKey, t float32) (BlendMode, bool) {
	times := make([]float32, len(lane))
	for i, k := range lane {
		times[i] = k.Time
	}
	res := findKeyFrame(times, t)
	if res.Index < 0 {
		return BlendNormal, false
	}
	return lane[res.Index].Mode, true
}

func lookupFilters(lane []FiltersKey, t float32) ([]Filter, bool) {
	times := make([]float32, len(lane))
	for i, k := range lane {
		times[i] = k.Time
	}
	res := findKeyFrame(times, t)
	if res.Index < 0 {
		return nil, false
	}
	return lane[res.Index].Filters, true
}

func lerpFactor(t0, t1, t float32) float32 {
	if t1 == t0 {
		return 0
	}
	return (t - t0) / (t1 - t0)
}
