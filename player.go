package swfanim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/logcfg"
)

// Sentinel errors for the runtime API, per the §7 error taxonomy. Those a
// method returns go back to the caller rather than being logged-and-
// continued, since they represent a programming mistake the host should see
// immediately. ErrAnimationEventNotFound is declared but no method returns
// it: RegisterFrameEvent accepts any event name without checking it.
var (
	ErrAnimationNotFound      = errors.New("swfanim: animation not found")
	ErrAnimationEventNotFound = errors.New("swfanim: animation event not found")
	ErrSkinPartNotFound       = errors.New("swfanim: skin part not found")
	ErrSkinNotFound           = errors.New("swfanim: skin not found")
)

// missingSkinFrame is raised internally when a skin clip's currently
// selected skin has no corresponding entry for the frame being collected.
// Per §7 this is fatal only to the tick that triggered it: Update recovers
// it, logs it, and returns nil for that tick (instances collected before
// the failure are discarded), but the player itself remains usable on the
// next tick.
type missingSkinFrame struct {
	instancePath string
	skin         string
}

func (e missingSkinFrame) Error() string {
	return fmt.Sprintf("swfanim: clip %s has no frame for skin %q", e.instancePath, e.skin)
}

// RuntimeInstance is one leaf draw command produced by a tick: a shape
// character id plus its fully composed world-space transform, color
// transform, blend mode, and filter stack. The host renderer owns turning
// this into actual pixels; this module never touches a GPU.
type RuntimeInstance struct {
	ID             CharacterId
	Transform      Matrix
	ColorTransform ColorTransform
	Blend          BlendMode
	Filters        []Filter
}

// Player is a single playback cursor over a Package. It is not safe for
// concurrent use: per spec §5 the runtime model is strictly single-
// threaded, one Update call per tick, with no re-entrant Update or
// SetPlayAnimation calls from within a frame-event callback.
type Player struct {
	pkg *Package

	animationName string
	time          float32
	speed         float32
	looping       bool
	playing       bool
	skips         int
	lastDelta     float32

	onCompletion func()

	// skins maps an instance path to an explicitly selected skin name, set
	// via SetSkin. Absent entries fall back to the clip's DefaultSkin.
	skins map[string]string

	// clipCursors maps an instance path to a normal (non-skin) nested
	// clip's own local time cursor, persisted across ticks so a clip that
	// scrolls out of view and back resumes rather than restarting.
	clipCursors map[string]float32

	// resolvedClipChar remembers which character id last resolved to a
	// given instance path, so SetSkin can validate eagerly when the path
	// has already been visited at least once.
	resolvedClipChar map[string]CharacterId

	frameEventListeners map[string][]func()
}

// NewPlayer constructs a Player bound to pkg. Call SetPlayAnimation before
// the first Update; Update on a Player with no animation selected is a
// no-op that returns out unchanged.
func NewPlayer(pkg *Package) *Player {
	return &Player{
		pkg:                 pkg,
		speed:               1.0,
		looping:             true,
		playing:             true,
		skins:               make(map[string]string),
		clipCursors:         make(map[string]float32),
		resolvedClipChar:    make(map[string]CharacterId),
		frameEventListeners: make(map[string][]func()),
	}
}

// SetPlayAnimation switches the root animation, resetting the playback
// cursor to 0. looping and onCompletion apply only to this root animation;
// nested clips always loop regardless (spec §4.7.2).
func (p *Player) SetPlayAnimation(name string, looping bool, onCompletion func()) error {
	if _, ok := p.pkg.Animations[name]; !ok {
		return fmt.Errorf("%w: %q", ErrAnimationNotFound, name)
	}
	p.animationName = name
	p.time = 0
	p.looping = looping
	p.onCompletion = onCompletion
	p.playing = true
	return nil
}

// SetSkin selects which alternative appearance a skin clip at
// instancePath shows. instancePath uses the same "root_{depth}_{id}"
// addressing scheme as RuntimeInstance collection. Returns
// ErrSkinPartNotFound if instancePath has not resolved to a clip
// definition in any tick so far, and ErrSkinNotFound if the clip has no
// frame under that name.
func (p *Player) SetSkin(instancePath, skin string) error {
	charID, ok := p.resolvedClipChar[instancePath]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSkinPartNotFound, instancePath)
	}
	def, ok := p.pkg.Definitions[charID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSkinPartNotFound, instancePath)
	}
	if _, ok := def.SkinFrames[skin]; !ok {
		return fmt.Errorf("%w: %q on %s", ErrSkinNotFound, skin, instancePath)
	}
	p.skins[instancePath] = skin
	return nil
}

// RegisterFrameEvent adds callback to the set invoked whenever a
// FrameLabel-derived event named eventName fires during Update. It is not
// scoped to one animation, and eventName is not checked against any
// animation's events.
func (p *Player) RegisterFrameEvent(eventName string, callback func()) {
	p.frameEventListeners[eventName] = append(p.frameEventListeners[eventName], callback)
}

// ClearFrameEventListeners removes every callback registered for
// eventName.
func (p *Player) ClearFrameEventListeners(eventName string) {
	delete(p.frameEventListeners, eventName)
}

// ClearAllFrameEventListeners removes every registered frame-event
// callback for every event name.
func (p *Player) ClearAllFrameEventListeners() {
	p.frameEventListeners = make(map[string][]func())
}

func (p *Player) SetSpeed(speed float32)        { p.speed = speed }
func (p *Player) Speed() float32                { return p.speed }
func (p *Player) SetLooping(looping bool)       { p.looping = looping }
func (p *Player) Looping() bool                 { return p.looping }
func (p *Player) SetPlaying(playing bool)       { p.playing = playing }
func (p *Player) IsPlaying() bool               { return p.playing }
func (p *Player) CurrentAnimationName() string  { return p.animationName }
func (p *Player) GetSkips() int                 { return p.skips }

// CurrentSkins returns a copy of the instance-path-to-skin-name selections
// made via SetSkin.
func (p *Player) CurrentSkins() map[string]string {
	out := make(map[string]string, len(p.skins))
	for k, v := range p.skins {
		out[k] = v
	}
	return out
}

// AnimationNames returns the package's root animation names in their
// original declaration order.
func (p *Player) AnimationNames() []string {
	out := make([]string, len(p.pkg.AnimationOrder))
	copy(out, p.pkg.AnimationOrder)
	return out
}

// frameEpsilon truncates float comparisons to microsecond precision so
// edge-triggered frame events tolerate the drift that accumulates from
// repeated float32 addition across many ticks. Per spec §4.7.1.
const frameEpsilon = 1e6

func truncateMicros(t float32) float32 {
	return float32(int64(t*frameEpsilon)) / frameEpsilon
}

// Update advances playback by deltaSeconds and appends this tick's leaf
// draw instances to out, returning the extended slice. Callers typically
// pass a reused slice sliced to zero length, e.g. out[:0].
//
// Implements the per-tick algorithm of spec §4.7.1/§4.7.2: advance the
// time cursor, wrap or clamp at the animation boundary, fire any frame
// events the advance crossed, recursively collect draw instances across
// every depth and nested clip, and finally invoke any deferred completion
// callback. Grounded on original_source/runtime/src/core.rs's
// AnimationPlayer::update / collect_current_time_active_shape.
func (p *Player) Update(out []RuntimeInstance, deltaSeconds float32) []RuntimeInstance {
	anim, ok := p.pkg.Animations[p.animationName]
	if !ok {
		return out
	}

	prevTime := p.time
	var completed bool
	p.lastDelta = 0
	if p.playing {
		p.lastDelta = deltaSeconds * p.speed
		p.time += p.lastDelta
	}

	duration := anim.Duration
	if duration <= 0 {
		p.time = 0
	} else if p.time >= duration {
		if p.looping {
			wraps := 0
			for p.time >= duration {
				p.time -= duration
				wraps++
			}
			if wraps > 1 {
				p.skips += wraps - 1
			}
		} else {
			p.time = duration
			p.playing = false
			completed = true
		}
	}
	curTime := p.time

	p.fireFrameEvents(anim, prevTime, curTime, duration)

	defer func() {
		if r := recover(); r != nil {
			if sig, ok := r.(missingSkinFrame); ok {
				logcfg.Logger.Errorf("%s", sig.Error())
				return
			}
			panic(r)
		}
	}()
	out = p.collect(out, "root", anim.Timeline, curTime, Identity, IdentityColorTransform, BlendNormal, nil)

	if completed && p.onCompletion != nil {
		cb := p.onCompletion
		p.onCompletion = nil
		cb()
	}

	return out
}

// fireFrameEvents invokes every listener whose event time falls in
// [prevTime, curTime), handling the wraparound case where curTime < prevTime
// because playback looped during this tick.
func (p *Player) fireFrameEvents(anim *Animation, prevTime, curTime, duration float32) {
	prevT := truncateMicros(prevTime)
	curT := truncateMicros(curTime)

	inWindow := func(t float32) bool {
		if curT >= prevT {
			return t >= prevT && t < curT
		}
		// Looped this tick: the crossed interval is [prevT, duration) union
		// [0, curT).
		return t >= prevT || t < curT
	}

	for _, evt := range anim.Events {
		if inWindow(truncateMicros(evt.Time)) {
			for _, cb := range p.frameEventListeners[evt.Name] {
				cb()
			}
		}
	}
}

// sortedDepths returns timeline's keys in ascending order, so siblings at
// the same nesting level are always visited parent-depth-ascending —
// needed both for correct paint order and so the "blank sentinel at
// depth D" seen in a later lane doesn't race a placement seen earlier in
// the same tick.
func sortedDepths(timeline map[Depth]*Placement) []Depth {
	depths := make([]Depth, 0, len(timeline))
	for d := range timeline {
		depths = append(depths, d)
	}
	sort.Slice(depths, func(i, j int) bool { return depths[i] < depths[j] })
	return depths
}

// collect recursively walks timeline at local time t, composing inherited
// transform/color-transform/blend/filters down into each placed child and
// emitting a RuntimeInstance for every leaf shape it reaches. prefix is the
// parent's instance path; each depth appends "_{depth}_{resourceID}" to
// form its own.
func (p *Player) collect(
	out []RuntimeInstance,
	prefix string,
	timeline map[Depth]*Placement,
	t float32,
	parentTransform Matrix,
	parentColor ColorTransform,
	parentBlend BlendMode,
	parentFilters []Filter,
) []RuntimeInstance {
	for _, depth := range sortedDepths(timeline) {
		placement := timeline[depth]

		res, present := lookupResource(placement.Resources, t)
		if !present || res.ResourceID == 0 {
			continue
		}

		localTransform, _ := lookupTransform(placement.Transforms, t, placement.Interpolate)
		worldTransform := parentTransform.Compose(localTransform)

		localColor := lookupColorTransform(placement.ColorTransforms, t, placement.Interpolate)
		worldColor := parentColor.Compose(localColor)

		blend := parentBlend
		if b, ok := lookupBlend(placement.Blends, t); ok {
			blend = b
		}

		filters := parentFilters
		if f, ok := lookupFilters(placement.Filters, t); ok {
			filters = f
		}

		instancePath := fmt.Sprintf("%s_%d_%d", prefix, depth, res.ResourceID)

		def, isClip := p.pkg.Definitions[res.ResourceID]
		if !isClip {
			out = append(out, RuntimeInstance{
				ID:             res.ResourceID,
				Transform:      worldTransform,
				ColorTransform: worldColor,
				Blend:          blend,
				Filters:        filters,
			})
			continue
		}

		p.resolvedClipChar[instancePath] = res.ResourceID
		childTime := p.resolveClipTime(instancePath, def)
		out = p.collect(out, instancePath, def.Timeline, childTime, worldTransform, worldColor, blend, filters)
	}
	return out
}

// resolveClipTime returns the local playback time to use for the nested
// clip def at instancePath. Skin clips freeze time at the selected
// skin's frame (selected_frame/frame_rate); normal clips progress on
// their own persistent cursor and always loop, regardless of whether the
// root animation is looping (spec §4.7.2).
func (p *Player) resolveClipTime(instancePath string, def *ClipDef) float32 {
	if def.IsSkinClip() {
		skin := def.DefaultSkin
		if s, ok := p.skins[instancePath]; ok {
			skin = s
		}
		frame, ok := def.SkinFrames[skin]
		if !ok {
			panic(missingSkinFrame{instancePath: instancePath, skin: skin})
		}
		return float32(frame) / p.pkg.Meta.FrameRate
	}

	cursor := p.clipCursors[instancePath] + p.lastDelta
	if def.Duration > 0 {
		for cursor >= def.Duration {
			cursor -= def.Duration
		}
		for cursor < 0 {
			cursor += def.Duration
		}
	} else {
		cursor = 0
	}
	p.clipCursors[instancePath] = cursor
	return cursor
}
