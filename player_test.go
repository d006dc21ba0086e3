package swfanim

import (
	"errors"
	"testing"
)

func simplePackage() *Package {
	return &Package{
		Meta: Meta{FrameRate: 12, Frames: 24},
		Definitions: map[CharacterId]*ClipDef{},
		Animations: map[string]*Animation{
			"Default": {
				Name:     "Default",
				Duration: 2,
				Timeline: map[Depth]*Placement{
					1: {
						Depth:      1,
						Resources:  []Resource{{Time: 0, ResourceID: 42}},
						Transforms: []TransformKey{{Time: 0, Matrix: Identity}},
					},
				},
				Events: []Event{{Time: 1, Name: "hit"}},
			},
		},
		AnimationOrder: []string{"Default"},
		ShapeOffsets:   map[CharacterId]Offset{},
	}
}

func TestPlayerSetPlayAnimationUnknownName(t *testing.T) {
	p := NewPlayer(simplePackage())
	err := p.SetPlayAnimation("missing", true, nil)
	if !errors.Is(err, ErrAnimationNotFound) {
		t.Fatalf("got %v, want ErrAnimationNotFound", err)
	}
}

func TestPlayerUpdateEmitsLeafInstance(t *testing.T) {
	p := NewPlayer(simplePackage())
	if err := p.SetPlayAnimation("Default", true, nil); err != nil {
		t.Fatalf("SetPlayAnimation: %v", err)
	}
	out := p.Update(nil, 1.0/12)
	if len(out) != 1 {
		t.Fatalf("got %d instances, want 1", len(out))
	}
	if out[0].ID != 42 {
		t.Fatalf("got id %d, want 42", out[0].ID)
	}
}

func TestPlayerUpdateFiresFrameEvent(t *testing.T) {
	p := NewPlayer(simplePackage())
	if err := p.SetPlayAnimation("Default", true, nil); err != nil {
		t.Fatalf("SetPlayAnimation: %v", err)
	}
	fired := false
	p.RegisterFrameEvent("hit", func() { fired = true })

	// Advance from t=0 straight past t=1, where "hit" is registered.
	p.Update(nil, 1.5)
	if !fired {
		t.Fatal("expected frame event to fire when crossing its time")
	}
}

func TestPlayerUpdateNonLoopingCallsOnCompletion(t *testing.T) {
	p := NewPlayer(simplePackage())
	called := false
	if err := p.SetPlayAnimation("Default", false, func() { called = true }); err != nil {
		t.Fatalf("SetPlayAnimation: %v", err)
	}
	p.Update(nil, 5) // far past the 2-second duration, non-looping
	if !called {
		t.Fatal("expected onCompletion to fire once duration is exceeded without looping")
	}
	if p.IsPlaying() {
		t.Fatal("expected playback to stop once a non-looping animation completes")
	}
}

func TestPlayerSetSkinUnknownPath(t *testing.T) {
	p := NewPlayer(simplePackage())
	err := p.SetSkin("root_1_42", "idle")
	if !errors.Is(err, ErrSkinPartNotFound) {
		t.Fatalf("got %v, want ErrSkinPartNotFound for an unvisited instance path", err)
	}
}

func TestPlayerSkinClipFreezesAtSelectedFrame(t *testing.T) {
	pkg := simplePackage()
	pkg.Definitions[50] = &ClipDef{
		Duration: 1,
		Timeline: map[Depth]*Placement{
			1: {
				Depth: 1,
				Resources: []Resource{
					{Time: 0, ResourceID: 201},
					{Time: 0.5, ResourceID: 202},
				},
				Transforms: []TransformKey{{Time: 0, Matrix: Identity}},
			},
		},
		SkinFrames:  map[string]int{"idle": 0, "run": 6},
		DefaultSkin: "idle",
	}
	pkg.Animations["Default"].Timeline[2] = &Placement{
		Depth:      2,
		Resources:  []Resource{{Time: 0, ResourceID: 50}},
		Transforms: []TransformKey{{Time: 0, Matrix: Identity}},
	}

	p := NewPlayer(pkg)
	if err := p.SetPlayAnimation("Default", true, nil); err != nil {
		t.Fatalf("SetPlayAnimation: %v", err)
	}

	// First tick resolves the instance path and leaves the default skin
	// ("idle", frame 0) selected, well before the clip's own cursor would
	// ever reach 0.5s on its own.
	out := p.Update(nil, 0.1)
	if !containsID(out, 201) {
		t.Fatalf("expected default skin frame's resource 201, got %+v", out)
	}

	if err := p.SetSkin("root_2_50", "run"); err != nil {
		t.Fatalf("SetSkin: %v", err)
	}
	// A skin clip's time is frozen at selected_frame/frame_rate regardless
	// of how far playback has advanced, so this still resolves to the
	// "run" skin's frame (6/12s = 0.5s) rather than progressing further.
	out = p.Update(nil, 100)
	if !containsID(out, 202) {
		t.Fatalf("expected run skin frame's resource 202, got %+v", out)
	}
}

func TestPlayerSetSkinUnknownSkinName(t *testing.T) {
	pkg := simplePackage()
	pkg.Definitions[50] = &ClipDef{
		Duration: 1,
		Timeline: map[Depth]*Placement{
			1: {
				Depth:      1,
				Resources:  []Resource{{Time: 0, ResourceID: 201}},
				Transforms: []TransformKey{{Time: 0, Matrix: Identity}},
			},
		},
		SkinFrames:  map[string]int{"idle": 0},
		DefaultSkin: "idle",
	}
	pkg.Animations["Default"].Timeline[2] = &Placement{
		Depth:      2,
		Resources:  []Resource{{Time: 0, ResourceID: 50}},
		Transforms: []TransformKey{{Time: 0, Matrix: Identity}},
	}

	p := NewPlayer(pkg)
	if err := p.SetPlayAnimation("Default", true, nil); err != nil {
		t.Fatalf("SetPlayAnimation: %v", err)
	}
	p.Update(nil, 0.1) // resolve the instance path so SetSkin can validate it

	if err := p.SetSkin("root_2_50", "walk"); !errors.Is(err, ErrSkinNotFound) {
		t.Fatalf("got %v, want ErrSkinNotFound for an unlisted skin name", err)
	}
}

func containsID(instances []RuntimeInstance, id CharacterId) bool {
	for _, inst := range instances {
		if inst.ID == id {
			return true
		}
	}
	return false
}

func TestPlayerUpdateRecursesIntoNestedClip(t *testing.T) {
	pkg := simplePackage()
	pkg.Definitions[42] = &ClipDef{
		Duration: 1,
		Timeline: map[Depth]*Placement{
			1: {
				Depth:      1,
				Resources:  []Resource{{Time: 0, ResourceID: 99}},
				Transforms: []TransformKey{{Time: 0, Matrix: Identity}},
			},
		},
	}
	p := NewPlayer(pkg)
	if err := p.SetPlayAnimation("Default", true, nil); err != nil {
		t.Fatalf("SetPlayAnimation: %v", err)
	}
	out := p.Update(nil, 0.1)
	if len(out) != 1 || out[0].ID != 99 {
		t.Fatalf("expected nested clip's leaf shape 99, got %+v", out)
	}
}
