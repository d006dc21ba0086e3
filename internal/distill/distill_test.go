package distill

import (
	"encoding/binary"
	"testing"

	"github.com/aojiaoxiaolinlin/swf-animation-sub000/internal/swf"
)

func placeObject2CharacterAndMatrix(depth, characterID uint16) []byte {
	// flags: hasCharacter (0x02) | hasMatrix (0x04); the matrix itself is
	// the identity (every MATRIX field absent), encoded as a single
	// mostly-zero byte per readMatrix's bit layout.
	data := make([]byte, 6)
	data[0] = 0x06
	binary.LittleEndian.PutUint16(data[1:3], depth)
	binary.LittleEndian.PutUint16(data[3:5], characterID)
	data[5] = 0x00
	return data
}

func removeObject2(depth uint16) []byte {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, depth)
	return data
}

func frameLabel(name string) []byte {
	return append([]byte(name), 0)
}

func symbolClassTag(entries map[uint16]string) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(len(entries)))
	for id, name := range entries {
		idBuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(idBuf, id)
		buf = append(buf, idBuf...)
		buf = append(buf, []byte(name)...)
		buf = append(buf, 0)
	}
	return buf
}

func movieAt(frameRate float32) *swf.Movie {
	return &swf.Movie{Header: swf.Header{FrameRate: frameRate}}
}

func TestRunPartitionsRootAnimationsByFrameLabel(t *testing.T) {
	tags := []swf.Tag{
		{Code: swf.TagPlaceObject2, Data: placeObject2CharacterAndMatrix(1, 10)},
		{Code: swf.TagShowFrame},
		{Code: swf.TagFrameLabel, Data: frameLabel("anim_walk")},
		{Code: swf.TagPlaceObject2, Data: placeObject2CharacterAndMatrix(1, 20)},
		{Code: swf.TagShowFrame},
	}

	result, err := Run(movieAt(12), tags, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.AnimationOrder) != 2 || result.AnimationOrder[0] != "Default" || result.AnimationOrder[1] != "walk" {
		t.Fatalf("got order %v, want [Default walk]", result.AnimationOrder)
	}

	def := result.Animations["Default"]
	if def == nil {
		t.Fatal("missing Default animation")
	}
	if got := def.Timeline[1].Resources[0].ResourceID; got != 10 {
		t.Fatalf("got Default depth 1 resource %d, want 10", got)
	}

	walk := result.Animations["walk"]
	if walk == nil {
		t.Fatal("missing walk animation")
	}
	if got := walk.Timeline[1].Resources[0].ResourceID; got != 20 {
		t.Fatalf("got walk depth 1 resource %d, want 20", got)
	}
	// The second animation's own clock restarts from zero.
	if walk.Timeline[1].Resources[0].Time != 0 {
		t.Fatalf("got walk's first keyframe at time %v, want 0", walk.Timeline[1].Resources[0].Time)
	}
}

func TestRunEventLabelsStayOnCurrentAnimation(t *testing.T) {
	tags := []swf.Tag{
		{Code: swf.TagPlaceObject2, Data: placeObject2CharacterAndMatrix(1, 10)},
		{Code: swf.TagShowFrame},
		{Code: swf.TagFrameLabel, Data: frameLabel("event_hit")},
		{Code: swf.TagShowFrame},
	}

	result, err := Run(movieAt(12), tags, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.AnimationOrder) != 1 {
		t.Fatalf("got %d animations, want 1 (event labels must not partition)", len(result.AnimationOrder))
	}
	def := result.Animations["Default"]
	if len(def.Events) != 1 || def.Events[0].Name != "hit" {
		t.Fatalf("got events %+v, want one event named hit", def.Events)
	}
	if def.Events[0].Time != float32(1)/12 {
		t.Fatalf("got event time %v, want %v", def.Events[0].Time, float32(1)/12)
	}
}

func TestRunDropsAlwaysBlankDepths(t *testing.T) {
	tags := []swf.Tag{
		{Code: swf.TagRemoveObject2, Data: removeObject2(5)},
		{Code: swf.TagShowFrame},
	}

	result, err := Run(movieAt(12), tags, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := result.Animations["Default"].Timeline[5]; ok {
		t.Fatal("expected a depth with only a blank sentinel resource to be dropped")
	}
}

func TestRunAppliesSymbolClassNamesToClips(t *testing.T) {
	rootTags := []swf.Tag{
		{Code: swf.TagSymbolClass, Data: symbolClassTag(map[uint16]string{10: "Hero"})},
	}
	spriteTagStreams := map[uint16][]swf.Tag{
		10: {{Code: swf.TagShowFrame}},
	}

	result, err := Run(movieAt(12), rootTags, spriteTagStreams)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	clip, ok := result.Clips[10]
	if !ok {
		t.Fatal("missing clip 10")
	}
	if clip.Name != "Hero" {
		t.Fatalf("got clip name %q, want Hero", clip.Name)
	}
}

func TestDistillSpriteRecordsSkinFrames(t *testing.T) {
	spriteTags := []swf.Tag{
		{Code: swf.TagFrameLabel, Data: frameLabel("skin_idle")},
		{Code: swf.TagShowFrame},
		{Code: swf.TagFrameLabel, Data: frameLabel("skin_run")},
		{Code: swf.TagShowFrame},
	}

	result, err := Run(movieAt(12), nil, map[uint16][]swf.Tag{30: spriteTags})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	clip := result.Clips[30]
	if clip == nil {
		t.Fatal("missing clip 30")
	}
	if clip.DefaultSkin != "idle" {
		t.Fatalf("got default skin %q, want idle", clip.DefaultSkin)
	}
	if clip.SkinFrames["idle"] != 0 || clip.SkinFrames["run"] != 1 {
		t.Fatalf("got skin frames %v, want idle=0 run=1", clip.SkinFrames)
	}
}
