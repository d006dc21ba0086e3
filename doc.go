// Package swfanim converts legacy Shockwave Flash vector-animation assets
// into a self-contained, engine-friendly animation package, and plays that
// package back by producing, for each tick, a flat list of draw instances
// ready for a host GPU renderer.
//
// The package is split into a converter half (see the internal swf, bitmap,
// tessellate, raster and distill packages, driven by [cmd/swfconv]) and a
// playback half living at the root of this module: [Package], [Animation],
// [ClipDef] describe the declarative keyframe model produced by the
// converter; [Player] consumes it.
//
// # Quick start
//
//	pkg, err := swfanim.LoadPackage("hero.json")
//	if err != nil { ... }
//
//	player := swfanim.NewPlayer(pkg)
//	if err := player.SetPlayAnimation("walk", true, nil); err != nil { ... }
//
//	var instances []swfanim.RuntimeInstance
//	instances = player.Update(instances[:0], 1.0/60.0)
//	for _, inst := range instances {
//		// hand inst.ID, inst.Transform, inst.ColorTransform, inst.Blend,
//		// inst.Filters to a host renderer.
//	}
//
// # What this package does not do
//
// It never acquires a GPU device, never rasterizes a shape itself at
// playback time, and never parses ActionScript, audio, or text. Those are
// the converter's job (offline, once) and the host renderer's job (every
// frame); see SPEC_FULL.md for the exact boundary.
//
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package swfanim
