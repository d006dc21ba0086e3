// Package ecsbridge optionally republishes a Player's frame events onto a
// Donburi ECS world as typed events, for a host that structures its game
// loop around an entity-component-system rather than plain callbacks.
// Adapted from phanxgames-willow's ecs package, which bridges willow's
// Node interaction events (pointer/click) onto a Donburi world the same
// way; here the event payload is a frame-label name instead of a pointer
// position.
package ecsbridge

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	swfanim "github.com/aojiaoxiaolinlin/swf-animation-sub000"
)

// FrameEvent is the payload published for every fired frame-label event.
type FrameEvent struct {
	Name string
}

// frameEventType is the Donburi event channel frame events publish on.
var frameEventType = events.NewEventType[FrameEvent]()

// Bridge wires a Player's RegisterFrameEvent callbacks to publish onto a
// Donburi world.
type Bridge struct {
	world donburi.World
}

// New returns a Bridge that will publish onto world.
func New(world donburi.World) *Bridge {
	return &Bridge{world: world}
}

// Forward registers a listener on player for eventName that republishes it
// as a FrameEvent on the bridge's Donburi world.
func (b *Bridge) Forward(player *swfanim.Player, eventName string) {
	player.RegisterFrameEvent(eventName, func() {
		frameEventType.Publish(b.world, FrameEvent{Name: eventName})
	})
}

// Subscribe registers handler to run for every forwarded frame event. It
// does not process the queue itself: handlers run when ProcessEvents is
// called, typically once per update from the host's system loop, following
// willow's ecs event-processing pattern.
func Subscribe(world donburi.World, handler func(FrameEvent)) {
	frameEventType.Subscribe(world, func(e FrameEvent) {
		handler(e)
	})
}

// ProcessEvents drains and dispatches every FrameEvent published since the
// last call, per Donburi's events feature lifecycle.
func ProcessEvents(world donburi.World) {
	events.ProcessEvents(world)
}
