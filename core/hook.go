package core

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site
// that a hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosFrameStart triggers at the start of a frame. Item is the
// frame's *FrameContext.
var HookPosFrameStart = &HookPos{Name: "FrameStart"}

// HookPosFrameEnd triggers at the end of a frame. Item is the frame's
// *FrameContext; Detail is a FrameStats.
var HookPosFrameEnd = &HookPos{Name: "FrameEnd"}

// HookPosBeforeUpdate triggers before resuming one object's update
// routine. Item is the object's Handle.
var HookPosBeforeUpdate = &HookPos{Name: "BeforeUpdate"}

// HookPosAfterUpdate triggers after one object's update routine yields
// or finishes. Item is the object's Handle.
var HookPosAfterUpdate = &HookPos{Name: "AfterUpdate"}

// HookPosBeforeEvent triggers before an event is delivered. Item is the
// Event.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after an event is delivered. Item is the
// Event.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// HookPosEventStorm triggers when a publish exceeds the cascade depth
// bound and is dropped. Item is the dropped Event; Detail is the
// EventStormError.
var HookPosEventStorm = &HookPos{Name: "EventStorm"}

// Hook is a short piece of program that can be invoked by a hookable
// object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other types that
// implement the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
