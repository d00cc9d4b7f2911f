package core

import "sync"

// WindowEventKind discriminates raw window events.
type WindowEventKind int

const (
	// WindowEventKey is a key press or release. Code carries the key.
	WindowEventKey WindowEventKind = iota

	// WindowEventPointer is pointer motion or a button change.
	WindowEventPointer

	// WindowEventResize reports a new drawable size in X, Y.
	WindowEventResize

	// WindowEventClose is the user asking the window to close.
	WindowEventClose
)

// A WindowEvent is one raw input or window event as reported by the
// window adapter. The scheduler translates raw events into typed Events
// before publishing them.
type WindowEvent struct {
	Kind    WindowEventKind
	Code    int32
	Pressed bool
	X, Y    int32
}

// A WindowAdapter supplies input and window events. PollEvents is called
// once per frame from the scheduler thread and returns the finite batch
// of raw events for this frame.
type WindowAdapter interface {
	PollEvents() []WindowEvent
	CloseRequested() bool
	Shutdown()
}

// A RendererAdapter records one frame of rendering work. Calls arrive in
// BeginFrame, Submit..., EndFrame order and are never concurrent with
// each other or with a previous frame; each call blocks until its work
// is recorded, not necessarily completed on the device.
//
// Returning an error that wraps DeviceLostError shuts the engine down;
// any other error voids the frame but the engine keeps running.
type RendererAdapter interface {
	BeginFrame(fctx *FrameContext) error
	Submit(h Handle, view RenderView) error
	EndFrame() error
	Shutdown()
}

// An AudioAdapter records one frame of audio work, under the same
// calling and failure contract as the renderer.
type AudioAdapter interface {
	BeginFrame(fctx *FrameContext) error
	Submit(h Handle, view AudioView) error
	EndFrame() error
	Shutdown()
}

// An EventHandoff is the thread-safe path for adapters and background
// goroutines to inject events into the engine. The scheduler drains it
// at the start of every frame and publishes the events for that frame's
// drain; nothing else touches the bus queue across threads.
type EventHandoff struct {
	mu     sync.Mutex
	events []Event
}

// Inject queues an event for the start of the next frame. Safe to call
// from any goroutine.
func (o *EventHandoff) Inject(ev Event) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

// TakeAll removes and returns all injected events.
func (o *EventHandoff) TakeAll() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.events) == 0 {
		return nil
	}

	taken := o.events
	o.events = nil

	return taken
}
