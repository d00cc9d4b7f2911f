package core

// UpdateStatus is what an update routine returns when it yields control
// back to the scheduler.
type UpdateStatus int

const (
	// StatusSuspended means the routine yielded and wants to be resumed
	// with a fresh FrameContext next frame.
	StatusSuspended UpdateStatus = iota

	// StatusFinished means the routine ran to completion and must not be
	// resumed again. The object stays alive until destroyed.
	StatusFinished
)

// An UpdateContext is handed to an update routine on every resume. It
// carries the frame, the routine's own handle, and the store and bus the
// routine may act on. All calls through it happen on the scheduler
// thread.
type UpdateContext struct {
	Frame *FrameContext
	Self  Handle
	Store *Store
	Bus   *Bus
}

// Cancelled reports whether the owning object has been marked for
// destruction. A suspended routine observes this at its next resume and
// is never forcibly killed mid-step; the scheduler simply stops resuming
// routines of pending-destroy objects.
func (c *UpdateContext) Cancelled() bool {
	return !c.Store.Alive(c.Self)
}

// Updatable is implemented by instances of types carrying CapUpdatable.
// Update is the routine's single yield point: each return suspends or
// finishes the routine, and the instance itself holds whatever local
// progress the routine needs across frames.
type Updatable interface {
	Update(ctx *UpdateContext) UpdateStatus
}

// EventListener is implemented by instances of types carrying
// CapEventListener. On spawn, the instance is subscribed to each type it
// reports; the subscriptions are removed when the object's slot is
// compacted.
type EventListener interface {
	ListenEventTypes() []EventTypeID
	HandleEvent(fctx *FrameContext, ev Event)
}

// A RenderView is the read-only slice of an object the renderer pass
// submits to the renderer adapter.
type RenderView struct {
	Layer    int
	X, Y     float64
	SpriteID string
	Visible  bool
}

// Renderable is implemented by instances of types carrying
// CapRenderable.
type Renderable interface {
	RenderView() RenderView
}

// An AudioView is the read-only slice of an object the audio pass
// submits to the audio adapter.
type AudioView struct {
	Channel int
	ClipID  string
	Volume  float64
	Loop    bool
}

// Audible is implemented by instances of types carrying CapAudible.
type Audible interface {
	AudioView() AudioView
}
