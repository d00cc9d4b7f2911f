package core

// An EventTypeID is the stable identifier of an event type.
type EventTypeID string

// An Event is a value delivered to subscribed handlers. Events are
// consumed exactly once by delivery and are not owned by any long-lived
// entity.
type Event interface {
	// EventType returns the identifier of the event's type.
	EventType() EventTypeID

	// Source returns the handle of the object that published the event,
	// if there is one.
	Source() (Handle, bool)
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID        string
	eventType EventTypeID
	source    Handle
	hasSource bool
}

// MakeEventBase creates an EventBase with no source object.
func MakeEventBase(t EventTypeID) EventBase {
	return EventBase{
		ID:        GetIDGenerator().Generate(),
		eventType: t,
	}
}

// MakeEventBaseFrom creates an EventBase attributed to the given object.
func MakeEventBaseFrom(t EventTypeID, source Handle) EventBase {
	return EventBase{
		ID:        GetIDGenerator().Generate(),
		eventType: t,
		source:    source,
		hasSource: true,
	}
}

// EventType returns the identifier of the event's type.
func (e EventBase) EventType() EventTypeID {
	return e.eventType
}

// Source returns the publishing object's handle, if any.
func (e EventBase) Source() (Handle, bool) {
	return e.source, e.hasSource
}

// EventTypeUpdateFailed identifies the event published when an object's
// update routine panics. The failure is isolated to that object; the
// rest of the frame proceeds.
const EventTypeUpdateFailed EventTypeID = "keel.update_failed"

// An UpdateFailedEvent reports a recovered panic from one object's
// update routine.
type UpdateFailedEvent struct {
	EventBase
	Object Handle
	Reason any
}

// MakeUpdateFailedEvent creates an UpdateFailedEvent for the object.
func MakeUpdateFailedEvent(object Handle, reason any) UpdateFailedEvent {
	return UpdateFailedEvent{
		EventBase: MakeEventBaseFrom(EventTypeUpdateFailed, object),
		Object:    object,
		Reason:    reason,
	}
}

// EventTypeInput identifies events translated from raw window input.
const EventTypeInput EventTypeID = "keel.input"

// An InputEvent wraps one raw window event. The scheduler publishes
// input at the start of the frame; handlers see it in the same frame's
// drain.
type InputEvent struct {
	EventBase
	Raw WindowEvent
}

// MakeInputEvent creates an InputEvent from a raw window event.
func MakeInputEvent(raw WindowEvent) InputEvent {
	return InputEvent{
		EventBase: MakeEventBase(EventTypeInput),
		Raw:       raw,
	}
}
