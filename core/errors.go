package core

import "fmt"

// DuplicateTypeError reports a second registration of a type ID.
// Registry misuse is a programming error; callers should not retry.
type DuplicateTypeError struct {
	ID TypeID
}

func (e DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q is already registered", e.ID)
}

// RegistryClosedError reports a registration attempted after Seal.
type RegistryClosedError struct {
	ID TypeID
}

func (e RegistryClosedError) Error() string {
	return fmt.Sprintf("registry is sealed, cannot register type %q", e.ID)
}

// UnknownTypeError reports a lookup or spawn of an unregistered type.
type UnknownTypeError struct {
	ID TypeID
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("type %q is not registered", e.ID)
}

// InvalidHandleError reports a stale or out-of-range handle. It is an
// expected runtime condition: callers treat it as "object already gone",
// never as a crash.
type InvalidHandleError struct {
	Handle Handle
}

func (e InvalidHandleError) Error() string {
	return fmt.Sprintf("handle %s does not resolve to a live object", e.Handle)
}

// StoreClosedError reports a spawn attempted while the scheduler is
// stopping.
type StoreClosedError struct {
	Type TypeID
}

func (e StoreClosedError) Error() string {
	return fmt.Sprintf("store is closed, cannot spawn %q", e.Type)
}

// EventStormError reports a re-entrant publish cascade that exceeded the
// bus's depth bound. The offending publish is dropped and the frame
// continues.
type EventStormError struct {
	EventType EventTypeID
	Depth     int
}

func (e EventStormError) Error() string {
	return fmt.Sprintf(
		"event cascade for %q exceeded depth bound %d, publish dropped",
		e.EventType, e.Depth)
}

// DeviceLostError reports an unrecoverable subsystem fault. It is the
// only adapter error that escalates to engine shutdown.
type DeviceLostError struct {
	Subsystem string
	Cause     error
}

func (e DeviceLostError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s device lost", e.Subsystem)
	}
	return fmt.Sprintf("%s device lost: %s", e.Subsystem, e.Cause)
}

func (e DeviceLostError) Unwrap() error {
	return e.Cause
}
