package core

import "github.com/TheBitDrifter/mask"

// A Capability is a behavior an object type opts into. It determines
// which per-frame passes visit objects of that type.
type Capability uint32

const (
	// CapUpdatable marks types whose instances are resumed by the
	// scheduler's update pass each frame.
	CapUpdatable Capability = iota

	// CapEventListener marks types whose instances are subscribed to
	// events on spawn.
	CapEventListener

	// CapRenderable marks types visited by the renderer pass.
	CapRenderable

	// CapAudible marks types visited by the audio pass.
	CapAudible
)

func (c Capability) String() string {
	switch c {
	case CapUpdatable:
		return "Updatable"
	case CapEventListener:
		return "EventListener"
	case CapRenderable:
		return "Renderable"
	case CapAudible:
		return "Audible"
	}
	return "Unknown"
}

// CapabilityMask builds the mask of the given capabilities. A type's
// descriptor carries one mask for its whole lifetime.
func CapabilityMask(caps ...Capability) mask.Mask {
	var m mask.Mask
	for _, c := range caps {
		m.Mark(uint32(c))
	}
	return m
}
