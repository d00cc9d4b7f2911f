package core

import "fmt"

// A Handle is an indirect, generation-checked reference to a live
// object. Holding a handle across frames is always safe: once the object
// is destroyed and its slot compacted, the handle resolves to
// InvalidHandleError rather than aliasing a newer object reusing the
// slot.
type Handle struct {
	Index      uint32
	Generation uint32
}

// NilHandle is the zero handle. Generation 0 is never issued by a store,
// so NilHandle never resolves.
var NilHandle = Handle{}

// IsNil reports whether the handle is the zero handle.
func (h Handle) IsNil() bool {
	return h.Generation == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("obj[%d:%d]", h.Index, h.Generation)
}
