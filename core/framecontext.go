package core

import "time"

// A FrameContext describes one frame. The scheduler builds one per
// frame and passes it by reference to every update, event, render, and
// audio call within that frame.
type FrameContext struct {
	FrameIndex uint64
	DeltaTime  Seconds
	WallClock  time.Time
}

// FrameStats summarizes a finished frame. The scheduler attaches it to
// the frame-end hook so recorders and monitors can observe frame cost
// without reaching into the store.
type FrameStats struct {
	LiveObjects    int
	UpdatedObjects int
	EventsDrained  int
	FreedSlots     int
}
