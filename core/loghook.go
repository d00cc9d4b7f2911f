package core

import (
	"log"
	"reflect"
)

// A LogHook is a hook that is responsible for recording information
// from the running engine.
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks.
type LogHookBase struct {
	*log.Logger
}

// EventLogger is a hook that prints every delivered event.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns an EventLogger that writes into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger
	return h
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if src, hasSrc := evt.Source(); hasSrc {
		h.Printf("%s, %s <- %s",
			evt.EventType(), reflect.TypeOf(evt), src)
		return
	}

	h.Printf("%s, %s", evt.EventType(), reflect.TypeOf(evt))
}

// FrameLogger is a hook that prints a summary line per frame.
type FrameLogger struct {
	LogHookBase
}

// NewFrameLogger returns a FrameLogger that writes into the logger.
func NewFrameLogger(logger *log.Logger) *FrameLogger {
	h := new(FrameLogger)
	h.Logger = logger
	return h
}

// Func writes the frame summary into the logger.
func (h *FrameLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosFrameEnd {
		return
	}

	fctx, ok := ctx.Item.(*FrameContext)
	if !ok {
		return
	}

	stats, ok := ctx.Detail.(FrameStats)
	if !ok {
		return
	}

	h.Printf("frame %d, %.6fs, %d objects, %d updated, %d events, %d freed",
		fctx.FrameIndex, fctx.DeltaTime,
		stats.LiveObjects, stats.UpdatedObjects,
		stats.EventsDrained, stats.FreedSlots)
}
