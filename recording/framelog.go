package recording

import (
	"fmt"

	"github.com/keelengine/keel/core"
)

// FrameEntry is one recorded frame.
type FrameEntry struct {
	Frame          uint64
	DeltaSeconds   float64
	LiveObjects    int
	UpdatedObjects int
	EventsDrained  int
	FreedSlots     int
}

// IncidentEntry is one recorded update failure.
type IncidentEntry struct {
	EventID string
	Object  string
	Reason  string
}

// A FrameLog is a hook that records one row per finished frame. Attach
// it to the scheduler.
type FrameLog struct {
	recorder  Recorder
	tableName string
}

// NewFrameLog creates a FrameLog writing into the recorder.
func NewFrameLog(recorder Recorder) *FrameLog {
	l := &FrameLog{
		recorder:  recorder,
		tableName: "frames",
	}
	recorder.CreateTable(l.tableName, FrameEntry{})

	return l
}

// Func records the frame summary carried by the frame-end hook.
func (l *FrameLog) Func(ctx core.HookCtx) {
	if ctx.Pos != core.HookPosFrameEnd {
		return
	}

	fctx, ok := ctx.Item.(*core.FrameContext)
	if !ok {
		return
	}

	stats, ok := ctx.Detail.(core.FrameStats)
	if !ok {
		return
	}

	l.recorder.InsertData(l.tableName, FrameEntry{
		Frame:          fctx.FrameIndex,
		DeltaSeconds:   float64(fctx.DeltaTime),
		LiveObjects:    stats.LiveObjects,
		UpdatedObjects: stats.UpdatedObjects,
		EventsDrained:  stats.EventsDrained,
		FreedSlots:     stats.FreedSlots,
	})
}

// An IncidentLog is a hook that records every update failure delivered
// on the bus. Attach it to the bus.
type IncidentLog struct {
	recorder  Recorder
	tableName string
}

// NewIncidentLog creates an IncidentLog writing into the recorder.
func NewIncidentLog(recorder Recorder) *IncidentLog {
	l := &IncidentLog{
		recorder:  recorder,
		tableName: "incidents",
	}
	recorder.CreateTable(l.tableName, IncidentEntry{})

	return l
}

// Func records update-failure events as they are delivered.
func (l *IncidentLog) Func(ctx core.HookCtx) {
	if ctx.Pos != core.HookPosBeforeEvent {
		return
	}

	failure, ok := ctx.Item.(core.UpdateFailedEvent)
	if !ok {
		return
	}

	l.recorder.InsertData(l.tableName, IncidentEntry{
		EventID: failure.ID,
		Object:  failure.Object.String(),
		Reason:  fmt.Sprint(failure.Reason),
	})
}

// StormEntry is one recorded dropped publish.
type StormEntry struct {
	EventType string
	Depth     int
}

// A StormLog is a hook that records every publish dropped by the
// cascade depth bound. Attach it to the bus.
type StormLog struct {
	recorder  Recorder
	tableName string
}

// NewStormLog creates a StormLog writing into the recorder.
func NewStormLog(recorder Recorder) *StormLog {
	l := &StormLog{
		recorder:  recorder,
		tableName: "storms",
	}
	recorder.CreateTable(l.tableName, StormEntry{})

	return l
}

// Func records dropped publishes as the bus reports them.
func (l *StormLog) Func(ctx core.HookCtx) {
	if ctx.Pos != core.HookPosEventStorm {
		return
	}

	storm, ok := ctx.Detail.(core.EventStormError)
	if !ok {
		return
	}

	l.recorder.InsertData(l.tableName, StormEntry{
		EventType: string(storm.EventType),
		Depth:     storm.Depth,
	})
}
