package main

import (
	"github.com/keelengine/keel/core"
	"github.com/keelengine/keel/engine"
)

// The demo scene: bouncers slide back and forth, a metronome publishes
// a tick on a fixed cadence, and a scorekeeper listens and counts.

const eventTypeTick core.EventTypeID = "demo.tick"

type tickEvent struct {
	core.EventBase
	Beat int
}

func makeTickEvent(source core.Handle, beat int) tickEvent {
	return tickEvent{
		EventBase: core.MakeEventBaseFrom(eventTypeTick, source),
		Beat:      beat,
	}
}

type bouncer struct {
	x, speed float64
	limit    float64
}

func (b *bouncer) Update(ctx *core.UpdateContext) core.UpdateStatus {
	b.x += b.speed * float64(ctx.Frame.DeltaTime)
	if b.x < 0 || b.x > b.limit {
		b.speed = -b.speed
	}

	return core.StatusSuspended
}

func (b *bouncer) RenderView() core.RenderView {
	return core.RenderView{
		Layer:    1,
		X:        b.x,
		SpriteID: "bouncer",
		Visible:  true,
	}
}

type metronome struct {
	period int
	phase  int
	beat   int
}

func (m *metronome) Update(ctx *core.UpdateContext) core.UpdateStatus {
	m.phase++
	if m.phase < m.period {
		return core.StatusSuspended
	}

	m.phase = 0
	m.beat++
	_ = ctx.Bus.PublishNextFrame(makeTickEvent(ctx.Self, m.beat))

	return core.StatusSuspended
}

func (m *metronome) AudioView() core.AudioView {
	return core.AudioView{
		Channel: 0,
		ClipID:  "tick",
		Volume:  0.5,
		Loop:    false,
	}
}

type scorekeeper struct {
	ticks int
}

func (s *scorekeeper) ListenEventTypes() []core.EventTypeID {
	return []core.EventTypeID{eventTypeTick}
}

func (s *scorekeeper) HandleEvent(_ *core.FrameContext, ev core.Event) {
	if _, ok := ev.(tickEvent); ok {
		s.ticks++
	}
}

func registerDemoTypes(e *engine.Engine) error {
	err := e.RegisterType(core.TypeDescriptor{
		ID: "demo.bouncer",
		Factory: func(args any) (any, error) {
			limit, ok := args.(float64)
			if !ok {
				limit = 320
			}
			return &bouncer{speed: 60, limit: limit}, nil
		},
		Capabilities: core.CapabilityMask(
			core.CapUpdatable, core.CapRenderable),
	})
	if err != nil {
		return err
	}

	err = e.RegisterType(core.TypeDescriptor{
		ID: "demo.metronome",
		Factory: func(_ any) (any, error) {
			return &metronome{period: 60}, nil
		},
		Capabilities: core.CapabilityMask(
			core.CapUpdatable, core.CapAudible),
	})
	if err != nil {
		return err
	}

	return e.RegisterType(core.TypeDescriptor{
		ID: "demo.scorekeeper",
		Factory: func(_ any) (any, error) {
			return &scorekeeper{}, nil
		},
		Capabilities: core.CapabilityMask(core.CapEventListener),
	})
}

func spawnDemoScene(e *engine.Engine) error {
	for i := 0; i < 3; i++ {
		if _, err := e.Spawn("demo.bouncer", nil); err != nil {
			return err
		}
	}

	if _, err := e.Spawn("demo.metronome", nil); err != nil {
		return err
	}

	if _, err := e.Spawn("demo.scorekeeper", nil); err != nil {
		return err
	}

	return nil
}
