package core

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type counterObject struct {
	count int
}

func (o *counterObject) Update(ctx *UpdateContext) UpdateStatus {
	o.count++
	return StatusSuspended
}

type oneShotObject struct {
	runs int
}

func (o *oneShotObject) Update(ctx *UpdateContext) UpdateStatus {
	o.runs++
	return StatusFinished
}

type panickyObject struct{}

func (o *panickyObject) Update(ctx *UpdateContext) UpdateStatus {
	panic("update went sideways")
}

type echoListener struct {
	heard []EventTypeID
}

func (l *echoListener) ListenEventTypes() []EventTypeID {
	return []EventTypeID{"test.ping"}
}

func (l *echoListener) HandleEvent(fctx *FrameContext, ev Event) {
	l.heard = append(l.heard, ev.EventType())
}

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl *gomock.Controller
		registry *Registry
		store    *Store
		bus      *Bus
		clock    *ManualClock
	)

	frameTime := time.Second / 60

	newScheduler := func(
		window WindowAdapter,
		renderer RendererAdapter,
		audio AudioAdapter,
	) *Scheduler {
		return NewScheduler(
			registry, store, bus, window, renderer, audio, clock)
	}

	stepFrames := func(s *Scheduler, n int) {
		for i := 0; i < n; i++ {
			clock.Advance(frameTime)
			Expect(s.Step()).To(Succeed())
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		registry = NewRegistry()
		registry.MustRegister(TypeDescriptor{
			ID: "counter",
			Factory: func(args any) (any, error) {
				return &counterObject{}, nil
			},
			Capabilities: CapabilityMask(CapUpdatable),
		})
		store = NewStore(registry)
		bus = NewBus()
		clock = NewManualClock(time.Unix(0, 0))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should resume each updatable object once per frame", func() {
		s := newScheduler(nil, nil, nil)

		handles := make([]Handle, 3)
		for i := range handles {
			h, err := store.Spawn("counter", nil)
			Expect(err).ToNot(HaveOccurred())
			handles[i] = h
		}

		stepFrames(s, 5)

		Expect(s.State()).To(Equal(StateRunning))
		Expect(s.FrameCount()).To(Equal(uint64(5)))
		for _, h := range handles {
			instance, err := store.Get(h)
			Expect(err).ToNot(HaveOccurred())
			Expect(instance.(*counterObject).count).To(Equal(5))
		}
	})

	It("should pause, single-step, and resume the frame loop", func() {
		s := newScheduler(nil, nil, nil)

		_, err := store.Spawn("counter", nil)
		Expect(err).ToNot(HaveOccurred())

		done := make(chan error)
		go func() {
			done <- s.Run()
		}()

		Eventually(s.FrameCount).Should(BeNumerically(">", uint64(0)))

		s.Pause()
		Expect(s.Paused()).To(BeTrue())

		frozen := s.FrameCount()
		Consistently(s.FrameCount).Should(Equal(frozen))

		clock.Advance(frameTime)
		Expect(s.StepWhilePaused()).To(Succeed())
		Expect(s.FrameCount()).To(Equal(frozen + 1))

		s.Continue()
		Expect(s.Paused()).To(BeFalse())

		s.Stop()
		Expect(<-done).To(BeNil())
		Expect(s.State()).To(Equal(StateStopped))
	})

	It("should refuse to single-step while the loop is not paused", func() {
		s := newScheduler(nil, nil, nil)

		Expect(s.StepWhilePaused()).ToNot(Succeed())
	})

	It("should seal the registry before the first frame", func() {
		s := newScheduler(nil, nil, nil)

		stepFrames(s, 1)

		Expect(registry.Sealed()).To(BeTrue())
		err := registry.Register(TypeDescriptor{
			ID:      "late",
			Factory: func(args any) (any, error) { return nil, nil },
		})
		Expect(err).To(MatchError(RegistryClosedError{ID: "late"}))
	})

	It("should not resume a finished routine again", func() {
		registry.MustRegister(TypeDescriptor{
			ID: "oneshot",
			Factory: func(args any) (any, error) {
				return &oneShotObject{}, nil
			},
			Capabilities: CapabilityMask(CapUpdatable),
		})
		s := newScheduler(nil, nil, nil)

		h, _ := store.Spawn("oneshot", nil)

		stepFrames(s, 3)

		instance, err := store.Get(h)
		Expect(err).ToNot(HaveOccurred())
		Expect(instance.(*oneShotObject).runs).To(Equal(1))
	})

	It("should never resume an object destroyed earlier in the frame",
		func() {
			s := newScheduler(nil, nil, nil)

			h, _ := store.Spawn("counter", nil)
			instance, _ := store.Get(h)

			bus.Subscribe("test.kill", func(fctx *FrameContext, ev Event) {
				Expect(store.Destroy(h)).To(Succeed())
			}, 0)
			Expect(bus.PublishNextFrame(makeKillEvent())).To(Succeed())

			stepFrames(s, 1)

			Expect(instance.(*counterObject).count).To(Equal(0))
			_, err := store.Get(h)
			Expect(err).To(MatchError(InvalidHandleError{Handle: h}))
		})

	It("should make next-frame events from frame K visible in frame K+1",
		func() {
			registry.MustRegister(TypeDescriptor{
				ID: "publisher",
				Factory: func(args any) (any, error) {
					return updatableFunc(
						func(ctx *UpdateContext) UpdateStatus {
							if ctx.Frame.FrameIndex == 0 {
								ctx.Bus.PublishNextFrame(makeKillEvent())
							}
							return StatusSuspended
						}), nil
				},
				Capabilities: CapabilityMask(CapUpdatable),
			})
			s := newScheduler(nil, nil, nil)

			var seenAtFrame []uint64
			bus.Subscribe("test.kill", func(fctx *FrameContext, ev Event) {
				seenAtFrame = append(seenAtFrame, fctx.FrameIndex)
			}, 0)

			_, err := store.Spawn("publisher", nil)
			Expect(err).ToNot(HaveOccurred())

			stepFrames(s, 3)

			Expect(seenAtFrame).To(Equal([]uint64{1}))
		})

	It("should isolate a panicking update routine", func() {
		registry.MustRegister(TypeDescriptor{
			ID: "panicky",
			Factory: func(args any) (any, error) {
				return &panickyObject{}, nil
			},
			Capabilities: CapabilityMask(CapUpdatable),
		})
		s := newScheduler(nil, nil, nil)

		var failures []UpdateFailedEvent
		bus.Subscribe(EventTypeUpdateFailed,
			func(fctx *FrameContext, ev Event) {
				failures = append(failures, ev.(UpdateFailedEvent))
			}, 0)

		bad, _ := store.Spawn("panicky", nil)
		good, _ := store.Spawn("counter", nil)

		stepFrames(s, 2)

		Expect(failures).To(HaveLen(1))
		Expect(failures[0].Object).To(Equal(bad))
		Expect(failures[0].Reason).To(Equal("update went sideways"))

		instance, err := store.Get(good)
		Expect(err).ToNot(HaveOccurred())
		Expect(instance.(*counterObject).count).To(Equal(2))
	})

	It("should subscribe event listeners on spawn and drop them on destroy",
		func() {
			registry.MustRegister(TypeDescriptor{
				ID: "listener",
				Factory: func(args any) (any, error) {
					return &echoListener{}, nil
				},
				Capabilities: CapabilityMask(CapEventListener),
			})
			s := newScheduler(nil, nil, nil)

			h, _ := store.Spawn("listener", nil)
			instance, _ := store.Get(h)
			listener := instance.(*echoListener)

			Expect(bus.PublishNextFrame(makePingEvent())).To(Succeed())
			stepFrames(s, 1)
			Expect(listener.heard).To(HaveLen(1))

			Expect(store.Destroy(h)).To(Succeed())
			stepFrames(s, 1)

			Expect(bus.PublishNextFrame(makePingEvent())).To(Succeed())
			stepFrames(s, 1)
			Expect(listener.heard).To(HaveLen(1))
		})

	It("should translate window input into queued input events", func() {
		window := NewMockWindowAdapter(mockCtrl)
		s := newScheduler(window, nil, nil)

		raw := WindowEvent{Kind: WindowEventKey, Code: 42, Pressed: true}
		window.EXPECT().CloseRequested().Return(false).Times(2)
		gomock.InOrder(
			window.EXPECT().PollEvents().Return([]WindowEvent{raw}),
			window.EXPECT().PollEvents().Return(nil),
		)

		var inputs []InputEvent
		bus.Subscribe(EventTypeInput, func(fctx *FrameContext, ev Event) {
			inputs = append(inputs, ev.(InputEvent))
		}, 0)

		stepFrames(s, 2)

		Expect(inputs).To(HaveLen(1))
		Expect(inputs[0].Raw).To(Equal(raw))
	})

	It("should publish injected events at the start of the next frame",
		func() {
			s := newScheduler(nil, nil, nil)

			var seen int
			bus.Subscribe("test.ping", func(fctx *FrameContext, ev Event) {
				seen++
			}, 0)

			s.Inject(makePingEvent())
			stepFrames(s, 1)

			Expect(seen).To(Equal(1))
		})

	It("should skip the frame on a recoverable renderer failure", func() {
		registry.MustRegister(TypeDescriptor{
			ID: "sprite",
			Factory: func(args any) (any, error) {
				return renderableFunc(func() RenderView {
					return RenderView{SpriteID: "sprite", Visible: true}
				}), nil
			},
			Capabilities: CapabilityMask(CapRenderable),
		})
		renderer := NewMockRendererAdapter(mockCtrl)
		audio := NewMockAudioAdapter(mockCtrl)
		s := newScheduler(nil, renderer, audio)

		_, err := store.Spawn("sprite", nil)
		Expect(err).ToNot(HaveOccurred())

		renderer.EXPECT().BeginFrame(gomock.Any()).
			Return(errors.New("swapchain out of date"))

		stepFrames(s, 1)

		// The audio pass never ran: the frame was voided, not the engine.
		Expect(s.State()).To(Equal(StateRunning))
	})

	It("should stop the engine on renderer device loss", func() {
		renderer := NewMockRendererAdapter(mockCtrl)
		s := newScheduler(nil, renderer, nil)

		renderer.EXPECT().BeginFrame(gomock.Any()).Return(nil)
		renderer.EXPECT().EndFrame().Return(nil)

		stepFrames(s, 1)
		Expect(s.State()).To(Equal(StateRunning))

		renderer.EXPECT().BeginFrame(gomock.Any()).
			Return(DeviceLostError{Subsystem: "renderer"})

		clock.Advance(frameTime)
		Expect(s.Step()).To(Succeed())
		Expect(s.State()).To(Equal(StateStopping))

		_, err := store.Spawn("counter", nil)
		Expect(err).To(MatchError(StoreClosedError{Type: "counter"}))

		renderer.EXPECT().Shutdown()

		clock.Advance(frameTime)
		err = s.Step()
		Expect(s.State()).To(Equal(StateStopped))

		var lost DeviceLostError
		Expect(errors.As(err, &lost)).To(BeTrue())
		Expect(lost.Subsystem).To(Equal("renderer"))
	})

	It("should stop the engine on device loss reported by pointer", func() {
		renderer := NewMockRendererAdapter(mockCtrl)
		s := newScheduler(nil, renderer, nil)

		renderer.EXPECT().BeginFrame(gomock.Any()).
			Return(&DeviceLostError{Subsystem: "renderer"})

		stepFrames(s, 1)
		Expect(s.State()).To(Equal(StateStopping))

		renderer.EXPECT().Shutdown()

		clock.Advance(frameTime)
		err := s.Step()
		Expect(s.State()).To(Equal(StateStopped))

		var lost *DeviceLostError
		Expect(errors.As(err, &lost)).To(BeTrue())
		Expect(lost.Subsystem).To(Equal("renderer"))
	})

	It("should finalize an orderly stop and call stop handlers", func() {
		s := newScheduler(nil, nil, nil)

		stopped := 0
		s.RegisterStopHandler(stopHandlerFunc(func(fctx *FrameContext) {
			stopped++
		}))

		stepFrames(s, 1)
		s.Stop()

		clock.Advance(frameTime)
		Expect(s.Step()).To(Succeed())

		Expect(s.State()).To(Equal(StateStopped))
		Expect(stopped).To(Equal(1))

		// Further steps are no-ops.
		Expect(s.Step()).To(Succeed())
		Expect(stopped).To(Equal(1))
	})

	It("should submit render and audio views in read-only passes", func() {
		registry.MustRegister(TypeDescriptor{
			ID: "siren",
			Factory: func(args any) (any, error) {
				return &sirenObject{}, nil
			},
			Capabilities: CapabilityMask(CapRenderable, CapAudible),
		})
		renderer := NewMockRendererAdapter(mockCtrl)
		audio := NewMockAudioAdapter(mockCtrl)
		s := newScheduler(nil, renderer, audio)

		h, _ := store.Spawn("siren", nil)

		gomock.InOrder(
			renderer.EXPECT().BeginFrame(gomock.Any()).Return(nil),
			renderer.EXPECT().
				Submit(h, RenderView{SpriteID: "siren", Visible: true}).
				Return(nil),
			renderer.EXPECT().EndFrame().Return(nil),
			audio.EXPECT().BeginFrame(gomock.Any()).Return(nil),
			audio.EXPECT().
				Submit(h, AudioView{ClipID: "wail", Volume: 1}).
				Return(nil),
			audio.EXPECT().EndFrame().Return(nil),
		)

		stepFrames(s, 1)
	})
})

type updatableFunc func(ctx *UpdateContext) UpdateStatus

func (f updatableFunc) Update(ctx *UpdateContext) UpdateStatus {
	return f(ctx)
}

type renderableFunc func() RenderView

func (f renderableFunc) RenderView() RenderView {
	return f()
}

type stopHandlerFunc func(fctx *FrameContext)

func (f stopHandlerFunc) Handle(fctx *FrameContext) {
	f(fctx)
}

type sirenObject struct{}

func (o *sirenObject) RenderView() RenderView {
	return RenderView{SpriteID: "siren", Visible: true}
}

func (o *sirenObject) AudioView() AudioView {
	return AudioView{ClipID: "wail", Volume: 1}
}

func makeKillEvent() Event {
	return struct{ EventBase }{MakeEventBase("test.kill")}
}

func makePingEvent() Event {
	return struct{ EventBase }{MakeEventBase("test.ping")}
}
