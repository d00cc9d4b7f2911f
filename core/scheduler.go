package core

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// SchedulerState is the lifecycle state of the scheduler.
type SchedulerState int32

const (
	// StateUnsealed is the registration phase, before the first frame.
	StateUnsealed SchedulerState = iota

	// StateRunning is the steady-state frame loop.
	StateRunning

	// StateStopping drains in-flight work; no new spawns succeed.
	StateStopping

	// StateStopped is terminal.
	StateStopped
)

func (s SchedulerState) String() string {
	switch s {
	case StateUnsealed:
		return "Unsealed"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	}
	return "Unknown"
}

// A StopHandler is called once after the scheduler reaches the stopped
// state.
type StopHandler interface {
	Handle(fctx *FrameContext)
}

// A Scheduler is the top-level frame driver. Each frame it advances
// simulation time, publishes input, drains the event queue, resumes
// update routines, compacts the store, and invokes the renderer and
// audio adapters, in that fixed order.
//
// All per-frame steps execute on the goroutine calling Run or Step; the
// scheduler is the only writer sequencer for the store and the bus
// queue.
type Scheduler struct {
	HookableBase

	registry *Registry
	store    *Store
	bus      *Bus
	window   WindowAdapter
	renderer RendererAdapter
	audio    AudioAdapter
	clock    Clock
	handoff  EventHandoff
	logger   *log.Logger

	stateLock sync.RWMutex
	state     SchedulerState
	fatal     error

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	stopRequested atomic.Bool
	frameCount    atomic.Uint64

	targetFrameTime time.Duration
	lastTime        time.Time
	lastCtx         FrameContext

	stopHandlers  []StopHandler
	updateScratch []Handle
}

// NewScheduler creates a scheduler over the given registry, store, and
// bus, with the three subsystem adapters. Any adapter may be nil, in
// which case its pass is skipped. A nil clock falls back to the system
// clock.
//
// The scheduler wires the store's lifecycle callbacks to the bus:
// spawned EventListener instances are subscribed to the event types they
// report, and compaction removes every subscription the object owned.
func NewScheduler(
	registry *Registry,
	store *Store,
	bus *Bus,
	window WindowAdapter,
	renderer RendererAdapter,
	audio AudioAdapter,
	clock Clock,
) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}

	s := &Scheduler{
		registry: registry,
		store:    store,
		bus:      bus,
		window:   window,
		renderer: renderer,
		audio:    audio,
		clock:    clock,
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}

	store.OnSpawn(func(h Handle, desc TypeDescriptor, instance any) {
		if !desc.HasCapability(CapEventListener) {
			return
		}

		listener, ok := instance.(EventListener)
		if !ok {
			s.logger.Printf(
				"type %q declares EventListener but %T does not implement it",
				desc.ID, instance)
			return
		}

		for _, t := range listener.ListenEventTypes() {
			bus.SubscribeOwned(t, h, listener.HandleEvent, 0)
		}
	})
	store.OnDestroy(bus.RemoveOwned)

	return s
}

// SetLogger replaces the scheduler's diagnostic logger.
func (s *Scheduler) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// SetTargetFrameTime caps the frame rate of Run. Zero leaves the loop
// uncapped. Step never sleeps.
func (s *Scheduler) SetTargetFrameTime(d time.Duration) {
	s.targetFrameTime = d
}

// State returns the scheduler's lifecycle state. Safe from any thread.
func (s *Scheduler) State() SchedulerState {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	return s.state
}

// FrameCount returns the number of frames started so far. Safe from any
// thread.
func (s *Scheduler) FrameCount() uint64 {
	return s.frameCount.Load()
}

// Inject hands an event to the scheduler from another goroutine. It is
// published at the start of the next frame.
func (s *Scheduler) Inject(ev Event) {
	s.handoff.Inject(ev)
}

// Stop requests an orderly shutdown. The current frame finishes, the
// stopping state rejects new spawns, one final drain delivers the
// remaining queued events, and the adapters are shut down. Safe from any
// thread.
func (s *Scheduler) Stop() {
	s.stopRequested.Store(true)
}

// RegisterStopHandler registers a handler invoked after the scheduler
// stops.
func (s *Scheduler) RegisterStopHandler(h StopHandler) {
	s.stopHandlers = append(s.stopHandlers, h)
}

// Pause blocks the frame loop after the current frame completes.
func (s *Scheduler) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue resumes a paused frame loop.
func (s *Scheduler) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// Paused reports whether the frame loop is paused.
func (s *Scheduler) Paused() bool {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	return s.isPaused
}

// Run drives frames until the scheduler stops. It returns the fatal
// error if a device loss caused the stop, nil otherwise.
func (s *Scheduler) Run() error {
	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	for {
		s.pauseLock.Lock()

		if s.State() == StateStopped {
			s.pauseLock.Unlock()
			return s.fatalError()
		}

		if s.State() == StateStopping || s.stopRequested.Load() {
			s.finalize()
			s.pauseLock.Unlock()
			return s.fatalError()
		}

		frameStart := time.Now()
		s.runFrame()

		s.pauseLock.Unlock()

		if s.targetFrameTime > 0 {
			if rest := s.targetFrameTime - time.Since(frameStart); rest > 0 {
				time.Sleep(rest)
			}
		}
	}
}

// Step drives exactly one frame. A step taken while stopping finalizes
// the shutdown; a step after stopped is a no-op. Tests and the monitor's
// single-step control use it.
func (s *Scheduler) Step() error {
	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	if s.State() == StateStopped {
		return s.fatalError()
	}

	if s.State() == StateStopping || s.stopRequested.Load() {
		s.finalize()
		return s.fatalError()
	}

	s.runFrame()

	return nil
}

// StepWhilePaused drives one frame while the frame loop is paused. The
// pause excludes Run from the frame path, so the frame runs on the
// caller's goroutine. It fails if the loop is not paused.
func (s *Scheduler) StepWhilePaused() error {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return fmt.Errorf("frame loop is not paused")
	}

	if s.State() == StateStopped {
		return s.fatalError()
	}

	if s.State() == StateStopping || s.stopRequested.Load() {
		s.finalize()
		return s.fatalError()
	}

	s.runFrame()

	return nil
}

func (s *Scheduler) fatalError() error {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()

	return s.fatal
}

func (s *Scheduler) setState(state SchedulerState) {
	s.stateLock.Lock()
	s.state = state
	s.stateLock.Unlock()
}

func (s *Scheduler) runFrame() {
	if s.State() == StateUnsealed {
		s.registry.Seal()
		s.lastTime = s.clock.Now()
		s.setState(StateRunning)
	}

	fctx := s.buildFrameContext()
	s.InvokeHook(HookCtx{Domain: s, Pos: HookPosFrameStart, Item: fctx})

	s.pollInput()

	drained, err := s.bus.DrainQueue(fctx)
	if err != nil {
		s.logger.Printf("frame %d: %s", fctx.FrameIndex, err)
	}

	updated := s.updatePass(fctx)

	freed := s.store.Compact()

	if err := s.renderPass(fctx); err != nil {
		s.frameAdapterFailure("renderer", fctx, err)
	} else if err := s.audioPass(fctx); err != nil {
		s.frameAdapterFailure("audio", fctx, err)
	}

	s.InvokeHook(HookCtx{
		Domain: s,
		Pos:    HookPosFrameEnd,
		Item:   fctx,
		Detail: FrameStats{
			LiveObjects:    s.store.Len(),
			UpdatedObjects: updated,
			EventsDrained:  drained,
			FreedSlots:     freed,
		},
	})
}

func (s *Scheduler) buildFrameContext() *FrameContext {
	now := s.clock.Now()
	var delta time.Duration
	if !s.lastTime.IsZero() {
		delta = now.Sub(s.lastTime)
	}
	s.lastTime = now

	index := s.frameCount.Add(1) - 1

	s.lastCtx = FrameContext{
		FrameIndex: index,
		DeltaTime:  Seconds(delta.Seconds()),
		WallClock:  now,
	}

	return &s.lastCtx
}

func (s *Scheduler) pollInput() {
	if s.window != nil {
		if s.window.CloseRequested() {
			s.Stop()
		}

		for _, raw := range s.window.PollEvents() {
			if raw.Kind == WindowEventClose {
				s.Stop()
				continue
			}

			_ = s.bus.PublishNextFrame(MakeInputEvent(raw))
		}
	}

	for _, ev := range s.handoff.TakeAll() {
		_ = s.bus.PublishNextFrame(ev)
	}
}

func (s *Scheduler) updatePass(fctx *FrameContext) int {
	s.updateScratch = s.updateScratch[:0]
	for h := range s.store.EachWithCapability(CapUpdatable) {
		s.updateScratch = append(s.updateScratch, h)
	}

	updated := 0
	for _, h := range s.updateScratch {
		// A destroy earlier in this frame wins: the routine observes its
		// cancellation by never being resumed again.
		if !s.store.Alive(h) || s.store.updateFinished(h) {
			continue
		}

		instance, err := s.store.Get(h)
		if err != nil {
			continue
		}

		updatable, ok := instance.(Updatable)
		if !ok {
			s.logger.Printf(
				"%s declares Updatable but %T does not implement it",
				h, instance)
			s.store.markUpdateFinished(h)
			continue
		}

		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosBeforeUpdate, Item: h})

		if s.resumeObject(h, updatable, fctx) == StatusFinished {
			s.store.markUpdateFinished(h)
		}
		updated++

		s.InvokeHook(HookCtx{Domain: s, Pos: HookPosAfterUpdate, Item: h})
	}

	return updated
}

// resumeObject resumes one routine and isolates its failures: a panic is
// recovered at this boundary, converted into an UpdateFailedEvent, and
// the rest of the frame proceeds. A panicked routine is not resumed
// again.
func (s *Scheduler) resumeObject(
	h Handle,
	updatable Updatable,
	fctx *FrameContext,
) (status UpdateStatus) {
	defer func() {
		if r := recover(); r != nil {
			status = StatusFinished
			s.logger.Printf("update of %s panicked: %v", h, r)
			_ = s.bus.Publish(MakeUpdateFailedEvent(h, r))
		}
	}()

	uctx := &UpdateContext{
		Frame: fctx,
		Self:  h,
		Store: s.store,
		Bus:   s.bus,
	}

	return updatable.Update(uctx)
}

func (s *Scheduler) renderPass(fctx *FrameContext) error {
	if s.renderer == nil {
		return nil
	}

	if err := s.renderer.BeginFrame(fctx); err != nil {
		return err
	}

	for h := range s.store.EachWithCapability(CapRenderable) {
		instance, err := s.store.Get(h)
		if err != nil {
			continue
		}

		renderable, ok := instance.(Renderable)
		if !ok {
			continue
		}

		if err := s.renderer.Submit(h, renderable.RenderView()); err != nil {
			return err
		}
	}

	return s.renderer.EndFrame()
}

func (s *Scheduler) audioPass(fctx *FrameContext) error {
	if s.audio == nil {
		return nil
	}

	if err := s.audio.BeginFrame(fctx); err != nil {
		return err
	}

	for h := range s.store.EachWithCapability(CapAudible) {
		instance, err := s.store.Get(h)
		if err != nil {
			continue
		}

		audible, ok := instance.(Audible)
		if !ok {
			continue
		}

		if err := s.audio.Submit(h, audible.AudioView()); err != nil {
			return err
		}
	}

	return s.audio.EndFrame()
}

// frameAdapterFailure handles an error from the renderer or audio pass.
// A device loss transitions the scheduler to stopping; anything else
// voids the frame and the loop keeps going.
func (s *Scheduler) frameAdapterFailure(
	subsystem string,
	fctx *FrameContext,
	err error,
) {
	// Adapters construct DeviceLostError both as a value and through a
	// pointer; treat the two forms the same.
	var lost DeviceLostError
	var lostPtr *DeviceLostError
	if errors.As(err, &lost) || errors.As(err, &lostPtr) {
		s.logger.Printf("frame %d: %s", fctx.FrameIndex, err)
		s.enterStopping(err)
		return
	}

	s.logger.Printf(
		"frame %d skipped: %s failed: %s", fctx.FrameIndex, subsystem, err)
}

func (s *Scheduler) enterStopping(fatal error) {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.state != StateRunning {
		return
	}

	s.state = StateStopping
	s.fatal = fatal
	s.store.Close()
}

// finalize drains the remaining queued events, shuts the adapters down,
// and moves the scheduler to the terminal state.
func (s *Scheduler) finalize() {
	if s.State() == StateStopped {
		return
	}

	s.stateLock.Lock()
	if s.state != StateStopping {
		s.state = StateStopping
		s.store.Close()
	}
	s.stateLock.Unlock()

	fctx := s.buildFrameContext()
	if _, err := s.bus.DrainQueue(fctx); err != nil {
		s.logger.Printf("final drain: %s", err)
	}
	s.store.Compact()

	if s.window != nil {
		s.window.Shutdown()
	}
	if s.renderer != nil {
		s.renderer.Shutdown()
	}
	if s.audio != nil {
		s.audio.Shutdown()
	}

	s.setState(StateStopped)

	for _, h := range s.stopHandlers {
		h.Handle(fctx)
	}
}
