// Package engine assembles the core pieces into a ready-to-run engine.
// It owns the registry, store, bus, and scheduler, and wires the
// recording and monitoring services around them.
package engine

import (
	"github.com/keelengine/keel/core"
	"github.com/keelengine/keel/monitoring"
	"github.com/keelengine/keel/recording"
)

// An Engine bundles everything a game needs to register types, spawn
// objects, and drive frames.
type Engine struct {
	id string

	registry  *core.Registry
	store     *core.Store
	bus       *core.Bus
	scheduler *core.Scheduler

	recorder recording.Recorder
	monitor  *monitoring.Monitor
}

// ID returns the unique ID of the engine run.
func (e *Engine) ID() string {
	return e.id
}

// Registry returns the type registry used by the engine.
func (e *Engine) Registry() *core.Registry {
	return e.registry
}

// Store returns the object store used by the engine.
func (e *Engine) Store() *core.Store {
	return e.store
}

// Bus returns the event bus used by the engine.
func (e *Engine) Bus() *core.Bus {
	return e.bus
}

// Scheduler returns the scheduler that drives the engine's frames.
func (e *Engine) Scheduler() *core.Scheduler {
	return e.scheduler
}

// Recorder returns the data recorder used by the engine.
func (e *Engine) Recorder() recording.Recorder {
	return e.recorder
}

// Monitor returns the monitor used by the engine. It is nil when
// monitoring is disabled.
func (e *Engine) Monitor() *monitoring.Monitor {
	return e.monitor
}

// RegisterType registers an object type with the engine.
func (e *Engine) RegisterType(desc core.TypeDescriptor) error {
	return e.registry.Register(desc)
}

// Spawn creates an object of a registered type.
func (e *Engine) Spawn(id core.TypeID, args any) (core.Handle, error) {
	return e.store.Spawn(id, args)
}

// Run drives frames until the engine stops. It blocks.
func (e *Engine) Run() error {
	return e.scheduler.Run()
}

// Step drives a single frame.
func (e *Engine) Step() error {
	return e.scheduler.Step()
}

// Stop asks the engine to shut down after the current frame.
func (e *Engine) Stop() {
	e.scheduler.Stop()
}

// Pause blocks the frame loop after the current frame completes.
func (e *Engine) Pause() {
	e.scheduler.Pause()
}

// Continue resumes a paused frame loop.
func (e *Engine) Continue() {
	e.scheduler.Continue()
}

// Terminate flushes and closes the engine's recorder. Call it after the
// engine has stopped.
func (e *Engine) Terminate() {
	e.recorder.Close()
}
