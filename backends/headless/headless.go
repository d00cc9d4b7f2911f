// Package headless provides backend adapters that run the engine without
// a display or an audio device. The window replays scripted events, and
// the renderer and audio sink record what the engine submitted, which
// makes them useful for tests, servers, and batch tools.
package headless

import (
	"sync"

	"github.com/keelengine/keel/core"
)

// Window is a WindowAdapter fed by script instead of an OS event queue.
// Push and RequestClose are safe to call from any goroutine.
type Window struct {
	mu        sync.Mutex
	pending   []core.WindowEvent
	closeReq  bool
	shutdowns int
}

// NewWindow creates a Window with an empty event script.
func NewWindow() *Window {
	return &Window{}
}

// Push queues raw events for the next poll.
func (w *Window) Push(events ...core.WindowEvent) {
	w.mu.Lock()
	w.pending = append(w.pending, events...)
	w.mu.Unlock()
}

// RequestClose makes the window report a pending close.
func (w *Window) RequestClose() {
	w.mu.Lock()
	w.closeReq = true
	w.mu.Unlock()
}

func (w *Window) PollEvents() []core.WindowEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	events := w.pending
	w.pending = nil

	return events
}

func (w *Window) CloseRequested() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.closeReq
}

func (w *Window) Shutdown() {
	w.mu.Lock()
	w.shutdowns++
	w.mu.Unlock()
}

// ShutdownCount reports how many times Shutdown was called.
func (w *Window) ShutdownCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.shutdowns
}

// A RenderedItem is one submission recorded by the renderer.
type RenderedItem struct {
	Object core.Handle
	View   core.RenderView
}

// Renderer is a RendererAdapter that keeps the submissions of the most
// recent completed frame.
type Renderer struct {
	current   []RenderedItem
	lastFrame []RenderedItem
	inFrame   bool
}

// NewRenderer creates a recording renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) BeginFrame(_ *core.FrameContext) error {
	r.current = r.current[:0]
	r.inFrame = true
	return nil
}

func (r *Renderer) Submit(h core.Handle, view core.RenderView) error {
	r.current = append(r.current, RenderedItem{Object: h, View: view})
	return nil
}

func (r *Renderer) EndFrame() error {
	r.lastFrame = append(r.lastFrame[:0], r.current...)
	r.inFrame = false
	return nil
}

func (r *Renderer) Shutdown() {}

// LastFrame returns the submissions of the most recent completed frame.
func (r *Renderer) LastFrame() []RenderedItem {
	return r.lastFrame
}

// A PlayedItem is one submission recorded by the audio sink.
type PlayedItem struct {
	Object core.Handle
	View   core.AudioView
}

// Audio is an AudioAdapter that keeps the submissions of the most recent
// completed frame.
type Audio struct {
	current   []PlayedItem
	lastFrame []PlayedItem
}

// NewAudio creates a recording audio sink.
func NewAudio() *Audio {
	return &Audio{}
}

func (a *Audio) BeginFrame(_ *core.FrameContext) error {
	a.current = a.current[:0]
	return nil
}

func (a *Audio) Submit(h core.Handle, view core.AudioView) error {
	a.current = append(a.current, PlayedItem{Object: h, View: view})
	return nil
}

func (a *Audio) EndFrame() error {
	a.lastFrame = append(a.lastFrame[:0], a.current...)
	return nil
}

func (a *Audio) Shutdown() {}

// LastFrame returns the submissions of the most recent completed frame.
func (a *Audio) LastFrame() []PlayedItem {
	return a.lastFrame
}
