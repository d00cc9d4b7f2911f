//go:build sdl2

package sdl

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/keelengine/keel/core"
)

// Initialize starts the SDL subsystems the backend needs. Call it once,
// from the main goroutine, before Open.
func Initialize() error {
	return sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS)
}

// Config describes the window and asset locations of a Device.
type Config struct {
	Title         string
	Width, Height int32

	// AssetDir is searched for "<SpriteID>.bmp" and "<ClipID>.wav".
	AssetDir string
}

// A Device owns the SDL window, renderer, and audio device, and hands
// out the three engine adapters backed by them. All adapter calls must
// stay on the goroutine that called Open.
type Device struct {
	window   *Window
	renderer *Renderer
	audio    *Audio
}

// Open creates the SDL window and audio device described by cfg.
func Open(cfg Config) (*Device, error) {
	window, err := sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		cfg.Width,
		cfg.Height,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, err
	}

	var spec sdl.AudioSpec
	audioDevice, err := sdl.OpenAudioDevice(
		"",
		false,
		&sdl.AudioSpec{
			Freq:     48000,
			Format:   sdl.AUDIO_S16LSB,
			Channels: 2,
			Samples:  4096,
		},
		&spec,
		0,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, err
	}
	sdl.PauseAudioDevice(audioDevice, false)

	d := &Device{
		window: &Window{window: window},
		renderer: &Renderer{
			renderer: renderer,
			assetDir: cfg.AssetDir,
			textures: make(map[string]*sdl.Texture),
		},
		audio: &Audio{
			device:   audioDevice,
			spec:     spec,
			assetDir: cfg.AssetDir,
			clips:    make(map[string][]byte),
		},
	}

	return d, nil
}

// Window returns the window adapter of the device.
func (d *Device) Window() *Window {
	return d.window
}

// Renderer returns the renderer adapter of the device.
func (d *Device) Renderer() *Renderer {
	return d.renderer
}

// Audio returns the audio adapter of the device.
func (d *Device) Audio() *Audio {
	return d.audio
}

// Window adapts the SDL event queue to the engine.
type Window struct {
	window   *sdl.Window
	closeReq bool
}

func (w *Window) PollEvents() []core.WindowEvent {
	var events []core.WindowEvent

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			w.closeReq = true
			events = append(events, core.WindowEvent{
				Kind: core.WindowEventClose,
			})

		case *sdl.KeyboardEvent:
			if ev.Repeat > 0 {
				continue
			}
			events = append(events, core.WindowEvent{
				Kind:    core.WindowEventKey,
				Code:    int32(ev.Keysym.Sym),
				Pressed: ev.Type == sdl.KEYDOWN,
			})

		case *sdl.MouseMotionEvent:
			events = append(events, core.WindowEvent{
				Kind: core.WindowEventPointer,
				X:    ev.X,
				Y:    ev.Y,
			})

		case *sdl.MouseButtonEvent:
			events = append(events, core.WindowEvent{
				Kind:    core.WindowEventPointer,
				Code:    int32(ev.Button),
				Pressed: ev.Type == sdl.MOUSEBUTTONDOWN,
				X:       ev.X,
				Y:       ev.Y,
			})

		case *sdl.WindowEvent:
			if ev.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				events = append(events, core.WindowEvent{
					Kind: core.WindowEventResize,
					X:    ev.Data1,
					Y:    ev.Data2,
				})
			}
		}
	}

	return events
}

func (w *Window) CloseRequested() bool {
	return w.closeReq
}

func (w *Window) Shutdown() {
	w.window.Destroy()
}

// Renderer draws submitted views with the SDL 2D renderer. Sprites are
// BMP files in the asset directory, cached as textures on first use.
type Renderer struct {
	renderer *sdl.Renderer
	assetDir string
	textures map[string]*sdl.Texture
	frame    []drawItem
}

type drawItem struct {
	view core.RenderView
	tex  *sdl.Texture
}

func (r *Renderer) BeginFrame(_ *core.FrameContext) error {
	r.frame = r.frame[:0]

	if err := r.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return core.DeviceLostError{Subsystem: "renderer", Cause: err}
	}
	if err := r.renderer.Clear(); err != nil {
		return core.DeviceLostError{Subsystem: "renderer", Cause: err}
	}

	return nil
}

func (r *Renderer) Submit(_ core.Handle, view core.RenderView) error {
	if !view.Visible {
		return nil
	}

	tex, err := r.texture(view.SpriteID)
	if err != nil {
		// A missing sprite voids the frame but is not fatal.
		return fmt.Errorf("sprite %q: %w", view.SpriteID, err)
	}

	r.frame = append(r.frame, drawItem{view: view, tex: tex})

	return nil
}

func (r *Renderer) EndFrame() error {
	sort.SliceStable(r.frame, func(i, j int) bool {
		return r.frame[i].view.Layer < r.frame[j].view.Layer
	})

	for _, item := range r.frame {
		_, _, w, h, err := item.tex.Query()
		if err != nil {
			return core.DeviceLostError{Subsystem: "renderer", Cause: err}
		}

		dst := sdl.Rect{
			X: int32(item.view.X),
			Y: int32(item.view.Y),
			W: w,
			H: h,
		}
		if err := r.renderer.Copy(item.tex, nil, &dst); err != nil {
			return core.DeviceLostError{Subsystem: "renderer", Cause: err}
		}
	}

	r.renderer.Present()

	return nil
}

func (r *Renderer) Shutdown() {
	for _, tex := range r.textures {
		tex.Destroy()
	}
	r.renderer.Destroy()
}

func (r *Renderer) texture(spriteID string) (*sdl.Texture, error) {
	if tex, ok := r.textures[spriteID]; ok {
		return tex, nil
	}

	surface, err := sdl.LoadBMP(
		filepath.Join(r.assetDir, spriteID+".bmp"))
	if err != nil {
		return nil, err
	}
	defer surface.Free()

	tex, err := r.renderer.CreateTextureFromSurface(surface)
	if err != nil {
		return nil, err
	}

	r.textures[spriteID] = tex

	return tex, nil
}

// Audio queues submitted clips on the SDL audio device. Clips are WAV
// files in the asset directory, cached as raw sample data on first use.
// Looping clips are requeued whenever the device queue runs dry.
type Audio struct {
	device   sdl.AudioDeviceID
	spec     sdl.AudioSpec
	assetDir string
	clips    map[string][]byte
	frame    []core.AudioView
}

func (a *Audio) BeginFrame(_ *core.FrameContext) error {
	a.frame = a.frame[:0]
	return nil
}

func (a *Audio) Submit(_ core.Handle, view core.AudioView) error {
	a.frame = append(a.frame, view)
	return nil
}

func (a *Audio) EndFrame() error {
	queued := sdl.GetQueuedAudioSize(a.device)

	for _, view := range a.frame {
		if view.Loop && queued > 0 {
			continue
		}

		data, err := a.clip(view.ClipID)
		if err != nil {
			return fmt.Errorf("clip %q: %w", view.ClipID, err)
		}

		if err := sdl.QueueAudio(a.device, data); err != nil {
			return core.DeviceLostError{Subsystem: "audio", Cause: err}
		}
	}

	return nil
}

func (a *Audio) Shutdown() {
	sdl.CloseAudioDevice(a.device)
}

func (a *Audio) clip(clipID string) ([]byte, error) {
	if data, ok := a.clips[clipID]; ok {
		return data, nil
	}

	data, _, err := sdl.LoadWAV(
		filepath.Join(a.assetDir, clipID+".wav"))
	if err != nil {
		return nil, err
	}

	a.clips[clipID] = data

	return data, nil
}
