package engine

import (
	"log"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/keelengine/keel/core"
	"github.com/keelengine/keel/monitoring"
	"github.com/keelengine/keel/recording"
)

// Builder can be used to build an engine.
type Builder struct {
	window   core.WindowAdapter
	renderer core.RendererAdapter
	audio    core.AudioAdapter
	clock    core.Clock

	monitorOn   bool
	monitorPort int
	openBrowser bool

	outputFileName  string
	maxCascadeDepth int
	targetFrameTime time.Duration

	debugLogging bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithWindowAdapter sets the window backend of the engine.
func (b Builder) WithWindowAdapter(w core.WindowAdapter) Builder {
	b.window = w
	return b
}

// WithRendererAdapter sets the renderer backend of the engine.
func (b Builder) WithRendererAdapter(r core.RendererAdapter) Builder {
	b.renderer = r
	return b
}

// WithAudioAdapter sets the audio backend of the engine.
func (b Builder) WithAudioAdapter(a core.AudioAdapter) Builder {
	b.audio = a
	return b
}

// WithClock sets the clock that frame timing reads. The default is the
// system clock.
func (b Builder) WithClock(c core.Clock) Builder {
	b.clock = c
	return b
}

// WithoutMonitoring sets the engine to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring server in the default browser once
// the engine is built.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithOutputFileName sets the custom output file name for the data
// recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMaxCascadeDepth sets the bound on chained event publishes within
// one frame.
func (b Builder) WithMaxCascadeDepth(depth int) Builder {
	b.maxCascadeDepth = depth
	return b
}

// WithTargetFrameTime caps the frame rate of Run.
func (b Builder) WithTargetFrameTime(d time.Duration) Builder {
	b.targetFrameTime = d
	return b
}

// WithDebugLogging attaches log hooks that print every delivered event
// and a summary line per frame.
func (b Builder) WithDebugLogging() Builder {
	b.debugLogging = true
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}
}

// Build builds the engine.
func (b Builder) Build() *Engine {
	b.parametersMustBeValid()

	e := &Engine{
		id: xid.New().String(),
	}

	e.registry = core.NewRegistry()
	e.store = core.NewStore(e.registry)

	e.bus = core.NewBus()
	if b.maxCascadeDepth > 0 {
		e.bus = core.NewBusWithDepthBound(b.maxCascadeDepth)
	}

	e.scheduler = core.NewScheduler(
		e.registry, e.store, e.bus,
		b.window, b.renderer, b.audio,
		b.clock)
	if b.targetFrameTime > 0 {
		e.scheduler.SetTargetFrameTime(b.targetFrameTime)
	}

	b.buildRecorder(e)

	if b.debugLogging {
		logger := log.New(os.Stderr, "", log.LstdFlags)
		e.scheduler.AcceptHook(core.NewFrameLogger(logger))
		e.bus.AcceptHook(core.NewEventLogger(logger))
	}

	if b.monitorOn {
		b.buildMonitor(e)
	}

	return e
}

func (b Builder) buildRecorder(e *Engine) {
	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "keel_run_" + e.id
	}
	e.recorder = recording.New(outputPath)

	e.scheduler.AcceptHook(recording.NewFrameLog(e.recorder))
	e.bus.AcceptHook(recording.NewIncidentLog(e.recorder))
	e.bus.AcceptHook(recording.NewStormLog(e.recorder))
}

func (b Builder) buildMonitor(e *Engine) {
	e.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		e.monitor.WithPortNumber(b.monitorPort)
	}
	if b.openBrowser {
		e.monitor.WithBrowser()
	}

	e.monitor.RegisterScheduler(e.scheduler)
	e.monitor.RegisterStore(e.store)
	e.monitor.RegisterRegistry(e.registry)
	e.monitor.StartServer()
}
