package main

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/keelengine/keel/backends/headless"
	"github.com/keelengine/keel/engine"
)

type runConfig struct {
	MonitorOn   bool   `env:"KEEL_MONITOR" envDefault:"true"`
	MonitorPort int    `env:"KEEL_MONITOR_PORT" envDefault:"0"`
	OpenBrowser bool   `env:"KEEL_OPEN_BROWSER" envDefault:"false"`
	OutputFile  string `env:"KEEL_RECORDING_FILE"`
	TargetFPS   int    `env:"KEEL_TARGET_FPS" envDefault:"60"`
	Debug       bool   `env:"KEEL_DEBUG" envDefault:"false"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in demo scene.",
	Long: "`run` builds an engine with the headless backend, spawns the " +
		"demo scene, and drives frames until the frame budget runs out " +
		"or the engine is stopped through the monitor.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		frames, _ := cmd.Flags().GetUint64("frames")
		return runScene(frames)
	},
}

func init() {
	runCmd.Flags().Uint64("frames",
		0, "number of frames to run, 0 for unlimited")
	rootCmd.AddCommand(runCmd)
}

func runScene(frames uint64) error {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	var cfg runConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	e := buildEngine(cfg)
	defer e.Terminate()

	if err := registerDemoTypes(e); err != nil {
		return err
	}

	if err := spawnDemoScene(e); err != nil {
		return err
	}

	if frames > 0 {
		go stopAfter(e, frames)
	}

	err := e.Run()
	if err != nil {
		return err
	}

	log.Printf("run %s finished after %d frames",
		e.ID(), e.Scheduler().FrameCount())

	return nil
}

func buildEngine(cfg runConfig) *engine.Engine {
	b := engine.MakeBuilder().
		WithWindowAdapter(headless.NewWindow()).
		WithRendererAdapter(headless.NewRenderer()).
		WithAudioAdapter(headless.NewAudio())

	if cfg.TargetFPS > 0 {
		b = b.WithTargetFrameTime(
			time.Second / time.Duration(cfg.TargetFPS))
	}

	if cfg.OutputFile != "" {
		b = b.WithOutputFileName(cfg.OutputFile)
	}

	if cfg.Debug {
		b = b.WithDebugLogging()
	}

	if !cfg.MonitorOn {
		b = b.WithoutMonitoring()
	} else {
		if cfg.MonitorPort > 0 {
			b = b.WithMonitorPort(cfg.MonitorPort)
		}
		if cfg.OpenBrowser {
			b = b.WithBrowser()
		}
	}

	return b.Build()
}

func stopAfter(e *engine.Engine, frames uint64) {
	for e.Scheduler().FrameCount() < frames {
		time.Sleep(time.Millisecond)
	}
	e.Stop()
}
