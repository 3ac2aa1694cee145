// sonicnav - heading guidance service with a stereo audio cue
// Accepts camera frames over a websocket (or simulates a walk) and answers
// each with a turn instruction while the synthesizer plays the cue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-sonicnav/internal/config"
	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/audioio"
)

type options struct {
	configPath string
	source     string
	debug      bool
	wavPath    string
	addr       string
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := log.Init(log.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, opts.source, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.shutdown()

	if err := a.run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		a.shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags.
func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Config file (default: ./sonicnav.{yaml,json,toml} if present)")
	flag.StringVar(&o.source, "source", sourceWeb, "Frame source: web (AR host over websocket) or sim (scripted walk)")
	flag.BoolVar(&o.debug, "debug", false, "Enable verbose debug logging")
	flag.StringVar(&o.wavPath, "wav", "", "Record the audio cue to this WAV file")
	flag.StringVar(&o.addr, "addr", "", "Listen address (overrides web.addr)")
	flag.Parse()
	return o
}

// applyFlags layers command line overrides on top of the loaded config.
func applyFlags(cfg *config.Config, o options) {
	if o.debug {
		cfg.Log.Level = "debug"
	}
	if o.wavPath != "" {
		cfg.Audio.Backend = audioio.BackendWAV
		cfg.Audio.Path = o.wavPath
	}
	if o.addr != "" {
		cfg.Web.Addr = o.addr
	}
}
