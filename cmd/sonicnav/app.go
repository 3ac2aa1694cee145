package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-sonicnav/internal/config"
	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/navigator"
	"github.com/teslashibe/go-sonicnav/pkg/publish"
	"github.com/teslashibe/go-sonicnav/pkg/sonify"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
	"github.com/teslashibe/go-sonicnav/pkg/web"
)

const (
	sourceWeb = "web"
	sourceSim = "sim"
)

type app struct {
	cfg    *config.Config
	source string
	logger *slog.Logger

	engine *tracking.SimEngine
	nav    *navigator.Navigator
	server *web.Server
	pub    *publish.Publisher

	closeOnce sync.Once
}

// newApp wires the service. Components log through the global logger
// installed by log.Init; logger carries the app's own lines.
func newApp(ctx context.Context, cfg *config.Config, source string, logger *slog.Logger) (*app, error) {
	if source != sourceWeb && source != sourceSim {
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", source, sourceWeb, sourceSim)
	}

	a := &app{cfg: cfg, source: source, logger: logger}

	a.engine = tracking.NewSimEngine(log.Component("tracking"))
	driver := sonify.NewDriver(
		sonify.SynthRigFactory(ctx, cfg.Audio, log.Component("synth")),
		log.Component("sonify"),
	)

	nav, err := navigator.New(a.engine, driver, cfg.Navigation, log.Component("navigator"))
	if err != nil {
		return nil, err
	}
	a.nav = nav

	a.server, err = web.NewServer(cfg.Web, nav, log.Component("web"))
	if err != nil {
		return nil, err
	}

	if cfg.MQTT.Enabled {
		a.pub, err = publish.New(cfg.MQTT, log.Component("mqtt"))
		if err != nil {
			return nil, err
		}
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MQTT.Timeout)
		defer cancel()
		if err := a.pub.Connect(connectCtx); err != nil {
			return nil, err
		}
		nav.OnStatus(a.pub.Observe)
		logger.Info("publishing guidance", "broker", cfg.MQTT.Broker, "topic", a.pub.Topic())
	}

	logger.Info("sonicnav ready",
		"source", source,
		"audio", cfg.Audio.Backend,
		"addr", cfg.Web.Addr,
	)
	return a, nil
}

// run serves until ctx is done. In sim mode the scripted camera feeds the
// navigator alongside the web server.
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Run(ctx)
	})

	if a.source == sourceSim {
		cam := tracking.NewScriptedCamera(a.cfg.Simulation.Tracking(), log.Component("camera"))
		frames := make(chan tracking.Frame, 1)
		g.Go(func() error {
			cam.Run(ctx, frames)
			return nil
		})
		g.Go(func() error {
			err := a.nav.Run(ctx, frames)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

func (a *app) shutdown() {
	a.closeOnce.Do(func() {
		if err := a.nav.Close(); err != nil {
			a.logger.Warn("closing navigator", "error", err)
		}
		if a.pub != nil {
			a.pub.Close()
			a.logger.Info("mqtt stats", "published", a.pub.Stats().Published, "failed", a.pub.Stats().Failed)
		}
		a.logger.Info("sonicnav stopped")
	})
}
