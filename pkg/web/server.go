// Package web serves the guidance API: a frame socket for AR hosts, a
// status socket for observers and a small REST surface.
package web

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-sonicnav/pkg/hub"
	"github.com/teslashibe/go-sonicnav/pkg/navigator"
	"github.com/teslashibe/go-sonicnav/pkg/protocol"
)

// Config configures the HTTP listener.
type Config struct {
	Addr      string `mapstructure:"addr" json:"addr"`
	StaticDir string `mapstructure:"static_dir" json:"static_dir"`
	// MaxFrameBytes caps a single frame message.
	MaxFrameBytes int64 `mapstructure:"max_frame_bytes" json:"max_frame_bytes"`
}

// DefaultConfig listens on :8080 with no static files.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		MaxFrameBytes: 64 * 1024,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("web: addr required")
	}
	if c.MaxFrameBytes <= 0 {
		return errors.New("web: max_frame_bytes must be positive")
	}
	return nil
}

// Server is the guidance web server
type Server struct {
	app    *fiber.App
	cfg    Config
	nav    *navigator.Navigator
	logger *slog.Logger

	// Observers of every frame's guidance
	statusHub *hub.Hub

	frameID atomic.Uint64
}

// NewServer creates a server driving nav. It registers a status observer
// on nav so every processed frame reaches /ws/status.
func NewServer(cfg Config, nav *navigator.Navigator, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if nav == nil {
		return nil, errors.New("web: navigator required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		nav:       nav,
		logger:    logger,
		statusHub: hub.New("status", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "sonicnav",
		DisableStartupMessage: true,
		BodyLimit:             int(cfg.MaxFrameBytes),
	})

	app.Use(recover.New())
	// CORS for browser-based hosts
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Post("/frames", s.handlePostFrame)
	api.Post("/navigation/start", s.handleStart)
	api.Post("/navigation/stop", s.handleStop)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/frames", websocket.New(s.handleFramesWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	nav.OnStatus(s.publishStatus)
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// StatusHub returns the hub fed with every frame's guidance.
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// Run serves until ctx is done, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.statusHub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", "addr", s.cfg.Addr)
		errCh <- s.app.Listen(s.cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// publishStatus forwards a frame's outcome to status observers.
func (s *Server) publishStatus(st navigator.Status) {
	if !s.statusHub.IsRunning() {
		return
	}
	msg, err := protocol.NewGuidanceMessage(st, 0)
	if err != nil {
		s.logger.Error("encode guidance", "error", err)
		return
	}
	if err := s.statusHub.BroadcastJSON(msg); err != nil {
		s.logger.Error("broadcast guidance", "error", err)
	}
}
