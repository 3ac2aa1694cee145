// replay - drive a running sonicnav service with recorded frames
// Reads a JSON-lines log of protocol messages, sends them over /ws/frames
// with their original pacing and prints the guidance that comes back.
// With -generate it writes such a log from the scripted camera instead.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-sonicnav/internal/log"
	"github.com/teslashibe/go-sonicnav/pkg/tracking"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/frames", "Frame socket URL")
	file := flag.String("file", "frames.jsonl", "Frame log to replay (or write, with -generate)")
	speed := flag.Float64("speed", 1.0, "Playback speed multiplier")
	generateFor := flag.Duration("generate", 0, "Write a simulated walk of this length to -file and exit")
	debug := flag.Bool("debug", false, "Log every guidance message")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger := log.Init(log.Options{Level: level})

	if *generateFor > 0 {
		f, err := os.Create(*file)
		if err != nil {
			logger.Error("create frame log", "error", err)
			os.Exit(1)
		}
		w := bufio.NewWriter(f)
		n, err := generate(w, tracking.DefaultConfig(), time.Now(), *generateFor)
		if err == nil {
			err = w.Flush()
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			logger.Error("write frame log", "error", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d frames to %s\n", n, *file)
		return
	}

	if *speed <= 0 {
		fmt.Fprintln(os.Stderr, "❌ -speed must be positive")
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("open frame log", "error", err)
		os.Exit(1)
	}
	msgs, err := readLog(f)
	f.Close()
	if err != nil {
		logger.Error("read frame log", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stats, err := replay(ctx, *url, msgs, *speed, logger)
	logger.Info("replay finished", "sent", stats.Sent, "guidance", stats.Guidance, "errors", stats.Errors)
	if err != nil && ctx.Err() == nil {
		logger.Error("replay failed", "error", err)
		os.Exit(1)
	}
}
