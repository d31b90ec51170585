package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentwatch/config"
	"agentwatch/poller"
	"agentwatch/stats"
	"agentwatch/ui"

	"golang.org/x/term"
)

// Purpose: Wire the poller, counters, logging and the selected UI surface
// into the running dashboard process.
// Key aspects: The poller owns the agent connection, the render loop owns
// the surface. They meet only through immutable views and snapshots, so
// neither blocks the other.
// Upstream: operator invocation.
// Downstream: config, poller, stats, ui, the console renderer.

const version = "1.2.0"

// statsLogInterval is how often a counter summary goes to the log file only.
const statsLogInterval = 60 * time.Second

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $AGENTWATCH_CONFIG, then ./config.yaml)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("agentwatch %s\n", version)
		return
	}

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	console := io.Writer(os.Stdout)
	if cfg.Logging.ToStderr {
		console = os.Stderr
	}
	fanout, err := setupLogging(cfg.Logging, console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer fanout.Close()
	log.SetOutput(fanout)
	cfg.Print()

	renderAllowed := isStdoutTTY()
	mode := cfg.UI.Mode
	if mode == "tview" && !renderAllowed {
		// tview needs a terminal; fall back rather than garble a pipe.
		mode = "console"
	}

	var surface ui.Surface
	switch mode {
	case "headless":
		log.Printf("agentwatch %s starting headless", version)
	case "tview":
		surface = ui.NewDashboard(cfg.UI, true)
	default:
		surface = newANSIConsole(cfg.UI, renderAllowed)
	}

	if surface != nil {
		surface.WaitReady()
		defer surface.Stop()
		log.SetFlags(0)
		fanout.SetConsoleSink(surface.SystemWriter(), false)
		surface.SetStats([]string{"Initializing..."})
	}

	tracker := stats.NewTracker()
	kick := make(chan struct{}, 1)

	manager := poller.NewManager(poller.Config{
		URL:              cfg.Agent.URL,
		Username:         cfg.Agent.Username,
		Password:         cfg.Agent.Password,
		IntervalMS:       cfg.Poll.IntervalMS,
		RequestTimeoutMS: cfg.Poll.RequestTimeoutMS,
		SeenLimit:        cfg.Poll.SeenLimit,
	}, poller.Options{
		Logger:     log.Default(),
		Tracker:    tracker,
		OnActivity: makeActivityReporter(surface),
		OnTransition: func(poller.ConnState) {
			select {
			case kick <- struct{}{}:
			default:
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Start(ctx)
	defer manager.Stop()

	refresh := time.Duration(cfg.UI.RefreshMS) * time.Millisecond
	renderTick := time.NewTicker(refresh)
	defer renderTick.Stop()
	statsTick := time.NewTicker(statsLogInterval)
	defer statsTick.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	render := func() {
		if surface == nil {
			return
		}
		surface.SetSnapshot(buildSnapshot(manager.View(), tracker, cfg.Agent.URL, time.Now()))
	}
	render()

	var done <-chan struct{}
	if d, ok := surface.(*ui.Dashboard); ok {
		done = d.Done()
	}

	for {
		select {
		case <-renderTick.C:
			render()
		case <-kick:
			render()
		case <-statsTick.C:
			for _, line := range tracker.SnapshotLines() {
				if surface == nil {
					log.Print(line)
				} else {
					fanout.WriteFileOnlyLine(line, time.Now())
				}
			}
		case sig := <-sigCh:
			log.Printf("received %v, shutting down", sig)
			return
		case <-done:
			return
		}
	}
}
