package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	c "lautenbacher.net/gofeeder/config"
	"lautenbacher.net/gofeeder/feeder"
	"lautenbacher.net/gofeeder/logging"
	pl "lautenbacher.net/gofeeder/platform"
)

const (
	readyTimeout    = 10 * time.Second
	shutdownTimeout = 2 * time.Second
)

// App owns one platform and one feeder loop at a time and replaces both on
// a reload. The status feed and the web server live as long as the App.
type App struct {
	ossignal     chan os.Signal
	configPath   string
	realHW       bool
	withViewer   bool
	readyTimeout time.Duration
	newPlatform  func(conf *c.Config, ossignal chan os.Signal, withViewer bool) pl.Platform

	feed     *feeder.StatusFeed
	server   *http.Server
	conf     *c.Config
	platform pl.Platform
	stopLoop context.CancelFunc
	loopDone chan struct{}
}

func NewApp(ossignal chan os.Signal, configPath string, realHW, withViewer bool) *App {
	return &App{
		ossignal:     ossignal,
		configPath:   configPath,
		realHW:       realHW,
		withViewer:   withViewer,
		readyTimeout: readyTimeout,
		newPlatform:  newPlatform,
		feed:         feeder.NewStatusFeed(),
	}
}

func newPlatform(conf *c.Config, ossignal chan os.Signal, withViewer bool) pl.Platform {
	if conf.RealHW {
		p := pl.NewRaspberryPiPlatform(conf)
		if withViewer {
			p.SetStatusViewer(pl.NewStatusViewer(ossignal))
		}
		return p
	}
	return pl.NewTUIPlatform(conf, ossignal)
}

// Run starts the loop and serves signals until SIGINT, SIGTERM or ctx ends.
// SIGHUP reloads the config file.
func (a *App) Run(ctx context.Context) error {
	conf, err := c.ReadConfig(a.configPath, a.realHW)
	if err != nil {
		return err
	}
	if err := a.start(conf); err != nil {
		return err
	}

	signal.Notify(a.ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(a.ossignal)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if err := c.Watch(watchCtx, a.configPath, a.requestReload); err != nil {
		slog.Warn("Config file is not watched, use SIGHUP to reload", "error", err)
	}

	if conf.Web.Enabled {
		a.startWebServer(conf.Web.Address)
	}

	err = a.serveSignals(ctx)
	a.shutdown()
	return err
}

func (a *App) serveSignals(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			return nil
		case sig := <-a.ossignal:
			if sig != syscall.SIGHUP {
				slog.Info("Received signal, shutting down", "signal", sig)
				return nil
			}
			if err := a.reload(); err != nil {
				return err
			}
		}
	}
}

// requestReload is called by the config watcher. A reload that is already
// queued covers this one too.
func (a *App) requestReload() {
	select {
	case a.ossignal <- syscall.SIGHUP:
	default:
	}
}

// reload validates the config file before anything is torn down. A broken
// file leaves the running setup alone.
func (a *App) reload() error {
	slog.Info("Reloading configuration", "file", a.configPath)
	conf, err := c.ReadConfig(a.configPath, a.realHW)
	if err != nil {
		slog.Error("Keeping current configuration", "error", err)
		return nil
	}

	previous := a.conf
	a.stop()
	if err := a.start(conf); err != nil {
		if restoreErr := a.start(previous); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("can't restore previous configuration: %w", restoreErr))
		}
		slog.Error("New configuration failed to start, restored the previous one", "error", err)
	}
	return nil
}

// start sets up logging, the platform and the loop for conf. On error
// nothing is left running.
func (a *App) start(conf *c.Config) error {
	if err := a.initLogging(conf); err != nil {
		return fmt.Errorf("can't init logging: %w", err)
	}
	slog.Info("Starting gofeeder", "config", conf.Configfile, "realhw", conf.RealHW)

	platform := a.newPlatform(conf, a.ossignal, a.withViewer)
	if err := platform.Start(a.feed); err != nil {
		a.abort(nil)
		return fmt.Errorf("can't start platform: %w", err)
	}

	select {
	case <-platform.Ready():
	case <-time.After(a.readyTimeout):
		a.abort(platform)
		return fmt.Errorf("platform not ready after %s", a.readyTimeout)
	}

	co, err := feeder.NewCoordinator(conf, platform.Hardware(), a.feed)
	if err != nil {
		a.abort(platform)
		return fmt.Errorf("can't create feeder loop: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		co.Run(ctx)
	}()

	a.conf = conf
	a.platform = platform
	a.stopLoop = cancel
	a.loopDone = done
	return nil
}

func (a *App) abort(platform pl.Platform) {
	if platform != nil {
		logging.BufferOutput()
		platform.Stop()
	}
	if err := logging.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Error closing log:", err)
	}
}

func (a *App) initLogging(conf *c.Config) error {
	if conf.RealHW {
		// The status viewer owns the terminal, hold the lines back until exit.
		return logging.Init(conf.Logging.HW, a.withViewer)
	}
	return logging.Init(conf.Logging.TUI, true)
}

// stop ends the loop first so the outputs are parked before the platform
// releases them.
func (a *App) stop() {
	if a.platform == nil {
		return
	}
	a.stopLoop()
	<-a.loopDone
	if !a.conf.RealHW {
		// The log pane goes away with the TUI.
		logging.BufferOutput()
	}
	a.platform.Stop()
	a.platform = nil
	if err := logging.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Error closing log:", err)
	}
}

func (a *App) startWebServer(address string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", c.ConfigHandler(a.configPath))
	mux.Handle("/api/status", a.feed)

	a.server = &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Starting web server", "address", address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Web server failed", "error", err)
		}
	}()
}

func (a *App) shutdown() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("Error stopping web server", "error", err)
		}
		cancel()
		a.server = nil
	}
	a.stop()
}
