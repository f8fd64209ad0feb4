package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/wenxinhu03/christmas-tree2/internal/app"
	"github.com/wenxinhu03/christmas-tree2/internal/config"
	"github.com/wenxinhu03/christmas-tree2/internal/logging"
	"github.com/wenxinhu03/christmas-tree2/internal/preview"
	"github.com/wenxinhu03/christmas-tree2/internal/server"
	"github.com/wenxinhu03/christmas-tree2/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "xmastree:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to the YAML config file (default "+config.DefaultFileName+" if present)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: console or json")
	addr := flag.String("addr", "", "HTTP listen address")
	withPreview := flag.Bool("preview", false, "Open the native preview window")
	withTray := flag.Bool("tray", false, "Show the system tray menu")
	mode := flag.String("mode", "", "Startup interaction mode: pointer or gesture")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Flags override the file only when given explicitly.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		case "addr":
			cfg.Server.Addr = *addr
		case "preview":
			cfg.UI.Preview = *withPreview
		case "tray":
			cfg.UI.Tray = *withTray
		case "mode":
			cfg.Mode = *mode
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "source", cfg.Source, "mode", cfg.Mode, "camera", cfg.Camera.Enabled)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{Settings: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Stop()

	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir()
	}
	srvCfg := server.Config{
		StaticDir:  cfg.Server.StaticDir,
		Store:      a.Store(),
		State:      a.State(),
		Modes:      a,
		Pointer:    a.Controller(),
		PhotoSlots: cfg.Pointer.PhotoSlots,
		Logger:     logger.With("component", "http"),
	}
	if g := a.Grabber(); g != nil {
		srvCfg.Frames = g
	}
	srv := server.New(srvCfg)

	if err := a.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, cfg.Server.Addr)
		cancel()
	}()

	// Both the preview and the tray need the main thread; the preview wins.
	switch {
	case cfg.UI.Preview:
		if cfg.UI.Tray {
			logger.Warn("tray disabled while the preview window is open")
		}
		game, err := preview.New(preview.Config{
			State:       a.State(),
			Input:       a.Controller(),
			Photos:      a.Store().Photos(),
			Slots:       cfg.Pointer.PhotoSlots,
			DoublePress: time.Duration(cfg.Pointer.DoublePressMS) * time.Millisecond,
			ToggleMode:  a.ToggleMode,
			Logger:      logger.With("component", "preview"),
		})
		if err != nil {
			return err
		}
		if err := game.Run(ctx); err != nil {
			logger.Error("preview failed", "error", err)
		}
		cancel()

	case cfg.UI.Tray:
		t := tray.New(logger.With("component", "tray"))
		t.OnToggleMode(a.ToggleMode)
		t.OnOpen(func() { openBrowser(logger, browserURL(cfg.Server.Addr)) })
		t.OnQuit(cancel)
		go t.Watch(ctx, a.State())
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		cancel()

	default:
		<-ctx.Done()
	}

	logger.Info("shutting down")
	return <-errCh
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(logger *slog.Logger, url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("cannot open browser", "url", url, "error", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.xmastree/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".xmastree", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
