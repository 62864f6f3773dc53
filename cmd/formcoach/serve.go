package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/app"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/broadcast"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/config"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/events"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/server"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/store"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/tray"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file (default: ~/.formcoach/config.toml)")
	envPath := fs.String("env", ".env", "path to a .env file")
	withTray := fs.Bool("tray", false, "show the rep count in the system tray")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *envPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.MQTT.Broker != "" {
		p, err := events.NewMQTTPublisher(ctx, events.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
		})
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	hub := broadcast.NewHub()
	defer hub.Close()

	ac := appConfig(cfg, cfg.Speech.Enabled)
	ac.Store = st
	ac.Publisher = publisher
	ac.Hub = hub
	ac.RecordFrames = true

	a := app.New(ac)
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("plugin discovery failed: %v", err)
	}
	log.Printf("loaded %d plugins from %s", len(a.PluginManager().List()), cfg.Speech.PluginDir)

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		App:       a,
	})

	fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
	if !*withTray {
		return srv.Run(ctx, cfg.Server.Addr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, cfg.Server.Addr)
	}()

	t := tray.New(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnSettings(func() { openBrowser(dashboardURL(cfg.Server.Addr)) })
	t.OnQuit(cancel)

	updates, err := hub.Subscribe("tray", 16)
	if err != nil {
		return err
	}
	go t.Watch(updates)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// systray owns the main thread until Quit.
	t.Run()
	cancel()
	return <-errCh
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	if err := exec.Command(name, url).Start(); err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.formcoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.Dir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
