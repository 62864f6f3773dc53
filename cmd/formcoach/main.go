package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/app"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/coach"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/config"
	"github.com/aosaf-ershad-chowdhury/ai-workout-tracker/internal/plugin"
)

const usage = `formcoach - squat form coach

Usage:
  formcoach serve  [-config path] [-env path] [-tray]
  formcoach replay [-config path] [-tui] [-fps n] [-speak] [-save] <recording>
  formcoach init   [-config path]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "replay":
		err = runReplay(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("formcoach %s: %v", os.Args[1], err)
	}
}

// loadConfig reads the config file, then .env files and FORMCOACH_*
// variables. A missing default config file falls back to the defaults.
func loadConfig(path string, envFiles ...string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path == "" {
		cfg, err = config.LoadOrDefault(config.DefaultPath())
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return cfg, err
	}

	if err := config.LoadEnv(&cfg, envFiles...); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// appConfig maps the file config onto the app. Store, publisher and hub are
// wired by the caller.
func appConfig(cfg config.Config, speak bool) app.Config {
	ac := app.Config{
		PluginDir:       cfg.Speech.PluginDir,
		PluginTimeoutMs: cfg.Speech.TimeoutMs,
		Session: coach.Config{
			Exercise: cfg.Exercise.Name,
			Rep:      cfg.RepThresholds(),
			Form:     cfg.FormThresholds(),
		},
	}
	if speak {
		ac.Speech = plugin.SpeakerConfig{
			Plugin:   cfg.Speech.Plugin,
			Action:   cfg.Speech.Action,
			Exercise: cfg.Exercise.Name,
		}
	}
	return ac
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath(), "path to write the config file")
	fs.Parse(args)

	if _, err := os.Stat(*configPath); err == nil {
		return fmt.Errorf("%s already exists", *configPath)
	}
	if err := config.Save(*configPath, config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", *configPath)
	return nil
}
