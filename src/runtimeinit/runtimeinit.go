package runtimeinit

import (
	"fmt"
	"log"

	"screen-grab/src/clipboard"
	"screen-grab/src/config"
	"screen-grab/src/logutil"
	"screen-grab/src/screenshot"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(enable bool, dir string)

	// Source replaces the configured capture backend when set.
	Source screenshot.Source

	// SkipClipboard leaves the system clipboard untouched.
	SkipClipboard bool
}

// Runtime is everything a front end needs to build a session.
type Runtime struct {
	Config *config.Config
	Source screenshot.Source

	// ClipboardErr is set when the clipboard could not be initialised.
	// Copying will fail but capture and export still work.
	ClipboardErr error
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setup := opts.SetupLogging
	if setup == nil {
		setup = logutil.Setup
	}
	setup(cfg.EnableFileLogging, cfg.LogDir)

	if cfg.ConfigFile != "" {
		log.Printf("Config file: %s", cfg.ConfigFile)
	}
	if cfg.EnvFile != "" {
		log.Printf("Env file: %s", cfg.EnvFile)
	}
	log.Printf("Save folder: %s, format: %s, backend: %s", cfg.SaveFolder, cfg.SaveFormat, cfg.CaptureBackend)

	rt := &Runtime{Config: cfg, Source: opts.Source}
	if rt.Source == nil {
		rt.Source = screenshot.NewSource(cfg.CaptureBackend)
	}

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			log.Printf("Clipboard unavailable: %v", err)
			rt.ClipboardErr = err
		}
	}
	return rt, nil
}
