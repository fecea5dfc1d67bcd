// Package shared holds the state passed to all deckctl commands.
package shared

import (
	"context"
	"io"
	"os"

	"github.com/dgallion1/lessondeck/internal/app"
	"github.com/dgallion1/lessondeck/internal/config"
)

// Context carries global CLI flags set on the root command.
type Context struct {
	// ConfigFile overrides CONFIG_FILE.
	ConfigFile string
	// SlidesPath overrides the configured slides document.
	SlidesPath string
	// Verbose sends service logs to stderr.
	Verbose bool
}

// Config loads configuration with the root flags applied.
func (c *Context) Config() (config.Config, error) {
	path := c.ConfigFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if c.SlidesPath != "" {
		cfg.SlidesPath = c.SlidesPath
	}
	return cfg, cfg.Validate()
}

// Open wires the services. Without persist the exporter only saves locally.
func (c *Context) Open(ctx context.Context, persist bool) (*app.App, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	if !persist {
		cfg.PersistURL = ""
	}
	var w io.Writer = io.Discard
	level := "error"
	if c.Verbose {
		w, level = os.Stderr, "debug"
	}
	return app.New(ctx, cfg, app.NewLogger(w, level), nil)
}
