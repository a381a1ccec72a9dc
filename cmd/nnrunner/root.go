package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nnrunner/internal/config"
	"nnrunner/internal/registry"
)

// app carries the resolved configuration into subcommands.
type app struct {
	cfg config.Config
	log zerolog.Logger
	out io.Writer
}

func buildRootCmd(out io.Writer) *cobra.Command {
	a := &app{cfg: config.Defaults(), out: out}
	var (
		cfgPath   string
		logLevel  string
		logFormat string
		layersDir string
		arena     int
	)
	root := &cobra.Command{
		Use:           "nnrunner",
		Short:         "Layer-wise neural network runner for offloading experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", os.Getenv("NNRUNNER_CONFIG"), "Config file (.yaml, .json or .toml)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: json|console")
	pf.StringVar(&layersDir, "layers-dir", "", "Directory of layer_<i>.nnl artifacts (default: embedded layers)")
	pf.IntVar(&arena, "arena-bytes", 0, "Arena capacity in bytes")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfgPath != "" {
			c, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = c
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			a.cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			a.cfg.LogFormat = logFormat
		}
		if flags.Changed("layers-dir") {
			a.cfg.LayersDir = layersDir
		}
		if flags.Changed("arena-bytes") {
			a.cfg.ArenaBytes = arena
		}
		a.cfg.ApplyDefaults()
		if err := a.cfg.Validate(); err != nil {
			return err
		}
		l, err := newLogger(a.cfg.LogLevel, a.cfg.LogFormat, os.Stderr)
		if err != nil {
			return err
		}
		a.log = l
		return nil
	}

	root.AddCommand(
		newRunCmd(a),
		newLayersCmd(a),
		newOffloadCmd(a),
		newPullCmd(a),
		newPackCmd(a),
	)
	return root
}

// newLogger builds the process logger.
func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// loadRegistry returns the layers from cfg.LayersDir, or the embedded ones.
func (a *app) loadRegistry() (*registry.Registry, error) {
	if a.cfg.LayersDir == "" {
		return registry.Embedded()
	}
	return registry.LoadDir(a.cfg.LayersDir)
}

// splitCSV splits a comma-separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
