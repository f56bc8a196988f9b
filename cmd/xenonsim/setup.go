package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/config"
	"github.com/san-kum/xenonsim/internal/continuation"
	"github.com/san-kum/xenonsim/internal/logging"
	"github.com/san-kum/xenonsim/internal/playback"
	"github.com/san-kum/xenonsim/internal/session"
)

// loadConfig layers defaults, the config file, .env and XENONSIM_*
// variables, then any flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("solver") {
		cfg.SolverURL = solverURL
	}
	if flags.Changed("power") {
		cfg.Power = power
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("phi0") {
		cfg.Phi0 = phi0
	}
	if flags.Changed("fps") {
		cfg.FrameRate = frameRate
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = listenAddr
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg *config.Config, console bool) (io.Closer, error) {
	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile, console)
	if err != nil {
		return nil, fmt.Errorf("logger setup failed: %w", err)
	}
	slog.Info("config loaded",
		"solver_url", cfg.SolverURL,
		"request_timeout", cfg.RequestTimeout,
		"frame_rate", cfg.FrameRate,
		"power", cfg.Power,
		"speed", cfg.Speed,
		"phi_0", cfg.Phi0,
		"data_dir", cfg.DataDir,
	)
	return closer, nil
}

func newClient(cfg *config.Config) (*continuation.Client, error) {
	return continuation.NewClient(cfg.SolverURL, cfg.RequestTimeout,
		continuation.WithTolerance(cfg.ContinuityTolerance))
}

func newController(cfg *config.Config, solver session.Solver, sink chart.Sink, drv playback.FrameDriver) (*session.Controller, error) {
	return session.New(solver, sink, drv, session.Options{
		Power: cfg.Power,
		Speed: cfg.Speed,
		Phi0:  cfg.Phi0,
	})
}
