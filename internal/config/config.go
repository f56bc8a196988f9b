package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSolverURL           = "http://127.0.0.1:3000"
	DefaultRequestTimeout      = 30 * time.Second
	DefaultFrameRate           = 60
	DefaultPower               = 1.0
	DefaultSpeed               = 50.0
	DefaultPhi0                = 2.93e13
	DefaultContinuityTolerance = 1e-6
	DefaultListenAddr          = "127.0.0.1:8080"
	DefaultDataDir             = ".xenonsim"
	DefaultLogLevel            = "info"
	DefaultLogFile             = "logs/xenonsim.log"
)

type Config struct {
	SolverURL           string        `yaml:"solver_url" env:"XENONSIM_SOLVER_URL"`
	RequestTimeout      time.Duration `yaml:"request_timeout" env:"XENONSIM_REQUEST_TIMEOUT"`
	FrameRate           int           `yaml:"frame_rate" env:"XENONSIM_FRAME_RATE"`
	Power               float64       `yaml:"power" env:"XENONSIM_POWER"`
	Speed               float64       `yaml:"speed" env:"XENONSIM_SPEED"`
	Phi0                float64       `yaml:"phi_0" env:"XENONSIM_PHI_0"`
	ContinuityTolerance float64       `yaml:"continuity_tolerance" env:"XENONSIM_CONTINUITY_TOLERANCE"`
	ListenAddr          string        `yaml:"listen_addr" env:"XENONSIM_LISTEN_ADDR"`
	DataDir             string        `yaml:"data_dir" env:"XENONSIM_DATA_DIR"`
	LogLevel            string        `yaml:"log_level" env:"XENONSIM_LOG_LEVEL"`
	LogFile             string        `yaml:"log_file" env:"XENONSIM_LOG_FILE"`
}

func DefaultConfig() *Config {
	return &Config{
		SolverURL:           DefaultSolverURL,
		RequestTimeout:      DefaultRequestTimeout,
		FrameRate:           DefaultFrameRate,
		Power:               DefaultPower,
		Speed:               DefaultSpeed,
		Phi0:                DefaultPhi0,
		ContinuityTolerance: DefaultContinuityTolerance,
		ListenAddr:          DefaultListenAddr,
		DataDir:             DefaultDataDir,
		LogLevel:            DefaultLogLevel,
		LogFile:             DefaultLogFile,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv loads an optional .env file and overlays any XENONSIM_*
// variables onto cfg. Unset variables leave the current values alone.
func ApplyEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch {
	case c.SolverURL == "":
		return errors.New("config: solver_url is required")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("config: request_timeout must be positive, got %v", c.RequestTimeout)
	case c.FrameRate <= 0:
		return fmt.Errorf("config: frame_rate must be positive, got %d", c.FrameRate)
	case math.IsNaN(c.Power) || c.Power < 0 || c.Power > 1:
		return fmt.Errorf("config: power must be within [0,1], got %v", c.Power)
	case math.IsNaN(c.Speed) || c.Speed < 0 || c.Speed > 100:
		return fmt.Errorf("config: speed must be within [0,100], got %v", c.Speed)
	case math.IsNaN(c.Phi0) || math.IsInf(c.Phi0, 0) || c.Phi0 <= 0:
		return fmt.Errorf("config: phi_0 must be positive, got %v", c.Phi0)
	case math.IsNaN(c.ContinuityTolerance) || math.IsInf(c.ContinuityTolerance, 0) || c.ContinuityTolerance < 0:
		return fmt.Errorf("config: continuity_tolerance must not be negative, got %v", c.ContinuityTolerance)
	}
	return nil
}
