// Package config loads crev settings: defaults, then a YAML file, then
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/crev/internal/analysis"
	"github.com/sprite-ai/crev/internal/submission"
)

// Config is the full crev configuration.
type Config struct {
	Server ServerConfig    `yaml:"server"`
	Model  ModelConfig     `yaml:"model"`
	Review ReviewConfig    `yaml:"review"`
	Policy analysis.Policy `yaml:"policy"`
	Log    LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ModelConfig selects the narrative provider.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	ID       string `yaml:"id"`
	Region   string `yaml:"region"`
}

// ReviewConfig tunes the review pipeline.
type ReviewConfig struct {
	MaxSubmissionBytes int           `yaml:"max_submission_bytes"`
	ProgressEvents     bool          `yaml:"progress_events"`
	NarrativeTimeout   time.Duration `yaml:"narrative_timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: "localhost:8000"},
		Model: ModelConfig{
			Provider: "anthropic",
			Region:   "us-east-1",
		},
		Review: ReviewConfig{
			MaxSubmissionBytes: submission.DefaultMaxBytes,
			NarrativeTimeout:   60 * time.Second,
		},
		Policy: analysis.DefaultPolicy(),
		Log:    LogConfig{Level: "info"},
	}
}

// Dir returns the platform-appropriate config directory for crev.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crev"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "crev"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "crev"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "crev"), nil
	default:
		return filepath.Join(home, ".config", "crev"), nil
	}
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the effective config: defaults, then the file at path, then
// the environment. An empty path means the default location, which may be
// absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = Path(); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are errors so typos surface.
func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// ApplyEnv overrides cfg from the environment. The provider-neutral CREV_
// variables win over the legacy BEDROCK_MODEL_ID and AWS_REGION.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("CREV_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := firstEnv("CREV_MODEL_ID", "BEDROCK_MODEL_ID"); v != "" {
		cfg.Model.ID = v
	}
	if v := firstEnv("CREV_REGION", "AWS_REGION"); v != "" {
		cfg.Model.Region = v
	}
	if v := os.Getenv("CREV_NARRATIVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CREV_NARRATIVE_TIMEOUT: %w", err)
		}
		cfg.Review.NarrativeTimeout = d
	}
	if v := os.Getenv("CREV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CREV_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	if c.Review.NarrativeTimeout <= 0 {
		return fmt.Errorf("review.narrative_timeout must be positive, got %s", c.Review.NarrativeTimeout)
	}
	if c.Review.MaxSubmissionBytes <= 0 {
		return fmt.Errorf("review.max_submission_bytes must be positive, got %d", c.Review.MaxSubmissionBytes)
	}
	if c.Policy.MaxFindingsPerRule <= 0 {
		return fmt.Errorf("policy.max_findings_per_rule must be positive, got %d", c.Policy.MaxFindingsPerRule)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
