package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Sensor
	if cfg.Sensor.BaudRate < 0 {
		errs = append(errs, fmt.Errorf("sensor.baud_rate %d must not be negative", cfg.Sensor.BaudRate))
	}
	if cfg.Sensor.ReadTimeout < 0 {
		errs = append(errs, fmt.Errorf("sensor.read_timeout must not be negative"))
	}
	if cfg.Sensor.Port == "" {
		slog.Info("sensor.port is empty; the first enumerated serial port will be used")
	}

	// Speech
	if cfg.Speech.Format != "" && !strings.Contains(cfg.Speech.Format, "mp3") && !strings.Contains(cfg.Speech.Format, "pcm") {
		errs = append(errs, fmt.Errorf("speech.format %q is not a recognised mp3 or pcm format", cfg.Speech.Format))
	}
	if cfg.Speech.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("speech.request_timeout must not be negative"))
	}
	if cfg.Speech.Backend != "" && cfg.Speech.Region == "" {
		errs = append(errs, fmt.Errorf("speech.region is required when speech.backend is set"))
	}
	if cfg.Speech.Backend == "" {
		slog.Info("speech.backend is empty; uncached prompts will not be spoken")
	} else if cfg.Speech.APIKey == "" && os.Getenv("SPEECH_API_KEY") == "" {
		slog.Warn("speech backend configured without an API key; falling back to cached prompts only",
			"backend", cfg.Speech.Backend)
	}

	// Player
	if cfg.Player.Command == "" {
		slog.Info("player.command is empty; playback will be logged, not executed")
	}

	return errors.Join(errs...)
}

// ApplyDefaults fills unset fields with their documented defaults and
// returns cfg for chaining.
func ApplyDefaults(cfg *Config) *Config {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Sensor.BaudRate == 0 {
		cfg.Sensor.BaudRate = 115200
	}
	if cfg.Sensor.ReadTimeout == 0 {
		cfg.Sensor.ReadTimeout = Duration(50 * time.Millisecond)
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = "ja-JP-NanamiNeural"
	}
	if cfg.Speech.Language == "" {
		cfg.Speech.Language = "ja-JP"
	}
	if cfg.Speech.Format == "" {
		cfg.Speech.Format = "audio-16khz-128kbitrate-mono-mp3"
	}
	if cfg.Speech.CacheDir == "" {
		cfg.Speech.CacheDir = "voicecache"
	}
	if cfg.Speech.RequestTimeout == 0 {
		cfg.Speech.RequestTimeout = Duration(15 * time.Second)
	}
	return cfg
}
