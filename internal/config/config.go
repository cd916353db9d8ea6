// Package config provides the configuration schema, loader, backend registry,
// and file watcher for the kiosk daemon.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the kiosk daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration is a [time.Duration] that decodes from YAML strings such as
// "50ms" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a [time.Duration].
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure for the kiosk daemon.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Speech  SpeechConfig  `yaml:"speech"`
	Player  PlayerConfig  `yaml:"player"`
	Prompts PromptsConfig `yaml:"prompts"`
}

// ServerConfig holds settings for the operational HTTP endpoint and logging.
type ServerConfig struct {
	// ListenAddr is the TCP address the ops server listens on (e.g., ":8080").
	// Serves health, readiness, metrics, and the manual event injector.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// SensorConfig describes the serial connection to the sensor board.
type SensorConfig struct {
	// Port is the serial device path (e.g., "/dev/ttyUSB0"). When empty, the
	// first enumerated serial port on the machine is used.
	Port string `yaml:"port"`

	// BaudRate is the line speed. Default: 115200.
	BaudRate int `yaml:"baud_rate"`

	// ReadTimeout bounds each blocking read so the reader loop can notice
	// shutdown. Default: 50ms.
	ReadTimeout Duration `yaml:"read_timeout"`
}

// SpeechConfig configures prompt speech synthesis and the audio cache.
type SpeechConfig struct {
	// Backend selects the synthesis backend registered in the [Registry]
	// (e.g., "azure"). Empty means no backend: only pre-baked cache entries
	// are spoken, and uncached prompts are silently skipped.
	Backend string `yaml:"backend"`

	// Region is the Azure Speech service region (e.g., "japaneast").
	Region string `yaml:"region"`

	// APIKey authenticates against the synthesis backend. When empty, the
	// SPEECH_API_KEY environment variable is consulted at startup.
	APIKey string `yaml:"api_key"`

	// Voice is the synthesis voice name (e.g., "ja-JP-NanamiNeural").
	Voice string `yaml:"voice"`

	// Language is the BCP-47 language tag for synthesis. Default: "ja-JP".
	Language string `yaml:"language"`

	// Format is the audio output format identifier. Default:
	// "audio-16khz-128kbitrate-mono-mp3".
	Format string `yaml:"format"`

	// CacheDir is the directory holding cached audio files. Default:
	// "./voicecache".
	CacheDir string `yaml:"cache_dir"`

	// RequestTimeout bounds a single synthesis HTTP call. Default: 15s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// Breaker tunes the circuit breaker wrapped around the backend.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the synthesis circuit breaker. Zero values fall back
// to the breaker's own defaults.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the breaker
	// opens.
	MaxFailures int `yaml:"max_failures"`

	// ResetTimeout is how long the breaker stays open before probing again.
	ResetTimeout Duration `yaml:"reset_timeout"`
}

// PlayerConfig selects how resolved audio files are played.
type PlayerConfig struct {
	// Command is the audio player executable (e.g., "afplay", "mpv",
	// "paplay"). When empty, playback is logged instead of executed, which
	// is the mode used on headless development machines.
	Command string `yaml:"command"`

	// Args are extra arguments placed before the audio file path.
	Args []string `yaml:"args"`
}

// PromptsConfig overrides the built-in spoken prompt for individual screens.
// Empty fields keep the default text. These are hot-reloadable: editing the
// config file changes what the kiosk says without a restart.
type PromptsConfig struct {
	Idle         string `yaml:"idle"`
	BackToIdle   string `yaml:"back_to_idle"`
	HoldHand     string `yaml:"hold_hand"`
	MeasureReady string `yaml:"measure_ready"`
	Measuring    string `yaml:"measuring"`
	Success      string `yaml:"success"`
	Failure      string `yaml:"failure"`
	TagRead      string `yaml:"tag_read"`
	TagWrite     string `yaml:"tag_write"`
	Done         string `yaml:"done"`
}
