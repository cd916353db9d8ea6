package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CacheDirChecker verifies the audio cache directory exists and is writable,
// by creating and removing a probe file. A read-only or missing cache root
// means new prompts can never be persisted.
func CacheDirChecker(dir string) Checker {
	return Checker{
		Name: "cache_dir",
		Check: func(ctx context.Context) error {
			probe := filepath.Join(dir, ".readyz-probe")
			f, err := os.Create(probe)
			if err != nil {
				return fmt.Errorf("cache dir not writable: %w", err)
			}
			f.Close()
			os.Remove(probe)
			return nil
		},
	}
}

// SensorChecker reports whether the serial reader is connected. portName is
// a function so the check reflects reconnects rather than startup state.
func SensorChecker(portName func() string) Checker {
	return Checker{
		Name: "sensor",
		Check: func(ctx context.Context) error {
			if portName() == "" {
				return errors.New("serial port not connected")
			}
			return nil
		},
	}
}

// BreakerChecker reports the synthesis circuit breaker state. An open
// breaker fails readiness so operators notice the kiosk is running in
// cached-prompts-only mode.
func BreakerChecker(state func() string) Checker {
	return Checker{
		Name: "speech_breaker",
		Check: func(ctx context.Context) error {
			if s := state(); s == "open" {
				return errors.New("synthesis circuit breaker is open")
			}
			return nil
		},
	}
}
