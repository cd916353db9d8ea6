// Command promptbake pre-synthesizes the kiosk's prompt set into the audio
// cache, so the daemon can run fully offline on machines with no speech
// service credentials.
//
// Two modes:
//
//   - backend mode (default): every prompt is resolved through the
//     configured synthesis backend, exactly as the daemon would on a cache
//     miss. Requires speech.backend and an API key.
//   - local mode (-local): prompts are rendered with the macOS `say` command
//     and converted with `afconvert`, writing files straight into the cache
//     layout. No network access, but requires a pcm (wav) speech.format.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hitoha-dev/kioskd/internal/config"
	"github.com/hitoha-dev/kioskd/internal/kiosk"
	"github.com/hitoha-dev/kioskd/pkg/speech"
	"github.com/hitoha-dev/kioskd/pkg/speech/azure"
	"github.com/hitoha-dev/kioskd/pkg/speech/cache"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	local := flag.Bool("local", false, "bake with the macOS say command instead of the speech backend")
	sayVoice := flag.String("say-voice", "Kyoko", "macOS voice used in -local mode")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "promptbake: %v\n", err)
		return 1
	}
	config.ApplyDefaults(cfg)

	texts := kiosk.PromptsFromConfig(cfg.Prompts).AllTexts()
	slog.Info("baking prompt set",
		"prompts", len(texts),
		"cache_dir", cfg.Speech.CacheDir,
		"voice", cfg.Speech.Voice,
		"format", cfg.Speech.Format,
	)

	var bakeErr error
	if *local {
		bakeErr = bakeLocal(cfg, texts, *sayVoice)
	} else {
		bakeErr = bakeBackend(cfg, texts)
	}
	if bakeErr != nil {
		slog.Error("bake failed", "err", bakeErr)
		return 1
	}

	slog.Info("bake complete", "prompts", len(texts))
	return 0
}

// bakeBackend resolves every prompt through the configured backend via the
// cache, reusing the daemon's own miss path.
func bakeBackend(cfg *config.Config, texts []string) error {
	if cfg.Speech.Backend == "" {
		return errors.New("speech.backend is not configured; use -local or configure a backend")
	}
	key := cfg.Speech.APIKey
	if key == "" {
		key = os.Getenv("SPEECH_API_KEY")
	}

	var synth speech.Synthesizer
	switch cfg.Speech.Backend {
	case "azure":
		s, err := azure.New(cfg.Speech.Region, key,
			azure.WithLanguage(cfg.Speech.Language),
			azure.WithTimeout(cfg.Speech.RequestTimeout.Std()),
		)
		if err != nil {
			return err
		}
		synth = s
	default:
		return fmt.Errorf("unknown speech backend %q", cfg.Speech.Backend)
	}

	c, err := cache.New(cfg.Speech.CacheDir, cfg.Speech.Voice, speech.Format(cfg.Speech.Format),
		cache.WithSynthesizer(synth))
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, text := range texts {
		entry, err := c.Resolve(ctx, text)
		if err != nil {
			return fmt.Errorf("bake %q: %w", text, err)
		}
		if entry.Cached {
			slog.Info("already baked", "text", text)
		} else {
			slog.Info("baked", "text", text, "path", entry.Path)
		}
	}
	return nil
}

// bakeLocal renders prompts with say and converts them with afconvert,
// writing directly into the cache layout.
func bakeLocal(cfg *config.Config, texts []string, sayVoice string) error {
	format := speech.Format(cfg.Speech.Format)
	if !strings.Contains(string(format), "pcm") {
		return fmt.Errorf("local baking produces wav audio; set speech.format to a pcm format, not %q", format)
	}

	c, err := cache.New(cfg.Speech.CacheDir, cfg.Speech.Voice, format)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "promptbake-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	for i, text := range texts {
		target := c.Path(text)
		if _, err := os.Stat(target); err == nil {
			slog.Info("already baked", "text", text)
			continue
		}

		aiff := filepath.Join(tmpDir, fmt.Sprintf("prompt-%d.aiff", i))
		if out, err := exec.Command("say", "-v", sayVoice, "-o", aiff, text).CombinedOutput(); err != nil {
			return fmt.Errorf("say %q: %w: %s", text, err, out)
		}
		if out, err := exec.Command("afconvert", aiff, "-f", "WAVE", "-d", "LEI16@16000", target).CombinedOutput(); err != nil {
			return fmt.Errorf("afconvert %q: %w: %s", text, err, out)
		}
		slog.Info("baked", "text", text, "path", target)
	}
	return nil
}
