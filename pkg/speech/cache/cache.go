// Package cache implements the content-addressed audio cache that fronts a
// speech synthesis backend.
//
// Every prompt is identified by a stable hash of (text, voice, format); a
// resolved prompt is a file named `<hash>.<ext>` under the cache root. Once
// written, entries are immutable and reused forever — identical text never
// triggers a second synthesis call. Entries are never evicted; the cache
// grows with the number of distinct prompts, which for a kiosk is a small
// closed set.
//
// The cache works without a backend: a nil synthesizer degrades it to
// lookup-only mode where misses return [ErrSynthesisUnavailable]. This is
// the normal mode for offline deployments running on pre-baked prompts.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/hitoha-dev/kioskd/pkg/speech"
)

// ErrSynthesisUnavailable is returned by [Cache.Resolve] when the requested
// prompt is not cached and no synthesis backend is configured. Callers skip
// speech and carry on; this is never fatal.
var ErrSynthesisUnavailable = speech.ErrUnavailable

// Entry is a resolved cache entry: a playable audio file on disk.
type Entry struct {
	// Path is the absolute path of the audio file.
	Path string

	// Cached reports whether the entry already existed before this
	// resolution (true) or was synthesized and written by it (false).
	Cached bool
}

// Option is a functional option for configuring a Cache.
type Option func(*Cache)

// WithSynthesizer attaches a synthesis backend used to materialize cache
// misses. Without one the cache is lookup-only.
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(c *Cache) {
		c.synth = s
	}
}

// Cache resolves prompt text to audio files under a root directory, invoking
// the configured backend at most once per distinct prompt. It is safe for
// concurrent use; simultaneous first-time resolutions of the same prompt are
// collapsed into a single synthesis call.
type Cache struct {
	root   string
	voice  string
	format speech.Format
	synth  speech.Synthesizer

	group singleflight.Group
}

// New creates a Cache rooted at dir, creating it if necessary. voice and
// format become part of every entry's identity, so changing either yields a
// disjoint set of cache entries.
func New(dir, voice string, format speech.Format, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache: dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create root %q: %w", dir, err)
	}
	c := &Cache{
		root:   dir,
		voice:  voice,
		format: format,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// StableHash returns the lowercase-hex content hash identifying the cache
// entry for (text, voice, format). It is a pure function of its inputs:
// equal inputs yield equal hashes across calls and process restarts. The
// hash is an addressing key, not a security boundary.
func StableHash(text, voice string, format speech.Format) string {
	sum := md5.Sum([]byte(text + "|" + voice + "|" + string(format)))
	return hex.EncodeToString(sum[:])
}

// Path returns the file path the entry for text resolves to, whether or not
// it exists yet. Used by the offline bake tool to write entries the runtime
// will find.
func (c *Cache) Path(text string) string {
	return filepath.Join(c.root, StableHash(text, c.voice, c.format)+"."+c.format.Ext())
}

// Resolve returns the cache entry for text, synthesizing and persisting it
// on first use.
//
// The fast path is a single stat: if the entry file exists it is returned
// with no backend involvement. On a miss, concurrent callers for the same
// text share one synthesis call; the audio is written to a temp file and
// renamed into place so a crash mid-write never leaves a truncated entry.
func (c *Cache) Resolve(ctx context.Context, text string) (Entry, error) {
	if text == "" {
		return Entry{}, errors.New("cache: text must not be empty")
	}

	path := c.Path(text)
	if _, err := os.Stat(path); err == nil {
		return Entry{Path: path, Cached: true}, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		// Another caller in this flight group may have written the entry
		// between our stat and now.
		if _, err := os.Stat(path); err == nil {
			return Entry{Path: path, Cached: true}, nil
		}

		if c.synth == nil {
			return Entry{}, ErrSynthesisUnavailable
		}

		audio, err := c.synth.Synthesize(ctx, text, c.voice, c.format)
		if err != nil {
			if errors.Is(err, speech.ErrUnavailable) {
				return Entry{}, err
			}
			return Entry{}, fmt.Errorf("cache: synthesize %q: %w", text, err)
		}

		if err := writeAtomic(path, audio); err != nil {
			return Entry{}, err
		}
		return Entry{Path: path}, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// writeAtomic writes data to path via a temp file in the same directory plus
// a rename, so readers never observe a partially written entry.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: commit entry: %w", err)
	}
	return nil
}
