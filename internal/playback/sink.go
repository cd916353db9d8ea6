// Package playback turns speech directives into audible output.
//
// [Announcer] coordinates the pipeline for one announcement at a time:
// optional settle delay, cache resolution, then playback through a [Sink].
// A newer announcement supersedes the current one — delayed or playing —
// so the kiosk voice always tracks the latest screen.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Sink plays one resolved audio file. Play blocks until playback finishes
// or ctx is cancelled.
type Sink interface {
	Play(ctx context.Context, path string) error
}

// ExecSink plays audio by running an external player process such as afplay,
// paplay, or mpv. Cancelling the context kills the process, which is how a
// superseding announcement cuts off the current one mid-word.
type ExecSink struct {
	command string
	args    []string
}

// NewExecSink creates a sink that runs command with args followed by the
// audio file path.
func NewExecSink(command string, args ...string) *ExecSink {
	return &ExecSink{command: command, args: args}
}

// Play runs the player process to completion.
func (s *ExecSink) Play(ctx context.Context, path string) error {
	args := make([]string, 0, len(s.args)+1)
	args = append(args, s.args...)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback: %s: %w", s.command, err)
	}
	return nil
}

// LogSink logs playback instead of producing sound. Used on development
// machines without audio hardware.
type LogSink struct{}

// Play logs the audio path and returns immediately.
func (LogSink) Play(ctx context.Context, path string) error {
	slog.Info("would play audio", "path", path)
	return nil
}
