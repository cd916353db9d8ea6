package sensor

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNoDigits is returned by [ParseCode] when a line contains no digit
// characters at all.
var ErrNoDigits = errors.New("sensor: line contains no digits")

// maxLineLen caps accumulated line length so a noisy or misconfigured board
// cannot grow the buffer without bound. Real lines are a few bytes.
const maxLineLen = 64

// ParseCode extracts the numeric event code from one serial line. The board
// occasionally interleaves stray control or noise bytes into a line, so
// everything except ASCII digits is discarded before parsing.
func ParseCode(raw string) (int, error) {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoDigits, raw)
	}

	code, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, fmt.Errorf("sensor: parse %q: %w", raw, err)
	}
	return code, nil
}

// lineAccumulator reassembles newline-delimited lines from arbitrary read
// chunks. Serial reads return whatever bytes have arrived, so a line can
// span several reads or one read can carry several lines.
type lineAccumulator struct {
	buf []byte
}

// feed consumes a read chunk and returns any lines completed by it.
// CR and LF both terminate a line; empty lines are dropped, and lines
// longer than maxLineLen are truncated rather than rejected.
func (a *lineAccumulator) feed(data []byte) []string {
	var lines []string
	for _, b := range data {
		switch b {
		case '\n', '\r':
			if len(a.buf) > 0 {
				lines = append(lines, string(a.buf))
				a.buf = a.buf[:0]
			}
		default:
			if len(a.buf) < maxLineLen {
				a.buf = append(a.buf, b)
			}
		}
	}
	return lines
}
