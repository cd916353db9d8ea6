// Package sensor reads event codes from the kiosk's sensor board over a
// serial line.
//
// The board writes one decimal code per line at 115200 baud. The reader
// owns a background goroutine that accumulates lines, parses them, and
// delivers [Event] values on a channel; malformed lines are logged and
// skipped so one noise burst never wedges the stream.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// ErrNoPort is returned by [Open] when no port name was given and the
// machine has no serial ports to discover.
var ErrNoPort = errors.New("sensor: no serial port found")

// Event is one parsed sensor reading.
type Event struct {
	// Code is the numeric event code from the board.
	Code int

	// Raw is the line the code was parsed from, kept for debug logging.
	Raw string

	// At is when the line was received.
	At time.Time
}

// Reader owns a serial port and the goroutine reading from it.
type Reader struct {
	port     serial.Port
	portName string
	events   chan Event

	closing atomic.Bool
	wg      sync.WaitGroup
}

// Open connects to the sensor board and starts the read loop. An empty
// portName selects the first serial port enumerated on the machine, which
// matches the kiosk's single-board hardware setup. readTimeout bounds each
// blocking read; it is what lets Close take effect promptly.
func Open(portName string, baudRate int, readTimeout time.Duration) (*Reader, error) {
	if portName == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("sensor: enumerate ports: %w", err)
		}
		if len(ports) == 0 {
			return nil, ErrNoPort
		}
		portName = ports[0]
		slog.Info("auto-selected serial port", "port", portName)
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("sensor: open %q: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("sensor: set read timeout: %w", err)
	}

	r := newReader(port, portName)
	slog.Info("sensor connected", "port", portName, "baud_rate", baudRate)
	return r, nil
}

// newReader wraps an already-open port and starts the read loop. Split out
// of [Open] so tests can drive the loop with a fake port.
func newReader(port serial.Port, portName string) *Reader {
	r := &Reader{
		port:     port,
		portName: portName,
		events:   make(chan Event, 16),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Events returns the channel of parsed sensor events. The channel is closed
// when the reader shuts down.
func (r *Reader) Events() <-chan Event {
	return r.events
}

// PortName returns the serial device the reader is connected to.
func (r *Reader) PortName() string {
	return r.portName
}

// Close shuts the reader down in two phases: first the loop is told to stop
// and waited for (the read timeout bounds the wait), then the port is
// closed. The events channel is closed once the loop has exited.
func (r *Reader) Close() error {
	r.closing.Store(true)
	r.wg.Wait()
	return r.port.Close()
}

// maxConsecutiveReadErrors is how many generic read errors in a row the
// loop tolerates before giving the port up for dead.
const maxConsecutiveReadErrors = 10

// loop reads chunks off the port and emits parsed events until Close.
// Transient read errors are logged and the loop carries on; it stops only
// when the port itself is lost or errors persist across consecutive reads.
func (r *Reader) loop() {
	defer r.wg.Done()
	defer close(r.events)

	var acc lineAccumulator
	buf := make([]byte, 256)
	consecutiveErrs := 0
	for {
		n, err := r.port.Read(buf)
		if r.closing.Load() {
			return
		}
		if err != nil {
			var portErr *serial.PortError
			if errors.As(err, &portErr) {
				slog.Error("serial port lost; stopping reader",
					"port", r.portName, "err", err)
				return
			}
			consecutiveErrs++
			if consecutiveErrs >= maxConsecutiveReadErrors {
				slog.Error("sensor reads failing persistently; stopping reader",
					"port", r.portName, "err", err)
				return
			}
			slog.Warn("transient sensor read error",
				"port", r.portName, "err", err)
			continue
		}
		consecutiveErrs = 0
		if n == 0 {
			// Read timeout with nothing received.
			continue
		}

		for _, line := range acc.feed(buf[:n]) {
			r.emit(line)
		}
	}
}

// emit parses one line and delivers its event. If the consumer has fallen
// behind the event is dropped with a warning, which is preferable to
// blocking the serial read.
func (r *Reader) emit(line string) {
	code, err := ParseCode(line)
	if err != nil {
		slog.Warn("ignoring malformed sensor line", "line", line, "err", err)
		return
	}

	select {
	case r.events <- Event{Code: code, Raw: line, At: time.Now()}:
	default:
		slog.Warn("event channel full; dropping sensor event", "code", code)
	}
}
