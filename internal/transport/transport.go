// Package transport delivers raw bytes from the weighing device: a real
// serial port or a simulated scale for demos and tests.
package transport

import (
	"errors"
	"strings"
)

var (
	// ErrNoPort is returned when no port name was given.
	ErrNoPort = errors.New("no serial port selected")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("transport closed")
)

// Transport is a non-blocking byte source. Read returns promptly with
// whatever is available, possibly nothing. Any Read error means the link
// is gone. Close may be called from another goroutine while a Read is in
// flight.
type Transport interface {
	Read(p []byte) (int, error)
	Close() error
	Name() string
}

// Opener opens a transport by port name and baud rate.
type Opener func(port string, baud int) (Transport, error)

// SimPrefix selects the simulated device instead of a serial port. An
// optional ":<seed>" suffix fixes the random sequence.
const SimPrefix = "sim"

// Open is the default Opener.
func Open(port string, baud int) (Transport, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return nil, ErrNoPort
	}
	if IsSim(port) {
		sim, err := OpenSim(port)
		if err != nil {
			return nil, err
		}
		return sim, nil
	}
	sp, err := OpenSerial(port, baud)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// IsSim reports whether port names the simulated device.
func IsSim(port string) bool {
	return port == SimPrefix || strings.HasPrefix(port, SimPrefix+":")
}
