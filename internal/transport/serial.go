package transport

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// readTimeout keeps Read effectively non-blocking.
const readTimeout = time.Millisecond

// PortInfo describes an available serial port.
type PortInfo struct {
	Name    string
	IsUSB   bool
	VID     string
	PID     string
	Serial  string
	Product string
}

// Label is a short human description, e.g. "/dev/ttyUSB0 (CH340 1a86:7523)".
func (p PortInfo) Label() string {
	if !p.IsUSB {
		return p.Name
	}
	desc := p.VID + ":" + p.PID
	if p.Product != "" {
		desc = p.Product + " " + desc
	}
	return fmt.Sprintf("%s (%s)", p.Name, desc)
}

// ListPorts enumerates serial ports, sorted by name. USB details are
// filled in where the platform enumerator provides them.
func ListPorts() ([]PortInfo, error) {
	var ports []PortInfo

	details, err := enumerator.GetDetailedPortsList()
	if err == nil && len(details) > 0 {
		for _, d := range details {
			ports = append(ports, PortInfo{
				Name:    d.Name,
				IsUSB:   d.IsUSB,
				VID:     d.VID,
				PID:     d.PID,
				Serial:  d.SerialNumber,
				Product: d.Product,
			})
		}
	} else {
		names, err := serial.GetPortsList()
		if err != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		for _, n := range names {
			ports = append(ports, PortInfo{Name: n})
		}
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

// SerialPort is a Transport over a real serial device.
type SerialPort struct {
	name string

	mu   sync.Mutex
	port serial.Port // nil once closed
}

// OpenSerial opens name at baud, 8N1, with a minimal read timeout.
func OpenSerial(name string, baud int) (*SerialPort, error) {
	if name == "" {
		return nil, ErrNoPort
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	// Drop whatever piled up in the driver before we connected.
	_ = p.ResetInputBuffer()
	return &SerialPort{name: name, port: p}, nil
}

func (s *SerialPort) Read(b []byte) (int, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return 0, ErrClosed
	}
	// The driver unblocks a pending Read when the port is closed.
	n, err := port.Read(b)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", s.name, err)
	}
	return n, nil
}

// Close releases the port. Calling it twice is harmless, and it may run
// while a Read is in flight.
func (s *SerialPort) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}

func (s *SerialPort) Name() string { return s.name }
