// Package transport connects the job engine to the KC85 V.24 module.
package transport

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"go.bug.st/serial"
)

// ErrPortNotOpen is returned for IO on a closed or interrupted port.
var ErrPortNotOpen = errors.New("serial port not open")

// ErrNoDevice is returned when no serial device is configured.
var ErrNoDevice = errors.New("no serial device configured")

type openFunc func(device string, mode *serial.Mode) (serial.Port, error)

// Serial is an 8N1 serial link without handshake.
type Serial struct {
	mu     sync.Mutex
	port   serial.Port
	open   openFunc
	device string
	baud   int
}

// NewSerial creates a closed serial transport.
func NewSerial() *Serial {
	return &Serial{open: serial.Open}
}

// Open (re)opens device at baud. An already open port is closed first.
func (s *Serial) Open(device string, baud int) error {
	if device == "" {
		return ErrNoDevice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}

	port, err := s.open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s at %d baud: %w", device, baud, err)
	}
	s.port = port
	s.device = device
	s.baud = baud
	return nil
}

func (s *Serial) current() (serial.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil, ErrPortNotOpen
	}
	return s.port, nil
}

// Write sends all of p. It does not hold the lock while blocked so that
// Interrupt can release the port.
func (s *Serial) Write(p []byte) error {
	port, err := s.current()
	if err != nil {
		return err
	}
	for len(p) > 0 {
		n, err := port.Write(p)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Flush waits until the OS has transmitted all written bytes.
func (s *Serial) Flush() error {
	port, err := s.current()
	if err != nil {
		return err
	}
	if err := port.Drain(); err != nil {
		return fmt.Errorf("serial drain: %w", err)
	}
	return nil
}

// Close closes the port. Closing a closed port is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Interrupt drops pending output and closes the port, which makes a blocked
// Write return.
func (s *Serial) Interrupt() {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()

	if port == nil {
		return
	}
	_ = port.ResetOutputBuffer()
	_ = port.Close()
}

// Baud returns the rate of the last successful open.
func (s *Serial) Baud() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

// ListPorts returns the serial devices known to the OS in sorted order.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	slices.Sort(ports)
	return ports, nil
}
