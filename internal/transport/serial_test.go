package transport

import (
	"errors"
	"testing"

	"go.bug.st/serial"
)

type fakePort struct {
	serial.Port
	written []byte
	chunk   int
	drained int
	reset   int
	closed  int
}

func (p *fakePort) Write(b []byte) (int, error) {
	n := len(b)
	if p.chunk > 0 && n > p.chunk {
		n = p.chunk
	}
	p.written = append(p.written, b[:n]...)
	return n, nil
}

func (p *fakePort) Drain() error {
	p.drained++
	return nil
}

func (p *fakePort) ResetOutputBuffer() error {
	p.reset++
	return nil
}

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

func newTestSerial(port *fakePort, modes *[]serial.Mode) *Serial {
	return &Serial{open: func(_ string, mode *serial.Mode) (serial.Port, error) {
		*modes = append(*modes, *mode)
		return port, nil
	}}
}

// TestSerialOpensEightNOne verifies the line settings and reopen behavior.
func TestSerialOpensEightNOne(t *testing.T) {
	port := &fakePort{}
	var modes []serial.Mode
	s := newTestSerial(port, &modes)

	if err := s.Open("/dev/ttyUSB0", 1200); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Open("/dev/ttyUSB0", 2400); err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	if len(modes) != 2 {
		t.Fatalf("opens = %d, want 2", len(modes))
	}
	m := modes[1]
	if m.BaudRate != 2400 || m.DataBits != 8 || m.Parity != serial.NoParity || m.StopBits != serial.OneStopBit {
		t.Fatalf("mode = %+v", m)
	}
	if port.closed != 1 || s.Baud() != 2400 {
		t.Fatalf("closed = %d baud = %d", port.closed, s.Baud())
	}
}

// TestSerialWriteLoopsOnShortWrites verifies every byte is handed to the port.
func TestSerialWriteLoopsOnShortWrites(t *testing.T) {
	port := &fakePort{chunk: 3}
	var modes []serial.Mode
	s := newTestSerial(port, &modes)
	if err := s.Open("COM3", 1200); err != nil {
		t.Fatalf("Open error: %v", err)
	}

	if err := s.Write([]byte("REBASIC\r")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if string(port.written) != "REBASIC\r" {
		t.Fatalf("written = %q", port.written)
	}
	if err := s.Flush(); err != nil || port.drained != 1 {
		t.Fatalf("Flush err=%v drained=%d", err, port.drained)
	}
}

// TestSerialInterruptClosesPort verifies later IO fails fast.
func TestSerialInterruptClosesPort(t *testing.T) {
	port := &fakePort{}
	var modes []serial.Mode
	s := newTestSerial(port, &modes)
	if err := s.Open("COM3", 1200); err != nil {
		t.Fatalf("Open error: %v", err)
	}

	s.Interrupt()
	if port.reset != 1 || port.closed != 1 {
		t.Fatalf("reset = %d closed = %d, want 1/1", port.reset, port.closed)
	}
	if err := s.Write([]byte{0x0D}); !errors.Is(err, ErrPortNotOpen) {
		t.Fatalf("Write after interrupt = %v, want ErrPortNotOpen", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close after interrupt = %v, want nil", err)
	}
}

// TestSerialOpenWithoutDevice verifies the configuration error.
func TestSerialOpenWithoutDevice(t *testing.T) {
	if err := NewSerial().Open("", 1200); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("Open = %v, want ErrNoDevice", err)
	}
}
