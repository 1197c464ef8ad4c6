package wisol

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// pollReadTimeout bounds the blocking read used to implement the
// non-blocking Available check on a real port.
const pollReadTimeout = time.Millisecond

// SerialTransport implements Transport over a hardware serial port.
//
// The port is opened by Begin and closed by End, matching the module's
// session lifecycle: the driver opens the port for each exchange and
// closes it afterwards.
type SerialTransport struct {
	portName string
	port     serial.Port

	// one pending byte pulled off the port by Available
	pending byte
	have    bool
}

// NewSerialTransport returns a transport for the serial port at the
// given path (e.g. "/dev/ttyUSB0" or "COM3").
func NewSerialTransport(portName string) *SerialTransport {
	return &SerialTransport{portName: portName}
}

func (t *SerialTransport) Begin(bitRate int) error {
	if t.portName == "" {
		return errors.New("wisol: serial port name is required")
	}
	if t.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: bitRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.portName, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", t.portName, err)
	}

	// A short read timeout turns the blocking Read into a poll.
	if err := port.SetReadTimeout(pollReadTimeout); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}

	t.port = port
	return nil
}

func (t *SerialTransport) End() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.have = false
	return err
}

func (t *SerialTransport) Flush() error {
	t.have = false
	if t.port == nil {
		return nil
	}
	return t.port.ResetInputBuffer()
}

// Listen is a no-op: a dedicated port is always the active listener.
func (t *SerialTransport) Listen() error { return nil }

func (t *SerialTransport) Available() int {
	if t.have {
		return 1
	}
	if t.port == nil {
		return 0
	}
	var buf [1]byte
	n, err := t.port.Read(buf[:])
	if err != nil || n == 0 {
		return 0
	}
	t.pending = buf[0]
	t.have = true
	return 1
}

func (t *SerialTransport) ReadByte() (byte, bool) {
	if !t.have && t.Available() == 0 {
		return 0, false
	}
	t.have = false
	return t.pending, true
}

func (t *SerialTransport) WriteByte(b byte) error {
	if t.port == nil {
		return ErrClosed
	}
	if _, err := t.port.Write([]byte{b}); err != nil {
		return fmt.Errorf("write byte: %w", err)
	}
	return nil
}
