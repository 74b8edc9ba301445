package teenastro

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Channel is a byte link to the mount controller.
type Channel interface {
	io.Writer

	// ReadUntil reads until limit bytes arrived, the last byte read equals term,
	// or timeout elapsed. A zero term disables terminator matching. On timeout
	// the bytes read so far are returned together with ErrTimeout.
	ReadUntil(limit int, term byte, timeout time.Duration) ([]byte, error)

	// Flush discards any pending input.
	Flush() error

	Close() error
}

const (
	defaultBaud = 9600

	// serialPollInterval bounds a single blocking read so that ReadUntil can
	// honour its own deadline.
	serialPollInterval = 100 * time.Millisecond
)

// serialChannel is a Channel over a serial port.
type serialChannel struct {
	port *serial.Port
}

// OpenSerial opens the named serial device.
func OpenSerial(name string, baud int) (Channel, error) {
	if baud <= 0 {
		baud = defaultBaud
	}

	c := &serial.Config{Name: name, Baud: baud, ReadTimeout: serialPollInterval}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", name, err)
	}
	return &serialChannel{port: port}, nil
}

func (s *serialChannel) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialChannel) ReadUntil(limit int, term byte, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, 0, limit)
	one := make([]byte, 1)
	deadline := time.Now().Add(timeout)

	for len(buf) < limit {
		if time.Now().After(deadline) {
			return buf, ErrTimeout
		}

		n, err := s.port.Read(one)
		if n == 0 {
			// tarm/serial reports a read timeout as io.EOF on posix.
			if err != nil && !errors.Is(err, io.EOF) {
				return buf, err
			}
			continue
		}

		buf = append(buf, one[0])
		if term != 0 && one[0] == term {
			break
		}
	}
	return buf, nil
}

func (s *serialChannel) Flush() error {
	return s.port.Flush()
}

func (s *serialChannel) Close() error {
	return s.port.Close()
}
