package teenastro

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	replyTimeout = 3 * time.Second
	maxReplyLen  = 64
	terminator   = '#'
)

var (
	ErrTimeout      = errors.New("timed out waiting for reply")
	ErrShortRead    = errors.New("reply not terminated")
	ErrWrite        = errors.New("write failed")
	ErrDecode       = errors.New("malformed reply")
	ErrRejected     = errors.New("command rejected by mount")
	ErrInvalidInput = errors.New("invalid input")
)

// Codec frames commands and reads replies. It never retries.
type Codec struct {
	ch      Channel
	timeout time.Duration
	logger  log.FieldLogger
}

func NewCodec(ch Channel, logger log.FieldLogger) *Codec {
	return &Codec{
		ch:      ch,
		timeout: replyTimeout,
		logger:  logger.WithField("component", "codec"),
	}
}

func (c *Codec) send(kind, cmd string) error {
	c.logger.Debugf("CMD <%s>", cmd)
	commandsSent.WithLabelValues(kind).Inc()

	if err := c.ch.Flush(); err != nil {
		commandErrors.WithLabelValues(kind, "flush").Inc()
		return fmt.Errorf("%w: flush before %q: %v", ErrWrite, cmd, err)
	}
	if _, err := c.ch.Write([]byte(cmd)); err != nil {
		commandErrors.WithLabelValues(kind, "write").Inc()
		return fmt.Errorf("%w: %q: %v", ErrWrite, cmd, err)
	}
	return nil
}

// SendBlind writes a command that has no reply.
func (c *Codec) SendBlind(cmd string) error {
	return c.send("blind", cmd)
}

// SendConfirmed writes cmd and reads its one byte acknowledgement. The mount
// signals success with '0'.
func (c *Codec) SendConfirmed(cmd string) (bool, error) {
	b, err := c.ack("confirmed", cmd)
	if err != nil {
		return false, err
	}
	ok := b == '0'
	if !ok {
		commandErrors.WithLabelValues("confirmed", "rejected").Inc()
	}
	return ok, nil
}

// ack writes cmd and returns the single reply byte.
func (c *Codec) ack(kind, cmd string) (byte, error) {
	if err := c.send(kind, cmd); err != nil {
		return 0, err
	}

	buf, err := c.ch.ReadUntil(1, 0, c.timeout)
	if len(buf) == 0 {
		commandErrors.WithLabelValues(kind, "timeout").Inc()
		if err == nil || errors.Is(err, ErrTimeout) {
			return 0, fmt.Errorf("%q: %w", cmd, ErrTimeout)
		}
		return 0, fmt.Errorf("%q: %w", cmd, err)
	}
	c.logger.Debugf("RES <%c>", buf[0])
	return buf[0], nil
}

// Query writes cmd and returns the reply with its terminator stripped.
func (c *Codec) Query(cmd string) (string, error) {
	if err := c.send("query", cmd); err != nil {
		return "", err
	}

	buf, err := c.ch.ReadUntil(maxReplyLen, terminator, c.timeout)
	if err != nil && !errors.Is(err, ErrTimeout) {
		commandErrors.WithLabelValues("query", "read").Inc()
		return "", fmt.Errorf("%q: %w", cmd, err)
	}

	switch {
	case len(buf) == 0:
		commandErrors.WithLabelValues("query", "timeout").Inc()
		return "", fmt.Errorf("%q: %w", cmd, ErrTimeout)
	case buf[len(buf)-1] == terminator:
		buf = buf[:len(buf)-1]
	case err != nil:
		commandErrors.WithLabelValues("query", "short").Inc()
		return string(buf), fmt.Errorf("%q: %w", cmd, ErrShortRead)
	}

	reply := strings.TrimSpace(string(buf))
	c.logger.Debugf("RES <%s>", reply)
	return reply, nil
}
