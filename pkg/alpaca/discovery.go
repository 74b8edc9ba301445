package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DiscoveryPort    = 32227
	discoveryMessage = "alpacadiscovery1"
)

// DiscoveryResponder responds to Alpaca discovery requests.
type DiscoveryResponder struct {
	addr     string
	response []byte
	logger   log.FieldLogger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewDiscoveryResponder creates a discovery responder announcing the given
// Alpaca HTTP port.
func NewDiscoveryResponder(addr string, port int, logger log.FieldLogger) *DiscoveryResponder {
	return &DiscoveryResponder{
		addr:     addr,
		response: []byte(fmt.Sprintf(`{"AlpacaPort": %d}`, port)),
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the discovery socket is bound.
func (d *DiscoveryResponder) Ready() <-chan struct{} {
	return d.ready
}

// Run answers discovery datagrams until ctx is cancelled.
func (d *DiscoveryResponder) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(d.addr, strconv.Itoa(DiscoveryPort)))
	if err != nil {
		return fmt.Errorf("cannot resolve discovery address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("cannot bind discovery socket: %w", err)
	}
	defer conn.Close()
	d.readyOnce.Do(func() { close(d.ready) })

	d.logger.Debugf("Discovery responder started on %s", addr)

	buf := make([]byte, 1024)
	for ctx.Err() == nil {
		// A read deadline lets the loop notice context cancellation.
		conn.SetReadDeadline(time.Now().Add(time.Second))

		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				d.logger.Debugf("Error reading from socket: %v", err)
			}
			continue
		}

		if !strings.Contains(string(buf[:n]), discoveryMessage) {
			continue
		}
		d.logger.Debugf("Discovery request from %s", peer)
		if _, err := conn.WriteToUDP(d.response, peer); err != nil {
			d.logger.Errorf("Error writing to socket: %v", err)
		}
	}
	return nil
}
