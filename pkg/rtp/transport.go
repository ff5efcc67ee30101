package rtp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// ErrTransport marks a failed send on the media channel.
var ErrTransport = errors.New("rtp: transport error")

// ErrTransportClosed is returned when sending on a closed transport.
var ErrTransportClosed = fmt.Errorf("%w: closed", ErrTransport)

// TransportStats is a snapshot of the datagrams sent so far
type TransportStats struct {
	Datagrams uint64
	Bytes     uint64
}

// Transport sends RTP datagrams over unicast UDP to one fixed destination.
type Transport struct {
	conn        net.PacketConn
	destination *net.UDPAddr
	datagrams   atomic.Uint64
	bytes       atomic.Uint64
	closed      bool
	mu          sync.RWMutex
}

// NewTransport opens an unconnected UDP socket on an ephemeral port
func NewTransport(destination *net.UDPAddr) (*Transport, error) {
	if destination == nil {
		return nil, fmt.Errorf("%w: no destination", ErrTransport)
	}

	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open RTP socket: %v", ErrTransport, err)
	}

	slog.Info("RTP transport opened", "localAddr", conn.LocalAddr(), "destination", destination)

	return &Transport{
		conn:        conn,
		destination: destination,
	}, nil
}

// Send writes one datagram to the destination
func (t *Transport) Send(datagram []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrTransportClosed
	}

	n, err := t.conn.WriteTo(datagram, t.destination)
	if err != nil {
		return fmt.Errorf("%w: failed to send RTP packet: %v", ErrTransport, err)
	}

	t.datagrams.Add(1)
	t.bytes.Add(uint64(n))
	return nil
}

// Close closes the socket. Subsequent sends fail with ErrTransportClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	stats := t.Stats()
	slog.Info("RTP transport closed", "destination", t.destination, "datagrams", stats.Datagrams, "bytes", stats.Bytes)
	return t.conn.Close()
}

// Stats returns the sent counters
func (t *Transport) Stats() TransportStats {
	return TransportStats{
		Datagrams: t.datagrams.Load(),
		Bytes:     t.bytes.Load(),
	}
}

// LocalAddr returns the local socket address
func (t *Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Destination returns the destination address
func (t *Transport) Destination() *net.UDPAddr {
	return t.destination
}
