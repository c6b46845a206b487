// Package transport owns the raw byte stream beneath rawsocket framing:
// connect, exact-length reads, whole writes, half-close, and full close,
// over TCP or a UNIX-domain socket.
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"github.com/xconnio/xconn-go/wamp"
)

// Transport is a byte-stream abstraction. A single goroutine may call
// ReadFull (the Session's receive loop); Write may be called from any
// goroutine holding the caller's send mutex.
type Transport interface {
	// ReadFull fills buf completely or returns an error: a wrapped
	// wamp.ErrConnClosed after Close, io.EOF on a peer close, a wrapped
	// wamp.ErrTransport otherwise.
	ReadFull(buf []byte) error
	// Write writes all of b or returns an error: a wrapped
	// wamp.ErrConnClosed after Close, a wrapped wamp.ErrTransport otherwise.
	Write(b []byte) error
	// ShutdownWrite half-closes the outgoing direction. Idempotent;
	// tolerates being called when already disconnected.
	ShutdownWrite() error
	// Close fully closes the transport. Idempotent.
	Close() error
	// IsOpen reports whether Close has not yet been called on the
	// transport returned by DialTCP, DialUnix or New.
	IsOpen() bool
}

// conn is the shared net.Conn-backed implementation for TCP and UNIX.
type conn struct {
	nc     net.Conn
	closed atomic.Bool
}

// New wraps an already-connected net.Conn as a Transport. DialTCP and
// DialUnix cover the two peer addresses this module's clients dial; New
// is for test fixtures (e.g. net.Pipe) and any other net.Conn a caller
// already holds.
func New(nc net.Conn) Transport {
	return &conn{nc: nc}
}

func (c *conn) ReadFull(buf []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("%w: not connected", wamp.ErrConnClosed)
	}
	_, err := io.ReadFull(c.nc, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return fmt.Errorf("%w: %v", wamp.ErrTransport, err)
	}
	return nil
}

func (c *conn) Write(b []byte) error {
	if c.closed.Load() {
		return fmt.Errorf("%w: not connected", wamp.ErrConnClosed)
	}
	_, err := c.nc.Write(b)
	if err != nil {
		return fmt.Errorf("%w: %v", wamp.ErrTransport, err)
	}
	return nil
}

// halfCloser is implemented by *net.TCPConn and *net.UnixConn.
type halfCloser interface {
	CloseWrite() error
}

func (c *conn) ShutdownWrite() error {
	if c.closed.Load() {
		return nil
	}
	if hc, ok := c.nc.(halfCloser); ok {
		if err := hc.CloseWrite(); err != nil {
			if isNotConnected(err) {
				return nil
			}
			return fmt.Errorf("%w: %v", wamp.ErrTransport, err)
		}
	}
	return nil
}

func (c *conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if err := c.nc.Close(); err != nil {
		return fmt.Errorf("%w: %v", wamp.ErrTransport, err)
	}
	return nil
}

func (c *conn) IsOpen() bool {
	return !c.closed.Load()
}

func isNotConnected(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
