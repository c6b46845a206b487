// Package rawsocket implements WAMP's rawsocket framing: the 4-octet
// magic handshake that negotiates a serializer and maximum message size,
// and the 4-octet per-message header that follows.
package rawsocket

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
	"github.com/xconnio/xconn-go/wamp"
)

const (
	magicOctet = 0x7F

	// frameWAMP, framePing, framePong are the per-message header types.
	frameWAMP = 0
	framePing = 1
	framePong = 2

	// DefaultMaxLengthExponent encodes a 16 MiB maximum message size:
	// maxMessageSize(15) == 2^(9+15) == 2^24. The exponent is a 4-bit wire
	// field, so it ranges 0-15.
	DefaultMaxLengthExponent = 15

	minLengthExponent = 9
	maxLengthExponent = 15
)

// handshakeErrorCode values occupy the high nibble of the reply's second
// octet (index 1), whose low nibble is then 0.
const (
	errSerializerUnsupported = 1
	errMaxLengthUnacceptable = 2
	errUseOfReservedBits     = 3
	errMaxConnectionCount    = 4
)

// maxMessageSize converts a length exponent into the byte ceiling it
// represents: 2^(9+exp).
func maxMessageSize(exp byte) int {
	return 1 << (minLengthExponent + exp)
}

// LengthExponent returns the smallest rawsocket length exponent whose
// maxMessageSize covers maxBytes, clamped to the 4-bit field's [0, 15]
// range (2^9 to 2^24 bytes).
// Used to translate Config.MaxMessageSize into the value ClientHandshake
// expects.
func LengthExponent(maxBytes int) byte {
	for exp := byte(0); exp <= maxLengthExponent; exp++ {
		if maxMessageSize(exp) >= maxBytes {
			return exp
		}
	}
	return maxLengthExponent
}

// Conn pairs a transport.Transport with the negotiated framing state. Reads
// are performed exclusively by the owning Session's receive loop; writes
// are serialized under writeMu, so header and payload are never
// interleaved with a concurrent write.
type Conn struct {
	transport transport.Transport
	writeMu   sync.Mutex
	maxSize   int
}

// New wraps an already-connected transport. Call ClientHandshake before
// any ReadMessage/WriteMessage call.
func New(t transport.Transport) *Conn {
	return &Conn{transport: t, maxSize: maxMessageSize(DefaultMaxLengthExponent)}
}

// ClientHandshake performs the client side of the rawsocket handshake:
// send the magic octet sequence naming the requested serializer and
// maximum message size, then validate the server's reply.
func (c *Conn) ClientHandshake(id serializer.ID, lengthExponent byte) error {
	if lengthExponent > maxLengthExponent {
		lengthExponent = maxLengthExponent
	}
	out := [4]byte{
		magicOctet,
		(lengthExponent << 4) | byte(id),
		0x00,
		0x00,
	}
	if err := c.transport.Write(out[:]); err != nil {
		return fmt.Errorf("%w: sending handshake: %v", wamp.ErrHandshake, err)
	}

	var in [4]byte
	if err := c.transport.ReadFull(in[:]); err != nil {
		return fmt.Errorf("%w: reading handshake reply: %v", wamp.ErrHandshake, err)
	}
	if in[0] != magicOctet {
		return wamp.NewHandshakeError("magic octet mismatch")
	}
	// A refusal carries the error code in the high nibble and 0 where a
	// serializer id would be; an acceptance carries the peer's length
	// exponent in the high nibble.
	if in[1]&0x0f == 0 {
		switch in[1] >> 4 {
		case errSerializerUnsupported:
			return wamp.NewHandshakeError("serializer refused by peer")
		case errMaxLengthUnacceptable:
			return wamp.NewHandshakeError("maximum message length refused by peer")
		default:
			return wamp.NewHandshakeError("peer refused rawsocket handshake")
		}
	}
	peerExp := in[1] >> 4
	c.maxSize = maxMessageSize(minUint8(peerExp, lengthExponent))
	return nil
}

// ServerHandshake performs the server side of the rawsocket handshake, used
// by internal/testrouter to drive Session end to end without a real
// router. It accepts any of the three serializer ids the client offers.
func (c *Conn) ServerHandshake() (serializer.ID, error) {
	var in [4]byte
	if err := c.transport.ReadFull(in[:]); err != nil {
		return 0, fmt.Errorf("%w: reading handshake: %v", wamp.ErrHandshake, err)
	}
	if in[0] != magicOctet {
		out := [4]byte{magicOctet, errUseOfReservedBits << 4, 0, 0}
		_ = c.transport.Write(out[:])
		return 0, wamp.NewHandshakeError("magic octet mismatch")
	}
	clientExp := in[1] >> 4
	id := serializer.ID(in[1] & 0x0f)
	if _, err := serializer.ByID(id); err != nil {
		out := [4]byte{magicOctet, errSerializerUnsupported << 4, 0, 0}
		_ = c.transport.Write(out[:])
		return 0, err
	}
	c.maxSize = maxMessageSize(clientExp)
	out := [4]byte{magicOctet, (clientExp << 4) | byte(id), 0, 0}
	if err := c.transport.Write(out[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", wamp.ErrHandshake, err)
	}
	return id, nil
}

func minUint8(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

// ReadMessage returns the next WAMP payload, silently answering PING
// frames with PONG and discarding PONG frames.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		var header [4]byte
		if err := c.transport.ReadFull(header[:]); err != nil {
			return nil, err
		}
		kind := header[0]
		length := int(header[1])<<16 | int(header[2])<<8 | int(header[3])
		if length > c.maxSize {
			return nil, fmt.Errorf("%w: frame length %d exceeds negotiated maximum %d", wamp.ErrProtocol, length, c.maxSize)
		}
		payload := make([]byte, length)
		if err := c.transport.ReadFull(payload); err != nil {
			return nil, err
		}
		switch kind {
		case frameWAMP:
			return payload, nil
		case framePing:
			if err := c.writeFrame(framePong, payload); err != nil {
				return nil, err
			}
		case framePong:
			// unsolicited or answered pong: discard and keep reading.
		default:
			return nil, fmt.Errorf("%w: unknown rawsocket frame type %d", wamp.ErrProtocol, kind)
		}
	}
}

// WriteMessage frames and writes a single WAMP payload. Header and body
// are emitted as one Write call so a concurrent writer can never
// interleave with it.
func (c *Conn) WriteMessage(payload []byte) error {
	return c.writeFrame(frameWAMP, payload)
}

func (c *Conn) writeFrame(kind byte, payload []byte) error {
	if len(payload) > c.maxSize {
		return fmt.Errorf("%w: message of %d bytes exceeds negotiated maximum %d", wamp.ErrProtocol, len(payload), c.maxSize)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var header [4]byte
	header[0] = kind
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(payload)))
	header[1], header[2], header[3] = l[1], l[2], l[3]

	buf := make([]byte, 0, 4+len(payload))
	buf = append(buf, header[:]...)
	buf = append(buf, payload...)
	return c.transport.Write(buf)
}

// Transport returns the underlying byte-stream transport, so BaseSession
// can delegate Close/ShutdownWrite/IsOpen.
func (c *Conn) Transport() transport.Transport {
	return c.transport
}
