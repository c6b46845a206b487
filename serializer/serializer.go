// Package serializer encodes and decodes whole WAMP messages to and from
// the wire formats rawsocket negotiates during its handshake.
package serializer

import (
	"fmt"

	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

// ID is the rawsocket handshake's serializer identifier (byte 1, low
// nibble).
type ID byte

const (
	IDJSON    ID = 1
	IDMsgPack ID = 2
	IDCBOR    ID = 3
)

// Serializer turns whole WAMP messages into bytes and back. Implementations
// are safe for concurrent use: BaseSession may call Encode from any
// goroutine holding the send mutex while the receive loop calls Decode.
type Serializer interface {
	ID() ID
	Encode(msg messages.Message) ([]byte, error)
	Decode(data []byte) (messages.Message, error)
}

// ByID returns the Serializer registered for id, or an error if none
// matches — used after the rawsocket handshake negotiates a serializer.
func ByID(id ID) (Serializer, error) {
	switch id {
	case IDJSON:
		return JSON{}, nil
	case IDMsgPack:
		return MsgPack{}, nil
	case IDCBOR:
		return CBOR{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown serializer id %d", wamp.ErrHandshake, id)
	}
}

// decodeList converts a raw decoded wire value (a slice with a leading
// message code) into a messages.Message, shared by every codec's Decode.
func decodeList(raw []any) (messages.Message, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty message", wamp.ErrProtocol)
	}
	code, ok := wamp.AsInt64(raw[0])
	if !ok {
		return nil, fmt.Errorf("%w: non-numeric message code %v", wamp.ErrProtocol, raw[0])
	}
	return messages.FromList(code, raw[1:])
}
