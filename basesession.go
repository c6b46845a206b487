package xconn

import (
	"github.com/xconnio/xconn-go/rawsocket"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

// BaseSession pairs a framed rawsocket connection with a codec and the
// session metadata the handshake produced. It is the thin "send/receive
// whole WAMP messages" layer that Session builds its protocol runtime on
// top of.
type BaseSession struct {
	conn    *rawsocket.Conn
	codec   serializer.Serializer
	details wamp.SessionDetails
}

// NewBaseSession pairs an already rawsocket-handshaken connection with the
// negotiated codec and the session details the join handshake produced.
func NewBaseSession(conn *rawsocket.Conn, codec serializer.Serializer, details wamp.SessionDetails) *BaseSession {
	return &BaseSession{conn: conn, codec: codec, details: details}
}

// Details returns the immutable session metadata.
func (b *BaseSession) Details() wamp.SessionDetails { return b.details }

// SendMessage serializes and frame-writes one WAMP message.
func (b *BaseSession) SendMessage(msg messages.Message) error {
	data, err := b.codec.Encode(msg)
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(data)
}

// ReceiveMessage frame-reads and deserializes the next WAMP message.
func (b *BaseSession) ReceiveMessage() (messages.Message, error) {
	data, err := b.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return b.codec.Decode(data)
}

// ShutdownWrite half-closes the underlying transport's outgoing
// direction, used to unblock a blocked read on the receive loop.
func (b *BaseSession) ShutdownWrite() error {
	return b.conn.Transport().ShutdownWrite()
}

// Close fully closes the underlying transport.
func (b *BaseSession) Close() error {
	return b.conn.Transport().Close()
}
