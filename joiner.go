package xconn

import (
	"fmt"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/rawsocket"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

// Joiner drives the HELLO/CHALLENGE/AUTHENTICATE/WELCOME handshake over an
// already rawsocket-handshaken connection, delegating credential
// computation to an auth.Authenticator.
type Joiner struct {
	authenticator auth.Authenticator
	serializerID  serializer.ID
}

// NewJoiner builds a Joiner for the given authenticator and wire
// serializer.
func NewJoiner(authenticator auth.Authenticator, serializerID serializer.ID) *Joiner {
	return &Joiner{authenticator: authenticator, serializerID: serializerID}
}

// Join performs the rawsocket handshake over t, then the WAMP HELLO
// handshake over realm, returning a ready BaseSession. On any failure the
// transport is closed before returning.
func (j *Joiner) Join(t transport.Transport, realm string, maxLengthExponent byte) (*BaseSession, error) {
	rsConn := rawsocket.New(t)
	if err := rsConn.ClientHandshake(j.serializerID, maxLengthExponent); err != nil {
		t.Close()
		return nil, err
	}

	codec, err := serializer.ByID(j.serializerID)
	if err != nil {
		t.Close()
		return nil, err
	}

	details, err := j.hello(rsConn, codec, realm)
	if err != nil {
		t.Close()
		return nil, err
	}

	return NewBaseSession(rsConn, codec, details), nil
}

func (j *Joiner) hello(conn *rawsocket.Conn, codec serializer.Serializer, realm string) (wamp.SessionDetails, error) {
	helloDetails := wamp.Dict{
		"roles": wamp.Dict{
			"caller":      wamp.NewDict(),
			"callee":      wamp.NewDict(),
			"publisher":   wamp.NewDict(),
			"subscriber":  wamp.NewDict(),
		},
		"authmethods": wamp.List{j.authenticator.AuthMethod()},
		"authid":      j.authenticator.AuthID(),
		"authextra":   j.authenticator.AuthExtra(),
	}

	if err := sendFramed(conn, codec, &messages.Hello{Realm: realm, Details: helloDetails}); err != nil {
		return wamp.SessionDetails{}, err
	}

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return wamp.SessionDetails{}, fmt.Errorf("%w: %v", wamp.ErrHandshake, err)
		}
		msg, err := codec.Decode(data)
		if err != nil {
			return wamp.SessionDetails{}, fmt.Errorf("%w: %v", wamp.ErrHandshake, err)
		}

		switch m := msg.(type) {
		case *messages.Challenge:
			signature, extra, err := j.authenticator.ChallengeResponse(m.Extra)
			if err != nil {
				return wamp.SessionDetails{}, fmt.Errorf("%w: computing challenge response: %v", wamp.ErrHandshake, err)
			}
			if extra == nil {
				extra = wamp.NewDict()
			}
			if err := sendFramed(conn, codec, &messages.Authenticate{Signature: signature, Extra: extra}); err != nil {
				return wamp.SessionDetails{}, err
			}
		case *messages.Welcome:
			return wamp.SessionDetails{
				SessionID: m.SessionID,
				Realm:     realm,
				AuthID:    strField(m.Details, "authid"),
				AuthRole:  strField(m.Details, "authrole"),
			}, nil
		case *messages.Abort:
			return wamp.SessionDetails{}, wamp.NewHandshakeError(m.Reason)
		default:
			return wamp.SessionDetails{}, fmt.Errorf("%w: unexpected message type %d during handshake", wamp.ErrProtocol, msg.Type())
		}
	}
}

func sendFramed(conn *rawsocket.Conn, codec serializer.Serializer, msg messages.Message) error {
	data, err := codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", wamp.ErrHandshake, err)
	}
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("%w: %v", wamp.ErrHandshake, err)
	}
	return nil
}

func strField(d wamp.Dict, key string) string {
	s, _ := wamp.AsString(d[key])
	return s
}
