package xconn

import (
	"fmt"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/rawsocket"
	"github.com/xconnio/xconn-go/transport"
	"github.com/xconnio/xconn-go/wamp"
)

// Connect dials peerURL, performs the rawsocket and WAMP join handshakes
// against realm using authenticator, and returns a running Session. On
// any failure before the session is established, the dialed transport is
// closed.
func Connect(peerURL, realm string, authenticator auth.Authenticator, opts ...Option) (*Session, error) {
	cfg := NewConfig(opts...)

	parsed, err := ParseURL(peerURL)
	if err != nil {
		return nil, err
	}

	t, err := dial(parsed)
	if err != nil {
		return nil, err
	}

	joiner := NewJoiner(authenticator, cfg.Serializer)
	base, err := joiner.Join(t, realm, rawsocket.LengthExponent(cfg.MaxMessageSize))
	if err != nil {
		return nil, err
	}

	return NewSession(base, cfg), nil
}

func dial(u *PeerURL) (transport.Transport, error) {
	switch u.Scheme {
	case "tcp":
		return transport.DialTCP(u.Host, u.Port)
	case "unix":
		return transport.DialUnix(u.Path)
	default:
		return nil, fmt.Errorf("%w: unsupported url scheme %q", wamp.ErrTransport, u.Scheme)
	}
}
