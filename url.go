package xconn

import (
	"fmt"
	"net/url"

	"github.com/xconnio/xconn-go/wamp"
)

// PeerURL is a parsed rawsocket peer address: tcp://host:port or
// unix:///path/to/socket. Built on net/url, which already handles the
// scheme/host/port/path split correctly.
type PeerURL struct {
	Scheme string
	Host   string
	Port   string
	Path   string
}

// ParseURL parses a rawsocket peer address of the form "tcp://host:port"
// (or "rs://host:port") or "unix:///path/to/socket" (or
// "unix+rs:///path/to/socket"). The returned Scheme is "tcp" or "unix".
func ParseURL(raw string) (*PeerURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing url: %v", wamp.ErrTransport, err)
	}

	switch u.Scheme {
	case "tcp", "rs":
		host := u.Hostname()
		port := u.Port()
		if host == "" || port == "" {
			return nil, fmt.Errorf("%w: tcp url requires host and port", wamp.ErrTransport)
		}
		return &PeerURL{Scheme: "tcp", Host: host, Port: port}, nil
	case "unix", "unix+rs":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("%w: unix url requires a path", wamp.ErrTransport)
		}
		return &PeerURL{Scheme: "unix", Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported url scheme %q", wamp.ErrTransport, u.Scheme)
	}
}
