package transport

import (
	"fmt"
	"net"

	"github.com/xconnio/xconn-go/wamp"
)

// TCP is a Transport over a TCP socket, addressed by host and numeric or
// service-name port.
type TCP struct {
	*conn
}

// DialTCP connects to host:port and returns a ready Transport.
func DialTCP(host, port string) (*TCP, error) {
	nc, err := net.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wamp.ErrTransport, err)
	}
	return &TCP{conn: &conn{nc: nc}}, nil
}
