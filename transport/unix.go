package transport

import (
	"fmt"
	"net"

	"github.com/xconnio/xconn-go/wamp"
)

// Unix is a Transport over a UNIX-domain stream socket, addressed by
// filesystem path (the port component of the connection URL is ignored).
type Unix struct {
	*conn
}

// DialUnix connects to the UNIX-domain socket at path.
func DialUnix(path string) (*Unix, error) {
	nc, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wamp.ErrTransport, err)
	}
	return &Unix{conn: &conn{nc: nc}}, nil
}
