package wamp

// SessionDetails describes an established session. It is produced once by
// the join handshake, is immutable thereafter, and is safe to read
// concurrently from any goroutine for the lifetime of the Session.
type SessionDetails struct {
	SessionID uint64
	Realm     string
	AuthID    string
	AuthRole  string
}

// State is the monotonic lifecycle of a Session.
type State int32

const (
	// StateConnected is the only state in which new requests may be sent.
	StateConnected State = iota
	// StateLeaving is entered after a local Leave() until the peer's
	// GOODBYE is received or the leave times out.
	StateLeaving
	// StateDisconnected is terminal: the transport is closed and every
	// pending request has been rejected.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateLeaving:
		return "leaving"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
