package xconn

import (
	"context"

	"github.com/xconnio/xconn-go/wamp"
)

// Invocation is the inbound request a ProcedureHandler executes, produced
// from a router INVOCATION message.
type Invocation struct {
	Details wamp.Dict
	Args    wamp.List
	Kwargs  wamp.Dict
}

// Result is a successful procedure outcome; returning one from a
// ProcedureHandler sends a YIELD back to the router.
type Result struct {
	Args    wamp.List
	Kwargs  wamp.Dict
	Details wamp.Dict
}

// ProcedureHandler executes a registered procedure. Returning a
// *wamp.ApplicationError sends an ERROR carrying its URI/args/kwargs back
// to the router; any other non-nil error sends wamp.ErrURIRuntimeError.
type ProcedureHandler func(ctx context.Context, inv *Invocation) (*Result, error)

// Event is the inbound payload an EventHandler receives, produced from a
// router EVENT message.
type Event struct {
	Details wamp.Dict
	Args    wamp.List
	Kwargs  wamp.Dict
}

// EventHandler receives published events for a subscription. Events are
// best-effort: a panic or returned state from the handler is never
// reported back to the router.
type EventHandler func(event *Event)

// Registration is a value handle bound to a confirmed REGISTERED
// procedure. It borrows its owning Session; once the session is gone,
// Unregister returns wamp.ErrInvalidState.
type Registration struct {
	ID      uint64
	session *Session
}

// Unregister releases the registration. A repeated call is not detected
// locally: it sends another UNREGISTER and returns the router's reply.
func (r *Registration) Unregister(ctx context.Context) error {
	if !r.session.Connected() {
		return wamp.ErrInvalidState
	}
	return r.session.Unregister(ctx, r.ID)
}

// Subscription is a value handle bound to a confirmed SUBSCRIBED topic.
type Subscription struct {
	ID      uint64
	session *Session
}

// Unsubscribe releases the subscription. A repeated call is not detected
// locally: it sends another UNSUBSCRIBE and returns the router's reply.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	return s.session.Unsubscribe(ctx, s.ID)
}
