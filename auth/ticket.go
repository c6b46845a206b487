package auth

import "github.com/xconnio/xconn-go/wamp"

// Ticket authenticates by returning a pre-shared ticket string verbatim,
// unconditional on the challenge contents.
type Ticket struct {
	authID string
	ticket string
}

// NewTicket builds a Ticket authenticator for the given authID/ticket
// pair.
func NewTicket(authID, ticket string) *Ticket {
	return &Ticket{authID: authID, ticket: ticket}
}

func (t *Ticket) AuthMethod() string   { return "ticket" }
func (t *Ticket) AuthID() string       { return t.authID }
func (t *Ticket) AuthExtra() wamp.Dict { return wamp.NewDict() }

func (t *Ticket) ChallengeResponse(wamp.Dict) (string, wamp.Dict, error) {
	return t.ticket, wamp.NewDict(), nil
}
