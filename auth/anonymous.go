package auth

import "github.com/xconnio/xconn-go/wamp"

// Anonymous never expects a challenge; the router admits the session
// without a credential check.
type Anonymous struct {
	authID    string
	authExtra wamp.Dict
}

// NewAnonymous builds an Anonymous authenticator. authID may be empty, in
// which case the router assigns one.
func NewAnonymous(authID string) *Anonymous {
	return &Anonymous{authID: authID, authExtra: wamp.NewDict()}
}

func (a *Anonymous) AuthMethod() string    { return "anonymous" }
func (a *Anonymous) AuthID() string        { return a.authID }
func (a *Anonymous) AuthExtra() wamp.Dict  { return a.authExtra }

func (a *Anonymous) ChallengeResponse(wamp.Dict) (string, wamp.Dict, error) {
	return "", wamp.NewDict(), nil
}
