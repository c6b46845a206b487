// Package auth implements the WAMP client authenticators: the credential
// computation the join handshake (SessionJoiner) drives as an opaque
// collaborator.
package auth

import "github.com/xconnio/xconn-go/wamp"

// Authenticator produces the response to a router CHALLENGE for one WAMP
// authentication method. SessionJoiner calls ChallengeResponse once, after
// receiving CHALLENGE and before sending AUTHENTICATE.
type Authenticator interface {
	// AuthMethod is advertised in HELLO's authmethods list.
	AuthMethod() string
	// AuthID is advertised in HELLO.
	AuthID() string
	// AuthExtra is advertised in HELLO, e.g. a cryptosign public key.
	AuthExtra() wamp.Dict
	// ChallengeResponse computes the AUTHENTICATE signature and any extra
	// data for the given CHALLENGE.Extra.
	ChallengeResponse(challengeExtra wamp.Dict) (signature string, authExtra wamp.Dict, err error)
}
