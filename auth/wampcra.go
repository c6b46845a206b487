package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/xconnio/xconn-go/wamp"
)

// WAMPCRA implements challenge-response authentication: HMAC-SHA256 over
// the router's challenge string, keyed by the shared secret or, when the
// challenge carries a salt, by a PBKDF2-HMAC-SHA256-derived key.
type WAMPCRA struct {
	authID string
	secret string
}

// NewWAMPCRA builds a WAMPCRA authenticator for the given authID/secret
// pair. The same constructor serves both the plain and salted variants;
// salting is decided per-challenge from the extra the router sends.
func NewWAMPCRA(authID, secret string) *WAMPCRA {
	return &WAMPCRA{authID: authID, secret: secret}
}

func (w *WAMPCRA) AuthMethod() string   { return "wampcra" }
func (w *WAMPCRA) AuthID() string       { return w.authID }
func (w *WAMPCRA) AuthExtra() wamp.Dict { return wamp.NewDict() }

func (w *WAMPCRA) ChallengeResponse(challengeExtra wamp.Dict) (string, wamp.Dict, error) {
	challenge, ok := wamp.AsString(challengeExtra["challenge"])
	if !ok {
		return "", nil, fmt.Errorf("%w: wampcra challenge missing \"challenge\" string", wamp.ErrProtocol)
	}

	key := []byte(w.secret)
	if salt, ok := wamp.AsString(challengeExtra["salt"]); ok && salt != "" {
		iterations, _ := wamp.AsInt64(challengeExtra["iterations"])
		if iterations <= 0 {
			iterations = 1000
		}
		keyLen, _ := wamp.AsInt64(challengeExtra["keylen"])
		if keyLen <= 0 {
			keyLen = 32
		}
		key = pbkdf2.Key([]byte(w.secret), []byte(salt), int(iterations), int(keyLen), sha256.New)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(challenge))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return signature, wamp.NewDict(), nil
}
