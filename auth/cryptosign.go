package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/xconnio/xconn-go/wamp"
)

// Cryptosign authenticates by Ed25519-signing the router's 32-byte
// challenge. The AUTHENTICATE signature is the 64-byte signature
// concatenated with the original challenge bytes, hex-encoded, per the
// WAMP cryptosign convention.
type Cryptosign struct {
	authID     string
	privateKey ed25519.PrivateKey
	authExtra  wamp.Dict
}

// NewCryptosign builds a Cryptosign authenticator from a hex-encoded
// Ed25519 private key or 32-byte seed. publicKeyHex is advertised in
// HELLO's authextra so the router can select the matching credential.
func NewCryptosign(authID, privateKeyHex, publicKeyHex string) (*Cryptosign, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding cryptosign private key: %v", wamp.ErrHandshake, err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("%w: cryptosign private key must be %d or %d bytes, got %d",
			wamp.ErrHandshake, ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	extra := wamp.NewDict()
	if publicKeyHex != "" {
		extra["pubkey"] = publicKeyHex
	}
	return &Cryptosign{authID: authID, privateKey: priv, authExtra: extra}, nil
}

func (c *Cryptosign) AuthMethod() string   { return "cryptosign" }
func (c *Cryptosign) AuthID() string       { return c.authID }
func (c *Cryptosign) AuthExtra() wamp.Dict { return c.authExtra }

func (c *Cryptosign) ChallengeResponse(challengeExtra wamp.Dict) (string, wamp.Dict, error) {
	challengeHex, ok := wamp.AsString(challengeExtra["challenge"])
	if !ok {
		return "", nil, fmt.Errorf("%w: cryptosign challenge missing \"challenge\" string", wamp.ErrProtocol)
	}
	challenge, err := hex.DecodeString(challengeHex)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decoding cryptosign challenge: %v", wamp.ErrProtocol, err)
	}

	signature := ed25519.Sign(c.privateKey, challenge)
	response := append(signature, challenge...)
	return hex.EncodeToString(response), wamp.NewDict(), nil
}
