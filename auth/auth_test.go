package auth

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/xconnio/xconn-go/wamp"
)

func TestAnonymous(t *testing.T) {
	a := NewAnonymous("alice")
	if a.AuthMethod() != "anonymous" {
		t.Fatalf("AuthMethod() = %q, want anonymous", a.AuthMethod())
	}
	if a.AuthID() != "alice" {
		t.Fatalf("AuthID() = %q, want alice", a.AuthID())
	}
	sig, extra, err := a.ChallengeResponse(wamp.NewDict())
	if err != nil || sig != "" {
		t.Fatalf("ChallengeResponse() = %q, %v, want empty string, nil", sig, err)
	}
	if extra == nil {
		t.Fatal("ChallengeResponse() extra = nil, want non-nil dict")
	}
}

func TestTicket(t *testing.T) {
	tk := NewTicket("bob", "s3cr3t")
	sig, _, err := tk.ChallengeResponse(wamp.NewDict())
	if err != nil {
		t.Fatalf("ChallengeResponse: %v", err)
	}
	if sig != "s3cr3t" {
		t.Fatalf("ChallengeResponse() = %q, want s3cr3t", sig)
	}
}

func TestWAMPCRAPlain(t *testing.T) {
	w := NewWAMPCRA("carol", "secretkey")
	sig, _, err := w.ChallengeResponse(wamp.Dict{"challenge": "the-challenge-string"})
	if err != nil {
		t.Fatalf("ChallengeResponse: %v", err)
	}

	mac := hmac.New(sha256.New, []byte("secretkey"))
	mac.Write([]byte("the-challenge-string"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if sig != want {
		t.Fatalf("ChallengeResponse() = %q, want %q", sig, want)
	}
}

func TestWAMPCRAMissingChallenge(t *testing.T) {
	w := NewWAMPCRA("carol", "secretkey")
	if _, _, err := w.ChallengeResponse(wamp.NewDict()); err == nil {
		t.Fatal("ChallengeResponse() with no challenge = nil error")
	}
}

func TestCryptosign(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	c, err := NewCryptosign("dave", hex.EncodeToString(priv.Seed()), hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("NewCryptosign: %v", err)
	}

	challenge := make([]byte, 32)
	challengeHex := hex.EncodeToString(challenge)

	sigHex, _, err := c.ChallengeResponse(wamp.Dict{"challenge": challengeHex})
	if err != nil {
		t.Fatalf("ChallengeResponse: %v", err)
	}

	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(raw) != ed25519.SignatureSize+len(challenge) {
		t.Fatalf("response length = %d, want %d", len(raw), ed25519.SignatureSize+len(challenge))
	}
	sig, gotChallenge := raw[:ed25519.SignatureSize], raw[ed25519.SignatureSize:]
	if !ed25519.Verify(pub, challenge, sig) {
		t.Fatal("ed25519.Verify failed on cryptosign response")
	}
	if string(gotChallenge) != string(challenge) {
		t.Fatal("echoed challenge does not match original")
	}
}

func TestCryptosignInvalidKey(t *testing.T) {
	if _, err := NewCryptosign("dave", "not-hex!!", ""); err == nil {
		t.Fatal("NewCryptosign with invalid hex = nil error")
	}
	if _, err := NewCryptosign("dave", hex.EncodeToString([]byte("tooshort")), ""); err == nil {
		t.Fatal("NewCryptosign with wrong-length key = nil error")
	}
}
