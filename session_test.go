package xconn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/xconnio/xconn-go/auth"
	"github.com/xconnio/xconn-go/internal/testrouter"
	"github.com/xconnio/xconn-go/rawsocket"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
	"github.com/xconnio/xconn-go/wamp"
)

// dialTestRouter wires a net.Pipe between a fresh testrouter.Router and a
// newly joined Session, so the runtime's RPC/PubSub paths can be driven
// end to end without a real router process.
func dialTestRouter(t *testing.T, router *testrouter.Router, authenticator auth.Authenticator, opts ...Option) *Session {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	go router.Accept(transport.New(serverConn))

	cfg := NewConfig(opts...)
	joiner := NewJoiner(authenticator, cfg.Serializer)
	base, err := joiner.Join(transport.New(clientConn), "realm1", rawsocket.LengthExponent(cfg.MaxMessageSize))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return NewSession(base, cfg)
}

func TestRegisterCallUnregister(t *testing.T) {
	router := testrouter.New()
	callee := dialTestRouter(t, router, auth.NewAnonymous("callee"))
	caller := dialTestRouter(t, router, auth.NewAnonymous("caller"))

	reg, err := callee.Register("com.example.add", func(ctx context.Context, inv *Invocation) (*Result, error) {
		a, _ := wamp.AsInt64(inv.Args[0])
		b, _ := wamp.AsInt64(inv.Args[1])
		return &Result{Args: wamp.List{a + b}}, nil
	}).Do(context.Background())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	result, err := caller.Call("com.example.add").Arg(2).Arg(3).Do(context.Background())
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	sum, _ := wamp.AsInt64(result.Args[0])
	if sum != 5 {
		t.Fatalf("call result = %v, want 5", sum)
	}

	if err := reg.Unregister(context.Background()); err != nil {
		t.Fatalf("Unregister: %v", err)
	}

	if _, err := caller.Call("com.example.add").Arg(1).Arg(1).Do(context.Background()); err == nil {
		t.Fatal("Call after Unregister = nil error, want no_such_procedure")
	}
}

func TestCallApplicationError(t *testing.T) {
	router := testrouter.New()
	callee := dialTestRouter(t, router, auth.NewAnonymous("callee"))
	caller := dialTestRouter(t, router, auth.NewAnonymous("caller"))

	_, err := callee.Register("com.example.boom", func(ctx context.Context, inv *Invocation) (*Result, error) {
		return nil, wamp.NewApplicationError("com.example.boom_error", wamp.List{"bad input"}, nil)
	}).Do(context.Background())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = caller.Call("com.example.boom").Do(context.Background())
	if err == nil {
		t.Fatal("Call = nil error, want application error")
	}
	appErr, ok := err.(*wamp.ApplicationError)
	if !ok {
		t.Fatalf("Call error = %T, want *wamp.ApplicationError", err)
	}
	if appErr.URI != "com.example.boom_error" {
		t.Fatalf("error URI = %q, want com.example.boom_error", appErr.URI)
	}
}

func TestSubscribePublish(t *testing.T) {
	router := testrouter.New()
	subscriber := dialTestRouter(t, router, auth.NewAnonymous("subscriber"))
	publisher := dialTestRouter(t, router, auth.NewAnonymous("publisher"))

	received := make(chan *Event, 1)
	sub, err := subscriber.Subscribe("com.example.topic", func(e *Event) {
		received <- e
	}).Do(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := publisher.Publish("com.example.topic").Arg("payload").Acknowledge(true).Do(context.Background()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case e := <-received:
		if e.Args[0] != "payload" {
			t.Fatalf("event args = %v, want [payload]", e.Args)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	if err := sub.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
}

func TestLeaveTransitionsToDisconnected(t *testing.T) {
	router := testrouter.New()
	session := dialTestRouter(t, router, auth.NewAnonymous("leaver"))

	if !session.Connected() {
		t.Fatal("session not connected after join")
	}
	if err := session.Leave(context.Background()); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if session.State() != wamp.StateDisconnected {
		t.Fatalf("State() after Leave = %v, want Disconnected", session.State())
	}
	if err := session.Leave(context.Background()); err == nil {
		t.Fatal("second Leave() = nil error, want wamp.ErrInvalidState")
	}
}

func TestCallAfterDisconnectFailsFast(t *testing.T) {
	router := testrouter.New()
	session := dialTestRouter(t, router, auth.NewAnonymous("leaver"))

	if err := session.Leave(context.Background()); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	if _, err := session.Call("com.example.add").Do(context.Background()); err != wamp.ErrConnClosed {
		t.Fatalf("Call after Leave error = %v, want wamp.ErrConnClosed", err)
	}
}

func TestCallTimesOutAndGCsPendingEntry(t *testing.T) {
	router := testrouter.New()
	callee := dialTestRouter(t, router, auth.NewAnonymous("callee"))
	caller := dialTestRouter(t, router, auth.NewAnonymous("caller"), WithTimeout(50*time.Millisecond))

	blocked := make(chan struct{})
	_, err := callee.Register("com.example.slow", func(ctx context.Context, inv *Invocation) (*Result, error) {
		<-blocked // never closed: the handler outlives the caller's timeout
		return &Result{}, nil
	}).Do(context.Background())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = caller.Call("com.example.slow").Do(context.Background())
	if err != wamp.ErrTimeout {
		t.Fatalf("Call to slow procedure = %v, want wamp.ErrTimeout", err)
	}

	caller.callMu.Lock()
	n := len(caller.callPending)
	caller.callMu.Unlock()
	if n != 0 {
		t.Fatalf("callPending size after timeout = %d, want 0", n)
	}
}

func TestTicketAuth(t *testing.T) {
	router := testrouter.New()
	router.Ticket = "s3cr3t"

	session := dialTestRouter(t, router, auth.NewTicket("alice", "s3cr3t"))
	if session.Details().AuthID != "alice" {
		t.Fatalf("Details().AuthID = %q, want alice", session.Details().AuthID)
	}
}

func TestTicketAuthWrongSecretAborts(t *testing.T) {
	router := testrouter.New()
	router.Ticket = "s3cr3t"

	clientConn, serverConn := net.Pipe()
	go router.Accept(transport.New(serverConn))

	joiner := NewJoiner(auth.NewTicket("alice", "wrong"), serializer.IDJSON)
	if _, err := joiner.Join(transport.New(clientConn), "realm1", rawsocket.DefaultMaxLengthExponent); err == nil {
		t.Fatal("Join with wrong ticket = nil error")
	}
}
