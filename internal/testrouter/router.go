// Package testrouter is a minimal in-memory WAMP router used only by this
// module's own tests, so Session's RPC and PubSub paths can be exercised
// end to end over a real rawsocket+net.Pipe transport without depending on
// an external router process.
package testrouter

import (
	"sync"

	"github.com/xconnio/xconn-go/rawsocket"
	"github.com/xconnio/xconn-go/serializer"
	"github.com/xconnio/xconn-go/transport"
	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

// Router accepts joined peers on one realm and forwards CALL/PUBLISH
// traffic between them the way a real WAMP broker+dealer would, for
// exactly the subset of behavior the session runtime's tests need.
type Router struct {
	// Ticket is the expected secret for peers whose HELLO offers the
	// "ticket" authmethod; such a peer sending any other ticket is
	// aborted. The authid is never checked, and peers that do not offer
	// "ticket" are admitted without a challenge whatever Ticket holds.
	Ticket string

	mu             sync.Mutex
	nextSessionID  uint64
	nextID         uint64
	registrations  map[string]*boundProcedure
	subscriptions  map[string]map[uint64]*boundSubscriber
}

type boundProcedure struct {
	sessionID uint64
	regID     uint64
	peer      *peerConn
}

type boundSubscriber struct {
	sessionID uint64
	subID     uint64
	peer      *peerConn
}

// New returns an empty Router.
func New() *Router {
	return &Router{
		registrations: make(map[string]*boundProcedure),
		subscriptions: make(map[string]map[uint64]*boundSubscriber),
	}
}

type peerConn struct {
	conn     *rawsocket.Conn
	codec    serializer.Serializer
	sendMu   sync.Mutex
	sessionID uint64

	// pendingCalls maps this peer's own outbound INVOCATION request ids
	// back to the caller peer and its original CALL request id, so a
	// YIELD/ERROR can be relayed as RESULT/ERROR to the right caller.
	mu           sync.Mutex
	pendingCalls map[uint64]pendingCall
}

type pendingCall struct {
	caller    *peerConn
	requestID uint64
}

func (p *peerConn) send(msg messages.Message) error {
	data, err := p.codec.Encode(msg)
	if err != nil {
		return err
	}
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	return p.conn.WriteMessage(data)
}

// Accept performs the rawsocket and WAMP join handshakes on t as the
// router side, then services the peer until it disconnects or the
// connection fails. Accept blocks; call it from its own goroutine per
// connection.
func (r *Router) Accept(t transport.Transport) {
	rsConn := rawsocket.New(t)
	serializerID, err := rsConn.ServerHandshake()
	if err != nil {
		t.Close()
		return
	}
	codec, err := serializer.ByID(serializerID)
	if err != nil {
		t.Close()
		return
	}

	peer := &peerConn{conn: rsConn, codec: codec, pendingCalls: make(map[uint64]pendingCall)}
	defer r.dropPeer(peer)
	defer t.Close()

	if !r.join(peer) {
		return
	}

	for {
		data, err := rsConn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := codec.Decode(data)
		if err != nil {
			return
		}
		if !r.dispatch(peer, msg) {
			return
		}
	}
}

func (r *Router) join(peer *peerConn) bool {
	data, err := peer.conn.ReadMessage()
	if err != nil {
		return false
	}
	msg, err := peer.codec.Decode(data)
	if err != nil {
		return false
	}
	hello, ok := msg.(*messages.Hello)
	if !ok {
		return false
	}

	authmethods, _ := hello.Details["authmethods"].(wamp.List)
	wantsTicket := false
	for _, m := range authmethods {
		if s, _ := wamp.AsString(m); s == "ticket" {
			wantsTicket = true
		}
	}

	if wantsTicket {
		if err := peer.send(&messages.Challenge{AuthMethod: "ticket", Extra: wamp.NewDict()}); err != nil {
			return false
		}
		data, err := peer.conn.ReadMessage()
		if err != nil {
			return false
		}
		authMsg, err := peer.codec.Decode(data)
		if err != nil {
			return false
		}
		auth, ok := authMsg.(*messages.Authenticate)
		if !ok || auth.Signature != r.Ticket {
			_ = peer.send(&messages.Abort{Details: wamp.NewDict(), Reason: "wamp.error.authentication_failed"})
			return false
		}
	}

	r.mu.Lock()
	r.nextSessionID++
	sessionID := r.nextSessionID
	r.mu.Unlock()
	peer.sessionID = sessionID

	authID, _ := wamp.AsString(hello.Details["authid"])
	welcomeDetails := wamp.Dict{
		"authid":   authID,
		"authrole": "anonymous",
		"roles":    wamp.NewDict(),
	}
	return peer.send(&messages.Welcome{SessionID: sessionID, Details: welcomeDetails}) == nil
}

// dispatch handles one decoded message from peer. The bool return reports
// whether the connection should stay open.
func (r *Router) dispatch(peer *peerConn, msg messages.Message) bool {
	switch m := msg.(type) {
	case *messages.Goodbye:
		_ = peer.send(&messages.Goodbye{Details: wamp.NewDict(), Reason: wamp.CloseReasonGoodbyeOut})
		return false
	case *messages.Register:
		r.mu.Lock()
		r.nextID++
		regID := r.nextID
		r.registrations[m.Procedure] = &boundProcedure{sessionID: peer.sessionID, regID: regID, peer: peer}
		r.mu.Unlock()
		_ = peer.send(&messages.Registered{RequestID: m.RequestID, RegistrationID: regID})
	case *messages.Unregister:
		r.mu.Lock()
		for uri, bound := range r.registrations {
			if bound.regID == m.RegistrationID && bound.sessionID == peer.sessionID {
				delete(r.registrations, uri)
				break
			}
		}
		r.mu.Unlock()
		_ = peer.send(&messages.Unregistered{RequestID: m.RequestID})
	case *messages.Call:
		r.routeCall(peer, m)
	case *messages.Yield:
		r.routeYield(peer, m)
	case *messages.Subscribe:
		r.mu.Lock()
		r.nextID++
		subID := r.nextID
		if r.subscriptions[m.Topic] == nil {
			r.subscriptions[m.Topic] = make(map[uint64]*boundSubscriber)
		}
		r.subscriptions[m.Topic][subID] = &boundSubscriber{sessionID: peer.sessionID, subID: subID, peer: peer}
		r.mu.Unlock()
		_ = peer.send(&messages.Subscribed{RequestID: m.RequestID, SubscriptionID: subID})
	case *messages.Unsubscribe:
		r.mu.Lock()
		for _, subs := range r.subscriptions {
			delete(subs, m.SubscriptionID)
		}
		r.mu.Unlock()
		_ = peer.send(&messages.Unsubscribed{RequestID: m.RequestID})
	case *messages.Publish:
		r.routePublish(peer, m)
	case *messages.Error:
		r.routeError(peer, m)
	}
	return true
}

func (r *Router) routeCall(caller *peerConn, m *messages.Call) {
	r.mu.Lock()
	bound, ok := r.registrations[m.Procedure]
	r.mu.Unlock()
	if !ok {
		_ = caller.send(&messages.Error{
			RequestType: messages.TypeCall,
			RequestID:   m.RequestID,
			Details:     wamp.NewDict(),
			URI:         "wamp.error.no_such_procedure",
		})
		return
	}

	bound.peer.mu.Lock()
	bound.peer.pendingCalls[m.RequestID] = pendingCall{caller: caller, requestID: m.RequestID}
	bound.peer.mu.Unlock()

	_ = bound.peer.send(&messages.Invocation{
		RequestID:      m.RequestID,
		RegistrationID: bound.regID,
		Details:        wamp.NewDict(),
		Args:           m.Args,
		Kwargs:         m.Kwargs,
	})
}

func (r *Router) routeYield(callee *peerConn, m *messages.Yield) {
	callee.mu.Lock()
	pending, ok := callee.pendingCalls[m.RequestID]
	if ok {
		delete(callee.pendingCalls, m.RequestID)
	}
	callee.mu.Unlock()
	if !ok {
		return
	}
	_ = pending.caller.send(&messages.Result{RequestID: pending.requestID, Details: wamp.NewDict(), Args: m.Args, Kwargs: m.Kwargs})
}

func (r *Router) routeError(callee *peerConn, m *messages.Error) {
	if m.RequestType != messages.TypeInvocation {
		return
	}
	callee.mu.Lock()
	pending, ok := callee.pendingCalls[m.RequestID]
	if ok {
		delete(callee.pendingCalls, m.RequestID)
	}
	callee.mu.Unlock()
	if !ok {
		return
	}
	_ = pending.caller.send(&messages.Error{
		RequestType: messages.TypeCall,
		RequestID:   pending.requestID,
		Details:     wamp.NewDict(),
		URI:         m.URI,
		Args:        m.Args,
		Kwargs:      m.Kwargs,
	})
}

func (r *Router) routePublish(publisher *peerConn, m *messages.Publish) {
	r.mu.Lock()
	r.nextID++
	pubID := r.nextID
	subs := make([]*boundSubscriber, 0, len(r.subscriptions[m.Topic]))
	for _, sub := range r.subscriptions[m.Topic] {
		subs = append(subs, sub)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		_ = sub.peer.send(&messages.Event{
			SubscriptionID: sub.subID,
			PublishedID:    pubID,
			Details:        wamp.NewDict(),
			Args:           m.Args,
			Kwargs:         m.Kwargs,
		})
	}

	if ack, _ := m.Options["acknowledge"].(bool); ack {
		_ = publisher.send(&messages.Published{RequestID: m.RequestID, PublishedID: pubID})
	}
}

func (r *Router) dropPeer(peer *peerConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for uri, bound := range r.registrations {
		if bound.sessionID == peer.sessionID {
			delete(r.registrations, uri)
		}
	}
	for topic, subs := range r.subscriptions {
		for id, sub := range subs {
			if sub.sessionID == peer.sessionID {
				delete(subs, id)
			}
		}
		if len(subs) == 0 {
			delete(r.subscriptions, topic)
		}
	}
}
