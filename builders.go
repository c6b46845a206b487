package xconn

import (
	"context"

	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

// CallRequest accumulates a remote procedure call's arguments before
// sending it, following a fluent builder-then-Do shape.
type CallRequest struct {
	session   *Session
	procedure string
	args      wamp.List
	kwargs    wamp.Dict
	options   wamp.Dict
}

func newCallRequest(s *Session, procedure string) *CallRequest {
	return &CallRequest{session: s, procedure: procedure, args: wamp.List{}, kwargs: wamp.NewDict(), options: wamp.NewDict()}
}

// Arg appends a positional argument.
func (r *CallRequest) Arg(v any) *CallRequest { r.args = append(r.args, v); return r }

// Kwarg sets a keyword argument.
func (r *CallRequest) Kwarg(key string, v any) *CallRequest { r.kwargs[key] = v; return r }

// Option sets a CALL option (e.g. "timeout", "disclose_me").
func (r *CallRequest) Option(key string, v any) *CallRequest { r.options[key] = v; return r }

// Do sends the CALL and blocks until a RESULT, ERROR, session timeout, or
// session disconnection resolves it.
func (r *CallRequest) Do(ctx context.Context) (*Result, error) {
	s := r.session
	if !s.Connected() {
		return nil, wamp.ErrConnClosed
	}

	id := s.idGen.Next()
	ch := make(chan callOutcome, 1)

	s.callMu.Lock()
	s.callPending[id] = ch
	s.callMu.Unlock()

	msg := &messages.Call{RequestID: id, Options: r.options, Procedure: r.procedure, Args: r.args, Kwargs: r.kwargs}
	if err := s.sendMessage(msg); err != nil {
		s.callMu.Lock()
		delete(s.callPending, id)
		s.callMu.Unlock()
		return nil, err
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case outcome := <-ch:
		return outcome.result, outcome.err
	case <-ctx2.Done():
		s.callMu.Lock()
		delete(s.callPending, id)
		s.callMu.Unlock()
		return nil, wamp.ErrTimeout
	}
}

// RegisterRequest accumulates a procedure registration's options before
// sending it.
type RegisterRequest struct {
	session   *Session
	procedure string
	handler   ProcedureHandler
	options   wamp.Dict
}

func newRegisterRequest(s *Session, procedure string, handler ProcedureHandler) *RegisterRequest {
	return &RegisterRequest{session: s, procedure: procedure, handler: handler, options: wamp.NewDict()}
}

// Option sets a REGISTER option (e.g. "match", "invoke").
func (r *RegisterRequest) Option(key string, v any) *RegisterRequest { r.options[key] = v; return r }

// Do sends the REGISTER and blocks until a REGISTERED, ERROR, session
// timeout, or session disconnection resolves it.
func (r *RegisterRequest) Do(ctx context.Context) (*Registration, error) {
	s := r.session
	if !s.Connected() {
		return nil, wamp.ErrConnClosed
	}

	id := s.idGen.Next()
	ch := make(chan registerOutcome, 1)

	s.registerMu.Lock()
	s.registerPending[id] = &registerEntry{ch: ch, handler: r.handler}
	s.registerMu.Unlock()

	msg := &messages.Register{RequestID: id, Options: r.options, Procedure: r.procedure}
	if err := s.sendMessage(msg); err != nil {
		s.registerMu.Lock()
		delete(s.registerPending, id)
		s.registerMu.Unlock()
		return nil, err
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case outcome := <-ch:
		if outcome.err != nil {
			return nil, outcome.err
		}
		return &Registration{ID: outcome.regID, session: s}, nil
	case <-ctx2.Done():
		s.registerMu.Lock()
		delete(s.registerPending, id)
		s.registerMu.Unlock()
		return nil, wamp.ErrTimeout
	}
}

// SubscribeRequest accumulates a topic subscription's options before
// sending it.
type SubscribeRequest struct {
	session *Session
	topic   string
	handler EventHandler
	options wamp.Dict
}

func newSubscribeRequest(s *Session, topic string, handler EventHandler) *SubscribeRequest {
	return &SubscribeRequest{session: s, topic: topic, handler: handler, options: wamp.NewDict()}
}

// Option sets a SUBSCRIBE option (e.g. "match").
func (r *SubscribeRequest) Option(key string, v any) *SubscribeRequest { r.options[key] = v; return r }

// Do sends the SUBSCRIBE and blocks until a SUBSCRIBED, ERROR, session
// timeout, or session disconnection resolves it.
func (r *SubscribeRequest) Do(ctx context.Context) (*Subscription, error) {
	s := r.session
	if !s.Connected() {
		return nil, wamp.ErrConnClosed
	}

	id := s.idGen.Next()
	ch := make(chan subscribeOutcome, 1)

	s.subscribeMu.Lock()
	s.subscribePending[id] = &subscribeEntry{ch: ch, handler: r.handler}
	s.subscribeMu.Unlock()

	msg := &messages.Subscribe{RequestID: id, Options: r.options, Topic: r.topic}
	if err := s.sendMessage(msg); err != nil {
		s.subscribeMu.Lock()
		delete(s.subscribePending, id)
		s.subscribeMu.Unlock()
		return nil, err
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case outcome := <-ch:
		if outcome.err != nil {
			return nil, outcome.err
		}
		return &Subscription{ID: outcome.subID, session: s}, nil
	case <-ctx2.Done():
		s.subscribeMu.Lock()
		delete(s.subscribePending, id)
		s.subscribeMu.Unlock()
		return nil, wamp.ErrTimeout
	}
}

// PublishRequest accumulates an event's payload before sending it. By
// default publishes are fire-and-forget; Acknowledge(true) requests a
// PUBLISHED/ERROR reply.
type PublishRequest struct {
	session     *Session
	topic       string
	args        wamp.List
	kwargs      wamp.Dict
	options     wamp.Dict
	acknowledge bool
}

func newPublishRequest(s *Session, topic string) *PublishRequest {
	return &PublishRequest{session: s, topic: topic, args: wamp.List{}, kwargs: wamp.NewDict(), options: wamp.NewDict()}
}

// Arg appends a positional argument.
func (r *PublishRequest) Arg(v any) *PublishRequest { r.args = append(r.args, v); return r }

// Kwarg sets a keyword argument.
func (r *PublishRequest) Kwarg(key string, v any) *PublishRequest { r.kwargs[key] = v; return r }

// Option sets a PUBLISH option.
func (r *PublishRequest) Option(key string, v any) *PublishRequest { r.options[key] = v; return r }

// Acknowledge requests (or, passed false, suppresses) a PUBLISHED/ERROR
// reply. A pending-table entry is installed if and only if ack is true.
func (r *PublishRequest) Acknowledge(ack bool) *PublishRequest {
	r.acknowledge = ack
	return r
}

// Do sends the PUBLISH. With Acknowledge(true) it blocks for a
// PUBLISHED/ERROR reply (subject to the session timeout); otherwise it
// returns as soon as the message is written.
func (r *PublishRequest) Do(ctx context.Context) error {
	s := r.session
	if !s.Connected() {
		return wamp.ErrConnClosed
	}

	id := s.idGen.Next()

	options := r.options
	if r.acknowledge {
		options["acknowledge"] = true
	}

	var ch chan publishOutcome
	if r.acknowledge {
		ch = make(chan publishOutcome, 1)
		s.publishMu.Lock()
		s.publishPending[id] = ch
		s.publishMu.Unlock()
	}

	msg := &messages.Publish{RequestID: id, Options: options, Topic: r.topic, Args: r.args, Kwargs: r.kwargs}
	if err := s.sendMessage(msg); err != nil {
		if r.acknowledge {
			s.publishMu.Lock()
			delete(s.publishPending, id)
			s.publishMu.Unlock()
		}
		return err
	}

	if !r.acknowledge {
		return nil
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case outcome := <-ch:
		return outcome.err
	case <-ctx2.Done():
		s.publishMu.Lock()
		delete(s.publishPending, id)
		s.publishMu.Unlock()
		return wamp.ErrTimeout
	}
}

// Call begins building a CALL to procedure.
func (s *Session) Call(procedure string) *CallRequest { return newCallRequest(s, procedure) }

// Register begins building a REGISTER of procedure, dispatching
// invocations to handler once confirmed.
func (s *Session) Register(procedure string, handler ProcedureHandler) *RegisterRequest {
	return newRegisterRequest(s, procedure, handler)
}

// Subscribe begins building a SUBSCRIBE to topic, dispatching events to
// handler once confirmed.
func (s *Session) Subscribe(topic string, handler EventHandler) *SubscribeRequest {
	return newSubscribeRequest(s, topic, handler)
}

// Publish begins building a PUBLISH to topic.
func (s *Session) Publish(topic string) *PublishRequest { return newPublishRequest(s, topic) }
