package xconn

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xconnio/xconn-go/idgen"
	"github.com/xconnio/xconn-go/internal/log"
	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

type callOutcome struct {
	result *Result
	err    error
}

type registerEntry struct {
	ch      chan registerOutcome
	handler ProcedureHandler
}

type registerOutcome struct {
	regID uint64
	err   error
}

type unregisterEntry struct {
	ch    chan unregisterOutcome
	regID uint64
}

type unregisterOutcome struct {
	err error
}

type subscribeEntry struct {
	ch      chan subscribeOutcome
	handler EventHandler
}

type subscribeOutcome struct {
	subID uint64
	err   error
}

type unsubscribeEntry struct {
	ch    chan unsubscribeOutcome
	subID uint64
}

type unsubscribeOutcome struct {
	err error
}

type publishOutcome struct {
	err error
}

// Session is the WAMP protocol runtime: it owns the receive loop
// goroutine, the per-message-kind pending tables, the registration and
// subscription maps, and the worker pool that runs user callbacks. It
// keeps one pending map per request kind, since WAMP correlates six
// distinct request/response pairs rather than just one.
type Session struct {
	base *BaseSession
	cfg  *Config

	idGen   *idgen.Generator
	workers *workerPool

	state atomic.Int32

	sendMu sync.Mutex

	callMu      sync.Mutex
	callPending map[uint64]chan callOutcome

	registerMu      sync.Mutex
	registerPending map[uint64]*registerEntry

	unregisterMu      sync.Mutex
	unregisterPending map[uint64]*unregisterEntry

	publishMu      sync.Mutex
	publishPending map[uint64]chan publishOutcome

	subscribeMu      sync.Mutex
	subscribePending map[uint64]*subscribeEntry

	unsubscribeMu      sync.Mutex
	unsubscribePending map[uint64]*unsubscribeEntry

	registrationsMu sync.RWMutex
	registrations   map[uint64]ProcedureHandler

	subscriptionsMu sync.RWMutex
	subscriptions   map[uint64]EventHandler

	goodbyeMu sync.Mutex
	goodbyeCh chan struct{}

	disconnectOnce sync.Once
	done           chan struct{}
}

// NewSession builds a Session runtime on top of an already-joined
// BaseSession and starts its receive loop. cfg must not be nil; use
// NewConfig to build one.
func NewSession(base *BaseSession, cfg *Config) *Session {
	s := &Session{
		base:               base,
		cfg:                cfg,
		idGen:              idgen.New(),
		workers:            newWorkerPool(cfg.Workers),
		callPending:        make(map[uint64]chan callOutcome),
		registerPending:    make(map[uint64]*registerEntry),
		unregisterPending:  make(map[uint64]*unregisterEntry),
		publishPending:     make(map[uint64]chan publishOutcome),
		subscribePending:   make(map[uint64]*subscribeEntry),
		unsubscribePending: make(map[uint64]*unsubscribeEntry),
		registrations:      make(map[uint64]ProcedureHandler),
		subscriptions:      make(map[uint64]EventHandler),
		done:               make(chan struct{}),
	}
	s.state.Store(int32(wamp.StateConnected))
	go s.recvLoop()
	return s
}

// Details returns the session metadata the join handshake produced.
func (s *Session) Details() wamp.SessionDetails { return s.base.Details() }

// State reports the session's current lifecycle state.
func (s *Session) State() wamp.State { return wamp.State(s.state.Load()) }

// Connected reports whether the session may still accept new requests.
func (s *Session) Connected() bool { return s.State() == wamp.StateConnected }

func (s *Session) sendMessage(msg messages.Message) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.base.SendMessage(msg)
}

// requestContext returns ctx unchanged if it already carries a deadline,
// otherwise wraps it with the session's configured default timeout, the
// ceiling placed on every wait-for-response.
func (s *Session) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// recvLoop is the single reader; it owns every ReceiveMessage call for
// the lifetime of the session. Reads are performed exclusively by this
// loop — no other goroutine may call ReceiveMessage.
func (s *Session) recvLoop() {
	var exitErr error
	defer func() {
		s.finalizeDisconnect(exitErr)
		s.workers.Close()
		close(s.done)
	}()

	for {
		msg, err := s.base.ReceiveMessage()
		if err != nil {
			exitErr = fmt.Errorf("%w: %v", wamp.ErrTransport, err)
			return
		}

		switch m := msg.(type) {
		case *messages.Goodbye:
			if s.State() == wamp.StateLeaving {
				// The deferred finalizeDisconnect moves the session to
				// DISCONNECTED and then releases the waiting Leave.
				return
			}
			_ = s.sendMessage(&messages.Goodbye{Details: wamp.NewDict(), Reason: wamp.CloseReasonGoodbyeOut})
			return
		case *messages.Abort:
			exitErr = fmt.Errorf("%w: abort received: %s", wamp.ErrProtocol, m.Reason)
			return
		case *messages.Result:
			s.completeCall(m.RequestID, callOutcome{result: &Result{Args: m.Args, Kwargs: m.Kwargs, Details: m.Details}})
		case *messages.Error:
			s.dispatchError(m)
		case *messages.Registered:
			s.completeRegister(m.RequestID, m.RegistrationID)
		case *messages.Unregistered:
			s.completeUnregister(m.RequestID)
		case *messages.Invocation:
			s.dispatchInvocation(m)
		case *messages.Subscribed:
			s.completeSubscribe(m.RequestID, m.SubscriptionID)
		case *messages.Unsubscribed:
			s.completeUnsubscribe(m.RequestID)
		case *messages.Published:
			s.completePublish(m.RequestID)
		case *messages.Event:
			s.dispatchEvent(m)
		default:
			s.cfg.Logger.Event("received unexpected message during session", log.Field{Key: "type", Value: msg.Type()})
		}
	}
}

func (s *Session) signalGoodbye() {
	s.goodbyeMu.Lock()
	ch := s.goodbyeCh
	s.goodbyeCh = nil
	s.goodbyeMu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (s *Session) completeCall(reqID uint64, outcome callOutcome) {
	s.callMu.Lock()
	ch, ok := s.callPending[reqID]
	if ok {
		delete(s.callPending, reqID)
	}
	s.callMu.Unlock()
	if ok {
		ch <- outcome
	}
}

func (s *Session) completeRegister(reqID, regID uint64) {
	s.registerMu.Lock()
	entry, ok := s.registerPending[reqID]
	if ok {
		delete(s.registerPending, reqID)
	}
	s.registerMu.Unlock()
	if !ok {
		return
	}
	s.registrationsMu.Lock()
	s.registrations[regID] = entry.handler
	s.registrationsMu.Unlock()
	entry.ch <- registerOutcome{regID: regID}
}

func (s *Session) completeUnregister(reqID uint64) {
	s.unregisterMu.Lock()
	entry, ok := s.unregisterPending[reqID]
	if ok {
		delete(s.unregisterPending, reqID)
	}
	s.unregisterMu.Unlock()
	if !ok {
		return
	}
	s.registrationsMu.Lock()
	delete(s.registrations, entry.regID)
	s.registrationsMu.Unlock()
	entry.ch <- unregisterOutcome{}
}

func (s *Session) completeSubscribe(reqID, subID uint64) {
	s.subscribeMu.Lock()
	entry, ok := s.subscribePending[reqID]
	if ok {
		delete(s.subscribePending, reqID)
	}
	s.subscribeMu.Unlock()
	if !ok {
		return
	}
	s.subscriptionsMu.Lock()
	s.subscriptions[subID] = entry.handler
	s.subscriptionsMu.Unlock()
	entry.ch <- subscribeOutcome{subID: subID}
}

func (s *Session) completeUnsubscribe(reqID uint64) {
	s.unsubscribeMu.Lock()
	entry, ok := s.unsubscribePending[reqID]
	if ok {
		delete(s.unsubscribePending, reqID)
	}
	s.unsubscribeMu.Unlock()
	if !ok {
		return
	}
	s.subscriptionsMu.Lock()
	delete(s.subscriptions, entry.subID)
	s.subscriptionsMu.Unlock()
	entry.ch <- unsubscribeOutcome{}
}

func (s *Session) completePublish(reqID uint64) {
	s.publishMu.Lock()
	ch, ok := s.publishPending[reqID]
	if ok {
		delete(s.publishPending, reqID)
	}
	s.publishMu.Unlock()
	if ok {
		ch <- publishOutcome{}
	}
}

func (s *Session) dispatchError(m *messages.Error) {
	appErr := wamp.NewApplicationError(m.URI, m.Args, m.Kwargs)
	switch m.RequestType {
	case messages.TypeCall:
		s.completeCallErr(m.RequestID, appErr)
	case messages.TypeRegister:
		s.completeRegisterErr(m.RequestID, appErr)
	case messages.TypeUnregister:
		s.completeUnregisterErr(m.RequestID, appErr)
	case messages.TypeSubscribe:
		s.completeSubscribeErr(m.RequestID, appErr)
	case messages.TypeUnsubscribe:
		s.completeUnsubscribeErr(m.RequestID, appErr)
	case messages.TypePublish:
		s.completePublishErr(m.RequestID, appErr)
	default:
		s.cfg.Logger.Event("received error for unknown request type", log.Field{Key: "requestType", Value: m.RequestType})
	}
}

func (s *Session) completeCallErr(reqID uint64, err error) {
	s.callMu.Lock()
	ch, ok := s.callPending[reqID]
	if ok {
		delete(s.callPending, reqID)
	}
	s.callMu.Unlock()
	if ok {
		ch <- callOutcome{err: err}
	} else {
		s.cfg.Logger.Event("error for unknown call request", log.RequestID(reqID))
	}
}

func (s *Session) completeRegisterErr(reqID uint64, err error) {
	s.registerMu.Lock()
	entry, ok := s.registerPending[reqID]
	if ok {
		delete(s.registerPending, reqID)
	}
	s.registerMu.Unlock()
	if ok {
		entry.ch <- registerOutcome{err: err}
	} else {
		s.cfg.Logger.Event("error for unknown register request", log.RequestID(reqID))
	}
}

func (s *Session) completeUnregisterErr(reqID uint64, err error) {
	s.unregisterMu.Lock()
	entry, ok := s.unregisterPending[reqID]
	if ok {
		delete(s.unregisterPending, reqID)
	}
	s.unregisterMu.Unlock()
	if ok {
		entry.ch <- unregisterOutcome{err: err}
	} else {
		s.cfg.Logger.Event("error for unknown unregister request", log.RequestID(reqID))
	}
}

func (s *Session) completeSubscribeErr(reqID uint64, err error) {
	s.subscribeMu.Lock()
	entry, ok := s.subscribePending[reqID]
	if ok {
		delete(s.subscribePending, reqID)
	}
	s.subscribeMu.Unlock()
	if ok {
		entry.ch <- subscribeOutcome{err: err}
	} else {
		s.cfg.Logger.Event("error for unknown subscribe request", log.RequestID(reqID))
	}
}

func (s *Session) completeUnsubscribeErr(reqID uint64, err error) {
	s.unsubscribeMu.Lock()
	entry, ok := s.unsubscribePending[reqID]
	if ok {
		delete(s.unsubscribePending, reqID)
	}
	s.unsubscribeMu.Unlock()
	if ok {
		entry.ch <- unsubscribeOutcome{err: err}
	} else {
		s.cfg.Logger.Event("error for unknown unsubscribe request", log.RequestID(reqID))
	}
}

func (s *Session) completePublishErr(reqID uint64, err error) {
	s.publishMu.Lock()
	ch, ok := s.publishPending[reqID]
	if ok {
		delete(s.publishPending, reqID)
	}
	s.publishMu.Unlock()
	if ok {
		ch <- publishOutcome{err: err}
	}
}

func (s *Session) dispatchInvocation(m *messages.Invocation) {
	s.registrationsMu.RLock()
	handler, ok := s.registrations[m.RegistrationID]
	s.registrationsMu.RUnlock()
	if !ok {
		_ = s.sendMessage(&messages.Error{
			RequestType: messages.TypeInvocation,
			RequestID:   m.RequestID,
			Details:     wamp.NewDict(),
			URI:         wamp.ErrURINoSuchProcedure,
		})
		return
	}
	s.workers.Submit(func() { s.runInvocation(handler, m) })
}

// runInvocation executes a procedure handler and converts its outcome into
// a YIELD or ERROR reply. A handler panic is treated the same as a
// returned non-ApplicationError.
func (s *Session) runInvocation(handler ProcedureHandler, m *messages.Invocation) {
	defer func() {
		if r := recover(); r != nil {
			_ = s.sendMessage(&messages.Error{
				RequestType: messages.TypeInvocation,
				RequestID:   m.RequestID,
				Details:     wamp.NewDict(),
				URI:         wamp.ErrURIRuntimeError,
			})
		}
	}()

	result, err := handler(context.Background(), &Invocation{Details: m.Details, Args: m.Args, Kwargs: m.Kwargs})
	if err != nil {
		if appErr, ok := err.(*wamp.ApplicationError); ok {
			_ = s.sendMessage(&messages.Error{
				RequestType: messages.TypeInvocation,
				RequestID:   m.RequestID,
				Details:     wamp.NewDict(),
				URI:         appErr.URI,
				Args:        appErr.Args,
				Kwargs:      appErr.Kwargs,
			})
			return
		}
		_ = s.sendMessage(&messages.Error{
			RequestType: messages.TypeInvocation,
			RequestID:   m.RequestID,
			Details:     wamp.NewDict(),
			URI:         wamp.ErrURIRuntimeError,
		})
		return
	}

	if result == nil {
		result = &Result{}
	}
	_ = s.sendMessage(&messages.Yield{
		RequestID: m.RequestID,
		Options:   wamp.NewDict(),
		Args:      result.Args,
		Kwargs:    result.Kwargs,
	})
}

func (s *Session) dispatchEvent(m *messages.Event) {
	s.subscriptionsMu.RLock()
	handler, ok := s.subscriptions[m.SubscriptionID]
	s.subscriptionsMu.RUnlock()
	if !ok {
		return
	}
	s.workers.Submit(func() { s.runEvent(handler, m) })
}

// runEvent invokes an event handler. Events are best-effort: a panic is
// logged and discarded, no reply is sent.
func (s *Session) runEvent(handler EventHandler, m *messages.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.Logger.Event("event handler panicked", log.Field{Key: "recover", Value: r})
		}
	}()
	handler(&Event{Details: m.Details, Args: m.Args, Kwargs: m.Kwargs})
}

// finalizeDisconnect transitions the session to DISCONNECTED exactly once,
// closing the transport and rejecting every entry still in any pending
// table with wamp.ErrConnClosed, wrapping cause as well when it is non-nil.
func (s *Session) finalizeDisconnect(cause error) {
	s.disconnectOnce.Do(func() {
		s.state.Store(int32(wamp.StateDisconnected))
		_ = s.base.Close()

		rejectErr := wamp.ErrConnClosed
		if cause != nil {
			rejectErr = fmt.Errorf("%w: %w", wamp.ErrConnClosed, cause)
		}

		s.callMu.Lock()
		for id, ch := range s.callPending {
			ch <- callOutcome{err: rejectErr}
			delete(s.callPending, id)
		}
		s.callMu.Unlock()

		s.registerMu.Lock()
		for id, e := range s.registerPending {
			e.ch <- registerOutcome{err: rejectErr}
			delete(s.registerPending, id)
		}
		s.registerMu.Unlock()

		s.unregisterMu.Lock()
		for id, e := range s.unregisterPending {
			e.ch <- unregisterOutcome{err: rejectErr}
			delete(s.unregisterPending, id)
		}
		s.unregisterMu.Unlock()

		s.publishMu.Lock()
		for id, ch := range s.publishPending {
			ch <- publishOutcome{err: rejectErr}
			delete(s.publishPending, id)
		}
		s.publishMu.Unlock()

		s.subscribeMu.Lock()
		for id, e := range s.subscribePending {
			e.ch <- subscribeOutcome{err: rejectErr}
			delete(s.subscribePending, id)
		}
		s.subscribeMu.Unlock()

		s.unsubscribeMu.Lock()
		for id, e := range s.unsubscribePending {
			e.ch <- unsubscribeOutcome{err: rejectErr}
			delete(s.unsubscribePending, id)
		}
		s.unsubscribeMu.Unlock()

		s.registrationsMu.Lock()
		s.registrations = make(map[uint64]ProcedureHandler)
		s.registrationsMu.Unlock()

		s.subscriptionsMu.Lock()
		s.subscriptions = make(map[uint64]EventHandler)
		s.subscriptionsMu.Unlock()

		s.signalGoodbye()
	})
}

// Leave sends GOODBYE and waits for the peer's GOODBYE, transitioning
// CONNECTED->LEAVING->DISCONNECTED. Calling it twice returns an error on
// the second call.
func (s *Session) Leave(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(wamp.StateConnected), int32(wamp.StateLeaving)) {
		if s.State() == wamp.StateDisconnected {
			return wamp.ErrInvalidState
		}
		return wamp.ErrAlreadyLeaving
	}

	ch := make(chan struct{})
	s.goodbyeMu.Lock()
	s.goodbyeCh = ch
	s.goodbyeMu.Unlock()

	if err := s.sendMessage(&messages.Goodbye{Details: wamp.NewDict(), Reason: wamp.CloseReasonCloseRealm}); err != nil {
		s.finalizeDisconnect(err)
		return err
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case <-ch:
		return nil
	case <-s.done:
		return nil
	case <-ctx2.Done():
		s.finalizeDisconnect(wamp.ErrTimeout)
		return wamp.ErrTimeout
	}
}

// Close forcibly tears the session down without a GOODBYE round trip:
// shuts down the transport's write side to unblock the receive loop's
// blocked read, then waits for the receive loop (and worker pool drain)
// to finish.
func (s *Session) Close() error {
	if s.State() == wamp.StateDisconnected {
		<-s.done
		return nil
	}
	_ = s.base.ShutdownWrite()
	<-s.done
	return nil
}

// Unregister releases a registration by id. Calling it on a
// non-CONNECTED session returns wamp.ErrConnClosed.
func (s *Session) Unregister(ctx context.Context, registrationID uint64) error {
	if !s.Connected() {
		return wamp.ErrConnClosed
	}

	id := s.idGen.Next()
	ch := make(chan unregisterOutcome, 1)

	s.unregisterMu.Lock()
	s.unregisterPending[id] = &unregisterEntry{ch: ch, regID: registrationID}
	s.unregisterMu.Unlock()

	if err := s.sendMessage(&messages.Unregister{RequestID: id, RegistrationID: registrationID}); err != nil {
		s.unregisterMu.Lock()
		delete(s.unregisterPending, id)
		s.unregisterMu.Unlock()
		return err
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case outcome := <-ch:
		return outcome.err
	case <-ctx2.Done():
		s.unregisterMu.Lock()
		delete(s.unregisterPending, id)
		s.unregisterMu.Unlock()
		return wamp.ErrTimeout
	}
}

// Unsubscribe releases a subscription by id. Calling it on a
// non-CONNECTED session returns wamp.ErrConnClosed.
func (s *Session) Unsubscribe(ctx context.Context, subscriptionID uint64) error {
	if !s.Connected() {
		return wamp.ErrConnClosed
	}

	id := s.idGen.Next()
	ch := make(chan unsubscribeOutcome, 1)

	s.unsubscribeMu.Lock()
	s.unsubscribePending[id] = &unsubscribeEntry{ch: ch, subID: subscriptionID}
	s.unsubscribeMu.Unlock()

	if err := s.sendMessage(&messages.Unsubscribe{RequestID: id, SubscriptionID: subscriptionID}); err != nil {
		s.unsubscribeMu.Lock()
		delete(s.unsubscribePending, id)
		s.unsubscribeMu.Unlock()
		return err
	}

	ctx2, cancel := s.requestContext(ctx)
	defer cancel()

	select {
	case outcome := <-ch:
		return outcome.err
	case <-ctx2.Done():
		s.unsubscribeMu.Lock()
		delete(s.unsubscribePending, id)
		s.unsubscribeMu.Unlock()
		return wamp.ErrTimeout
	}
}
