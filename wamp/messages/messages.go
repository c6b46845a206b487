// Package messages defines the WAMP message set needed by a client: a
// closed set of concrete types plus the array-based wire encoding the
// protocol specifies ("[msg_code, ...args...]").
package messages

import (
	"fmt"

	"github.com/xconnio/xconn-go/wamp"
)

// Message codes, as assigned by the WAMP Basic Profile.
const (
	TypeHello        = int64(1)
	TypeWelcome      = int64(2)
	TypeAbort        = int64(3)
	TypeChallenge    = int64(4)
	TypeAuthenticate = int64(5)
	TypeGoodbye      = int64(6)
	TypeError        = int64(8)
	TypePublish      = int64(16)
	TypePublished    = int64(17)
	TypeSubscribe    = int64(32)
	TypeSubscribed   = int64(33)
	TypeUnsubscribe  = int64(34)
	TypeUnsubscribed = int64(35)
	TypeEvent        = int64(36)
	TypeCall         = int64(48)
	TypeResult       = int64(50)
	TypeRegister     = int64(64)
	TypeRegistered   = int64(65)
	TypeUnregister   = int64(66)
	TypeUnregistered = int64(67)
	TypeInvocation   = int64(68)
	TypeYield        = int64(70)
)

// Message is the closed set of WAMP wire messages a client sends or
// receives. Implementations are produced only by this package, so the
// set of concrete types is closed.
type Message interface {
	Type() int64
	// ToList renders the message to its wire form: [code, ...fields...].
	ToList() wamp.List
}

func arg(l wamp.List, i int) any {
	if i < len(l) {
		return l[i]
	}
	return nil
}

// Hello is sent by the client to begin the join handshake.
type Hello struct {
	Realm   string
	Details wamp.Dict
}

func (m *Hello) Type() int64 { return TypeHello }
func (m *Hello) ToList() wamp.List {
	return wamp.List{TypeHello, m.Realm, m.Details}
}

// Welcome concludes a successful join handshake.
type Welcome struct {
	SessionID uint64
	Details   wamp.Dict
}

func (m *Welcome) Type() int64 { return TypeWelcome }
func (m *Welcome) ToList() wamp.List {
	return wamp.List{TypeWelcome, m.SessionID, m.Details}
}

// Abort terminates a handshake or session before or without a GOODBYE.
type Abort struct {
	Details wamp.Dict
	Reason  string
}

func (m *Abort) Type() int64 { return TypeAbort }
func (m *Abort) ToList() wamp.List {
	return wamp.List{TypeAbort, m.Details, m.Reason}
}

// Challenge asks the client to authenticate using the named method.
type Challenge struct {
	AuthMethod string
	Extra      wamp.Dict
}

func (m *Challenge) Type() int64 { return TypeChallenge }
func (m *Challenge) ToList() wamp.List {
	return wamp.List{TypeChallenge, m.AuthMethod, m.Extra}
}

// Authenticate carries the client's challenge response.
type Authenticate struct {
	Signature string
	Extra     wamp.Dict
}

func (m *Authenticate) Type() int64 { return TypeAuthenticate }
func (m *Authenticate) ToList() wamp.List {
	return wamp.List{TypeAuthenticate, m.Signature, m.Extra}
}

// Goodbye closes a session, in either direction.
type Goodbye struct {
	Details wamp.Dict
	Reason  string
}

func (m *Goodbye) Type() int64 { return TypeGoodbye }
func (m *Goodbye) ToList() wamp.List {
	return wamp.List{TypeGoodbye, m.Details, m.Reason}
}

// Error is the router's (or, rarely, client's) error reply to any
// request-bearing message.
type Error struct {
	RequestType int64
	RequestID   uint64
	Details     wamp.Dict
	URI         string
	Args        wamp.List
	Kwargs      wamp.Dict
}

func (m *Error) Type() int64 { return TypeError }
func (m *Error) ToList() wamp.List {
	l := wamp.List{TypeError, m.RequestType, m.RequestID, m.Details, m.URI}
	if len(m.Args) > 0 || len(m.Kwargs) > 0 {
		l = append(l, m.Args)
	}
	if len(m.Kwargs) > 0 {
		l = append(l, m.Kwargs)
	}
	return l
}

// Call invokes a remote procedure.
type Call struct {
	RequestID uint64
	Options   wamp.Dict
	Procedure string
	Args      wamp.List
	Kwargs    wamp.Dict
}

func (m *Call) Type() int64 { return TypeCall }
func (m *Call) ToList() wamp.List {
	l := wamp.List{TypeCall, m.RequestID, m.Options, m.Procedure}
	return appendArgsKwargs(l, m.Args, m.Kwargs)
}

// Result is the successful reply to a Call.
type Result struct {
	RequestID uint64
	Details   wamp.Dict
	Args      wamp.List
	Kwargs    wamp.Dict
}

func (m *Result) Type() int64 { return TypeResult }
func (m *Result) ToList() wamp.List {
	l := wamp.List{TypeResult, m.RequestID, m.Details}
	return appendArgsKwargs(l, m.Args, m.Kwargs)
}

// Register asks the router to bind a procedure URI to this session.
type Register struct {
	RequestID uint64
	Options   wamp.Dict
	Procedure string
}

func (m *Register) Type() int64 { return TypeRegister }
func (m *Register) ToList() wamp.List {
	return wamp.List{TypeRegister, m.RequestID, m.Options, m.Procedure}
}

// Registered confirms a Register, assigning a registration id.
type Registered struct {
	RequestID      uint64
	RegistrationID uint64
}

func (m *Registered) Type() int64 { return TypeRegistered }
func (m *Registered) ToList() wamp.List {
	return wamp.List{TypeRegistered, m.RequestID, m.RegistrationID}
}

// Unregister asks the router to release a registration.
type Unregister struct {
	RequestID      uint64
	RegistrationID uint64
}

func (m *Unregister) Type() int64 { return TypeUnregister }
func (m *Unregister) ToList() wamp.List {
	return wamp.List{TypeUnregister, m.RequestID, m.RegistrationID}
}

// Unregistered confirms an Unregister.
type Unregistered struct {
	RequestID uint64
}

func (m *Unregistered) Type() int64 { return TypeUnregistered }
func (m *Unregistered) ToList() wamp.List {
	return wamp.List{TypeUnregistered, m.RequestID}
}

// Invocation asks the client to execute a previously registered procedure.
type Invocation struct {
	RequestID      uint64
	RegistrationID uint64
	Details        wamp.Dict
	Args           wamp.List
	Kwargs         wamp.Dict
}

func (m *Invocation) Type() int64 { return TypeInvocation }
func (m *Invocation) ToList() wamp.List {
	l := wamp.List{TypeInvocation, m.RequestID, m.RegistrationID, m.Details}
	return appendArgsKwargs(l, m.Args, m.Kwargs)
}

// Yield is the client's successful reply to an Invocation.
type Yield struct {
	RequestID uint64
	Options   wamp.Dict
	Args      wamp.List
	Kwargs    wamp.Dict
}

func (m *Yield) Type() int64 { return TypeYield }
func (m *Yield) ToList() wamp.List {
	l := wamp.List{TypeYield, m.RequestID, m.Options}
	return appendArgsKwargs(l, m.Args, m.Kwargs)
}

// Publish sends an event to a topic, optionally requesting acknowledgement.
type Publish struct {
	RequestID uint64
	Options   wamp.Dict
	Topic     string
	Args      wamp.List
	Kwargs    wamp.Dict
}

func (m *Publish) Type() int64 { return TypePublish }
func (m *Publish) ToList() wamp.List {
	l := wamp.List{TypePublish, m.RequestID, m.Options, m.Topic}
	return appendArgsKwargs(l, m.Args, m.Kwargs)
}

// Published confirms a Publish sent with acknowledge=true.
type Published struct {
	RequestID   uint64
	PublishedID uint64
}

func (m *Published) Type() int64 { return TypePublished }
func (m *Published) ToList() wamp.List {
	return wamp.List{TypePublished, m.RequestID, m.PublishedID}
}

// Subscribe asks the router to deliver events on a topic to this session.
type Subscribe struct {
	RequestID uint64
	Options   wamp.Dict
	Topic     string
}

func (m *Subscribe) Type() int64 { return TypeSubscribe }
func (m *Subscribe) ToList() wamp.List {
	return wamp.List{TypeSubscribe, m.RequestID, m.Options, m.Topic}
}

// Subscribed confirms a Subscribe, assigning a subscription id.
type Subscribed struct {
	RequestID      uint64
	SubscriptionID uint64
}

func (m *Subscribed) Type() int64 { return TypeSubscribed }
func (m *Subscribed) ToList() wamp.List {
	return wamp.List{TypeSubscribed, m.RequestID, m.SubscriptionID}
}

// Unsubscribe asks the router to release a subscription.
type Unsubscribe struct {
	RequestID      uint64
	SubscriptionID uint64
}

func (m *Unsubscribe) Type() int64 { return TypeUnsubscribe }
func (m *Unsubscribe) ToList() wamp.List {
	return wamp.List{TypeUnsubscribe, m.RequestID, m.SubscriptionID}
}

// Unsubscribed confirms an Unsubscribe.
type Unsubscribed struct {
	RequestID uint64
}

func (m *Unsubscribed) Type() int64 { return TypeUnsubscribed }
func (m *Unsubscribed) ToList() wamp.List {
	return wamp.List{TypeUnsubscribed, m.RequestID}
}

// Event delivers a published payload to a subscriber.
type Event struct {
	SubscriptionID uint64
	PublishedID    uint64
	Details        wamp.Dict
	Args           wamp.List
	Kwargs         wamp.Dict
}

func (m *Event) Type() int64 { return TypeEvent }
func (m *Event) ToList() wamp.List {
	l := wamp.List{TypeEvent, m.SubscriptionID, m.PublishedID, m.Details}
	return appendArgsKwargs(l, m.Args, m.Kwargs)
}

func appendArgsKwargs(l wamp.List, args wamp.List, kwargs wamp.Dict) wamp.List {
	if len(args) == 0 && len(kwargs) == 0 {
		return l
	}
	if args == nil {
		args = wamp.List{}
	}
	l = append(l, args)
	if len(kwargs) > 0 {
		l = append(l, kwargs)
	}
	return l
}

// FromList reconstructs a Message from its decoded wire form. fields
// excludes the leading message code, which the caller has already read.
func FromList(code int64, fields wamp.List) (Message, error) {
	switch code {
	case TypeHello:
		return &Hello{Realm: str(arg(fields, 0)), Details: dict(arg(fields, 1))}, nil
	case TypeWelcome:
		return &Welcome{SessionID: u64(arg(fields, 0)), Details: dict(arg(fields, 1))}, nil
	case TypeAbort:
		return &Abort{Details: dict(arg(fields, 0)), Reason: str(arg(fields, 1))}, nil
	case TypeChallenge:
		return &Challenge{AuthMethod: str(arg(fields, 0)), Extra: dict(arg(fields, 1))}, nil
	case TypeAuthenticate:
		return &Authenticate{Signature: str(arg(fields, 0)), Extra: dict(arg(fields, 1))}, nil
	case TypeGoodbye:
		return &Goodbye{Details: dict(arg(fields, 0)), Reason: str(arg(fields, 1))}, nil
	case TypeError:
		return &Error{
			RequestType: i64(arg(fields, 0)),
			RequestID:   u64(arg(fields, 1)),
			Details:     dict(arg(fields, 2)),
			URI:         str(arg(fields, 3)),
			Args:        list(arg(fields, 4)),
			Kwargs:      dict(arg(fields, 5)),
		}, nil
	case TypeCall:
		return &Call{
			RequestID: u64(arg(fields, 0)),
			Options:   dict(arg(fields, 1)),
			Procedure: str(arg(fields, 2)),
			Args:      list(arg(fields, 3)),
			Kwargs:    dict(arg(fields, 4)),
		}, nil
	case TypeResult:
		return &Result{
			RequestID: u64(arg(fields, 0)),
			Details:   dict(arg(fields, 1)),
			Args:      list(arg(fields, 2)),
			Kwargs:    dict(arg(fields, 3)),
		}, nil
	case TypeRegister:
		return &Register{
			RequestID: u64(arg(fields, 0)),
			Options:   dict(arg(fields, 1)),
			Procedure: str(arg(fields, 2)),
		}, nil
	case TypeRegistered:
		return &Registered{RequestID: u64(arg(fields, 0)), RegistrationID: u64(arg(fields, 1))}, nil
	case TypeUnregister:
		return &Unregister{RequestID: u64(arg(fields, 0)), RegistrationID: u64(arg(fields, 1))}, nil
	case TypeUnregistered:
		return &Unregistered{RequestID: u64(arg(fields, 0))}, nil
	case TypeInvocation:
		return &Invocation{
			RequestID:      u64(arg(fields, 0)),
			RegistrationID: u64(arg(fields, 1)),
			Details:        dict(arg(fields, 2)),
			Args:           list(arg(fields, 3)),
			Kwargs:         dict(arg(fields, 4)),
		}, nil
	case TypeYield:
		return &Yield{
			RequestID: u64(arg(fields, 0)),
			Options:   dict(arg(fields, 1)),
			Args:      list(arg(fields, 2)),
			Kwargs:    dict(arg(fields, 3)),
		}, nil
	case TypePublish:
		return &Publish{
			RequestID: u64(arg(fields, 0)),
			Options:   dict(arg(fields, 1)),
			Topic:     str(arg(fields, 2)),
			Args:      list(arg(fields, 3)),
			Kwargs:    dict(arg(fields, 4)),
		}, nil
	case TypePublished:
		return &Published{RequestID: u64(arg(fields, 0)), PublishedID: u64(arg(fields, 1))}, nil
	case TypeSubscribe:
		return &Subscribe{
			RequestID: u64(arg(fields, 0)),
			Options:   dict(arg(fields, 1)),
			Topic:     str(arg(fields, 2)),
		}, nil
	case TypeSubscribed:
		return &Subscribed{RequestID: u64(arg(fields, 0)), SubscriptionID: u64(arg(fields, 1))}, nil
	case TypeUnsubscribe:
		return &Unsubscribe{RequestID: u64(arg(fields, 0)), SubscriptionID: u64(arg(fields, 1))}, nil
	case TypeUnsubscribed:
		return &Unsubscribed{RequestID: u64(arg(fields, 0))}, nil
	case TypeEvent:
		return &Event{
			SubscriptionID: u64(arg(fields, 0)),
			PublishedID:    u64(arg(fields, 1)),
			Details:        dict(arg(fields, 2)),
			Args:           list(arg(fields, 3)),
			Kwargs:         dict(arg(fields, 4)),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown message code %d", wamp.ErrProtocol, code)
	}
}

func str(v any) string {
	s, _ := wamp.AsString(v)
	return s
}

func dict(v any) wamp.Dict {
	return wamp.AsDict(v)
}

func list(v any) wamp.List {
	return wamp.AsList(v)
}

func u64(v any) uint64 {
	n, _ := wamp.AsUint64(v)
	return n
}

func i64(v any) int64 {
	n, _ := wamp.AsInt64(v)
	return n
}
