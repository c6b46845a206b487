// Package wamp defines the data model shared across the session runtime:
// the dynamically-typed Value used for call/event arguments, session
// metadata, and the library's error taxonomy.
package wamp

// List is an ordered sequence of WAMP values, used for positional call,
// result, and event arguments.
type List = []any

// Dict is a string-keyed mapping of WAMP values, used for keyword
// arguments and message options/details.
type Dict = map[string]any

// Bytes is a raw binary WAMP value.
type Bytes = []byte

// NewDict returns an empty Dict, never nil, so handlers can safely
// index into options/details without a prior nil check.
func NewDict() Dict {
	return make(Dict)
}

// AsString returns v as a string and whether the assertion succeeded.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsInt64 returns v as an int64, accepting the numeric types a decoded
// JSON/MsgPack/CBOR payload may produce.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsUint64 mirrors AsInt64 for the unsigned identifiers (session, request,
// registration, subscription ids) that flow through the protocol.
func AsUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		return uint64(n), true
	case int:
		return uint64(n), true
	case float64:
		return uint64(n), true
	default:
		return 0, false
	}
}

// AsDict returns v as a Dict, substituting an empty Dict when v is nil so
// callers can iterate unconditionally.
func AsDict(v any) Dict {
	if v == nil {
		return NewDict()
	}
	if d, ok := v.(Dict); ok {
		return d
	}
	return NewDict()
}

// AsList returns v as a List, substituting an empty List when v is nil.
func AsList(v any) List {
	if v == nil {
		return List{}
	}
	if l, ok := v.(List); ok {
		return l
	}
	return List{}
}
