package messages

import (
	"reflect"
	"testing"

	"github.com/xconnio/xconn-go/wamp"
)

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	list := msg.ToList()
	code, ok := wamp.AsInt64(list[0])
	if !ok {
		t.Fatalf("ToList()[0] = %v, want a message code", list[0])
	}
	got, err := FromList(code, list[1:])
	if err != nil {
		t.Fatalf("FromList: %v", err)
	}
	return got
}

func TestCallRoundTrip(t *testing.T) {
	want := &Call{
		RequestID: 7,
		Options:   wamp.NewDict(),
		Procedure: "com.example.add",
		Args:      wamp.List{1, 2},
		Kwargs:    wamp.Dict{"verbose": true},
	}
	got := roundTrip(t, want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %#v, want %#v", got, want)
	}
}

func TestResultWithoutArgsOmitsTrailingFields(t *testing.T) {
	msg := &Result{RequestID: 3, Details: wamp.NewDict()}
	list := msg.ToList()
	if len(list) != 3 {
		t.Fatalf("ToList() length = %d, want 3 (code, id, details only)", len(list))
	}
}

func TestEventRoundTrip(t *testing.T) {
	want := &Event{
		SubscriptionID: 1,
		PublishedID:    2,
		Details:        wamp.NewDict(),
		Args:           wamp.List{"hello"},
		Kwargs:         wamp.NewDict(),
	}
	got := roundTrip(t, want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %#v, want %#v", got, want)
	}
}

func TestErrorRoundTrip(t *testing.T) {
	want := &Error{
		RequestType: TypeCall,
		RequestID:   9,
		Details:     wamp.NewDict(),
		URI:         "wamp.error.no_such_procedure",
		Args:        wamp.List{},
		Kwargs:      wamp.NewDict(),
	}
	got := roundTrip(t, want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %#v, want %#v", got, want)
	}
}

func TestFromListUnknownCode(t *testing.T) {
	if _, err := FromList(999, wamp.List{}); err == nil {
		t.Fatal("FromList(999) = nil error, want an error")
	}
}
