package serializer

import (
	"testing"

	"github.com/xconnio/xconn-go/wamp"
	"github.com/xconnio/xconn-go/wamp/messages"
)

func TestByID(t *testing.T) {
	for _, id := range []ID{IDJSON, IDMsgPack, IDCBOR} {
		s, err := ByID(id)
		if err != nil {
			t.Fatalf("ByID(%d): %v", id, err)
		}
		if s.ID() != id {
			t.Fatalf("ByID(%d).ID() = %d", id, s.ID())
		}
	}
	if _, err := ByID(99); err == nil {
		t.Fatal("ByID(99) = nil error, want an error")
	}
}

func TestRoundTripAllCodecs(t *testing.T) {
	msg := &messages.Call{
		RequestID: 1,
		Options:   wamp.NewDict(),
		Procedure: "com.example.echo",
		Args:      wamp.List{int64(1), "two", 3.5},
		Kwargs:    wamp.Dict{"nested": wamp.Dict{"a": int64(1)}},
	}

	for _, id := range []ID{IDJSON, IDMsgPack, IDCBOR} {
		t.Run(string(rune('0'+id)), func(t *testing.T) {
			codec, err := ByID(id)
			if err != nil {
				t.Fatalf("ByID: %v", err)
			}
			data, err := codec.Encode(msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			call, ok := got.(*messages.Call)
			if !ok {
				t.Fatalf("Decode() = %T, want *messages.Call", got)
			}
			if call.Procedure != msg.Procedure || call.RequestID != msg.RequestID {
				t.Fatalf("decoded call = %#v, want procedure/requestID to match %#v", call, msg)
			}
			nested, ok := call.Kwargs["nested"].(wamp.Dict)
			if !ok {
				t.Fatalf("Kwargs[nested] = %T, want wamp.Dict (not map[interface{}]interface{})", call.Kwargs["nested"])
			}
			n, ok := wamp.AsInt64(nested["a"])
			if !ok || n != 1 {
				t.Fatalf("nested[a] = %#v, want a value convertible to int64(1)", nested["a"])
			}
		})
	}
}
