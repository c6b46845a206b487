package serializer

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/xconnio/xconn-go/wamp/messages"
)

// MsgPack encodes WAMP messages as MessagePack arrays, using
// github.com/vmihailenco/msgpack for the binary codec.
type MsgPack struct{}

func (MsgPack) ID() ID { return IDMsgPack }

func (MsgPack) Encode(msg messages.Message) ([]byte, error) {
	return msgpack.Marshal(msg.ToList())
}

func (MsgPack) Decode(data []byte) (messages.Message, error) {
	// Loose decoding widens integers to int64/uint64 and floats to float64,
	// the kinds wamp.AsInt64/AsUint64 accept.
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}
