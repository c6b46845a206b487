package serializer

import (
	"encoding/json"

	"github.com/xconnio/xconn-go/wamp/messages"
)

// JSON encodes WAMP messages as JSON arrays: [code, ...fields...].
type JSON struct{}

func (JSON) ID() ID { return IDJSON }

func (JSON) Encode(msg messages.Message) ([]byte, error) {
	return json.Marshal(msg.ToList())
}

func (JSON) Decode(data []byte) (messages.Message, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}
