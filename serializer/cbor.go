package serializer

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/xconnio/xconn-go/wamp/messages"
)

// CBOR encodes WAMP messages as CBOR arrays.
type CBOR struct{}

// decMode decodes CBOR maps into map[string]interface{} rather than the
// library default of map[interface{}]interface{}, so a decoded options/
// details field satisfies wamp.Dict without a conversion pass.
var decMode = mustDecMode()

func mustDecMode() cbor.DecMode {
	opts := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any{})}
	mode, err := opts.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}

func (CBOR) ID() ID { return IDCBOR }

func (CBOR) Encode(msg messages.Message) ([]byte, error) {
	return cbor.Marshal(msg.ToList())
}

func (CBOR) Decode(data []byte) (messages.Message, error) {
	var raw []any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeList(raw)
}
