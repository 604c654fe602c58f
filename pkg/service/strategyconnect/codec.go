package strategyconnect

import (
	"encoding/json"
)

// JSONCodec marshals the plain go messages of the strategy service.
// It replaces the default json codec of connect which requires proto messages.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return "json"
}

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
