package events

import "encoding/json"

// DecodeData unmarshals an event's Data into a typed payload. Handlers
// receive Data either as raw JSON from a client frame or as an in-process
// struct from a chained request; both forms decode the same way.
func DecodeData(evt Event, v any) error {
	var raw []byte
	switch d := evt.Data.(type) {
	case nil:
		return nil
	case json.RawMessage:
		raw = d
	case []byte:
		raw = d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return NewValidationError("data", "malformed payload")
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewValidationError("data", "malformed payload")
	}
	return nil
}
