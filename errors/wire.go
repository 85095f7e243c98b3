package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type wireEnvelope struct {
	Error Tag             `json:"error"`
	Value json.RawMessage `json:"value,omitempty"`
}

type unexpectedContentsPayload struct {
	Kind     string   `json:"kind"`
	Expected []string `json:"expected"`
	Found    string   `json:"found"`
}

type invalidTypePayload struct {
	ExpectedType string `json:"expected_type"`
	ActualType   string `json:"actual_type"`
}

type parseErrorPayload struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// MarshalJSON encodes the wire form {"error": Tag, "value": payload}.
// Local context is dropped.
func (e *Error) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Tag {
	case TagUnexpectedContents:
		expected := e.Expected
		if expected == nil {
			expected = []string{}
		}
		payload = unexpectedContentsPayload{Kind: e.ValueKind, Expected: expected, Found: e.Found}
	case TagInvalidType:
		payload = invalidTypePayload{ExpectedType: e.ExpectedType, ActualType: e.ActualType}
	case TagParseError:
		payload = parseErrorPayload{Kind: e.ValueKind, Error: e.Message}
	case TagUnsupportedTransactionVersion:
		payload = e.Version
	case TagUnrecognizedCompiledIntentFormat:
		return json.Marshal(wireEnvelope{Error: e.Tag})
	default:
		payload = e.Message
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{Error: e.Tag, Value: raw})
}

// UnmarshalJSON decodes the wire form. Phase and Kind are set to the
// remote defaults.
func (e *Error) UnmarshalJSON(data []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Error == "" {
		return fmt.Errorf("error envelope without %q tag", "error")
	}

	out := Error{Phase: PhaseRemote, Kind: KindRemote, Tag: env.Error}
	hasValue := len(env.Value) > 0 && !bytes.Equal(env.Value, []byte("null"))

	switch env.Error {
	case TagUnexpectedContents:
		var p unexpectedContentsPayload
		if hasValue {
			if err := json.Unmarshal(env.Value, &p); err != nil {
				return err
			}
		}
		out.ValueKind, out.Expected, out.Found = p.Kind, p.Expected, p.Found
	case TagInvalidType:
		var p invalidTypePayload
		if hasValue {
			if err := json.Unmarshal(env.Value, &p); err != nil {
				return err
			}
		}
		out.ExpectedType, out.ActualType = p.ExpectedType, p.ActualType
	case TagParseError:
		var p parseErrorPayload
		if hasValue {
			if err := json.Unmarshal(env.Value, &p); err != nil {
				return err
			}
		}
		out.ValueKind, out.Message = p.Kind, p.Error
	case TagUnsupportedTransactionVersion:
		if hasValue {
			if err := json.Unmarshal(env.Value, &out.Version); err != nil {
				return err
			}
		}
	case TagUnrecognizedCompiledIntentFormat:
	default:
		if hasValue {
			// Unknown tags keep whatever payload they carry as text.
			if err := json.Unmarshal(env.Value, &out.Message); err != nil {
				out.Message = string(env.Value)
			}
		}
	}

	*e = out
	return nil
}

// FromResponse reports whether data is a wire error object and decodes it.
// A response is an error when it is a JSON object whose "error" member is a
// string.
func FromResponse(data []byte) (*Error, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false
	}
	tag, ok := probe["error"]
	if !ok || len(tag) == 0 || tag[0] != '"' {
		return nil, false
	}
	var e Error
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return nil, false
	}
	return &e, true
}
