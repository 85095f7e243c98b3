package schema

import (
	"encoding/json"

	"github.com/wippyai/transaction-toolkit/errors"
)

// IntentKind says which shape a decompiled unknown intent turned out to be.
type IntentKind string

const (
	IntentUnsigned  IntentKind = "TransactionIntent"
	IntentSigned    IntentKind = "SignedTransactionIntent"
	IntentNotarized IntentKind = "NotarizedTransactionIntent"
)

// DecompileUnknownTransactionIntentResponse holds whichever decompile
// response the compiled bytes matched. Exactly one field is set.
type DecompileUnknownTransactionIntentResponse struct {
	Intent          *DecompileTransactionIntentResponse
	SignedIntent    *DecompileSignedTransactionIntentResponse
	NotarizedIntent *DecompileNotarizedTransactionIntentResponse
}

// Kind reports the matched shape, or "" when the response is empty.
func (r DecompileUnknownTransactionIntentResponse) Kind() IntentKind {
	switch {
	case r.NotarizedIntent != nil:
		return IntentNotarized
	case r.SignedIntent != nil:
		return IntentSigned
	case r.Intent != nil:
		return IntentUnsigned
	}
	return ""
}

func (r DecompileUnknownTransactionIntentResponse) MarshalJSON() ([]byte, error) {
	switch r.Kind() {
	case IntentNotarized:
		return json.Marshal(r.NotarizedIntent)
	case IntentSigned:
		return json.Marshal(r.SignedIntent)
	case IntentUnsigned:
		return json.Marshal(r.Intent)
	}
	return nil, errors.UnrecognizedIntent(errors.PhaseEncode)
}

// shapes are tried most specific first; a shape matches when all of its
// required members are present.
var unknownShapes = []struct {
	kind     IntentKind
	required []string
}{
	{IntentNotarized, []string{"signed_intent", "notary_signature"}},
	{IntentSigned, []string{"transaction_intent", "signatures"}},
	{IntentUnsigned, []string{"header", "manifest"}},
}

func (r *DecompileUnknownTransactionIntentResponse) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}

	for _, shape := range unknownShapes {
		if !hasAll(members, shape.required) {
			continue
		}
		out := DecompileUnknownTransactionIntentResponse{}
		var err error
		switch shape.kind {
		case IntentNotarized:
			out.NotarizedIntent = &DecompileNotarizedTransactionIntentResponse{}
			err = json.Unmarshal(data, out.NotarizedIntent)
		case IntentSigned:
			out.SignedIntent = &DecompileSignedTransactionIntentResponse{}
			err = json.Unmarshal(data, out.SignedIntent)
		case IntentUnsigned:
			out.Intent = &DecompileTransactionIntentResponse{}
			err = json.Unmarshal(data, out.Intent)
		}
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				return e
			}
			return errors.Deserialization(errors.PhaseDecode, []string{string(shape.kind)}, err)
		}
		*r = out
		return nil
	}

	return errors.UnrecognizedIntent(errors.PhaseDecode)
}

func hasAll(members map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := members[k]; !ok {
			return false
		}
	}
	return true
}
