package manifest

import (
	"encoding/json"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/instruction"
)

// InstructionsKind selects the representation of manifest instructions.
type InstructionsKind string

const (
	KindString InstructionsKind = "String"
	KindJSON   InstructionsKind = "JSON"
)

// Valid reports whether k names a known representation.
func (k InstructionsKind) Valid() bool {
	return k == KindString || k == KindJSON
}

func (k *InstructionsKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}
	if !InstructionsKind(s).Valid() {
		return errors.UnexpectedContents(errors.PhaseDecode, nil, "ManifestInstructionsKind",
			[]string{string(KindString), string(KindJSON)}, s)
	}
	*k = InstructionsKind(s)
	return nil
}

// Instructions holds either the textual manifest or a parsed instruction
// list. Exactly one is active, chosen by Kind.
type Instructions struct {
	kind InstructionsKind
	text string
	list instruction.List
}

// Text wraps a manifest in its textual form.
func Text(s string) Instructions {
	return Instructions{kind: KindString, text: s}
}

// JSON wraps a parsed instruction list.
func JSON(l []instruction.Instruction) Instructions {
	if l == nil {
		l = instruction.List{}
	}
	return Instructions{kind: KindJSON, list: l}
}

func (m Instructions) Kind() InstructionsKind { return m.kind }

// Text returns the textual manifest; ok is false for the JSON form.
func (m Instructions) Text() (string, bool) {
	return m.text, m.kind == KindString
}

// List returns the instruction list; ok is false for the string form.
func (m Instructions) List() (instruction.List, bool) {
	return m.list, m.kind == KindJSON
}

func (m Instructions) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case KindString:
		return json.Marshal(struct {
			Type  InstructionsKind `json:"type"`
			Value string           `json:"value"`
		}{KindString, m.text})
	case KindJSON:
		return json.Marshal(struct {
			Type  InstructionsKind `json:"type"`
			Value instruction.List `json:"value"`
		}{KindJSON, m.list})
	}
	return nil, errors.InvalidInput(errors.PhaseEncode, "manifest instructions have no representation")
}

func (m *Instructions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  *InstructionsKind `json:"type"`
		Value json.RawMessage   `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		if e, ok := err.(*errors.Error); ok {
			return errors.WithPath(e, "type")
		}
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}
	if raw.Type == nil {
		return errors.FieldMissing(errors.PhaseDecode, []string{"ManifestInstructions"}, "type")
	}
	if len(raw.Value) == 0 {
		return errors.FieldMissing(errors.PhaseDecode, []string{"ManifestInstructions"}, "value")
	}

	switch *raw.Type {
	case KindString:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return errors.Deserialization(errors.PhaseDecode, []string{"value"}, err)
		}
		*m = Text(s)
	case KindJSON:
		var l instruction.List
		if err := json.Unmarshal(raw.Value, &l); err != nil {
			return errors.WithPath(err, "value")
		}
		*m = JSON(l)
	}
	return nil
}

// TransactionManifest is an instruction sequence plus the blobs it
// references by hash.
type TransactionManifest struct {
	Instructions Instructions         `json:"instructions"`
	Blobs        []txtoolkit.HexBytes `json:"blobs,omitempty"`
}

// Validate checks operand kinds when the instructions are in JSON form.
// The string form is opaque until the library parses it.
func (m TransactionManifest) Validate() error {
	l, ok := m.Instructions.List()
	if !ok {
		return nil
	}
	return errors.WithPath(instruction.ValidateAll(l), "instructions")
}
