package instruction

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/value"
)

func (i *CallFunction) MarshalJSON() ([]byte, error)               { return marshal(i) }
func (i *CallMethod) MarshalJSON() ([]byte, error)                 { return marshal(i) }
func (i *CallMethodWithAllResources) MarshalJSON() ([]byte, error) { return marshal(i) }
func (i *TakeFromWorktop) MarshalJSON() ([]byte, error)            { return marshal(i) }
func (i *TakeFromWorktopByAmount) MarshalJSON() ([]byte, error)    { return marshal(i) }
func (i *TakeFromWorktopByIDs) MarshalJSON() ([]byte, error)       { return marshal(i) }
func (i *ReturnToWorktop) MarshalJSON() ([]byte, error)            { return marshal(i) }
func (i *AssertWorktopContains) MarshalJSON() ([]byte, error)      { return marshal(i) }
func (i *AssertWorktopContainsByAmount) MarshalJSON() ([]byte, error) {
	return marshal(i)
}
func (i *AssertWorktopContainsByIDs) MarshalJSON() ([]byte, error) { return marshal(i) }
func (i *PopFromAuthZone) MarshalJSON() ([]byte, error)            { return marshal(i) }
func (i *PushToAuthZone) MarshalJSON() ([]byte, error)             { return marshal(i) }
func (i *ClearAuthZone) MarshalJSON() ([]byte, error)              { return marshal(i) }
func (i *CreateProofFromAuthZone) MarshalJSON() ([]byte, error)    { return marshal(i) }
func (i *CreateProofFromAuthZoneByAmount) MarshalJSON() ([]byte, error) {
	return marshal(i)
}
func (i *CreateProofFromAuthZoneByIDs) MarshalJSON() ([]byte, error) { return marshal(i) }
func (i *CreateProofFromBucket) MarshalJSON() ([]byte, error)        { return marshal(i) }
func (i *CloneProof) MarshalJSON() ([]byte, error)                   { return marshal(i) }
func (i *DropProof) MarshalJSON() ([]byte, error)                    { return marshal(i) }
func (i *DropAllProofs) MarshalJSON() ([]byte, error)                { return marshal(i) }
func (i *PublishPackage) MarshalJSON() ([]byte, error)               { return marshal(i) }

// marshal writes the instruction tag first, then operands in declaration
// order. Absent optional operands are omitted.
func marshal(i Instruction) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"instruction":`)
	buf.WriteString(strconv.Quote(string(i.Name())))

	for _, op := range i.operands() {
		var (
			data []byte
			err  error
		)
		switch {
		case op.one != nil:
			if *op.one == nil {
				if op.optional {
					continue
				}
				return nil, missing(errors.PhaseEncode, i.Name(), op.name)
			}
			data, err = (*op.one).MarshalJSON()
		default:
			if *op.many == nil && op.optional {
				continue
			}
			vs := *op.many
			if vs == nil {
				vs = []value.Value{}
			}
			data, err = json.Marshal(vs)
		}
		if err != nil {
			return nil, errors.WithPath(err, string(i.Name()), op.name)
		}
		buf.WriteByte(',')
		buf.WriteString(strconv.Quote(op.name))
		buf.WriteByte(':')
		buf.Write(data)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Unmarshal decodes one instruction. Every required operand must be present.
func Unmarshal(data []byte) (Instruction, error) {
	return decode(data, nil)
}

func decode(data []byte, path []string) (Instruction, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Deserialization(errors.PhaseDecode, path, err)
	}

	tagRaw, ok := raw["instruction"]
	if !ok {
		err := errors.FieldMissing(errors.PhaseDecode, []string{"Instruction"}, "instruction")
		err.Path = append(append([]string(nil), path...), "instruction")
		return nil, err
	}
	var tag string
	if err := json.Unmarshal(tagRaw, &tag); err != nil {
		return nil, errors.Deserialization(errors.PhaseDecode, append(append([]string(nil), path...), "instruction"), err)
	}

	ctor, ok := constructors[Name(tag)]
	if !ok {
		return nil, errors.UnexpectedContents(errors.PhaseDecode, path, "Instruction", nil, tag)
	}
	inst := ctor()

	for _, op := range inst.operands() {
		fieldPath := append(append([]string(nil), path...), tag, op.name)
		r, present := raw[op.name]
		if !present || bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			if op.optional {
				continue
			}
			err := missing(errors.PhaseDecode, inst.Name(), op.name)
			err.Path = fieldPath
			return nil, err
		}

		if op.one != nil {
			v, err := value.Unmarshal(r)
			if err != nil {
				return nil, errors.WithPath(err, fieldPath...)
			}
			*op.one = v
			continue
		}
		vs, err := value.UnmarshalSlice(r)
		if err != nil {
			return nil, errors.WithPath(err, fieldPath...)
		}
		*op.many = vs
	}

	return inst, nil
}

func missing(phase errors.Phase, name Name, field string) *errors.Error {
	return errors.FieldMissing(phase, []string{string(name)}, field)
}

// List is an ordered instruction sequence with JSON support.
type List []Instruction

func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Instruction(l))
}

func (l *List) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}
	out := make(List, len(raws))
	for idx, r := range raws {
		inst, err := decode(r, []string{strconv.Itoa(idx)})
		if err != nil {
			return err
		}
		out[idx] = inst
	}
	*l = out
	return nil
}

// Validate checks that every operand of i is present and has the kind the
// instruction expects. Bucket and proof lifecycles are not checked.
func Validate(i Instruction) error {
	name := string(i.Name())
	for _, op := range i.operands() {
		if op.one != nil {
			v := *op.one
			if v == nil {
				if op.optional {
					continue
				}
				err := missing(errors.PhaseValidate, i.Name(), op.name)
				return err
			}
			if err := checkOperand(v, op.kinds, name, op.name); err != nil {
				return err
			}
			continue
		}
		if *op.many == nil && !op.optional {
			return missing(errors.PhaseValidate, i.Name(), op.name)
		}
		for idx, v := range *op.many {
			if err := checkOperand(v, op.kinds, name, op.name, strconv.Itoa(idx)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateAll validates each instruction, prefixing errors with its index.
func ValidateAll(l []Instruction) error {
	for idx, i := range l {
		if err := Validate(i); err != nil {
			return errors.WithPath(err, strconv.Itoa(idx))
		}
	}
	return nil
}

func checkOperand(v value.Value, kinds []value.Kind, path ...string) error {
	if len(kinds) > 0 {
		if err := value.ExpectOneOf(v, kinds...); err != nil {
			return errors.WithPath(err, path...)
		}
	}
	if err := value.Validate(v); err != nil {
		return errors.WithPath(err, path...)
	}
	return nil
}
