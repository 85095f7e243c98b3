package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

// Marshal encodes v in its wire form.
func Marshal(v Value) ([]byte, error) {
	if v == nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, "nil value")
	}
	return v.MarshalJSON()
}

func (Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind `json:"type"`
	}{KindUnit})
}

func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Kind `json:"type"`
		Value bool `json:"value"`
	}{KindBool, b.Value})
}

func (i Integer) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Integer", i.kind, integerKinds); err != nil {
		return nil, err
	}
	return marshalScalar(i.kind, "value", i.Value)
}

func (s String) MarshalJSON() ([]byte, error) {
	return marshalScalar(KindString, "value", s.Value)
}

func (s Struct) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Kind    `json:"type"`
		Fields []Value `json:"fields"`
	}{KindStruct, nonNil(s.Fields)})
}

func (e Enum) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        Kind    `json:"type"`
		VariantName string  `json:"variant_name"`
		Fields      []Value `json:"fields,omitempty"`
	}{KindEnum, e.VariantName, e.Fields})
}

func (o Option) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Kind  `json:"type"`
		Value Value `json:"value,omitempty"`
	}{KindOption, o.Value})
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  Kind  `json:"type"`
		Value Value `json:"value,omitempty"`
	}{KindResult, r.Value})
}

func (c Collection) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Collection", c.kind, collectionKinds); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type        Kind    `json:"type"`
		ElementType Kind    `json:"element_type"`
		Elements    []Value `json:"elements"`
	}{c.kind, c.ElementType, nonNil(c.Elements)})
}

func (t Tuple) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     Kind    `json:"type"`
		Elements []Value `json:"elements"`
	}{KindTuple, nonNil(t.Elements)})
}

func (m Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      Kind    `json:"type"`
		KeyType   Kind    `json:"key_type"`
		ValueType Kind    `json:"value_type"`
		Elements  []Value `json:"elements"`
	}{KindMap, m.KeyType, m.ValueType, nonNil(m.Elements)})
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Decimal", d.kind, decimalKinds); err != nil {
		return nil, err
	}
	return marshalScalar(d.kind, "value", d.Value)
}

func (a Address) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Address", a.kind, addressKinds); err != nil {
		return nil, err
	}
	return marshalScalar(a.kind, "address", a.Address)
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return marshalScalar(KindHash, "value", h.Value)
}

func (h Handle) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Handle", h.kind, handleKinds); err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type       Kind       `json:"type"`
		Identifier Identifier `json:"identifier"`
	}{h.kind, h.Identifier})
}

func (n Node) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Node", n.kind, nodeKinds); err != nil {
		return nil, err
	}
	return marshalScalar(n.kind, "identifier", n.Identifier)
}

func (n NonFungibleID) MarshalJSON() ([]byte, error) {
	return marshalScalar(KindNonFungibleID, "value", n.Value)
}

func (p PublicKey) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "PublicKey", p.kind, publicKeyKinds); err != nil {
		return nil, err
	}
	return marshalScalar(p.kind, "public_key", p.PublicKey.String())
}

func (s Signature) MarshalJSON() ([]byte, error) {
	if err := checkVariant(errors.PhaseEncode, "Signature", s.kind, signatureKinds); err != nil {
		return nil, err
	}
	return marshalScalar(s.kind, "signature", s.Signature.String())
}

func (e Expression) MarshalJSON() ([]byte, error) {
	return marshalScalar(KindExpression, "value", e.Value)
}

func (b Blob) MarshalJSON() ([]byte, error) {
	return marshalScalar(KindBlob, "hash", b.Hash)
}

// marshalScalar writes {"type": k, field: s} with the tag first.
func marshalScalar(k Kind, field, s string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.WriteString(strconv.Quote(string(k)))
	buf.WriteByte(',')
	buf.WriteString(strconv.Quote(field))
	buf.WriteByte(':')
	quoted, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	buf.Write(quoted)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Unmarshal decodes a single value from its wire form.
func Unmarshal(data []byte) (Value, error) {
	return decode(data, nil)
}

// UnmarshalSlice decodes a JSON array of values.
func UnmarshalSlice(data []byte) ([]Value, error) {
	return decodeSlice(data, nil)
}

// Box carries a Value inside structs handled by encoding/json.
type Box struct {
	Value Value
}

func (b Box) MarshalJSON() ([]byte, error) {
	if b.Value == nil {
		return []byte("null"), nil
	}
	return b.Value.MarshalJSON()
}

func (b *Box) UnmarshalJSON(data []byte) error {
	v, err := Unmarshal(data)
	if err != nil {
		return err
	}
	b.Value = v
	return nil
}

type object struct {
	kind Kind
	path []string
	raw  map[string]json.RawMessage
}

func (o object) at(field string) []string {
	p := make([]string, 0, len(o.path)+2)
	p = append(p, o.path...)
	return append(p, string(o.kind), field)
}

func (o object) lookup(field string) (json.RawMessage, bool) {
	raw, ok := o.raw[field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// required decodes a present, non-null field into dst.
func (o object) required(field string, dst any) error {
	raw, ok := o.lookup(field)
	if !ok {
		err := errors.FieldMissing(errors.PhaseDecode, []string{string(o.kind)}, field)
		err.Path = o.at(field)
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return wrapDecode(err, o.at(field))
	}
	return nil
}

func (o object) str(field string) (string, error) {
	var s string
	err := o.required(field, &s)
	return s, err
}

func (o object) kindField(field string) (Kind, error) {
	var k Kind
	err := o.required(field, &k)
	return k, err
}

func (o object) values(field string) ([]Value, error) {
	raw, ok := o.lookup(field)
	if !ok {
		err := errors.FieldMissing(errors.PhaseDecode, []string{string(o.kind)}, field)
		err.Path = o.at(field)
		return nil, err
	}
	return decodeSlice(raw, o.at(field))
}

func (o object) optionalValue(field string) (Value, error) {
	raw, ok := o.lookup(field)
	if !ok {
		return nil, nil
	}
	return decode(raw, o.at(field))
}

func wrapDecode(err error, path []string) error {
	if e, ok := err.(*errors.Error); ok {
		if len(e.Path) == 0 {
			return errors.WithPath(e, path...)
		}
		return e
	}
	return errors.Deserialization(errors.PhaseDecode, path, err)
}

func decodeSlice(data []byte, path []string) ([]Value, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Deserialization(errors.PhaseDecode, path, err)
	}
	out := make([]Value, len(raws))
	for i, raw := range raws {
		elemPath := append(append([]string(nil), path...), strconv.Itoa(i))
		v, err := decode(raw, elemPath)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decode(data []byte, path []string) (Value, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Deserialization(errors.PhaseDecode, path, err)
	}

	tagRaw, ok := raw["type"]
	if !ok {
		err := errors.FieldMissing(errors.PhaseDecode, []string{kindValue}, "type")
		err.Path = append(append([]string(nil), path...), "type")
		return nil, err
	}
	var tag string
	if err := json.Unmarshal(tagRaw, &tag); err != nil {
		return nil, errors.Deserialization(errors.PhaseDecode, append(append([]string(nil), path...), "type"), err)
	}
	k := Kind(tag)
	if !k.Valid() {
		return nil, errors.UnexpectedContents(errors.PhaseDecode, path, kindValue, nil, tag)
	}

	o := object{kind: k, path: path, raw: raw}

	if k.IsInteger() {
		s, err := o.str("value")
		if err != nil {
			return nil, err
		}
		if err := checkInteger(errors.PhaseDecode, k, s); err != nil {
			return nil, errors.WithPath(err, o.at("value")...)
		}
		return Integer{kind: k, Value: s}, nil
	}

	switch k {
	case KindUnit:
		return Unit{}, nil

	case KindBool:
		var b bool
		if err := o.required("value", &b); err != nil {
			return nil, err
		}
		return Bool{Value: b}, nil

	case KindString:
		s, err := o.str("value")
		if err != nil {
			return nil, err
		}
		return String{Value: s}, nil

	case KindStruct:
		fields, err := o.values("fields")
		if err != nil {
			return nil, err
		}
		return Struct{Fields: fields}, nil

	case KindEnum:
		name, err := o.str("variant_name")
		if err != nil {
			return nil, err
		}
		e := Enum{VariantName: name}
		if raw, ok := o.lookup("fields"); ok {
			if e.Fields, err = decodeSlice(raw, o.at("fields")); err != nil {
				return nil, err
			}
		}
		return e, nil

	case KindOption:
		v, err := o.optionalValue("value")
		if err != nil {
			return nil, err
		}
		return Option{Value: v}, nil

	case KindResult:
		v, err := o.optionalValue("value")
		if err != nil {
			return nil, err
		}
		return Result{Value: v}, nil

	case KindArray, KindList, KindSet:
		et, err := o.kindField("element_type")
		if err != nil {
			return nil, err
		}
		elems, err := o.values("elements")
		if err != nil {
			return nil, err
		}
		return Collection{kind: k, ElementType: et, Elements: elems}, nil

	case KindTuple:
		elems, err := o.values("elements")
		if err != nil {
			return nil, err
		}
		return Tuple{Elements: elems}, nil

	case KindMap:
		kt, err := o.kindField("key_type")
		if err != nil {
			return nil, err
		}
		vt, err := o.kindField("value_type")
		if err != nil {
			return nil, err
		}
		elems, err := o.values("elements")
		if err != nil {
			return nil, err
		}
		return Map{KeyType: kt, ValueType: vt, Elements: elems}, nil

	case KindDecimal, KindPreciseDecimal:
		s, err := o.str("value")
		if err != nil {
			return nil, err
		}
		if err := checkDecimal(errors.PhaseDecode, k, s); err != nil {
			return nil, errors.WithPath(err, o.at("value")...)
		}
		return Decimal{kind: k, Value: s}, nil

	case KindComponentAddress, KindResourceAddress, KindPackageAddress, KindNonFungibleAddress:
		s, err := o.str("address")
		if err != nil {
			return nil, err
		}
		return Address{kind: k, Address: s}, nil

	case KindHash:
		s, err := o.str("value")
		if err != nil {
			return nil, err
		}
		if err := checkHash(errors.PhaseDecode, k, s); err != nil {
			return nil, errors.WithPath(err, o.at("value")...)
		}
		return Hash{Value: s}, nil

	case KindBucket, KindProof:
		var id Identifier
		if err := o.required("identifier", &id); err != nil {
			return nil, err
		}
		return Handle{kind: k, Identifier: id}, nil

	case KindVault, KindKeyValueStore:
		s, err := o.str("identifier")
		if err != nil {
			return nil, err
		}
		return Node{kind: k, Identifier: s}, nil

	case KindNonFungibleID:
		s, err := o.str("value")
		if err != nil {
			return nil, err
		}
		return NonFungibleID{Value: s}, nil

	case KindEcdsaPublicKey, KindEd25519PublicKey:
		b, err := o.hex("public_key")
		if err != nil {
			return nil, err
		}
		return PublicKey{kind: k, PublicKey: b}, nil

	case KindEcdsaSignature, KindEd25519Signature:
		b, err := o.hex("signature")
		if err != nil {
			return nil, err
		}
		return Signature{kind: k, Signature: b}, nil

	case KindExpression:
		s, err := o.str("value")
		if err != nil {
			return nil, err
		}
		return Expression{Value: s}, nil

	case KindBlob:
		s, err := o.str("hash")
		if err != nil {
			return nil, err
		}
		if err := checkHash(errors.PhaseDecode, k, s); err != nil {
			return nil, errors.WithPath(err, o.at("hash")...)
		}
		return Blob{Hash: s}, nil
	}

	return nil, errors.UnexpectedContents(errors.PhaseDecode, path, kindValue, nil, tag)
}

func (o object) hex(field string) (txtoolkit.HexBytes, error) {
	s, err := o.str(field)
	if err != nil {
		return nil, err
	}
	b, err := txtoolkit.ParseHex(s)
	if err != nil {
		return nil, errors.ParseError(errors.PhaseDecode, o.at(field), string(o.kind), fmt.Errorf("%s: %w", field, err))
	}
	return b, nil
}
