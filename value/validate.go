package value

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/wippyai/transaction-toolkit/errors"
)

// ExpectKind fails with InvalidType unless v has kind k.
func ExpectKind(v Value, k Kind) error {
	if v == nil {
		return errors.InvalidType(errors.PhaseValidate, nil, string(k), "None")
	}
	if v.Kind() != k {
		return invalidKind(nil, k, v.Kind())
	}
	return nil
}

// ExpectOneOf fails with InvalidType unless v has one of kinds.
func ExpectOneOf(v Value, kinds ...Kind) error {
	if v != nil {
		for _, k := range kinds {
			if v.Kind() == k {
				return nil
			}
		}
	}
	expected := ""
	if len(kinds) > 0 {
		expected = string(kinds[0])
	}
	return errors.InvalidType(errors.PhaseValidate, nil, expected, kindName(v))
}

// Validate checks v and its children: collection elements must match the
// declared element kinds, map elements must alternate key and value kinds,
// and scalar payloads must be well formed.
func Validate(v Value) error {
	return validate(v, nil)
}

func validate(v Value, path []string) error {
	switch x := v.(type) {
	case nil:
		return errors.InvalidInput(errors.PhaseValidate, "nil value")
	case Integer:
		if err := checkVariant(errors.PhaseValidate, "Integer", x.kind, integerKinds); err != nil {
			return errors.WithPath(err, path...)
		}
		return errors.WithPath(checkInteger(errors.PhaseValidate, x.kind, x.Value), path...)
	case Decimal:
		if err := checkVariant(errors.PhaseValidate, "Decimal", x.kind, decimalKinds); err != nil {
			return errors.WithPath(err, path...)
		}
		return errors.WithPath(checkDecimal(errors.PhaseValidate, x.kind, x.Value), path...)
	case Hash:
		return errors.WithPath(checkHash(errors.PhaseValidate, KindHash, x.Value), path...)
	case Blob:
		return errors.WithPath(checkHash(errors.PhaseValidate, KindBlob, x.Hash), path...)
	case Address:
		return errors.WithPath(checkVariant(errors.PhaseValidate, "Address", x.kind, addressKinds), path...)
	case Handle:
		return errors.WithPath(checkVariant(errors.PhaseValidate, "Handle", x.kind, handleKinds), path...)
	case Node:
		return errors.WithPath(checkVariant(errors.PhaseValidate, "Node", x.kind, nodeKinds), path...)
	case PublicKey:
		return errors.WithPath(checkVariant(errors.PhaseValidate, "PublicKey", x.kind, publicKeyKinds), path...)
	case Signature:
		return errors.WithPath(checkVariant(errors.PhaseValidate, "Signature", x.kind, signatureKinds), path...)
	case Struct:
		return validateAll(x.Fields, path, "fields")
	case Enum:
		return validateAll(x.Fields, path, "fields")
	case Tuple:
		return validateAll(x.Elements, path, "elements")
	case Option:
		if x.Value == nil {
			return nil
		}
		return validate(x.Value, sub(path, "value"))
	case Result:
		if x.Value == nil {
			return nil
		}
		return validate(x.Value, sub(path, "value"))
	case Collection:
		if err := checkVariant(errors.PhaseValidate, "Collection", x.kind, collectionKinds); err != nil {
			return errors.WithPath(err, path...)
		}
		for i, e := range x.Elements {
			p := child(path, "elements", i)
			if e == nil || e.Kind() != x.ElementType {
				return errors.InvalidType(errors.PhaseValidate, p, string(x.ElementType), kindName(e))
			}
			if err := validate(e, p); err != nil {
				return err
			}
		}
	case Map:
		if len(x.Elements)%2 != 0 {
			return errors.New(errors.PhaseValidate, errors.TagInvalidType).
				Kind(errors.KindInvalidData).
				Path(sub(path, "elements")...).
				Detail("map has %d elements, want an even count", len(x.Elements)).
				Build()
		}
		for i, e := range x.Elements {
			want := x.KeyType
			if i%2 == 1 {
				want = x.ValueType
			}
			p := child(path, "elements", i)
			if e == nil || e.Kind() != want {
				return errors.InvalidType(errors.PhaseValidate, p, string(want), kindName(e))
			}
			if err := validate(e, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAll(vs []Value, path []string, field string) error {
	for i, v := range vs {
		if err := validate(v, child(path, field, i)); err != nil {
			return err
		}
	}
	return nil
}

func child(path []string, field string, i int) []string {
	return sub(path, field, strconv.Itoa(i))
}

func sub(path []string, parts ...string) []string {
	p := make([]string, 0, len(path)+len(parts))
	p = append(p, path...)
	return append(p, parts...)
}

func kindName(v Value) string {
	if v == nil {
		return "None"
	}
	return string(v.Kind())
}

func invalidKind(path []string, expected, actual Kind) *errors.Error {
	return errors.InvalidType(errors.PhaseValidate, path, string(expected), string(actual))
}

// checkInteger accepts "0" or a non-zero digit followed by digits, with a
// leading "-" only for signed kinds, within the kind's bit width.
func checkInteger(phase errors.Phase, k Kind, s string) error {
	bits, ok := integerBits[k]
	if !ok {
		return errors.InvalidType(phase, nil, string(KindU64), string(k))
	}
	signed := bits < 0
	if signed {
		bits = -bits
	}
	if !canonicalInteger(s, signed) {
		return errors.ParseError(phase, nil, string(k), fmt.Errorf("%q is not a canonical integer", s))
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errors.ParseError(phase, nil, string(k), fmt.Errorf("%q is not an integer", s))
	}
	var lo, hi *big.Int
	if signed {
		hi = new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		lo = new(big.Int).Neg(hi)
		hi.Sub(hi, big.NewInt(1))
	} else {
		lo = big.NewInt(0)
		hi = new(big.Int).Lsh(big.NewInt(1), uint(bits))
		hi.Sub(hi, big.NewInt(1))
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return errors.ParseError(phase, nil, string(k), fmt.Errorf("%s out of range [%s, %s]", s, lo, hi))
	}
	return nil
}

func canonicalInteger(s string, signed bool) bool {
	if signed && len(s) > 0 && s[0] == '-' {
		s = s[1:]
		if s == "0" {
			return false
		}
	}
	return canonicalDigits(s)
}

func canonicalDigits(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '0' {
		return len(s) == 1
	}
	return allDigits(s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// checkDecimal accepts an optional "-", a canonical integer part and an
// optional fraction of at least one digit.
func checkDecimal(phase errors.Phase, k Kind, s string) error {
	body := s
	if len(body) > 0 && body[0] == '-' {
		body = body[1:]
	}
	intPart, frac, hasFrac := strings.Cut(body, ".")
	ok := canonicalDigits(intPart) && (!hasFrac || allDigits(frac))
	if ok && s == "-0" {
		ok = false
	}
	if !ok {
		return errors.ParseError(phase, nil, string(k), fmt.Errorf("%q is not a canonical decimal", s))
	}
	return nil
}

func checkHash(phase errors.Phase, k Kind, s string) error {
	if len(s) != 64 {
		return errors.ParseError(phase, nil, string(k), fmt.Errorf("want 64 hex characters, got %d", len(s)))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return errors.ParseError(phase, nil, string(k), err)
	}
	return nil
}
