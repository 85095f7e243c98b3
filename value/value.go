package value

import (
	"encoding/json"
	"strconv"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

// Value is a ledger value. The set of implementations is closed; every
// implementation serializes with a "type" tag equal to its Kind.
type Value interface {
	Kind() Kind
	json.Marshaler
	sealed()
}

var (
	_ Value = Unit{}
	_ Value = Bool{}
	_ Value = Integer{}
	_ Value = String{}
	_ Value = Struct{}
	_ Value = Enum{}
	_ Value = Option{}
	_ Value = Result{}
	_ Value = Collection{}
	_ Value = Tuple{}
	_ Value = Map{}
	_ Value = Decimal{}
	_ Value = Address{}
	_ Value = Hash{}
	_ Value = Handle{}
	_ Value = Node{}
	_ Value = NonFungibleID{}
	_ Value = PublicKey{}
	_ Value = Signature{}
	_ Value = Expression{}
	_ Value = Blob{}
)

type Unit struct{}

func (Unit) Kind() Kind { return KindUnit }
func (Unit) sealed()    {}

type Bool struct {
	Value bool
}

func (Bool) Kind() Kind { return KindBool }
func (Bool) sealed()    {}

// Integer is any fixed-width integer kind. The magnitude is kept as its
// decimal string so 64 and 128 bit values survive JSON intact.
type Integer struct {
	kind  Kind
	Value string
}

func (i Integer) Kind() Kind { return i.kind }
func (Integer) sealed()      {}

// NewInteger returns an integer of kind k after checking that s is a
// canonical decimal within range.
func NewInteger(k Kind, s string) (Integer, error) {
	if err := checkInteger(errors.PhaseValidate, k, s); err != nil {
		return Integer{}, err
	}
	return Integer{kind: k, Value: s}, nil
}

func NewU8(v uint8) Integer   { return Integer{kind: KindU8, Value: strconv.FormatUint(uint64(v), 10)} }
func NewU16(v uint16) Integer { return Integer{kind: KindU16, Value: strconv.FormatUint(uint64(v), 10)} }
func NewU32(v uint32) Integer { return Integer{kind: KindU32, Value: strconv.FormatUint(uint64(v), 10)} }
func NewU64(v uint64) Integer { return Integer{kind: KindU64, Value: strconv.FormatUint(v, 10)} }
func NewI8(v int8) Integer    { return Integer{kind: KindI8, Value: strconv.FormatInt(int64(v), 10)} }
func NewI16(v int16) Integer  { return Integer{kind: KindI16, Value: strconv.FormatInt(int64(v), 10)} }
func NewI32(v int32) Integer  { return Integer{kind: KindI32, Value: strconv.FormatInt(int64(v), 10)} }
func NewI64(v int64) Integer  { return Integer{kind: KindI64, Value: strconv.FormatInt(v, 10)} }

type String struct {
	Value string
}

func (String) Kind() Kind { return KindString }
func (String) sealed()    {}

type Struct struct {
	Fields []Value
}

func (Struct) Kind() Kind { return KindStruct }
func (Struct) sealed()    {}

// Enum is a named variant with optional positional fields. Nil Fields are
// omitted on the wire.
type Enum struct {
	VariantName string
	Fields      []Value
}

func (Enum) Kind() Kind { return KindEnum }
func (Enum) sealed()    {}

// Option holds Some(Value) or None when Value is nil.
type Option struct {
	Value Value
}

func (Option) Kind() Kind { return KindOption }
func (Option) sealed()    {}

// Result carries a single optional payload. The wire form has no ok/err
// discriminant, so none is modelled here.
type Result struct {
	Value Value
}

func (Result) Kind() Kind { return KindResult }
func (Result) sealed()    {}

// Collection is an Array, List or Set of homogeneous elements.
type Collection struct {
	kind        Kind
	ElementType Kind
	Elements    []Value
}

func (c Collection) Kind() Kind { return c.kind }
func (Collection) sealed()      {}

func NewArray(elementType Kind, elements ...Value) Collection {
	return Collection{kind: KindArray, ElementType: elementType, Elements: nonNil(elements)}
}

func NewList(elementType Kind, elements ...Value) Collection {
	return Collection{kind: KindList, ElementType: elementType, Elements: nonNil(elements)}
}

func NewSet(elementType Kind, elements ...Value) Collection {
	return Collection{kind: KindSet, ElementType: elementType, Elements: nonNil(elements)}
}

type Tuple struct {
	Elements []Value
}

func (Tuple) Kind() Kind { return KindTuple }
func (Tuple) sealed()    {}

// Map stores entries flattened as k0, v0, k1, v1, ...
type Map struct {
	KeyType   Kind
	ValueType Kind
	Elements  []Value
}

func (Map) Kind() Kind { return KindMap }
func (Map) sealed()    {}

// NewMap builds a map from alternating key/value elements.
func NewMap(keyType, valueType Kind, elements ...Value) Map {
	return Map{KeyType: keyType, ValueType: valueType, Elements: nonNil(elements)}
}

// Entries returns the map's key/value pairs. A trailing key without a value
// is dropped.
func (m Map) Entries() [][2]Value {
	out := make([][2]Value, 0, len(m.Elements)/2)
	for i := 0; i+1 < len(m.Elements); i += 2 {
		out = append(out, [2]Value{m.Elements[i], m.Elements[i+1]})
	}
	return out
}

// Decimal is a Decimal or PreciseDecimal held as its decimal string.
type Decimal struct {
	kind  Kind
	Value string
}

func (d Decimal) Kind() Kind { return d.kind }
func (Decimal) sealed()      {}

func NewDecimal(s string) Decimal        { return Decimal{kind: KindDecimal, Value: s} }
func NewPreciseDecimal(s string) Decimal { return Decimal{kind: KindPreciseDecimal, Value: s} }

// Address is a bech32m-encoded component, resource, package or
// non-fungible address.
type Address struct {
	kind    Kind
	Address string
}

func (a Address) Kind() Kind { return a.kind }
func (Address) sealed()      {}

func NewComponentAddress(s string) Address {
	return Address{kind: KindComponentAddress, Address: s}
}

func NewResourceAddress(s string) Address {
	return Address{kind: KindResourceAddress, Address: s}
}

func NewPackageAddress(s string) Address {
	return Address{kind: KindPackageAddress, Address: s}
}

func NewNonFungibleAddress(s string) Address {
	return Address{kind: KindNonFungibleAddress, Address: s}
}

// NewAddress returns an address of kind k, which must be an address kind.
func NewAddress(k Kind, s string) (Address, error) {
	switch k {
	case KindComponentAddress, KindResourceAddress, KindPackageAddress, KindNonFungibleAddress:
		return Address{kind: k, Address: s}, nil
	}
	return Address{}, invalidKind(nil, KindComponentAddress, k)
}

type Hash struct {
	Value string
}

func (Hash) Kind() Kind { return KindHash }
func (Hash) sealed()    {}

// Handle is a Bucket or Proof reference.
type Handle struct {
	kind       Kind
	Identifier Identifier
}

func (h Handle) Kind() Kind { return h.kind }
func (Handle) sealed()      {}

func NewBucket(id Identifier) Handle { return Handle{kind: KindBucket, Identifier: id} }
func NewProof(id Identifier) Handle  { return Handle{kind: KindProof, Identifier: id} }

// Node is a Vault or KeyValueStore reference.
type Node struct {
	kind       Kind
	Identifier string
}

func (n Node) Kind() Kind { return n.kind }
func (Node) sealed()      {}

func NewVault(id string) Node         { return Node{kind: KindVault, Identifier: id} }
func NewKeyValueStore(id string) Node { return Node{kind: KindKeyValueStore, Identifier: id} }

type NonFungibleID struct {
	Value string
}

func (NonFungibleID) Kind() Kind { return KindNonFungibleID }
func (NonFungibleID) sealed()    {}

type PublicKey struct {
	kind      Kind
	PublicKey txtoolkit.HexBytes
}

func (p PublicKey) Kind() Kind { return p.kind }
func (PublicKey) sealed()      {}

func NewEcdsaPublicKey(b []byte) PublicKey {
	return PublicKey{kind: KindEcdsaPublicKey, PublicKey: b}
}

func NewEd25519PublicKey(b []byte) PublicKey {
	return PublicKey{kind: KindEd25519PublicKey, PublicKey: b}
}

type Signature struct {
	kind      Kind
	Signature txtoolkit.HexBytes
}

func (s Signature) Kind() Kind { return s.kind }
func (Signature) sealed()      {}

func NewEcdsaSignature(b []byte) Signature {
	return Signature{kind: KindEcdsaSignature, Signature: b}
}

func NewEd25519Signature(b []byte) Signature {
	return Signature{kind: KindEd25519Signature, Signature: b}
}

// Expression is a manifest expression such as ENTIRE_WORKTOP.
type Expression struct {
	Value string
}

func (Expression) Kind() Kind { return KindExpression }
func (Expression) sealed()    {}

// Blob references an out-of-band byte blob by its hash.
type Blob struct {
	Hash string
}

func (Blob) Kind() Kind { return KindBlob }
func (Blob) sealed()    {}

func nonNil(v []Value) []Value {
	if v == nil {
		return []Value{}
	}
	return v
}
