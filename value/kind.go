package value

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/wippyai/transaction-toolkit/errors"
)

// Kind is the discriminant of a Value, serialized as its "type" tag.
type Kind string

const (
	KindUnit   Kind = "Unit"
	KindBool   Kind = "Bool"
	KindI8     Kind = "I8"
	KindI16    Kind = "I16"
	KindI32    Kind = "I32"
	KindI64    Kind = "I64"
	KindI128   Kind = "I128"
	KindU8     Kind = "U8"
	KindU16    Kind = "U16"
	KindU32    Kind = "U32"
	KindU64    Kind = "U64"
	KindU128   Kind = "U128"
	KindString Kind = "String"

	KindStruct Kind = "Struct"
	KindEnum   Kind = "Enum"
	KindOption Kind = "Option"
	KindResult Kind = "Result"
	KindArray  Kind = "Array"
	KindTuple  Kind = "Tuple"
	KindList   Kind = "List"
	KindSet    Kind = "Set"
	KindMap    Kind = "Map"

	KindDecimal        Kind = "Decimal"
	KindPreciseDecimal Kind = "PreciseDecimal"

	KindComponentAddress   Kind = "ComponentAddress"
	KindResourceAddress    Kind = "ResourceAddress"
	KindPackageAddress     Kind = "PackageAddress"
	KindNonFungibleAddress Kind = "NonFungibleAddress"

	KindHash          Kind = "Hash"
	KindBucket        Kind = "Bucket"
	KindProof         Kind = "Proof"
	KindVault         Kind = "Vault"
	KindKeyValueStore Kind = "KeyValueStore"
	KindNonFungibleID Kind = "NonFungibleId"

	KindEcdsaPublicKey   Kind = "EcdsaPublicKey"
	KindEcdsaSignature   Kind = "EcdsaSignature"
	KindEd25519PublicKey Kind = "Ed25519PublicKey"
	KindEd25519Signature Kind = "Ed25519Signature"

	KindExpression Kind = "Expression"
	KindBlob       Kind = "Blob"
)

// kindValue is used as the "kind" of errors raised while decoding a value
// whose own kind is not yet known.
const kindValue = "Value"

// integer bit widths; negative means signed
var integerBits = map[Kind]int{
	KindI8: -8, KindI16: -16, KindI32: -32, KindI64: -64, KindI128: -128,
	KindU8: 8, KindU16: 16, KindU32: 32, KindU64: 64, KindU128: 128,
}

// kinds held by the variant types that carry their kind in a field
var (
	integerKinds    = []Kind{KindI8, KindI16, KindI32, KindI64, KindI128, KindU8, KindU16, KindU32, KindU64, KindU128}
	collectionKinds = []Kind{KindArray, KindList, KindSet}
	decimalKinds    = []Kind{KindDecimal, KindPreciseDecimal}
	addressKinds    = []Kind{KindComponentAddress, KindResourceAddress, KindPackageAddress, KindNonFungibleAddress}
	handleKinds     = []Kind{KindBucket, KindProof}
	nodeKinds       = []Kind{KindVault, KindKeyValueStore}
	publicKeyKinds  = []Kind{KindEcdsaPublicKey, KindEd25519PublicKey}
	signatureKinds  = []Kind{KindEcdsaSignature, KindEd25519Signature}
)

// checkVariant fails unless k is one of allowed. A variant built as a struct
// literal instead of through its constructor has an empty kind and would
// otherwise go out without a type tag.
func checkVariant(phase errors.Phase, typ string, k Kind, allowed []Kind) error {
	if slices.Contains(allowed, k) {
		return nil
	}
	return errors.InvalidInput(phase, fmt.Sprintf("%s has kind %q; build it with a constructor", typ, k))
}

var allKinds = []Kind{
	KindUnit, KindBool,
	KindI8, KindI16, KindI32, KindI64, KindI128,
	KindU8, KindU16, KindU32, KindU64, KindU128,
	KindString, KindStruct, KindEnum, KindOption, KindResult,
	KindArray, KindTuple, KindList, KindSet, KindMap,
	KindDecimal, KindPreciseDecimal,
	KindComponentAddress, KindResourceAddress, KindPackageAddress, KindNonFungibleAddress,
	KindHash, KindBucket, KindProof, KindVault, KindKeyValueStore, KindNonFungibleID,
	KindEcdsaPublicKey, KindEcdsaSignature, KindEd25519PublicKey, KindEd25519Signature,
	KindExpression, KindBlob,
}

var kindSet = func() map[Kind]struct{} {
	m := make(map[Kind]struct{}, len(allKinds))
	for _, k := range allKinds {
		m[k] = struct{}{}
	}
	return m
}()

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindSet[k]
	return ok
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func (k Kind) IsInteger() bool {
	_, ok := integerBits[k]
	return ok
}

// Signed reports whether k is a signed integer kind.
func (k Kind) Signed() bool {
	return integerBits[k] < 0
}

func (k Kind) String() string { return string(k) }

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", errors.UnexpectedContents(errors.PhaseDecode, nil, kindValue, nil, s)
	}
	return k, nil
}

// UnmarshalJSON rejects unknown kind names.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
