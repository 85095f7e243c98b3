package instruction

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/value"
)

var (
	account  = value.NewComponentAddress("account_sim1q02r73u7nv47h80e30pc3q6ylsj7mgvparm3pnsm780qgsy064")
	xrd      = value.NewResourceAddress("resource_sim1qzkcyv5dwq3r6kawy6pxpvcythx8rh8ntum6ws62p95sqjjpwr")
	pkg      = value.NewPackageAddress("package_sim1qyqzcexvnyg60z7lnlwauh66nhzg3m8tch2j8wc0e70qkydk8r")
	bucket   = value.NewBucket(value.ID("bucket1"))
	proof    = value.NewProof(value.ID(uint32(3)))
	amount   = value.NewDecimal("100")
	nfIDs    = []value.Value{value.NonFungibleID{Value: "5c2007"}, value.NonFungibleID{Value: "5c2008"}}
	blobHash = value.Blob{Hash: strings.Repeat("0f", 32)}
)

func allInstructions() []Instruction {
	return []Instruction{
		&CallFunction{
			PackageAddress: pkg,
			BlueprintName:  value.String{Value: "Faucet"},
			FunctionName:   value.String{Value: "new"},
			Arguments:      []value.Value{value.NewDecimal("1")},
		},
		&CallFunction{
			PackageAddress: pkg,
			BlueprintName:  value.String{Value: "Faucet"},
			FunctionName:   value.String{Value: "new"},
		},
		&CallMethod{
			ComponentAddress: account,
			MethodName:       value.String{Value: "lock_fee"},
			Arguments:        []value.Value{value.NewDecimal("10")},
		},
		&CallMethodWithAllResources{ComponentAddress: account, MethodName: value.String{Value: "deposit_batch"}},
		&TakeFromWorktop{ResourceAddress: xrd, IntoBucket: bucket},
		&TakeFromWorktopByAmount{Amount: amount, ResourceAddress: xrd, IntoBucket: bucket},
		&TakeFromWorktopByIDs{IDs: nfIDs, ResourceAddress: xrd, IntoBucket: bucket},
		&ReturnToWorktop{Bucket: bucket},
		&AssertWorktopContains{ResourceAddress: xrd},
		&AssertWorktopContainsByAmount{Amount: amount, ResourceAddress: xrd},
		&AssertWorktopContainsByIDs{IDs: nfIDs, ResourceAddress: xrd},
		&PopFromAuthZone{IntoProof: proof},
		&PushToAuthZone{Proof: proof},
		&ClearAuthZone{},
		&CreateProofFromAuthZone{ResourceAddress: xrd, IntoProof: proof},
		&CreateProofFromAuthZoneByAmount{Amount: amount, ResourceAddress: xrd, IntoProof: proof},
		&CreateProofFromAuthZoneByIDs{IDs: nfIDs, ResourceAddress: xrd, IntoProof: proof},
		&CreateProofFromBucket{Bucket: bucket, IntoProof: proof},
		&CloneProof{Proof: proof, IntoProof: value.NewProof(value.ID(4))},
		&DropProof{Proof: proof},
		&DropAllProofs{},
		&PublishPackage{Code: blobHash, ABI: blobHash},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, inst := range allInstructions() {
		t.Run(string(inst.Name()), func(t *testing.T) {
			data, err := json.Marshal(inst)
			require.NoError(t, err)

			back, err := Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, inst, back)
			assert.NoError(t, Validate(back))
		})
	}
}

func TestAllNamesCovered(t *testing.T) {
	seen := map[Name]bool{}
	for _, inst := range allInstructions() {
		seen[inst.Name()] = true
	}
	for _, n := range Names() {
		assert.True(t, seen[n], "no sample for %s", n)
	}
	assert.Len(t, Names(), 21)
}

func TestNamesOrder(t *testing.T) {
	got := Names()
	require.Len(t, got, len(constructors))
	assert.Equal(t, NameCallFunction, got[0])
	assert.Equal(t, NamePublishPackage, got[len(got)-1])
	for i := 0; i < 5; i++ {
		assert.Equal(t, got, Names())
	}

	got[0] = "CHANGED"
	assert.Equal(t, NameCallFunction, Names()[0])

	for _, n := range got[1:] {
		_, ok := constructors[n]
		assert.True(t, ok, "%s has no constructor", n)
	}
}

func TestWireShape(t *testing.T) {
	data, err := json.Marshal(&ReturnToWorktop{Bucket: value.NewBucket(value.ID(5))})
	require.NoError(t, err)
	assert.Equal(t, `{"instruction":"RETURN_TO_WORKTOP","bucket":{"type":"Bucket","identifier":5}}`, string(data))

	data, err = json.Marshal(&PopFromAuthZone{IntoProof: proof})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"POP_FROM_AUTH_ZONE"`)

	data, err = json.Marshal(&CallMethod{ComponentAddress: account, MethodName: value.String{Value: "free_xrd"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "arguments")
}

func TestUnmarshal_MissingField(t *testing.T) {
	_, err := Unmarshal([]byte(`{"instruction":"TAKE_FROM_WORKTOP","resource_address":{"type":"ResourceAddress","address":"r"}}`))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.TagDeserializationError, e.Tag)
	assert.Equal(t, errors.KindFieldMissing, e.Kind)
	assert.Contains(t, e.Message, "into_bucket")
	assert.Contains(t, e.Message, "TAKE_FROM_WORKTOP")
}

func TestUnmarshal_UnknownInstruction(t *testing.T) {
	_, err := Unmarshal([]byte(`{"instruction":"POP_FROM_AUTH_ZOME","into_proof":{"type":"Proof","identifier":1}}`))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.TagUnexpectedContents, e.Tag)
	assert.Equal(t, "POP_FROM_AUTH_ZOME", e.Found)
}

func TestUnmarshal_BadOperand(t *testing.T) {
	_, err := Unmarshal([]byte(`{"instruction":"ASSERT_WORKTOP_CONTAINS_BY_AMOUNT","amount":{"type":"Decimal","value":"1e5"},"resource_address":{"type":"ResourceAddress","address":"r"}}`))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.TagParseError, e.Tag)
	assert.Equal(t, []string{"ASSERT_WORKTOP_CONTAINS_BY_AMOUNT", "amount", "Decimal", "value"}, e.Path)
}

func TestValidate_OperandKinds(t *testing.T) {
	err := Validate(&TakeFromWorktop{ResourceAddress: account, IntoBucket: bucket})

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.TagInvalidType, e.Tag)
	assert.Equal(t, "ResourceAddress", e.ExpectedType)
	assert.Equal(t, "ComponentAddress", e.ActualType)
	assert.Equal(t, []string{"TAKE_FROM_WORKTOP", "resource_address"}, e.Path)

	err = Validate(&TakeFromWorktopByIDs{IDs: []value.Value{value.String{Value: "x"}}, ResourceAddress: xrd, IntoBucket: bucket})
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"TAKE_FROM_WORKTOP_BY_IDS", "ids", "0"}, e.Path)

	err = Validate(&DropProof{})
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindFieldMissing})
}

func TestList(t *testing.T) {
	l := List(allInstructions())
	data, err := json.Marshal(l)
	require.NoError(t, err)

	var back List
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, l, back)
	assert.NoError(t, ValidateAll(back))

	err = json.Unmarshal([]byte(`[{"instruction":"CLEAR_AUTH_ZONE"},{"instruction":"DROP_PROOF"}]`), &back)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"1", "DROP_PROOF", "proof"}, e.Path)

	empty, err := json.Marshal(List(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
