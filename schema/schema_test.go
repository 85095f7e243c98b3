package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/manifest"
	"github.com/wippyai/transaction-toolkit/transaction"
	"github.com/wippyai/transaction-toolkit/value"
)

func testIntent() transaction.Intent {
	return transaction.Intent{
		Header: transaction.Header{
			Version:           1,
			NetworkID:         0xF2,
			EndEpochExclusive: 0x20,
			NotaryPublicKey:   txtoolkit.MustParseHex("031c3796382de8e6e7a1aacb069221e43943af8be417d4c8c92dca7c4b07f93969"),
			CostUnitLimit:     10_000_000,
		},
		Manifest: manifest.NewBuilder().
			CallMethod("account_sim1q0", "lock_fee", value.NewDecimal("10")).
			Manifest(),
	}
}

func keys(t *testing.T, v any) []string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestWireFieldNames(t *testing.T) {
	signed := transaction.SignedIntent{Intent: testIntent(), Signatures: []transaction.SignatureWithPublicKey{}}
	notarized := transaction.NotarizedIntent{
		SignedIntent:    signed,
		NotarySignature: transaction.Signature{Curve: transaction.CurveEcdsa, Signature: bytes.Repeat([]byte{1}, 65)},
	}

	tests := []struct {
		name string
		v    any
		keys []string
	}{
		{"information response", InformationResponse{PackageVersion: "0.5.0"}, []string{"package_version"}},
		{"convert manifest", ConvertManifestRequest{TransactionVersion: 1, ManifestInstructionsOutputFormat: manifest.KindString, Manifest: testIntent().Manifest},
			[]string{"transaction_version", "network_id", "manifest_instructions_output_format", "manifest"}},
		{"convert manifest response", ConvertManifestResponse{testIntent().Manifest}, []string{"instructions"}},
		{"compile intent", CompileTransactionIntentRequest{testIntent()}, []string{"header", "manifest"}},
		{"compile intent response", CompileTransactionIntentResponse{CompiledIntent: []byte{1}}, []string{"compiled_intent"}},
		{"decompile intent", DecompileTransactionIntentRequest{CompiledIntent: []byte{1}, ManifestInstructionsOutputFormat: manifest.KindJSON},
			[]string{"compiled_intent", "manifest_instructions_output_format"}},
		{"compile signed", CompileSignedTransactionIntentRequest{signed}, []string{"transaction_intent", "signatures"}},
		{"compile signed response", CompileSignedTransactionIntentResponse{CompiledSignedIntent: []byte{1}}, []string{"compiled_signed_intent"}},
		{"decompile signed", DecompileSignedTransactionIntentRequest{CompiledSignedIntent: []byte{1}, ManifestInstructionsOutputFormat: manifest.KindJSON},
			[]string{"compiled_signed_intent", "manifest_instructions_output_format"}},
		{"compile notarized", CompileNotarizedTransactionIntentRequest{notarized}, []string{"signed_intent", "notary_signature"}},
		{"compile notarized response", CompileNotarizedTransactionIntentResponse{CompiledNotarizedIntent: []byte{1}}, []string{"compiled_notarized_intent"}},
		{"decompile notarized", DecompileNotarizedTransactionIntentRequest{CompiledNotarizedIntent: []byte{1}, ManifestInstructionsOutputFormat: manifest.KindJSON},
			[]string{"compiled_notarized_intent", "manifest_instructions_output_format"}},
		{"decompile unknown", DecompileUnknownTransactionIntentRequest{CompiledUnknownIntent: []byte{1}, ManifestInstructionsOutputFormat: manifest.KindJSON},
			[]string{"compiled_unknown_intent", "manifest_instructions_output_format"}},
		{"encode address", EncodeAddressRequest{AddressBytes: []byte{1}, NetworkID: 1}, []string{"address_bytes", "network_id"}},
		{"encode address response", EncodeAddressResponse{Address: value.NewComponentAddress("c")}, []string{"type", "address"}},
		{"decode address", DecodeAddressRequest{Address: "c"}, []string{"address"}},
		{"decode address response", DecodeAddressResponse{NetworkID: 1, Data: []byte{1}}, []string{"network_id", "network_name", "entity_type", "data", "hrp"}},
		{"sbor encode", SBOREncodeRequest{Value: value.Box{Value: value.Unit{}}}, []string{"value"}},
		{"sbor encode response", SBOREncodeResponse{EncodedValue: []byte{1}}, []string{"encoded_value"}},
		{"sbor decode", SBORDecodeRequest{EncodedValue: []byte{1}, NetworkID: 1}, []string{"encoded_value", "network_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.keys, keys(t, tt.v))
		})
	}
}

func TestCompileIntentRequest_RoundTrip(t *testing.T) {
	req := CompileTransactionIntentRequest{testIntent()}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var back CompileTransactionIntentRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, req, back)
	assert.NoError(t, back.Validate())
}

func TestRequestValidation(t *testing.T) {
	bad := ConvertManifestRequest{TransactionVersion: 3, ManifestInstructionsOutputFormat: manifest.KindJSON}
	assert.ErrorIs(t, bad.Validate(), &errors.Error{Tag: errors.TagUnsupportedTransactionVersion})

	bad = ConvertManifestRequest{TransactionVersion: 1, ManifestInstructionsOutputFormat: "Binary"}
	assert.ErrorIs(t, bad.Validate(), &errors.Error{Tag: errors.TagUnexpectedContents})

	intent := testIntent()
	intent.Header.Version = 0
	assert.ErrorIs(t, CompileTransactionIntentRequest{intent}.Validate(), &errors.Error{Tag: errors.TagUnsupportedTransactionVersion})

	assert.ErrorIs(t, SBOREncodeRequest{}.Validate(), &errors.Error{Kind: errors.KindFieldMissing})
	assert.ErrorIs(t, SBOREncodeRequest{Value: value.Box{Value: value.NewList(value.KindU8, value.Bool{})}}.Validate(),
		&errors.Error{Tag: errors.TagInvalidType})
}

func TestEncodeAddressResponse(t *testing.T) {
	var r EncodeAddressResponse
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ResourceAddress","address":"resource_sim1qq"}`), &r))
	assert.Equal(t, value.KindResourceAddress, r.Address.Kind())
	assert.Equal(t, "resource_sim1qq", r.Address.Address)

	err := json.Unmarshal([]byte(`{"type":"U8","value":"1"}`), &r)
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagUnexpectedContents})
}

func TestDecompileUnknown(t *testing.T) {
	intent := DecompileTransactionIntentResponse{testIntent()}
	signed := DecompileSignedTransactionIntentResponse{transaction.SignedIntent{
		Intent:     testIntent(),
		Signatures: []transaction.SignatureWithPublicKey{},
	}}
	notarized := DecompileNotarizedTransactionIntentResponse{transaction.NotarizedIntent{
		SignedIntent:    signed.SignedIntent,
		NotarySignature: transaction.Signature{Curve: transaction.CurveEd25519, Signature: bytes.Repeat([]byte{2}, 64)},
	}}

	tests := []struct {
		name string
		v    any
		kind IntentKind
	}{
		{"intent", intent, IntentUnsigned},
		{"signed", signed, IntentSigned},
		{"notarized", notarized, IntentNotarized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			require.NoError(t, err)

			var r DecompileUnknownTransactionIntentResponse
			require.NoError(t, json.Unmarshal(data, &r))
			assert.Equal(t, tt.kind, r.Kind())

			again, err := json.Marshal(r)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}

	var r DecompileUnknownTransactionIntentResponse
	err := json.Unmarshal([]byte(`{"something":"else"}`), &r)
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagUnrecognizedCompiledIntentFormat})

	_, err = json.Marshal(DecompileUnknownTransactionIntentResponse{})
	assert.Error(t, err)
}

func TestOperations(t *testing.T) {
	ops := Operations()
	assert.Len(t, ops, 13)
	for _, op := range ops {
		assert.True(t, op.Known(), op)
	}
	assert.False(t, Operation("compile_manifest").Known())
	assert.Equal(t, "sbor_decode", OpSBORDecode.String())
}
