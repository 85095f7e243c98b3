package transaction

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/manifest"
	"github.com/wippyai/transaction-toolkit/value"
)

var notaryKey = txtoolkit.MustParseHex("031c3796382de8e6e7a1aacb069221e43943af8be417d4c8c92dca7c4b07f93969")

func testHeader() Header {
	return Header{
		Version:             1,
		NetworkID:           0xF2,
		StartEpochInclusive: 0,
		EndEpochExclusive:   0x20,
		Nonce:               0,
		NotaryPublicKey:     notaryKey,
		NotaryAsSignatory:   false,
		CostUnitLimit:       10_000_000,
		TipPercentage:       0,
	}
}

func testIntent() Intent {
	return Intent{
		Header: testHeader(),
		Manifest: manifest.NewBuilder().
			CallMethod("account_sim1q0", "lock_fee", value.NewDecimal("10")).
			ClearAuthZone().
			Manifest(),
	}
}

func TestHashCompiled(t *testing.T) {
	got := HashCompiled(nil)
	assert.Equal(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456", hex.EncodeToString(got[:]))
}

func TestHeader_JSON(t *testing.T) {
	data, err := json.Marshal(testHeader())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": 1,
		"network_id": 242,
		"start_epoch_inclusive": 0,
		"end_epoch_exclusive": 32,
		"nonce": 0,
		"notary_public_key": "031c3796382de8e6e7a1aacb069221e43943af8be417d4c8c92dca7c4b07f93969",
		"notary_as_signatory": false,
		"cost_unit_limit": 10000000,
		"tip_percentage": 0
	}`, string(data))
}

func TestHeader_Validate(t *testing.T) {
	assert.NoError(t, testHeader().Validate())

	h := testHeader()
	h.Version = 2
	var e *errors.Error
	require.ErrorAs(t, h.Validate(), &e)
	assert.Equal(t, errors.TagUnsupportedTransactionVersion, e.Tag)
	assert.Equal(t, uint8(2), e.Version)

	h = testHeader()
	h.EndEpochExclusive = h.StartEpochInclusive
	require.ErrorAs(t, h.Validate(), &e)
	assert.Equal(t, errors.TagDeserializationError, e.Tag)
	assert.Equal(t, errors.KindInvalidInput, e.Kind)

	h = testHeader()
	h.NotaryPublicKey = nil
	assert.ErrorIs(t, h.Validate(), &errors.Error{Kind: errors.KindFieldMissing})
}

func TestSignatureWithPublicKey_JSON(t *testing.T) {
	ecdsaSig := SignatureWithPublicKey{Curve: CurveEcdsa, PublicKey: notaryKey, Signature: bytes.Repeat([]byte{1}, 65)}
	data, err := json.Marshal(ecdsaSig)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "public_key")
	assert.Contains(t, string(data), `"type":"Ecdsa"`)

	var back SignatureWithPublicKey
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Nil(t, back.PublicKey)
	assert.Equal(t, ecdsaSig.Signature, back.Signature)

	edSig := SignatureWithPublicKey{Curve: CurveEd25519, PublicKey: bytes.Repeat([]byte{2}, 32), Signature: bytes.Repeat([]byte{3}, 64)}
	data, err = json.Marshal(edSig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"public_key"`)
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, edSig, back)

	err = json.Unmarshal([]byte(`{"type":"Ed25519","signature":"00"}`), &back)
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindFieldMissing})

	err = json.Unmarshal([]byte(`{"type":"Schnorr","signature":"00"}`), &back)
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagUnexpectedContents})
}

func TestEcdsaSigner(t *testing.T) {
	key, err := hex.DecodeString("0d5666def4fb894f18a5075b261845c044b7e3dd2ba8514b2614dbbb6606c622")
	require.NoError(t, err)
	signer, err := NewEcdsaSigner(key)
	require.NoError(t, err)

	compiled := []byte("compiled intent bytes")
	sig, err := SignIntent(signer, compiled)
	require.NoError(t, err)
	assert.Equal(t, CurveEcdsa, sig.Curve)
	assert.Len(t, sig.Signature, EcdsaSignatureSize)
	assert.LessOrEqual(t, sig.Signature[0], byte(3))
	assert.Nil(t, sig.PublicKey)

	recovered, err := Verify(compiled, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), recovered)

	sig.PublicKey = signer.PublicKey()
	_, err = Verify(compiled, sig)
	assert.NoError(t, err)

	other, err := GenerateEcdsaSigner()
	require.NoError(t, err)
	sig.PublicKey = other.PublicKey()
	_, err = Verify(compiled, sig)
	assert.Error(t, err)

	_, err = NewEcdsaSigner([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEd25519Signer(t *testing.T) {
	signer, err := NewEd25519Signer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	compiled := []byte{0xde, 0xad, 0xbe, 0xef}
	sig, err := SignIntent(signer, compiled)
	require.NoError(t, err)
	assert.Len(t, sig.Signature, Ed25519SignatureSize)
	assert.Equal(t, signer.PublicKey(), sig.PublicKey)

	pub, err := Verify(compiled, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), pub)

	_, err = Verify([]byte{0x00}, sig)
	assert.Error(t, err)

	gen, err := GenerateEd25519Signer(bytes.NewReader(bytes.Repeat([]byte{9}, 64)))
	require.NoError(t, err)
	assert.Len(t, gen.PublicKey(), 32)
}

func TestNotarizedIntent_JSONAndValidate(t *testing.T) {
	signer, err := NewEd25519Signer(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	notary, err := GenerateEcdsaSigner()
	require.NoError(t, err)

	compiledIntent := []byte("intent")
	sig, err := SignIntent(signer, compiledIntent)
	require.NoError(t, err)

	signed := SignedIntent{Intent: testIntent(), Signatures: []SignatureWithPublicKey{sig}}
	notarySig, err := Notarize(notary, []byte("signed intent"))
	require.NoError(t, err)

	n := NotarizedIntent{SignedIntent: signed, NotarySignature: notarySig}
	require.NoError(t, n.Validate())

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var back NotarizedIntent
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, n, back)

	var probe map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &probe))
	assert.Contains(t, probe["signed_intent"], "transaction_intent")
	assert.Contains(t, probe["signed_intent"], "signatures")
	assert.Contains(t, probe["notary_signature"], "type")

	n.NotarySignature.Signature = n.NotarySignature.Signature[:10]
	assert.Error(t, n.Validate())
}

func TestIntent_ValidateManifest(t *testing.T) {
	intent := testIntent()
	intent.Manifest = manifest.TransactionManifest{Instructions: manifest.JSON(manifest.NewBuilder().
		ReturnToWorktop(value.ID("b")).Build())}
	require.NoError(t, intent.Validate())

	intent.Header.Version = 9
	assert.ErrorIs(t, intent.Validate(), &errors.Error{Tag: errors.TagUnsupportedTransactionVersion})
}
