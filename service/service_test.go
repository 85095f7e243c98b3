package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/bridge"
	"github.com/wippyai/transaction-toolkit/bridge/bridgetest"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/manifest"
	"github.com/wippyai/transaction-toolkit/schema"
	"github.com/wippyai/transaction-toolkit/transaction"
	"github.com/wippyai/transaction-toolkit/value"
)

var (
	notaryKey      = txtoolkit.MustParseHex("031c3796382de8e6e7a1aacb069221e43943af8be417d4c8c92dca7c4b07f93969")
	compiledIntent = txtoolkit.MustParseHex("10020000001009000000070107f20a00000000000000000a2000000000000000")
)

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func testIntent() transaction.Intent {
	return transaction.Intent{
		Header: transaction.Header{
			Version:           1,
			NetworkID:         0xF2,
			EndEpochExclusive: 0x20,
			NotaryPublicKey:   notaryKey,
		},
		Manifest: manifest.TransactionManifest{
			Instructions: manifest.Text(`CALL_METHOD ComponentAddress("account_sim1q0") "lock_fee" Decimal("10");`),
		},
	}
}

// fakeLibrary answers every operation the tests use. Compiled forms are
// fixed bytes for the intent and the JSON text for signed and notarized
// intents.
type fakeLibrary struct {
	*bridgetest.Library
	mu     sync.Mutex
	intent *transaction.Intent
}

func newFakeLibrary(version string) *fakeLibrary {
	f := &fakeLibrary{Library: bridgetest.New()}
	f.Handle("information", bridgetest.Static(`{"package_version":"`+version+`"}`))
	f.Handle("compile_transaction_intent", bridgetest.JSON(func(req schema.CompileTransactionIntentRequest) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		intent := req.Intent
		f.intent = &intent
		return schema.CompileTransactionIntentResponse{CompiledIntent: compiledIntent}, nil
	}))
	f.Handle("decompile_transaction_intent", bridgetest.JSON(func(req schema.DecompileTransactionIntentRequest) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.intent == nil || !bytes.Equal(req.CompiledIntent, compiledIntent) {
			return nil, errors.New(errors.PhaseRemote, errors.TagTransactionDecompileError).Message("unknown intent").Build()
		}
		return schema.DecompileTransactionIntentResponse{Intent: *f.intent}, nil
	}))
	f.Handle("decompile_unknown_transaction_intent", bridgetest.JSON(func(req schema.DecompileUnknownTransactionIntentRequest) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.intent == nil {
			return nil, errors.UnrecognizedIntent(errors.PhaseRemote)
		}
		return schema.DecompileTransactionIntentResponse{Intent: *f.intent}, nil
	}))
	f.Handle("compile_signed_transaction_intent", bridgetest.JSON(func(req schema.CompileSignedTransactionIntentRequest) (any, error) {
		return schema.CompileSignedTransactionIntentResponse{CompiledSignedIntent: mustJSON(req)}, nil
	}))
	f.Handle("compile_notarized_transaction_intent", bridgetest.JSON(func(req schema.CompileNotarizedTransactionIntentRequest) (any, error) {
		return schema.CompileNotarizedTransactionIntentResponse{CompiledNotarizedIntent: mustJSON(req)}, nil
	}))
	f.Handle("decode_address", bridgetest.Static(`{"error":"AddressError","value":"invalid checksum"}`))
	f.Handle("encode_address", bridgetest.Static(`{"type":"ResourceAddress","address":"resource_sim1qq"}`))
	return f
}

func newTestService(t *testing.T, lib *fakeLibrary, cfg *Config) *Service {
	t.Helper()
	s, err := NewWithInvoker(context.Background(), bridge.New(lib), cfg)
	require.NoError(t, err)
	return s
}

func TestService_CompileDecompileRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := newFakeLibrary("0.5.0")
	s := newTestService(t, lib, nil)

	intent := testIntent()
	compiled, err := s.CompileTransactionIntent(ctx, schema.CompileTransactionIntentRequest{Intent: intent})
	require.NoError(t, err)
	assert.Equal(t, compiledIntent, compiled.CompiledIntent)

	decompiled, err := s.DecompileTransactionIntent(ctx, schema.DecompileTransactionIntentRequest{
		CompiledIntent:                   compiled.CompiledIntent,
		ManifestInstructionsOutputFormat: manifest.KindString,
	})
	require.NoError(t, err)
	assert.Equal(t, intent.Header, decompiled.Header)
	assert.Equal(t, intent.Manifest, decompiled.Manifest)

	unknown, err := s.DecompileUnknownTransactionIntent(ctx, schema.DecompileUnknownTransactionIntentRequest{
		CompiledUnknownIntent:            compiled.CompiledIntent,
		ManifestInstructionsOutputFormat: manifest.KindJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, schema.IntentUnsigned, unknown.Kind())
	assert.Equal(t, intent, unknown.Intent.Intent)

	assert.Empty(t, lib.Allocator().Live())
	assert.Len(t, lib.Allocator().Frees(), 6)
}

func TestService_ValidationBeforeCall(t *testing.T) {
	ctx := context.Background()
	lib := newFakeLibrary("0.5.0")
	s := newTestService(t, lib, nil)

	intent := testIntent()
	intent.Header.Version = 2
	_, err := s.CompileTransactionIntent(ctx, schema.CompileTransactionIntentRequest{Intent: intent})
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagUnsupportedTransactionVersion, Phase: errors.PhaseValidate})

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, "compile_transaction_intent", e.Path[0])
	assert.Empty(t, lib.Calls())

	_, err = s.DecompileTransactionIntent(ctx, schema.DecompileTransactionIntentRequest{
		CompiledIntent:                   compiledIntent,
		ManifestInstructionsOutputFormat: "Binary",
	})
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagUnexpectedContents})
	assert.Empty(t, lib.Calls())

	s = newTestService(t, lib, &Config{SkipValidation: true})
	_, err = s.CompileTransactionIntent(ctx, schema.CompileTransactionIntentRequest{Intent: intent})
	require.NoError(t, err)
	assert.Equal(t, []string{"compile_transaction_intent"}, lib.Calls())
}

func TestService_RemoteErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newFakeLibrary("0.5.0"), nil)

	_, err := s.DecodeAddress(ctx, schema.DecodeAddressRequest{Address: "account_sim1bad"})
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.TagAddressError, e.Tag)
	assert.Equal(t, errors.PhaseRemote, e.Phase)
	assert.Equal(t, "invalid checksum", e.Message)
	assert.Equal(t, []string{"decode_address"}, e.Path)

	_, err = s.DecompileTransactionIntent(ctx, schema.DecompileTransactionIntentRequest{
		CompiledIntent:                   []byte{0xff},
		ManifestInstructionsOutputFormat: manifest.KindJSON,
	})
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagTransactionDecompileError})

	_, err = s.DecompileUnknownTransactionIntent(ctx, schema.DecompileUnknownTransactionIntentRequest{
		CompiledUnknownIntent:            []byte{0xff},
		ManifestInstructionsOutputFormat: manifest.KindJSON,
	})
	assert.ErrorIs(t, err, &errors.Error{Tag: errors.TagUnrecognizedCompiledIntentFormat})

	_, err = s.SBORDecode(ctx, schema.SBORDecodeRequest{EncodedValue: []byte{0x10}, NetworkID: 0xF2})
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindNotFound})

	addr, err := s.EncodeAddress(ctx, schema.EncodeAddressRequest{AddressBytes: []byte{1, 2}, NetworkID: 0xF2})
	require.NoError(t, err)
	assert.Equal(t, value.KindResourceAddress, addr.Address.Kind())
}

func TestService_VersionGate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		library    string
		constraint string
		want       *errors.Error
	}{
		{"bare version", "0.5.0", "0.5.0", nil},
		{"range", "0.5.3", ">= 0.5, < 0.6", nil},
		{"too old", "0.4.1", ">= 0.5.0", &errors.Error{Kind: errors.KindUnsupported}},
		{"bad constraint", "0.5.0", "not a version", &errors.Error{Kind: errors.KindInvalidInput}},
		{"bad package version", "dev", "0.5.0", &errors.Error{Kind: errors.KindInvalidData}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := newFakeLibrary(tt.library)
			s, err := NewWithInvoker(ctx, bridge.New(lib), &Config{MinVersion: tt.constraint})
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s.Version())
			assert.Equal(t, tt.library, s.Version().String())
		})
	}

	s := newTestService(t, newFakeLibrary("0.5.0"), nil)
	assert.Nil(t, s.Version())
}

func TestService_SignAndNotarize(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t, newFakeLibrary("0.5.0"), nil)

	ecdsaSigner, err := transaction.GenerateEcdsaSigner()
	require.NoError(t, err)
	edSigner, err := transaction.GenerateEd25519Signer(rand.Reader)
	require.NoError(t, err)
	notary, err := transaction.GenerateEd25519Signer(rand.Reader)
	require.NoError(t, err)

	signed, err := s.Sign(ctx, testIntent(), ecdsaSigner, edSigner)
	require.NoError(t, err)
	require.Len(t, signed.Signatures, 2)

	pub, err := transaction.Verify(compiledIntent, signed.Signatures[0])
	require.NoError(t, err)
	assert.Equal(t, ecdsaSigner.PublicKey(), pub)
	_, err = transaction.Verify(compiledIntent, signed.Signatures[1])
	require.NoError(t, err)

	notarized, compiled, err := s.Notarize(ctx, signed, notary)
	require.NoError(t, err)
	assert.NotEmpty(t, compiled)
	assert.Equal(t, transaction.CurveEd25519, notarized.NotarySignature.Curve)

	compiledSigned := mustJSON(schema.CompileSignedTransactionIntentRequest{SignedIntent: signed})
	_, err = transaction.Verify(compiledSigned, transaction.SignatureWithPublicKey{
		Curve:     notarized.NotarySignature.Curve,
		Signature: notarized.NotarySignature.Signature,
		PublicKey: notary.PublicKey(),
	})
	assert.NoError(t, err)
}

func TestService_CallRaw(t *testing.T) {
	s := newTestService(t, newFakeLibrary("0.5.0"), nil)
	out, err := s.CallRaw(context.Background(), "information", []byte("{}"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"package_version":"0.5.0"}`, string(out))
}

func TestNewFromFile_Missing(t *testing.T) {
	_, err := NewFromFile(context.Background(), "testdata/does-not-exist.wasm", nil)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad})
}

func TestNew_InvalidModule(t *testing.T) {
	_, err := New(context.Background(), []byte("definitely not wasm"), nil)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad})
}
