package transaction

import (
	"io"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/minio/sha256-simd"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

// compactRecoveryBase is the header byte offset decred uses for compact
// signatures over compressed public keys.
const compactRecoveryBase = 27 + 4

// HashCompiled returns SHA256(SHA256(compiled)), the digest every
// signature over a compiled intent commits to.
func HashCompiled(compiled []byte) [32]byte {
	first := sha256.Sum256(compiled)
	return sha256.Sum256(first[:])
}

// Signer signs compiled intents.
type Signer interface {
	Curve() Curve
	PublicKey() txtoolkit.HexBytes
	// Sign signs the double hash of compiled.
	Sign(compiled []byte) (txtoolkit.HexBytes, error)
}

// EcdsaSigner produces recoverable secp256k1 signatures laid out as
// [recovery id || r || s].
type EcdsaSigner struct {
	key *secp256k1.PrivateKey
}

// NewEcdsaSigner loads a 32-byte secp256k1 private key.
func NewEcdsaSigner(privateKey []byte) (*EcdsaSigner, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return nil, errors.InvalidInput(errors.PhaseValidate, "secp256k1 private key must be 32 bytes")
	}
	return &EcdsaSigner{key: secp256k1.PrivKeyFromBytes(privateKey)}, nil
}

// GenerateEcdsaSigner creates a signer with a fresh random key.
func GenerateEcdsaSigner() (*EcdsaSigner, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &EcdsaSigner{key: key}, nil
}

func (s *EcdsaSigner) Curve() Curve { return CurveEcdsa }

// PublicKey returns the 33-byte compressed public key.
func (s *EcdsaSigner) PublicKey() txtoolkit.HexBytes {
	return s.key.PubKey().SerializeCompressed()
}

func (s *EcdsaSigner) Sign(compiled []byte) (txtoolkit.HexBytes, error) {
	digest := HashCompiled(compiled)
	sig := ecdsa.SignCompact(s.key, digest[:], true)
	sig[0] -= compactRecoveryBase
	return sig, nil
}

// Ed25519Signer signs with an Ed25519 key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

// NewEd25519Signer derives a signer from a 32-byte seed.
func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.InvalidInput(errors.PhaseValidate, "ed25519 seed must be 32 bytes")
	}
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// GenerateEd25519Signer creates a signer with a key read from rand.
func GenerateEd25519Signer(rand io.Reader) (*Ed25519Signer, error) {
	_, key, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: key}, nil
}

func (s *Ed25519Signer) Curve() Curve { return CurveEd25519 }

func (s *Ed25519Signer) PublicKey() txtoolkit.HexBytes {
	pub := s.key.Public().(ed25519.PublicKey)
	return txtoolkit.HexBytes(pub)
}

func (s *Ed25519Signer) Sign(compiled []byte) (txtoolkit.HexBytes, error) {
	digest := HashCompiled(compiled)
	return ed25519.Sign(s.key, digest[:]), nil
}

// SignIntent signs a compiled intent for inclusion in a SignedIntent.
func SignIntent(s Signer, compiledIntent []byte) (SignatureWithPublicKey, error) {
	sig, err := s.Sign(compiledIntent)
	if err != nil {
		return SignatureWithPublicKey{}, err
	}
	out := SignatureWithPublicKey{Curve: s.Curve(), Signature: sig}
	if s.Curve() == CurveEd25519 {
		out.PublicKey = s.PublicKey()
	}
	return out, nil
}

// Notarize signs a compiled signed intent on behalf of the notary.
func Notarize(notary Signer, compiledSignedIntent []byte) (Signature, error) {
	sig, err := notary.Sign(compiledSignedIntent)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Curve: notary.Curve(), Signature: sig}, nil
}

// Verify checks sig over compiled. Ecdsa signatures are checked by
// recovering the signer and comparing it with the key carried in sig, when
// there is one. The recovered key is returned in compressed form.
func Verify(compiled []byte, sig SignatureWithPublicKey) (txtoolkit.HexBytes, error) {
	digest := HashCompiled(compiled)

	switch sig.Curve {
	case CurveEcdsa:
		if len(sig.Signature) != EcdsaSignatureSize {
			return nil, errors.InvalidInput(errors.PhaseValidate, "ecdsa signature must be 65 bytes")
		}
		compact := make([]byte, EcdsaSignatureSize)
		copy(compact, sig.Signature)
		compact[0] += compactRecoveryBase
		pub, _, err := ecdsa.RecoverCompact(compact, digest[:])
		if err != nil {
			return nil, errors.Wrap(errors.PhaseValidate, errors.TagInvalidRequestString, errors.KindInvalidData, err, "recover ecdsa public key")
		}
		recovered := txtoolkit.HexBytes(pub.SerializeCompressed())
		if len(sig.PublicKey) > 0 {
			want, err := secp256k1.ParsePubKey(sig.PublicKey)
			if err != nil || !want.IsEqual(pub) {
				return nil, errors.InvalidInput(errors.PhaseValidate, "ecdsa signature does not match public key")
			}
		}
		return recovered, nil

	case CurveEd25519:
		if len(sig.PublicKey) != ed25519.PublicKeySize {
			return nil, errors.InvalidInput(errors.PhaseValidate, "ed25519 public key must be 32 bytes")
		}
		if !ed25519.Verify(ed25519.PublicKey(sig.PublicKey), digest[:], sig.Signature) {
			return nil, errors.InvalidInput(errors.PhaseValidate, "ed25519 signature does not verify")
		}
		return sig.PublicKey, nil
	}

	return nil, errors.UnexpectedContents(errors.PhaseValidate, []string{"type"}, "Curve",
		[]string{string(CurveEcdsa), string(CurveEd25519)}, string(sig.Curve))
}
