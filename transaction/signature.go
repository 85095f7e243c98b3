package transaction

import (
	"encoding/json"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

// Curve identifies the signature scheme.
type Curve string

const (
	CurveEcdsa   Curve = "Ecdsa"
	CurveEd25519 Curve = "Ed25519"
)

const (
	// EcdsaSignatureSize is a recoverable secp256k1 signature: recovery
	// id followed by r and s.
	EcdsaSignatureSize   = 65
	Ed25519SignatureSize = 64
)

func (c Curve) signatureSize() int {
	switch c {
	case CurveEcdsa:
		return EcdsaSignatureSize
	case CurveEd25519:
		return Ed25519SignatureSize
	}
	return 0
}

func (c *Curve) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}
	switch Curve(s) {
	case CurveEcdsa, CurveEd25519:
		*c = Curve(s)
		return nil
	}
	return errors.UnexpectedContents(errors.PhaseDecode, []string{"type"}, "Curve",
		[]string{string(CurveEcdsa), string(CurveEd25519)}, s)
}

// Signature is a bare signature, used for the notary.
type Signature struct {
	Curve     Curve              `json:"type"`
	Signature txtoolkit.HexBytes `json:"signature"`
}

func (s Signature) validate() error {
	if want := s.Curve.signatureSize(); len(s.Signature) != want {
		return errors.InvalidInput(errors.PhaseValidate,
			"signature of curve "+string(s.Curve)+" has wrong length")
	}
	return nil
}

// SignatureWithPublicKey is an intent signature. Ecdsa signatures are
// recoverable, so their public key is not sent.
type SignatureWithPublicKey struct {
	Curve     Curve
	PublicKey txtoolkit.HexBytes
	Signature txtoolkit.HexBytes
}

func (s SignatureWithPublicKey) MarshalJSON() ([]byte, error) {
	if s.Curve == CurveEcdsa {
		return json.Marshal(Signature{Curve: s.Curve, Signature: s.Signature})
	}
	return json.Marshal(struct {
		Curve     Curve              `json:"type"`
		PublicKey txtoolkit.HexBytes `json:"public_key"`
		Signature txtoolkit.HexBytes `json:"signature"`
	}{s.Curve, s.PublicKey, s.Signature})
}

func (s *SignatureWithPublicKey) UnmarshalJSON(data []byte) error {
	var raw struct {
		Curve     *Curve             `json:"type"`
		PublicKey txtoolkit.HexBytes `json:"public_key"`
		Signature txtoolkit.HexBytes `json:"signature"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		if e, ok := err.(*errors.Error); ok {
			return e
		}
		return errors.Deserialization(errors.PhaseDecode, nil, err)
	}
	if raw.Curve == nil {
		return errors.FieldMissing(errors.PhaseDecode, []string{"SignatureWithPublicKey"}, "type")
	}
	if raw.Signature == nil {
		return errors.FieldMissing(errors.PhaseDecode, []string{string(*raw.Curve)}, "signature")
	}
	if *raw.Curve == CurveEd25519 && raw.PublicKey == nil {
		return errors.FieldMissing(errors.PhaseDecode, []string{string(*raw.Curve)}, "public_key")
	}
	*s = SignatureWithPublicKey{Curve: *raw.Curve, PublicKey: raw.PublicKey, Signature: raw.Signature}
	if s.Curve == CurveEcdsa {
		s.PublicKey = nil
	}
	return nil
}

func (s SignatureWithPublicKey) validate() error {
	if err := (Signature{Curve: s.Curve, Signature: s.Signature}).validate(); err != nil {
		return err
	}
	if s.Curve == CurveEd25519 && len(s.PublicKey) != 32 {
		return errors.InvalidInput(errors.PhaseValidate, "Ed25519 public key must be 32 bytes")
	}
	return nil
}
