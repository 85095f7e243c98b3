package transaction

import (
	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/manifest"
)

// SupportedVersion is the only transaction version the library accepts.
const SupportedVersion uint8 = 1

// Header is the transaction header. It is small and passed by value.
type Header struct {
	Version             uint8              `json:"version"`
	NetworkID           uint8              `json:"network_id"`
	StartEpochInclusive uint64             `json:"start_epoch_inclusive"`
	EndEpochExclusive   uint64             `json:"end_epoch_exclusive"`
	Nonce               uint64             `json:"nonce"`
	NotaryPublicKey     txtoolkit.HexBytes `json:"notary_public_key"`
	NotaryAsSignatory   bool               `json:"notary_as_signatory"`
	CostUnitLimit       uint32             `json:"cost_unit_limit"`
	TipPercentage       uint32             `json:"tip_percentage"`
}

// Validate rejects headers the library would refuse before compiling them.
func (h Header) Validate() error {
	if h.Version != SupportedVersion {
		return errors.UnsupportedVersion(errors.PhaseValidate, h.Version)
	}
	if h.EndEpochExclusive <= h.StartEpochInclusive {
		return errors.New(errors.PhaseValidate, errors.TagDeserializationError).
			Kind(errors.KindInvalidInput).
			Path("header", "end_epoch_exclusive").
			Message("end epoch %d must be after start epoch %d", h.EndEpochExclusive, h.StartEpochInclusive).
			Build()
	}
	if len(h.NotaryPublicKey) == 0 {
		return errors.FieldMissing(errors.PhaseValidate, []string{"header"}, "notary_public_key")
	}
	return nil
}

// Intent is a header plus the manifest it authorizes.
type Intent struct {
	Header   Header                       `json:"header"`
	Manifest manifest.TransactionManifest `json:"manifest"`
}

// Validate checks the header and the manifest's instruction operands.
func (i Intent) Validate() error {
	if err := i.Header.Validate(); err != nil {
		return err
	}
	return errors.WithPath(i.Manifest.Validate(), "manifest")
}

// SignedIntent is an intent with the signatures of its signers.
type SignedIntent struct {
	Intent     Intent                   `json:"transaction_intent"`
	Signatures []SignatureWithPublicKey `json:"signatures"`
}

func (s SignedIntent) Validate() error {
	if err := s.Intent.Validate(); err != nil {
		return errors.WithPath(err, "transaction_intent")
	}
	for _, sig := range s.Signatures {
		if err := sig.validate(); err != nil {
			return errors.WithPath(err, "signatures")
		}
	}
	return nil
}

// NotarizedIntent is a signed intent sealed by the notary.
type NotarizedIntent struct {
	SignedIntent    SignedIntent `json:"signed_intent"`
	NotarySignature Signature    `json:"notary_signature"`
}

func (n NotarizedIntent) Validate() error {
	if err := n.SignedIntent.Validate(); err != nil {
		return errors.WithPath(err, "signed_intent")
	}
	return errors.WithPath(n.NotarySignature.validate(), "notary_signature")
}
