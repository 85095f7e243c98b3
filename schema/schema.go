package schema

import (
	"encoding/json"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/manifest"
	"github.com/wippyai/transaction-toolkit/transaction"
	"github.com/wippyai/transaction-toolkit/value"
)

type InformationRequest struct{}

type InformationResponse struct {
	PackageVersion string `json:"package_version"`
	LastCommitHash string `json:"last_commit_hash,omitempty"`
}

type ConvertManifestRequest struct {
	TransactionVersion               uint8                        `json:"transaction_version"`
	NetworkID                        uint8                        `json:"network_id"`
	ManifestInstructionsOutputFormat manifest.InstructionsKind    `json:"manifest_instructions_output_format"`
	Manifest                         manifest.TransactionManifest `json:"manifest"`
}

func (r ConvertManifestRequest) Validate() error {
	if r.TransactionVersion != transaction.SupportedVersion {
		return errors.UnsupportedVersion(errors.PhaseValidate, r.TransactionVersion)
	}
	if err := validFormat(r.ManifestInstructionsOutputFormat); err != nil {
		return err
	}
	return errors.WithPath(r.Manifest.Validate(), "manifest")
}

type ConvertManifestResponse struct {
	manifest.TransactionManifest
}

type CompileTransactionIntentRequest struct {
	transaction.Intent
}

type CompileTransactionIntentResponse struct {
	CompiledIntent txtoolkit.HexBytes `json:"compiled_intent"`
}

type DecompileTransactionIntentRequest struct {
	CompiledIntent                   txtoolkit.HexBytes        `json:"compiled_intent"`
	ManifestInstructionsOutputFormat manifest.InstructionsKind `json:"manifest_instructions_output_format"`
}

func (r DecompileTransactionIntentRequest) Validate() error {
	return validFormat(r.ManifestInstructionsOutputFormat)
}

type DecompileTransactionIntentResponse struct {
	transaction.Intent
}

type CompileSignedTransactionIntentRequest struct {
	transaction.SignedIntent
}

type CompileSignedTransactionIntentResponse struct {
	CompiledSignedIntent txtoolkit.HexBytes `json:"compiled_signed_intent"`
}

type DecompileSignedTransactionIntentRequest struct {
	CompiledSignedIntent             txtoolkit.HexBytes        `json:"compiled_signed_intent"`
	ManifestInstructionsOutputFormat manifest.InstructionsKind `json:"manifest_instructions_output_format"`
}

func (r DecompileSignedTransactionIntentRequest) Validate() error {
	return validFormat(r.ManifestInstructionsOutputFormat)
}

type DecompileSignedTransactionIntentResponse struct {
	transaction.SignedIntent
}

type CompileNotarizedTransactionIntentRequest struct {
	transaction.NotarizedIntent
}

type CompileNotarizedTransactionIntentResponse struct {
	CompiledNotarizedIntent txtoolkit.HexBytes `json:"compiled_notarized_intent"`
}

type DecompileNotarizedTransactionIntentRequest struct {
	CompiledNotarizedIntent          txtoolkit.HexBytes        `json:"compiled_notarized_intent"`
	ManifestInstructionsOutputFormat manifest.InstructionsKind `json:"manifest_instructions_output_format"`
}

func (r DecompileNotarizedTransactionIntentRequest) Validate() error {
	return validFormat(r.ManifestInstructionsOutputFormat)
}

type DecompileNotarizedTransactionIntentResponse struct {
	transaction.NotarizedIntent
}

type DecompileUnknownTransactionIntentRequest struct {
	CompiledUnknownIntent            txtoolkit.HexBytes        `json:"compiled_unknown_intent"`
	ManifestInstructionsOutputFormat manifest.InstructionsKind `json:"manifest_instructions_output_format"`
}

func (r DecompileUnknownTransactionIntentRequest) Validate() error {
	return validFormat(r.ManifestInstructionsOutputFormat)
}

type EncodeAddressRequest struct {
	AddressBytes txtoolkit.HexBytes `json:"address_bytes"`
	NetworkID    uint8              `json:"network_id"`
}

// EncodeAddressResponse is the encoded address tagged with its kind, the
// same shape as an address value.
type EncodeAddressResponse struct {
	Address value.Address
}

func (r EncodeAddressResponse) MarshalJSON() ([]byte, error) {
	return r.Address.MarshalJSON()
}

func (r *EncodeAddressResponse) UnmarshalJSON(data []byte) error {
	v, err := value.Unmarshal(data)
	if err != nil {
		return err
	}
	addr, ok := v.(value.Address)
	if !ok {
		return errors.UnexpectedContents(errors.PhaseDecode, []string{"type"}, "Address",
			[]string{
				string(value.KindComponentAddress),
				string(value.KindResourceAddress),
				string(value.KindPackageAddress),
			}, string(v.Kind()))
	}
	r.Address = addr
	return nil
}

type DecodeAddressRequest struct {
	Address string `json:"address"`
}

type DecodeAddressResponse struct {
	NetworkID   uint8              `json:"network_id"`
	NetworkName string             `json:"network_name"`
	EntityType  string             `json:"entity_type"`
	Data        txtoolkit.HexBytes `json:"data"`
	HRP         string             `json:"hrp"`
}

type SBOREncodeRequest struct {
	Value value.Box `json:"value"`
}

func (r SBOREncodeRequest) Validate() error {
	if r.Value.Value == nil {
		return errors.FieldMissing(errors.PhaseValidate, []string{string(OpSBOREncode)}, "value")
	}
	return errors.WithPath(value.Validate(r.Value.Value), "value")
}

type SBOREncodeResponse struct {
	EncodedValue txtoolkit.HexBytes `json:"encoded_value"`
}

type SBORDecodeRequest struct {
	EncodedValue txtoolkit.HexBytes `json:"encoded_value"`
	NetworkID    uint8              `json:"network_id"`
}

type SBORDecodeResponse struct {
	Value value.Box `json:"value"`
}

func validFormat(k manifest.InstructionsKind) error {
	if !k.Valid() {
		return errors.UnexpectedContents(errors.PhaseValidate, []string{"manifest_instructions_output_format"},
			"ManifestInstructionsKind", []string{string(manifest.KindString), string(manifest.KindJSON)}, string(k))
	}
	return nil
}

// Validator is implemented by requests that can be checked before they are
// sent to the library.
type Validator interface {
	Validate() error
}

var (
	_ Validator = ConvertManifestRequest{}
	_ Validator = CompileTransactionIntentRequest{}
	_ Validator = CompileSignedTransactionIntentRequest{}
	_ Validator = CompileNotarizedTransactionIntentRequest{}
	_ Validator = DecompileTransactionIntentRequest{}
	_ Validator = DecompileSignedTransactionIntentRequest{}
	_ Validator = DecompileNotarizedTransactionIntentRequest{}
	_ Validator = DecompileUnknownTransactionIntentRequest{}
	_ Validator = SBOREncodeRequest{}

	_ json.Unmarshaler = (*EncodeAddressResponse)(nil)
)
