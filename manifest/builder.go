package manifest

import (
	"fmt"
	"math"
	"strconv"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
	"github.com/wippyai/transaction-toolkit/instruction"
	"github.com/wippyai/transaction-toolkit/value"
)

// FormatAmount renders x as a plain decimal string: no exponent, no digit
// grouping and no locale. 1e21 becomes "1000000000000000000000". NaN and
// the infinities have no decimal form and come out as "NaN", "+Inf" and
// "-Inf".
func FormatAmount(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// Builder accumulates manifest instructions in order. Each method appends
// exactly one instruction and returns the builder for chaining. No
// validation happens here; the manifest compiler owns bucket and proof
// lifecycle checks. The one exception is amounts: an amount that is NaN or
// infinite is still appended, and the first one is reported by Err.
type Builder struct {
	instructions instruction.List
	err          error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// amount converts x to a Decimal, remembering the first non-finite amount.
func (b *Builder) amount(x float64) value.Decimal {
	if (math.IsNaN(x) || math.IsInf(x, 0)) && b.err == nil {
		b.err = errors.InvalidInput(errors.PhaseValidate,
			fmt.Sprintf("instruction %d: amount %v is not a finite number", len(b.instructions), x))
	}
	return value.NewDecimal(FormatAmount(x))
}

// Err returns the first invalid amount passed to the builder, or nil.
// Build and Manifest do not check it.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) add(i instruction.Instruction) *Builder {
	b.instructions = append(b.instructions, i)
	return b
}

func (b *Builder) CallFunction(packageAddress, blueprintName, functionName string, args ...value.Value) *Builder {
	return b.add(&instruction.CallFunction{
		PackageAddress: value.NewPackageAddress(packageAddress),
		BlueprintName:  value.String{Value: blueprintName},
		FunctionName:   value.String{Value: functionName},
		Arguments:      args,
	})
}

func (b *Builder) CallMethod(componentAddress, methodName string, args ...value.Value) *Builder {
	return b.add(&instruction.CallMethod{
		ComponentAddress: value.NewComponentAddress(componentAddress),
		MethodName:       value.String{Value: methodName},
		Arguments:        args,
	})
}

func (b *Builder) CallMethodWithAllResources(componentAddress, methodName string) *Builder {
	return b.add(&instruction.CallMethodWithAllResources{
		ComponentAddress: value.NewComponentAddress(componentAddress),
		MethodName:       value.String{Value: methodName},
	})
}

func (b *Builder) TakeFromWorktop(resourceAddress string, bucket value.Identifier) *Builder {
	return b.add(&instruction.TakeFromWorktop{
		ResourceAddress: value.NewResourceAddress(resourceAddress),
		IntoBucket:      value.NewBucket(bucket),
	})
}

func (b *Builder) TakeFromWorktopByAmount(amount float64, resourceAddress string, bucket value.Identifier) *Builder {
	return b.add(&instruction.TakeFromWorktopByAmount{
		Amount:          b.amount(amount),
		ResourceAddress: value.NewResourceAddress(resourceAddress),
		IntoBucket:      value.NewBucket(bucket),
	})
}

func (b *Builder) TakeFromWorktopByIDs(ids []string, resourceAddress string, bucket value.Identifier) *Builder {
	return b.add(&instruction.TakeFromWorktopByIDs{
		IDs:             nonFungibleIDs(ids),
		ResourceAddress: value.NewResourceAddress(resourceAddress),
		IntoBucket:      value.NewBucket(bucket),
	})
}

func (b *Builder) ReturnToWorktop(bucket value.Identifier) *Builder {
	return b.add(&instruction.ReturnToWorktop{Bucket: value.NewBucket(bucket)})
}

func (b *Builder) AssertWorktopContains(resourceAddress string) *Builder {
	return b.add(&instruction.AssertWorktopContains{
		ResourceAddress: value.NewResourceAddress(resourceAddress),
	})
}

func (b *Builder) AssertWorktopContainsByAmount(amount float64, resourceAddress string) *Builder {
	return b.add(&instruction.AssertWorktopContainsByAmount{
		Amount:          b.amount(amount),
		ResourceAddress: value.NewResourceAddress(resourceAddress),
	})
}

func (b *Builder) AssertWorktopContainsByIDs(ids []string, resourceAddress string) *Builder {
	return b.add(&instruction.AssertWorktopContainsByIDs{
		IDs:             nonFungibleIDs(ids),
		ResourceAddress: value.NewResourceAddress(resourceAddress),
	})
}

func (b *Builder) PopFromAuthZone(proof value.Identifier) *Builder {
	return b.add(&instruction.PopFromAuthZone{IntoProof: value.NewProof(proof)})
}

func (b *Builder) PushToAuthZone(proof value.Identifier) *Builder {
	return b.add(&instruction.PushToAuthZone{Proof: value.NewProof(proof)})
}

func (b *Builder) ClearAuthZone() *Builder {
	return b.add(&instruction.ClearAuthZone{})
}

func (b *Builder) CreateProofFromAuthZone(resourceAddress string, proof value.Identifier) *Builder {
	return b.add(&instruction.CreateProofFromAuthZone{
		ResourceAddress: value.NewResourceAddress(resourceAddress),
		IntoProof:       value.NewProof(proof),
	})
}

func (b *Builder) CreateProofFromAuthZoneByAmount(amount float64, resourceAddress string, proof value.Identifier) *Builder {
	return b.add(&instruction.CreateProofFromAuthZoneByAmount{
		Amount:          b.amount(amount),
		ResourceAddress: value.NewResourceAddress(resourceAddress),
		IntoProof:       value.NewProof(proof),
	})
}

func (b *Builder) CreateProofFromAuthZoneByIDs(ids []string, resourceAddress string, proof value.Identifier) *Builder {
	return b.add(&instruction.CreateProofFromAuthZoneByIDs{
		IDs:             nonFungibleIDs(ids),
		ResourceAddress: value.NewResourceAddress(resourceAddress),
		IntoProof:       value.NewProof(proof),
	})
}

func (b *Builder) CreateProofFromBucket(bucket, proof value.Identifier) *Builder {
	return b.add(&instruction.CreateProofFromBucket{
		Bucket:    value.NewBucket(bucket),
		IntoProof: value.NewProof(proof),
	})
}

func (b *Builder) CloneProof(proof, into value.Identifier) *Builder {
	return b.add(&instruction.CloneProof{
		Proof:     value.NewProof(proof),
		IntoProof: value.NewProof(into),
	})
}

func (b *Builder) DropProof(proof value.Identifier) *Builder {
	return b.add(&instruction.DropProof{Proof: value.NewProof(proof)})
}

func (b *Builder) DropAllProofs() *Builder {
	return b.add(&instruction.DropAllProofs{})
}

// PublishPackage references the package code and ABI by their blob hashes.
// The blobs themselves travel in TransactionManifest.Blobs.
func (b *Builder) PublishPackage(codeHash, abiHash string) *Builder {
	return b.add(&instruction.PublishPackage{
		Code: value.Blob{Hash: codeHash},
		ABI:  value.Blob{Hash: abiHash},
	})
}

// Len returns the number of instructions added so far.
func (b *Builder) Len() int {
	return len(b.instructions)
}

// Build returns a snapshot of the accumulated instructions. The builder is
// not reset and later calls keep appending; earlier snapshots are
// unaffected.
func (b *Builder) Build() instruction.List {
	out := make(instruction.List, len(b.instructions))
	copy(out, b.instructions)
	return out
}

// Manifest returns the accumulated instructions as a JSON-form manifest.
func (b *Builder) Manifest(blobs ...[]byte) TransactionManifest {
	m := TransactionManifest{Instructions: JSON(b.Build())}
	for _, blob := range blobs {
		m.Blobs = append(m.Blobs, txtoolkit.HexBytes(blob))
	}
	return m
}

func nonFungibleIDs(ids []string) []value.Value {
	out := make([]value.Value, len(ids))
	for i, id := range ids {
		out[i] = value.NonFungibleID{Value: id}
	}
	return out
}
