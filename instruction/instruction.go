package instruction

import (
	"github.com/wippyai/transaction-toolkit/value"
)

// Name is the wire tag of an instruction.
type Name string

const (
	NameCallFunction               Name = "CALL_FUNCTION"
	NameCallMethod                 Name = "CALL_METHOD"
	NameCallMethodWithAllResources Name = "CALL_METHOD_WITH_ALL_RESOURCES"

	NameTakeFromWorktop         Name = "TAKE_FROM_WORKTOP"
	NameTakeFromWorktopByAmount Name = "TAKE_FROM_WORKTOP_BY_AMOUNT"
	NameTakeFromWorktopByIDs    Name = "TAKE_FROM_WORKTOP_BY_IDS"
	NameReturnToWorktop         Name = "RETURN_TO_WORKTOP"

	NameAssertWorktopContains         Name = "ASSERT_WORKTOP_CONTAINS"
	NameAssertWorktopContainsByAmount Name = "ASSERT_WORKTOP_CONTAINS_BY_AMOUNT"
	NameAssertWorktopContainsByIDs    Name = "ASSERT_WORKTOP_CONTAINS_BY_IDS"

	NamePopFromAuthZone Name = "POP_FROM_AUTH_ZONE"
	NamePushToAuthZone  Name = "PUSH_TO_AUTH_ZONE"
	NameClearAuthZone   Name = "CLEAR_AUTH_ZONE"

	NameCreateProofFromAuthZone         Name = "CREATE_PROOF_FROM_AUTH_ZONE"
	NameCreateProofFromAuthZoneByAmount Name = "CREATE_PROOF_FROM_AUTH_ZONE_BY_AMOUNT"
	NameCreateProofFromAuthZoneByIDs    Name = "CREATE_PROOF_FROM_AUTH_ZONE_BY_IDS"
	NameCreateProofFromBucket           Name = "CREATE_PROOF_FROM_BUCKET"

	NameCloneProof    Name = "CLONE_PROOF"
	NameDropProof     Name = "DROP_PROOF"
	NameDropAllProofs Name = "DROP_ALL_PROOFS"

	NamePublishPackage Name = "PUBLISH_PACKAGE"
)

// Instruction is one manifest instruction. Implementations are the pointer
// types in this package.
type Instruction interface {
	Name() Name
	MarshalJSON() ([]byte, error)
	operands() []operand
}

// operand describes one field of an instruction. Exactly one of one or
// many is set.
type operand struct {
	name     string
	kinds    []value.Kind
	one      *value.Value
	many     *[]value.Value
	optional bool
}

func single(name string, dst *value.Value, kinds ...value.Kind) operand {
	return operand{name: name, kinds: kinds, one: dst}
}

func list(name string, dst *[]value.Value, kinds ...value.Kind) operand {
	return operand{name: name, kinds: kinds, many: dst}
}

var constructors = map[Name]func() Instruction{
	NameCallFunction:                    func() Instruction { return &CallFunction{} },
	NameCallMethod:                      func() Instruction { return &CallMethod{} },
	NameCallMethodWithAllResources:      func() Instruction { return &CallMethodWithAllResources{} },
	NameTakeFromWorktop:                 func() Instruction { return &TakeFromWorktop{} },
	NameTakeFromWorktopByAmount:         func() Instruction { return &TakeFromWorktopByAmount{} },
	NameTakeFromWorktopByIDs:            func() Instruction { return &TakeFromWorktopByIDs{} },
	NameReturnToWorktop:                 func() Instruction { return &ReturnToWorktop{} },
	NameAssertWorktopContains:           func() Instruction { return &AssertWorktopContains{} },
	NameAssertWorktopContainsByAmount:   func() Instruction { return &AssertWorktopContainsByAmount{} },
	NameAssertWorktopContainsByIDs:      func() Instruction { return &AssertWorktopContainsByIDs{} },
	NamePopFromAuthZone:                 func() Instruction { return &PopFromAuthZone{} },
	NamePushToAuthZone:                  func() Instruction { return &PushToAuthZone{} },
	NameClearAuthZone:                   func() Instruction { return &ClearAuthZone{} },
	NameCreateProofFromAuthZone:         func() Instruction { return &CreateProofFromAuthZone{} },
	NameCreateProofFromAuthZoneByAmount: func() Instruction { return &CreateProofFromAuthZoneByAmount{} },
	NameCreateProofFromAuthZoneByIDs:    func() Instruction { return &CreateProofFromAuthZoneByIDs{} },
	NameCreateProofFromBucket:           func() Instruction { return &CreateProofFromBucket{} },
	NameCloneProof:                      func() Instruction { return &CloneProof{} },
	NameDropProof:                       func() Instruction { return &DropProof{} },
	NameDropAllProofs:                   func() Instruction { return &DropAllProofs{} },
	NamePublishPackage:                  func() Instruction { return &PublishPackage{} },
}

var names = []Name{
	NameCallFunction,
	NameCallMethod,
	NameCallMethodWithAllResources,
	NameTakeFromWorktop,
	NameTakeFromWorktopByAmount,
	NameTakeFromWorktopByIDs,
	NameReturnToWorktop,
	NameAssertWorktopContains,
	NameAssertWorktopContainsByAmount,
	NameAssertWorktopContainsByIDs,
	NamePopFromAuthZone,
	NamePushToAuthZone,
	NameClearAuthZone,
	NameCreateProofFromAuthZone,
	NameCreateProofFromAuthZoneByAmount,
	NameCreateProofFromAuthZoneByIDs,
	NameCreateProofFromBucket,
	NameCloneProof,
	NameDropProof,
	NameDropAllProofs,
	NamePublishPackage,
}

// Names returns every instruction name in declaration order.
func Names() []Name {
	out := make([]Name, len(names))
	copy(out, names)
	return out
}

type CallFunction struct {
	PackageAddress value.Value
	BlueprintName  value.Value
	FunctionName   value.Value
	Arguments      []value.Value
}

func (*CallFunction) Name() Name { return NameCallFunction }

func (i *CallFunction) operands() []operand {
	return []operand{
		single("package_address", &i.PackageAddress, value.KindPackageAddress),
		single("blueprint_name", &i.BlueprintName, value.KindString),
		single("function_name", &i.FunctionName, value.KindString),
		{name: "arguments", many: &i.Arguments, optional: true},
	}
}

type CallMethod struct {
	ComponentAddress value.Value
	MethodName       value.Value
	Arguments        []value.Value
}

func (*CallMethod) Name() Name { return NameCallMethod }

func (i *CallMethod) operands() []operand {
	return []operand{
		single("component_address", &i.ComponentAddress, value.KindComponentAddress),
		single("method_name", &i.MethodName, value.KindString),
		{name: "arguments", many: &i.Arguments, optional: true},
	}
}

type CallMethodWithAllResources struct {
	ComponentAddress value.Value
	MethodName       value.Value
}

func (*CallMethodWithAllResources) Name() Name { return NameCallMethodWithAllResources }

func (i *CallMethodWithAllResources) operands() []operand {
	return []operand{
		single("component_address", &i.ComponentAddress, value.KindComponentAddress),
		single("method_name", &i.MethodName, value.KindString),
	}
}

type TakeFromWorktop struct {
	ResourceAddress value.Value
	IntoBucket      value.Value
}

func (*TakeFromWorktop) Name() Name { return NameTakeFromWorktop }

func (i *TakeFromWorktop) operands() []operand {
	return []operand{
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
		single("into_bucket", &i.IntoBucket, value.KindBucket),
	}
}

type TakeFromWorktopByAmount struct {
	Amount          value.Value
	ResourceAddress value.Value
	IntoBucket      value.Value
}

func (*TakeFromWorktopByAmount) Name() Name { return NameTakeFromWorktopByAmount }

func (i *TakeFromWorktopByAmount) operands() []operand {
	return []operand{
		single("amount", &i.Amount, value.KindDecimal),
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
		single("into_bucket", &i.IntoBucket, value.KindBucket),
	}
}

type TakeFromWorktopByIDs struct {
	IDs             []value.Value
	ResourceAddress value.Value
	IntoBucket      value.Value
}

func (*TakeFromWorktopByIDs) Name() Name { return NameTakeFromWorktopByIDs }

func (i *TakeFromWorktopByIDs) operands() []operand {
	return []operand{
		list("ids", &i.IDs, value.KindNonFungibleID),
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
		single("into_bucket", &i.IntoBucket, value.KindBucket),
	}
}

type ReturnToWorktop struct {
	Bucket value.Value
}

func (*ReturnToWorktop) Name() Name { return NameReturnToWorktop }

func (i *ReturnToWorktop) operands() []operand {
	return []operand{single("bucket", &i.Bucket, value.KindBucket)}
}

type AssertWorktopContains struct {
	ResourceAddress value.Value
}

func (*AssertWorktopContains) Name() Name { return NameAssertWorktopContains }

func (i *AssertWorktopContains) operands() []operand {
	return []operand{single("resource_address", &i.ResourceAddress, value.KindResourceAddress)}
}

type AssertWorktopContainsByAmount struct {
	Amount          value.Value
	ResourceAddress value.Value
}

func (*AssertWorktopContainsByAmount) Name() Name { return NameAssertWorktopContainsByAmount }

func (i *AssertWorktopContainsByAmount) operands() []operand {
	return []operand{
		single("amount", &i.Amount, value.KindDecimal),
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
	}
}

type AssertWorktopContainsByIDs struct {
	IDs             []value.Value
	ResourceAddress value.Value
}

func (*AssertWorktopContainsByIDs) Name() Name { return NameAssertWorktopContainsByIDs }

func (i *AssertWorktopContainsByIDs) operands() []operand {
	return []operand{
		list("ids", &i.IDs, value.KindNonFungibleID),
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
	}
}

type PopFromAuthZone struct {
	IntoProof value.Value
}

func (*PopFromAuthZone) Name() Name { return NamePopFromAuthZone }

func (i *PopFromAuthZone) operands() []operand {
	return []operand{single("into_proof", &i.IntoProof, value.KindProof)}
}

type PushToAuthZone struct {
	Proof value.Value
}

func (*PushToAuthZone) Name() Name { return NamePushToAuthZone }

func (i *PushToAuthZone) operands() []operand {
	return []operand{single("proof", &i.Proof, value.KindProof)}
}

type ClearAuthZone struct{}

func (*ClearAuthZone) Name() Name          { return NameClearAuthZone }
func (*ClearAuthZone) operands() []operand { return nil }

type CreateProofFromAuthZone struct {
	ResourceAddress value.Value
	IntoProof       value.Value
}

func (*CreateProofFromAuthZone) Name() Name { return NameCreateProofFromAuthZone }

func (i *CreateProofFromAuthZone) operands() []operand {
	return []operand{
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
		single("into_proof", &i.IntoProof, value.KindProof),
	}
}

type CreateProofFromAuthZoneByAmount struct {
	Amount          value.Value
	ResourceAddress value.Value
	IntoProof       value.Value
}

func (*CreateProofFromAuthZoneByAmount) Name() Name { return NameCreateProofFromAuthZoneByAmount }

func (i *CreateProofFromAuthZoneByAmount) operands() []operand {
	return []operand{
		single("amount", &i.Amount, value.KindDecimal),
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
		single("into_proof", &i.IntoProof, value.KindProof),
	}
}

type CreateProofFromAuthZoneByIDs struct {
	IDs             []value.Value
	ResourceAddress value.Value
	IntoProof       value.Value
}

func (*CreateProofFromAuthZoneByIDs) Name() Name { return NameCreateProofFromAuthZoneByIDs }

func (i *CreateProofFromAuthZoneByIDs) operands() []operand {
	return []operand{
		list("ids", &i.IDs, value.KindNonFungibleID),
		single("resource_address", &i.ResourceAddress, value.KindResourceAddress),
		single("into_proof", &i.IntoProof, value.KindProof),
	}
}

type CreateProofFromBucket struct {
	Bucket    value.Value
	IntoProof value.Value
}

func (*CreateProofFromBucket) Name() Name { return NameCreateProofFromBucket }

func (i *CreateProofFromBucket) operands() []operand {
	return []operand{
		single("bucket", &i.Bucket, value.KindBucket),
		single("into_proof", &i.IntoProof, value.KindProof),
	}
}

type CloneProof struct {
	Proof     value.Value
	IntoProof value.Value
}

func (*CloneProof) Name() Name { return NameCloneProof }

func (i *CloneProof) operands() []operand {
	return []operand{
		single("proof", &i.Proof, value.KindProof),
		single("into_proof", &i.IntoProof, value.KindProof),
	}
}

type DropProof struct {
	Proof value.Value
}

func (*DropProof) Name() Name { return NameDropProof }

func (i *DropProof) operands() []operand {
	return []operand{single("proof", &i.Proof, value.KindProof)}
}

type DropAllProofs struct{}

func (*DropAllProofs) Name() Name          { return NameDropAllProofs }
func (*DropAllProofs) operands() []operand { return nil }

// PublishPackage publishes a package whose code and ABI are supplied as
// blobs referenced by hash.
type PublishPackage struct {
	Code value.Value
	ABI  value.Value
}

func (*PublishPackage) Name() Name { return NamePublishPackage }

func (i *PublishPackage) operands() []operand {
	return []operand{
		single("code", &i.Code, value.KindBlob),
		single("abi", &i.ABI, value.KindBlob),
	}
}
