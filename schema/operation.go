package schema

// Operation is the name of a function exported by the transaction library.
type Operation string

const (
	OpInformation                         Operation = "information"
	OpConvertManifest                     Operation = "convert_manifest"
	OpCompileTransactionIntent            Operation = "compile_transaction_intent"
	OpDecompileTransactionIntent          Operation = "decompile_transaction_intent"
	OpCompileSignedTransactionIntent      Operation = "compile_signed_transaction_intent"
	OpDecompileSignedTransactionIntent    Operation = "decompile_signed_transaction_intent"
	OpCompileNotarizedTransactionIntent   Operation = "compile_notarized_transaction_intent"
	OpDecompileNotarizedTransactionIntent Operation = "decompile_notarized_transaction_intent"
	OpDecompileUnknownTransactionIntent   Operation = "decompile_unknown_transaction_intent"
	OpEncodeAddress                       Operation = "encode_address"
	OpDecodeAddress                       Operation = "decode_address"
	OpSBOREncode                          Operation = "sbor_encode"
	OpSBORDecode                          Operation = "sbor_decode"
)

var operations = []Operation{
	OpInformation,
	OpConvertManifest,
	OpCompileTransactionIntent,
	OpDecompileTransactionIntent,
	OpCompileSignedTransactionIntent,
	OpDecompileSignedTransactionIntent,
	OpCompileNotarizedTransactionIntent,
	OpDecompileNotarizedTransactionIntent,
	OpDecompileUnknownTransactionIntent,
	OpEncodeAddress,
	OpDecodeAddress,
	OpSBOREncode,
	OpSBORDecode,
}

// Operations lists every exported operation in a stable order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Known reports whether op is exported by the library.
func (op Operation) Known() bool {
	for _, o := range operations {
		if o == op {
			return true
		}
	}
	return false
}

func (op Operation) String() string { return string(op) }
