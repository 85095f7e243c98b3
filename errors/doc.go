// Package errors provides structured error types for the transaction toolkit.
//
// Every error carries a Tag from the transaction library's taxonomy, so a
// failure reported by the WASM module and one detected locally look the
// same to callers. On top of the tag, errors keep local context: the Phase
// where the failure happened, a Kind category, a field path and a cause.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.TagDeserializationError).
//		Kind(errors.KindFieldMissing).
//		Path("CALL_METHOD", "method_name").
//		Message("missing field %q", "method_name").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidType(errors.PhaseValidate, path, "Decimal", "String")
//	err := errors.UnsupportedVersion(errors.PhaseValidate, 2)
//
// Errors round-trip through the wire form {"error": Tag, "value": payload}
// with MarshalJSON/UnmarshalJSON; local context is not serialized.
// All errors implement the standard error interface and support errors.Is/As.
package errors
