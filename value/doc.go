// Package value implements the ledger value model exchanged with the
// transaction library.
//
// A Value is one of a closed set of concrete types, each serialized as a
// JSON object tagged by "type". Integer and decimal magnitudes travel as
// decimal strings so that 64 and 128 bit quantities are never rounded
// through a float.
//
//	v := value.Struct{Fields: []value.Value{
//		value.NewU32(7),
//		value.NewDecimal("12.5"),
//		value.NewBucket(value.ID("xrd_bucket")),
//	}}
//	data, _ := value.Marshal(v)
//	back, err := value.Unmarshal(data)
//
// Unmarshal rejects unknown kinds with UnexpectedContents, malformed numeric
// payloads with ParseError, and missing fields with DeserializationError.
// Validate additionally checks that collection and map elements match their
// declared kinds.
package value
