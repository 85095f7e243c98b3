// Package instruction models transaction manifest instructions.
//
// Each instruction is a pointer type whose operands are value.Value
// instances, serialized as a JSON object tagged by "instruction" with a
// SCREAMING_SNAKE_CASE name:
//
//	{"instruction":"RETURN_TO_WORKTOP","bucket":{"type":"Bucket","identifier":"b1"}}
//
// Unmarshal checks that every required operand is present. Validate checks
// operand kinds. Neither looks across instructions: bucket and proof
// lifecycles are enforced by the manifest compiler.
package instruction
