package errors

import (
	"fmt"
	"strings"
)

// Tag is the wire discriminant of an error reported by the transaction
// library. Local failures are mapped onto the same tags.
type Tag string

const (
	TagAddressError                     Tag = "AddressError"
	TagDecodeError                      Tag = "DecodeError"
	TagDeserializationError             Tag = "DeserializationError"
	TagInvalidRequestString             Tag = "InvalidRequestString"
	TagUnexpectedContents               Tag = "UnexpectedContents"
	TagInvalidType                      Tag = "InvalidType"
	TagParseError                       Tag = "ParseError"
	TagTransactionCompileError          Tag = "TransactionCompileError"
	TagTransactionDecompileError        Tag = "TransactionDecompileError"
	TagUnsupportedTransactionVersion    Tag = "UnsupportedTransactionVersion"
	TagGeneratorError                   Tag = "GeneratorError"
	TagRequestResponseConversionError   Tag = "RequestResponseConversionError"
	TagUnrecognizedCompiledIntentFormat Tag = "UnrecognizedCompiledIntentFormat"
)

var knownTags = map[Tag]struct{}{
	TagAddressError:                     {},
	TagDecodeError:                      {},
	TagDeserializationError:             {},
	TagInvalidRequestString:             {},
	TagUnexpectedContents:               {},
	TagInvalidType:                      {},
	TagParseError:                       {},
	TagTransactionCompileError:          {},
	TagTransactionDecompileError:        {},
	TagUnsupportedTransactionVersion:    {},
	TagGeneratorError:                   {},
	TagRequestResponseConversionError:   {},
	TagUnrecognizedCompiledIntentFormat: {},
}

// Known reports whether t is part of the taxonomy.
func (t Tag) Known() bool {
	_, ok := knownTags[t]
	return ok
}

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode   Phase = "encode"   // Go to JSON
	PhaseDecode   Phase = "decode"   // JSON to Go
	PhaseValidate Phase = "validate" // model validation
	PhaseBridge   Phase = "bridge"   // linear memory protocol
	PhaseRemote   Phase = "remote"   // reported by the transaction library
	PhaseRuntime  Phase = "runtime"  // engine operations
	PhaseLoad     Phase = "load"     // module loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindAllocation     Kind = "allocation"
	KindFieldMissing   Kind = "field_missing"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindInvalidVariant Kind = "invalid_variant"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindInstantiation  Kind = "instantiation"
	KindCall           Kind = "call"
	KindRemote         Kind = "remote"
)

// Error is the structured error type used throughout the toolkit.
//
// Tag and the payload fields (Message, ValueKind, Expected, Found,
// ExpectedType, ActualType, Version) form the wire representation. Phase,
// Kind, Path, Detail and Cause are local context and never cross the
// boundary.
type Error struct {
	Cause        error
	Tag          Tag
	Phase        Phase
	Kind         Kind
	Message      string
	ValueKind    string
	Found        string
	ExpectedType string
	ActualType   string
	Detail       string
	Expected     []string
	Path         []string
	Version      uint8
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Tag))
	if e.Kind != "" {
		b.WriteByte('(')
		b.WriteString(string(e.Kind))
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if payload := e.payloadString(); payload != "" {
		b.WriteString(": ")
		b.WriteString(payload)
	}

	if e.Detail != "" && e.Detail != e.Message {
		b.WriteString(" - ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) payloadString() string {
	switch e.Tag {
	case TagUnexpectedContents:
		return fmt.Sprintf("kind %s, expected [%s], found %s",
			e.ValueKind, strings.Join(e.Expected, ", "), e.Found)
	case TagInvalidType:
		return fmt.Sprintf("expected type %s, actual type %s", e.ExpectedType, e.ActualType)
	case TagParseError:
		return fmt.Sprintf("kind %s: %s", e.ValueKind, e.Message)
	case TagUnsupportedTransactionVersion:
		return fmt.Sprintf("version %d", e.Version)
	case TagUnrecognizedCompiledIntentFormat:
		return ""
	default:
		return e.Message
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Empty fields of target act
// as wildcards, so a target carrying only a Tag matches any error with that
// tag.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Tag != "" && t.Tag != e.Tag {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Tag != "" || t.Phase != "" || t.Kind != ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, tag Tag) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Tag:   tag,
		},
	}
}

// Kind sets the local error category
func (b *Builder) Kind(k Kind) *Builder {
	b.err.Kind = k
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Message sets the wire payload of string-carrying tags
func (b *Builder) Message(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Message = fmt.Sprintf(msg, args...)
	} else {
		b.err.Message = msg
	}
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	err := b.err
	return &err
}

// Convenience constructors for common error patterns

// UnexpectedContents reports a value kind that was not expected where it
// was found. expected may be empty when any known kind would do.
func UnexpectedContents(phase Phase, path []string, kind string, expected []string, found string) *Error {
	return &Error{
		Phase:     phase,
		Tag:       TagUnexpectedContents,
		Kind:      KindInvalidVariant,
		Path:      path,
		ValueKind: kind,
		Expected:  expected,
		Found:     found,
	}
}

// InvalidType reports a value whose kind differs from the required one
func InvalidType(phase Phase, path []string, expectedType, actualType string) *Error {
	return &Error{
		Phase:        phase,
		Tag:          TagInvalidType,
		Kind:         KindTypeMismatch,
		Path:         path,
		ExpectedType: expectedType,
		ActualType:   actualType,
	}
}

// ParseError reports a payload string that does not parse as its kind
func ParseError(phase Phase, path []string, kind string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Phase:     phase,
		Tag:       TagParseError,
		Kind:      KindInvalidData,
		Path:      path,
		ValueKind: kind,
		Message:   msg,
		Cause:     cause,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	msg := fmt.Sprintf("required field %q not found", fieldName)
	if len(path) > 0 {
		msg = fmt.Sprintf("required field %q not found in %s", fieldName, path[0])
	}
	return &Error{
		Phase:   phase,
		Tag:     TagDeserializationError,
		Kind:    KindFieldMissing,
		Path:    append(append([]string(nil), path...), fieldName),
		Message: msg,
	}
}

// Deserialization wraps a JSON decoding failure
func Deserialization(phase Phase, path []string, cause error) *Error {
	msg := "malformed JSON"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Phase:   phase,
		Tag:     TagDeserializationError,
		Kind:    KindInvalidData,
		Path:    path,
		Message: msg,
		Cause:   cause,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error for a string read from memory
func InvalidUTF8(phase Phase, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:   phase,
		Tag:     TagInvalidRequestString,
		Kind:    KindInvalidUTF8,
		Message: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// UnsupportedVersion reports a transaction version the library cannot handle
func UnsupportedVersion(phase Phase, version uint8) *Error {
	return &Error{
		Phase:   phase,
		Tag:     TagUnsupportedTransactionVersion,
		Kind:    KindUnsupported,
		Version: version,
	}
}

// UnrecognizedIntent reports a compiled intent matching none of the known shapes
func UnrecognizedIntent(phase Phase) *Error {
	return &Error{
		Phase: phase,
		Tag:   TagUnrecognizedCompiledIntentFormat,
		Kind:  KindInvalidData,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:   PhaseBridge,
		Tag:     TagInvalidRequestString,
		Kind:    KindAllocation,
		Message: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:   cause,
	}
}

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(phase Phase, offset, length, size uint32) *Error {
	return &Error{
		Phase:   phase,
		Tag:     TagInvalidRequestString,
		Kind:    KindOutOfBounds,
		Message: fmt.Sprintf("range [%d, %d) out of bounds (memory size %d)", offset, uint64(offset)+uint64(length), size),
	}
}

// CallFailed wraps a trap or host failure while invoking an export
func CallFailed(function string, cause error) *Error {
	return &Error{
		Phase:   PhaseBridge,
		Tag:     TagRequestResponseConversionError,
		Kind:    KindCall,
		Path:    []string{function},
		Message: fmt.Sprintf("call %s failed", function),
		Cause:   cause,
	}
}

// NotInitialized creates a not-initialized error for a closed module/instance
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:   phase,
		Tag:     TagRequestResponseConversionError,
		Kind:    KindNotInitialized,
		Message: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:   phase,
		Tag:     TagRequestResponseConversionError,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:   phase,
		Tag:     TagDeserializationError,
		Kind:    KindInvalidInput,
		Message: detail,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:   PhaseRuntime,
		Tag:     TagRequestResponseConversionError,
		Kind:    KindInstantiation,
		Message: "instantiate module",
		Cause:   cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:   PhaseLoad,
		Tag:     TagRequestResponseConversionError,
		Kind:    KindInvalidData,
		Message: detail,
		Cause:   cause,
	}
}

// Wrap wraps an existing error with a tag and context
func Wrap(phase Phase, tag Tag, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:   phase,
		Tag:     tag,
		Kind:    kind,
		Message: detail,
		Cause:   cause,
	}
}

// WithPath returns a copy of err with prefix prepended to its path. Errors
// that are not *Error are returned unchanged.
func WithPath(err error, prefix ...string) error {
	e, ok := err.(*Error)
	if !ok || len(prefix) == 0 {
		return err
	}
	c := *e
	c.Path = append(append([]string(nil), prefix...), e.Path...)
	return &c
}
