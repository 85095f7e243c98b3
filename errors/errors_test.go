package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseDecode,
				Tag:     TagDeserializationError,
				Kind:    KindFieldMissing,
				Path:    []string{"CALL_METHOD", "method_name"},
				Message: "missing field",
				Detail:  "while decoding instruction 3",
			},
			contains: []string{"[decode]", "DeserializationError", "field_missing", "CALL_METHOD.method_name", "missing field", "instruction 3"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRemote,
				Tag:   TagUnrecognizedCompiledIntentFormat,
			},
			contains: []string{"[remote]", "UnrecognizedCompiledIntentFormat"},
		},
		{
			name:     "unexpected contents",
			err:      UnexpectedContents(PhaseDecode, nil, "Value", []string{"Decimal"}, "Foo"),
			contains: []string{"UnexpectedContents", "kind Value", "[Decimal]", "found Foo"},
		},
		{
			name:     "invalid type",
			err:      InvalidType(PhaseValidate, []string{"elements", "1"}, "U8", "String"),
			contains: []string{"InvalidType", "elements.1", "expected type U8", "actual type String"},
		},
		{
			name:     "unsupported version",
			err:      UnsupportedVersion(PhaseValidate, 7),
			contains: []string{"UnsupportedTransactionVersion", "version 7"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:   PhaseBridge,
				Tag:     TagInvalidRequestString,
				Kind:    KindAllocation,
				Message: "memory full",
				Cause:   errors.New("underlying error"),
			},
			contains: []string{"[bridge]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseBridge,
		Tag:   TagRequestResponseConversionError,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Tag:   TagParseError,
		Kind:  KindInvalidData,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Tag: TagParseError}) {
		t.Error("Is should match same tag")
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindInvalidData}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Tag: TagDecodeError}) {
		t.Error("Is should not match different tag")
	}

	if err.Is(&Error{Phase: PhaseEncode, Kind: KindInvalidData}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{}) {
		t.Error("Is should not match an empty target")
	}

	var wrapped error = WithPath(err, "instructions", "0")
	if !errors.Is(wrapped, &Error{Tag: TagParseError}) {
		t.Error("errors.Is should match through WithPath")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, TagDeserializationError).
		Kind(KindFieldMissing).
		Path("CALL_METHOD", "method_name").
		Message("missing field %q", "method_name").
		Cause(cause).
		Detail("expected %s, got %s", "string", "nothing").
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Tag != TagDeserializationError {
		t.Errorf("Tag = %v, want %v", err.Tag, TagDeserializationError)
	}
	if err.Kind != KindFieldMissing {
		t.Errorf("Kind = %v, want %v", err.Kind, KindFieldMissing)
	}
	if len(err.Path) != 2 || err.Path[0] != "CALL_METHOD" || err.Path[1] != "method_name" {
		t.Errorf("Path = %v, want [CALL_METHOD method_name]", err.Path)
	}
	if err.Message != `missing field "method_name"` {
		t.Errorf("Message = %v", err.Message)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got nothing" {
		t.Errorf("Detail = %v, want 'expected string, got nothing'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing(PhaseDecode, []string{"TAKE_FROM_WORKTOP"}, "into_bucket")
		if err.Tag != TagDeserializationError || err.Kind != KindFieldMissing {
			t.Errorf("Tag=%v Kind=%v", err.Tag, err.Kind)
		}
		if !containsSubstring(err.Message, "into_bucket") || !containsSubstring(err.Message, "TAKE_FROM_WORKTOP") {
			t.Errorf("Message = %q, should name field and owner", err.Message)
		}
		if len(err.Path) != 2 || err.Path[1] != "into_bucket" {
			t.Errorf("Path = %v", err.Path)
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		err := ParseError(PhaseDecode, nil, "U8", errors.New("out of range"))
		if err.Tag != TagParseError || err.ValueKind != "U8" || err.Message != "out of range" {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8(PhaseBridge, []byte{0xff, 0xfe})
		if err.Tag != TagInvalidRequestString || err.Kind != KindInvalidUTF8 {
			t.Errorf("Tag=%v Kind=%v", err.Tag, err.Kind)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(1024, nil)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !containsSubstring(err.Message, "1024") {
			t.Errorf("Message = %v, should contain size", err.Message)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseBridge, 65530, 10, 65536)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if !containsSubstring(err.Message, "65540") {
			t.Errorf("Message = %v, should contain range end", err.Message)
		}
	})

	t.Run("CallFailed", func(t *testing.T) {
		cause := errors.New("unreachable")
		err := CallFailed("information", cause)
		if err.Kind != KindCall || !errors.Is(err, cause) {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("UnrecognizedIntent", func(t *testing.T) {
		err := UnrecognizedIntent(PhaseDecode)
		if err.Tag != TagUnrecognizedCompiledIntentFormat {
			t.Errorf("Tag = %v", err.Tag)
		}
	})
}

func TestWireRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		wire string
	}{
		{
			name: "newtype string",
			err:  &Error{Tag: TagDecodeError, Message: "bad sbor"},
			wire: `{"error":"DecodeError","value":"bad sbor"}`,
		},
		{
			name: "unexpected contents",
			err:  &Error{Tag: TagUnexpectedContents, ValueKind: "Value", Expected: []string{"Bool"}, Found: "Foo"},
			wire: `{"error":"UnexpectedContents","value":{"kind":"Value","expected":["Bool"],"found":"Foo"}}`,
		},
		{
			name: "invalid type",
			err:  &Error{Tag: TagInvalidType, ExpectedType: "U8", ActualType: "String"},
			wire: `{"error":"InvalidType","value":{"expected_type":"U8","actual_type":"String"}}`,
		},
		{
			name: "parse error",
			err:  &Error{Tag: TagParseError, ValueKind: "Decimal", Message: "InvalidChar"},
			wire: `{"error":"ParseError","value":{"kind":"Decimal","error":"InvalidChar"}}`,
		},
		{
			name: "unsupported version",
			err:  &Error{Tag: TagUnsupportedTransactionVersion, Version: 2},
			wire: `{"error":"UnsupportedTransactionVersion","value":2}`,
		},
		{
			name: "no payload",
			err:  &Error{Tag: TagUnrecognizedCompiledIntentFormat},
			wire: `{"error":"UnrecognizedCompiledIntentFormat"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.err)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.wire {
				t.Fatalf("marshal = %s, want %s", data, tt.wire)
			}

			got, ok := FromResponse([]byte(tt.wire))
			if !ok {
				t.Fatalf("FromResponse did not detect error object")
			}
			if got.Tag != tt.err.Tag || got.Phase != PhaseRemote {
				t.Errorf("Tag=%v Phase=%v", got.Tag, got.Phase)
			}
			again, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("re-marshal: %v", err)
			}
			if string(again) != tt.wire {
				t.Errorf("re-marshal = %s, want %s", again, tt.wire)
			}
		})
	}
}

func TestFromResponse_NotAnError(t *testing.T) {
	for _, in := range []string{
		`{"package_version":"0.5.0"}`,
		`{"error":42}`,
		`[1,2,3]`,
		`"error"`,
		``,
	} {
		if _, ok := FromResponse([]byte(in)); ok {
			t.Errorf("FromResponse(%q) reported an error object", in)
		}
	}
}

func TestTagKnown(t *testing.T) {
	if !TagAddressError.Known() {
		t.Error("AddressError should be known")
	}
	if Tag("SomethingElse").Known() {
		t.Error("unknown tag reported as known")
	}
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
