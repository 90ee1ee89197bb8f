package boxerr

import (
	"errors"
	"fmt"
	"testing"
)

// TestErrorFormatting tests the code-prefixed message format.
func TestErrorFormatting(t *testing.T) {
	err := Validationf("field %s is missing", "name")
	if err.Error() != "ValidationError: field name is missing" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// TestGetCode tests code extraction through wrapping.
func TestGetCode(t *testing.T) {
	err := Enginef("disk on fire")
	code, ok := GetCode(err)
	if !ok || code != CodeEngine {
		t.Errorf("GetCode = %v, %v", code, ok)
	}

	wrapped := fmt.Errorf("while flushing: %w", err)
	code, ok = GetCode(wrapped)
	if !ok || code != CodeEngine {
		t.Errorf("GetCode through wrap = %v, %v", code, ok)
	}

	if _, ok := GetCode(errors.New("plain")); ok {
		t.Error("plain errors carry no code")
	}
	if _, ok := GetCode(nil); ok {
		t.Error("nil carries no code")
	}
}

// TestIs tests the code predicate.
func TestIs(t *testing.T) {
	err := Abortf("interrupted")
	if !Is(err, CodeAbort) {
		t.Error("Is should match the constructor's code")
	}
	if Is(err, CodeValidation) {
		t.Error("Is should not match a different code")
	}
	if Is(nil, CodeAbort) {
		t.Error("Is(nil) should be false")
	}
}

// TestCodeStrings tests the per-code display names.
func TestCodeStrings(t *testing.T) {
	cases := map[Code]string{
		CodeValidation:  "ValidationError",
		CodeDefinition:  "DefinitionError",
		CodeConcurrency: "ConcurrencyError",
		CodeEngine:      "EngineError",
		CodeAbort:       "AbortError",
		CodeUnsupported: "UnsupportedError",
		Code(99):        "Unknown",
	}
	for code, want := range cases {
		if code.String() != want {
			t.Errorf("%d.String() = %q, want %q", code, code.String(), want)
		}
	}
}
