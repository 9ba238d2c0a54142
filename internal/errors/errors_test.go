package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "disposed",
			code:    CodeDisposed,
			wantMsg: "Derived value read after dispose",
			wantCat: CategoryGraph,
		},
		{
			name:    "circular",
			code:    CodeCircular,
			wantMsg: "Circular dependency detected",
			wantCat: CategoryGraph,
		},
		{
			name:    "duplicate keys",
			code:    CodeDuplicateKeys,
			wantMsg: "Duplicate keys in keyed list",
			wantCat: CategoryList,
		},
		{
			name:    "unknown error code",
			code:    "Z999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeCircular)
	err := New(CodeCircular).WithDetail("a -> b -> a")

	if !stderrors.Is(err, sentinel) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New(CodeDisposed)) {
		t.Error("errors with different codes should not match")
	}
	if stderrors.Is(err, Newf(CategoryGraph, "uncoded")) {
		t.Error("uncoded target should never match")
	}
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	sentinel := New(CodeDisposed)
	_ = sentinel.WithDetail("derived#4")

	if sentinel.Detail != "" {
		t.Errorf("sentinel Detail = %q, want empty", sentinel.Detail)
	}
}

func TestFromPanic(t *testing.T) {
	cause := stderrors.New("boom")
	err := FromPanic(CodeEffectPanic, cause)
	if !stderrors.Is(err, cause) {
		t.Error("error panic value should be wrapped")
	}

	err = FromPanic(CodeEffectPanic, 42)
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("Error() = %q, want panic value", err.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeConfigRead) != nil {
		t.Error("FromError(nil) should be nil")
	}

	existing := New(CodeConfigInvalid)
	if FromError(existing, CodeConfigRead) != existing {
		t.Error("FromError should return an *Error unchanged")
	}

	wrapped := FromError(stderrors.New("no such file"), CodeConfigRead)
	if wrapped.Code != CodeConfigRead {
		t.Errorf("Code = %q, want %q", wrapped.Code, CodeConfigRead)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeCircular).WithDetail("total -> total")
	out := err.Format()

	for _, want := range []string{"ERROR R002", "Circular dependency detected", "total -> total", "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeDisposed).WithDetail("derived#3")
	want := "R001: Derived value read after dispose [derived#3]"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeTaskPanic).Wrap(stderrors.New("nil map"))

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if decoded["code"] != CodeTaskPanic {
		t.Errorf("code = %q, want %q", decoded["code"], CodeTaskPanic)
	}
	if decoded["cause"] != "nil map" {
		t.Errorf("cause = %q, want %q", decoded["cause"], "nil map")
	}
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Print(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("Print(plain) = %q", buf.String())
	}
}

func TestCodesRegistered(t *testing.T) {
	for _, code := range Codes() {
		tmpl, ok := Lookup(code)
		if !ok {
			t.Fatalf("Lookup(%q) failed", code)
		}
		if tmpl.Message == "" {
			t.Errorf("code %s has no message", code)
		}
	}
}
