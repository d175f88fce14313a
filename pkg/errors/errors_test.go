package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedGraph, "link %s -> %s: unknown target", "ceo", "ghost")

	if err.Code != ErrCodeMalformedGraph {
		t.Errorf("Code = %v", err.Code)
	}
	if want := "MALFORMED_GRAPH: link ceo -> ghost: unknown target"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "roster %s", "team.csv")

	if want := "FILE_NOT_FOUND: roster team.csv: file does not exist"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if errors.Unwrap(err) != fs.ErrNotExist {
		t.Error("Unwrap should return the cause")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("the standard errors.Is should see the cause")
	}
}

func TestIs(t *testing.T) {
	notFound := Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "roster")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"own code", New(ErrCodeNotFound, "node ada"), ErrCodeNotFound, true},
		{"other code", New(ErrCodeNotFound, "node ada"), ErrCodeInvalidInput, false},
		{"outer of two", Wrap(ErrCodeInvalidInput, notFound, "parse"), ErrCodeInvalidInput, true},
		{"inner of two", Wrap(ErrCodeInvalidInput, notFound, "parse"), ErrCodeFileNotFound, true},
		{"behind fmt wrap", fmt.Errorf("render: %w", notFound), ErrCodeFileNotFound, true},
		{"plain error", errors.New("boom"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want Code
	}{
		"coded":     {New(ErrCodeDegenerateLabel, "blank name"), ErrCodeDegenerateLabel},
		"outermost": {Wrap(ErrCodeInvalidConfig, New(ErrCodeInvalidInput, "fps"), "config"), ErrCodeInvalidConfig},
		"plain":     {errors.New("plain"), ""},
		"nil":       {nil, ""},
	}
	for name, tt := range tests {
		if got := GetCode(tt.err); got != tt.want {
			t.Errorf("%s: GetCode() = %q, want %q", name, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeNotFound, "no node %q", "ada")); got != `no node "ada"` {
		t.Errorf("coded: %q", got)
	}
	if got := UserMessage(errors.New("disk full")); got != "disk full" {
		t.Errorf("plain: %q", got)
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"malformed graph", New(ErrCodeMalformedGraph, "x"), true},
		{"degenerate label", New(ErrCodeDegenerateLabel, "x"), true},
		{"empty team", Wrap(ErrCodeEmptyTeam, errors.New("no children"), "team"), true},
		{"missing graph", New(ErrCodeMissingGraph, "x"), false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recoverable(tt.err); got != tt.want {
				t.Errorf("Recoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}
