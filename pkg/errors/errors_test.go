package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidMapping, "expected %d mappings, got %d", 2, 1)

	if err.Code != ErrCodeInvalidMapping {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidMapping)
	}
	want := "INVALID_MAPPING: expected 2 mappings, got 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("open datasets/a.csv: no such file")
	err := Wrap(ErrCodeFileNotFound, cause, "load dataset %s", "a.csv")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidRange, "k out of range"), ErrCodeInvalidRange, true},
		{"different code", New(ErrCodeInvalidRange, "k out of range"), ErrCodeInvalidMode, false},
		{"wrapped matching", fmt.Errorf("outer: %w", New(ErrCodeDegenerate, "flat axis")), ErrCodeDegenerate, true},
		{"plain error", stderrors.New("plain"), ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidCategory, "unknown celltype")); got != ErrCodeInvalidCategory {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeInvalidCategory)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidDataset, "dataset A is missing column y")
	if got := UserMessage(err); got != "dataset A is missing column y" {
		t.Errorf("UserMessage = %q", got)
	}
	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}
