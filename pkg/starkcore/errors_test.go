package starkcore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageIncludesCauseAndCode(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := newError(ErrConstraintViolation, "spot check 3 failed", cause)

	msg := err.Error()
	if !strings.Contains(msg,"ConstraintViolation") {
		t.Errorf("expected error message to mention the error code, got %q", msg)
	}
	if !strings.Contains(msg,"underlying failure") {
		t.Errorf("expected error message to include the cause, got %q", msg)
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := newError(ErrInvalidParameter, "width mismatch", nil)
	msg := err.Error()
	if !strings.Contains(msg,"InvalidParameter") {
		t.Errorf("expected error message to mention the error code, got %q", msg)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := newError(ErrFriVerifyFailed, "fri failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("expected Unwrap to return the original cause")
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := newError(ErrMerkleVerifyFailed, "branch a", nil)
	b := newError(ErrMerkleVerifyFailed, "branch b", nil)
	c := newError(ErrFriVerifyFailed, "different code", nil)

	if !errors.Is(a, b) {
		t.Error("expected two errors with the same code to match via errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("expected errors with different codes not to match via errors.Is")
	}
}

