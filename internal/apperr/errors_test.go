package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_SeesThroughWrapping(t *testing.T) {
	base := NotFound("action %q not found", "a1")
	wrapped := fmt.Errorf("begin action: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf = %q, want %q", got, KindNotFound)
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should be true for wrapped not-found error")
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf = %q, want %q", got, KindInternal)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}

func TestErrorString(t *testing.T) {
	cause := errors.New("connection refused")
	err := External(cause, "question generation failed").WithOp("begin action")

	want := "begin action: question generation failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestIs_MatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", InvalidState("roadmap already completed"))
	if !errors.Is(err, &Error{Kind: KindInvalidState}) {
		t.Error("errors.Is should match on kind")
	}
	if errors.Is(err, &Error{Kind: KindValidation}) {
		t.Error("errors.Is should not match a different kind")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{External(nil, "llm down"), true},
		{IO(nil, "disk full"), true},
		{Validation("blank answer"), false},
		{InvalidState("wrong phase"), false},
		{NotFound("user"), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(Validation("expected 5 answers, got 3")); got != "expected 5 answers, got 3" {
		t.Errorf("MessageOf = %q", got)
	}
	if got := MessageOf(IO(errors.New("EACCES"), "save context")); got != "save context: EACCES" {
		t.Errorf("MessageOf = %q", got)
	}
}
