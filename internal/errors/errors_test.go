package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(OpportunityNotFound, "opportunity opt-123 not found")
	want := "[OPPORTUNITY_NOT_FOUND] opportunity opt-123 not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := Wrap(ToolFailed, "npm audit failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if got := err.Error(); got != "[TOOL_FAILED] npm audit failed: exit status 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"engine error", New(UnsafeState, "rollback failed"), UnsafeState},
		{"plain error", fmt.Errorf("boom"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithDetails(t *testing.T) {
	err := New(InvalidInput, "bad strategy").WithDetails(map[string]string{"strategy": "yolo"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["strategy"] != "yolo" {
		t.Errorf("Details = %v", err.Details)
	}
}
