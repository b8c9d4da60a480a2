package httperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := InternalServerError("inventory.register.failed", "Failed to register item", nil).WithCause(cause)

	if err.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", err.Status)
	}
	if err.Message != "Failed to register item" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "Failed to register item: disk full" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("inventory.show.not_found", "Item not found", nil))

	httpErr, ok := As(wrapped)
	if !ok {
		t.Fatal("expected wrapped *Error to be found")
	}
	if httpErr.Status != http.StatusNotFound || httpErr.Code != "inventory.show.not_found" {
		t.Fatalf("unexpected error %#v", httpErr)
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Fatal("plain errors must not match")
	}
}
