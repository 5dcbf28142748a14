package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("client_id is required"), http.StatusBadRequest},
		{"not found", NotFound("meal"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get plan: %w", NotFound("plan")), http.StatusNotFound},
		{"incomplete", fmt.Errorf("tdee: %w", ErrIncompleteProfile), http.StatusUnprocessableEntity},
		{"conflict", ErrConflict, http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"locked", ErrLocked, http.StatusTooManyRequests},
		{"persistence", Persistence("insert meal", errors.New("boom")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHTTPError_HidesPersistenceDetails(t *testing.T) {
	he := HTTPError(Persistence("insert meal", errors.New("duplicate key on meal_pkey")))
	if he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", he.Code)
	}
	if he.Message != "internal server error" {
		t.Errorf("expected generic message, got %v", he.Message)
	}
	if he.Internal == nil {
		t.Error("expected internal cause to be kept for logging")
	}
}

func TestHTTPError_KeepsValidationMessage(t *testing.T) {
	he := HTTPError(Validation("date must be YYYY-MM-DD"))
	if he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", he.Code)
	}
	if he.Message != "validation failed: date must be YYYY-MM-DD" {
		t.Errorf("unexpected message: %v", he.Message)
	}
}
