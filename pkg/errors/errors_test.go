package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock available", retryable: true, detailsOK: true},
		{code: CodeReservationMismatch, status: http.StatusConflict, publicMsg: "reserved quantity does not cover the request", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeIncompleteReservation, status: http.StatusUnprocessableEntity, publicMsg: "craft has unreserved ingredients", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing item id")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing item id" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detailed := base.WithDetails(map[string]string{"item_id": "is required"})
	if detailed.Details() == nil {
		t.Fatalf("expected details to be set")
	}

	cause := stdErrors.New("row locked")
	wrapped := Wrap(CodeInsufficientStock, cause, "reserve failed")
	if wrapped.Unwrap() != cause {
		t.Fatalf("expected wrapped cause")
	}
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("errors.Is should see through the wrapper")
	}
}

func TestAsAndIsCode(t *testing.T) {
	err := New(CodeReservationMismatch, "reserved 2, fulfilling 5")
	if typed := As(err); typed == nil || typed.Code() != CodeReservationMismatch {
		t.Fatalf("As failed to recover typed error")
	}
	if !IsCode(err, CodeReservationMismatch) {
		t.Fatalf("IsCode should match")
	}
	if IsCode(err, CodeInsufficientStock) {
		t.Fatalf("IsCode should not match a different code")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("As should return nil for untyped errors")
	}
}
