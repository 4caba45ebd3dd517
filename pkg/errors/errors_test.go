package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForSettlementCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeInvalidState, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeInsufficientFunds, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeSignatureInvalid, status: http.StatusBadRequest},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
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

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeInvalidState, cause, "order not paid")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	outer := fmt.Errorf("process: %w", wrapped)
	if !IsCode(outer, CodeInvalidState) {
		t.Fatalf("expected IsCode to see through fmt wrapping")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatalf("unexpected code match")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatalf("nil error is not retryable")
	}
	if !Retryable(stdErrors.New("db down")) {
		t.Fatalf("untyped errors should be retryable")
	}
	if Retryable(New(CodeValidation, "bad payload")) {
		t.Fatalf("validation errors should not be retryable")
	}
	if !Retryable(New(CodeDependency, "redis")) {
		t.Fatalf("dependency errors should be retryable")
	}
}

func TestIsUniqueViolationSqliteMessage(t *testing.T) {
	if !IsUniqueViolation(stdErrors.New("UNIQUE constraint failed: seller_transactions.idempotency_key")) {
		t.Fatalf("expected sqlite unique violation to be detected")
	}
	if IsUniqueViolation(stdErrors.New("no such table")) {
		t.Fatalf("unexpected unique violation match")
	}
}

func TestDumpIncludesCode(t *testing.T) {
	d := Dump(Wrap(CodeNotFound, stdErrors.New("record not found"), "order missing"))
	if d.Code != CodeNotFound {
		t.Fatalf("expected code in dump, got %q", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
