package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *ServiceError
		wantKind   Kind
		wantStatus int
	}{
		{"invalid input", InvalidInput("bad"), KindInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("no"), KindUnauthorized, http.StatusUnauthorized},
		{"invalid token", InvalidToken(nil), KindUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), KindForbidden, http.StatusForbidden},
		{"not found", NotFound("missing"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("dup"), KindConflict, http.StatusConflict},
		{"rate limited", RateLimitExceeded(100, "15m"), KindRateLimited, http.StatusTooManyRequests},
		{"unavailable", Unavailable("down"), KindUnavailable, http.StatusServiceUnavailable},
		{"internal", Internal(stderrors.New("boom")), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.wantKind)
			}
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestInvalidToken_UniformMessage(t *testing.T) {
	expired := InvalidToken(stderrors.New("token is expired"))
	forged := InvalidToken(stderrors.New("signature is invalid"))

	// Clients must not be able to distinguish the failure causes.
	if expired.Message != forged.Message {
		t.Errorf("messages differ: %q vs %q", expired.Message, forged.Message)
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := stderrors.New("pq: connection refused")
	err := Internal(cause)

	if err.Message == cause.Error() {
		t.Error("internal error surfaces its cause in the client message")
	}
	if !stderrors.Is(err, cause) {
		t.Error("Unwrap() does not expose the cause")
	}
}

func TestWithDetails(t *testing.T) {
	err := InvalidInput("bad").WithDetails("field", "email")
	if err.Details["field"] != "email" {
		t.Errorf("details = %v", err.Details)
	}
}

func TestAsServiceError(t *testing.T) {
	svc := NotFound("missing")

	if got := AsServiceError(svc); got != svc {
		t.Error("AsServiceError did not return the original")
	}

	wrapped := fmt.Errorf("handler: %w", svc)
	if got := AsServiceError(wrapped); got != svc {
		t.Error("AsServiceError did not unwrap")
	}

	plain := stderrors.New("boom")
	got := AsServiceError(plain)
	if got.Kind != KindInternal {
		t.Errorf("Kind = %v, want %v", got.Kind, KindInternal)
	}
}
