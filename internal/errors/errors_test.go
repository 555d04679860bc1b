package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"transient with cause", NewTransient(errors.New("database is locked")), "transient error: database is locked"},
		{"transient formatted", NewTransientf("ollama generate: %s", "connection refused"), "transient error: ollama generate: connection refused"},
		{"permanent with cause", NewPermanent(errors.New("no such table: equipment")), "permanent error: no such table: equipment"},
		{"permanent formatted", NewPermanentf("%w: name must not be empty", ErrInvalidInput), "permanent error: invalid input: name must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	if NewTransient(nil) != nil || NewPermanent(nil) != nil {
		t.Error("wrapping a nil cause should yield nil")
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantPermanent bool
	}{
		{"nil", nil, false, false},
		{"sqlite busy", NewTransientf("failed to begin transaction: %w", errors.New("database is locked")), true, false},
		{"validation", NewPermanentf("%w: unknown equipment status %q", ErrInvalidInput, "broken"), false, true},
		{"wrapped transient", fmt.Errorf("load inventory: %w", NewTransient(errors.New("disk I/O error"))), true, false},
		{"wrapped permanent", fmt.Errorf("parse config: %w", NewPermanent(errors.New("yaml: line 3"))), false, true},
		{"persistence failure", NewTransient(fmt.Errorf("%w: %w", ErrPersistence, errors.New("UNIQUE constraint failed"))), true, false},
		{"timeout sentinel", fmt.Errorf("catalog lookup: %w", ErrTimeout), true, false},
		{"rate limit sentinel", ErrRateLimit, true, false},
		{"not found sentinel", fmt.Errorf("windows-98: %w", ErrNotFound), false, false},
		{"malformed reply sentinel", fmt.Errorf("estimation: %w", ErrMalformedResponse), false, false},
		{"invalid input sentinel", ErrInvalidInput, false, false},
		{"unknown error", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
			if got := IsPermanent(tt.err); got != tt.wantPermanent {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.wantPermanent)
			}
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("analysis run: %w", NewTransient(fmt.Errorf("%w: %w", ErrPersistence, errors.New("disk full"))))

	if !Is(err, ErrPersistence) {
		t.Error("expected ErrPersistence to be found through the wrappers")
	}

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatal("expected a TransientError in the chain")
	}
	if !Is(transient.Cause, ErrPersistence) {
		t.Errorf("cause = %v, want ErrPersistence", transient.Cause)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		name          string
		code          int
		wantNil       bool
		wantTransient bool
		wantSentinel  error
	}{
		{name: "ok", code: http.StatusOK, wantNil: true},
		{name: "unknown product", code: http.StatusNotFound, wantSentinel: ErrNotFound},
		{name: "unauthorized", code: http.StatusUnauthorized, wantSentinel: ErrUnauthorized},
		{name: "forbidden", code: http.StatusForbidden, wantSentinel: ErrForbidden},
		{name: "rate limited", code: http.StatusTooManyRequests, wantTransient: true, wantSentinel: ErrRateLimit},
		{name: "gateway timeout", code: http.StatusGatewayTimeout, wantTransient: true, wantSentinel: ErrTimeout},
		{name: "bad gateway", code: http.StatusBadGateway, wantTransient: true},
		{name: "bad request", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPStatus(tt.code)
			if tt.wantNil {
				if err != nil {
					t.Errorf("ClassifyHTTPStatus(%d) = %v, want nil", tt.code, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ClassifyHTTPStatus(%d) = nil, want error", tt.code)
			}
			if got := IsTransient(err); got != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.wantTransient)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("expected %v to wrap %v", err, tt.wantSentinel)
			}
		})
	}
}
