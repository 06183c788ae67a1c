package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIdentity_RejectsAnonymous(t *testing.T) {
	handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestIdentity_PropagatesCaller(t *testing.T) {
	var got string
	handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(UserIDHeader, "user-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "user-1" {
		t.Fatalf("expected caller user-1, got %q", got)
	}
}
