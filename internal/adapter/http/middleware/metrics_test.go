package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/accounts", "/api/v1/accounts"},
		{"/api/v1/accounts/01ABC123", "/api/v1/accounts/:id"},
		{"/api/v1/accounts/01ABC123/balance", "/api/v1/accounts/:id/balance"},
		{"/api/v1/accounts/01ABC123/transactions", "/api/v1/accounts/:id/transactions"},
		{"/api/v1/transactions/send", "/api/v1/transactions/send"},
		{"/api/v1/transactions/transfer", "/api/v1/transactions/transfer"},
		{"/api/v1/transactions/01ABC123", "/api/v1/transactions/:id"},
		{"/api/v1/transactions/01ABC123/cancel", "/api/v1/transactions/:id/cancel"},
		{"/api/v1/beneficiaries/01ABC123", "/api/v1/beneficiaries/:id"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
