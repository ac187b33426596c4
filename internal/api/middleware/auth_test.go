package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/algo-traders-club/aster-operator/pkg/crypto"
)

func authProtected(tokenHash string) http.Handler {
	return Auth(tokenHash)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth(t *testing.T) {
	hash, err := crypto.HashToken("operator-secret")
	if err != nil {
		t.Fatalf("failed to hash token: %v", err)
	}

	tests := []struct {
		name       string
		tokenHash  string
		authHeader string
		wantStatus int
	}{
		{
			name:       "valid token passes",
			tokenHash:  hash,
			authHeader: "Bearer operator-secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong token rejected",
			tokenHash:  hash,
			authHeader: "Bearer wrong-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing header rejected",
			tokenHash:  hash,
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer scheme rejected",
			tokenHash:  hash,
			authHeader: "Basic b3BlcmF0b3I=",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty hash disables auth",
			tokenHash:  "",
			authHeader: "",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			authProtected(tt.tokenHash).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
