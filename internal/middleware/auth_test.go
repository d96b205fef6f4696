package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateMissingHeader(t *testing.T) {
	h := Authenticate("secret")(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateBadFormat(t *testing.T) {
	h := Authenticate("secret")(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	secret := "secret"
	userID := uuid.New()
	token, err := auth.GenerateToken(secret, userID, "ADMIN")
	if err != nil {
		t.Fatal(err)
	}

	var seen *auth.Claims
	h := Authenticate(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.UserID != userID {
		t.Errorf("claims not propagated to handler")
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		claims     *auth.Claims
		allowed    []string
		wantStatus int
	}{
		{"no claims", nil, []string{"ADMIN"}, http.StatusUnauthorized},
		{"wrong role", &auth.Claims{Role: "KITCHEN"}, []string{"ADMIN"}, http.StatusForbidden},
		{"matching role", &auth.Claims{Role: "ADMIN"}, []string{"ADMIN"}, http.StatusOK},
		{"second of several", &auth.Claims{Role: "SERVER"}, []string{"ADMIN", "SERVER"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole(tt.allowed...)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
