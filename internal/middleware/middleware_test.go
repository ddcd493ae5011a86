package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestJWTAuth_Middleware(t *testing.T) {
	auth := NewJWTAuth(testSecret)
	valid := signToken(t, jwt.MapClaims{
		"user_id": "user-123",
		"email":   "Ada@Example.com",
		"name":    "Ada",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	expired := signToken(t, jwt.MapClaims{"user_id": "user-123", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
	wrongKey := signToken(t, jwt.MapClaims{"user_id": "user-123"}, "other")
	noUser := signToken(t, jwt.MapClaims{"email": "x@y.z"}, testSecret)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"no user id", "Bearer " + noUser, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got *UserClaims
			h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetUser(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, rr.Code)
			}
			if tc.wantCode == http.StatusOK {
				if got == nil || got.UserID != "user-123" || got.Email != "ada@example.com" || got.DisplayName() != "Ada" {
					t.Fatalf("unexpected claims %+v", got)
				}
				return
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["code"] != tc.wantErr {
				t.Fatalf("expected code %s, got %v", tc.wantErr, body["code"])
			}
			if _, ok := body["error"].(string); !ok {
				t.Fatalf("expected string error message, got %v", body["error"])
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if n := (&UserClaims{Email: "bob@school.edu"}).DisplayName(); n != "bob" {
		t.Fatalf("expected email local part, got %q", n)
	}
	if n := (&UserClaims{}).DisplayName(); n != "Anonymous" {
		t.Fatalf("expected Anonymous, got %q", n)
	}
}

func TestRateLimiter_Window(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatalf("expected first two requests to pass")
	}
	if rl.allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.allow("b") {
		t.Fatalf("expected other key to be independent")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("a") {
		t.Fatalf("expected window reset")
	}
}

func TestRequestID(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(RequestIDHeader) == "" {
			t.Fatalf("expected request id on request")
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id on response")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("expected incoming request id to be echoed")
	}
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:3000, https://app.example.com/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/translate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("unexpected preflight response %d %v", rr.Code, rr.Header())
	}

	req = httptest.NewRequest(http.MethodPost, "/translate", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected response for disallowed origin")
	}
}
