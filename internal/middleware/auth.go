package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserKey contextKey = "user"

// UserClaims identifies the caller. Tokens are issued by the external
// identity provider; this service only verifies them.
type UserClaims struct {
	UserID string
	Email  string
	Name   string
}

// DisplayName falls back to the email local part when no name is present.
func (c *UserClaims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if at := strings.Index(c.Email, "@"); at > 0 {
		return c.Email[:at]
	}
	return "Anonymous"
}

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

func (j *JWTAuth) VerifyToken(tokenStr string) (*UserClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		// Some providers only set the standard subject.
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, ErrTokenInvalid
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return &UserClaims{UserID: userID, Email: strings.ToLower(email), Name: name}, nil
}

// Middleware validates the bearer token and attaches the caller to the context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return
		}

		user, err := j.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func WithUser(ctx context.Context, user *UserClaims) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser returns the authenticated caller, or nil outside authenticated routes.
func GetUser(ctx context.Context) *UserClaims {
	u, _ := ctx.Value(UserKey).(*UserClaims)
	return u
}

func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"code":       code,
		"request_id": r.Header.Get(RequestIDHeader),
	})
}
