package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"plantmate/internal/respond"
)

// ErrInvalidToken is returned when a bearer token cannot be verified or has no usable subject.
var ErrInvalidToken = errors.New("invalid token")

type contextKey string

const userIDContextKey contextKey = "auth/user-id"

// TokenParser verifies HS256 tokens minted by the account service.
type TokenParser struct {
	Secret []byte
}

// UserID validates token and returns its subject as an integer user id.
func (p TokenParser) UserID(token string) (int, error) {
	if len(p.Secret) == 0 {
		return 0, errors.New("token secret missing")
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return p.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	return subjectID(claims["sub"])
}

// subjectID accepts the subject as a decimal string or a JSON number.
func subjectID(sub any) (int, error) {
	switch v := sub.(type) {
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, v)
		}
		return id, nil
	case float64:
		if v <= 0 || v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: subject %v is not a user id", ErrInvalidToken, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
}

// Middleware attaches the caller's user id to the request context.
type Middleware struct {
	Tokens TokenParser
	// TrustUserIDQuery lets TrustedQuery accept ?user_id= from callers without a token.
	TrustUserIDQuery bool
}

// InjectUser decodes a bearer token when present. Invalid tokens are ignored here
// and rejected by RequireUser.
func (m Middleware) InjectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r.Header.Get("Authorization")); token != "" {
			if id, err := m.Tokens.UserID(token); err == nil {
				r = r.WithContext(WithUserID(r.Context(), id))
			} else {
				log.Printf("auth: %v", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// TrustedQuery falls back to the user_id query parameter when enabled and no
// token identified the caller.
func (m Middleware) TrustedQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok && m.TrustUserIDQuery {
			if id, err := strconv.Atoi(r.URL.Query().Get("user_id")); err == nil && id > 0 {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser ensures a user id exists in context or returns 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			respond.Detail(w, http.StatusUnauthorized, "로그인이 필요합니다.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID stores the authenticated user id in context.
func WithUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, userIDContextKey, id)
}

// UserIDFromContext extracts the authenticated user id from context if present.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDContextKey).(int)
	return id, ok
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
