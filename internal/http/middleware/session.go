package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/noid254/nikosoko/internal/http/response"
	"github.com/noid254/nikosoko/pkg/auth"
	"github.com/noid254/nikosoko/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireSession accepts a session token from the Authorization header or
// the session_token query parameter and puts its claims on the context.
func RequireSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearer(r)
			if tok == "" {
				response.WriteError(w, http.StatusUnauthorized, "session token is required", response.ErrCodeUnauthorized)
				return
			}
			claims, err := auth.Parse(tok, secret)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected session token", "error", err)
				response.WriteError(w, http.StatusUnauthorized, "invalid session token", response.ErrCodeInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.SessionIDKey, claims.Sid)
			if claims.Sub != 0 {
				ctx = context.WithValue(ctx, logger.UserIDKey, strconv.FormatInt(claims.Sub, 10))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return r.URL.Query().Get("session_token")
}

func Claims(r *http.Request) *auth.Claims {
	if v := r.Context().Value(CtxClaims); v != nil {
		if c, ok := v.(*auth.Claims); ok {
			return c
		}
	}
	return nil
}

// SessionID is the sid of the verified token, empty outside RequireSession.
func SessionID(r *http.Request) string {
	if c := Claims(r); c != nil {
		return c.Sid
	}
	return ""
}
