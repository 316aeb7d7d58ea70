package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/api/responses"
	pkgAuth "github.com/angelmondragon/dropship-backend/pkg/auth"
	"github.com/angelmondragon/dropship-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	requestIDKey
)

// Principal is the operator a request acts for.
type Principal struct {
	AdminID uuid.UUID
	Email   string
	Role    string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.AdminID != uuid.Nil
}

// bearerToken extracts the credential from an Authorization header. A bare
// token without the scheme is accepted.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, "bearer") {
		return ""
	}
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	if strings.Contains(header, " ") {
		return ""
	}
	return header
}

// Auth admits requests carrying a valid admin access token.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}
			if claims.Role != pkgAuth.RoleAdmin {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}

			ctx = WithPrincipal(ctx, Principal{AdminID: claims.AdminID, Email: claims.Email, Role: claims.Role})
			if logg != nil {
				ctx = logg.WithAdminID(ctx, claims.AdminID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
