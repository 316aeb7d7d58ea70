package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/dropship-backend/api/responses"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
)

// loginBodyLimit is far above any real login payload.
const loginBodyLimit = 16 << 10

// LoginPolicy throttles credential guessing on the admin login endpoint.
// PerIP bounds attempts from one address, PerEmail bounds attempts against
// one account from anywhere.
type LoginPolicy struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

func (p LoginPolicy) enabled() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

// LoginThrottle rejects login attempts over either limit with 429. Unlike
// RateLimit it fails closed: when Redis is down nobody can log in.
func LoginThrottle(policy LoginPolicy, store windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	if policy.Name == "" {
		policy.Name = "login"
	}
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			type check struct {
				scope string
				limit int
				field string
				value string
			}
			var checks []check
			if policy.PerIP > 0 {
				ip := clientIP(r)
				checks = append(checks, check{"ip:" + ip, policy.PerIP, "ip", ip})
			}
			if policy.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, loginBodyLimit))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				// the account is identified by a hash so raw emails stay out of Redis and logs
				if hash := emailHash(body); hash != "" {
					checks = append(checks, check{"email:" + hash, policy.PerEmail, "email_hash", hash})
				}
			}

			for _, c := range checks {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.Name+":"+c.scope, int64(c.limit), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login throttle unavailable"))
					return
				}
				if allowed {
					continue
				}
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.Name,
						c.field:    c.value,
						"attempts": count,
						"limit":    c.limit,
					}), "auth.login.throttled")
				}
				w.Header().Set("Retry-After", retryAfter(policy.Window))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func emailHash(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
