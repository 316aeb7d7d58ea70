package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/dropship-backend/api/responses"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
	"github.com/angelmondragon/dropship-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/dropship-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255
	maxReplayBodyBytes   = 2 << 20

	// inFlightTTL bounds how long a crashed request keeps its key claimed.
	inFlightTTL    = 2 * time.Minute
	standardReplay = 24 * time.Hour
	supplierReplay = 7 * 24 * time.Hour
)

type idempotencyRule struct {
	pattern  string
	ttl      time.Duration
	required bool
}

// Patterns use path.Match syntax against the request path. Rules that reach a
// supplier refuse to run without a key.
var idempotencyRules = map[string][]idempotencyRule{
	http.MethodPost: {
		{pattern: "/api/admin/orders", ttl: supplierReplay, required: true},
		{pattern: "/api/admin/fulfillment", ttl: supplierReplay, required: true},
		{pattern: "/api/admin/products", ttl: standardReplay},
		{pattern: "/api/admin/products/bulk", ttl: standardReplay},
		{pattern: "/api/admin/products/import", ttl: standardReplay},
		{pattern: "/api/admin/products/import/bulk", ttl: standardReplay},
		{pattern: "/api/admin/platforms/sync", ttl: standardReplay},
		{pattern: "/api/admin/messaging/send", ttl: standardReplay},
		{pattern: "/api/admin/tracking", ttl: standardReplay},
		{pattern: "/api/admin/ai-picker/analyze", ttl: standardReplay},
		{pattern: "/api/admin/reviews/*/approve", ttl: standardReplay},
		{pattern: "/api/admin/reviews/*/reject", ttl: standardReplay},
	},
}

func lookupRule(method, target string) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules[method] {
		if ok, _ := path.Match(rule.pattern, target); ok {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

// replayEntry is the value kept under an idempotency key. An entry without
// a status marks a request that is still running.
type replayEntry struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func (e replayEntry) done() bool { return e.Status != 0 }

func (e replayEntry) encode() string {
	raw, _ := json.Marshal(e)
	return string(raw)
}

// Idempotency makes unsafe admin calls safe to retry. The first request with
// a key claims it, runs, and stores its response; later requests with the
// same key and body get that response back without running the handler.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			target := requestTarget(r)
			rule, ok := lookupRule(r.Method, target)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			switch {
			case clientKey == "" && rule.required:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, idempotencyHeader+" header required"))
				return
			case clientKey == "":
				next.ServeHTTP(w, r)
				return
			case len(clientKey) > maxIdempotencyKeyLen:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, idempotencyHeader+" is too long"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReplayBodyBytes))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body could not be read"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintRequest(r.Method, target, body)
			owner := "anonymous"
			if p, ok := PrincipalFromContext(ctx); ok {
				owner = p.AdminID.String()
			}
			key := store.IdempotencyKey(owner+"|"+r.Method+"|"+target, clientKey)

			claimed, err := store.SetNX(ctx, key, replayEntry{Fingerprint: fingerprint}.encode(), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayExisting(w, r, store, key, fingerprint, logg)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			completed := false
			defer func() {
				// a panic or server error frees the key so the caller may retry
				if !completed {
					if err := store.Del(ctx, key); err != nil && logg != nil {
						logg.Error(ctx, "idempotency.release_failed", err)
					}
				}
			}()
			next.ServeHTTP(capture, r)

			status := capture.statusOr(http.StatusOK)
			if status >= http.StatusInternalServerError {
				return
			}
			entry := replayEntry{
				Fingerprint: fingerprint,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}
			// swap the in-flight marker for the final response
			if err := store.Del(ctx, key); err == nil {
				_, err = store.SetNX(ctx, key, entry.encode(), rule.ttl)
				if err == nil {
					completed = true
					return
				}
			}
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "idempotency_key", clientKey), "idempotency.store_failed")
			}
			completed = true
		})
	}
}

func replayExisting(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, fingerprint string, logg *logger.Logger) {
	ctx := r.Context()
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}
	var entry replayEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if entry.Fingerprint != fingerprint {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request"))
		return
	}
	if !entry.done() {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
		return
	}
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(replayHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
}

func fingerprintRequest(method, target string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// requestTarget prefers the resolved chi pattern. Middleware mounted above a
// subrouter only sees a wildcard pattern, so it falls back to the path.
func requestTarget(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" && !strings.Contains(p, "*") {
			return strings.TrimSuffix(p, "/")
		}
	}
	if trimmed := strings.TrimSuffix(r.URL.Path, "/"); trimmed != "" {
		return trimmed
	}
	return r.URL.Path
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) statusOr(fallback int) int {
	if c.status == 0 {
		return fallback
	}
	return c.status
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
