// Package auth issues and verifies the bearer tokens used by the admin API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/dropship-backend/pkg/config"
)

// RoleAdmin is the only role the admin API issues today.
const RoleAdmin = "admin"

// clockSkew tolerates small drift between API replicas.
const clockSkew = 30 * time.Second

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
)

var signingMethod = jwt.SigningMethodHS256

// AccessTokenPayload is what the caller knows about the operator at login.
type AccessTokenPayload struct {
	AdminID uuid.UUID
	Email   string
	Role    string
	JTI     string
}

// AccessTokenClaims is the body of an admin token.
type AccessTokenClaims struct {
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

func checkConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken signs a token for p that expires cfg.TTL() after now.
func MintAccessToken(cfg config.JWTConfig, now time.Time, p AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if p.AdminID == uuid.Nil {
		return "", errors.New("admin id is required")
	}
	role := strings.TrimSpace(p.Role)
	if role == "" {
		role = RoleAdmin
	}
	id := strings.TrimSpace(p.JTI)
	if id == "" {
		id = uuid.NewString()
	}

	claims := AccessTokenClaims{
		AdminID: p.AdminID,
		Email:   strings.ToLower(strings.TrimSpace(p.Email)),
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    cfg.Issuer,
			Subject:   p.AdminID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and lifetime. Failures wrap one
// of ErrTokenExpired, ErrTokenMalformed or ErrTokenInvalid.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &AccessTokenClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.AdminID == uuid.Nil || claims.Subject != claims.AdminID.String() {
		return nil, fmt.Errorf("%w: subject does not match admin id", ErrTokenInvalid)
	}
	return claims, nil
}
