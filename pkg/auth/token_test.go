package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dropship-backend/pkg/config"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "dropship", ExpirationMinutes: 30}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := jwtConfig()
	adminID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	raw, err := MintAccessToken(cfg, now, AccessTokenPayload{AdminID: adminID, Email: " Ops@Example.com "})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, raw)
	require.NoError(t, err)
	assert.Equal(t, adminID, claims.AdminID)
	assert.Equal(t, adminID.String(), claims.Subject)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "dropship", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 30*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestParseClassifiesFailures(t *testing.T) {
	cfg := jwtConfig()

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{AdminID: uuid.New()})
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, expired)
	assert.True(t, errors.Is(err, ErrTokenExpired), "got %v", err)

	_, err = ParseAccessToken(cfg, "not-a-token")
	assert.True(t, errors.Is(err, ErrTokenMalformed), "got %v", err)

	fresh, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{AdminID: uuid.New()})
	require.NoError(t, err)

	wrongSecret := cfg
	wrongSecret.Secret = "different"
	_, err = ParseAccessToken(wrongSecret, fresh)
	assert.True(t, errors.Is(err, ErrTokenInvalid), "got %v", err)

	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone-else"
	_, err = ParseAccessToken(wrongIssuer, fresh)
	assert.True(t, errors.Is(err, ErrTokenInvalid), "got %v", err)
}

func TestParseToleratesSmallSkew(t *testing.T) {
	cfg := jwtConfig()
	raw, err := MintAccessToken(cfg, time.Now().Add(10*time.Second), AccessTokenPayload{AdminID: uuid.New()})
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, raw)
	assert.NoError(t, err)
}

func TestMintRejectsIncompleteInput(t *testing.T) {
	_, err := MintAccessToken(config.JWTConfig{}, time.Now(), AccessTokenPayload{AdminID: uuid.New()})
	assert.Error(t, err)

	noTTL := jwtConfig()
	noTTL.ExpirationMinutes = 0
	_, err = MintAccessToken(noTTL, time.Now(), AccessTokenPayload{AdminID: uuid.New()})
	assert.Error(t, err)

	_, err = MintAccessToken(jwtConfig(), time.Now(), AccessTokenPayload{})
	assert.Error(t, err)
}
