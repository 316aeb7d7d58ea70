// Package security hashes operator passwords with Argon2id.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/dropship-backend/pkg/config"
)

// Hashes use the PHC string layout: $argon2id$v=19$m=..,t=..,p=..$salt$key
const phcPrefix = "$argon2id$"

var ErrInvalidHash = errors.New("invalid argon2id hash")

// tempAlphabet leaves out characters that are easy to misread.
const tempAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

type argonCost struct {
	memoryKB uint32
	passes   uint32
	threads  uint8
	saltLen  uint32
	keyLen   uint32
}

func costFor(cfg config.PasswordConfig) argonCost {
	return argonCost{
		memoryKB: uint32(bound(cfg.ArgonMemoryKB, 8, 512<<10)),
		passes:   uint32(bound(cfg.ArgonTime, 1, 10)),
		threads:  uint8(bound(cfg.ArgonParallelism, 1, 255)),
		saltLen:  uint32(bound(cfg.ArgonSaltLen, 8, 64)),
		keyLen:   uint32(bound(cfg.ArgonKeyLen, 16, 64)),
	}
}

func bound(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func (c argonCost) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, c.passes, c.memoryKB, c.threads, c.keyLen)
}

// HashPassword salts and hashes password with the configured cost.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	cost := costFor(cfg)
	salt := make([]byte, cost.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix, argon2.Version, cost.memoryKB, cost.passes, cost.threads,
		b64.EncodeToString(salt), b64.EncodeToString(cost.derive(password, salt)),
	), nil
}

// VerifyPassword reports whether password produces encoded. The comparison
// runs in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	cost, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, cost.derive(password, salt)) == 1, nil
}

// NeedsRehash reports whether encoded was produced with a cost other than
// the one cfg asks for today.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	got, _, _, err := parseHash(encoded)
	if err != nil {
		return true
	}
	want := costFor(cfg)
	return got.memoryKB != want.memoryKB || got.passes != want.passes ||
		got.threads != want.threads || got.keyLen != want.keyLen || got.saltLen != want.saltLen
}

func parseHash(encoded string) (argonCost, []byte, []byte, error) {
	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil || version != argon2.Version {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	var cost argonCost
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &cost.memoryKB, &cost.passes, &cost.threads); err != nil {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	if cost.memoryKB == 0 || cost.passes == 0 || cost.threads == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[2])
	if err != nil || len(salt) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[3])
	if err != nil || len(key) == 0 {
		return argonCost{}, nil, nil, ErrInvalidHash
	}
	cost.saltLen, cost.keyLen = uint32(len(salt)), uint32(len(key))
	return cost, salt, key, nil
}

// GenerateTempPassword returns a random password for admins created without
// one.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}
	// rejection sampling keeps every symbol equally likely
	limit := byte(256 - 256%len(tempAlphabet))
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, tempAlphabet[int(b)%len(tempAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
