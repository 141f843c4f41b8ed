package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/foodshare-backend/pkg/config"
)

const (
	minMemoryKiB = 8 * 1024
	minTimeCost  = 1
	minSaltLen   = 8
	minKeyLen    = 16
)

var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword derives an argon2id hash in the standard encoded form.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}

	memory := clampUint32(cfg.ArgonMemoryKB, minMemoryKiB)
	timeCost := clampUint32(cfg.ArgonTime, minTimeCost)
	threads := clampUint8(cfg.ArgonParallelism, 1)
	saltLen := clampUint32(cfg.ArgonSaltLen, minSaltLen)
	keyLen := clampUint32(cfg.ArgonKeyLen, minKeyLen)

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, keyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		timeCost,
		threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword checks the candidate password against an encoded argon2id hash.
func VerifyPassword(encoded, password string) error {
	params, salt, hash, err := decodeHash(encoded)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash)))
	if subtle.ConstantTimeCompare(hash, candidate) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, fmt.Errorf("invalid password hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid password hash version: %w", err)
	}
	if version != argon2.Version {
		return argonParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var params argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid password hash params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid password hash salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid password hash digest: %w", err)
	}
	return params, salt, hash, nil
}

func clampUint32(value int, min uint32) uint32 {
	if value < int(min) {
		return min
	}
	return uint32(value)
}

func clampUint8(value int, min uint8) uint8 {
	if value < int(min) {
		return min
	}
	if value > 255 {
		return 255
	}
	return uint8(value)
}

const tempPasswordCharset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTempPassword produces a random password for operator-created accounts.
func GenerateTempPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	out := make([]byte, length)
	for i := range out {
		idx, err := randInt(len(tempPasswordCharset))
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordCharset[idx]
	}
	return string(out), nil
}

func randInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("generating random int: %w", err)
	}
	return int(n.Int64()), nil
}
