package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/appauth/internal/common"
	"golang.org/x/crypto/argon2"
)

// Argon2 parameters used for new hashes: argon2id, version 0x13, 19 MiB of
// memory, two passes, one lane, 16-byte salt and 32-byte digest.
const (
	DefaultArgon2Memory  uint32 = 19 * 1024
	DefaultArgon2Time    uint32 = 2
	DefaultArgon2Threads uint8  = 1
	DefaultSaltLen              = 16
	DefaultKeyLen        uint32 = 32

	// Upper bound accepted from a stored hash, in KiB.
	maxArgon2Memory uint32 = 1 << 21
)

// Argon2Hasher hashes passwords into PHC strings of the form
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
//
// with unpadded standard base64 for salt and digest. Verify also accepts
// argon2i hashes so older records keep working.
type Argon2Hasher struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen int
	keyLen  uint32
}

// Argon2Option configures an Argon2Hasher.
type Argon2Option func(*Argon2Hasher)

func WithArgon2Memory(kib uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = kib }
}

func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

func WithArgon2Threads(p uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = p }
}

func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		memory:  DefaultArgon2Memory,
		time:    DefaultArgon2Time,
		threads: DefaultArgon2Threads,
		saltLen: DefaultSaltLen,
		keyLen:  DefaultKeyLen,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash derives a new salted argon2id hash of password.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt, err := common.GenerateRandByteArray(h.saltLen)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	key := argon2.IDKey(pw, salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. Malformed or unsupported
// hashes never match.
func (h *Argon2Hasher) Verify(password, encoded string) bool {
	p, ok := parsePHC(encoded)
	if !ok {
		return false
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	var key []byte
	switch p.variant {
	case "argon2id":
		key = argon2.IDKey(pw, p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	case "argon2i":
		key = argon2.Key(pw, p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	default:
		return false
	}
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

type phcParams struct {
	variant string
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parsePHC(encoded string) (phcParams, bool) {
	var p phcParams

	// "", variant, version, params, salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, false
	}
	p.variant = parts[1]

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, false
	}
	if p.time < 1 || p.threads < 1 || p.memory < 8*uint32(p.threads) || p.memory > maxArgon2Memory {
		return p, false
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return p, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, false
	}
	return p, true
}
