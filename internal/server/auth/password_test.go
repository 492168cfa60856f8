package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher()

	encoded, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=19456,t=2,p=1$"), encoded)
	assert.NotContains(t, encoded, "s3cret")
	assert.True(t, h.Verify("s3cret", encoded))
	assert.False(t, h.Verify("s3cret ", encoded))
	assert.False(t, h.Verify("", encoded))
}

func TestArgon2Hasher_SaltIsPerHash(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(WithArgon2Memory(64), WithArgon2Time(1))

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	salt, err := base64.RawStdEncoding.DecodeString(strings.Split(a, "$")[4])
	require.NoError(t, err)
	assert.Len(t, salt, DefaultSaltLen)
}

func TestArgon2Hasher_VerifyUsesEmbeddedParams(t *testing.T) {
	t.Parallel()

	cheap := NewArgon2Hasher(WithArgon2Memory(64), WithArgon2Time(1), WithArgon2Threads(2))
	encoded, err := cheap.Hash("pw")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$m=64,t=1,p=2$")

	// A hasher configured differently still verifies it.
	assert.True(t, NewArgon2Hasher().Verify("pw", encoded))
}

func TestArgon2Hasher_VerifiesArgon2i(t *testing.T) {
	t.Parallel()

	salt := []byte("0123456789abcdef")
	key := argon2.Key([]byte("legacy"), salt, 3, 64, 1, 32)
	encoded := fmt.Sprintf("$argon2i$v=19$m=64,t=3,p=1$%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	h := NewArgon2Hasher()
	assert.True(t, h.Verify("legacy", encoded))
	assert.False(t, h.Verify("other", encoded))
}

func TestArgon2Hasher_MalformedNeverMatches(t *testing.T) {
	t.Parallel()

	h := NewArgon2Hasher(WithArgon2Memory(64), WithArgon2Time(1))
	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"plaintext", "pw"},
		{"too few parts", "$argon2id$v=19$m=64,t=1,p=1$abc"},
		{"unknown variant", strings.Replace(good, "argon2id", "argon2d", 1)},
		{"bad version", strings.Replace(good, "v=19", "v=16", 1)},
		{"bad params", strings.Join([]string{"", parts[1], parts[2], "m=x,t=1,p=1", parts[4], parts[5]}, "$")},
		{"zero threads", strings.Join([]string{"", parts[1], parts[2], "m=64,t=1,p=0", parts[4], parts[5]}, "$")},
		{"zero time", strings.Join([]string{"", parts[1], parts[2], "m=64,t=0,p=1", parts[4], parts[5]}, "$")},
		{"huge memory", strings.Join([]string{"", parts[1], parts[2], "m=4294967295,t=1,p=1", parts[4], parts[5]}, "$")},
		{"bad salt", strings.Join([]string{"", parts[1], parts[2], parts[3], "!!!", parts[5]}, "$")},
		{"bad hash", strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], "!!!"}, "$")},
		{"empty hash", strings.Join([]string{"", parts[1], parts[2], parts[3], parts[4], ""}, "$")},
		{"leading garbage", "x" + good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("pw", tt.encoded))
			})
		})
	}
}
