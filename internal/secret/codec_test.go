package secret_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/sivakumaru2002/devops-ease-access/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := secret.NewCodec(testKey)
	require.NoError(t, err)

	sealed, err := codec.Encrypt("my-personal-access-token")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "my-personal-access-token")

	plain, err := codec.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "my-personal-access-token", plain)
}

func TestCodec_NonceIsRandom(t *testing.T) {
	codec, err := secret.NewEphemeralCodec()
	require.NoError(t, err)

	a, err := codec.Encrypt("pat")
	require.NoError(t, err)
	b, err := codec.Encrypt("pat")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCodec_DetectsTampering(t *testing.T) {
	codec, err := secret.NewCodec(testKey)
	require.NoError(t, err)

	sealed, err := codec.Encrypt("pat")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = codec.Decrypt(sealed)
	require.ErrorIs(t, err, secret.ErrCiphertext)

	_, err = codec.Decrypt([]byte("short"))
	require.ErrorIs(t, err, secret.ErrCiphertext)
}

func TestCodec_WrongKeyCannotDecrypt(t *testing.T) {
	a, err := secret.NewEphemeralCodec()
	require.NoError(t, err)
	b, err := secret.NewEphemeralCodec()
	require.NoError(t, err)

	sealed, err := a.Encrypt("pat")
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, secret.ErrCiphertext)
}

func TestNewCodec_InvalidKey(t *testing.T) {
	for _, key := range []string{"", "not-base64!!", base64.StdEncoding.EncodeToString([]byte("too short"))} {
		_, err := secret.NewCodec(key)
		assert.ErrorIs(t, err, secret.ErrInvalidKey, "key %q", key)
	}
}
