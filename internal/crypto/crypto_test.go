package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretRoundTrip(t *testing.T) {
	blob, err := EncryptSecret("lx-api-secret-123", "hunter2")
	require.NoError(t, err)

	got, err := DecryptSecret(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "lx-api-secret-123", got)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptSecret("lx-api-secret-123", "hunter2")
	require.NoError(t, err)

	_, err = DecryptSecret(blob, "wrong")
	assert.Error(t, err)
}

func TestLoadSecret(t *testing.T) {
	t.Run("raw takes precedence", func(t *testing.T) {
		got, err := LoadSecret(SecretConfig{RawSecret: "raw", EncryptedPath: "/does/not/exist"})
		require.NoError(t, err)
		assert.Equal(t, "raw", got)
	})

	t.Run("from encrypted file", func(t *testing.T) {
		blob, err := EncryptSecret("file-secret", "pw")
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "secret.json")
		require.NoError(t, os.WriteFile(path, blob, 0o600))

		got, err := LoadSecret(SecretConfig{EncryptedPath: path, Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "file-secret", got)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := LoadSecret(SecretConfig{})
		assert.Error(t, err)
	})
}

// Vector from the venue's published API documentation.
func TestSignQuery(t *testing.T) {
	auth := HMACAuth{
		Key:    "vmPUZE6mv9SD5VNHk4HlWFsOr6aKE2zvsw0MuIgwCIPy6utIco14y7Ju91duEh8A",
		Secret: "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j",
	}
	query := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"

	assert.Equal(t,
		"c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71",
		auth.SignQuery(query))
}

func TestRedactedString(t *testing.T) {
	auth := HMACAuth{Key: "abcdefgh", Secret: "zz"}
	s := auth.String()
	assert.NotContains(t, s, "abcdefgh")
	assert.Contains(t, s, "abcd****")
}
