package keycustody

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("a cbor-encoded signing key, long enough to span several chunks of the stream cipher padding out past five hundred bytes of content so more than one chunk is exercised 0123456789 0123456789 0123456789 0123456789 0123456789 0123456789 0123456789 0123456789 0123456789 0123456789")

	ciphertext, err := Encrypt(plaintext, "correct horse battery staple")
	require.NoError(t, err)

	decrypted, err := Decrypt(ciphertext, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	ciphertext, err := Encrypt([]byte("secret"), "right-password")
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "wrong-password")
	assert.Error(t, err)
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	ciphertext, err := Encrypt(nil, "password")
	require.NoError(t, err)

	decrypted, err := Decrypt(ciphertext, "password")
	require.NoError(t, err)
	assert.Empty(t, decrypted)
}

func TestContractIdentityHashIsDeterministic(t *testing.T) {
	h1 := ContractIdentityHash(1, 2, 1.0, "addr1abc")
	h2 := ContractIdentityHash(1, 2, 1.0, "addr1abc")
	assert.Equal(t, h1, h2)

	h3 := ContractIdentityHash(1, 2, 1.0, "addr1xyz")
	assert.NotEqual(t, h1, h3)
}

func TestGeneratePassphraseIsRandomAndSized(t *testing.T) {
	p1, err := GeneratePassphrase()
	require.NoError(t, err)
	p2, err := GeneratePassphrase()
	require.NoError(t, err)

	assert.Len(t, p1, 64)
	assert.NotEqual(t, p1, p2)
}

func TestMemorySecretStorePutGet(t *testing.T) {
	store := NewMemorySecretStore()
	ctx := context.Background()

	_, err := store.GetPassword(ctx, "secret", "contracts/1")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, store.PutPassword(ctx, "secret", "contracts/1", "hex-password"))

	got, err := store.GetPassword(ctx, "secret", "contracts/1")
	require.NoError(t, err)
	assert.Equal(t, "hex-password", got)
}
