package keycustody

import (
	"context"
	"fmt"
)

// SecretStore puts and gets a single-field secret ("pw" → hex password) at a
// mount/path pair, abstracting over the Vault-backed production client and
// an in-memory fake used in tests.
type SecretStore interface {
	PutPassword(ctx context.Context, mount, path, password string) error
	GetPassword(ctx context.Context, mount, path string) (string, error)
}

// ErrSecretNotFound is returned when a path has no stored secret.
var ErrSecretNotFound = fmt.Errorf("keycustody: secret not found")

// MemorySecretStore is an in-memory SecretStore for tests and local runs.
type MemorySecretStore struct {
	data map[string]string
}

// NewMemorySecretStore returns an empty in-memory store.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{data: make(map[string]string)}
}

func (m *MemorySecretStore) key(mount, path string) string {
	return mount + "/" + path
}

// PutPassword stores password under mount/path, overwriting any prior value.
func (m *MemorySecretStore) PutPassword(ctx context.Context, mount, path, password string) error {
	m.data[m.key(mount, path)] = password
	return nil
}

// GetPassword retrieves the password stored under mount/path.
func (m *MemorySecretStore) GetPassword(ctx context.Context, mount, path string) (string, error) {
	pw, ok := m.data[m.key(mount, path)]
	if !ok {
		return "", ErrSecretNotFound
	}
	return pw, nil
}
