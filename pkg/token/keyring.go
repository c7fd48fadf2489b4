package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// DefaultService is the keyring service name the client stores its token under.
const DefaultService = "questnotify"

// KeyringProvider reads the access token from an OS keyring item.
type KeyringProvider struct {
	ring keyring.Keyring
	key  string
}

// NewKeyringProvider wraps an opened keyring.
func NewKeyringProvider(ring keyring.Keyring, key string) *KeyringProvider {
	return &KeyringProvider{ring: ring, key: key}
}

// OpenKeyring opens the platform keyring for service with the backends a
// desktop client is expected to have available.
func OpenKeyring(service, fileDir string) (keyring.Keyring, error) {
	if service == "" {
		service = DefaultService
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(service + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func (k *KeyringProvider) Token(context.Context) (string, error) {
	item, err := k.ring.Get(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting token %q: %w", k.key, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoToken
	}
	return string(item.Data), nil
}

// Store saves tok under the provider's key, replacing any previous value.
func (k *KeyringProvider) Store(tok string) error {
	if err := k.ring.Set(keyring.Item{Key: k.key, Data: []byte(tok)}); err != nil {
		return fmt.Errorf("setting token %q: %w", k.key, err)
	}
	return nil
}

// Forget removes the stored token. Removing a missing token is not an error.
func (k *KeyringProvider) Forget() error {
	err := k.ring.Remove(k.key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token %q: %w", k.key, err)
	}
	return nil
}
