package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "mediagrab"
	keyringPrefix  = "platform_"
	keyringIndex   = "platform_index"
)

// KeyringStore implements Store using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-based credential store. It probes the
// keychain once so callers can fall back early on headless systems.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Set saves a credential to the system keychain
func (k *KeyringStore) Set(cred *Credential) error {
	if cred == nil || cred.Platform == "" {
		return ErrInvalidCredential
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+cred.Platform, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.addToIndex(cred.Platform)
}

// Get retrieves a credential from the system keychain
func (k *KeyringStore) Get(platform string) (*Credential, error) {
	if platform == "" {
		return nil, ErrInvalidCredential
	}

	data, err := keyring.Get(keyringService, keyringPrefix+platform)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// List returns every credential recorded in the keyring index.
//
// The keychain has no native enumeration, so Set maintains a comma-separated
// platform index entry alongside the credentials.
func (k *KeyringStore) List() ([]*Credential, error) {
	index, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var out []*Credential
	for _, platform := range strings.Split(index, ",") {
		if platform == "" {
			continue
		}
		if cred, err := k.Get(platform); err == nil {
			out = append(out, cred)
		}
	}
	return out, nil
}

// Delete removes a credential from the system keychain
func (k *KeyringStore) Delete(platform string) error {
	if platform == "" {
		return ErrInvalidCredential
	}
	if err := keyring.Delete(keyringService, keyringPrefix+platform); err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	return k.removeFromIndex(platform)
}

func (k *KeyringStore) addToIndex(platform string) error {
	index, err := keyring.Get(keyringService, keyringIndex)
	if err != nil && err != keyring.ErrNotFound {
		return err
	}
	for _, p := range strings.Split(index, ",") {
		if p == platform {
			return nil
		}
	}
	if index == "" {
		index = platform
	} else {
		index += "," + platform
	}
	return keyring.Set(keyringService, keyringIndex, index)
}

func (k *KeyringStore) removeFromIndex(platform string) error {
	index, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return err
	}
	var kept []string
	for _, p := range strings.Split(index, ",") {
		if p != "" && p != platform {
			kept = append(kept, p)
		}
	}
	return keyring.Set(keyringService, keyringIndex, strings.Join(kept, ","))
}
