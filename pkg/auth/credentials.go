// Package auth stores per-platform credentials: the Netscape cookie file to
// inject into browser sessions and downloads, and optionally the installed
// browser to lift cookies from directly.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrNotFound is returned when no credential exists for a platform.
	ErrNotFound = errors.New("credential not found")
	// ErrInvalidCredential is returned for empty platform names or empty
	// credentials.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Credential is what the engine needs to authenticate against one platform.
type Credential struct {
	Platform string `json:"platform"`
	// CookieFile is a path to a Netscape-format cookie jar.
	CookieFile string `json:"cookie_file,omitempty"`
	// BrowserSource names an installed browser ("chrome", "firefox") whose
	// cookies the downloader may read directly.
	BrowserSource string    `json:"browser_source,omitempty"`
	LastModified  time.Time `json:"last_modified"`
}

// Empty reports whether the credential carries nothing usable.
func (c *Credential) Empty() bool {
	return c == nil || (c.CookieFile == "" && c.BrowserSource == "")
}

// Store is the interface for storing and retrieving platform credentials
type Store interface {
	// Set saves the credential for its platform
	Set(cred *Credential) error
	// Get retrieves the credential for a platform
	Get(platform string) (*Credential, error)
	// List returns all stored credentials
	List() ([]*Credential, error)
	// Delete removes the credential for a platform
	Delete(platform string) error
}

// Manager is a Store that tries multiple backends in order: system keychain
// first, encrypted file as fallback, environment variables as last resort.
type Manager struct {
	stores []Store
}

// NewManager creates a credential manager with the default backend chain.
func NewManager() (*Manager, error) {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit backend chain.
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Set saves the credential using the first backend that accepts it.
func (m *Manager) Set(cred *Credential) error {
	if cred == nil || cred.Platform == "" {
		return ErrInvalidCredential
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Set(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Get returns the credential from the first backend that has one.
func (m *Manager) Get(platform string) (*Credential, error) {
	if platform == "" {
		return nil, ErrInvalidCredential
	}
	for _, store := range m.stores {
		if cred, err := store.Get(platform); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, ErrNotFound
}

// List merges credentials across backends; earlier backends win per platform.
func (m *Manager) List() ([]*Credential, error) {
	seen := make(map[string]bool)
	var out []*Credential
	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, c := range creds {
			if !seen[c.Platform] {
				seen[c.Platform] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// Delete removes the credential from every backend that has it.
func (m *Manager) Delete(platform string) error {
	if platform == "" {
		return ErrInvalidCredential
	}
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(platform); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, "mediagrab")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
