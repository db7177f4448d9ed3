package auth

import (
	"os"
	"strings"
)

// EnvironmentStore is a read-only Store backed by environment variables:
// MEDIAGRAB_<PLATFORM>_COOKIE_FILE and MEDIAGRAB_<PLATFORM>_BROWSER.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-variable credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Set is not supported; the environment is read-only.
func (e *EnvironmentStore) Set(cred *Credential) error {
	return ErrInvalidCredential
}

// Get reads a credential from environment variables
func (e *EnvironmentStore) Get(platform string) (*Credential, error) {
	if platform == "" {
		return nil, ErrInvalidCredential
	}

	prefix := "MEDIAGRAB_" + strings.ToUpper(platform) + "_"
	cookieFile := os.Getenv(prefix + "COOKIE_FILE")
	browser := os.Getenv(prefix + "BROWSER")
	if cookieFile == "" && browser == "" {
		return nil, ErrNotFound
	}

	return &Credential{
		Platform:      platform,
		CookieFile:    cookieFile,
		BrowserSource: browser,
	}, nil
}

// List cannot enumerate the environment reliably; it returns nothing.
func (e *EnvironmentStore) List() ([]*Credential, error) {
	return nil, nil
}

// Delete is not supported; the environment is read-only.
func (e *EnvironmentStore) Delete(platform string) error {
	return ErrNotFound
}
