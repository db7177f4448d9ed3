package auth

import "sync"

// MockStore is an in-memory Store for tests.
type MockStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]Credential)}
}

func (m *MockStore) Set(cred *Credential) error {
	if cred == nil || cred.Platform == "" {
		return ErrInvalidCredential
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[cred.Platform] = *cred
	return nil
}

func (m *MockStore) Get(platform string) (*Credential, error) {
	if platform == "" {
		return nil, ErrInvalidCredential
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[platform]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

func (m *MockStore) List() ([]*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Credential, 0, len(m.creds))
	for platform := range m.creds {
		c := m.creds[platform]
		out = append(out, &c)
	}
	return out, nil
}

func (m *MockStore) Delete(platform string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[platform]; !ok {
		return ErrNotFound
	}
	delete(m.creds, platform)
	return nil
}
