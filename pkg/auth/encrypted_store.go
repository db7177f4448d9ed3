package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore implements Store using an AES-GCM encrypted file.
// The passphrase comes from MEDIAGRAB_PASSPHRASE or falls back to a
// machine-local default so the store works without interactive setup.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

type encryptedFile struct {
	Salt      string `json:"salt"`
	Encrypted string `json:"encrypted"`
}

// NewEncryptedFileStore creates an encrypted file-based credential store
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return &EncryptedFileStore{
		path:       path,
		passphrase: passphraseFromEnv(),
	}, nil
}

// SetPassphrase overrides the passphrase used for encryption and decryption.
func (e *EncryptedFileStore) SetPassphrase(pass string) {
	e.mu.Lock()
	e.passphrase = pass
	e.mu.Unlock()
}

// Set saves a credential to the encrypted file
func (e *EncryptedFileStore) Set(cred *Credential) error {
	if cred == nil || cred.Platform == "" {
		return ErrInvalidCredential
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	creds, err := e.load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds == nil {
		creds = make(map[string]Credential)
	}
	creds[cred.Platform] = *cred

	return e.save(creds)
}

// Get retrieves a credential from the encrypted file
func (e *EncryptedFileStore) Get(platform string) (*Credential, error) {
	if platform == "" {
		return nil, ErrInvalidCredential
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	creds, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cred, ok := creds[platform]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

// List returns all credentials in the encrypted file
func (e *EncryptedFileStore) List() ([]*Credential, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	creds, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]*Credential, 0, len(creds))
	for platform := range creds {
		c := creds[platform]
		out = append(out, &c)
	}
	return out, nil
}

// Delete removes a credential from the encrypted file
func (e *EncryptedFileStore) Delete(platform string) error {
	if platform == "" {
		return ErrInvalidCredential
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	creds, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if _, ok := creds[platform]; !ok {
		return ErrNotFound
	}
	delete(creds, platform)
	return e.save(creds)
}

func (e *EncryptedFileStore) load() (map[string]Credential, error) {
	raw, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(file.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	plaintext, err := decrypt(ciphertext, e.passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds map[string]Credential
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds, nil
}

func (e *EncryptedFileStore) save(creds map[string]Credential) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	ciphertext, err := encrypt(plaintext, e.passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	file := encryptedFile{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
	}
	data, err := json.Marshal(&file)
	if err != nil {
		return err
	}
	return os.WriteFile(e.path, data, 0600)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
}

func encrypt(plaintext []byte, passphrase string, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte, passphrase string, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, payload := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, payload, nil)
}

func passphraseFromEnv() string {
	if pass := os.Getenv("MEDIAGRAB_PASSPHRASE"); pass != "" {
		return pass
	}
	// Machine-local fallback keeps the store usable without setup; callers
	// wanting real protection set the env var or SetPassphrase.
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return "mediagrab-" + host
}
