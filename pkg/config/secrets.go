package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// Secrets file format: [salt 16][nonce 12][AES-256-GCM ciphertext+tag].
const (
	SecretsFileName = "secrets.json.enc"
	saltSize        = 16
	nonceSize       = 12
	gcmTagSize      = 16
	scryptN         = 32768 // 2^15
	scryptR         = 8
	scryptP         = 1
	keySize         = 32 // AES-256
)

// EnvSecretsPassword unlocks the secrets file non-interactively.
const EnvSecretsPassword = "POSTER_SECRETS_PASSWORD"

// ErrSecretNotFound is returned when a secret is in neither the file nor the environment.
var ErrSecretNotFound = errors.New("secret not found")

// ErrDecrypt is returned for a wrong password or a tampered file.
var ErrDecrypt = errors.New("decryption failed (wrong password or corrupted file)")

// Secrets holds decrypted credentials in memory. Lookups fall back to the
// environment so a deployment may use either source.
type Secrets struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSecrets returns an empty secrets holder.
func NewSecrets() *Secrets {
	return &Secrets{values: make(map[string]string)}
}

// SecretsPath returns the secrets file location inside dir.
func SecretsPath(dir string) string {
	return filepath.Join(dir, SecretsFileName)
}

// SecretsFileExists checks whether the encrypted file exists in dir.
func SecretsFileExists(dir string) bool {
	_, err := os.Stat(SecretsPath(dir))
	return err == nil
}

// Get returns a secret using the precedence file, then environment.
func (s *Secrets) Get(name string) (string, error) {
	if s != nil {
		s.mu.RLock()
		value, ok := s.values[name]
		s.mu.RUnlock()
		if ok && value != "" {
			return value, nil
		}
	}
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}

// Lookup is Get without the error, for optional credentials.
func (s *Secrets) Lookup(name string) string {
	v, _ := s.Get(name)
	return v
}

// Set stores a secret in memory.
func (s *Secrets) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Delete removes a secret from memory.
func (s *Secrets) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// Names returns the sorted secret names (never values).
func (s *Secrets) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// APIKeyEnv returns the credential name for a generator provider.
// Ollama needs no key; its host is optional.
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return EnvAnthropicAPIKey
	case ProviderOpenAI:
		return EnvOpenAIAPIKey
	case ProviderGoogle:
		return EnvGoogleAPIKey
	case ProviderOllama:
		return EnvOllamaHost
	default:
		return ""
	}
}

// XCredentials are the four OAuth 1.0a values for the X API.
type XCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Complete reports whether all four values are present.
func (c XCredentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// XCredentials collects the publishing credentials.
func (s *Secrets) XCredentials() XCredentials {
	return XCredentials{
		ConsumerKey:    s.Lookup(EnvXConsumerKey),
		ConsumerSecret: s.Lookup(EnvXConsumerSecret),
		AccessToken:    s.Lookup(EnvXAccessToken),
		AccessSecret:   s.Lookup(EnvXAccessSecret),
	}
}

// LoadEncrypted decrypts the file at path into a new Secrets.
func LoadEncrypted(path, password string) (*Secrets, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets file: %w", err)
	}
	if info.Mode().Perm() != 0600 {
		logger.Warn("Secrets file %s has permissions %04o, correcting to 0600", path, info.Mode().Perm())
		if chmodErr := os.Chmod(path, 0600); chmodErr != nil {
			return nil, fmt.Errorf("failed to fix file permissions: %w", chmodErr)
		}
	}

	fileData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	values, err := decrypt(fileData, password)
	if err != nil {
		return nil, err
	}
	return &Secrets{values: values}, nil
}

// SaveEncrypted encrypts the in-memory secrets to path with 0600 permissions.
func (s *Secrets) SaveEncrypted(path, password string) error {
	s.mu.RLock()
	plaintext, err := json.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	fileData, err := encrypt(plaintext, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	if err := os.WriteFile(path, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

func deriveGCM(password string, salt []byte) (cipher.AEAD, error) {
	passwordBytes := []byte(password)
	defer zero(passwordBytes)

	key, err := scrypt.Key(passwordBytes, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func encrypt(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	gcm, err := deriveGCM(password, salt)
	if err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

func decrypt(fileData []byte, password string) (map[string]string, error) {
	if len(fileData) < saltSize+nonceSize+gcmTagSize {
		return nil, fmt.Errorf("secrets file is corrupted or invalid format (too small)")
	}
	salt := fileData[:saltSize]
	nonce := fileData[saltSize : saltSize+nonceSize]
	ciphertext := fileData[saltSize+nonceSize:]

	gcm, err := deriveGCM(password, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	defer zero(plaintext)

	values := make(map[string]string)
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return values, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
