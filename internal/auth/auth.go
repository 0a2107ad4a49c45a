// Package auth issues and verifies desk API keys and serves the simulated
// login. API keys pair an id with a TOTP secret: the caller proves
// possession by sending a current code, never the secret itself.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
)

var (
	ErrUnknownKey  = errors.New("unknown api key")
	ErrBadCode     = errors.New("invalid totp code")
	ErrCredentials = errors.New("invalid credentials")
)

// APIKey is a freshly issued key pair. The secret is returned exactly once,
// at issue time.
type APIKey struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// User is the simulated authenticated user.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service keeps issued keys in memory for the process lifetime, matching
// the account's own lifecycle.
type Service struct {
	mu      sync.Mutex
	secrets map[string]string // key id -> totp secret
}

// NewService returns an empty key store.
func NewService() *Service {
	return &Service{secrets: make(map[string]string)}
}

// GenerateKey issues a new API key with a TOTP secret.
func (s *Service) GenerateKey() (APIKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "papertrade",
		AccountName: "api-key",
	})
	if err != nil {
		return APIKey{}, fmt.Errorf("generate totp secret: %w", err)
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return APIKey{}, fmt.Errorf("generate key id: %w", err)
	}
	id := "ik_" + hex.EncodeToString(buf[:])

	s.mu.Lock()
	s.secrets[id] = key.Secret()
	s.mu.Unlock()

	log.Printf("[auth] issued api key %s", id)
	return APIKey{Key: id, Secret: key.Secret()}, nil
}

// VerifyKey checks a current TOTP code for the given key id.
func (s *Service) VerifyKey(keyID, code string) error {
	s.mu.Lock()
	secret, ok := s.secrets[keyID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, keyID)
	}
	if !totp.Validate(code, secret) {
		return ErrBadCode
	}
	return nil
}

// CurrentCode returns the code a key holder would submit right now. Used by
// the desk's own tooling and tests.
func (s *Service) CurrentCode(keyID string) (string, error) {
	s.mu.Lock()
	secret, ok := s.secrets[keyID]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, keyID)
	}
	return totp.GenerateCode(secret, time.Now())
}

// Login simulates authentication: any non-empty email/password pair
// succeeds. There is no user database behind the desk.
func (s *Service) Login(email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, ErrCredentials
	}
	return User{Name: "Trader", Email: email}, nil
}
