package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"jira-askbot/internal/common/cache"
	"jira-askbot/internal/models"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const DefaultCredentialsTTL = 2 * time.Hour

// sealedVersion is prepended to every sealed blob and authenticated with it.
const sealedVersion byte = 0x01

var hkdfInfo = []byte("askbot.credentials.v1")

var (
	ErrNoCredentials     = errors.New("NO_CREDENTIALS")
	ErrSealedDataCorrupt = errors.New("SEALED_DATA_CORRUPT")
)

// Backend is the cache surface the credential store needs.
type Backend interface {
	cache.Store
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// CredentialStore keeps each chat user's tracker credentials sealed in the
// cache under user:<id>:credentials.
type CredentialStore struct {
	backend Backend
	key     []byte
	ttl     time.Duration
}

func NewCredentialStore(backend Backend, secret string, ttl time.Duration) (*CredentialStore, error) {
	if secret == "" {
		return nil, errors.New("credential store requires a secret")
	}
	if ttl <= 0 {
		ttl = DefaultCredentialsTTL
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("derive credentials key: %w", err)
	}
	return &CredentialStore{backend: backend, key: key, ttl: ttl}, nil
}

func credentialsKey(userID string) string {
	return fmt.Sprintf("user:%s:credentials", userID)
}

// Save seals creds and stores them for userID. AccountID defaults to the
// user ID so dictionaries are kept per chat user.
func (s *CredentialStore) Save(ctx context.Context, userID string, creds models.Credentials) error {
	if creds.AccountID == "" {
		creds.AccountID = userID
	}
	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	sealed, err := s.seal(plain, userID)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, credentialsKey(userID), base64.StdEncoding.EncodeToString(sealed), s.ttl)
}

// Get returns the stored credentials or ErrNoCredentials.
func (s *CredentialStore) Get(ctx context.Context, userID string) (*models.Credentials, error) {
	raw, err := s.backend.Get(ctx, credentialsKey(userID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}

	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedDataCorrupt, err)
	}
	plain, err := s.open(sealed, userID)
	if err != nil {
		return nil, err
	}

	var creds models.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedDataCorrupt, err)
	}
	return &creds, nil
}

// Credentials lets the store act as a dictionary.CredentialSource.
func (s *CredentialStore) Credentials(ctx context.Context, accountID string) (*models.Credentials, error) {
	return s.Get(ctx, accountID)
}

// InvalidateUser drops everything stored under user:<id>:.
func (s *CredentialStore) InvalidateUser(ctx context.Context, userID string) error {
	_, err := s.backend.DeletePrefix(ctx, fmt.Sprintf("user:%s:", userID))
	return err
}

// seal lays out [version | nonce | ciphertext+tag]. The user ID is bound as
// additional data so a blob cannot be replayed under another user's key.
func (s *CredentialStore) seal(plain []byte, userID string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plain)+aead.Overhead())
	out[0] = sealedVersion
	if _, err := io.ReadFull(rand.Reader, out[1:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(out, out[1:], plain, additionalData(userID)), nil
}

func (s *CredentialStore) open(sealed []byte, userID string) ([]byte, error) {
	if len(sealed) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrSealedDataCorrupt, len(sealed))
	}
	if sealed[0] != sealedVersion {
		return nil, fmt.Errorf("%w: version %d", ErrSealedDataCorrupt, sealed[0])
	}

	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := sealed[1 : 1+chacha20poly1305.NonceSizeX]
	plain, err := aead.Open(nil, nonce, sealed[1+chacha20poly1305.NonceSizeX:], additionalData(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSealedDataCorrupt, err)
	}
	return plain, nil
}

func additionalData(userID string) []byte {
	return append([]byte{sealedVersion}, userID...)
}
