package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/terraincognita07/tukicale/internal/security"
	"golang.org/x/oauth2"
)

var ErrTokenMissing = errors.New("calendar token missing")

type SealedTokenRepository interface {
	LoadSealedToken(ctx context.Context) (string, error)
	SaveSealedToken(ctx context.Context, sealed string) error
	LoadSealedClientSecret(ctx context.Context) (string, error)
	SaveSealedClientSecret(ctx context.Context, sealed string) error
}

// TokenStore keeps the OAuth token, and a client secret entered at link
// time, sealed in the profile row.
type TokenStore struct {
	repo   SealedTokenRepository
	sealer *security.Sealer
}

func NewTokenStore(repo SealedTokenRepository, sealer *security.Sealer) *TokenStore {
	return &TokenStore{repo: repo, sealer: sealer}
}

func (store *TokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	sealed, err := store.repo.LoadSealedToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sealed token: %w", err)
	}
	if strings.TrimSpace(sealed) == "" {
		return nil, ErrTokenMissing
	}

	plaintext, err := store.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open sealed token: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(plaintext, token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

func (store *TokenStore) Save(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return ErrTokenMissing
	}
	plaintext, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	sealed, err := store.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	return store.repo.SaveSealedToken(ctx, sealed)
}

// LoadClientSecret returns "" when no secret was stored.
func (store *TokenStore) LoadClientSecret(ctx context.Context) (string, error) {
	sealed, err := store.repo.LoadSealedClientSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("load sealed client secret: %w", err)
	}
	if strings.TrimSpace(sealed) == "" {
		return "", nil
	}
	plaintext, err := store.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("open sealed client secret: %w", err)
	}
	return string(plaintext), nil
}

func (store *TokenStore) SaveClientSecret(ctx context.Context, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return store.repo.SaveSealedClientSecret(ctx, "")
	}
	sealed, err := store.sealer.Seal([]byte(secret))
	if err != nil {
		return fmt.Errorf("seal client secret: %w", err)
	}
	return store.repo.SaveSealedClientSecret(ctx, sealed)
}

// ImportFile seeds the store from a plain JSON token file.
func (store *TokenStore) ImportFile(ctx context.Context, path string) (*oauth2.Token, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(content, token); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrTokenMissing
	}
	if err := store.Save(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// savingTokenSource persists every token that differs from the last one seen.
type savingTokenSource struct {
	ctx    context.Context
	source oauth2.TokenSource
	store  *TokenStore

	mu      sync.Mutex
	current string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil || token.AccessToken == s.current {
		return token, nil
	}
	if err := s.store.Save(s.ctx, token); err != nil {
		log.Printf("persist refreshed calendar token failed: %v", err)
		return token, nil
	}
	s.current = token.AccessToken
	return token, nil
}
