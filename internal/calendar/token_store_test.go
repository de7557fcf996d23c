package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/terraincognita07/tukicale/internal/security"
	"golang.org/x/oauth2"
)

type memoryTokenRepository struct {
	sealed       string
	saves        int
	sealedSecret string
}

func (repo *memoryTokenRepository) LoadSealedClientSecret(context.Context) (string, error) {
	return repo.sealedSecret, nil
}

func (repo *memoryTokenRepository) SaveSealedClientSecret(_ context.Context, sealed string) error {
	repo.sealedSecret = sealed
	return nil
}

func (repo *memoryTokenRepository) LoadSealedToken(context.Context) (string, error) {
	return repo.sealed, nil
}

func (repo *memoryTokenRepository) SaveSealedToken(_ context.Context, sealed string) error {
	repo.sealed = sealed
	repo.saves++
	return nil
}

type sequenceTokenSource struct {
	tokens []*oauth2.Token
	index  int
}

func (source *sequenceTokenSource) Token() (*oauth2.Token, error) {
	token := source.tokens[source.index]
	if source.index < len(source.tokens)-1 {
		source.index++
	}
	return token, nil
}

func newTestTokenStore(t *testing.T) (*TokenStore, *memoryTokenRepository) {
	t.Helper()
	sealer, err := security.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("NewSealer() unexpected error: %v", err)
	}
	repo := &memoryTokenRepository{}
	return NewTokenStore(repo, sealer), repo
}

func TestTokenStoreRoundTripIsSealed(t *testing.T) {
	store, repo := newTestTokenStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing on empty store, got %v", err)
	}

	token := &oauth2.Token{AccessToken: "access-123", RefreshToken: "refresh-456", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := store.Save(ctx, token); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if strings.Contains(repo.sealed, "refresh-456") {
		t.Fatalf("expected token to be sealed, got %q", repo.sealed)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.AccessToken != "access-123" || loaded.RefreshToken != "refresh-456" || !loaded.Expiry.Equal(token.Expiry) {
		t.Fatalf("unexpected loaded token: %#v", loaded)
	}
}

func TestTokenStoreImportFile(t *testing.T) {
	store, repo := newTestTokenStore(t)
	path := filepath.Join(t.TempDir(), "token.json")
	content, _ := json.Marshal(oauth2.Token{RefreshToken: "refresh-only"})
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	token, err := store.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile() unexpected error: %v", err)
	}
	if token.RefreshToken != "refresh-only" || repo.saves != 1 {
		t.Fatalf("expected imported token to be saved once, got %#v saves=%d", token, repo.saves)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write empty token file: %v", err)
	}
	if _, err := store.ImportFile(context.Background(), empty); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing for empty token, got %v", err)
	}
}

func TestSavingTokenSourcePersistsOnlyChangedTokens(t *testing.T) {
	store, repo := newTestTokenStore(t)
	source := &savingTokenSource{
		ctx: context.Background(),
		source: &sequenceTokenSource{tokens: []*oauth2.Token{
			{AccessToken: "first"},
			{AccessToken: "first"},
			{AccessToken: "second"},
		}},
		store:   store,
		current: "first",
	}

	for i := 0; i < 3; i++ {
		if _, err := source.Token(); err != nil {
			t.Fatalf("Token() unexpected error: %v", err)
		}
	}
	if repo.saves != 1 {
		t.Fatalf("expected one save for the refreshed token, got %d", repo.saves)
	}
	loaded, err := store.Load(context.Background())
	if err != nil || loaded.AccessToken != "second" {
		t.Fatalf("expected refreshed token persisted, got %#v err=%v", loaded, err)
	}
}

func TestTokenStoreClientSecretIsSealed(t *testing.T) {
	store, repo := newTestTokenStore(t)
	ctx := context.Background()

	secret, err := store.LoadClientSecret(ctx)
	if err != nil || secret != "" {
		t.Fatalf("expected no stored secret, got %q, %v", secret, err)
	}

	if err := store.SaveClientSecret(ctx, "  client-secret-1 "); err != nil {
		t.Fatalf("SaveClientSecret() unexpected error: %v", err)
	}
	if repo.sealedSecret == "" || strings.Contains(repo.sealedSecret, "client-secret-1") {
		t.Fatalf("expected sealed secret, got %q", repo.sealedSecret)
	}

	secret, err = store.LoadClientSecret(ctx)
	if err != nil || secret != "client-secret-1" {
		t.Fatalf("LoadClientSecret() = %q, %v", secret, err)
	}
}

func TestRefreshSendsClientSecret(t *testing.T) {
	var refreshSecret string
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		refreshSecret = r.PostForm.Get("client_secret")
		if refreshSecret == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	var authorization string
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"cal-1","summary":"TukiCale"}]}`))
	}))
	defer apiServer.Close()

	store, _ := newTestTokenStore(t)
	oauthConfig := GoogleOAuthConfig("client-id", "client-secret", "http://127.0.0.1")
	oauthConfig.Endpoint.TokenURL = tokenServer.URL
	expired := &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh-1", Expiry: time.Now().Add(-time.Hour)}

	mirror := NewGoogleMirror(NewGoogleHTTPClient(context.Background(), oauthConfig, expired, store), WithBaseURL(apiServer.URL))
	calendarID, err := mirror.ResolveCalendar(context.Background(), "TukiCale")
	if err != nil {
		t.Fatalf("ResolveCalendar() unexpected error: %v", err)
	}
	if calendarID != "cal-1" || refreshSecret != "client-secret" || authorization != "Bearer fresh" {
		t.Fatalf("calendar=%q secret=%q authorization=%q", calendarID, refreshSecret, authorization)
	}
}
