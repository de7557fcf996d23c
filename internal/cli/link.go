package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/terraincognita07/tukicale/internal/calendar"
	"github.com/terraincognita07/tukicale/internal/config"
	"github.com/terraincognita07/tukicale/internal/db"
	"github.com/terraincognita07/tukicale/internal/security"
	"golang.org/x/oauth2"
)

const oauthStateLength = 24

var (
	ErrClientIDRequired     = errors.New("google.client_id is required")
	ErrClientSecretRequired = errors.New("google.client_secret is required")
	ErrAuthorizationCode    = errors.New("authorization code is missing")
	ErrOAuthStateMismatch   = errors.New("oauth state mismatch")

	errNotTerminal = errors.New("stdin is not a terminal")
)

// googleLinker runs the installed-app OAuth flow and stores the resulting
// token sealed in the profile row.
type googleLinker struct {
	oauth *oauth2.Config
	store *calendar.TokenStore
	state string
	// clientSecret is sealed after a successful exchange; empty when the
	// config already carries one.
	clientSecret string
}

func newGoogleLinker(oauthConfig *oauth2.Config, store *calendar.TokenStore) (*googleLinker, error) {
	state, err := security.RandomString(oauthStateLength, security.SecretKeyAlphabet)
	if err != nil {
		return nil, fmt.Errorf("generate oauth state: %w", err)
	}
	return &googleLinker{oauth: oauthConfig, store: store, state: state}, nil
}

func (linker *googleLinker) AuthCodeURL() string {
	return linker.oauth.AuthCodeURL(linker.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Complete accepts either the bare code or the full redirect URL pasted from
// the browser.
func (linker *googleLinker) Complete(ctx context.Context, pasted string) error {
	code, state, err := parseAuthorizationResponse(pasted)
	if err != nil {
		return err
	}
	if state != "" && state != linker.state {
		return ErrOAuthStateMismatch
	}

	token, err := linker.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := linker.store.Save(ctx, token); err != nil {
		return err
	}
	if linker.clientSecret == "" {
		return nil
	}
	return linker.store.SaveClientSecret(ctx, linker.clientSecret)
}

func parseAuthorizationResponse(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrAuthorizationCode
	}
	if !strings.Contains(raw, "code=") {
		return raw, "", nil
	}

	query := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.RawQuery != "" {
		query = parsed.RawQuery
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrAuthorizationCode, err)
	}
	code := strings.TrimSpace(values.Get("code"))
	if code == "" {
		return "", "", ErrAuthorizationCode
	}
	return code, values.Get("state"), nil
}

// RunLinkGoogle authorises TukiCale against the configured Google OAuth
// client. A client secret prompted for here is sealed into the profile row
// next to the token, never into the config file.
func RunLinkGoogle(ctx context.Context, configPath string, stdin *os.File, out io.Writer) error {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if strings.TrimSpace(cfg.Google.ClientID) == "" {
		return ErrClientIDRequired
	}

	clientSecret := strings.TrimSpace(cfg.Google.ClientSecret)
	prompted := clientSecret == ""
	if prompted {
		fmt.Fprint(out, "Google client secret: ")
		clientSecret, err = readSecretNoEcho(stdin)
		fmt.Fprintln(out)
		clientSecret = strings.TrimSpace(clientSecret)
		if err != nil || clientSecret == "" {
			return ErrClientSecretRequired
		}
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer db.Close(database)

	sealer, err := security.NewSealer(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("sealer init failed: %w", err)
	}
	store := calendar.NewTokenStore(db.NewProfileRepository(database), sealer)

	linker, err := newGoogleLinker(calendar.GoogleOAuthConfig(cfg.Google.ClientID, clientSecret, googleRedirectURL), store)
	if err != nil {
		return err
	}
	if prompted {
		linker.clientSecret = clientSecret
	}

	fmt.Fprintln(out, "Open this URL in a browser and approve access:")
	fmt.Fprintln(out, linker.AuthCodeURL())
	fmt.Fprint(out, "Paste the redirect URL or code: ")
	pasted, err := readLine(stdin)
	if err != nil {
		return err
	}
	if err := linker.Complete(ctx, pasted); err != nil {
		return err
	}

	fmt.Fprintln(out, "Google Calendar linked.")
	if cfg.Calendar.Backend != config.BackendGoogle {
		fmt.Fprintf(out, "Set calendar.backend to %q to start mirroring.\n", config.BackendGoogle)
	}
	return nil
}

// readLine reads up to a newline one byte at a time, so nothing past the line
// is consumed from a shared stdin.
func readLine(input io.Reader) (string, error) {
	var line strings.Builder
	buffer := make([]byte, 1)
	for {
		n, err := input.Read(buffer)
		if n > 0 {
			if buffer[0] == '\n' {
				break
			}
			line.WriteByte(buffer[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(line.String(), "\r"), nil
}
