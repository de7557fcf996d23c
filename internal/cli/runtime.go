package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/terraincognita07/tukicale/internal/calendar"
	"github.com/terraincognita07/tukicale/internal/config"
	"github.com/terraincognita07/tukicale/internal/db"
	"github.com/terraincognita07/tukicale/internal/i18n"
	"github.com/terraincognita07/tukicale/internal/security"
	"github.com/terraincognita07/tukicale/internal/services"
	"gorm.io/gorm"
)

// googleRedirectURL is the loopback address registered for the desktop OAuth
// client. The user copies the code parameter from the browser.
const googleRedirectURL = "http://127.0.0.1"

var ErrGoogleNotLinked = errors.New("google calendar is not linked; run `tukicale link google` first")

// runtime is everything a command needs after the config is loaded.
type runtime struct {
	cfg          *config.Config
	database     *gorm.DB
	repositories *db.Repositories
	i18n         *i18n.Manager
	tokens       *calendar.TokenStore
	mirror       services.CalendarMirror
	feed         *calendar.ICSMirror
	reconciler   *services.Reconciler
	sync         *services.SyncService
	records      *services.RecordService
	settings     *services.SettingsService
	stats        *services.StatsService
	exports      *services.ExportService
}

type runtimeOptions struct {
	// mirror replaces the configured backend, used for dry runs.
	mirror services.CalendarMirror
}

func openRuntime(ctx context.Context, configPath string, options runtimeOptions) (*runtime, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	rt := &runtime{
		cfg:          cfg,
		database:     database,
		repositories: db.NewRepositories(database),
	}
	if err := rt.init(ctx, options); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) init(ctx context.Context, options runtimeOptions) error {
	manager, err := i18n.NewManager(rt.cfg.Language)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}
	rt.i18n = manager

	sealer, err := security.NewSealer(rt.cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("sealer init failed: %w", err)
	}
	rt.tokens = calendar.NewTokenStore(rt.repositories.Profile, sealer)

	mirror := options.mirror
	if mirror == nil {
		mirror, err = rt.openMirror(ctx)
		if err != nil {
			return err
		}
	}
	rt.mirror = mirror

	features := rt.cfg.FeatureFlags()
	var syncer services.CalendarSyncer
	if rt.mirror != nil {
		reconcilerOptions := rt.cfg.ReconcilerOptions()
		reconcilerOptions.Labels = rt.i18n.EventLabels(rt.cfg.Language)
		rt.reconciler = services.NewReconciler(rt.mirror, reconcilerOptions)
		rt.sync = services.NewSyncService(rt.reconciler, rt.repositories.Profile, rt.repositories.Records, features)
		syncer = rt.sync
	}

	rt.records = services.NewRecordService(rt.repositories.Records, syncer, features)
	rt.settings = services.NewSettingsService(rt.repositories.Profile, syncer, features)
	rt.stats = services.NewStatsService(rt.repositories.Records)
	rt.exports = services.NewExportService(rt.repositories.Records, features)

	if err := rt.settings.EnsureInitialized(ctx, rt.cfg.Sync.Defaults); err != nil {
		return fmt.Errorf("profile init failed: %w", err)
	}
	return nil
}

func (rt *runtime) openMirror(ctx context.Context) (services.CalendarMirror, error) {
	switch rt.cfg.Calendar.Backend {
	case config.BackendGoogle:
		token, err := rt.tokens.Load(ctx)
		if errors.Is(err, calendar.ErrTokenMissing) && strings.TrimSpace(rt.cfg.Google.TokenFile) != "" {
			token, err = rt.tokens.ImportFile(ctx, rt.cfg.Google.TokenFile)
		}
		if errors.Is(err, calendar.ErrTokenMissing) {
			return nil, ErrGoogleNotLinked
		}
		if err != nil {
			return nil, fmt.Errorf("google token load failed: %w", err)
		}
		clientID, clientSecret, err := rt.googleClientCredentials(ctx)
		if err != nil {
			return nil, err
		}
		oauthConfig := calendar.GoogleOAuthConfig(clientID, clientSecret, googleRedirectURL)
		httpClient := calendar.NewGoogleHTTPClient(context.Background(), oauthConfig, token, rt.tokens)
		return calendar.NewGoogleMirror(httpClient, calendar.WithTimeZone(rt.cfg.Location().String())), nil
	case config.BackendICS:
		rt.feed = calendar.NewICSMirror(rt.cfg.Calendar.ICSDir)
		return rt.feed, nil
	default:
		log.Printf("calendar backend disabled, records will not be mirrored")
		return nil, nil
	}
}

// googleClientCredentials prefers the config (or GOOGLE_CLIENT_ID /
// GOOGLE_CLIENT_SECRET) and falls back to the secret sealed by `link google`.
// Without a secret every token refresh is rejected, so it fails here instead.
func (rt *runtime) googleClientCredentials(ctx context.Context) (string, string, error) {
	clientID := strings.TrimSpace(rt.cfg.Google.ClientID)
	if clientID == "" {
		return "", "", ErrClientIDRequired
	}
	if secret := strings.TrimSpace(rt.cfg.Google.ClientSecret); secret != "" {
		return clientID, secret, nil
	}

	secret, err := rt.tokens.LoadClientSecret(ctx)
	if err != nil {
		return "", "", fmt.Errorf("google client secret load failed: %w", err)
	}
	if secret == "" {
		return "", "", fmt.Errorf("%w: rerun `tukicale link google` or set GOOGLE_CLIENT_SECRET", ErrClientSecretRequired)
	}
	return clientID, secret, nil
}

func (rt *runtime) now() time.Time {
	return time.Now()
}

func (rt *runtime) Close() {
	if rt.database == nil {
		return
	}
	if err := db.Close(rt.database); err != nil {
		log.Printf("database close failed: %v", err)
	}
}
