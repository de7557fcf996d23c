package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tukicale/internal/calendar"
	"github.com/terraincognita07/tukicale/internal/db"
	"github.com/terraincognita07/tukicale/internal/i18n"
	"github.com/terraincognita07/tukicale/internal/services"
)

const testSecretKey = "test-secret-key"

type testApp struct {
	app    *fiber.App
	mirror *calendar.MemoryMirror
	token  string
	now    time.Time
}

type testAppOptions struct {
	features services.FeatureFlags
	feed     FeedWriter
	noSync   bool
}

func fixedTestNow() time.Time {
	return time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
}

func newTestApp(t *testing.T, options testAppOptions) *testApp {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "tukicale.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})
	repositories := db.NewRepositories(database)

	i18nManager, err := i18n.NewManager("ja")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	now := fixedTestNow()
	clock := func() time.Time { return now }
	mirror := calendar.NewMemoryMirror()

	var syncService *services.SyncService
	var syncer services.CalendarSyncer
	if !options.noSync {
		reconciler := services.NewReconciler(mirror, services.ReconcilerOptions{
			Labels: i18nManager.EventLabels("ja"),
			Now:    clock,
		})
		syncService = services.NewSyncService(reconciler, repositories.Profile, repositories.Records, options.features)
		syncer = syncService
	}

	handler, err := NewHandler(Dependencies{
		Records:   services.NewRecordService(repositories.Records, syncer, options.features),
		Settings:  services.NewSettingsService(repositories.Profile, syncer, options.features),
		Stats:     services.NewStatsService(repositories.Records),
		Exports:   services.NewExportService(repositories.Records, options.features),
		Sync:      syncService,
		I18n:      i18nManager,
		Feed:      options.feed,
		SecretKey: testSecretKey,
		Location:  time.UTC,
		Now:       clock,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)

	token, err := IssueToken(testSecretKey, "owner", time.Hour, now)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	return &testApp{app: app, mirror: mirror, token: token, now: now}
}

func (ta *testApp) request(t *testing.T, method string, path string, body any) *http.Response {
	t.Helper()
	return ta.requestWithToken(t, method, path, body, ta.token)
}

func (ta *testApp) requestWithToken(t *testing.T, method string, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	switch value := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if reader != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := ta.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return response
}

func decodeJSON(t *testing.T, response *http.Response) map[string]any {
	t.Helper()
	defer response.Body.Close()

	payload := map[string]any{}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func readBody(t *testing.T, response *http.Response) string {
	t.Helper()
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(content)
}

func assertStatus(t *testing.T, response *http.Response, expected int) {
	t.Helper()
	if response.StatusCode != expected {
		body, _ := io.ReadAll(response.Body)
		t.Fatalf("expected status %d, got %d: %s", expected, response.StatusCode, string(body))
	}
}
