package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{
		{"serve"}, {"sync"}, {"predict"}, {"import"}, {"export"}, {"token"}, {"link", "google"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Fatalf("expected command %v to be registered, got %v", path, err)
		}
	}
}

func TestTokenCommandWritesToken(t *testing.T) {
	for _, key := range []string{"TUKICALE_CONFIG", "DB_PATH", "PORT", "TZ", "SECRET_KEY", "DEFAULT_LANGUAGE", "CALENDAR_BACKEND", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"} {
		t.Setenv(key, "")
	}
	configPath := filepath.Join(t.TempDir(), "tukicale.yaml")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", configPath, "token", "--ttl", "1h"})
	if err := root.Execute(); err != nil {
		t.Fatalf("token command returned error: %v", err)
	}

	if parts := strings.Split(strings.TrimSpace(out.String()), "."); len(parts) != 3 {
		t.Fatalf("expected a JWT, got %q", out.String())
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config to be created on first run: %v", err)
	}
}

func TestImportCommandRequiresPath(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"import"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected missing argument error")
	}
}
