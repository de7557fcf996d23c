package db

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestOpenSQLiteRestrictsFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "nested", "tukicale.db")

	database, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = Close(database) })

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat db file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("expected 0600, got %o", mode)
	}
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatal("expected empty path to fail")
	}
}

func TestSQLiteDSNCarriesPragmas(t *testing.T) {
	dsn := sqliteDSN("/data/tukicale.db")
	if !strings.HasPrefix(dsn, "/data/tukicale.db?") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	for _, pragma := range []string{"_pragma=foreign_keys(1)", "_pragma=journal_mode(WAL)"} {
		if !strings.Contains(dsn, pragma) {
			t.Fatalf("expected %q in %q", pragma, dsn)
		}
	}
}
