package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	// Verify the expected structure: $HOME/.cache/stochfold
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "stochfold")
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dir, xdg) || filepath.Base(dir) != "stochfold" {
		t.Errorf("cacheDir() = %q, want under %q", dir, xdg)
	}
}

func TestCLICacheDirFromConfig(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.Config.Cache.Dir = "/tmp/tables"
	dir, err := c.cacheDir()
	if err != nil || dir != "/tmp/tables" {
		t.Errorf("cacheDir() = %q, %v", dir, err)
	}
}
