package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/densify/internal/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := filepath.Join(t.TempDir(), "xdg")
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestFileCacheDirPrefersConfig(t *testing.T) {
	dir, err := fileCacheDir(config.CacheConfig{Dir: "/var/cache/densify"})
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/var/cache/densify" {
		t.Errorf("fileCacheDir() = %q, want configured dir", dir)
	}
}
