package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/densify/internal/config"
	"github.com/matzehuels/densify/pkg/cache"
)

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "densify.toml")
	cacheDirPath := filepath.Join(dir, "c")
	if err := os.WriteFile(cfgPath, []byte("[cache]\ndir = \""+filepath.ToSlash(cacheDirPath)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path", "--config", cfgPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path: %v", err)
	}

	if got := strings.TrimSpace(out.String()); got != filepath.ToSlash(cacheDirPath) {
		t.Errorf("cache path = %q, want %q", got, cacheDirPath)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(t.TempDir(), "densify.yaml")
	if err := os.WriteFile(cfgPath, []byte("cache:\n  dir: "+filepath.ToSlash(dir)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear", "-c", cfgPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache clear: %v", err)
	}

	if _, hit, _ := fc.Get(ctx, "k"); hit {
		t.Error("entry should be gone after cache clear")
	}
}

func TestCacheConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cc, err := cacheConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cc.Backend != config.BackendFile {
		t.Errorf("backend = %q, want %q", cc.Backend, config.BackendFile)
	}
}
