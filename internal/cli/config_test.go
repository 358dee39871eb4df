package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/stochfold/pkg/fold"
	"github.com/matzehuels/stochfold/pkg/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[model]
temperature = 25.0
min_loop = 0
circular = true

[sampling]
seed = 9
workers = 3

[cache]
redis_addr = "localhost:6379"
ttl = "24h"

[server]
addr = ":9090"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	md := cfg.model()
	want := fold.DefaultModel()
	want.Temperature = 25
	want.MinLoop = 0
	want.Circular = true
	if md.Temperature != want.Temperature || md.MinLoop != want.MinLoop || md.Circular != want.Circular || md.MaxLoop != want.MaxLoop {
		t.Errorf("model() = %+v, want %+v", md, want)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}

	flagSeed := uint64(0)
	opts := pipeline.Options{Seed: &flagSeed}
	cfg.apply(&opts)
	if opts.Seed == nil || *opts.Seed != 0 {
		t.Errorf("flag seed 0 overridden: %v", opts.Seed)
	}
	var unset pipeline.Options
	cfg.apply(&unset)
	if unset.Seed == nil || *unset.Seed != 9 {
		t.Errorf("config seed not applied: %v", unset.Seed)
	}
	if opts.Workers != 3 {
		t.Errorf("Workers = %d, want 3", opts.Workers)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.model() != fold.DefaultModel() {
		t.Errorf("empty config model = %+v", cfg.model())
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "[cache]\nttl = \"soon\"\n")
	if _, err := loadConfig(path); err == nil {
		t.Error("invalid duration should fail")
	}
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	p, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "stochfold", "config.toml"); p != want {
		t.Errorf("configPath() = %q, want %q", p, want)
	}
}
