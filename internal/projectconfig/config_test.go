package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingConfigYieldsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Entry != "main.blood" {
		t.Errorf("expected default entry main.blood, got %q", cfg.Entry)
	}
	if !cfg.CacheIsEnabled() {
		t.Error("expected cache enabled by default")
	}
}

func TestLoadReadsOnDiskOverrides(t *testing.T) {
	dir := t.TempDir()
	blood := filepath.Join(dir, ".blood")
	if err := os.MkdirAll(blood, 0o755); err != nil {
		t.Fatal(err)
	}
	contents := "entry: app.blood\nstdlib_root: /opt/blood/stdlib\ncache_enabled: false\n"
	if err := os.WriteFile(filepath.Join(blood, "config.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Entry != "app.blood" {
		t.Errorf("expected entry app.blood, got %q", cfg.Entry)
	}
	if cfg.StdlibRoot != "/opt/blood/stdlib" {
		t.Errorf("expected stdlib_root override, got %q", cfg.StdlibRoot)
	}
	if cfg.CacheIsEnabled() {
		t.Error("expected cache_enabled: false to be honored")
	}
}

func TestEnvOverridesStdlibRoot(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BLOOD_STDLIB", "/env/stdlib")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StdlibRoot != "/env/stdlib" {
		t.Errorf("expected BLOOD_STDLIB to override stdlib root, got %q", cfg.StdlibRoot)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	enabled := false
	cfg := &Config{Entry: "app.blood", StdlibRoot: "stdlib", CacheEnabled: &enabled}

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Entry != "app.blood" || reloaded.StdlibRoot != "stdlib" || reloaded.CacheIsEnabled() {
		t.Errorf("unexpected reloaded config: %+v", reloaded)
	}
}
