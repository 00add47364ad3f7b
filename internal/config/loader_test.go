package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// TestLoadDefaultsOnly verifies missing files fall through to defaults.
func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Runtime.TeamSize != 1 {
		t.Fatalf("TeamSize = %d, want default 1", cfg.Runtime.TeamSize)
	}
	if cfg.Monitor.RefreshMillis != 200 {
		t.Fatalf("RefreshMillis = %d, want default 200", cfg.Monitor.RefreshMillis)
	}
}

// TestLoadMergePrecedence verifies project settings override global
// settings, which override defaults.
func TestLoadMergePrecedence(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.json", `{
		"runtime": {"workers": 2, "team_size": 2},
		"pool": {"capacity_bytes": 4096}
	}`)
	project := writeFile(t, dir, "project.json", `{
		"runtime": {"workers": 8}
	}`)

	cfg, err := Load(global, project)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Runtime.Workers != 8 {
		t.Fatalf("Workers = %d, want project override 8", cfg.Runtime.Workers)
	}
	if cfg.Runtime.TeamSize != 2 {
		t.Fatalf("TeamSize = %d, want global 2", cfg.Runtime.TeamSize)
	}
	if cfg.Pool.CapacityBytes != 4096 {
		t.Fatalf("CapacityBytes = %d, want global 4096", cfg.Pool.CapacityBytes)
	}
	if cfg.Pool.MinBlockBytes != 64 {
		t.Fatalf("MinBlockBytes = %d, want default 64", cfg.Pool.MinBlockBytes)
	}
}

// TestLoadMalformedJSON verifies parse errors are surfaced.
func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{not json`)

	if _, err := Load(bad, ""); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

// TestSaveRoundTrip verifies Save output loads back identically.
func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Runtime.Workers = 6
	cfg.Runtime.Serial = true
	cfg.Monitor.Enabled = true

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Runtime.Workers != 6 || !loaded.Runtime.Serial || !loaded.Monitor.Enabled {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}
