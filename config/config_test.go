package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("LOG_FILE", "")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("UPDATES_PER_SECOND", "30")
	t.Setenv("UPDATE_BURST", "not-a-number")

	cfg := ServerFromEnv()
	want := DefaultServer()
	want.Addr = ":9000"
	want.Debug = true
	want.LogFile = ""
	want.CORSOrigins = []string{"http://a.test", "http://b.test"}
	want.UpdatesPerSecond = 30
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("ServerFromEnv = %+v, want %+v", cfg, want)
	}
}

func TestClientFromEnv(t *testing.T) {
	t.Setenv("PLATFORM_ROOM", "r2")
	t.Setenv("PLATFORM_CODEC", "msgpack")
	t.Setenv("TICK_RATE", "-1")

	cfg := ClientFromEnv()
	if cfg.Room != "r2" || cfg.Codec != "msgpack" {
		t.Fatalf("ClientFromEnv = %+v", cfg)
	}
	if cfg.TickRate != DefaultTickRate || cfg.ServerURL != DefaultClient().ServerURL {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PLATFORM_MAP=castle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLATFORM_MAP", "")
	os.Unsetenv("PLATFORM_MAP")

	if got := LoadDotEnv(filepath.Join(dir, "missing.env"), path); got != path {
		t.Fatalf("LoadDotEnv = %q, want %q", got, path)
	}
	if cfg := ClientFromEnv(); cfg.MapName != "castle" {
		t.Fatalf("MapName = %q", cfg.MapName)
	}
	if got := LoadDotEnv(filepath.Join(dir, "missing.env")); got != "" {
		t.Fatalf("LoadDotEnv missing = %q", got)
	}
}
