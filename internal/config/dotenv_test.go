package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "FRONTEND_ORIGIN", "COUNTDOWN_SECONDS", "DATABASE_URL", "LOG_PRETTY"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Addr != ":4000" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard origin, got %v", cfg.AllowedOrigins)
	}
	if cfg.CountdownDelay() != 3*time.Second || cfg.VotePause() != 3*time.Second {
		t.Fatalf("expected 3s delays, got %s and %s", cfg.CountdownDelay(), cfg.VotePause())
	}
	if cfg.MaxClipBytes != 50<<20 || cfg.MaxClipsPerUpload != 10 {
		t.Fatalf("unexpected clip limits: %d bytes, %d files", cfg.MaxClipBytes, cfg.MaxClipsPerUpload)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected journal disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("FRONTEND_ORIGIN", "http://a.test, http://b.test")
	t.Setenv("COUNTDOWN_SECONDS", "5")
	t.Setenv("VOTE_PAUSE_SECONDS", "-1")
	t.Setenv("MAX_CLIP_BYTES", "1024")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("EVENTS_PER_SECOND", "2.5")
	t.Setenv("EVENT_BURST", "nope")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.Addr)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("expected two trimmed origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.CountdownSeconds != 5 {
		t.Fatalf("expected countdown 5, got %d", cfg.CountdownSeconds)
	}
	if cfg.VotePauseSeconds != 3 {
		t.Fatalf("expected invalid pause to fall back, got %d", cfg.VotePauseSeconds)
	}
	if cfg.MaxClipBytes != 1024 {
		t.Fatalf("expected 1024 clip bytes, got %d", cfg.MaxClipBytes)
	}
	if cfg.LogLevel != "debug" || cfg.LogPretty {
		t.Fatalf("unexpected log settings: %q pretty=%v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.EventsPerSecond != 2.5 || cfg.EventBurst != 20 {
		t.Fatalf("unexpected rate settings: %v/%d", cfg.EventsPerSecond, cfg.EventBurst)
	}
}

func TestLoadDotEnvMissingFileIsFine(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CLIPS_DIR=from-file\nUPLOADS_DIR=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CLIPS_DIR", "from-env")
	t.Setenv("UPLOADS_DIR", "")
	os.Unsetenv("UPLOADS_DIR")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("CLIPS_DIR"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := os.Getenv("UPLOADS_DIR"); got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}
