package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("log_level: debug\ncasino:\n  min_bet: 25\n  max_bet: 5000\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("CASINO_MAX_BET", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Casino.MinBet != 25 || cfg.Casino.MaxBet != 9000 {
		t.Fatalf("unexpected config %+v", cfg.Casino)
	}
	if cfg.Casino.SessionTTLSeconds != 180 || cfg.Database.Driver != "sqlite" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("DISCORD_TOKEN=from-file\nCASINO_MIN_BET=50\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "none.yaml"))
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("CASINO_MIN_BET", "")
	os.Unsetenv("CASINO_MIN_BET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "from-env" {
		t.Fatalf("dotenv overrode the environment: %q", cfg.DiscordToken)
	}
	if cfg.Casino.MinBet != 50 {
		t.Fatalf("expected min bet from .env, got %d", cfg.Casino.MinBet)
	}
}

func TestLoadRejectsBadSettings(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "none.yaml"))
	t.Setenv("DISCORD_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing token error")
	}

	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DATABASE_DRIVER", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing dsn error")
	}

	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("CASINO_MIN_BET", "500")
	t.Setenv("CASINO_MAX_BET", "100")
	if _, err := Load(); err == nil {
		t.Fatalf("expected bet limit error")
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warn").String() != "warn" || parseLevel("bogus").String() != "info" {
		t.Fatalf("unexpected level mapping")
	}
}
