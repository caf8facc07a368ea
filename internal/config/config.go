package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken   string         `yaml:"discord_token"`
	CommandGuildID string         `yaml:"command_guild_id"`
	LogLevel       string         `yaml:"log_level"`
	RetentionDays  int            `yaml:"retention_days"`
	Database       DatabaseConfig `yaml:"database"`
	Redis          RedisConfig    `yaml:"redis"`
	Health         HealthConfig   `yaml:"health"`
	Casino         CasinoConfig   `yaml:"casino"`
	Notifications  NotifyConfig   `yaml:"notifications"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type CasinoConfig struct {
	StartingBalance        int64 `yaml:"starting_balance"`
	MinBet                 int64 `yaml:"min_bet"`
	MaxBet                 int64 `yaml:"max_bet"`
	SessionTTLSeconds      int   `yaml:"session_ttl_seconds"`
	SweepIntervalSeconds   int   `yaml:"sweep_interval_seconds"`
	RateLimitBets          int   `yaml:"rate_limit_bets"`
	RateLimitWindowSeconds int   `yaml:"rate_limit_window_seconds"`
	LeaderboardSize        int   `yaml:"leaderboard_size"`
}

type NotifyConfig struct {
	BigWinsEnabled   bool        `yaml:"big_wins_enabled"`
	BigWinMultiplier float64     `yaml:"big_win_multiplier"`
	EmbedColors      EmbedColors `yaml:"embed_colors"`
}

type EmbedColors struct {
	Win     int `yaml:"win"`
	Loss    int `yaml:"loss"`
	Neutral int `yaml:"neutral"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		RetentionDays: 30,
		Database:      DatabaseConfig{Driver: "sqlite", Path: "/data/croupier.db", MaxConns: 8},
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		Casino: CasinoConfig{
			StartingBalance:        1000,
			MinBet:                 10,
			MaxBet:                 100000,
			SessionTTLSeconds:      180,
			SweepIntervalSeconds:   30,
			RateLimitBets:          10,
			RateLimitWindowSeconds: 10,
			LeaderboardSize:        10,
		},
		Notifications: NotifyConfig{
			BigWinsEnabled:   true,
			BigWinMultiplier: 10,
			EmbedColors: EmbedColors{
				Win:     0x22C55E,
				Loss:    0xEF4444,
				Neutral: 0x3B82F6,
				Error:   0xF97316,
			},
		},
	}
}

// Load reads .env (without overriding the environment), then the YAML file, then env overrides.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, err
		}
	}

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.CommandGuildID = envString("COMMAND_GUILD_ID", cfg.CommandGuildID)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Database.Driver = envString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = envString("DATABASE_PATH", cfg.Database.Path)
	cfg.Database.DSN = envString("DATABASE_DSN", cfg.Database.DSN)
	cfg.Database.MaxConns = envInt("DATABASE_MAX_CONNS", cfg.Database.MaxConns)
	cfg.Redis.Addr = envString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Casino.StartingBalance = envInt64("CASINO_STARTING_BALANCE", cfg.Casino.StartingBalance)
	cfg.Casino.MinBet = envInt64("CASINO_MIN_BET", cfg.Casino.MinBet)
	cfg.Casino.MaxBet = envInt64("CASINO_MAX_BET", cfg.Casino.MaxBet)
	cfg.Casino.SessionTTLSeconds = envInt("CASINO_SESSION_TTL_SECONDS", cfg.Casino.SessionTTLSeconds)
	cfg.Casino.RateLimitBets = envInt("CASINO_RATE_LIMIT_BETS", cfg.Casino.RateLimitBets)
	cfg.Casino.RateLimitWindowSeconds = envInt("CASINO_RATE_LIMIT_WINDOW_SECONDS", cfg.Casino.RateLimitWindowSeconds)
	cfg.Notifications.BigWinsEnabled = envBool("BIG_WINS_ENABLED", cfg.Notifications.BigWinsEnabled)
	cfg.Notifications.BigWinMultiplier = envFloat("BIG_WIN_MULTIPLIER", cfg.Notifications.BigWinMultiplier)
}

func validate(cfg *Config) error {
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	switch cfg.Database.Driver {
	case "", "sqlite":
		cfg.Database.Driver = "sqlite"
	case "postgres":
		if cfg.Database.DSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return errors.New("database driver must be sqlite or postgres")
	}
	if cfg.Casino.MinBet <= 0 || cfg.Casino.MaxBet < cfg.Casino.MinBet {
		return errors.New("casino bet limits must satisfy 0 < min_bet <= max_bet")
	}
	if cfg.Casino.StartingBalance < 0 {
		return errors.New("casino starting balance must not be negative")
	}
	return nil
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))
	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
