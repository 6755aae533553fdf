package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Addr                     string
	AllowedOrigins           []string
	UploadsDir               string
	ClipsDir                 string
	CountdownSeconds         int
	VotePauseSeconds         int
	MaxClipBytes             int64
	MaxClipsPerUpload        int
	MaxAudioBytes            int64
	LogLevel                 string
	LogPretty                bool
	DatabaseURL              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	EventsPerSecond          float64
	EventBurst               int
}

func Default() Config {
	return Config{
		Addr:                     ":4000",
		AllowedOrigins:           []string{"*"},
		UploadsDir:               "uploads",
		ClipsDir:                 "public",
		CountdownSeconds:         3,
		VotePauseSeconds:         3,
		MaxClipBytes:             50 << 20,
		MaxClipsPerUpload:        10,
		MaxAudioBytes:            20 << 20,
		LogLevel:                 "info",
		LogPretty:                true,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		EventsPerSecond:          10,
		EventBurst:               20,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		if strings.Contains(raw, ":") {
			cfg.Addr = raw
		} else {
			cfg.Addr = ":" + raw
		}
	}
	if raw := os.Getenv("FRONTEND_ORIGIN"); raw != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}
	if raw := os.Getenv("UPLOADS_DIR"); raw != "" {
		cfg.UploadsDir = raw
	}
	if raw := os.Getenv("CLIPS_DIR"); raw != "" {
		cfg.ClipsDir = raw
	}
	cfg.CountdownSeconds = positiveInt("COUNTDOWN_SECONDS", cfg.CountdownSeconds)
	cfg.VotePauseSeconds = positiveInt("VOTE_PAUSE_SECONDS", cfg.VotePauseSeconds)
	if raw := os.Getenv("MAX_CLIP_BYTES"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value > 0 {
			cfg.MaxClipBytes = value
		}
	}
	cfg.MaxClipsPerUpload = positiveInt("MAX_CLIPS_PER_UPLOAD", cfg.MaxClipsPerUpload)
	if raw := os.Getenv("MAX_AUDIO_BYTES"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil && value > 0 {
			cfg.MaxAudioBytes = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.DBMaxOpenConns = positiveInt("DB_MAX_OPEN_CONNS", cfg.DBMaxOpenConns)
	cfg.DBMaxIdleConns = positiveInt("DB_MAX_IDLE_CONNS", cfg.DBMaxIdleConns)
	cfg.DBConnMaxLifetimeSeconds = positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", cfg.DBConnMaxLifetimeSeconds)
	if raw := os.Getenv("EVENTS_PER_SECOND"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.EventsPerSecond = value
		}
	}
	cfg.EventBurst = positiveInt("EVENT_BURST", cfg.EventBurst)
	return cfg
}

func (c Config) CountdownDelay() time.Duration {
	return time.Duration(c.CountdownSeconds) * time.Second
}

func (c Config) VotePause() time.Duration {
	return time.Duration(c.VotePauseSeconds) * time.Second
}

func (c Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeSeconds) * time.Second
}

func positiveInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
