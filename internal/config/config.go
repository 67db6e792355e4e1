package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		RequestTimeout string   `yaml:"request_timeout"`
		CORSOrigins    []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Database struct {
		// Driver is "postgres" or "sqlite". Empty picks postgres when a URL is set, sqlite otherwise.
		Driver string `yaml:"driver"`
	} `yaml:"database"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	AnswerKeys struct {
		TTL string `yaml:"ttl"`
	} `yaml:"answer_keys"`
	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		TokenTTL   string `yaml:"token_ttl"`
		Issuer     string `yaml:"issuer"`
		BcryptCost int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
	AI struct {
		// Provider is "service", "openai" or "none".
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		Timeout  string `yaml:"timeout"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
	} `yaml:"ai"`
	Gamification struct {
		PointsPerCorrect int `yaml:"points_per_correct"`
		LeaderboardSize  int `yaml:"leaderboard_size"`
	} `yaml:"gamification"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error; the environment and defaults still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Postgres.URL)
	str("SQLITE_PATH", &c.SQLite.Path)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_SERVICE_URL", &c.AI.BaseURL)
	str("OPENAI_API_KEY", &c.AI.APIKey)
	str("AI_MODEL", &c.AI.Model)
	str("LOG_MODE", &c.Log.Mode)
	num("POINTS_PER_CORRECT", &c.Gamification.PointsPerCorrect)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		if c.Postgres.URL != "" {
			c.Database.Driver = "postgres"
		} else {
			c.Database.Driver = "sqlite"
		}
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "file:lms.db?_pragma=busy_timeout(5000)"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "gamified-lms"
	}
	if c.AI.Provider == "" {
		if c.AI.BaseURL != "" {
			c.AI.Provider = "service"
		} else {
			c.AI.Provider = "none"
		}
	}
	if c.Gamification.PointsPerCorrect <= 0 {
		c.Gamification.PointsPerCorrect = 10
	}
	if c.Gamification.LeaderboardSize <= 0 {
		c.Gamification.LeaderboardSize = 10
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
