package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`

	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsHost string `toml:"metrics_host"`
	MetricsPort string `toml:"metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`

	AllowedOrigins []string `toml:"allowed_origins"`
	JWTIssuer      string   `toml:"jwt_issuer"`

	ExercisesCacheSizeMB int      `toml:"exercises_cache_size_mb"`
	ExercisesCacheTTL    Duration `toml:"exercises_cache_ttl"`

	ImportRateLimitPerMin int `toml:"import_rate_limit_per_min"`
	ExportRateLimitPerMin int `toml:"export_rate_limit_per_min"`

	// secrets, from env vars only
	JWTSecret        string `toml:"-"`
	PostgresPassword string `toml:"-"`
	RedisPassword    string `toml:"-"`
	SentryDSN        string `toml:"-"`
	HoneycombEnabled bool   `toml:"-"`
}

// Duration decodes TOML strings like "5m" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path, picks the section for env and
// fills in the secrets from the environment.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()
	cfg.JWTSecret = os.Getenv("EMPOWERFIT_JWT_SECRET")
	cfg.RedisPassword = os.Getenv("EMPOWERFIT_REDIS_PASS")
	cfg.PostgresPassword = os.Getenv("EMPOWERFIT_DB_PASS")
	cfg.SentryDSN = os.Getenv("SENTRY_DSN")
	cfg.HoneycombEnabled = os.Getenv("HONEYCOMB_ENABLED") == "true"

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.MetricsPort == "" {
		c.MetricsPort = "2112"
	}
	if c.ExercisesCacheSizeMB == 0 {
		c.ExercisesCacheSizeMB = 10
	}
	if c.ExercisesCacheTTL.Duration == 0 {
		c.ExercisesCacheTTL.Duration = 10 * time.Minute
	}
	if c.ImportRateLimitPerMin == 0 {
		c.ImportRateLimitPerMin = 5
	}
	if c.ExportRateLimitPerMin == 0 {
		c.ExportRateLimitPerMin = 20
	}
}
