package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type DBConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	SQLitePath string
	MaxRetries int
}

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Config struct {
	AppEnv      string
	Port        string
	JWTSecret   string
	DB          DBConfig
	RedisAddr   string
	KafkaBroker string
	ES          ESConfig
	UploadDir   string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads .env (if present) and the process environment once. The signing
// secret is mandatory; every other key has a default or is optional.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_RETRIES", 5)
	v.SetDefault("SQLITE_PATH", "emptrack.db")
	v.SetDefault("ES_INDEX", "employees")
	v.SetDefault("UPLOAD_DIR", "uploads")

	cfg := &Config{
		AppEnv:    v.GetString("APP_ENV"),
		Port:      v.GetString("PORT"),
		JWTSecret: strings.TrimSpace(v.GetString("JWT_SECRET")),
		DB: DBConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			Port:       v.GetString("DB_PORT"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
			MaxRetries: v.GetInt("DB_MAX_RETRIES"),
		},
		RedisAddr:   v.GetString("REDIS_ADDR"),
		KafkaBroker: v.GetString("KAFKA_BROKER"),
		ES: ESConfig{
			URL:      v.GetString("ES_URL"),
			User:     v.GetString("ES_USER"),
			Password: v.GetString("ES_PASSWORD"),
			Index:    v.GetString("ES_INDEX"),
		},
		UploadDir: v.GetString("UPLOAD_DIR"),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}
