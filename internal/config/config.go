package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"plate-service/internal/plate"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type OCRConfig struct {
	ServiceURL    string
	InternalToken string
	Timeout       time.Duration
}

type PlateConfig struct {
	MaxInputLength int
	DedupPolicy    plate.DedupPolicy
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	OCR         OCRConfig
	Plate       PlateConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("OCR_TIMEOUT", "30s")
	v.SetDefault("PLATE_MAX_INPUT_LENGTH", plate.DefaultMaxInputLength)
	v.SetDefault("PLATE_DEDUP_POLICY", string(plate.DedupFirstMatch))

	_ = v.ReadInConfig()

	dedup, err := plate.ParseDedupPolicy(v.GetString("PLATE_DEDUP_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("PLATE_DEDUP_POLICY: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		OCR: OCRConfig{
			ServiceURL:    v.GetString("OCR_SERVICE_URL"),
			InternalToken: v.GetString("OCR_INTERNAL_TOKEN"),
			Timeout:       v.GetDuration("OCR_TIMEOUT"),
		},
		Plate: PlateConfig{
			MaxInputLength: v.GetInt("PLATE_MAX_INPUT_LENGTH"),
			DedupPolicy:    dedup,
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Plate.MaxInputLength <= 0 {
		return fmt.Errorf("PLATE_MAX_INPUT_LENGTH must be positive")
	}
	return nil
}
