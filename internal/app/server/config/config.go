package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	baseconfig "stockkeeper/internal/config"
)

const (
	EnvLocal = baseconfig.EnvLocal
	EnvDev   = baseconfig.EnvDev
	EnvProd  = baseconfig.EnvProd

	defaultRunAddress      = ":8080"
	defaultMigrationsPath  = "migrations"
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Env    string `validate:"oneof=local dev prod"`
	DB     DB
	Server Server
	Logger Logger
}

type DB struct {
	DatabaseURI string `validate:"required"`
	Migrations  string `validate:"required"`
}

type Server struct {
	RunAddress         string        `validate:"required"`
	RegistrationSecret string        `validate:"required,min=8"`
	ShutdownTimeout    time.Duration `validate:"gt=0"`
}

type Logger struct {
	LogLevel string
}

// Load читает конфигурацию сервера из окружения и .env файла.
func Load() (*Config, error) {
	if _, err := baseconfig.LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", EnvLocal)
	v.SetDefault("RUN_ADDRESS", defaultRunAddress)
	v.SetDefault("MIGRATIONS_PATH", defaultMigrationsPath)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		DB: DB{
			DatabaseURI: v.GetString("DATABASE_URI"),
			Migrations:  v.GetString("MIGRATIONS_PATH"),
		},
		Server: Server{
			RunAddress:         v.GetString("RUN_ADDRESS"),
			RegistrationSecret: v.GetString("REGISTRATION_SECRET"),
			ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Logger: Logger{LogLevel: v.GetString("LOG_LEVEL")},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}

// MustLoad загружает конфигурацию и паникует при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
