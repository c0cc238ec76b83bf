package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	baseconfig "stockkeeper/internal/config"
)

const (
	defaultServerAddress   = "localhost:8080"
	defaultLogLevel        = "info"
	defaultConfigDir       = ".stockkeeper"
	defaultPollInterval    = 5 * time.Second
	defaultStabilityWindow = 3 * time.Second
	defaultGraceDelay      = 2 * time.Second
	defaultRequestTimeout  = 30 * time.Second
)

type Config struct {
	Env           string `validate:"oneof=local dev prod"`
	ServerAddress string `validate:"required"`
	EnableTLS     bool
	DeviceToken   string
	LogLevel      string

	ConfigDir string `validate:"required"`
	DataPath  string `validate:"required"`
	LogPath   string `validate:"required"`
	InboxDir  string `validate:"required"`

	// StorageQuotaBytes ограничивает объем локального хранилища, 0 - без ограничения
	StorageQuotaBytes int64 `validate:"gte=0"`
	MemoryFallback    bool

	PollInterval    time.Duration `validate:"gt=0"`
	StabilityWindow time.Duration `validate:"gt=0"`
	GraceDelay      time.Duration `validate:"gte=0"`
	RequestTimeout  time.Duration `validate:"gt=0"`
}

// Load читает конфигурацию клиента из окружения и .env файла и создает каталог конфигурации.
func Load() (*Config, error) {
	if _, err := baseconfig.LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", baseconfig.EnvLocal)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("STORAGE_QUOTA_BYTES", 0)
	v.SetDefault("MEMORY_FALLBACK", true)
	v.SetDefault("POLL_INTERVAL", defaultPollInterval)
	v.SetDefault("STABILITY_WINDOW", defaultStabilityWindow)
	v.SetDefault("GRACE_DELAY", defaultGraceDelay)
	v.SetDefault("REQUEST_TIMEOUT", defaultRequestTimeout)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	cfg := &Config{
		Env:               v.GetString("APP_ENV"),
		ServerAddress:     v.GetString("SERVER_ADDRESS"),
		EnableTLS:         v.GetBool("ENABLE_TLS"),
		DeviceToken:       v.GetString("DEVICE_TOKEN"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		ConfigDir:         configDir,
		DataPath:          pathOr(v.GetString("DATA_PATH"), configDir, "stockkeeper.db"),
		LogPath:           pathOr(v.GetString("LOG_PATH"), configDir, "agent.log"),
		InboxDir:          pathOr(v.GetString("INBOX_DIR"), configDir, "inbox"),
		StorageQuotaBytes: v.GetInt64("STORAGE_QUOTA_BYTES"),
		MemoryFallback:    v.GetBool("MEMORY_FALLBACK"),
		PollInterval:      v.GetDuration("POLL_INTERVAL"),
		StabilityWindow:   v.GetDuration("STABILITY_WINDOW"),
		GraceDelay:        v.GetDuration("GRACE_DELAY"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return cfg, nil
}

// MustLoad загружает конфигурацию клиента и паникует при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func pathOr(value, dir, name string) string {
	if value != "" {
		return value
	}
	return filepath.Join(dir, name)
}

// BaseURL возвращает адрес сервера со схемой
func (c *Config) BaseURL() string {
	if strings.HasPrefix(c.ServerAddress, "http://") || strings.HasPrefix(c.ServerAddress, "https://") {
		return strings.TrimRight(c.ServerAddress, "/")
	}
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + strings.TrimRight(c.ServerAddress, "/")
}

func (c *Config) IsProd() bool {
	return c.Env == baseconfig.EnvProd
}
