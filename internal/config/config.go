// Package config содержит общие для клиента и сервера константы окружения
// и загрузку .env файлов.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// DefaultEnvPaths - где ищется .env относительно места запуска
var DefaultEnvPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv загружает первый найденный .env файл. Отсутствие файлов не ошибка:
// тогда настройки берутся только из окружения. Возвращает путь загруженного файла.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = DefaultEnvPaths
	}
	for _, path := range paths {
		err := godotenv.Load(path)
		if err == nil {
			return path, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	return "", nil
}

// ValidEnv сообщает, известно ли окружение.
func ValidEnv(env string) bool {
	switch env {
	case EnvLocal, EnvDev, EnvProd:
		return true
	}
	return false
}
