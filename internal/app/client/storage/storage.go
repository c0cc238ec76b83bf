// Package storage содержит ключ-значение хранилища устройства, на которых
// строится локальный снимок данных.
package storage

import (
	"errors"
)

const (
	// Prefix - пространство имен всех ключей приложения
	Prefix = "stockkeeper:"
	// SessionKey хранит токен устройства и не трогается при сбросе снимка
	SessionKey = Prefix + "session"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("storage is closed")
)

// KV - ключ-значение хранилище
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// Keys возвращает ключи с указанным префиксом в лексикографическом порядке
	Keys(prefix string) ([]string, error)
	Close() error
}

type options struct {
	quota int64
}

// Option настраивает хранилище
type Option func(*options)

// WithQuota ограничивает суммарный размер ключей и значений в байтах.
// Ноль означает отсутствие ограничения.
func WithQuota(bytes int64) Option {
	return func(o *options) {
		o.quota = bytes
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
