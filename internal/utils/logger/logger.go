// Package logger настраивает slog для клиента и сервера.
package logger

import (
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"stockkeeper/internal/config"
)

type options struct {
	level  *slog.Level
	output io.Writer
}

// Option настраивает логгер
type Option func(*options)

// WithLevel переопределяет уровень, выбранный по окружению. Пустая строка игнорируется.
func WithLevel(level string) Option {
	return func(o *options) {
		if strings.TrimSpace(level) == "" {
			return
		}
		l := ParseLevel(level)
		o.level = &l
	}
}

// WithOutput направляет вывод в w вместо stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// New создает логгер для окружения: local - цветной вывод с DEBUG,
// dev - JSON с DEBUG, prod - JSON с INFO.
func New(env string, opts ...Option) *slog.Logger {
	o := options{output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	switch env {
	case config.EnvLocal:
		return newPretty(o.output, levelOr(o.level, slog.LevelDebug))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(o.output, &slog.HandlerOptions{Level: levelOr(o.level, slog.LevelDebug)}))
	default:
		return slog.New(slog.NewJSONHandler(o.output, &slog.HandlerOptions{Level: levelOr(o.level, slog.LevelInfo)}))
	}
}

// NewFile пишет JSON в файл с ротацией. Уровень выбирается так же, как в New.
// Возвращенный io.Closer закрывает файл.
func NewFile(env, path string, opts ...Option) (*slog.Logger, io.Closer) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	level := slog.LevelDebug
	if env == config.EnvProd {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: levelOr(o.level, level)}))
	return log, rotator
}

// Err - атрибут ошибки
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ParseLevel разбирает уровень логирования, по умолчанию INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard возвращает логгер, который ничего не пишет.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func levelOr(level *slog.Level, fallback slog.Level) slog.Level {
	if level != nil {
		return *level
	}
	return fallback
}
