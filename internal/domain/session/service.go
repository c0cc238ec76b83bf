package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Register(ctx context.Context, req RegisterRequest) (deviceID, token string, err error)
	Validate(ctx context.Context, token string) (string, error)
}

type Service struct {
	repo     Repository
	secret   string
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает сервис устройств. secret - общий секрет регистрации.
func NewService(repo Repository, secret string, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		secret:   secret,
		validate: validator.New(),
		log:      log.With(slog.String("component", "session_service")),
		now:      time.Now,
	}
}

// Register регистрирует устройство и выдает токен вида <deviceId>.<secret>.
// В хранилище попадает только bcrypt-хеш секретной части.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.secret)) != 1 {
		return "", "", ErrUnauthorized
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash token: %w", err)
	}

	device := &Device{
		ID:        uuid.NewString(),
		Name:      req.Name,
		TokenHash: string(hash),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, device); err != nil {
		return "", "", fmt.Errorf("save device: %w", err)
	}

	s.log.Info("device registered", slog.String("device_id", device.ID), slog.String("name", device.Name))
	return device.ID, device.ID + "." + secret, nil
}

// Validate проверяет токен и возвращает идентификатор устройства.
func (s *Service) Validate(ctx context.Context, token string) (string, error) {
	deviceID, secret, ok := strings.Cut(token, ".")
	if !ok || deviceID == "" || secret == "" {
		return "", ErrUnauthorized
	}

	device, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("load device: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(device.TokenHash), []byte(secret)); err != nil {
		return "", ErrUnauthorized
	}

	if err := s.repo.Touch(ctx, deviceID, s.now()); err != nil {
		s.log.Warn("failed to update device last seen", slog.String("device_id", deviceID), slog.String("error", err.Error()))
	}
	return deviceID, nil
}
