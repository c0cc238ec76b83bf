package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockkeeper/internal/app/client/storage"
)

// ErrNoSession - устройство еще не зарегистрировано
var ErrNoSession = errors.New("устройство не зарегистрировано. Выполните: stockkeeper device register")

// DeviceSession - учетные данные устройства, выданные сервером
type DeviceSession struct {
	DeviceID     string    `json:"deviceId"`
	Name         string    `json:"name"`
	Token        string    `json:"token"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// sessionStore хранит сессию под отдельным ключом, который не затрагивается сбросом снимка
type sessionStore struct {
	kv storage.KV
}

func (s sessionStore) Load() (*DeviceSession, error) {
	data, err := s.kv.Get(storage.SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}

	var session DeviceSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("ошибка разбора сессии: %w", err)
	}
	if session.Token == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

func (s sessionStore) Save(session *DeviceSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.kv.Set(storage.SessionKey, data); err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	return nil
}

func (s sessionStore) Clear() error {
	err := s.kv.Delete(storage.SessionKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}
