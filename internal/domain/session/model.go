package session

import "time"

// Device - зарегистрированное устройство клиента
type Device struct {
	ID         string
	Name       string
	TokenHash  string
	CreatedAt  time.Time
	LastSeenAt *time.Time
}

// RegisterRequest - запрос регистрации устройства
type RegisterRequest struct {
	Name   string `json:"name" validate:"required,max=128" doc:"Human readable device name"`
	Secret string `json:"secret" validate:"required" doc:"Registration secret shared with the server operator"`
}

// RegisterResponse - выданные устройству идентификатор и токен
type RegisterResponse struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
	Token    string `json:"token,omitempty"`
}
