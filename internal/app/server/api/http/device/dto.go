package device

import "stockkeeper/internal/domain/session"

type registerInput struct {
	Body session.RegisterRequest
}

type registerOutput struct {
	Body session.RegisterResponse
}
