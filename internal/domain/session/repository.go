package session

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, device *Device) error
	Get(ctx context.Context, deviceID string) (*Device, error)
	Touch(ctx context.Context, deviceID string, at time.Time) error
}
