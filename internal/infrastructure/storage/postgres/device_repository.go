package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/session"
)

type DeviceRepository struct {
	db  DB
	log *slog.Logger
}

func NewDeviceRepository(db DB, log *slog.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:  db,
		log: log.With(slog.String("component", "device_repository")),
	}
}

func (r *DeviceRepository) Create(ctx context.Context, device *session.Device) error {
	query, args, err := psql.Insert("devices").
		Columns("id", "name", "token_hash", "created_at").
		Values(device.ID, device.Name, device.TokenHash, device.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// Get возвращает устройство по идентификатору или session.ErrDeviceNotFound
func (r *DeviceRepository) Get(ctx context.Context, deviceID string) (*session.Device, error) {
	query, args, err := psql.Select("id", "name", "token_hash", "created_at", "last_seen_at").
		From("devices").
		Where("id = ?", deviceID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	var device session.Device
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&device.ID,
		&device.Name,
		&device.TokenHash,
		&device.CreatedAt,
		&device.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return &device, nil
}

// Touch обновляет время последнего обращения устройства
func (r *DeviceRepository) Touch(ctx context.Context, deviceID string, at time.Time) error {
	query, args, err := psql.Update("devices").
		Set("last_seen_at", at).
		Where("id = ?", deviceID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrDeviceNotFound
	}
	return nil
}
