package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
)

// MaxPushItems ограничивает размер одного пакета
const MaxPushItems = 1000

type Servicer interface {
	// Push принимает пакет записей коллекции: корректные записываются, остальные возвращаются с причиной
	Push(ctx context.Context, deviceID string, col record.Collection, items []map[string]any) (*PushResponse, error)
	// Status возвращает число документов по коллекциям
	Status(ctx context.Context) (*StatusResponse, error)
}

type Service struct {
	repo  Repository
	codec *record.Codec
	log   *slog.Logger
	now   func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		codec: record.NewCodec(log),
		log:   log.With(slog.String("component", "sync_service")),
		now:   time.Now,
	}
}

func (s *Service) Push(ctx context.Context, deviceID string, col record.Collection, items []map[string]any) (*PushResponse, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}
	if len(items) > MaxPushItems {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), MaxPushItems)
	}

	resp := &PushResponse{Status: "OK"}
	docs := make([]Document, 0, len(items))
	position := make(map[string]int, len(items))
	now := s.now()

	for i, item := range items {
		rec, err := s.codec.Normalize(col, item)
		if err != nil {
			resp.Rejected = append(resp.Rejected, Rejection{Index: i, Error: err.Error()})
			continue
		}
		if err := record.Validate(rec); err != nil {
			resp.Rejected = append(resp.Rejected, Rejection{Index: i, Key: rec.Key(), Error: err.Error()})
			continue
		}

		data, err := json.Marshal(rec)
		if err != nil {
			resp.Rejected = append(resp.Rejected, Rejection{Index: i, Key: rec.Key(), Error: err.Error()})
			continue
		}

		doc := Document{
			Collection: col,
			Key:        rec.Key(),
			RecordID:   rec.Identity().ID,
			Origin:     rec.Identity().Origin,
			Data:       data,
			DeviceID:   deviceID,
			UpdatedAt:  now,
		}
		// повтор ключа внутри пакета: побеждает последняя версия
		if idx, ok := position[doc.Key]; ok {
			docs[idx] = doc
		} else {
			position[doc.Key] = len(docs)
			docs = append(docs, doc)
		}
		resp.Accepted++
	}

	if len(docs) > 0 {
		if err := s.repo.UpsertDocuments(ctx, docs); err != nil {
			return nil, fmt.Errorf("store documents: %w", err)
		}
	}

	s.log.Info("push processed",
		slog.String("device_id", deviceID),
		slog.String("collection", col.String()),
		slog.Int("accepted", resp.Accepted),
		slog.Int("rejected", len(resp.Rejected)),
	)
	return resp, nil
}

func (s *Service) Status(ctx context.Context) (*StatusResponse, error) {
	counts, err := s.repo.CountByCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	resp := &StatusResponse{Status: "OK", Collections: make(map[string]int64, len(record.Collections()))}
	for _, col := range record.Collections() {
		resp.Collections[col.String()] = counts[col.String()]
		resp.Total += counts[col.String()]
	}
	return resp, nil
}
