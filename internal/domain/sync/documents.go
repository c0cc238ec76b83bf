package sync

import (
	"context"
	"fmt"

	"stockkeeper/internal/domain/record"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// DocumentServicer читает документы, принятые удаленным хранилищем
type DocumentServicer interface {
	ListDocuments(ctx context.Context, col record.Collection, limit, offset int) (*DocumentsResponse, error)
	GetDocument(ctx context.Context, col record.Collection, key string) (*DocumentResponse, error)
}

// ListDocuments возвращает страницу документов. Нулевой limit означает размер по умолчанию.
func (s *Service) ListDocuments(ctx context.Context, col record.Collection, limit, offset int) (*DocumentsResponse, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 0 || limit > MaxPageSize || offset < 0 {
		return nil, fmt.Errorf("%w: limit must be in 1..%d, offset must not be negative", ErrInvalidPagination, MaxPageSize)
	}

	docs, err := s.repo.ListDocuments(ctx, col, uint64(limit), uint64(offset))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return &DocumentsResponse{
		Status:     "OK",
		Collection: col.String(),
		Limit:      limit,
		Offset:     offset,
		Documents:  docs,
	}, nil
}

func (s *Service) GetDocument(ctx context.Context, col record.Collection, key string) (*DocumentResponse, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDocument(ctx, col, key)
	if err != nil {
		return nil, err
	}
	return &DocumentResponse{Status: "OK", Document: doc}, nil
}
