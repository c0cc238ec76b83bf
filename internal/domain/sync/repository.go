package sync

import (
	"context"

	"stockkeeper/internal/domain/record"
)

// Repository - хранилище документов
type Repository interface {
	// UpsertDocuments записывает документы одной транзакцией
	UpsertDocuments(ctx context.Context, docs []Document) error
	// CountByCollection возвращает число документов в каждой коллекции
	CountByCollection(ctx context.Context) (map[string]int64, error)
	// ListDocuments возвращает страницу документов коллекции, упорядоченную по ключу
	ListDocuments(ctx context.Context, col record.Collection, limit, offset uint64) ([]Document, error)
	// GetDocument возвращает документ или ErrDocumentNotFound
	GetDocument(ctx context.Context, col record.Collection, key string) (*Document, error)
}
