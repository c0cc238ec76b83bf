package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/domain/sync"
	"stockkeeper/internal/utils/logger"
)

const upsertDocumentSuffix = `ON CONFLICT (collection, doc_key) DO UPDATE SET
	record_id = EXCLUDED.record_id,
	origin = EXCLUDED.origin,
	data = EXCLUDED.data,
	device_id = EXCLUDED.device_id,
	updated_at = EXCLUDED.updated_at`

// DocumentRepository хранит документы коллекций в таблице documents
type DocumentRepository struct {
	db  DB
	log *slog.Logger
}

func NewDocumentRepository(db DB, log *slog.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:  db,
		log: log.With(slog.String("component", "document_repository")),
	}
}

// UpsertDocuments записывает документы одной транзакцией. Документ с тем же
// (collection, doc_key) перезаписывается.
func (r *DocumentRepository) UpsertDocuments(ctx context.Context, docs []sync.Document) (err error) {
	if len(docs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.log.Error("failed to rollback document upsert", logger.Err(rbErr))
		}
	}()

	for _, doc := range docs {
		query, args, err := psql.Insert("documents").
			Columns("collection", "doc_key", "record_id", "origin", "data", "device_id", "updated_at").
			Values(doc.Collection.String(), doc.Key, doc.RecordID, string(doc.Origin), []byte(doc.Data), doc.DeviceID, doc.UpdatedAt).
			Suffix(upsertDocumentSuffix).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert query: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert document %s/%s: %w", doc.Collection, doc.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CountByCollection возвращает число документов в каждой коллекции
func (r *DocumentRepository) CountByCollection(ctx context.Context) (map[string]int64, error) {
	query, args, err := psql.Select("collection", "COUNT(*)").
		From("documents").
		GroupBy("collection").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			collection string
			count      int64
		)
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, fmt.Errorf("scan document count: %w", err)
		}
		counts[collection] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document counts: %w", err)
	}
	return counts, nil
}

var documentColumns = []string{"collection", "doc_key", "record_id", "origin", "data", "device_id", "updated_at"}

// ListDocuments возвращает страницу документов коллекции в порядке ключей
func (r *DocumentRepository) ListDocuments(ctx context.Context, col record.Collection, limit, offset uint64) ([]sync.Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents").
		Where("collection = ?", col.String()).
		OrderBy("doc_key").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []sync.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// GetDocument возвращает документ по ключу или sync.ErrDocumentNotFound
func (r *DocumentRepository) GetDocument(ctx context.Context, col record.Collection, key string) (*sync.Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents").
		Where("collection = ? AND doc_key = ?", col.String(), key).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sync.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func scanDocument(row pgx.Row) (*sync.Document, error) {
	var (
		doc        sync.Document
		collection string
		origin     string
		data       []byte
	)
	if err := row.Scan(&collection, &doc.Key, &doc.RecordID, &origin, &data, &doc.DeviceID, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Collection = record.Collection(collection)
	doc.Origin = record.Origin(origin)
	doc.Data = data
	return &doc, nil
}
