package offline

import (
	"fmt"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/utils/logger"
)

// Enqueue ставит запись в очередь синхронизации коллекции. Повторная запись той же
// идентичности обновляет существующий элемент очереди. Некорректный элемент
// отбрасывается с записью в лог, ошибка для него не возвращается.
func (s *Store) Enqueue(col record.Collection, item any) error {
	if err := col.Validate(); err != nil {
		return err
	}

	rec, err := s.codec.Normalize(col, item)
	if err != nil {
		s.log.Warn("dropping malformed queue item", slog.String("collection", col.String()), logger.Err(err))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	if err := s.enqueueLocked(col, rec); err != nil {
		s.log.Warn("dropping queue item", slog.String("collection", col.String()), logger.Err(err))
		return nil
	}
	return s.persistLocked()
}

// enqueueLocked вставляет копию записи в очередь или обновляет элемент с той же идентичностью.
func (s *Store) enqueueLocked(col record.Collection, rec record.Record) error {
	queue := s.snap.PendingSync[col]
	idx := indexByKey(queue, entryKey, rec.Key())

	clone, err := cloneRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to copy record: %w", err)
	}
	if idx >= 0 {
		clone = clone.MergeWith(queue[idx].Record)
	}

	now := s.now().UnixMilli()
	if idx < 0 {
		s.snap.PendingSync[col] = append(queue, QueueEntry{
			Record: clone,
			Meta: SyncMeta{
				OfflineCreated:   clone.Identity().IsLocal(),
				OfflineTimestamp: now,
				SyncStatus:       SyncPending,
				LastUpdate:       now,
			},
		})
		return nil
	}

	meta := queue[idx].Meta
	meta.OfflineCreated = meta.OfflineCreated || clone.Identity().IsLocal()
	meta.SyncStatus = SyncPending
	// версия элемента строго растет: по ней Acknowledge отличает отправленную версию от новой
	meta.LastUpdate = max(now, meta.LastUpdate+1)
	queue[idx] = QueueEntry{Record: clone, Meta: meta}
	return nil
}

// GetQueue возвращает элементы очереди коллекции.
func (s *Store) GetQueue(col record.Collection) ([]QueueEntry, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return cloneEntries(s.snap.PendingSync[col]), nil
}

// ClearQueue очищает одну очередь. Остальные очереди и коллекции не меняются.
func (s *Store) ClearQueue(col record.Collection) error {
	if err := col.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	s.snap.PendingSync[col] = []QueueEntry{}
	return s.persistLocked()
}

// ClearAllQueues очищает все очереди.
func (s *Store) ClearAllQueues() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	for _, col := range record.Collections() {
		s.snap.PendingSync[col] = []QueueEntry{}
	}
	return s.persistLocked()
}

// SeedQueues ставит в очередь все записи всех коллекций. Используется при полной
// синхронизации, когда очереди могли отстать от данных.
func (s *Store) SeedQueues() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	seeded := 0
	for _, col := range record.Collections() {
		for _, rec := range s.snap.Collections[col] {
			if err := s.enqueueLocked(col, rec); err != nil {
				s.log.Warn("failed to seed queue item", slog.String("collection", col.String()), logger.Err(err))
				continue
			}
			seeded++
		}
	}
	if seeded == 0 {
		return 0, nil
	}
	return seeded, s.persistLocked()
}

// Acknowledge убирает из очереди ровно те версии элементов, которые были отправлены.
// Элемент, обновленный во время отправки, остается в очереди. Подтвержденным
// записям коллекции проставляется syncedAt.
func (s *Store) Acknowledge(col record.Collection, pushed []QueueEntry) error {
	if err := col.Validate(); err != nil {
		return err
	}
	if len(pushed) == 0 {
		return nil
	}

	versions := make(map[string]int64, len(pushed))
	for _, entry := range pushed {
		versions[entry.Record.Key()] = entry.Meta.LastUpdate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	queue := s.snap.PendingSync[col]
	kept := make([]QueueEntry, 0, len(queue))
	acked := make(map[string]struct{}, len(pushed))
	for _, entry := range queue {
		key := entry.Record.Key()
		if version, ok := versions[key]; ok && version == entry.Meta.LastUpdate {
			acked[key] = struct{}{}
			continue
		}
		kept = append(kept, entry)
	}
	if len(acked) == 0 {
		return nil
	}
	s.snap.PendingSync[col] = kept

	// записи заменяются копиями: ранее выданные вызывающим записи не меняются
	syncedAt := s.now()
	items := s.snap.Collections[col]
	for i, rec := range items {
		if _, ok := acked[rec.Key()]; !ok {
			continue
		}
		stamped, err := cloneRecord(rec)
		if err != nil {
			s.log.Warn("failed to mark record synced", slog.String("collection", col.String()), logger.Err(err))
			continue
		}
		ts := syncedAt
		stamped.Common().SyncedAt = &ts
		items[i] = stamped
	}
	return s.persistLocked()
}
