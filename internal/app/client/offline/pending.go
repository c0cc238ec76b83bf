package offline

import (
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/utils/logger"
)

// PendingCount возвращает общее число элементов во всех очередях.
//
// Если очереди пусты, но в коллекциях есть локальные записи, которые сервер еще не
// подтвердил, они ставятся в очередь и счетчик пересчитывается один раз. Так
// восстанавливается расхождение между данными и очередями после перезапуска
// или частичного сбоя.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	total := s.snap.PendingTotal()
	if total > 0 {
		return total
	}

	healed := 0
	for _, col := range record.Collections() {
		for _, rec := range s.snap.Collections[col] {
			if !rec.Common().IsUnsyncedLocal() {
				continue
			}
			if indexByKey(s.snap.PendingSync[col], entryKey, rec.Key()) >= 0 {
				continue
			}
			if err := s.enqueueLocked(col, rec); err != nil {
				s.log.Warn("failed to requeue local record", slog.String("collection", col.String()), logger.Err(err))
				continue
			}
			healed++
		}
	}
	if healed == 0 {
		return 0
	}

	s.log.Warn("local records were missing from sync queues", slog.Int("requeued", healed))
	if err := s.persistLocked(); err != nil {
		s.log.Error("failed to persist requeued records", logger.Err(err))
	}
	return s.snap.PendingTotal()
}
