package offline

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
)

// ErrInvalidBackup - текст резервной копии не удалось разобрать
var ErrInvalidBackup = errors.New("invalid backup")

// Export сериализует текущий снимок.
func (s *Store) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export snapshot: %w", err)
	}
	return string(data), nil
}

// Import полностью заменяет снимок содержимым резервной копии. Если текст не
// разбирается, текущее состояние не меняется и возвращается ErrInvalidBackup.
func (s *Store) Import(text string) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if _, ok := probe[lastModifiedKey]; !ok {
		return fmt.Errorf("%w: %s is missing", ErrInvalidBackup, lastModifiedKey)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for _, col := range record.Collections() {
		snap.Collections[col] = Dedupe(col, snap.Collections[col])
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	// lastModified не уменьшается, чтобы старая копия не проиграла при восстановлении
	if snap.LastModified < s.snap.LastModified {
		snap.LastModified = s.snap.LastModified
	}
	s.snap = &snap
	s.log.Info("snapshot imported",
		slog.Int64("last_modified", snap.LastModified),
		slog.Int("pending", snap.PendingTotal()),
	)

	_, err := s.chain.Persist(s.snap)
	return err
}

// Reset очищает все коллекции и очереди. Ключ сессии устройства не затрагивается.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := deletePrefix(s.kv, offlinePrefix); err != nil {
		return fmt.Errorf("failed to clear offline keys: %w", err)
	}
	if err := s.chain.Clear(); err != nil {
		return fmt.Errorf("failed to clear persistence tiers: %w", err)
	}

	fresh := NewSnapshot(s.now())
	fresh.LastModified = s.nextModified()
	s.snap = fresh
	s.log.Warn("offline snapshot reset")
	return s.persistLocked()
}
