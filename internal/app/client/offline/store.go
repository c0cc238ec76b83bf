// Package offline хранит локальный снимок данных устройства: коллекции записей,
// очереди синхронизации и отметку последнего изменения.
package offline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/app/client/storage"
	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/utils/logger"
)

type options struct {
	now            func() time.Time
	notifier       Notifier
	memoryFallback bool
}

// Option настраивает Store
type Option func(*options)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithNotifier задает получателя уведомления о полном отказе хранилища.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithMemoryFallback добавляет последний уровень, держащий снимок в памяти.
func WithMemoryFallback() Option {
	return func(o *options) {
		o.memoryFallback = true
	}
}

// Partial - частичный снимок для Save. Переданные коллекции и очереди заменяются целиком.
type Partial struct {
	Collections map[record.Collection][]record.Record
	PendingSync map[record.Collection][]QueueEntry
}

// Store - локальное хранилище снимка. Все операции сериализуются одним мьютексом,
// каждая запись - это чтение-изменение-запись всего снимка.
type Store struct {
	kv    storage.KV
	chain *Chain
	codec *record.Codec
	log   *slog.Logger
	now   func() time.Time

	mu   sync.Mutex
	snap *Snapshot
}

// New создает хранилище поверх kv. Снимок читается в Init или при первом обращении.
func New(kv storage.KV, log *slog.Logger, opts ...Option) *Store {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	tiers := []Tier{NewBlobTier(kv), NewCollectionTier(kv), NewItemTier(kv)}
	if o.memoryFallback {
		tiers = append(tiers, NewMemoryTier())
	}

	return &Store{
		kv:    kv,
		chain: NewChain(log, o.notifier, tiers...),
		codec: record.NewCodec(log).WithClock(o.now),
		log:   log.With(slog.String("component", "offline_store")),
		now:   o.now,
	}
}

// Init восстанавливает снимок из самого свежего уровня хранения. Если ни один
// уровень не содержит данных, снимок собирается из резервных копий коллекций.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.restoreLocked()
}

func (s *Store) restoreLocked() error {
	snap, tier, err := s.chain.Restore()
	if err == nil {
		snap.ensure()
		s.snap = snap
		s.log.Debug("snapshot restored",
			slog.String("tier", tier),
			slog.Int64("last_modified", snap.LastModified),
			slog.Int("pending", snap.PendingTotal()),
		)
		return nil
	}

	snap, found := s.restoreBackups()
	if !found {
		s.snap = NewSnapshot(s.now())
		return nil
	}

	s.log.Warn("snapshot rebuilt from collection backups")
	s.snap = snap
	return s.persistLocked()
}

func (s *Store) restoreBackups() (*Snapshot, bool) {
	snap := NewSnapshot(s.now())
	found := false
	for _, col := range record.Collections() {
		data, err := s.kv.Get(backupPrefix + col.String())
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.log.Warn("failed to read collection backup", slog.String("collection", col.String()), logger.Err(err))
			continue
		}
		items, err := factory.ParseList(col, data)
		if err != nil {
			s.log.Warn("corrupted collection backup", slog.String("collection", col.String()), logger.Err(err))
			continue
		}
		snap.Collections[col] = Dedupe(col, items)
		found = true
	}
	return snap, found
}

func (s *Store) loadLocked() {
	if s.snap != nil {
		return
	}
	if err := s.restoreLocked(); err != nil {
		s.log.Error("failed to restore snapshot", logger.Err(err))
	}
}

// persistLocked проставляет lastModified и пишет снимок через цепочку уровней.
func (s *Store) persistLocked() error {
	s.snap.LastModified = s.nextModified()
	_, err := s.chain.Persist(s.snap)
	return err
}

// nextModified не дает lastModified уменьшиться, даже если часы ушли назад.
func (s *Store) nextModified() int64 {
	ms := s.now().UnixMilli()
	if s.snap != nil && ms < s.snap.LastModified {
		return s.snap.LastModified
	}
	return ms
}

// Load возвращает копию текущего снимка.
func (s *Store) Load() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return s.snap.Clone()
}

// Save накладывает partial на текущий снимок и сохраняет его.
// Ошибка возвращается только если не справился ни один уровень хранения.
func (s *Store) Save(partial Partial) error {
	for col := range partial.Collections {
		if err := col.Validate(); err != nil {
			return err
		}
	}
	for col := range partial.PendingSync {
		if err := col.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	for col, items := range partial.Collections {
		s.snap.Collections[col] = append([]record.Record{}, items...)
	}
	for col, entries := range partial.PendingSync {
		s.snap.PendingSync[col] = append([]QueueEntry{}, entries...)
	}
	return s.persistLocked()
}

// SaveCollection заменяет коллекцию дедуплицированным набором записей
// и дополнительно пишет отдельную резервную копию коллекции.
func (s *Store) SaveCollection(col record.Collection, items []record.Record) error {
	if err := col.Validate(); err != nil {
		return err
	}

	normalized := make([]record.Record, 0, len(items))
	for _, item := range items {
		rec, err := s.codec.Normalize(col, item)
		if err != nil {
			s.log.Warn("dropping malformed record", slog.String("collection", col.String()), logger.Err(err))
			continue
		}
		normalized = append(normalized, rec)
	}
	deduped := Dedupe(col, normalized)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	s.snap.Collections[col] = deduped
	if err := setJSON(s.kv, backupPrefix+col.String(), deduped); err != nil {
		s.log.Warn("failed to write collection backup", slog.String("collection", col.String()), logger.Err(err))
	}
	return s.persistLocked()
}

// GetCollection возвращает записи коллекции.
func (s *Store) GetCollection(col record.Collection) ([]record.Record, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return cloneRecords(s.snap.Collections[col]), nil
}

// Write - путь записи из интерфейса: запись нормализуется, проверяется,
// объединяется с предыдущей версией той же идентичности и ставится в очередь.
func (s *Store) Write(col record.Collection, raw any) (record.Record, error) {
	rec, err := s.codec.Normalize(col, raw)
	if err != nil {
		return nil, err
	}
	if err := record.Validate(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	items := s.snap.Collections[col]
	idx := indexByKey(items, recordKey, rec.Key())
	if idx >= 0 {
		rec = rec.MergeWith(items[idx])
	}

	now := s.now()
	base := rec.Common()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = now
	}
	base.SyncedAt = nil

	stored, err := cloneRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to copy record: %w", err)
	}
	if idx >= 0 {
		items[idx] = stored
	} else {
		s.snap.Collections[col] = append(items, stored)
	}

	if err := s.enqueueLocked(col, rec); err != nil {
		return nil, err
	}
	if err := s.persistLocked(); err != nil {
		return rec, err
	}
	return rec, nil
}

// Close сохраняет снимок и закрывает хранилище.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.snap != nil {
		if _, err := s.chain.Persist(s.snap); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.kv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}
	return errors.Join(errs...)
}
