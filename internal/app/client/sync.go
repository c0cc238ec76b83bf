package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/app/client/offline"
	"stockkeeper/internal/domain/record"
	remote "stockkeeper/internal/domain/sync"
	"stockkeeper/internal/utils/logger"
)

// RemoteStore - удаленное хранилище, принимающее очереди коллекций
type RemoteStore interface {
	Push(ctx context.Context, col record.Collection, items []record.Record) (*remote.PushResponse, error)
}

// QueueStore - часть локального хранилища, с которой работает синхронизация
type QueueStore interface {
	GetQueue(col record.Collection) ([]offline.QueueEntry, error)
	Acknowledge(col record.Collection, pushed []offline.QueueEntry) error
	SeedQueues() (int, error)
}

// SyncError ошибка синхронизации одной коллекции или одной записи
type SyncError struct {
	Collection record.Collection `json:"collection"`
	Key        string            `json:"key,omitempty"`
	Error      string            `json:"error"`
	Operation  string            `json:"operation"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (e SyncError) String() string {
	switch {
	case e.Collection == "":
		return fmt.Sprintf("%s: %s", e.Operation, e.Error)
	case e.Key != "":
		return fmt.Sprintf("%s/%s: %s", e.Collection, e.Key, e.Error)
	default:
		return fmt.Sprintf("%s: %s", e.Collection, e.Error)
	}
}

// SyncResult результат одного прохода синхронизации
type SyncResult struct {
	Success bool `json:"success"`
	// Skipped - проход не выполнялся, потому что уже шел другой
	Skipped     bool                      `json:"skipped,omitempty"`
	TotalSynced int                       `json:"totalSynced"`
	SyncedItems map[record.Collection]int `json:"syncedItems"`
	Errors      []SyncError               `json:"errors"`
	Duration    time.Duration             `json:"duration"`
	StartTime   time.Time                 `json:"startTime"`
	EndTime     time.Time                 `json:"endTime"`
}

// Messages возвращает ошибки прохода строками
func (r *SyncResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return msgs
}

// Partial - часть коллекций синхронизирована, часть нет
func (r *SyncResult) Partial() bool {
	return !r.Success && r.TotalSynced > 0
}

// SyncStats накопленная статистика синхронизации
type SyncStats struct {
	TotalSyncs      int       `json:"total_syncs"`
	LastSuccessful  time.Time `json:"last_successful"`
	LastFailed      time.Time `json:"last_failed"`
	TotalUploaded   int       `json:"total_uploaded"`
	TotalErrors     int       `json:"total_errors"`
	AvgSyncDuration float64   `json:"avg_sync_duration"`
}

// Listener получает результат каждого выполненного прохода
type Listener func(SyncResult)

// SyncService управляет отправкой очередей в удаленное хранилище
type SyncService struct {
	queue     QueueStore
	remote    RemoteStore
	log       *slog.Logger
	statsPath string
	batchSize int
	now       func() time.Time

	mu        sync.Mutex
	isSyncing bool
	lastSync  time.Time
	stats     *SyncStats

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextID      uint64
}

// NewSyncService создает сервис синхронизации. statsPath - файл статистики, пустой путь отключает ее сохранение.
func NewSyncService(queue QueueStore, remoteStore RemoteStore, log *slog.Logger, statsPath string) *SyncService {
	s := &SyncService{
		queue:     queue,
		remote:    remoteStore,
		log:       log.With(slog.String("component", "sync_service")),
		statsPath: statsPath,
		batchSize: remote.MaxPushItems,
		now:       time.Now,
		stats:     &SyncStats{},
		listeners: make(map[uint64]Listener),
	}
	if stats, err := loadStats(statsPath); err == nil {
		s.stats = stats
	}
	return s
}

// SyncPendingOnly отправляет непустые очереди по одной коллекции
func (s *SyncService) SyncPendingOnly(ctx context.Context) (*SyncResult, error) {
	return s.run(ctx, false)
}

// ForceSyncAll сначала ставит в очереди все записи коллекций, затем отправляет очереди
func (s *SyncService) ForceSyncAll(ctx context.Context) (*SyncResult, error) {
	return s.run(ctx, true)
}

func (s *SyncService) run(ctx context.Context, seed bool) (*SyncResult, error) {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.log.Debug("Синхронизация уже выполняется, запрос пропущен")
		return &SyncResult{Skipped: true}, nil
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	result := &SyncResult{
		StartTime:   s.now(),
		SyncedItems: make(map[record.Collection]int),
		Errors:      []SyncError{},
	}
	s.log.Info("Начало синхронизации", slog.Bool("force", seed))

	if seed {
		seeded, err := s.queue.SeedQueues()
		if err != nil {
			// снимок в памяти уже обновлен, отправка все равно возможна
			s.log.Warn("Ошибка сохранения очередей после заполнения", logger.Err(err))
			result.Errors = append(result.Errors, s.syncError("", "", "seed", err))
		}
		s.log.Debug("Очереди заполнены из коллекций", slog.Int("count", seeded))
	}

	for _, col := range record.Collections() {
		s.syncCollection(ctx, col, result)
	}

	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = len(result.Errors) == 0

	s.mu.Lock()
	s.lastSync = result.EndTime
	s.updateStats(result)
	s.mu.Unlock()

	if result.Success {
		s.log.Info("Синхронизация успешно завершена",
			slog.Duration("duration", result.Duration),
			slog.Int("uploaded", result.TotalSynced),
		)
	} else {
		s.log.Warn("Синхронизация завершена с ошибками",
			slog.Duration("duration", result.Duration),
			slog.Int("uploaded", result.TotalSynced),
			slog.Int("errors", len(result.Errors)),
		)
	}

	s.broadcast(*result)
	return result, nil
}

// syncCollection отправляет очередь одной коллекции. Ошибка коллекции записывается
// в результат и не прерывает остальные коллекции.
func (s *SyncService) syncCollection(ctx context.Context, col record.Collection, result *SyncResult) {
	entries, err := s.queue.GetQueue(col)
	if err != nil {
		result.Errors = append(result.Errors, s.syncError(col, "", "read_queue", err))
		return
	}

	// пакеты не больше лимита сервера, подтверждается каждый пакет отдельно
	for offset := 0; offset < len(entries); offset += s.batchSize {
		batch := entries[offset:min(offset+s.batchSize, len(entries))]
		if !s.pushBatch(ctx, col, offset, batch, result) {
			return
		}
	}
}

// pushBatch отправляет один пакет. false - пакет не дошел до сервера, остальные
// пакеты коллекции остаются в очереди до следующего прохода.
func (s *SyncService) pushBatch(ctx context.Context, col record.Collection, offset int, batch []offline.QueueEntry, result *SyncResult) bool {
	items := make([]record.Record, len(batch))
	for i, entry := range batch {
		items[i] = entry.Record
	}

	resp, err := s.remote.Push(ctx, col, items)
	if err != nil {
		s.log.Error("Ошибка отправки коллекции",
			slog.String("collection", col.String()),
			slog.Int("offset", offset),
			slog.Int("items", len(items)),
			logger.Err(err),
		)
		result.Errors = append(result.Errors, s.syncError(col, "", "push", err))
		return false
	}

	// индексы отказов сервер считает от начала пакета
	rejected := make(map[int]struct{}, len(resp.Rejected))
	for _, rej := range resp.Rejected {
		if rej.Index < 0 || rej.Index >= len(batch) {
			continue
		}
		rejected[rej.Index] = struct{}{}
		key := rej.Key
		if key == "" {
			key = batch[rej.Index].Record.Key()
		}
		result.Errors = append(result.Errors, s.syncError(col, key, "reject", errors.New(rej.Error)))
	}

	accepted := make([]offline.QueueEntry, 0, len(batch)-len(rejected))
	for i, entry := range batch {
		if _, ok := rejected[i]; !ok {
			accepted = append(accepted, entry)
		}
	}

	if err := s.queue.Acknowledge(col, accepted); err != nil {
		s.log.Warn("Ошибка сохранения подтвержденной очереди",
			slog.String("collection", col.String()),
			logger.Err(err),
		)
		result.Errors = append(result.Errors, s.syncError(col, "", "acknowledge", err))
	}

	result.SyncedItems[col] += len(accepted)
	result.TotalSynced += len(accepted)
	s.log.Debug("Пакет коллекции отправлен",
		slog.String("collection", col.String()),
		slog.Int("offset", offset),
		slog.Int("accepted", len(accepted)),
		slog.Int("rejected", len(rejected)),
	)
	return true
}

func (s *SyncService) syncError(col record.Collection, key, op string, err error) SyncError {
	return SyncError{
		Collection: col,
		Key:        key,
		Error:      err.Error(),
		Operation:  op,
		Timestamp:  s.now(),
	}
}

// Subscribe регистрирует получателя результатов. Возвращаемая функция отписки
// идемпотентна.
func (s *SyncService) Subscribe(listener Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *SyncService) broadcast(result SyncResult) {
	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		s.notify(l, result)
	}
}

func (s *SyncService) notify(l Listener, result SyncResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Паника в подписчике синхронизации", slog.Any("panic", r))
		}
	}()
	l(result)
}

// IsInProgress сообщает, выполняется ли сейчас проход
func (s *SyncService) IsInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSyncing
}

// GetLastSyncTime возвращает время окончания последнего прохода
func (s *SyncService) GetLastSyncTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

// GetStats возвращает копию статистики
func (s *SyncService) GetStats() SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.stats
}

func (s *SyncService) updateStats(result *SyncResult) {
	s.stats.TotalSyncs++
	if result.Success {
		s.stats.LastSuccessful = result.EndTime
	} else {
		s.stats.LastFailed = result.EndTime
	}
	s.stats.TotalUploaded += result.TotalSynced
	s.stats.TotalErrors += len(result.Errors)
	s.stats.AvgSyncDuration = (s.stats.AvgSyncDuration*float64(s.stats.TotalSyncs-1) +
		result.Duration.Seconds()) / float64(s.stats.TotalSyncs)

	s.saveStats()
}

func (s *SyncService) saveStats() {
	if s.statsPath == "" {
		return
	}
	data, err := json.MarshalIndent(s.stats, "", "  ")
	if err != nil {
		s.log.Error("Ошибка сериализации статистики", logger.Err(err))
		return
	}
	if err := os.WriteFile(s.statsPath, data, 0o600); err != nil {
		s.log.Error("Ошибка записи статистики", logger.Err(err))
	}
}

func loadStats(path string) (*SyncStats, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stats SyncStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("ошибка чтения статистики: %w", err)
	}
	return &stats, nil
}
