package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"stockkeeper/internal/app/client/config"
	"stockkeeper/internal/app/client/offline"
	"stockkeeper/internal/app/client/storage"
	"stockkeeper/internal/domain/record"
	remote "stockkeeper/internal/domain/sync"
	"stockkeeper/internal/utils/logger"
)

const statsFile = "sync_stats.json"

// App связывает локальное хранилище, клиент сервера и синхронизацию
type App struct {
	config      *config.Config
	log         *slog.Logger
	kv          storage.KV
	store       *offline.Store
	httpClient  *httpClient
	syncService *SyncService
	session     sessionStore
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	// Локальное хранилище: SQLite, при ошибке - память
	var kv storage.KV
	sqliteKV, err := storage.NewSQLite(cfg.DataPath, storage.WithQuota(cfg.StorageQuotaBytes))
	if err != nil {
		log.Warn("Не удалось открыть SQLite, используем память", logger.Err(err))
		kv = storage.NewMemory(storage.WithQuota(cfg.StorageQuotaBytes))
	} else {
		kv = sqliteKV
	}

	opts := []offline.Option{offline.WithNotifier(NewStderrNotifier(os.Stderr))}
	if cfg.MemoryFallback {
		opts = append(opts, offline.WithMemoryFallback())
	}
	store := offline.New(kv, log, opts...)
	if err := store.Init(); err != nil {
		kv.Close()
		return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
	}

	httpCl := NewHTTPClient(cfg, log)

	app := &App{
		config:      cfg,
		log:         log,
		kv:          kv,
		store:       store,
		httpClient:  httpCl,
		syncService: NewSyncService(store, httpCl, log, filepath.Join(cfg.ConfigDir, statsFile)),
		session:     sessionStore{kv: kv},
	}

	// Токен из окружения важнее сохраненного
	if cfg.DeviceToken == "" {
		if session, err := app.session.Load(); err == nil {
			httpCl.SetToken(session.Token)
			log.Debug("Токен устройства загружен", slog.String("device", session.DeviceID))
		} else if !errors.Is(err, ErrNoSession) {
			log.Warn("Не удалось загрузить сессию устройства", logger.Err(err))
		}
	}

	return app, nil
}

// Run запускает режим агента: мониторинг связи и наблюдение за входящим каталогом.
// Возвращается после отмены контекста.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	debouncer := NewDebouncer(a.config.StabilityWindow, a.config.GraceDelay, func() {
		if _, err := a.syncService.SyncPendingOnly(ctx); err != nil {
			a.log.Error("Ошибка синхронизации", logger.Err(err))
		}
	})
	monitor := NewMonitor(a.httpClient, a.config.PollInterval, debouncer, a.log)
	watcher := NewInboxWatcher(a.config.InboxDir, a.store, a.log)

	unsubscribe := a.syncService.Subscribe(func(result SyncResult) {
		a.log.Info("Синхронизация завершена",
			slog.Bool("success", result.Success),
			slog.Int("uploaded", result.TotalSynced),
			slog.Int("errors", len(result.Errors)),
			slog.Duration("duration", result.Duration),
		)
	})
	defer unsubscribe()

	g.Go(func() error {
		return monitor.Run(ctx)
	})
	g.Go(func() error {
		return watcher.Run(ctx)
	})

	a.log.Info("Агент запущен",
		slog.String("server", a.config.BaseURL()),
		slog.String("env", a.config.Env),
		slog.String("inbox", a.config.InboxDir),
	)

	err := g.Wait()
	a.log.Info("Агент остановлен")
	return err
}

// Close сохраняет снимок и закрывает хранилище
func (a *App) Close() error {
	return a.store.Close()
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.httpClient.HealthCheck(ctx)
}

// RegisterDevice регистрирует устройство на сервере и сохраняет выданный токен
func (a *App) RegisterDevice(ctx context.Context, name, secret string) (*DeviceSession, error) {
	deviceID, token, err := a.httpClient.RegisterDevice(ctx, name, secret)
	if err != nil {
		return nil, fmt.Errorf("ошибка регистрации устройства: %w", err)
	}

	session := &DeviceSession{
		DeviceID:     deviceID,
		Name:         name,
		Token:        token,
		RegisteredAt: time.Now().UTC(),
	}
	if err := a.session.Save(session); err != nil {
		return nil, err
	}
	a.log.Info("Устройство зарегистрировано", slog.String("device", deviceID))
	return session, nil
}

// Session возвращает сохраненную сессию устройства
func (a *App) Session() (*DeviceSession, error) {
	return a.session.Load()
}

// IsRegistered проверяет, есть ли у устройства токен
func (a *App) IsRegistered() bool {
	if a.config.DeviceToken != "" {
		return true
	}
	_, err := a.session.Load()
	return err == nil
}

// AddRecord записывает запись в коллекцию и ставит ее в очередь синхронизации
func (a *App) AddRecord(col record.Collection, raw any) (record.Record, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}
	return a.store.Write(col, raw)
}

func (a *App) ListRecords(col record.Collection) ([]record.Record, error) {
	return a.store.GetCollection(col)
}

func (a *App) Queue(col record.Collection) ([]offline.QueueEntry, error) {
	return a.store.GetQueue(col)
}

func (a *App) ClearQueue(col record.Collection) error {
	return a.store.ClearQueue(col)
}

func (a *App) ClearAllQueues() error {
	return a.store.ClearAllQueues()
}

// PendingCount возвращает число элементов, ожидающих отправки
func (a *App) PendingCount() int {
	return a.store.PendingCount()
}

// Sync отправляет очереди на сервер. При force сначала ставятся в очередь все записи.
func (a *App) Sync(ctx context.Context, force bool) (*SyncResult, error) {
	if !a.IsRegistered() {
		return nil, ErrNoSession
	}
	if force {
		return a.syncService.ForceSyncAll(ctx)
	}
	return a.syncService.SyncPendingOnly(ctx)
}

// SyncStats возвращает накопленную статистику синхронизаций
func (a *App) SyncStats() SyncStats {
	return a.syncService.GetStats()
}

// RemoteStatus возвращает число документов на сервере по коллекциям
func (a *App) RemoteStatus(ctx context.Context) (*remote.StatusResponse, error) {
	return a.httpClient.Status(ctx)
}

// RemoteDocuments возвращает страницу документов коллекции с сервера
func (a *App) RemoteDocuments(ctx context.Context, col record.Collection, limit, offset int) (*remote.DocumentsResponse, error) {
	if err := col.Validate(); err != nil {
		return nil, err
	}
	if !a.IsRegistered() {
		return nil, ErrNoSession
	}
	return a.httpClient.Documents(ctx, col, limit, offset)
}

func (a *App) Export() (string, error) {
	return a.store.Export()
}

func (a *App) Import(text string) error {
	return a.store.Import(text)
}

// Reset очищает локальные данные. Регистрация устройства сохраняется.
func (a *App) Reset() error {
	return a.store.Reset()
}
