package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/exp/slog"

	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/utils/logger"
)

const (
	inboxExt   = ".json"
	doneSuffix = ".done"
)

// RecordWriter - путь записи из интерфейса
type RecordWriter interface {
	Write(col record.Collection, raw any) (record.Record, error)
}

// InboxFile - формат файла во входящем каталоге
type InboxFile struct {
	Collection string           `json:"collection"`
	Items      []map[string]any `json:"items"`
}

// InboxWatcher принимает файлы с записями из каталога и пишет их в локальное хранилище.
// Обработанный файл переименовывается с суффиксом .done, файл с ошибкой разбора
// остается на месте до следующего события записи.
type InboxWatcher struct {
	dir    string
	writer RecordWriter
	log    *slog.Logger
}

func NewInboxWatcher(dir string, writer RecordWriter, log *slog.Logger) *InboxWatcher {
	return &InboxWatcher{
		dir:    dir,
		writer: writer,
		log:    log.With(slog.String("component", "inbox_watcher")),
	}
}

// Run обрабатывает уже лежащие файлы и затем следит за каталогом до отмены контекста.
func (w *InboxWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("ошибка создания входящего каталога: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch inbox %s: %w", w.dir, err)
	}

	w.processExisting()
	w.log.Info("Наблюдение за входящим каталогом запущено", slog.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isInboxFile(event.Name) || !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.processFile(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Ошибка наблюдения за каталогом", logger.Err(err))
		}
	}
}

func (w *InboxWatcher) processExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("Ошибка чтения входящего каталога", logger.Err(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isInboxFile(entry.Name()) {
			continue
		}
		w.processFile(filepath.Join(w.dir, entry.Name()))
	}
}

// processFile возвращает число записанных элементов
func (w *InboxWatcher) processFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		// файл мог быть уже обработан и переименован
		if !os.IsNotExist(err) {
			w.log.Warn("Ошибка чтения файла", slog.String("file", path), logger.Err(err))
		}
		return 0
	}

	var file InboxFile
	if err := json.Unmarshal(data, &file); err != nil {
		w.log.Warn("Файл не разобран, будет повторен при следующей записи", slog.String("file", path), logger.Err(err))
		return 0
	}
	col, err := record.ParseCollection(file.Collection)
	if err != nil {
		w.log.Warn("Неизвестная коллекция в файле", slog.String("file", path), logger.Err(err))
		return 0
	}

	written := 0
	for i, item := range file.Items {
		if _, err := w.writer.Write(col, item); err != nil {
			w.log.Warn("Запись из файла отклонена",
				slog.String("file", path),
				slog.Int("index", i),
				logger.Err(err),
			)
			continue
		}
		written++
	}

	if err := os.Rename(path, path+doneSuffix); err != nil {
		w.log.Error("Ошибка переименования обработанного файла", slog.String("file", path), logger.Err(err))
	}
	w.log.Info("Файл обработан",
		slog.String("file", filepath.Base(path)),
		slog.String("collection", col.String()),
		slog.Int("written", written),
		slog.Int("total", len(file.Items)),
	)
	return written
}

func isInboxFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), inboxExt)
}
