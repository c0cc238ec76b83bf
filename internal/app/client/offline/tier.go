package offline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/app/client/storage"
	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/utils/logger"
)

const (
	offlinePrefix    = storage.Prefix + "offline:"
	blobKey          = offlinePrefix + "snapshot"
	collectionPrefix = offlinePrefix + "collection:"
	itemPrefix       = offlinePrefix + "item:"
	backupPrefix     = offlinePrefix + "backup:"
)

var (
	// ErrStorageExhausted - ни один уровень хранения не смог записать снимок
	ErrStorageExhausted = errors.New("all persistence tiers failed")

	errNoData = errors.New("tier holds no snapshot")
)

// Tier - один уровень сохранения снимка
type Tier interface {
	Name() string
	Write(snap *Snapshot) error
	Read() (*Snapshot, error)
	Clear() error
}

// Notifier сообщает пользователю о том, что сохранить данные не удалось
type Notifier interface {
	NotifyStorageExhausted(err error)
}

// NotifierFunc позволяет использовать функцию как Notifier
type NotifierFunc func(err error)

func (f NotifierFunc) NotifyStorageExhausted(err error) {
	f(err)
}

// Chain пробует уровни по порядку, пока один из них не запишет снимок
type Chain struct {
	tiers    []Tier
	notifier Notifier
	log      *slog.Logger
}

// NewChain создает цепочку уровней сохранения
func NewChain(log *slog.Logger, notifier Notifier, tiers ...Tier) *Chain {
	return &Chain{
		tiers:    tiers,
		notifier: notifier,
		log:      log.With(slog.String("component", "persistence_chain")),
	}
}

// Persist записывает снимок в первый уровень, который справится. После успеха
// остальные уровни очищаются. Если не справился никто, уже сохраненные данные
// не трогаются, пользователь уведомляется один раз и возвращается ErrStorageExhausted.
func (c *Chain) Persist(snap *Snapshot) (string, error) {
	var errs []error
	for i, tier := range c.tiers {
		err := tier.Write(snap)
		if err == nil {
			if i > 0 {
				c.log.Warn("snapshot persisted by fallback tier", slog.String("tier", tier.Name()))
			}
			c.clearExcept(i)
			return tier.Name(), nil
		}

		c.log.Warn("persistence tier failed", slog.String("tier", tier.Name()), logger.Err(err))
		errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
	}

	err := fmt.Errorf("%w: %w", ErrStorageExhausted, errors.Join(errs...))
	c.log.Error("snapshot could not be persisted", logger.Err(err))
	if c.notifier != nil {
		c.notifier.NotifyStorageExhausted(err)
	}
	return "", err
}

// Restore читает все уровни и возвращает самый свежий снимок.
func (c *Chain) Restore() (*Snapshot, string, error) {
	var (
		best     *Snapshot
		bestTier string
	)
	for _, tier := range c.tiers {
		snap, err := tier.Read()
		if err != nil {
			if !errors.Is(err, errNoData) {
				c.log.Warn("failed to read persistence tier", slog.String("tier", tier.Name()), logger.Err(err))
			}
			continue
		}
		if best == nil || snap.LastModified > best.LastModified {
			best, bestTier = snap, tier.Name()
		}
	}
	if best == nil {
		return nil, "", errNoData
	}
	return best, bestTier, nil
}

// Clear очищает все уровни.
func (c *Chain) Clear() error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// clearExcept очищает все уровни, кроме только что записанного: старые версии
// выше него и устаревшие ниже.
func (c *Chain) clearExcept(idx int) {
	for i, tier := range c.tiers {
		if i == idx {
			continue
		}
		if err := tier.Clear(); err != nil {
			c.log.Debug("failed to clear stale tier", slog.String("tier", tier.Name()), logger.Err(err))
		}
	}
}

// BlobTier хранит весь снимок под одним ключом и проверяет запись чтением.
type BlobTier struct {
	kv storage.KV
}

func NewBlobTier(kv storage.KV) *BlobTier {
	return &BlobTier{kv: kv}
}

func (t *BlobTier) Name() string {
	return "blob"
}

func (t *BlobTier) Write(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	if err := t.kv.Set(blobKey, data); err != nil {
		return err
	}
	stored, err := t.kv.Get(blobKey)
	if err != nil {
		return fmt.Errorf("failed to verify snapshot: %w", err)
	}
	if !bytes.Equal(stored, data) {
		return errors.New("snapshot verification mismatch")
	}
	return nil
}

func (t *BlobTier) Read() (*Snapshot, error) {
	data, err := t.kv.Get(blobKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoData
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot blob: %w", err)
	}
	return &snap, nil
}

func (t *BlobTier) Clear() error {
	return t.kv.Delete(blobKey)
}

// head - указатель на текущее поколение многоключевого уровня. Новое поколение
// пишется рядом со старым, и только после полной записи head переключается на него.
type head struct {
	Generation   int64 `json:"generation"`
	LastModified int64 `json:"lastModified"`
}

func readHead(kv storage.KV, prefix string) (head, error) {
	data, err := kv.Get(prefix + "head")
	if errors.Is(err, storage.ErrNotFound) {
		return head{}, errNoData
	}
	if err != nil {
		return head{}, err
	}
	var h head
	if err := json.Unmarshal(data, &h); err != nil {
		return head{}, fmt.Errorf("failed to parse %shead: %w", prefix, err)
	}
	return h, nil
}

func generationPrefix(prefix string, gen int64) string {
	return prefix + "g" + strconv.FormatInt(gen, 10) + ":"
}

// writeGeneration пишет снимок в следующее поколение и переключает head.
// При ошибке недописанное поколение удаляется, текущее остается читаемым.
func writeGeneration(kv storage.KV, prefix string, lastModified int64, write func(genPrefix string) error) error {
	current, err := readHead(kv, prefix)
	if err != nil && !errors.Is(err, errNoData) {
		// испорченный head ничего не указывает, уровень начинается заново
		if err := deletePrefix(kv, prefix); err != nil {
			return err
		}
		current = head{}
	}
	nextPrefix := generationPrefix(prefix, current.Generation+1)
	// остатки прерванной записи
	if err := deletePrefix(kv, nextPrefix); err != nil {
		return err
	}

	if err := write(nextPrefix); err != nil {
		_ = deletePrefix(kv, nextPrefix)
		return err
	}
	if err := setJSON(kv, prefix+"head", head{Generation: current.Generation + 1, LastModified: lastModified}); err != nil {
		_ = deletePrefix(kv, nextPrefix)
		return err
	}
	if current.Generation > 0 {
		_ = deletePrefix(kv, generationPrefix(prefix, current.Generation))
	}
	return nil
}

// CollectionTier хранит каждый ключ верхнего уровня отдельной записью.
type CollectionTier struct {
	kv storage.KV
}

func NewCollectionTier(kv storage.KV) *CollectionTier {
	return &CollectionTier{kv: kv}
}

func (t *CollectionTier) Name() string {
	return "collection"
}

func (t *CollectionTier) Write(snap *Snapshot) error {
	return writeGeneration(t.kv, collectionPrefix, snap.LastModified, func(prefix string) error {
		for _, col := range record.Collections() {
			if err := setJSON(t.kv, prefix+col.String(), snap.Collections[col]); err != nil {
				return err
			}
		}
		return setJSON(t.kv, prefix+pendingSyncKey, snap.PendingSync)
	})
}

func (t *CollectionTier) Read() (*Snapshot, error) {
	h, err := readHead(t.kv, collectionPrefix)
	if err != nil {
		return nil, err
	}
	prefix := generationPrefix(collectionPrefix, h.Generation)

	snap := &Snapshot{LastModified: h.LastModified}
	snap.ensure()
	for _, col := range record.Collections() {
		data, err := t.kv.Get(prefix + col.String())
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items, err := factory.ParseList(col, data)
		if err != nil {
			return nil, err
		}
		snap.Collections[col] = items
	}

	data, err := t.kv.Get(prefix + pendingSyncKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		pending, err := parsePending(data)
		if err != nil {
			return nil, err
		}
		for col, entries := range pending {
			snap.PendingSync[col] = entries
		}
	}
	return snap, nil
}

func (t *CollectionTier) Clear() error {
	return deletePrefix(t.kv, collectionPrefix)
}

// ItemTier хранит каждую запись отдельным ключом с индексом и ключ со счетчиком.
type ItemTier struct {
	kv storage.KV
}

func NewItemTier(kv storage.KV) *ItemTier {
	return &ItemTier{kv: kv}
}

func (t *ItemTier) Name() string {
	return "item"
}

func (t *ItemTier) Write(snap *Snapshot) error {
	return writeGeneration(t.kv, itemPrefix, snap.LastModified, func(prefix string) error {
		for _, col := range record.Collections() {
			items := snap.Collections[col]
			for i, item := range items {
				if err := setJSON(t.kv, itemKey(prefix, col, strconv.Itoa(i)), item); err != nil {
					return err
				}
			}
			if err := t.kv.Set(itemKey(prefix, col, "count"), []byte(strconv.Itoa(len(items)))); err != nil {
				return err
			}

			entries := snap.PendingSync[col]
			for i, entry := range entries {
				if err := setJSON(t.kv, itemKey(prefix+"queue:", col, strconv.Itoa(i)), entry); err != nil {
					return err
				}
			}
			if err := t.kv.Set(itemKey(prefix+"queue:", col, "count"), []byte(strconv.Itoa(len(entries)))); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *ItemTier) Read() (*Snapshot, error) {
	h, err := readHead(t.kv, itemPrefix)
	if err != nil {
		return nil, err
	}
	prefix := generationPrefix(itemPrefix, h.Generation)

	snap := &Snapshot{LastModified: h.LastModified}
	snap.ensure()
	for _, col := range record.Collections() {
		count, err := readInt(t.kv, itemKey(prefix, col, "count"))
		if err != nil && !errors.Is(err, errNoData) {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			data, err := t.kv.Get(itemKey(prefix, col, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			rec, err := factory.Parse(col, data)
			if err != nil {
				return nil, err
			}
			snap.Collections[col] = append(snap.Collections[col], rec)
		}

		count, err = readInt(t.kv, itemKey(prefix+"queue:", col, "count"))
		if err != nil && !errors.Is(err, errNoData) {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			data, err := t.kv.Get(itemKey(prefix+"queue:", col, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			entry, err := parseEntry(col, data)
			if err != nil {
				return nil, err
			}
			snap.PendingSync[col] = append(snap.PendingSync[col], entry)
		}
	}
	return snap, nil
}

func (t *ItemTier) Clear() error {
	return deletePrefix(t.kv, itemPrefix)
}

func itemKey(prefix string, col record.Collection, suffix string) string {
	return prefix + col.String() + ":" + suffix
}

// MemoryTier - последний уровень, держит снимок только в памяти процесса.
type MemoryTier struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryTier() *MemoryTier {
	return &MemoryTier{}
}

func (t *MemoryTier) Name() string {
	return "memory"
}

func (t *MemoryTier) Write(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
	return nil
}

func (t *MemoryTier) Read() (*Snapshot, error) {
	t.mu.Lock()
	data := t.data
	t.mu.Unlock()

	if data == nil {
		return nil, errNoData
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (t *MemoryTier) Clear() error {
	t.mu.Lock()
	t.data = nil
	t.mu.Unlock()
	return nil
}

func setJSON(kv storage.KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	return kv.Set(key, data)
}

func readInt(kv storage.KV, key string) (int64, error) {
	data, err := kv.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, errNoData
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return n, nil
}

func deletePrefix(kv storage.KV, prefix string) error {
	keys, err := kv.Keys(prefix)
	if err != nil {
		return err
	}
	var errs []error
	for _, key := range keys {
		if err := kv.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
