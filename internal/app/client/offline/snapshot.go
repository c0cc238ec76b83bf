package offline

import (
	"encoding/json"
	"fmt"
	"time"

	"stockkeeper/internal/domain/record"
)

const pendingSyncKey = "pendingSync"
const lastModifiedKey = "lastModified"

var factory = record.NewRecordFactory()

// SyncStatus - статус записи в очереди синхронизации
type SyncStatus string

const SyncPending SyncStatus = "pending"

// SyncMeta - служебные поля записи в очереди
type SyncMeta struct {
	OfflineCreated   bool       `json:"_offlineCreated"`
	OfflineTimestamp int64      `json:"_offlineTimestamp"`
	SyncStatus       SyncStatus `json:"_syncStatus"`
	LastUpdate       int64      `json:"_lastUpdate"`
}

// QueueEntry - запись, ожидающая подтверждения удаленным хранилищем
type QueueEntry struct {
	Record record.Record
	Meta   SyncMeta
}

// MarshalJSON сериализует запись и метаданные в один плоский объект.
func (e QueueEntry) MarshalJSON() ([]byte, error) {
	fields, err := objectFields(e.Record)
	if err != nil {
		return nil, err
	}
	meta, err := objectFields(e.Meta)
	if err != nil {
		return nil, err
	}
	for k, v := range meta {
		fields[k] = v
	}
	return json.Marshal(fields)
}

func parseEntry(col record.Collection, data []byte) (QueueEntry, error) {
	rec, err := factory.Parse(col, data)
	if err != nil {
		return QueueEntry{}, err
	}
	var meta SyncMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return QueueEntry{}, fmt.Errorf("failed to parse queue metadata: %w", err)
	}
	return QueueEntry{Record: rec, Meta: meta}, nil
}

func objectFields(v any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Snapshot - единый локальный агрегат: коллекции, очереди и отметка изменения.
// Все шесть коллекций и очередей присутствуют всегда, даже пустые.
type Snapshot struct {
	Collections  map[record.Collection][]record.Record
	PendingSync  map[record.Collection][]QueueEntry
	LastModified int64
}

// NewSnapshot создает пустой снимок
func NewSnapshot(now time.Time) *Snapshot {
	s := &Snapshot{LastModified: now.UnixMilli()}
	s.ensure()
	return s
}

func (s *Snapshot) ensure() {
	if s.Collections == nil {
		s.Collections = make(map[record.Collection][]record.Record, len(record.Collections()))
	}
	if s.PendingSync == nil {
		s.PendingSync = make(map[record.Collection][]QueueEntry, len(record.Collections()))
	}
	for _, col := range record.Collections() {
		if s.Collections[col] == nil {
			s.Collections[col] = []record.Record{}
		}
		if s.PendingSync[col] == nil {
			s.PendingSync[col] = []QueueEntry{}
		}
	}
}

// Clone копирует снимок вместе с записями.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Collections:  make(map[record.Collection][]record.Record, len(s.Collections)),
		PendingSync:  make(map[record.Collection][]QueueEntry, len(s.PendingSync)),
		LastModified: s.LastModified,
	}
	for col, items := range s.Collections {
		out.Collections[col] = cloneRecords(items)
	}
	for col, entries := range s.PendingSync {
		out.PendingSync[col] = cloneEntries(entries)
	}
	out.ensure()
	return out
}

// PendingTotal возвращает суммарную длину всех очередей.
func (s *Snapshot) PendingTotal() int {
	total := 0
	for _, entries := range s.PendingSync {
		total += len(entries)
	}
	return total
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(record.Collections())+2)
	pending := make(map[string][]QueueEntry, len(record.Collections()))
	for _, col := range record.Collections() {
		items := s.Collections[col]
		if items == nil {
			items = []record.Record{}
		}
		fields[col.String()] = items

		entries := s.PendingSync[col]
		if entries == nil {
			entries = []QueueEntry{}
		}
		pending[col.String()] = entries
	}
	fields[pendingSyncKey] = pending
	fields[lastModifiedKey] = s.LastModified
	return json.Marshal(fields)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("snapshot is null")
	}

	out := Snapshot{}
	out.ensure()

	for _, col := range record.Collections() {
		raw, ok := fields[col.String()]
		if !ok || isNull(raw) {
			continue
		}
		items, err := factory.ParseList(col, raw)
		if err != nil {
			return err
		}
		out.Collections[col] = items
	}

	if raw, ok := fields[pendingSyncKey]; ok && !isNull(raw) {
		pending, err := parsePending(raw)
		if err != nil {
			return err
		}
		for col, entries := range pending {
			out.PendingSync[col] = entries
		}
	}

	if raw, ok := fields[lastModifiedKey]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.LastModified); err != nil {
			return fmt.Errorf("failed to parse lastModified: %w", err)
		}
	}

	*s = out
	return nil
}

func parsePending(data []byte) (map[record.Collection][]QueueEntry, error) {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pendingSync: %w", err)
	}

	out := make(map[record.Collection][]QueueEntry, len(raw))
	for name, items := range raw {
		col, err := record.ParseCollection(name)
		if err != nil {
			return nil, err
		}
		entries, err := parseEntries(col, items)
		if err != nil {
			return nil, err
		}
		out[col] = entries
	}
	return out, nil
}

func parseEntries(col record.Collection, items []json.RawMessage) ([]QueueEntry, error) {
	entries := make([]QueueEntry, 0, len(items))
	for i, item := range items {
		entry, err := parseEntry(col, item)
		if err != nil {
			return nil, fmt.Errorf("%s queue item %d: %w", col, i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// cloneRecord делает независимую копию записи.
func cloneRecord(rec record.Record) (record.Record, error) {
	return factory.Clone(rec)
}

// cloneRecords копирует записи. Запись, которую не удалось скопировать,
// остается общей: в снимок попадают только сериализуемые записи.
func cloneRecords(items []record.Record) []record.Record {
	out := make([]record.Record, 0, len(items))
	for _, rec := range items {
		if clone, err := cloneRecord(rec); err == nil {
			rec = clone
		}
		out = append(out, rec)
	}
	return out
}

func cloneEntries(entries []QueueEntry) []QueueEntry {
	out := make([]QueueEntry, 0, len(entries))
	for _, entry := range entries {
		if clone, err := cloneRecord(entry.Record); err == nil {
			entry.Record = clone
		}
		out = append(out, entry)
	}
	return out
}
