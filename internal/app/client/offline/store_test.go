package offline

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockkeeper/internal/app/client/storage"
	"stockkeeper/internal/domain/record"
)

func TestStore_LoadFresh(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, storage.NewMemory(), clock)

	snap := s.Load()
	assert.Equal(t, clock.Now().UnixMilli(), snap.LastModified)
	for _, col := range record.Collections() {
		assert.NotNil(t, snap.Collections[col], col.String())
		assert.Empty(t, snap.Collections[col], col.String())
		assert.NotNil(t, snap.PendingSync[col], col.String())
		assert.Empty(t, snap.PendingSync[col], col.String())
	}
}

func TestStore_EnqueueIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, storage.NewMemory(), clock)

	require.NoError(t, s.Enqueue(record.Products, map[string]any{"sku": "SKU-1", "id": "local_1001", "name": "Widget"}))
	assert.Equal(t, 1, s.PendingCount())

	first, err := s.GetQueue(record.Products)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Meta.OfflineCreated)
	assert.Equal(t, SyncPending, first[0].Meta.SyncStatus)

	require.NoError(t, s.Enqueue(record.Products, map[string]any{"sku": "SKU-1", "id": "local_1001", "name": "Widget v2"}))
	assert.Equal(t, 1, s.PendingCount())

	second, err := s.GetQueue(record.Products)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Widget v2", second[0].Record.(*record.Product).Name)
	assert.True(t, second[0].Meta.OfflineCreated)
	assert.Greater(t, second[0].Meta.LastUpdate, first[0].Meta.LastUpdate)
	assert.Equal(t, first[0].Meta.OfflineTimestamp, second[0].Meta.OfflineTimestamp)

	require.NoError(t, s.ClearQueue(record.Products))
	assert.Equal(t, 0, s.PendingCount())
}

func TestStore_EnqueueKeepsOfflineCreated(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	require.NoError(t, s.Enqueue(record.Products, map[string]any{"sku": "SKU-1", "id": "1712345678901", "name": "Widget"}))
	require.NoError(t, s.Enqueue(record.Products, map[string]any{"sku": "SKU-1", "id": "srv-9", "name": "Widget"}))

	queue, err := s.GetQueue(record.Products)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.True(t, queue[0].Meta.OfflineCreated)
}

func TestStore_EnqueueRemoteRecord(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	require.NoError(t, s.Enqueue(record.Users, map[string]any{"id": "u-remote", "username": "anna"}))

	queue, err := s.GetQueue(record.Users)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.False(t, queue[0].Meta.OfflineCreated)
}

func TestStore_EnqueuePreservesScheduleProgress(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	require.NoError(t, s.Enqueue(record.Schedules, map[string]any{
		"code": "INV-1",
		"items": []any{
			map[string]any{"sku": "A", "expected": 3, "counted": 2, "countedAt": "2024-05-01T10:00:00Z"},
		},
	}))
	require.NoError(t, s.Enqueue(record.Schedules, map[string]any{"code": "INV-1", "title": "Quarterly"}))

	queue, err := s.GetQueue(record.Schedules)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	schedule := queue[0].Record.(*record.Schedule)
	assert.Equal(t, "Quarterly", schedule.Title)
	require.Len(t, schedule.Items, 1)
	require.NotNil(t, schedule.Items[0].Counted)
	assert.Equal(t, 2, *schedule.Items[0].Counted)
}

func TestStore_EnqueueDropsMalformed(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	tests := []struct {
		name string
		item any
	}{
		{name: "nil", item: nil},
		{name: "number", item: 42},
		{name: "string", item: "not a record"},
		{name: "broken json", item: []byte(`{"sku":`)},
		{name: "wrong collection record", item: &record.User{Username: "anna"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.Enqueue(record.Products, tt.item))
		})
	}
	assert.Equal(t, 0, s.PendingCount())

	err := s.Enqueue(record.Collection("invoices"), map[string]any{"id": "1"})
	assert.ErrorIs(t, err, record.ErrUnknownCollection)
}

func TestStore_SaveCollectionDedupesProducts(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	p1 := &record.Product{Base: record.Base{ID: "p1"}, SKU: "SKU-1", Name: "Widget", Stock: 5}
	dup := &record.Product{Base: record.Base{ID: "p2"}, SKU: "SKU-1", Name: "Widget", Stock: 9}
	p3 := &record.Product{Base: record.Base{ID: "p3"}, SKU: "SKU-3", Name: "Bolt"}
	require.NoError(t, s.SaveCollection(record.Products, []record.Record{p1, dup, p3}))

	items, err := s.GetCollection(record.Products)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].(*record.Product).Stock)
	assert.Equal(t, "SKU-3", items[1].Key())
}

func TestStore_SaveCollectionKeepsLatestReservation(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	older := &record.Reservation{
		Base:     record.Base{ID: "r1", UpdatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		Operator: "opA", Equipment: "eqA", Status: "reserved",
	}
	newer := &record.Reservation{
		Base:     record.Base{ID: "r2", CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		Operator: "opA", Equipment: "eqA", Status: "in_use",
	}
	other := &record.Reservation{Base: record.Base{ID: "r3"}, Operator: "opB", Equipment: "eqA"}
	require.NoError(t, s.SaveCollection(record.Reservations, []record.Record{newer, other, older}))

	items, err := s.GetCollection(record.Reservations)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "in_use", items[0].(*record.Reservation).Status)
	assert.Equal(t, "opB|eqA", items[1].Key())
}

func TestStore_PendingCountHeals(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	syncedAt := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveCollection(record.Loans, []record.Record{
		&record.Loan{Base: record.Base{ID: "local_loan"}, ProductSKU: "SKU-1", Borrower: "anna", Quantity: 1},
		&record.Loan{Base: record.Base{ID: "srv-loan"}, ProductSKU: "SKU-1", Borrower: "boris", Quantity: 1},
		&record.Loan{Base: record.Base{ID: "local_done", SyncedAt: &syncedAt}, ProductSKU: "SKU-2", Borrower: "anna", Quantity: 1},
	}))

	assert.Equal(t, 1, s.PendingCount())

	queue, err := s.GetQueue(record.Loans)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "local_loan", queue[0].Record.Identity().ID)
	assert.True(t, queue[0].Meta.OfflineCreated)

	// второй вызов не ставит запись повторно
	assert.Equal(t, 1, s.PendingCount())
}

func TestStore_ClearQueueIsolation(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	_, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget"})
	require.NoError(t, err)
	_, err = s.Write(record.Loans, map[string]any{"productSku": "SKU-1", "borrower": "anna", "quantity": 1})
	require.NoError(t, err)
	_, err = s.Write(record.Movements, map[string]any{"productSku": "SKU-1", "kind": "out", "quantity": 1})
	require.NoError(t, err)

	before := s.Load()
	require.NoError(t, s.ClearQueue(record.Loans))
	after := s.Load()

	assert.Empty(t, after.PendingSync[record.Loans])
	assert.Len(t, after.PendingSync[record.Products], 1)
	assert.Len(t, after.PendingSync[record.Movements], 1)
	for _, col := range record.Collections() {
		assert.Equal(t, mustJSON(t, before.Collections[col]), mustJSON(t, after.Collections[col]), col.String())
	}

	require.NoError(t, s.ClearAllQueues())
	assert.Equal(t, 0, s.Load().PendingTotal())
}

func TestStore_WriteUpsertsByNaturalKey(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	first, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget", "price": "9.99"})
	require.NoError(t, err)
	assert.True(t, first.Identity().IsLocal())

	second, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget v2", "price": 12.5})
	require.NoError(t, err)
	assert.Equal(t, first.Identity().ID, second.Identity().ID)

	items, err := s.GetCollection(record.Products)
	require.NoError(t, err)
	require.Len(t, items, 1)
	product := items[0].(*record.Product)
	assert.Equal(t, "Widget v2", product.Name)
	assert.True(t, decimal.RequireFromString("12.5").Equal(product.Price))
	assert.False(t, product.CreatedAt.IsZero())

	assert.Equal(t, 1, s.PendingCount())
}

func TestStore_WriteRejectsInvalid(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	_, err := s.Write(record.Movements, map[string]any{"productSku": "SKU-1", "kind": "out", "quantity": 0})
	require.ErrorIs(t, err, record.ErrInvalidData)
	assert.Contains(t, err.Error(), "quantity")

	_, err = s.Write(record.Products, nil)
	require.ErrorIs(t, err, record.ErrMalformedRecord)

	assert.Equal(t, 0, s.PendingCount())
}

func TestStore_AcknowledgeKeepsNewerVersion(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, storage.NewMemory(), clock)

	_, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget"})
	require.NoError(t, err)
	pushed, err := s.GetQueue(record.Products)
	require.NoError(t, err)

	// запись меняется, пока отправка еще идет
	_, err = s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget v2"})
	require.NoError(t, err)

	require.NoError(t, s.Acknowledge(record.Products, pushed))
	queue, err := s.GetQueue(record.Products)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "Widget v2", queue[0].Record.(*record.Product).Name)

	items, err := s.GetCollection(record.Products)
	require.NoError(t, err)
	assert.Nil(t, items[0].Common().SyncedAt)

	clock.Advance(time.Minute)
	require.NoError(t, s.Acknowledge(record.Products, queue))
	assert.Equal(t, 0, s.PendingCount())

	items, err = s.GetCollection(record.Products)
	require.NoError(t, err)
	require.NotNil(t, items[0].Common().SyncedAt)
	assert.Equal(t, clock.Now(), *items[0].Common().SyncedAt)
}

func TestStore_AcknowledgeLeavesHandedOutRecords(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, storage.NewMemory(), clock)

	_, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget"})
	require.NoError(t, err)

	before, err := s.GetCollection(record.Products)
	require.NoError(t, err)
	snap := s.Load()
	pushed, err := s.GetQueue(record.Products)
	require.NoError(t, err)

	require.NoError(t, s.Acknowledge(record.Products, pushed))

	assert.Nil(t, before[0].Common().SyncedAt)
	assert.Nil(t, snap.Collections[record.Products][0].Common().SyncedAt)

	after, err := s.GetCollection(record.Products)
	require.NoError(t, err)
	require.NotNil(t, after[0].Common().SyncedAt)

	// изменение выданной копии не попадает в хранилище
	after[0].(*record.Product).Name = "Mutated"
	again, err := s.GetCollection(record.Products)
	require.NoError(t, err)
	assert.Equal(t, "Widget", again[0].(*record.Product).Name)
}

func TestStore_CallerRecordIsNotMutated(t *testing.T) {
	tests := []struct {
		name  string
		store func(s *Store, rec record.Record) error
	}{
		{
			name: "enqueue",
			store: func(s *Store, rec record.Record) error {
				return s.Enqueue(record.Products, rec)
			},
		},
		{
			name: "write",
			store: func(s *Store, rec record.Record) error {
				_, err := s.Write(record.Products, rec)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, storage.NewMemory(), newFakeClock())
			require.NoError(t, tt.store(s, &record.Product{Base: record.Base{ID: "srv-1"}, SKU: "SKU-1", Name: "Widget"}))

			in := &record.Product{SKU: "SKU-1", Name: "Widget v2"}
			require.NoError(t, tt.store(s, in))

			assert.Empty(t, in.ID)
			assert.Empty(t, in.Origin)
			assert.True(t, in.CreatedAt.IsZero())

			queue, err := s.GetQueue(record.Products)
			require.NoError(t, err)
			require.Len(t, queue, 1)
			assert.Equal(t, "srv-1", queue[0].Record.Identity().ID)
			assert.Equal(t, "Widget v2", queue[0].Record.(*record.Product).Name)
		})
	}
}

func TestStore_SeedQueues(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	require.NoError(t, s.SaveCollection(record.Users, []record.Record{
		&record.User{Base: record.Base{ID: "u1"}, Username: "anna"},
		&record.User{Base: record.Base{ID: "u2"}, Username: "boris"},
	}))

	seeded, err := s.SeedQueues()
	require.NoError(t, err)
	assert.Equal(t, 2, seeded)

	queue, err := s.GetQueue(record.Users)
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

func TestStore_LastModifiedIsMonotonic(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, storage.NewMemory(), clock)

	_, err := s.Write(record.Users, map[string]any{"username": "anna"})
	require.NoError(t, err)
	before := s.Load().LastModified

	clock.Advance(-time.Hour)
	_, err = s.Write(record.Users, map[string]any{"username": "boris"})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, s.Load().LastModified, before)
}

func TestStore_ReopenRestoresSnapshot(t *testing.T) {
	clock := newFakeClock()
	kv := storage.NewMemory()
	s := newTestStore(t, kv, clock)

	_, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget"})
	require.NoError(t, err)
	expected, err := s.Export()
	require.NoError(t, err)

	reopened := newTestStore(t, kv, clock)
	actual, err := reopened.Export()
	require.NoError(t, err)
	assert.JSONEq(t, expected, actual)
	assert.Equal(t, 1, reopened.PendingCount())
}

func TestStore_RebuildsFromCollectionBackups(t *testing.T) {
	clock := newFakeClock()
	kv := storage.NewMemory()
	s := newTestStore(t, kv, clock)

	require.NoError(t, s.SaveCollection(record.Products, []record.Record{
		&record.Product{Base: record.Base{ID: "p1"}, SKU: "SKU-1", Name: "Widget"},
	}))
	for _, prefix := range []string{blobKey, collectionPrefix, itemPrefix} {
		require.NoError(t, deletePrefix(kv, prefix))
	}

	restored := newTestStore(t, kv, clock)
	items, err := restored.GetCollection(record.Products)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SKU-1", items[0].Key())
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	clock := newFakeClock()
	source := newTestStore(t, storage.NewMemory(), clock)

	_, err := source.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget", "price": "3.50"})
	require.NoError(t, err)
	_, err = source.Write(record.Schedules, map[string]any{
		"code":  "INV-1",
		"items": []any{map[string]any{"sku": "SKU-1", "expected": 4}},
	})
	require.NoError(t, err)
	require.NoError(t, source.SaveCollection(record.Users, []record.Record{
		&record.User{Base: record.Base{ID: "u1"}, Username: "anna"},
	}))

	exported, err := source.Export()
	require.NoError(t, err)

	target := newTestStore(t, storage.NewMemory(), clock)
	require.NoError(t, target.Import(exported))

	reexported, err := target.Export()
	require.NoError(t, err)
	assert.JSONEq(t, exported, reexported)
	assert.Equal(t, source.Load().LastModified, target.Load().LastModified)
	assert.Equal(t, 2, target.PendingCount())
}

func TestStore_ImportInvalidLeavesState(t *testing.T) {
	s := newTestStore(t, storage.NewMemory(), newFakeClock())

	_, err := s.Write(record.Products, map[string]any{"sku": "SKU-1", "name": "Widget"})
	require.NoError(t, err)
	before, err := s.Export()
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
	}{
		{name: "not json", text: "definitely not a backup"},
		{name: "null", text: "null"},
		{name: "no lastModified", text: `{"products": []}`},
		{name: "unknown queue", text: `{"lastModified": 1, "pendingSync": {"invoices": []}}`},
		{name: "bad record", text: `{"lastModified": 1, "products": [42]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Import(tt.text)
			assert.ErrorIs(t, err, ErrInvalidBackup)
		})
	}

	after, err := s.Export()
	require.NoError(t, err)
	assert.JSONEq(t, before, after)
}

func TestStore_ImportKeepsNewestLastModified(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(t, storage.NewMemory(), clock)
	current := s.Load().LastModified

	backup := NewSnapshot(clock.Now().Add(-24 * time.Hour))
	data, err := json.Marshal(backup)
	require.NoError(t, err)

	require.NoError(t, s.Import(string(data)))
	assert.Equal(t, current, s.Load().LastModified)
}

func TestStore_ResetKeepsSession(t *testing.T) {
	clock := newFakeClock()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(storage.SessionKey, []byte("device-token")))
	s := newTestStore(t, kv, clock)

	require.NoError(t, s.SaveCollection(record.Products, []record.Record{
		&record.Product{Base: record.Base{ID: "p1"}, SKU: "SKU-1", Name: "Widget"},
	}))
	_, err := s.Write(record.Loans, map[string]any{"productSku": "SKU-1", "borrower": "anna", "quantity": 1})
	require.NoError(t, err)

	require.NoError(t, s.Reset())

	snap := s.Load()
	for _, col := range record.Collections() {
		assert.Empty(t, snap.Collections[col], col.String())
		assert.Empty(t, snap.PendingSync[col], col.String())
	}
	token, err := kv.Get(storage.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, "device-token", string(token))

	_, err = kv.Get(backupPrefix + record.Products.String())
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestStore_StorageExhaustedNotifies(t *testing.T) {
	var notified []error
	notifier := NotifierFunc(func(err error) { notified = append(notified, err) })

	s := newTestStore(t, &brokenKV{KV: storage.NewMemory()}, newFakeClock(), WithNotifier(notifier))

	_, err := s.Write(record.Users, map[string]any{"username": "anna"})
	require.ErrorIs(t, err, ErrStorageExhausted)
	require.Len(t, notified, 1)

	// данные остаются в памяти процесса
	assert.Equal(t, 1, s.PendingCount())
}

func TestStore_ExhaustedWriteKeepsPersistedData(t *testing.T) {
	clock := newFakeClock()
	inner := storage.NewMemory()
	kv := &quotaKV{KV: inner}

	var notified int
	s := newTestStore(t, kv, clock, WithNotifier(NotifierFunc(func(error) { notified++ })))
	_, err := s.Write(record.Users, map[string]any{"username": "anna"})
	require.NoError(t, err)

	kv.FailAfter(0)
	clock.Advance(time.Minute)
	_, err = s.Write(record.Users, map[string]any{"username": "boris"})
	require.ErrorIs(t, err, ErrStorageExhausted)
	assert.Equal(t, 1, notified)

	reopened := newTestStore(t, inner, clock)
	users, err := reopened.GetCollection(record.Users)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "anna", users[0].(*record.User).Username)
	assert.Equal(t, 1, reopened.PendingCount())
}

func TestStore_MemoryFallback(t *testing.T) {
	var notified int
	notifier := NotifierFunc(func(error) { notified++ })

	s := newTestStore(t, &brokenKV{KV: storage.NewMemory()}, newFakeClock(),
		WithNotifier(notifier), WithMemoryFallback())

	_, err := s.Write(record.Users, map[string]any{"username": "anna"})
	require.NoError(t, err)
	assert.Zero(t, notified)
}
