package offline

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockkeeper/internal/app/client/storage"
	"stockkeeper/internal/utils/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, kv storage.KV, clock *fakeClock, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	s := New(kv, logger.Discard(), opts...)
	require.NoError(t, s.Init())
	return s
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// limitKV отказывает в записи значений больше max байт
type limitKV struct {
	storage.KV
	max int
}

func (k *limitKV) Set(key string, value []byte) error {
	if len(value) > k.max {
		return storage.ErrQuotaExceeded
	}
	return k.KV.Set(key, value)
}

// lossyKV молча обрезает значение снимка целиком
type lossyKV struct {
	storage.KV
}

func (k *lossyKV) Set(key string, value []byte) error {
	if strings.HasSuffix(key, ":snapshot") && len(value) > 1 {
		value = value[:len(value)/2]
	}
	return k.KV.Set(key, value)
}

// brokenKV отказывает в любой записи
type brokenKV struct {
	storage.KV
}

func (k *brokenKV) Set(string, []byte) error {
	return errors.New("disk unavailable")
}

// quotaKV пропускает записи, пока не вызван FailAfter, затем разрешает еще n записей
type quotaKV struct {
	storage.KV
	mu      sync.Mutex
	limited bool
	budget  int
}

func (k *quotaKV) FailAfter(n int) {
	k.mu.Lock()
	k.limited, k.budget = true, n
	k.mu.Unlock()
}

func (k *quotaKV) Set(key string, value []byte) error {
	k.mu.Lock()
	if k.limited {
		if k.budget <= 0 {
			k.mu.Unlock()
			return storage.ErrQuotaExceeded
		}
		k.budget--
	}
	k.mu.Unlock()
	return k.KV.Set(key, value)
}
