package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockkeeper/internal/utils/logger"
)

func TestDebouncer(t *testing.T) {
	const (
		stability = 30 * time.Millisecond
		grace     = 20 * time.Millisecond
	)

	tests := []struct {
		name      string
		events    func(d *Debouncer)
		wantFires int32
	}{
		{
			name: "fires once after stability and grace",
			events: func(d *Debouncer) {
				d.Online()
				d.Online()
			},
			wantFires: 1,
		},
		{
			name: "offline during stability window cancels",
			events: func(d *Debouncer) {
				d.Online()
				time.Sleep(stability / 2)
				d.Offline()
			},
			wantFires: 0,
		},
		{
			name: "offline during grace delay cancels",
			events: func(d *Debouncer) {
				d.Online()
				time.Sleep(stability + grace/3)
				d.Offline()
			},
			wantFires: 0,
		},
		{
			name: "flapping connection fires once after it settles",
			events: func(d *Debouncer) {
				d.Online()
				d.Offline()
				d.Online()
				d.Offline()
				d.Online()
			},
			wantFires: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fires atomic.Int32
			d := NewDebouncer(stability, grace, func() { fires.Add(1) })

			tt.events(d)
			time.Sleep(3 * (stability + grace))

			assert.Equal(t, tt.wantFires, fires.Load())
			assert.False(t, d.Pending())
		})
	}
}

func TestDebouncer_NeverFiresImmediately(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(50*time.Millisecond, 50*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	d.Online()
	assert.Equal(t, int32(0), fires.Load())
	assert.True(t, d.Pending())
}

type scriptedProber struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (p *scriptedProber) HealthCheck(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	if idx >= len(p.results) {
		idx = len(p.results) - 1
	}
	p.calls++
	return p.results[idx]
}

func TestMonitor_TriggersSyncAfterStableConnection(t *testing.T) {
	offline := errors.New("connection refused")
	prober := &scriptedProber{results: []error{offline, offline, nil}}

	var fires atomic.Int32
	d := NewDebouncer(20*time.Millisecond, 10*time.Millisecond, func() { fires.Add(1) })
	m := NewMonitor(prober, 5*time.Millisecond, d, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return fires.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Online())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load(), "staying online must not retrigger")

	cancel()
	require.NoError(t, <-done)
}

func TestMonitor_OfflineProbeCancelsPendingSync(t *testing.T) {
	offline := errors.New("timeout")
	prober := &scriptedProber{results: []error{nil, offline}}

	var fires atomic.Int32
	d := NewDebouncer(50*time.Millisecond, 10*time.Millisecond, func() { fires.Add(1) })
	m := NewMonitor(prober, 10*time.Millisecond, d, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	assert.Equal(t, int32(0), fires.Load())
	assert.False(t, m.Online())
}
