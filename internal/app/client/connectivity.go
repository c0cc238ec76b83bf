package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/utils/logger"
)

// Debouncer откладывает автосинхронизацию после появления связи: сначала связь
// должна продержаться окно стабильности, затем выдерживается пауза, и только после
// этого вызывается fire. Любое событие offline отменяет ожидание.
type Debouncer struct {
	stability time.Duration
	grace     time.Duration
	fire      func()

	mu     sync.Mutex
	online bool
	gen    uint64
	timer  *time.Timer
}

func NewDebouncer(stability, grace time.Duration, fire func()) *Debouncer {
	return &Debouncer{
		stability: stability,
		grace:     grace,
		fire:      fire,
	}
}

// Online отмечает наличие связи. Повторный вызов при уже отмеченной связи ничего не делает.
func (d *Debouncer) Online() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online {
		return
	}
	d.online = true
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.stability, func() { d.stable(gen) })
}

// Offline отменяет ожидающие стадии
func (d *Debouncer) Offline() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.online = false
	d.cancelLocked()
}

// Stop отменяет ожидание без смены состояния связи
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
}

// Pending сообщает, ждет ли дебаунсер срабатывания
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) stable(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen || !d.online {
		return
	}
	d.timer = time.AfterFunc(d.grace, func() { d.trigger(gen) })
}

func (d *Debouncer) trigger(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.online {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fire()
}

// Prober проверяет доступность удаленного хранилища
type Prober interface {
	HealthCheck(ctx context.Context) error
}

// Monitor опрашивает удаленное хранилище и передает переходы online/offline в Debouncer
type Monitor struct {
	prober    Prober
	interval  time.Duration
	timeout   time.Duration
	debouncer *Debouncer
	log       *slog.Logger

	mu     sync.RWMutex
	online bool
}

func NewMonitor(prober Prober, interval time.Duration, debouncer *Debouncer, log *slog.Logger) *Monitor {
	return &Monitor{
		prober:    prober,
		interval:  interval,
		timeout:   interval,
		debouncer: debouncer,
		log:       log.With(slog.String("component", "connectivity_monitor")),
	}
}

// Run опрашивает сервер до отмены контекста. Первая проверка выполняется сразу.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer m.debouncer.Stop()

	m.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("Мониторинг связи остановлен")
			return nil
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// Online возвращает результат последней проверки
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.HealthCheck(probeCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	online := err == nil

	m.mu.Lock()
	changed := online != m.online
	m.online = online
	m.mu.Unlock()

	if online {
		if changed {
			m.log.Info("Связь с сервером появилась, ожидание стабильности")
		}
		m.debouncer.Online()
		return
	}

	if changed {
		m.log.Warn("Связь с сервером потеряна", logger.Err(err))
	}
	m.debouncer.Offline()
}
