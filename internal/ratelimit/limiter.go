// ratelimit реализует лимитер записывающих операций с фиксированным окном:
// не более limit действий на принципала за window. Окно фиксированное,
// не скользящее: на стыке окон принципал может успеть limit действий
// в конце одного окна и ещё limit сразу после сброса — это осознанный
// размен точности на простоту, а не дефект.
//
// Состояние лимитера живёт в памяти одного процесса. При нескольких
// инстансах сервиса каждый держит собственный счётчик — известное
// ограничение масштабирования, между процессами состояние не разделяется.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/savelevaik/go-manga-reader/pkg/log"
)

// DefaultLimit и DefaultWindow — политика по умолчанию: 5 записей в минуту.
const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter — потокобезопасный лимитер с фиксированным окном на принципала.
// Создаётся один на процесс и передаётся зависимостям явно, не через
// глобальное состояние.
type Limiter struct {
	mu      sync.Mutex
	entries map[int64]*entry
	limit   int
	window  time.Duration
	now     func() time.Time
}

// Option настраивает Limiter.
type Option func(*Limiter)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New создаёт лимитер. Неположительные limit/window заменяются значениями
// по умолчанию.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		entries: make(map[int64]*entry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Allow решает, разрешено ли принципалу ещё одно записывающее действие,
// и учитывает его. Read-modify-write выполняется под мьютексом: внутри
// процесса потерянных инкрементов не бывает.
func (l *Limiter) Allow(principalID int64) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[principalID]
	if !ok || now.After(e.resetAt) {
		l.entries[principalID] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	if e.count < l.limit {
		e.count++
		return true
	}

	// Отказ счётчик не трогает.
	return false
}

// Len возвращает количество записей (для наблюдаемости и тестов).
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// sweep удаляет записи с истёкшим окном. На allow/deny это не влияет:
// отсутствующая запись и запись с resetAt в прошлом ведут себя одинаково.
func (l *Limiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, id)
			removed++
		}
	}

	return removed
}

// StartJanitor запускает фоновую очистку устаревших записей: без неё
// записи принципалов, заходивших один раз, копятся всё время жизни
// процесса. Останавливается по отмене контекста.
func (l *Limiter) StartJanitor(ctx context.Context, period time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if removed := l.sweep(l.now()); removed > 0 {
					log.From(ctx).Debug("ratelimit_sweep",
						slog.Int("removed", removed),
					)
				}
			}
		}
	}()
}
