package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter in-memory реализация Limiter
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	now     func() time.Time
	stopCh  chan struct{}
	closed  bool
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
	runs      []time.Time // для sliding window
}

// NewMemoryLimiter создаёт in-memory ограничитель
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go l.cleanup()
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	allowed, _, err := l.take(key)
	return allowed, err
}

// take расходует разрешение или сообщает, сколько ждать следующего
func (l *MemoryLimiter) take(key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, 0, ErrLimiterClosed
	}

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens:    float64(l.config.Runs + l.config.Burst),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	if l.config.Strategy == StrategyTokenBucket {
		return l.takeToken(b, now)
	}
	return l.takeSlot(b, now)
}

func (l *MemoryLimiter) takeToken(b *bucket, now time.Time) (bool, time.Duration, error) {
	rate := float64(l.config.Runs) / l.config.Window.Seconds()
	b.tokens += now.Sub(b.lastCheck).Seconds() * rate
	b.lastCheck = now

	if maxTokens := float64(l.config.Runs + l.config.Burst); b.tokens > maxTokens {
		b.tokens = maxTokens
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, 0, nil
	}
	wait := time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return false, wait, nil
}

func (l *MemoryLimiter) takeSlot(b *bucket, now time.Time) (bool, time.Duration, error) {
	b.runs = trim(b.runs, now.Add(-l.config.Window))
	b.lastCheck = now

	if len(b.runs) < l.config.Runs {
		b.runs = append(b.runs, now)
		return true, 0, nil
	}
	// освободится слот самого старого запуска
	return false, b.runs[0].Add(l.config.Window).Sub(now), nil
}

func (l *MemoryLimiter) Wait(ctx context.Context, key string) error {
	for {
		allowed, wait, err := l.take(key)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *MemoryLimiter) Info(key string) *LimitInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := &LimitInfo{Limit: l.config.Runs, Remaining: l.config.Runs}
	b, ok := l.buckets[key]
	if !ok {
		if l.config.Strategy == StrategyTokenBucket {
			info.Remaining += l.config.Burst
		}
		return info
	}

	now := l.now()
	if l.config.Strategy == StrategyTokenBucket {
		rate := float64(l.config.Runs) / l.config.Window.Seconds()
		tokens := b.tokens + now.Sub(b.lastCheck).Seconds()*rate
		if maxTokens := float64(l.config.Runs + l.config.Burst); tokens > maxTokens {
			tokens = maxTokens
		}
		info.Remaining = int(tokens)
		if tokens < 1 {
			info.RetryAfter = time.Duration((1 - tokens) / rate * float64(time.Second))
		}
		return info
	}

	active := trim(append([]time.Time(nil), b.runs...), now.Add(-l.config.Window))
	info.Remaining = l.config.Runs - len(active)
	if info.Remaining <= 0 && len(active) > 0 {
		info.Remaining = 0
		info.RetryAfter = active[0].Add(l.config.Window).Sub(now)
	}
	return info
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.stopCh)
	l.buckets = nil
	return nil
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.doCleanup()
		}
	}
}

// doCleanup удаляет ключи без активности дольше двух окон
func (l *MemoryLimiter) doCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.config.Window)
	for key, b := range l.buckets {
		b.runs = trim(b.runs, cutoff)
		if len(b.runs) == 0 && b.lastCheck.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// trim отбрасывает запуски не позже since; runs упорядочены по времени
func trim(runs []time.Time, since time.Time) []time.Time {
	i := 0
	for i < len(runs) && !runs[i].After(since) {
		i++
	}
	return runs[i:]
}
