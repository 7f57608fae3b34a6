// Package ratelimit ограничивает частоту повторных запусков по ключу
// (обычно путь к файлу сети в режиме наблюдения).
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Стандартные ошибки
var (
	ErrLimiterClosed = errors.New("limiter is closed")
)

// Стратегии
const (
	StrategySlidingWindow = "sliding_window"
	StrategyTokenBucket   = "token_bucket"
)

// Limiter интерфейс ограничителя запусков
type Limiter interface {
	// Allow проверяет, разрешён ли запуск, и расходует разрешение
	Allow(ctx context.Context, key string) (bool, error)

	// Wait блокирует до получения разрешения или отмены ctx
	Wait(ctx context.Context, key string) error

	// Reset сбрасывает лимит для ключа
	Reset(key string)

	// Info возвращает текущее состояние лимита
	Info(key string) *LimitInfo

	// Close останавливает фоновую очистку
	Close() error
}

// LimitInfo состояние лимита по ключу
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config конфигурация ограничителя
type Config struct {
	// Runs число запусков за окно
	Runs int `koanf:"runs"`

	// Window временное окно
	Window time.Duration `koanf:"window"`

	// Strategy sliding_window или token_bucket
	Strategy string `koanf:"strategy"`

	// Burst запас сверх Runs для token_bucket
	Burst int `koanf:"burst"`

	// CleanupInterval интервал удаления неактивных ключей
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// DefaultConfig возвращает конфигурацию по умолчанию: 10 запусков в минуту
func DefaultConfig() *Config {
	return &Config{
		Runs:            10,
		Window:          time.Minute,
		Strategy:        StrategySlidingWindow,
		Burst:           0,
		CleanupInterval: 5 * time.Minute,
	}
}

// Validate проверяет параметры
func (c *Config) Validate() error {
	if c.Runs <= 0 {
		return fmt.Errorf("ratelimit: runs must be positive, got %d", c.Runs)
	}
	if c.Window <= 0 {
		return fmt.Errorf("ratelimit: window must be positive, got %v", c.Window)
	}
	switch c.Strategy {
	case StrategySlidingWindow, StrategyTokenBucket, "":
	default:
		return fmt.Errorf("ratelimit: unknown strategy %q", c.Strategy)
	}
	if c.Burst < 0 {
		return fmt.Errorf("ratelimit: burst must be non-negative, got %d", c.Burst)
	}
	return nil
}

// New создаёт in-memory ограничитель после проверки конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewMemoryLimiter(cfg), nil
}
