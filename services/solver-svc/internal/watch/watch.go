package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"supplynet/pkg/apperror"
	"supplynet/pkg/logger"
	"supplynet/pkg/ratelimit"
)

// DefaultDebounce пауза тишины по умолчанию
const DefaultDebounce = 500 * time.Millisecond

// Handler вызывается после каждого изменения файла
type Handler func(ctx context.Context, path string) error

// Watcher следит за одним файлом. Наблюдение идёт за каталогом:
// редакторы часто сохраняют файл через rename, и прямой watch теряется.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	name     string
	debounce time.Duration
	changes  chan time.Time
}

// New создаёт наблюдатель за файлом path
func New(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "resolve watch path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeIO, "create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, apperror.Wrap(err, apperror.CodeIO, fmt.Sprintf("watch %s", filepath.Dir(abs)))
	}

	return &Watcher{
		watcher:  fw,
		path:     abs,
		name:     filepath.Base(abs),
		debounce: debounce,
		changes:  make(chan time.Time, 1),
	}, nil
}

// Start запускает обработку событий до отмены контекста
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Changes канал изменений после паузы тишины.
// Закрывается после отмены контекста.
func (w *Watcher) Changes() <-chan time.Time {
	return w.changes
}

// Close останавливает fsnotify
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	log := logger.WithContext(ctx, "component", "watch", "path", w.path)
	defer close(w.changes)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending++
			timer.Reset(w.debounce)

		case <-timer.C:
			log.Debug("change detected", "events", pending)
			pending = 0
			// соседние изменения сливаются в одно
			select {
			case w.changes <- time.Now():
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

// Run вызывает fn сразу и затем после каждого изменения файла.
// Ошибки fn логируются, наблюдение продолжается. Возвращает nil после отмены ctx.
func Run(ctx context.Context, path string, debounce time.Duration, fn Handler) error {
	return RunLimited(ctx, path, debounce, nil, fn)
}

// RunLimited как Run, но перезапуски проходят через limiter с ключом path.
// Отклонённый перезапуск пропускается: его ждёт только следующее изменение файла.
func RunLimited(ctx context.Context, path string, debounce time.Duration, limiter ratelimit.Limiter, fn Handler) error {
	w, err := New(path, debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.Start(ctx)

	log := logger.WithContext(ctx, "component", "watch")
	log.Info("watching network file", "path", w.path, "debounce", w.debounce)

	invoke := func() {
		if err := fn(ctx, path); err != nil {
			log.Warn("run failed", "path", path, "error", err)
		}
	}

	invoke()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Changes():
			if !ok {
				return nil
			}
			if limiter != nil {
				allowed, err := limiter.Allow(ctx, w.path)
				if err != nil {
					return apperror.Wrap(err, apperror.CodeInternal, "rerun limiter")
				}
				if !allowed {
					log.Warn("rerun skipped, limit reached", "path", path,
						"retry_after", limiter.Info(w.path).RetryAfter)
					continue
				}
			}
			log.Info("network file changed, rerunning", "path", path)
			invoke()
		}
	}
}
