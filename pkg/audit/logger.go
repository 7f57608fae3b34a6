// Package audit provides a journal of optimization runs.
// This file implements the journal backends: stream, file, and a no-operation logger.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"supplynet/pkg/logger"
)

// StreamLogger implements the Logger interface by writing entries to a stream.
type StreamLogger struct {
	config *Config
	w      io.Writer
	mu     sync.Mutex // Mutex to ensure thread-safe writes.
}

// NewStreamLogger creates and returns a new StreamLogger writing to w.
// A nil w writes to stderr; stdout is reserved for reports.
func NewStreamLogger(cfg *Config, w io.Writer) *StreamLogger {
	if w == nil {
		w = os.Stderr
	}
	return &StreamLogger{config: cfg, w: w}
}

// Log marshals an entry to JSON and writes it as one line.
// If the journal is disabled in the config, it does nothing.
func (l *StreamLogger) Log(_ context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(l.w, "[JOURNAL]", string(data))
	return err
}

// Query is not supported by StreamLogger and will always return an error.
func (l *StreamLogger) Query(_ context.Context, _ *QueryFilter) ([]*Entry, error) {
	return nil, fmt.Errorf("query not supported for stream journal")
}

// Close for StreamLogger does nothing as there are no resources to release.
func (l *StreamLogger) Close() error {
	return nil
}

// FileLogger implements the Logger interface by appending JSON lines to a file.
// It uses a buffered channel for asynchronous writing and periodic flushing.
type FileLogger struct {
	config  *Config
	file    *os.File
	writer  *bufio.Writer
	mu      sync.Mutex    // Mutex to protect file writes and internal state.
	buffer  chan *Entry   // Buffered channel for asynchronous entry logging.
	done    chan struct{} // Channel to signal shutdown of the processLoop.
	exited  chan struct{} // Closed when the processLoop returns.
	once    sync.Once
	pending atomic.Int64 // Entries accepted by Log but not yet written.
	closed  bool
}

// NewFileLogger creates and returns a new FileLogger.
// It opens the configured file (or 'supplynet-journal.jsonl' if not provided)
// and starts a background goroutine for processing buffered entries.
func NewFileLogger(cfg *Config) (*FileLogger, error) {
	if cfg.FilePath == "" {
		cfg.FilePath = "supplynet-journal.jsonl"
	}

	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	// Open file with create, append, and write-only permissions.
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 100
	}

	l := &FileLogger{
		config: cfg,
		file:   file,
		writer: bufio.NewWriter(file),
		buffer: make(chan *Entry, bufferSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	go l.processLoop()

	return l, nil
}

// Log sends an entry to the internal buffer for asynchronous writing.
// If the buffer is full, it writes the entry directly (synchronously).
func (l *FileLogger) Log(_ context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	l.pending.Add(1)
	select {
	case l.buffer <- entry:
		return nil
	default:
		defer l.pending.Add(-1)
		return l.writeEntry(entry)
	}
}

// Query reads the journal file and returns the matching entries, oldest first.
// Pending buffered entries are written before reading.
func (l *FileLogger) Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error) {
	for l.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}

	l.mu.Lock()
	if err := l.writer.Flush(); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to flush journal: %w", err)
	}
	l.mu.Unlock()

	return ReadFile(ctx, l.config.FilePath, filter)
}

// Close shuts down the FileLogger. It signals the processLoop to stop,
// drains any remaining entries from the buffer, flushes them to the file,
// and then closes the underlying file handle.
func (l *FileLogger) Close() error {
	l.once.Do(func() { close(l.done) })
	<-l.exited

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	l.drainUnsafe()
	if err := l.writer.Flush(); err != nil {
		logger.Log.Warn("Failed to flush journal writer", "error", err)
	}
	return l.file.Close()
}

// drainUnsafe writes every buffered entry. The caller holds the mutex.
func (l *FileLogger) drainUnsafe() {
	for {
		select {
		case entry := <-l.buffer:
			if err := l.writeEntryUnsafe(entry); err != nil {
				logger.Log.Warn("Failed to write journal entry", "error", err)
			}
			l.pending.Add(-1)
		default:
			return
		}
	}
}

// processLoop is a goroutine that continuously reads entries from the buffer
// and writes them to the file, or flushes the writer periodically.
func (l *FileLogger) processLoop() {
	flushPeriod := l.config.FlushPeriod
	if flushPeriod <= 0 {
		flushPeriod = time.Second
	}

	ticker := time.NewTicker(flushPeriod)
	defer ticker.Stop()
	defer close(l.exited)

	for {
		select {
		case <-l.done:
			return
		case entry := <-l.buffer:
			if err := l.writeEntry(entry); err != nil {
				logger.Log.Warn("Failed to write journal entry", "error", err)
			}
			l.pending.Add(-1)
		case <-ticker.C:
			l.flush()
		}
	}
}

// writeEntry marshals an entry to JSON and writes it to the file, protected by a mutex.
func (l *FileLogger) writeEntry(entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("journal is closed")
	}
	return l.writeEntryUnsafe(entry)
}

// writeEntryUnsafe marshals an entry to JSON and writes it to the file.
// This function is not thread-safe and assumes the caller holds the mutex.
func (l *FileLogger) writeEntryUnsafe(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = l.writer.Write(append(data, '\n'))
	return err
}

// flush flushes the buffered writer to the underlying file, protected by a mutex.
func (l *FileLogger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if err := l.writer.Flush(); err != nil {
		logger.Log.Warn("Failed to flush journal writer", "error", err)
	}
}

// ReadFile reads a journal file and returns the entries matching filter,
// oldest first. Malformed lines are skipped with a warning.
func ReadFile(ctx context.Context, path string, filter *QueryFilter) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			logger.Log.Warn("Skipping malformed journal line", "path", path, "line", line, "error", err)
			continue
		}
		if filter.Match(&e) {
			entries = append(entries, &e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	if filter != nil && filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[len(entries)-filter.Limit:]
	}
	return entries, nil
}

// New creates and returns the Logger implementation selected by the configuration.
// If cfg is nil, it uses DefaultConfig. If the journal is disabled, it returns a NoopLogger.
// It defaults to the stderr StreamLogger if an unknown backend is specified.
func New(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if !cfg.Enabled {
		return &NoopLogger{}, nil
	}

	switch cfg.Backend {
	case "file", "":
		return NewFileLogger(cfg)
	case "stderr":
		return NewStreamLogger(cfg, os.Stderr), nil
	default:
		logger.Log.Warn("Unknown journal backend, using stderr", "backend", cfg.Backend)
		return NewStreamLogger(cfg, os.Stderr), nil
	}
}

// NoopLogger is a no-operation implementation of the Logger interface.
type NoopLogger struct{}

// Log for NoopLogger does nothing.
func (l *NoopLogger) Log(_ context.Context, _ *Entry) error { return nil }

// Query for NoopLogger does nothing and returns nil.
func (l *NoopLogger) Query(_ context.Context, _ *QueryFilter) ([]*Entry, error) {
	return nil, nil
}

// Close for NoopLogger does nothing.
func (l *NoopLogger) Close() error { return nil }
