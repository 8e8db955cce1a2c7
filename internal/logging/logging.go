// Package logging provides the file+console log manager the CLI plugs into
// the monitoring loop's status sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Manager mirrors every line to the console and, when configured with a
// path, appends it to a log file. It is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
}

// Option customizes a Manager.
type Option func(*Manager)

// WithConsole redirects console output; tests pass a buffer.
func WithConsole(w io.Writer) Option {
	return func(m *Manager) { m.console = w }
}

// New creates a manager. An empty path means console-only logging; otherwise
// the file is opened in append mode, creating parent directories as needed.
func New(path string, opts ...Option) (*Manager, error) {
	m := &Manager{console: os.Stdout}
	for _, opt := range opts {
		opt(m)
	}
	if path != "" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		m.file = f
	}
	return m, nil
}

// Close closes the log file, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// Line writes one already-formatted status line as-is. The monitoring loop's
// lines carry their own timestamps, so none is added here.
func (m *Manager) Line(s string) {
	m.write(s)
}

// Infof writes a timestamped informational message.
func (m *Manager) Infof(format string, args ...any) {
	m.write(m.stamp("INFO", format, args...))
}

// Errorf writes a timestamped error message.
func (m *Manager) Errorf(format string, args ...any) {
	m.write(m.stamp("ERROR", format, args...))
}

func (m *Manager) stamp(level, format string, args ...any) string {
	return fmt.Sprintf("[%s] %s: %s",
		time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))
}

func (m *Manager) write(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(m.console, line)
	if m.file != nil {
		fmt.Fprintln(m.file, line)
	}
}
