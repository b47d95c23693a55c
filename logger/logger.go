package logger

import "sync"

// Logger is the structured logger used across the engine. Fields are
// flattened into the underlying encoder as key/value pairs.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}

// Entry is one line captured by a MemoryLogger.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// MemoryLogger keeps entries in memory. Used by tests to assert on log output.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *MemoryLogger) Debug(msg string, fields map[string]any) { m.add("debug", msg, fields) }
func (m *MemoryLogger) Info(msg string, fields map[string]any)  { m.add("info", msg, fields) }
func (m *MemoryLogger) Warn(msg string, fields map[string]any)  { m.add("warn", msg, fields) }
func (m *MemoryLogger) Error(msg string, fields map[string]any) { m.add("error", msg, fields) }

func (m *MemoryLogger) add(level, msg string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: msg, Fields: fields})
}

// Entries returns a copy of everything logged so far.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Has reports whether a message was logged at the given level.
func (m *MemoryLogger) Has(level, msg string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}
