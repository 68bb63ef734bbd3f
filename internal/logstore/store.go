package logstore

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"

	"scenario-bot/internal/domain"
)

const (
	DefaultCapacity = 5000
	TimestampLayout = "2006-01-02 15:04:05"
)

// Level labels used in stored entries.
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// Store is a bounded in-memory list of log entries served by the log API.
// When full, the oldest entry is dropped.
type Store struct {
	mu       sync.Mutex
	entries  []domain.LogEntry
	capacity int
	now      func() time.Time
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, now: time.Now}
}

// Append stores e. A missing timestamp is filled with the current time and a
// missing level defaults to INFO.
func (s *Store) Append(e domain.LogEntry) {
	if e.Timestamp == "" {
		e.Timestamp = s.now().Format(TimestampLayout)
	}
	if e.Level == "" {
		e.Level = LevelInfo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.capacity {
		// shift in place so the backing array does not grow unbounded
		n := copy(s.entries, s.entries[len(s.entries)-s.capacity+1:])
		s.entries = s.entries[:n]
	}
	s.entries = append(s.entries, e)
}

// List returns a snapshot of the stored entries, oldest first.
func (s *Store) List() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LogEntry{}, s.entries...)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// NormalizeLevel maps free-form level names onto the stored labels. It
// reports false for unknown names.
func NormalizeLevel(level string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug, true
	case "", "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarning, true
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return LevelError, true
	}
	return "", false
}

func levelLabel(l zapcore.Level) string {
	switch {
	case l < zapcore.InfoLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelWarning
	default:
		return LevelError
	}
}
