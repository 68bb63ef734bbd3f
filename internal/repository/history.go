package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// DefaultHistorySize is the number of scenarios kept per user.
const DefaultHistorySize = 10

// History stores the most recent serialized scenarios per user. Recent
// returns entries oldest first.
type History interface {
	Append(ctx context.Context, userID, entry string) error
	Recent(ctx context.Context, userID string) ([]string, error)
}

var errEmptyUserID = errors.New("repository: user id must not be empty")

// MemoryHistory keeps history for the lifetime of the process.
type MemoryHistory struct {
	mu      sync.Mutex
	size    int
	entries map[string][]string
}

func NewMemoryHistory(size int) *MemoryHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &MemoryHistory{size: size, entries: make(map[string][]string)}
}

// Append adds entry for userID, evicting the oldest entries beyond capacity.
func (h *MemoryHistory) Append(_ context.Context, userID, entry string) error {
	if strings.TrimSpace(userID) == "" {
		return errEmptyUserID
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	list := append(h.entries[userID], entry)
	if over := len(list) - h.size; over > 0 {
		list = append([]string(nil), list[over:]...)
	}
	h.entries[userID] = list
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, userID string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.entries[userID]...), nil
}
