package datastore

import (
	"fmt"
	"sync"
	"time"

	"github.com/akramer/linechat/pkg/model"
)

// MemoryStore provides an in-memory MessageStore implementation for tests
// and database-less runs. It mirrors SQLite behavior for validation and
// ordering.
type MemoryStore struct {
	mu sync.RWMutex

	now      func() time.Time
	nextID   int64
	messages []model.Message
}

// NewMemory creates a MemoryStore using time.Now().UTC().
func NewMemory() *MemoryStore {
	return NewMemoryWithClock(nil)
}

// NewMemoryWithClock creates a MemoryStore with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{now: now, nextID: 1}
}

// RecordMessage appends one rendered chat line.
func (s *MemoryStore) RecordMessage(msg *model.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("datastore: record message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.nextID
	s.nextID++
	msg.CreatedAt = s.now().Truncate(time.Second)
	s.messages = append(s.messages, *msg)
	return nil
}

// ListMessages returns recorded messages, oldest first, honoring filters.
func (s *MemoryStore) ListMessages(filters model.MessageFilters) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Message
	for _, m := range s.messages {
		if filters.LimitToSender != nil && m.Sender != *filters.LimitToSender {
			continue
		}
		result = append(result, m)
	}

	if filters.PageSize != nil {
		offset := int64(0)
		if filters.Offset != nil {
			offset = *filters.Offset
		}
		if offset > int64(len(result)) {
			offset = int64(len(result))
		}
		end := offset + *filters.PageSize
		if end > int64(len(result)) {
			end = int64(len(result))
		}
		result = result[offset:end]
	}
	return result, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
