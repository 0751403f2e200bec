// Package datastore persists chat history to a structured store.
//
// The default implementation is SQLite; MemoryStore mirrors its behavior for
// tests and for running without a database file.
package datastore

import "github.com/akramer/linechat/pkg/model"

// MessageStore is the structured persistence interface for chat history.
type MessageStore interface {
	RecordMessage(msg *model.Message) error
	ListMessages(filters model.MessageFilters) ([]model.Message, error)
	Close() error
}

// Compile-time checks.
var (
	_ MessageStore = (*SQLStore)(nil)
	_ MessageStore = (*MemoryStore)(nil)
)
