package datastore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/akramer/linechat/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS chat_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	sender     TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_sender ON chat_history(sender);
`

// SQLStore persists chat history to a SQLite database.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if necessary) the SQLite database at path and
// bootstraps the schema.
func Open(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("datastore: open: %w", err)
	}
	// SQLite allows a single writer; serialize access through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datastore: init schema: %w", err)
	}
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// RecordMessage inserts one rendered chat line.
func (s *SQLStore) RecordMessage(msg *model.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("datastore: record message: %w", err)
	}

	createdAt := s.now()
	res, err := s.db.Exec(
		`INSERT INTO chat_history (sender, message, created_at) VALUES (?, ?, ?)`,
		msg.Sender, msg.Body, createdAt.Format(dbTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("datastore: insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("datastore: last insert id: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = createdAt.Truncate(time.Second)
	return nil
}

// ListMessages returns recorded messages, oldest first, honoring filters.
func (s *SQLStore) ListMessages(filters model.MessageFilters) ([]model.Message, error) {
	query := `SELECT id, sender, message, created_at FROM chat_history`
	var args []any

	if filters.LimitToSender != nil {
		query += ` WHERE sender = ?`
		args = append(args, *filters.LimitToSender)
	}
	query += ` ORDER BY id ASC`
	if filters.PageSize != nil {
		query += ` LIMIT ?`
		args = append(args, *filters.PageSize)
		if filters.Offset != nil {
			query += ` OFFSET ?`
			args = append(args, *filters.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("datastore: list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Sender, &m.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("datastore: scan message: %w", err)
		}
		m.CreatedAt, err = time.Parse(dbTimeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("datastore: parse created_at: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datastore: iterate messages: %w", err)
	}
	return messages, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
