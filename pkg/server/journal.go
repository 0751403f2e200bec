package server

import (
	"log/slog"
	"sync"

	"github.com/akramer/linechat/pkg/collab"
	"github.com/akramer/linechat/pkg/datastore"
	"github.com/akramer/linechat/pkg/model"
)

// journalQueueSize bounds the side-effect queue. When full, entries are
// dropped and logged rather than blocking a broadcast.
const journalQueueSize = 256

type journalEntry struct {
	sender string
	line   string
	audio  []byte // non-nil for audio relays
}

// Journal drives the persistence collaborators asynchronously: history file,
// structured message store, and object storage for audio payloads. A single
// worker goroutine owns all collaborator calls, so a slow or failing
// collaborator can never stall the registry lock or another session.
// Collaborator failures are logged and swallowed.
type Journal struct {
	history collab.HistorySink
	store   datastore.MessageStore
	objects collab.ObjectStore

	entries chan journalEntry
	wg      sync.WaitGroup
	once    sync.Once
}

// NewJournal starts the journal worker. Any collaborator may be nil, in which
// case that sink is skipped.
func NewJournal(history collab.HistorySink, store datastore.MessageStore, objects collab.ObjectStore) *Journal {
	j := &Journal{
		history: history,
		store:   store,
		objects: objects,
		entries: make(chan journalEntry, journalQueueSize),
	}
	j.wg.Add(1)
	go j.run()
	return j
}

// RecordText enqueues a rendered chat line for persistence. Never blocks.
func (j *Journal) RecordText(sender, line string) {
	j.enqueue(journalEntry{sender: sender, line: line})
}

// RecordAudio enqueues an audio payload for object storage plus the audio
// notice line for the history sinks. Never blocks.
func (j *Journal) RecordAudio(sender string, payload []byte) {
	j.enqueue(journalEntry{sender: sender, line: "Audio message sent.", audio: payload})
}

func (j *Journal) enqueue(e journalEntry) {
	select {
	case j.entries <- e:
	default:
		slog.Warn("journal queue full, dropping entry", "sender", e.sender)
	}
}

// Close drains pending entries and stops the worker.
func (j *Journal) Close() {
	j.once.Do(func() { close(j.entries) })
	j.wg.Wait()
}

func (j *Journal) run() {
	defer j.wg.Done()
	for e := range j.entries {
		if e.audio != nil && j.objects != nil {
			key := collab.AudioObjectKey(e.sender)
			if err := j.objects.Put(key, e.audio); err != nil {
				slog.Error("object store upload failed", "sender", e.sender, "err", err)
			}
		}
		if j.history != nil {
			if err := j.history.Append(e.line); err != nil {
				slog.Error("history append failed", "err", err)
			}
		}
		if j.store != nil {
			msg := &model.Message{Sender: e.sender, Body: e.line}
			if err := j.store.RecordMessage(msg); err != nil {
				slog.Error("message store write failed", "err", err)
			}
		}
	}
}
