package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akramer/linechat/pkg/collab"
	"github.com/akramer/linechat/pkg/datastore"
	"github.com/akramer/linechat/pkg/model"
)

func TestJournalFansOutToAllSinks(t *testing.T) {
	dir := t.TempDir()

	historyPath := filepath.Join(dir, "history.txt")
	history, err := collab.NewFileHistorySink(historyPath)
	require.NoError(t, err)
	defer func() { _ = history.Close() }()

	objects, err := collab.NewDirObjectStore(filepath.Join(dir, "objects"))
	require.NoError(t, err)

	store := datastore.NewMemory()
	j := NewJournal(history, store, objects)

	j.RecordText("alice", "[ts] alice (Online): hello")
	j.RecordAudio("alice", []byte{0x01, 0x02})
	j.Close()

	data, err := os.ReadFile(historyPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "alice (Online): hello")
	require.Contains(t, string(data), "Audio message sent.")

	msgs, err := store.ListMessages(model.MessageFilters{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	entries, err := os.ReadDir(filepath.Join(dir, "objects"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "alice_"))
}

func TestJournalNilSinksAreSkipped(t *testing.T) {
	j := NewJournal(nil, nil, nil)
	j.RecordText("alice", "no sinks configured")
	j.RecordAudio("alice", []byte{0x01})
	j.Close() // must not panic or block
}
