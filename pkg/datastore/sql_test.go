package datastore_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/akramer/linechat/pkg/datastore"
	"github.com/akramer/linechat/pkg/model"
)

func newTestStore(t *testing.T) *datastore.SQLStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := datastore.Open(dbPath)
	if err != nil {
		t.Fatalf("datastore.Open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return st
}

// stores returns both implementations so every test runs against SQLite and
// the memory mirror.
func stores(t *testing.T) map[string]datastore.MessageStore {
	t.Helper()
	return map[string]datastore.MessageStore{
		"sqlite": newTestStore(t),
		"memory": datastore.NewMemory(),
	}
}

func TestRecordAndListMessages(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := []model.Message{
				{Sender: "alice", Body: "[ts] alice (Online): hello"},
				{Sender: "bob", Body: "[ts] bob (Online): hi alice"},
				{Sender: "alice", Body: "[ts] alice (Online): bye"},
			}
			for i := range want {
				if err := st.RecordMessage(&want[i]); err != nil {
					t.Fatalf("RecordMessage(%d): %v", i, err)
				}
				if want[i].ID == 0 {
					t.Fatalf("RecordMessage(%d): ID not assigned", i)
				}
			}

			got, err := st.ListMessages(model.MessageFilters{})
			if err != nil {
				t.Fatalf("ListMessages: %v", err)
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateApproxTime(0)); diff != "" {
				t.Errorf("ListMessages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListMessagesFilterBySender(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				sender := "alice"
				if i == 1 {
					sender = "bob"
				}
				msg := &model.Message{Sender: sender, Body: fmt.Sprintf("line %d", i)}
				if err := st.RecordMessage(msg); err != nil {
					t.Fatalf("RecordMessage: %v", err)
				}
			}

			alice := "alice"
			got, err := st.ListMessages(model.MessageFilters{LimitToSender: &alice})
			if err != nil {
				t.Fatalf("ListMessages: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("ListMessages(alice) returned %d messages, want 2", len(got))
			}
			for _, m := range got {
				if m.Sender != "alice" {
					t.Errorf("filtered listing contains sender %q", m.Sender)
				}
			}
		})
	}
}

func TestListMessagesPagination(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				msg := &model.Message{Sender: "alice", Body: fmt.Sprintf("line %d", i)}
				if err := st.RecordMessage(msg); err != nil {
					t.Fatalf("RecordMessage: %v", err)
				}
			}

			pageSize, offset := int64(2), int64(3)
			got, err := st.ListMessages(model.MessageFilters{PageSize: &pageSize, Offset: &offset})
			if err != nil {
				t.Fatalf("ListMessages: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("paged listing returned %d messages, want 2", len(got))
			}
			if got[0].Body != "line 3" || got[1].Body != "line 4" {
				t.Errorf("paged listing = [%q, %q], want [line 3, line 4]", got[0].Body, got[1].Body)
			}
		})
	}
}

func TestRecordMessageRejectsInvalid(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.RecordMessage(&model.Message{Sender: "alice", Body: "  "}); err == nil {
				t.Fatal("RecordMessage accepted empty body")
			}
		})
	}
}
