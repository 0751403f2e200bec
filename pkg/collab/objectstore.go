package collab

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DirObjectStore stores payloads as files under a base directory. It stands
// in for a cloud bucket behind the same interface.
type DirObjectStore struct {
	dir string
}

var _ ObjectStore = (*DirObjectStore)(nil)

// NewDirObjectStore creates the base directory if needed.
func NewDirObjectStore(dir string) (*DirObjectStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("collab: create object dir: %w", err)
	}
	return &DirObjectStore{dir: dir}, nil
}

// Put writes a payload under the given key. Keys must not contain path
// separators.
func (s *DirObjectStore) Put(key string, payload []byte) error {
	if key == "" || key != filepath.Base(key) {
		return fmt.Errorf("collab: invalid object key %q", key)
	}
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, payload, 0600); err != nil {
		return fmt.Errorf("collab: write object %q: %w", key, err)
	}
	return nil
}

// AudioObjectKey builds a unique storage key for an audio relay from a sender.
func AudioObjectKey(sender string) string {
	return fmt.Sprintf("%s_%s.audio", sender, uuid.NewString())
}
