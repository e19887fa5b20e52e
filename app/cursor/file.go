package cursor

import (
	"fmt"
	"os"
	"strings"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the cursor in a plain text file. Writes go through a
// temporary file and a rename so a crash never leaves a half written
// cursor behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cursor file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Save(id string) error {
	tmp := s.path + ".tmp"

	if err := os.WriteFile(tmp, []byte(id+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write cursor file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cursor file: %w", err)
	}

	return nil
}

func (s *FileStore) Close() error {
	return nil
}
