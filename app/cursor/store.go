package cursor

import (
	"fmt"
)

// Store persists the id of the newest delivered item between runs.
// An absent cursor is reported as an empty string with no error.
type Store interface {
	Load() (string, error)
	Save(id string) error
	Close() error
}

// Open builds a Store for the given driver. The file driver keeps the
// cursor in a plain text file, the sqlite driver in a one-row table.
func Open(driver, path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state path is required")
	}

	switch driver {
	case "file":
		return NewFileStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown state driver: %s", driver)
	}
}
