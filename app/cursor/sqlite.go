package cursor

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const cursorKey = "last_disclosed_id"

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the cursor in a single keyed row. Useful for
// deployments that already ship a database volume and want the state
// inspectable with standard tooling.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The store is only ever touched from the poll loop
	db.SetMaxOpenConns(1)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("Cursor database ready", "version", version, "dirty", dirty)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load() (string, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT value FROM cursor WHERE key = ?
	`, cursorKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load cursor: %w", err)
	}

	return id, nil
}

func (s *SQLiteStore) Save(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO cursor (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, cursorKey, id)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
