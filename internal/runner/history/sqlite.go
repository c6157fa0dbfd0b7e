package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createHistoryTableSQL = `
CREATE TABLE IF NOT EXISTS input_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
`

// SQLiteStore is the alternate history.Store backed by database/sql over
// go-sqlite3, selected via config.RunnerConfig.HistoryStore == "sqlite".
// It keeps the same Entry shape as JSONStore; only the backing storage
// differs.
type SQLiteStore struct {
	db  *sql.DB
	now func() int64
}

// NewSQLiteStore opens (creating if necessary) a sqlite database at path
// and ensures its schema exists.
func NewSQLiteStore(path string, now func() int64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(createHistoryTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLiteStore{db: db, now: now}, nil
}

// Append records text as the most recent input, deduplicating against
// the immediately preceding entry and trimming to maxEntries.
func (s *SQLiteStore) Append(text string) error {
	var lastText string
	row := s.db.QueryRow(`SELECT text FROM input_history ORDER BY id DESC LIMIT 1`)
	if err := row.Scan(&lastText); err != nil && err != sql.ErrNoRows {
		return err
	}
	if lastText == text {
		return nil
	}
	if _, err := s.db.Exec(`INSERT INTO input_history (text, timestamp) VALUES (?, ?)`, text, s.now()); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM input_history WHERE id NOT IN (SELECT id FROM input_history ORDER BY id DESC LIMIT ?)`, maxEntries)
	return err
}

// Recent returns up to the last n entries, most recent last.
func (s *SQLiteStore) Recent(n int) ([]Entry, error) {
	query := `SELECT text, timestamp FROM input_history ORDER BY id DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reversed []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Text, &e.Timestamp); err != nil {
			return nil, err
		}
		reversed = append(reversed, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Entry, len(reversed))
	for i, e := range reversed {
		out[len(reversed)-1-i] = e
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
