// Package history persists the runner's input history across sessions:
// every chat message a session receives (slash commands are not
// recorded), so a later session's
// /history command (and an eventual readline up-arrow) can recall it.
// This is input history only, not conversation state — persisting
// conversation state is explicitly out of scope.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one recorded input line.
type Entry struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Store persists and recalls input history. Two implementations exist:
// the default JSON file (Store here) and an alternate sqlite-backed one
// (sqlite.go) selectable via config.RunnerConfig.HistoryStore.
type Store interface {
	Append(text string) error
	Recent(n int) ([]Entry, error)
}

// maxEntries bounds the persisted file's size; the oldest entries are
// dropped once it's exceeded.
const maxEntries = 1000

// fileVersion is written alongside the entries so a future format change
// can detect and migrate an older file.
const fileVersion = 1

type fileFormat struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// JSONStore is the default history.Store: a single JSON file holding a
// deduplicated, size-bounded list of past inputs.
type JSONStore struct {
	path string
	now  func() int64
}

// NewJSONStore constructs a JSONStore backed by the file at path,
// creating its parent directory if necessary.
func NewJSONStore(path string, now func() int64) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &JSONStore{path: path, now: now}, nil
}

func (s *JSONStore) load() (fileFormat, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileFormat{Version: fileVersion}, nil
		}
		return fileFormat{}, err
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fileFormat{}, err
	}
	return f, nil
}

func (s *JSONStore) save(f fileFormat) error {
	f.Version = fileVersion
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Append records text as the most recent input, deduplicating against
// the immediately preceding entry and trimming to maxEntries.
func (s *JSONStore) Append(text string) error {
	f, err := s.load()
	if err != nil {
		return err
	}
	if len(f.Entries) > 0 && f.Entries[len(f.Entries)-1].Text == text {
		return nil
	}
	f.Entries = append(f.Entries, Entry{Text: text, Timestamp: s.now()})
	if len(f.Entries) > maxEntries {
		f.Entries = f.Entries[len(f.Entries)-maxEntries:]
	}
	return s.save(f)
}

// Recent returns up to the last n entries, most recent last.
func (s *JSONStore) Recent(n int) ([]Entry, error) {
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	entries := f.Entries
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp < entries[j].Timestamp })
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
