package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vedsharma/reqkit/internal/model"
)

// ExportHistory writes the stored history to path as indented JSON
func (s *SQLiteStorage) ExportHistory(path string) (int, error) {
	history, err := s.LoadHistory()
	if err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), secureDirMode); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, secureFileMode); err != nil {
		return 0, err
	}
	return len(history.Entries), nil
}

// ImportHistory merges entries from a JSON export into history. Entries with
// an existing ID are replaced and the history limit still applies.
func (s *SQLiteStorage) ImportHistory(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return 0, fmt.Errorf("failed to parse history export: %w", err)
	}

	imported := 0
	for _, entry := range history.Entries {
		if entry.ID == "" {
			slog.Warn("skipping history entry without id", "url", entry.URL)
			continue
		}
		if err := s.AddToHistory(entry); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
