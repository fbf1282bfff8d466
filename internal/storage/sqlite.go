package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vedsharma/reqkit/internal/endpointfile"
	"github.com/vedsharma/reqkit/internal/model"
)

const (
	dbFile = "reqkit.db"

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------

	DefaultHistoryLimit = 100
)

var ErrNotFound = errors.New("not found")

// parseJSONHeaders safely parses JSON headers, returning an empty map on error
func parseJSONHeaders(jsonStr string) (map[string]string, error) {
	if jsonStr == "" {
		return make(map[string]string), nil
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &headers); err != nil {
		return make(map[string]string), fmt.Errorf("failed to parse headers JSON: %w", err)
	}

	if headers == nil {
		headers = make(map[string]string)
	}
	return headers, nil
}

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or fixes permissions if it does. Creating first avoids a window where the
// database exists with default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		return f.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage handles SQLite database persistence
type SQLiteStorage struct {
	db           *sql.DB
	dataDir      string
	historyLimit int
}

// NewStorage opens (creating if needed) the database under dataDir
func NewStorage(dataDir string, historyLimit int) (*SQLiteStorage, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFile)
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStorage{db: db, dataDir: dataDir, historyLimit: historyLimit}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("opened storage", "path", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	-- History table (sent request + embedded response)
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		headers TEXT DEFAULT '{}',
		body TEXT DEFAULT '',
		response_status_code INTEGER,
		response_status TEXT,
		response_headers TEXT,
		response_body TEXT,
		response_duration_ms INTEGER,
		response_size INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);

	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL
	);

	-- Saved endpoints keep their TOML record text
	CREATE TABLE IF NOT EXISTS saved_endpoints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		record TEXT NOT NULL,
		position INTEGER NOT NULL,
		UNIQUE (collection_id, name),
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_saved_endpoints_collection ON saved_endpoints(collection_id, position);

	-- Global template variables
	CREATE TABLE IF NOT EXISTS variables (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		secret INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// History Operations
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row rowScanner) (model.HistoryEntry, error) {
	var entry model.HistoryEntry
	var headersJSON string
	var respStatusCode, respDurationMs, respSize sql.NullInt64
	var respStatus, respHeaders, respBody sql.NullString

	err := row.Scan(
		&entry.ID, &entry.Timestamp, &entry.Method, &entry.URL,
		&headersJSON, &entry.Body,
		&respStatusCode, &respStatus, &respHeaders,
		&respBody, &respDurationMs, &respSize,
	)
	if err != nil {
		return entry, err
	}

	if entry.Headers, err = parseJSONHeaders(headersJSON); err != nil {
		slog.Warn("ignoring unreadable history headers", "id", entry.ID, "error", err)
	}

	if respStatusCode.Valid {
		entry.Response = &model.ResponseSummary{
			StatusCode: uint32(respStatusCode.Int64),
			Status:     respStatus.String,
			Body:       respBody.String,
			DurationMs: respDurationMs.Int64,
			Size:       respSize.Int64,
		}
		if entry.Response.Headers, err = parseJSONHeaders(respHeaders.String); err != nil {
			slog.Warn("ignoring unreadable response headers", "id", entry.ID, "error", err)
		}
	}

	return entry, nil
}

const historyColumns = `id, timestamp, method, url, headers, body,
	response_status_code, response_status, response_headers,
	response_body, response_duration_ms, response_size`

// LoadHistory loads the request history, newest first
func (s *SQLiteStorage) LoadHistory() (*model.History, error) {
	rows, err := s.db.Query(`SELECT `+historyColumns+` FROM history ORDER BY timestamp DESC LIMIT ?`, s.historyLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := &model.History{Entries: []model.HistoryEntry{}}
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		history.Entries = append(history.Entries, entry)
	}

	return history, rows.Err()
}

// AddToHistory records an entry and trims history to the configured limit
func (s *SQLiteStorage) AddToHistory(entry model.HistoryEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertHistoryEntry(tx, entry); err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM history
		WHERE id NOT IN (
			SELECT id FROM history ORDER BY timestamp DESC LIMIT ?
		)`, s.historyLimit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func insertHistoryEntry(tx *sql.Tx, entry model.HistoryEntry) error {
	headersJSON, err := json.Marshal(entry.Headers)
	if err != nil {
		return err
	}

	var respStatusCode, respDurationMs, respSize sql.NullInt64
	var respStatus, respHeaders, respBody sql.NullString

	if entry.Response != nil {
		respHeadersJSON, err := json.Marshal(entry.Response.Headers)
		if err != nil {
			return err
		}
		respStatusCode = sql.NullInt64{Int64: int64(entry.Response.StatusCode), Valid: true}
		respStatus = sql.NullString{String: entry.Response.Status, Valid: true}
		respHeaders = sql.NullString{String: string(respHeadersJSON), Valid: true}
		respBody = sql.NullString{String: entry.Response.Body, Valid: true}
		respDurationMs = sql.NullInt64{Int64: entry.Response.DurationMs, Valid: true}
		respSize = sql.NullInt64{Int64: entry.Response.Size, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.Method, entry.URL, string(headersJSON), entry.Body,
		respStatusCode, respStatus, respHeaders, respBody, respDurationMs, respSize,
	)
	return err
}

// ClearHistory clears all history
func (s *SQLiteStorage) ClearHistory() error {
	_, err := s.db.Exec("DELETE FROM history")
	return err
}

// GetHistoryEntry gets a specific entry by ID
func (s *SQLiteStorage) GetHistoryEntry(id string) (*model.HistoryEntry, error) {
	row := s.db.QueryRow(`SELECT `+historyColumns+` FROM history WHERE id = ?`, id)

	entry, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// =============================================================================
// Collection Operations
// =============================================================================

// LoadCollections loads all collections with their endpoints
func (s *SQLiteStorage) LoadCollections() (*model.Collections, error) {
	collections := &model.Collections{Collections: make(map[string]model.Collection)}

	names, err := s.collectionNames()
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		col, err := s.GetCollection(name)
		if err != nil {
			return nil, err
		}
		collections.Collections[name] = *col
	}

	return collections, nil
}

func (s *SQLiteStorage) collectionNames() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM collections ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateCollection creates a new collection
func (s *SQLiteStorage) CreateCollection(name string) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO collections (name) VALUES (?)", name)
	return err
}

// DeleteCollection deletes a collection and its endpoints
func (s *SQLiteStorage) DeleteCollection(name string) error {
	result, err := s.db.Exec("DELETE FROM collections WHERE name = ?", name)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return nil
}

// GetCollection gets a collection by name
func (s *SQLiteStorage) GetCollection(name string) (*model.Collection, error) {
	var colID int64
	err := s.db.QueryRow("SELECT id FROM collections WHERE name = ?", name).Scan(&colID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	collection := &model.Collection{
		Name:      name,
		Endpoints: []model.SavedEndpoint{},
	}

	rows, err := s.db.Query(`
		SELECT name, record
		FROM saved_endpoints
		WHERE collection_id = ?
		ORDER BY position`, colID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var saved model.SavedEndpoint
		var record string
		if err := rows.Scan(&saved.Name, &record); err != nil {
			return nil, err
		}
		saved.Endpoint, err = endpointfile.Parse([]byte(record), endpointfile.FormatTOML)
		if err != nil {
			return nil, fmt.Errorf("collection %q endpoint %q: %w", name, saved.Name, err)
		}
		collection.Endpoints = append(collection.Endpoints, saved)
	}

	return collection, rows.Err()
}

// GetEndpoint gets one saved endpoint from a collection
func (s *SQLiteStorage) GetEndpoint(collectionName, name string) (*model.SavedEndpoint, error) {
	var record string
	err := s.db.QueryRow(`
		SELECT e.record
		FROM saved_endpoints e JOIN collections c ON c.id = e.collection_id
		WHERE c.name = ? AND e.name = ?`, collectionName, name).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("endpoint %q in collection %q: %w", name, collectionName, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	e, err := endpointfile.Parse([]byte(record), endpointfile.FormatTOML)
	if err != nil {
		return nil, fmt.Errorf("endpoint %q in collection %q: %w", name, collectionName, err)
	}
	return &model.SavedEndpoint{Name: name, Endpoint: e}, nil
}

// AddToCollection saves an endpoint into a collection, creating the collection if needed.
// An endpoint with the same name is replaced in place.
func (s *SQLiteStorage) AddToCollection(collectionName string, saved model.SavedEndpoint) error {
	record, err := endpointfile.Store(saved.Endpoint, endpointfile.FormatTOML)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var colID int64
	err = tx.QueryRow("SELECT id FROM collections WHERE name = ?", collectionName).Scan(&colID)
	if errors.Is(err, sql.ErrNoRows) {
		result, err := tx.Exec("INSERT INTO collections (name) VALUES (?)", collectionName)
		if err != nil {
			return err
		}
		if colID, err = result.LastInsertId(); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var nextPos int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(position) + 1, 0) FROM saved_endpoints WHERE collection_id = ?", colID).Scan(&nextPos); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO saved_endpoints (collection_id, name, record, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection_id, name) DO UPDATE SET record = excluded.record`,
		colID, saved.Name, string(record), nextPos)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveFromCollection deletes a saved endpoint
func (s *SQLiteStorage) RemoveFromCollection(collectionName, name string) error {
	result, err := s.db.Exec(`
		DELETE FROM saved_endpoints
		WHERE name = ? AND collection_id = (SELECT id FROM collections WHERE name = ?)`,
		name, collectionName)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("endpoint %q in collection %q: %w", name, collectionName, ErrNotFound)
	}
	return nil
}

// =============================================================================
// Variable Operations
// =============================================================================

// LoadVariables returns all global variables sorted by name
func (s *SQLiteStorage) LoadVariables() (model.KeyValueTable, error) {
	rows, err := s.db.Query("SELECT name, value, active, secret FROM variables ORDER BY name")
	if err != nil {
		return model.KeyValueTable{}, err
	}
	defer rows.Close()

	var table model.KeyValueTable
	for rows.Next() {
		var kv model.KeyValue
		if err := rows.Scan(&kv.Name, &kv.Value, &kv.Active, &kv.Secret); err != nil {
			return model.KeyValueTable{}, err
		}
		table.Append(kv)
	}

	return table, rows.Err()
}

// SetVariable creates or updates a global variable
func (s *SQLiteStorage) SetVariable(kv model.KeyValue) error {
	_, err := s.db.Exec(`
		INSERT INTO variables (name, value, active, secret) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, active = excluded.active, secret = excluded.secret`,
		kv.Name, kv.Value, kv.Active, kv.Secret)
	return err
}

// GetVariable gets a global variable by name
func (s *SQLiteStorage) GetVariable(name string) (model.KeyValue, bool, error) {
	kv := model.KeyValue{Name: name}
	err := s.db.QueryRow("SELECT value, active, secret FROM variables WHERE name = ?", name).
		Scan(&kv.Value, &kv.Active, &kv.Secret)
	if errors.Is(err, sql.ErrNoRows) {
		return model.KeyValue{}, false, nil
	}
	if err != nil {
		return model.KeyValue{}, false, err
	}
	return kv, true, nil
}

// DeleteVariable deletes a global variable
func (s *SQLiteStorage) DeleteVariable(name string) error {
	result, err := s.db.Exec("DELETE FROM variables WHERE name = ?", name)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("variable %q: %w", name, ErrNotFound)
	}
	return nil
}
