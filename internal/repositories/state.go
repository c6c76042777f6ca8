package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StateRepository implements [models.StateStore] on the local_state table.
//
// Values are stored as JSON text so the persisted shape matches what the API and export format use.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new StateRepository with the given database connection
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Load decodes the value stored under key into v.
//
// Returns false with no error when the key has never been saved.
func (r *StateRepository) Load(key string, v any) (bool, error) {
	var raw string
	err := r.db.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load state %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode state %q: %w", key, err)
	}
	return true, nil
}

// Save encodes v as JSON and upserts it under key
func (r *StateRepository) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode state %q: %w", key, err)
	}

	query := `
		INSERT INTO local_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, string(data), time.Now()); err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *StateRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM local_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state %q: %w", key, err)
	}
	return nil
}

// Keys lists every stored key in ascending order
func (r *StateRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM local_state ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query state keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan state key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}
