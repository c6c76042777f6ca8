package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

// CreatorRepository persists creators for the reference API.
//
// Deletes are soft: rows keep their id so videos referencing them stay readable.
type CreatorRepository struct {
	db *sql.DB
}

// NewCreatorRepository creates a new CreatorRepository with the given database connection
func NewCreatorRepository(db *sql.DB) *CreatorRepository {
	return &CreatorRepository{db: db}
}

// Create inserts a creator, deriving the slug from the name when it is empty.
//
// The creator's ID and CreatedAt fields are populated on success.
func (r *CreatorRepository) Create(creator *models.Creator) error {
	creator.Name = strings.TrimSpace(creator.Name)
	if creator.Name == "" {
		return fmt.Errorf("%w: creator name is required", shared.ErrInvalidInput)
	}
	if creator.Slug == "" {
		creator.Slug = shared.Slugify(creator.Name)
	}
	if creator.Slug == "" {
		return fmt.Errorf("%w: creator slug is required", shared.ErrInvalidInput)
	}

	if existing, err := r.GetBySlug(creator.Slug); err == nil && existing != nil {
		return fmt.Errorf("%w: creator %q", shared.ErrDuplicateName, creator.Slug)
	}

	sequence, err := NextSequence(r.db, "creators")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO creators (sequence, name, slug, channel_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query, sequence, creator.Name, creator.Slug, nullString(creator.ChannelURL), now)
	if err != nil {
		return fmt.Errorf("failed to insert creator: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get creator id: %w", err)
	}

	creator.ID = intToIdent(id)
	creator.CreatedAt = now.Format(time.RFC3339)
	return nil
}

// Get retrieves a creator by id, excluding soft-deleted creators
func (r *CreatorRepository) Get(id models.Ident) (*models.Creator, error) {
	n, ok := identToInt(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrCreatorNotFound, id)
	}

	query := `
		SELECT id, name, slug, channel_url, created_at
		FROM creators
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRow(query, n), string(id))
}

// GetBySlug retrieves a creator by slug, excluding soft-deleted creators
func (r *CreatorRepository) GetBySlug(slug string) (*models.Creator, error) {
	query := `
		SELECT id, name, slug, channel_url, created_at
		FROM creators
		WHERE slug = ? AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRow(query, slug), slug)
}

// List retrieves all creators in creation order
func (r *CreatorRepository) List() ([]models.Creator, error) {
	query := `
		SELECT id, name, slug, channel_url, created_at
		FROM creators
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query creators: %w", err)
	}
	defer rows.Close()

	creators := []models.Creator{}
	for rows.Next() {
		creator, err := scanCreator(rows)
		if err != nil {
			return nil, err
		}
		creators = append(creators, *creator)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return creators, nil
}

// DeleteBySlug soft-deletes a creator by slug.
//
// The slug is released so a new creator can reuse it.
func (r *CreatorRepository) DeleteBySlug(slug string) error {
	query := `
		UPDATE creators
		SET deleted_at = ?, slug = slug || '#' || id
		WHERE slug = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), slug)
	if err != nil {
		return fmt.Errorf("failed to delete creator: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCreatorNotFound, slug)
	}
	return nil
}

func (r *CreatorRepository) scanOne(row *sql.Row, key string) (*models.Creator, error) {
	creator, err := scanCreator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCreatorNotFound, key)
	}
	return creator, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCreator scans a single row from either [sql.Row] or [sql.Rows] into a [models.Creator]
func scanCreator(s scanner) (*models.Creator, error) {
	var (
		id         int64
		name       string
		slug       string
		channelURL sql.NullString
		createdAt  sql.NullTime
	)

	if err := s.Scan(&id, &name, &slug, &channelURL, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan creator: %w", err)
	}

	creator := &models.Creator{ID: intToIdent(id), Name: name, Slug: slug, ChannelURL: channelURL.String}
	if createdAt.Valid {
		creator.CreatedAt = createdAt.Time.UTC().Format(time.RFC3339)
	}
	return creator, nil
}
