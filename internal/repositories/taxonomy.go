package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

// TaxonomyKind distinguishes categories from tags in the shared taxonomy table.
type TaxonomyKind string

const (
	KindCategory TaxonomyKind = "category"
	KindTag      TaxonomyKind = "tag"
)

// TaxonomyRepository persists server-side categories or tags, depending on its kind.
type TaxonomyRepository struct {
	db   *sql.DB
	kind TaxonomyKind
}

// NewTaxonomyRepository creates a TaxonomyRepository scoped to kind
func NewTaxonomyRepository(db *sql.DB, kind TaxonomyKind) *TaxonomyRepository {
	return &TaxonomyRepository{db: db, kind: kind}
}

// Kind returns the taxonomy kind this repository is scoped to
func (r *TaxonomyRepository) Kind() TaxonomyKind { return r.kind }

// Create inserts an item, deriving the slug from the name when it is empty.
func (r *TaxonomyRepository) Create(item *models.TaxonomyItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return fmt.Errorf("%w: %s name is required", shared.ErrInvalidInput, r.kind)
	}
	if item.Slug == "" {
		item.Slug = shared.Slugify(item.Name)
	}
	if item.Slug == "" {
		return fmt.Errorf("%w: %s slug is required", shared.ErrInvalidInput, r.kind)
	}

	if _, err := r.GetBySlug(item.Slug); err == nil {
		return fmt.Errorf("%w: %s %q", shared.ErrDuplicateName, r.kind, item.Slug)
	}

	result, err := r.db.Exec("INSERT INTO taxonomy (kind, name, slug) VALUES (?, ?, ?)", r.kind, item.Name, item.Slug)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", r.kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get %s id: %w", r.kind, err)
	}
	item.ID = intToIdent(id)
	return nil
}

// GetBySlug retrieves an item with its video count
func (r *TaxonomyRepository) GetBySlug(slug string) (*models.TaxonomyItem, error) {
	query := `
		SELECT t.id, t.name, t.slug, COUNT(vt.video_id)
		FROM taxonomy t
		LEFT JOIN video_taxonomy vt ON vt.taxonomy_id = t.id
		WHERE t.kind = ? AND t.slug = ?
		GROUP BY t.id
	`

	item, err := scanTaxonomy(r.db.QueryRow(query, r.kind, slug))
	if errors.Is(err, sql.ErrNoRows) {
		if r.kind == KindCategory {
			return nil, fmt.Errorf("%w: %s", shared.ErrCategoryNotFound, slug)
		}
		return nil, fmt.Errorf("%w: %s %s", shared.ErrNotFound, r.kind, slug)
	}
	return item, err
}

// List retrieves every item of this kind ordered by name, with video counts
func (r *TaxonomyRepository) List() ([]models.TaxonomyItem, error) {
	query := `
		SELECT t.id, t.name, t.slug, COUNT(vt.video_id)
		FROM taxonomy t
		LEFT JOIN video_taxonomy vt ON vt.taxonomy_id = t.id
		WHERE t.kind = ?
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE ASC
	`

	rows, err := r.db.Query(query, r.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s list: %w", r.kind, err)
	}
	defer rows.Close()

	items := []models.TaxonomyItem{}
	for rows.Next() {
		item, err := scanTaxonomy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// DeleteBySlug removes an item; memberships are removed by the foreign key cascade
func (r *TaxonomyRepository) DeleteBySlug(slug string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow("SELECT id FROM taxonomy WHERE kind = ? AND slug = ?", r.kind, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, r.kind, slug)
	}
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", r.kind, err)
	}

	if _, err := tx.Exec("DELETE FROM video_taxonomy WHERE taxonomy_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete %s memberships: %w", r.kind, err)
	}
	if _, err := tx.Exec("DELETE FROM taxonomy WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.kind, err)
	}

	return tx.Commit()
}

// ensure returns the id of the item named name, creating it inside tx when missing.
func (r *TaxonomyRepository) ensure(tx *sql.Tx, name string) (int64, error) {
	slug := shared.Slugify(name)
	if slug == "" {
		return 0, fmt.Errorf("%w: %s %q has no usable slug", shared.ErrInvalidInput, r.kind, name)
	}

	var id int64
	err := tx.QueryRow("SELECT id FROM taxonomy WHERE kind = ? AND slug = ?", r.kind, slug).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up %s: %w", r.kind, err)
	}

	result, err := tx.Exec("INSERT INTO taxonomy (kind, name, slug) VALUES (?, ?, ?)", r.kind, strings.TrimSpace(name), slug)
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", r.kind, err)
	}
	return result.LastInsertId()
}

func scanTaxonomy(s scanner) (*models.TaxonomyItem, error) {
	var (
		id    int64
		name  string
		slug  string
		count int
	)

	if err := s.Scan(&id, &name, &slug, &count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan taxonomy item: %w", err)
	}

	return &models.TaxonomyItem{ID: intToIdent(id), Name: name, Slug: slug, Count: count}, nil
}
