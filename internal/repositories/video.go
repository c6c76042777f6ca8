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

// VideoRepository persists videos, their category membership and watched flags for the reference API.
type VideoRepository struct {
	db         *sql.DB
	categories *TaxonomyRepository
}

// NewVideoRepository creates a new VideoRepository with the given database connection
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db, categories: NewTaxonomyRepository(db, KindCategory)}
}

const videoColumns = `
	v.id, v.sequence, v.title, v.duration, v.thumbnail_url, v.youtube_url,
	v.upload_date, v.creator_id, v.watched
`

// Create inserts a video and links it to its categories, creating missing categories by name.
//
// A zero Sequence is replaced with the next value of the videos sequence. The video's ID is set on success.
func (r *VideoRepository) Create(video *models.Video) error {
	video.Title = strings.TrimSpace(video.Title)
	if video.Title == "" {
		return fmt.Errorf("%w: video title is required", shared.ErrInvalidInput)
	}

	var creatorID any
	if video.CreatorID != "" {
		n, ok := identToInt(video.CreatorID)
		if !ok {
			return fmt.Errorf("%w: %q", shared.ErrCreatorNotFound, video.CreatorID)
		}
		if _, err := NewCreatorRepository(r.db).Get(video.CreatorID); err != nil {
			return err
		}
		creatorID = n
	}

	// Sequence generation commits its own transaction and must run before ours begins.
	if video.Sequence <= 0 {
		sequence, err := NextSequence(r.db, "videos")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
		video.Sequence = sequence
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO videos (
			sequence, title, duration, thumbnail_url, youtube_url,
			upload_date, creator_id, watched, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := tx.Exec(query,
		video.Sequence,
		video.Title,
		max(video.Duration, 0),
		nullString(video.ThumbnailURL),
		nullString(video.URL),
		nullString(video.UploadDate),
		creatorID,
		video.Watched,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get video id: %w", err)
	}

	refs := make([]models.CategoryRef, 0, len(video.Categories))
	seen := make(map[int64]bool)
	for _, ref := range video.Categories {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			name = ref.Slug
		}
		if name == "" {
			continue
		}

		taxonomyID, err := r.categories.ensure(tx, name)
		if err != nil {
			return err
		}
		if seen[taxonomyID] {
			continue
		}
		seen[taxonomyID] = true

		if _, err := tx.Exec("INSERT OR IGNORE INTO video_taxonomy (video_id, taxonomy_id) VALUES (?, ?)", id, taxonomyID); err != nil {
			return fmt.Errorf("failed to link category: %w", err)
		}
		refs = append(refs, models.CategoryRef{ID: intToIdent(taxonomyID), Name: name, Slug: shared.Slugify(name)})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit video: %w", err)
	}

	video.ID = models.VideoID(id)
	video.Categories = refs
	return nil
}

// Get retrieves a single video with its categories
func (r *VideoRepository) Get(id models.VideoID) (*models.Video, error) {
	query := "SELECT " + videoColumns + " FROM videos v WHERE v.id = ?"

	video, err := scanVideo(r.db.QueryRow(query, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	videos := []models.Video{*video}
	if err := r.attachCategories(videos); err != nil {
		return nil, err
	}
	return &videos[0], nil
}

// List retrieves all videos matching criteria, ordered by sequence.
//
// Supported criteria keys: "category" (category slug, string) and "creator_id" ([models.Ident]).
func (r *VideoRepository) List(criteria map[string]any) ([]models.Video, error) {
	where, args := videoFilter(criteria)
	query := "SELECT " + videoColumns + " FROM videos v" + where + " ORDER BY v.sequence ASC, v.id ASC"
	return r.query(query, args...)
}

// Page retrieves one page of the videos matching criteria.
//
// page is 1-based; values below 1 are treated as 1 and a non-positive limit falls back to 12.
func (r *VideoRepository) Page(criteria map[string]any, page, limit int) (*models.Page[models.Video], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 12
	}

	where, args := videoFilter(criteria)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM videos v"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count videos: %w", err)
	}

	query := "SELECT " + videoColumns + " FROM videos v" + where + " ORDER BY v.sequence ASC, v.id ASC LIMIT ? OFFSET ?"
	videos, err := r.query(query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &models.Page[models.Video]{Data: videos, Page: page, Limit: limit, Total: total, TotalPages: totalPages}, nil
}

// SetWatched updates the watched flag of a single video
func (r *VideoRepository) SetWatched(id models.VideoID, watched bool) error {
	result, err := r.db.Exec("UPDATE videos SET watched = ?, updated_at = ? WHERE id = ?", watched, time.Now().UTC(), int64(id))
	if err != nil {
		return fmt.Errorf("failed to update watched flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrVideoNotFound, id)
	}
	return nil
}

// ResetWatched clears every watched flag and returns how many videos were reset
func (r *VideoRepository) ResetWatched() (int, error) {
	result, err := r.db.Exec("UPDATE videos SET watched = 0, updated_at = ? WHERE watched = 1", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to reset progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

func (r *VideoRepository) query(query string, args ...any) ([]models.Video, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	// Rows must be closed before the category query on single-connection databases.
	rows.Close()

	if err := r.attachCategories(videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// attachCategories loads category refs for videos in a single query
func (r *VideoRepository) attachCategories(videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	index := make(map[models.VideoID]int, len(videos))
	placeholders := make([]string, 0, len(videos))
	args := []any{KindCategory}
	for i, v := range videos {
		index[v.ID] = i
		placeholders = append(placeholders, "?")
		args = append(args, int64(v.ID))
	}

	query := `
		SELECT vt.video_id, t.id, t.name, t.slug
		FROM video_taxonomy vt
		JOIN taxonomy t ON t.id = vt.taxonomy_id
		WHERE t.kind = ? AND vt.video_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY t.name COLLATE NOCASE ASC
	`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query video categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			videoID, taxonomyID int64
			name, slug          string
		)
		if err := rows.Scan(&videoID, &taxonomyID, &name, &slug); err != nil {
			return fmt.Errorf("failed to scan video category: %w", err)
		}

		if i, ok := index[models.VideoID(videoID)]; ok {
			ref := models.CategoryRef{ID: intToIdent(taxonomyID), Name: name, Slug: slug}
			videos[i].Categories = append(videos[i].Categories, ref)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// videoFilter builds the WHERE clause for criteria
func videoFilter(criteria map[string]any) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if slug, ok := criteria["category"].(string); ok && slug != "" {
		clauses = append(clauses, `v.id IN (
			SELECT vt.video_id FROM video_taxonomy vt
			JOIN taxonomy t ON t.id = vt.taxonomy_id
			WHERE t.kind = ? AND t.slug = ?
		)`)
		args = append(args, KindCategory, slug)
	}

	if creatorID, ok := criteria["creator_id"].(models.Ident); ok && creatorID != "" {
		n, _ := identToInt(creatorID)
		clauses = append(clauses, "v.creator_id = ?")
		args = append(args, n)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanVideo(s scanner) (*models.Video, error) {
	var (
		id           int64
		sequence     int
		title        string
		duration     int
		thumbnailURL sql.NullString
		youtubeURL   sql.NullString
		uploadDate   sql.NullString
		creatorID    sql.NullInt64
		watched      bool
	)

	err := s.Scan(&id, &sequence, &title, &duration, &thumbnailURL, &youtubeURL, &uploadDate, &creatorID, &watched)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}

	video := &models.Video{
		ID:           models.VideoID(id),
		Title:        title,
		Duration:     duration,
		ThumbnailURL: thumbnailURL.String,
		URL:          youtubeURL.String,
		Sequence:     sequence,
		Watched:      watched,
		UploadDate:   uploadDate.String,
	}
	if creatorID.Valid {
		video.CreatorID = intToIdent(creatorID.Int64)
	}
	return video, nil
}
