// package services defines interface Service for the tracker REST API
package services

import (
	"context"

	"github.com/desertthunder/ptt/internal/models"
)

// Service defines the remote operations of the training tracker API.
type Service interface {
	// Videos retrieves every video across all creators.
	Videos(ctx context.Context) ([]models.Video, error)

	// VideosByCategory retrieves one page of the videos in a server category.
	VideosByCategory(ctx context.Context, slug string, page, limit int) (*models.Page[models.Video], error)

	// VideosByCreator retrieves one page of a creator's videos.
	VideosByCreator(ctx context.Context, creatorID models.Ident, page, limit int) (*models.Page[models.Video], error)

	// CreateVideo adds a video, returning it with its assigned identifier.
	CreateVideo(ctx context.Context, video models.Video) (*models.Video, error)

	// MarkWatched and MarkUnwatched set the server-side watched flag of a single video.
	MarkWatched(ctx context.Context, id models.VideoID) error
	MarkUnwatched(ctx context.Context, id models.VideoID) error

	// ResetProgress clears every watched flag, returning how many videos were reset.
	ResetProgress(ctx context.Context) (int, error)

	Categories(ctx context.Context) ([]models.TaxonomyItem, error)
	CreateCategory(ctx context.Context, name, slug string) (*models.TaxonomyItem, error)
	DeleteCategory(ctx context.Context, slug string) error

	Tags(ctx context.Context) ([]models.TaxonomyItem, error)
	CreateTag(ctx context.Context, name, slug string) (*models.TaxonomyItem, error)
	DeleteTag(ctx context.Context, slug string) error

	Creators(ctx context.Context) ([]models.Creator, error)
	CreateCreator(ctx context.Context, creator models.Creator) (*models.Creator, error)
	DeleteCreator(ctx context.Context, slug string) error
}

var _ Service = (*APIService)(nil)
