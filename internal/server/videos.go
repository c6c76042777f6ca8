package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/repositories"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/go-chi/chi/v5"
)

// VideoHandler serves the /videos resource.
type VideoHandler struct {
	videos     *repositories.VideoRepository
	creators   *repositories.CreatorRepository
	categories *repositories.TaxonomyRepository
	logger     *log.Logger
}

// NewVideoHandler creates a [VideoHandler].
func NewVideoHandler(videos *repositories.VideoRepository, creators *repositories.CreatorRepository, categories *repositories.TaxonomyRepository, logger *log.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, creators: creators, categories: categories, logger: logger}
}

func (h *VideoHandler) Pattern() string { return "/videos" }

// Routes registers:
//
//	GET   /                      every video
//	POST  /                      create a video
//	PATCH /reset-progress        clear every watched flag
//	GET   /by-creator/{id}       page of a creator's videos
//	GET   /{slug}                page of a category's videos
//	PATCH /{id}/watch            mark watched
//	PATCH /{id}/unwatch          mark unwatched
func (h *VideoHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/reset-progress", h.resetProgress)
	r.Get("/by-creator/{id}", h.byCreator)
	r.Get("/{slug}", h.byCategory)
	r.Patch("/{id}/watch", h.setWatched(true))
	r.Patch("/{id}/unwatch", h.setWatched(false))
	return r
}

func (h *VideoHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Video request failed", "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func (h *VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.List(nil)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", videos)
}

func (h *VideoHandler) create(w http.ResponseWriter, r *http.Request) {
	var video models.Video
	if err := readJSON(r, &video); err != nil {
		h.fail(w, err)
		return
	}
	video.ID = models.NoVideoID

	if err := h.videos.Create(&video); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "video created", video)
}

func (h *VideoHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, limit, err := pageParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	if _, err := h.categories.GetBySlug(slug); err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.videos.Page(map[string]any{"category": slug}, page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", result)
}

func (h *VideoHandler) byCreator(w http.ResponseWriter, r *http.Request) {
	id := models.Ident(chi.URLParam(r, "id"))
	page, limit, err := pageParams(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	if _, err := h.creators.Get(id); err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.videos.Page(map[string]any{"creator_id": id}, page, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", result)
}

func (h *VideoHandler) setWatched(watched bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := models.ParseVideoID(chi.URLParam(r, "id"))
		if err != nil {
			h.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err))
			return
		}

		if err := h.videos.SetWatched(id, watched); err != nil {
			h.fail(w, err)
			return
		}

		video, err := h.videos.Get(id)
		if err != nil {
			h.fail(w, err)
			return
		}

		msg := "video marked as unwatched"
		if watched {
			msg = "video marked as watched"
		}
		writeJSON(w, http.StatusOK, msg, video)
	}
}

func (h *VideoHandler) resetProgress(w http.ResponseWriter, r *http.Request) {
	count, err := h.videos.ResetWatched()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf("reset progress for %d videos", count), map[string]int{"count": count})
}
