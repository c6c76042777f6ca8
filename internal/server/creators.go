package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/repositories"
	"github.com/go-chi/chi/v5"
)

// CreatorHandler serves the /youtubers resource.
type CreatorHandler struct {
	repo   *repositories.CreatorRepository
	logger *log.Logger
}

// NewCreatorHandler creates a [CreatorHandler].
func NewCreatorHandler(repo *repositories.CreatorRepository, logger *log.Logger) *CreatorHandler {
	return &CreatorHandler{repo: repo, logger: logger}
}

func (h *CreatorHandler) Pattern() string { return "/youtubers" }

func (h *CreatorHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{slug}", h.get)
	r.Delete("/{slug}", h.delete)
	return r
}

func (h *CreatorHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Creator request failed", "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func (h *CreatorHandler) list(w http.ResponseWriter, r *http.Request) {
	creators, err := h.repo.List()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", creators)
}

func (h *CreatorHandler) get(w http.ResponseWriter, r *http.Request) {
	creator, err := h.repo.GetBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", creator)
}

func (h *CreatorHandler) create(w http.ResponseWriter, r *http.Request) {
	var creator models.Creator
	if err := readJSON(r, &creator); err != nil {
		h.fail(w, err)
		return
	}
	creator.ID = ""

	if err := h.repo.Create(&creator); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "creator created", creator)
}

func (h *CreatorHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteBySlug(chi.URLParam(r, "slug")); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "creator deleted", nil)
}
