package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/repositories"
	"github.com/go-chi/chi/v5"
)

// TaxonomyHandler serves a categories or tags resource.
type TaxonomyHandler struct {
	pattern string
	repo    *repositories.TaxonomyRepository
	logger  *log.Logger
}

// NewTaxonomyHandler creates a [TaxonomyHandler] mounted at pattern.
func NewTaxonomyHandler(pattern string, repo *repositories.TaxonomyRepository, logger *log.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{pattern: pattern, repo: repo, logger: logger}
}

func (h *TaxonomyHandler) Pattern() string { return h.pattern }

func (h *TaxonomyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{slug}", h.get)
	r.Delete("/{slug}", h.delete)
	return r
}

func (h *TaxonomyHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Taxonomy request failed", "kind", h.repo.Kind(), "error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func (h *TaxonomyHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", items)
}

func (h *TaxonomyHandler) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.repo.GetBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "", item)
}

func (h *TaxonomyHandler) create(w http.ResponseWriter, r *http.Request) {
	var item models.TaxonomyItem
	if err := readJSON(r, &item); err != nil {
		h.fail(w, err)
		return
	}
	item.ID = ""
	item.Count = 0

	if err := h.repo.Create(&item); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, string(h.repo.Kind())+" created", item)
}

func (h *TaxonomyHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteBySlug(chi.URLParam(r, "slug")); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, string(h.repo.Kind())+" deleted", nil)
}
