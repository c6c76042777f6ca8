package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/desertthunder/ptt/internal/pagination"
	"github.com/desertthunder/ptt/internal/shared"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: false, Message: message})
}

// statusFor maps a repository error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrVideoNotFound),
		errors.Is(err, shared.ErrCreatorNotFound),
		errors.Is(err, shared.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// pageParams reads ?page and ?limit, defaulting to the first page of the default size.
func pageParams(r *http.Request) (page, limit int, err error) {
	page, limit = 1, pagination.DefaultPageSize
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			return 0, 0, fmt.Errorf("%w: page must be a positive integer", shared.ErrInvalidArgument)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > 100 {
			return 0, 0, fmt.Errorf("%w: limit must be between 1 and 100", shared.ErrInvalidArgument)
		}
	}
	return page, limit, nil
}
