// Package categories stores user-defined video groupings per creator.
//
// Categories live only on this device: every mutation is written to the state store under
// [shared.KeyUserCategories] and nothing is sent to the API.
package categories

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

// Store holds user categories and persists them after each change.
//
// Mutations never fail on persistence errors; those are logged and the in-memory state stays authoritative.
type Store struct {
	mu     sync.RWMutex
	cats   []models.UserCategory
	state  models.StateStore
	logger *log.Logger
	newID  func() string
}

// NewStore loads previously saved categories from state.
//
// An unreadable saved value is logged and replaced by an empty list.
func NewStore(state models.StateStore, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{state: state, logger: logger, newID: shared.GenerateID}
	if state == nil {
		return s
	}

	var saved []models.UserCategory
	if _, err := state.Load(shared.KeyUserCategories, &saved); err != nil {
		logger.Warn("Discarding unreadable user categories", "error", err)
		saved = nil
	}
	for _, c := range saved {
		if c.ID == "" {
			continue
		}
		c.VideoIDs = normalize(c.VideoIDs)
		s.cats = append(s.cats, c)
	}
	return s
}

// normalize drops invalid and duplicate ids.
func normalize(ids []models.VideoID) []models.VideoID {
	out := make([]models.VideoID, 0, len(ids))
	for _, id := range ids {
		if id.Valid() && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) persist() {
	if s.state == nil {
		return
	}
	if err := s.state.Save(shared.KeyUserCategories, s.cats); err != nil {
		s.logger.Error("Failed to persist user categories", "error", err)
	}
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.cats, func(c models.UserCategory) bool { return c.ID == id })
}

// Exists reports whether creatorID already owns a category named name, ignoring case and surrounding whitespace.
func (s *Store) Exists(name, creatorID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cats {
		if c.CreatorID == creatorID && shared.SameName(c.Name, name) {
			return true
		}
	}
	return false
}

// Add creates an empty category for creatorID and returns it.
//
// Name uniqueness is not checked here; callers use [Store.Exists] first.
func (s *Store) Add(name, creatorID string) (models.UserCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.UserCategory{}, fmt.Errorf("%w: category name is required", shared.ErrInvalidInput)
	}
	if creatorID == "" {
		return models.UserCategory{}, fmt.Errorf("%w: creator is required", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.UserCategory{ID: s.newID(), Name: name, CreatorID: creatorID, VideoIDs: []models.VideoID{}}
	s.cats = append(s.cats, c)
	s.persist()
	return c, nil
}

// Edit renames a category in place. Unknown ids are ignored.
func (s *Store) Edit(id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.cats[i].Name = name
	s.persist()
	return true
}

// Delete removes a category and its memberships. Unknown ids are ignored.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.cats = slices.Delete(s.cats, i, i+1)
	s.persist()
	return true
}

// Assign adds videoID to a category. Assigning an existing member changes nothing.
func (s *Store) Assign(id string, videoID models.VideoID) bool {
	if !videoID.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 || s.cats[i].Contains(videoID) {
		return false
	}
	s.cats[i].VideoIDs = append(s.cats[i].VideoIDs, videoID)
	s.persist()
	return true
}

// Unassign removes videoID from a category. Removing a non-member changes nothing.
func (s *Store) Unassign(id string, videoID models.VideoID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	j := slices.Index(s.cats[i].VideoIDs, videoID)
	if j < 0 {
		return false
	}
	s.cats[i].VideoIDs = slices.Delete(s.cats[i].VideoIDs, j, j+1)
	s.persist()
	return true
}

// Contains reports whether videoID is a member of the category with the given id.
func (s *Store) Contains(id string, videoID models.VideoID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	return i >= 0 && s.cats[i].Contains(videoID)
}

// Get returns a copy of the category with the given id.
func (s *Store) Get(id string) (models.UserCategory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return models.UserCategory{}, false
	}
	return clone(s.cats[i]), true
}

// ForCreator returns copies of creatorID's categories in creation order.
func (s *Store) ForCreator(creatorID string) []models.UserCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.UserCategory
	for _, c := range s.cats {
		if c.CreatorID == creatorID {
			out = append(out, clone(c))
		}
	}
	return out
}

// All returns copies of every category in creation order.
func (s *Store) All() []models.UserCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserCategory, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, clone(c))
	}
	return out
}

// Find returns creatorID's category named name, matched like [Store.Exists].
func (s *Store) Find(name, creatorID string) (models.UserCategory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cats {
		if c.CreatorID == creatorID && shared.SameName(c.Name, name) {
			return clone(c), true
		}
	}
	return models.UserCategory{}, false
}

func clone(c models.UserCategory) models.UserCategory {
	c.VideoIDs = slices.Clone(c.VideoIDs)
	if c.VideoIDs == nil {
		c.VideoIDs = []models.VideoID{}
	}
	return c
}
