// Package creators tracks the known content creators and which one is active.
package creators

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

// Selector holds the creator list and the current selection, persisting the selection under [shared.KeySelectedCreator].
type Selector struct {
	mu       sync.RWMutex
	creators []models.Creator
	selected *models.Creator
	state    models.StateStore
	logger   *log.Logger
}

// NewSelector restores the previously selected creator from state.
func NewSelector(state models.StateStore, logger *log.Logger) *Selector {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Selector{state: state, logger: logger}
	if state == nil {
		return s
	}

	var saved models.Creator
	found, err := state.Load(shared.KeySelectedCreator, &saved)
	if err != nil {
		logger.Warn("Discarding unreadable creator selection", "error", err)
		return s
	}
	if found && saved.ID != "" {
		s.selected = &saved
	}
	return s
}

// Creators returns the known creators.
func (s *Selector) Creators() []models.Creator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.creators)
}

// Selected returns the active creator, if any.
func (s *Selector) Selected() (models.Creator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return models.Creator{}, false
	}
	return *s.selected, true
}

// SelectedID returns the active creator's id, or "" when nothing is selected.
func (s *Selector) SelectedID() string {
	c, ok := s.Selected()
	if !ok {
		return ""
	}
	return c.ID.String()
}

// SetCreators replaces the creator list.
//
// A restored selection is refreshed from the new list. When nothing is selected, or the selected
// creator is no longer listed, the first creator is selected.
func (s *Selector) SetCreators(list []models.Creator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creators = slices.Clone(list)

	if s.selected != nil {
		if i := s.indexLocked(s.selected.ID.String()); i >= 0 {
			if s.creators[i] != *s.selected {
				s.setLocked(s.creators[i])
			}
			return
		}
	}

	if len(s.creators) == 0 {
		return
	}
	s.setLocked(s.creators[0])
}

// Select makes the creator with the given id (or slug) active.
func (s *Selector) Select(idOrSlug string) (models.Creator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(idOrSlug)
	if i < 0 {
		return models.Creator{}, fmt.Errorf("%w: %s", shared.ErrCreatorNotFound, idOrSlug)
	}
	s.setLocked(s.creators[i])
	return s.creators[i], nil
}

// Cycle selects the next (delta > 0) or previous (delta < 0) creator, wrapping around.
func (s *Selector) Cycle(delta int) (models.Creator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.creators)
	if n == 0 {
		return models.Creator{}, false
	}

	i := 0
	if s.selected != nil {
		i = max(s.indexLocked(s.selected.ID.String()), 0)
	}
	next := ((i+delta)%n + n) % n
	s.setLocked(s.creators[next])
	return s.creators[next], true
}

// Clear removes the selection.
func (s *Selector) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = nil
	if s.state != nil {
		if err := s.state.Delete(shared.KeySelectedCreator); err != nil {
			s.logger.Error("Failed to clear creator selection", "error", err)
		}
	}
}

func (s *Selector) indexLocked(idOrSlug string) int {
	key := strings.TrimSpace(idOrSlug)
	if i := slices.IndexFunc(s.creators, func(c models.Creator) bool { return c.ID.String() == key }); i >= 0 {
		return i
	}
	return slices.IndexFunc(s.creators, func(c models.Creator) bool { return c.Slug == key })
}

func (s *Selector) setLocked(c models.Creator) {
	s.selected = &c
	if s.state == nil {
		return
	}
	if err := s.state.Save(shared.KeySelectedCreator, c); err != nil {
		s.logger.Error("Failed to persist creator selection", "error", err)
	}
}
