package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ptt/internal/models"
)

var (
	_ list.Item = categoryItem{}
)

// categoryItem wraps [models.Category] to implement [list.Item].
type categoryItem struct {
	category models.Category
}

func (i categoryItem) FilterValue() string { return i.category.Name }
func (i categoryItem) Title() string {
	if i.category.UserDefined {
		return i.category.Name + " ★"
	}
	return i.category.Name
}
func (i categoryItem) Description() string {
	return fmt.Sprintf("%d/%d watched • %.0f%%", i.category.Watched, i.category.Total, i.category.Progress())
}
