package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ptt/internal/categories"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/urfave/cli/v3"
)

// userCategories resolves the category store and the creator that owns the categories being edited.
func (r *Runner) userCategories(ctx context.Context, cmd *cli.Command) (*categories.Store, string, error) {
	creatorID, err := r.creatorID(ctx, cmd)
	if err != nil {
		return nil, "", err
	}
	if creatorID == "" {
		return nil, "", fmt.Errorf("%w: select a creator first or pass --creator", shared.ErrMissingArgument)
	}

	store, err := r.categoryStore()
	if err != nil {
		return nil, "", err
	}
	return store, creatorID, nil
}

func (r *Runner) findCategory(store *categories.Store, name, creatorID string) (models.UserCategory, error) {
	if name == "" {
		return models.UserCategory{}, fmt.Errorf("%w: category name is required", shared.ErrMissingArgument)
	}
	c, ok := store.Find(name, creatorID)
	if !ok {
		return models.UserCategory{}, fmt.Errorf("%w: %s", shared.ErrCategoryNotFound, name)
	}
	return c, nil
}

// CategoriesList prints the user categories of the selected creator, or of every creator with --all.
func (r *Runner) CategoriesList(ctx context.Context, cmd *cli.Command) error {
	var cats []models.UserCategory
	if cmd.Bool("all") {
		store, err := r.categoryStore()
		if err != nil {
			return err
		}
		cats = store.All()
	} else {
		store, creatorID, err := r.userCategories(ctx, cmd)
		if err != nil {
			return err
		}
		cats = store.ForCreator(creatorID)
	}

	if cmd.Bool("json") {
		if cats == nil {
			cats = []models.UserCategory{}
		}
		return r.writeJSON(cats, true)
	}

	if len(cats) == 0 {
		r.writePlain("No categories yet. Create one with 'ptt categories add <name>'\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Your categories (%d)", len(cats)))
	for _, c := range cats {
		r.writePlain("★ %-32s %3d videos  creator %s\n", truncate(c.Name, 32), len(c.VideoIDs), c.CreatorID)
	}
	return nil
}

// CategoriesAdd creates a category for the selected creator.
func (r *Runner) CategoriesAdd(ctx context.Context, cmd *cli.Command) error {
	store, creatorID, err := r.userCategories(ctx, cmd)
	if err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if store.Exists(name, creatorID) {
		return fmt.Errorf("%w: category %q", shared.ErrDuplicateName, name)
	}

	c, err := store.Add(name, creatorID)
	if err != nil {
		return err
	}
	r.writePlain("✓ Created category %q\n", c.Name)
	return nil
}

// CategoriesRename renames a category. Renaming onto another category's name is rejected.
func (r *Runner) CategoriesRename(ctx context.Context, cmd *cli.Command) error {
	store, creatorID, err := r.userCategories(ctx, cmd)
	if err != nil {
		return err
	}

	c, err := r.findCategory(store, cmd.StringArg("name"), creatorID)
	if err != nil {
		return err
	}

	newName := cmd.StringArg("new-name")
	if existing, ok := store.Find(newName, creatorID); ok && existing.ID != c.ID {
		return fmt.Errorf("%w: category %q", shared.ErrDuplicateName, newName)
	}
	if !store.Edit(c.ID, newName) {
		return fmt.Errorf("%w: new name is required", shared.ErrInvalidInput)
	}
	r.writePlain("✓ Renamed %q to %q\n", c.Name, newName)
	return nil
}

// CategoriesDelete removes a category and its memberships.
func (r *Runner) CategoriesDelete(ctx context.Context, cmd *cli.Command) error {
	store, creatorID, err := r.userCategories(ctx, cmd)
	if err != nil {
		return err
	}

	c, err := r.findCategory(store, cmd.StringArg("name"), creatorID)
	if err != nil {
		return err
	}
	store.Delete(c.ID)
	r.writePlain("✓ Deleted category %q\n", c.Name)
	return nil
}

// CategoriesAssign adds a video to a category, creating the category when it does not exist.
func (r *Runner) CategoriesAssign(ctx context.Context, cmd *cli.Command) error {
	store, creatorID, err := r.userCategories(ctx, cmd)
	if err != nil {
		return err
	}

	id, err := models.ParseVideoID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	name := cmd.StringArg("name")
	c, ok := store.Find(name, creatorID)
	if !ok {
		if c, err = store.Add(name, creatorID); err != nil {
			return err
		}
		r.writePlain("✓ Created category %q\n", c.Name)
	}

	if !store.Assign(c.ID, id) {
		r.writePlain("Video %d is already in %q\n", id, c.Name)
		return nil
	}
	r.writePlain("✓ Added video %d to %q\n", id, c.Name)
	return nil
}

// CategoriesUnassign removes a video from a category.
func (r *Runner) CategoriesUnassign(ctx context.Context, cmd *cli.Command) error {
	store, creatorID, err := r.userCategories(ctx, cmd)
	if err != nil {
		return err
	}

	id, err := models.ParseVideoID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	c, err := r.findCategory(store, cmd.StringArg("name"), creatorID)
	if err != nil {
		return err
	}
	if !store.Unassign(c.ID, id) {
		return fmt.Errorf("%w: video %d is not in %q", shared.ErrNotFound, id, c.Name)
	}
	r.writePlain("✓ Removed video %d from %q\n", id, c.Name)
	return nil
}
