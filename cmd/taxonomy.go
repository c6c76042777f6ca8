package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/urfave/cli/v3"
)

type taxonomyKind string

const (
	kindCategories taxonomyKind = "categories"
	kindTags       taxonomyKind = "tags"
)

func (r *Runner) listTaxonomy(ctx context.Context, kind taxonomyKind) ([]models.TaxonomyItem, error) {
	if kind == kindTags {
		return r.service.Tags(ctx)
	}
	return r.service.Categories(ctx)
}

// TaxonomyList returns an action that prints server categories or tags.
func (r *Runner) TaxonomyList(kind taxonomyKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.requireService(); err != nil {
			return err
		}

		items, err := r.listTaxonomy(ctx, kind)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", kind, err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(items, true)
		}

		r.writePlainHeader(fmt.Sprintf("Server %s (%d)", kind, len(items)))
		for _, item := range items {
			r.writePlain("%-32s %-32s %d\n", truncate(item.Name, 32), item.Slug, item.Count)
		}
		return nil
	}
}

// TaxonomyAdd returns an action that creates a server category or tag.
func (r *Runner) TaxonomyAdd(kind taxonomyKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.requireService(); err != nil {
			return err
		}

		name := cmd.StringArg("name")
		if name == "" {
			return fmt.Errorf("%w: name is required", shared.ErrMissingArgument)
		}
		slug := cmd.String("slug")
		if slug == "" {
			slug = shared.Slugify(name)
		}

		var item *models.TaxonomyItem
		var err error
		if kind == kindTags {
			item, err = r.service.CreateTag(ctx, name, slug)
		} else {
			item, err = r.service.CreateCategory(ctx, name, slug)
		}
		if err != nil {
			return fmt.Errorf("failed to create %q: %w", name, err)
		}

		r.logger.Info("created", "kind", kind, "slug", item.Slug)
		r.writePlain("✓ Created %s (%s)\n", item.Name, item.Slug)
		return nil
	}
}

// TaxonomyDelete returns an action that deletes a server category or tag by slug.
func (r *Runner) TaxonomyDelete(kind taxonomyKind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.requireService(); err != nil {
			return err
		}

		slug := cmd.StringArg("slug")
		if slug == "" {
			return fmt.Errorf("%w: slug is required", shared.ErrMissingArgument)
		}

		var err error
		if kind == kindTags {
			err = r.service.DeleteTag(ctx, slug)
		} else {
			err = r.service.DeleteCategory(ctx, slug)
		}
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", slug, err)
		}

		r.writePlain("✓ Deleted %s\n", slug)
		return nil
	}
}

// CreatorsList prints the creators, marking the selected one.
func (r *Runner) CreatorsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	list, err := r.service.Creators(ctx)
	if err != nil {
		return fmt.Errorf("failed to list creators: %w", err)
	}
	sel, err := r.selector()
	if err != nil {
		return err
	}
	sel.SetCreators(list)

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("Creators (%d)", len(list)))
	selected := sel.SelectedID()
	for _, c := range list {
		marker := " "
		if c.ID.String() == selected {
			marker = "▸"
		}
		r.writePlain("%s %-6s %-28s %s\n", marker, c.ID, truncate(c.Name, 28), c.Slug)
	}
	return nil
}

// CreatorsSelect persists the creator the other commands default to.
func (r *Runner) CreatorsSelect(ctx context.Context, cmd *cli.Command) error {
	target := cmd.StringArg("creator")
	if target == "" {
		return fmt.Errorf("%w: creator id or slug is required", shared.ErrMissingArgument)
	}

	sel, err := r.loadCreators(ctx)
	if err != nil {
		return err
	}
	c, err := sel.Select(target)
	if err != nil {
		return err
	}
	r.writePlain("✓ Selected %s\n", c.Name)
	return nil
}

// CreatorsClear removes the persisted selection.
func (r *Runner) CreatorsClear(ctx context.Context, cmd *cli.Command) error {
	sel, err := r.selector()
	if err != nil {
		return err
	}
	sel.Clear()
	r.writePlain("✓ Cleared creator selection\n")
	return nil
}

// CreatorsAdd creates a creator on the server.
func (r *Runner) CreatorsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrMissingArgument)
	}
	slug := cmd.String("slug")
	if slug == "" {
		slug = shared.Slugify(name)
	}

	c, err := r.service.CreateCreator(ctx, models.Creator{Name: name, Slug: slug, ChannelURL: cmd.String("channel")})
	if err != nil {
		return fmt.Errorf("failed to create creator %q: %w", name, err)
	}
	r.writePlain("✓ Created creator %s (id %s)\n", c.Name, c.ID)
	return nil
}

// CreatorsDelete deletes a creator on the server.
func (r *Runner) CreatorsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	slug := cmd.StringArg("slug")
	if slug == "" {
		return fmt.Errorf("%w: slug is required", shared.ErrMissingArgument)
	}
	if err := r.service.DeleteCreator(ctx, slug); err != nil {
		return fmt.Errorf("failed to delete creator %s: %w", slug, err)
	}
	r.writePlain("✓ Deleted creator %s\n", slug)
	return nil
}
