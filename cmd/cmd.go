// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func creatorFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "creator",
		Usage: "Creator id (defaults to the selected creator)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Export format: json, csv, markdown, txt",
		Value:   "json",
	}
}

// setupCommand initializes local configuration and storage
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand runs the reference REST API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the tracker REST API from the local database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides config)"},
		},
		Action: r.Serve,
	}
}

// videosCommand lists, exports and opens videos
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "videos",
		Aliases: []string{"v"},
		Usage:   "Browse training videos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List videos of the selected creator, optionally within a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "Category name (system or user-defined)"},
					creatorFlag(),
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Fuzzy match titles"},
					&cli.IntFlag{Name: "page", Usage: "Page number (out of range falls back to page 1)", Value: 1},
					&cli.IntFlag{Name: "limit", Usage: "Videos per page (defaults to ui.page_size)"},
					jsonFlag(),
				},
				Action: r.VideosList,
			},
			{
				Name:  "categories",
				Usage: "Show per-category progress for the selected creator",
				Flags: []cli.Flag{creatorFlag(), jsonFlag()},
				Action: r.VideosCategories,
			},
			{
				Name:  "export",
				Usage: "Export one server category",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "category"},
				},
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (prints to stdout when empty)"},
					&cli.StringFlag{Name: "creator-name", Usage: "Creator name written into the export"},
				},
				Action: r.VideosExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every server category concurrently",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default: ptt_export_{epoch})"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent workers", Value: 5},
					&cli.BoolFlag{Name: "covers", Usage: "Download a cover image for markdown exports"},
				},
				Action: r.VideosExportAll,
			},
			{
				Name:  "open",
				Usage: "Open a video in the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.VideosOpen,
			},
		},
	}
}

// progressCommand manages the watched-set
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "progress",
		Aliases: []string{"p"},
		Usage:   "Track watched videos",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show overall and per-creator progress",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProgressStatus,
			},
			{
				Name:  "toggle",
				Usage: "Flip the watched flag of a video",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ProgressToggle,
			},
			{
				Name:  "reset",
				Usage: "Clear every watched flag on the server",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip confirmation"},
				},
				Action: r.ProgressReset,
			},
			{
				Name:  "export",
				Usage: "Print the watched-set as a JSON array of ids",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to a file instead of stdout"},
					&cli.BoolFlag{Name: "clipboard", Usage: "Copy to the clipboard"},
				},
				Action: r.ProgressExport,
			},
			{
				Name:  "import",
				Usage: "Replace the local watched-set from a JSON array (- reads stdin)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Action: r.ProgressImport,
			},
			{
				Name:  "push",
				Usage: "Send the local watched-set to the server",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "mirror", Usage: "Also unmark videos missing from the local set"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Show the plan without sending requests"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent workers (defaults to api.push_workers)"},
				},
				Action: r.ProgressPush,
			},
		},
	}
}

// categoriesCommand manages user-defined categories
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "categories",
		Aliases: []string{"cat"},
		Usage:   "Manage your own categories",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your categories for the selected creator",
				Flags:  []cli.Flag{creatorFlag(), &cli.BoolFlag{Name: "all", Usage: "Include every creator"}, jsonFlag()},
				Action: r.CategoriesList,
			},
			{
				Name:      "add",
				Usage:     "Create a category",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{creatorFlag()},
				Action:    r.CategoriesAdd,
			},
			{
				Name:  "rename",
				Usage: "Rename a category",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
					&cli.StringArg{Name: "new-name"},
				},
				Flags:  []cli.Flag{creatorFlag()},
				Action: r.CategoriesRename,
			},
			{
				Name:      "delete",
				Usage:     "Delete a category",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     []cli.Flag{creatorFlag()},
				Action:    r.CategoriesDelete,
			},
			{
				Name:  "assign",
				Usage: "Add a video to a category, creating the category when missing",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{creatorFlag()},
				Action: r.CategoriesAssign,
			},
			{
				Name:  "unassign",
				Usage: "Remove a video from a category",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{creatorFlag()},
				Action: r.CategoriesUnassign,
			},
		},
	}
}

func taxonomyCommands(r *Runner, kind taxonomyKind) *cli.Command {
	return &cli.Command{
		Name:  string(kind),
		Usage: "Manage server " + string(kind),
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List server " + string(kind),
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.TaxonomyList(kind),
			},
			{
				Name:      "add",
				Usage:     "Create an entry",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Usage: "Slug (derived from the name when empty)"},
				},
				Action: r.TaxonomyAdd(kind),
			},
			{
				Name:      "delete",
				Usage:     "Delete an entry by slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.TaxonomyDelete(kind),
			},
		},
	}
}

// taxonomyCommand manages server-side categories and tags
func taxonomyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "taxonomy",
		Aliases: []string{"tax"},
		Usage:   "Manage server categories and tags",
		Commands: []*cli.Command{
			taxonomyCommands(r, kindCategories),
			taxonomyCommands(r, kindTags),
		},
	}
}

// creatorsCommand lists and selects creators
func creatorsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "creators",
		Usage: "Manage creators and the current selection",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List creators, marking the selected one",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.CreatorsList,
			},
			{
				Name:      "select",
				Usage:     "Select a creator by id or slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "creator"}},
				Action:    r.CreatorsSelect,
			},
			{
				Name:   "clear",
				Usage:  "Clear the selection",
				Action: r.CreatorsClear,
			},
			{
				Name:      "add",
				Usage:     "Create a creator",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Usage: "Slug (derived from the name when empty)"},
					&cli.StringFlag{Name: "channel", Usage: "Channel URL"},
				},
				Action: r.CreatorsAdd,
			},
			{
				Name:      "delete",
				Usage:     "Delete a creator by slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.CreatorsDelete,
			},
		},
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive video browser",
		Action: r.TUI,
	}
}
