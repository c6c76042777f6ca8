package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/categories"
	"github.com/desertthunder/ptt/internal/creators"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/progress"
	"github.com/desertthunder/ptt/internal/repositories"
	"github.com/desertthunder/ptt/internal/services"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/desertthunder/ptt/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	service    services.Service
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	engine     *tasks.ProgressEngine
	copy       func(string) error
	open       func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService // API is the raw HTTP client, used by the api and dump commands
	Service    services.Service     // Service defaults to API
	DB         *sql.DB              // DB is opened from the config on first use when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Clipboard  func(string) error
	Open       func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Open == nil {
		opts.Open = shared.OpenVideo
	}

	var client tasks.APIClient
	if opts.API != nil {
		client = opts.API
		if opts.Service == nil {
			opts.Service = opts.API
		}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		service:    opts.Service,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		engine:     tasks.NewProgressEngine(opts.Service, client),
		copy:       opts.Clipboard,
		open:       opts.Open,
	}
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database connection, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, videosCommand, progressCommand, categoriesCommand,
		taxonomyCommand, creatorsCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured SQLite database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) state() (models.StateStore, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewStateRepository(db), nil
}

func (r *Runner) requireService() error {
	if r.service == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// tracker builds a progress tracker over the local state store. A nil notifier logs notices.
func (r *Runner) tracker(notifier progress.Notifier) (*progress.Tracker, error) {
	if err := r.requireService(); err != nil {
		return nil, err
	}
	state, err := r.state()
	if err != nil {
		return nil, err
	}
	return progress.NewTracker(r.service, state, progress.Options{Logger: r.logger, Notifier: notifier}), nil
}

func (r *Runner) selector() (*creators.Selector, error) {
	state, err := r.state()
	if err != nil {
		return nil, err
	}
	return creators.NewSelector(state, r.logger), nil
}

func (r *Runner) categoryStore() (*categories.Store, error) {
	state, err := r.state()
	if err != nil {
		return nil, err
	}
	return categories.NewStore(state, r.logger), nil
}

// loadCreators refreshes the selector from the API. The persisted selection is kept when the list cannot be fetched.
func (r *Runner) loadCreators(ctx context.Context) (*creators.Selector, error) {
	sel, err := r.selector()
	if err != nil {
		return nil, err
	}
	if r.service == nil {
		return sel, nil
	}

	list, err := r.service.Creators(ctx)
	if err != nil {
		r.logger.Warn("failed to fetch creators, using saved selection", "error", err)
		return sel, nil
	}
	sel.SetCreators(list)
	return sel, nil
}

// creatorID returns the --creator flag, falling back to the selected creator.
func (r *Runner) creatorID(ctx context.Context, cmd *cli.Command) (string, error) {
	if id := cmd.String("creator"); id != "" {
		return id, nil
	}

	sel, err := r.loadCreators(ctx)
	if err != nil {
		return "", err
	}
	return sel.SelectedID(), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
