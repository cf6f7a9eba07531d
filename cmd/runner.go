package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/repositories"
	"github.com/desertthunder/tastebud/internal/services"
	"github.com/desertthunder/tastebud/internal/session"
	"github.com/desertthunder/tastebud/internal/shared"
	"github.com/desertthunder/tastebud/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RawClient issues unparsed requests to the backend for the api command.
type RawClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
	Post(ctx context.Context, path string, data []byte) (*services.APIResponse, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	backend    services.Backend
	api        RawClient
	archive    *repositories.Archive
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    services.Backend
	API        RawClient
	Archive    *repositories.Archive
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		api:        opts.API,
		archive:    opts.Archive,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.engine = tasks.NewEngine(r.backend, r.config.Backend.BaseURL, shared.WithLogger(r.logger, "component", "engine"))
	return r
}

// Init loads the configuration named by --config and builds the backend client and archive.
//
// Dependencies passed through [RunnerOpts] are kept. A missing config file falls back to defaults.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	r.config.ApplyEnv(os.Getenv)
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, shared.ParseLevel(r.config.Log.Level))

	if r.backend == nil || r.api == nil {
		client := services.NewBackendServiceFromConfig(r.config.Backend, r.httpClient)
		if r.backend == nil {
			r.backend = client
		}
		if r.api == nil {
			r.api = client
		}
	}

	if r.archive == nil && r.config.Database.Enabled {
		db, err := shared.OpenArchive(r.config.Database)
		if err != nil {
			r.logger.Warn("archive unavailable, continuing without history", "path", r.config.Database.Path, "error", err)
		} else {
			r.db = db
			r.archive = repositories.NewArchive(db, r.config.Backend.BaseURL)
		}
	}

	r.engine = tasks.NewEngine(r.backend, r.config.Backend.BaseURL, shared.WithLogger(r.logger, "component", "engine"))
	r.logger.Debug("runner initialized", "backend", r.config.Backend.BaseURL, "archive", r.archive != nil)
	return ctx, nil
}

// Close releases the archive database.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger used by the runner and the engine.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.engine = tasks.NewEngine(r.backend, r.config.Backend.BaseURL, shared.WithLogger(l, "component", "engine"))
}

// newSession starts a fresh session wired to the archive when one is open.
func (r *Runner) newSession() (*session.Session, error) {
	if r.backend == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	opts := session.Options{Backend: r.backend, Logger: r.logger}
	if r.archive != nil {
		opts.Recorder = r.archive
	}
	return session.New(opts), nil
}

func (r *Runner) requireArchive() error {
	if r.archive == nil {
		return fmt.Errorf("%w: set [database] enabled = true and run 'tastebud setup database'", shared.ErrArchiveOffline)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

// exitCode maps command errors to process exit codes: 2 for usage errors, 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidFlag),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidFile),
		errors.Is(err, shared.ErrInvalidConfig):
		return 2
	default:
		return 1
	}
}
