package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/auth"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services that touch disk (database, response cache) are opened on first use so commands that do not need
// them never lock the files.
type Runner struct {
	config     *shared.Config
	configPath string
	movies     services.MovieService
	api        *services.APIService
	cache      *services.ResponseCache
	accounts   *auth.Service
	db         *sql.DB
	openDB     func(shared.DatabaseConfig) (*sql.DB, error)
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Movies     services.MovieService
	API        *services.APIService
	Cache      *services.ResponseCache
	Accounts   *auth.Service
	OpenDB     func(shared.DatabaseConfig) (*sql.DB, error)
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
	if opts.OpenDB == nil {
		opts.OpenDB = shared.OpenDatabase
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		movies:     opts.Movies,
		api:        opts.API,
		cache:      opts.Cache,
		accounts:   opts.Accounts,
		openDB:     opts.OpenDB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// Before loads the configuration named by --config and applies --verbose.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return ctx, nil
	}

	config, err := shared.LoadOrDefault(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.configPath = path
	r.logger.Debug("loaded config", "path", path)
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, popularCommand, searchCommand, showCommand, apiCommand,
		signUpCommand, loginCommand, logoutCommand, whoamiCommand,
		cacheCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the database and the response cache.
func (r *Runner) Close() error {
	var err error
	if r.cache != nil {
		err = r.cache.Close()
		r.cache = nil
	}
	if r.db != nil {
		if cerr := r.db.Close(); err == nil {
			err = cerr
		}
		r.db = nil
	}
	return err
}

// movieService returns the metadata client, building it from config on first use.
func (r *Runner) movieService() (services.MovieService, error) {
	if r.movies != nil {
		return r.movies, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	cache, err := r.responseCache()
	if err != nil {
		r.logger.Warn("response cache unavailable", "error", err)
	}
	r.movies = services.NewTMDBServiceFromConfig(r.config.TMDB, cache, r.logger)
	return r.movies, nil
}

// responseCache opens the response cache when it is enabled. Returns nil without error when disabled.
func (r *Runner) responseCache() (*services.ResponseCache, error) {
	if r.cache != nil || !r.config.Cache.Enabled {
		return r.cache, nil
	}
	cache, err := services.OpenResponseCache(shared.ExpandHome(r.config.Cache.Path), r.config.Cache.TTL())
	if err != nil {
		return nil, err
	}
	r.cache = cache
	return cache, nil
}

func (r *Runner) apiService() *services.APIService {
	if r.api == nil {
		r.api = services.NewAPIService(r.config.TMDB.BaseURL, r.config.TMDB.APIKey, r.httpClient)
	}
	return r.api
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
}

// accountService returns the auth service, opening the database on first use.
func (r *Runner) accountService() (*auth.Service, error) {
	if r.accounts != nil {
		return r.accounts, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.accounts = auth.NewServiceFromConfig(db, r.config.Session, r.logger)
	return r.accounts, nil
}

// localeFrom resolves the --locale flag, falling back to the configured default.
func (r *Runner) localeFrom(cmd *cli.Command) locale.Locale {
	if v := cmd.String("locale"); v != "" {
		return locale.Parse(v)
	}
	return locale.Parse(r.config.Locale.Default)
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
