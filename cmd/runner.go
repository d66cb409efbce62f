package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifly/internal/api"
	"github.com/desertthunder/spotifly/internal/auth"
	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/services"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/store"
	"github.com/desertthunder/spotifly/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The API client, store and services are built on first use so commands that never reach the
// network (setup, auth status) work without a session.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error

	client api.Client
	store  *store.Store
	svc    *services.Services
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Client      api.Client // replaces the Web API client, used by tests
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
		client:      opts.Client,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, tracksCommand, albumsCommand, artistsCommand,
		playlistsCommand, searchCommand, recentCommand, devicesCommand, queueCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// before loads the config named by --config (defaults when the file is absent) and applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		r.config = shared.DefaultConfig()
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

func (r *Runner) tokenCache() (*auth.TokenCache, error) {
	path, err := r.config.TokenPath()
	if err != nil {
		return nil, err
	}
	return auth.NewTokenCache(path), nil
}

// apiClient returns the Web API client, restoring the cached session on first use.
func (r *Runner) apiClient(ctx context.Context) (api.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	cache, err := r.tokenCache()
	if err != nil {
		return nil, err
	}
	session, err := auth.LoadSession(ctx, r.config.Credentials.Spotify, cache)
	if err != nil {
		return nil, err
	}

	client, err := api.NewSpotifyClient(api.Options{
		Session:           session,
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Burst:             r.config.API.Burst,
		Retry:             r.config.API.Retry,
		Timeout:           r.config.API.Timeout(),
		Logger:            r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	r.client = client
	return client, nil
}

// loadServices returns the services over a fresh in-memory store.
func (r *Runner) loadServices(ctx context.Context) (*services.Services, error) {
	if r.svc != nil {
		return r.svc, nil
	}

	client, err := r.apiClient(ctx)
	if err != nil {
		return nil, err
	}

	r.store = store.New()
	svc, err := services.New(services.Deps{
		API:         client,
		Store:       r.store,
		Logger:      r.logger,
		PageSize:    r.config.Store.PageSize,
		MaxPages:    r.config.Store.MaxPages,
		SearchLimit: r.config.Store.SearchLimit,
	})
	if err != nil {
		return nil, err
	}
	r.svc = svc
	return svc, nil
}

func (r *Runner) engine(ctx context.Context) (*tasks.LibraryEngine, error) {
	svc, err := r.loadServices(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.NewLibraryEngine(svc, r.store, r.logger)
}

// renderOptions reads the global --json, --pretty and --format flags. --json wins over --format.
func (r *Runner) renderOptions(cmd *cli.Command) (formatter.Options, error) {
	opts := formatter.Options{Pretty: cmd.Bool("pretty")}
	if !cmd.IsSet("pretty") {
		opts.Pretty = r.interactive()
	}
	if cmd.Bool("json") {
		opts.Format = formatter.FormatJSON
		return opts, nil
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return opts, err
	}
	opts.Format = format
	return opts, nil
}

// render writes t, or v when JSON output was requested.
func (r *Runner) render(cmd *cli.Command, t formatter.Table, v any) error {
	opts, err := r.renderOptions(cmd)
	if err != nil {
		return err
	}
	if err := formatter.Render(r.output, t, v, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

// interactive reports whether output goes to a terminal, where styled tables are the default.
func (r *Runner) interactive() bool {
	f, ok := r.output.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// structured reports whether output is machine-readable, in which case status lines are skipped.
func (r *Runner) structured(cmd *cli.Command) bool {
	opts, err := r.renderOptions(cmd)
	return err == nil && opts.Format != formatter.FormatText
}
