package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/api"
	"github.com/desertthunder/wouldwatch/internal/auth"
	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/repositories"
	"github.com/desertthunder/wouldwatch/internal/shared"
	"github.com/desertthunder/wouldwatch/internal/ui"
)

// Backend is the API gateway as the commands use it.
type Backend interface {
	ui.Backend
	InviteToRoom(ctx context.Context, roomID, userID string) error
	UpdatePrivacy(ctx context.Context, pref models.InvitePreference) error
	Do(ctx context.Context, method, path string, body, out any) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are connected lazily by [Runner.Connect] so commands like setup work without a valid config.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       auth.Authenticator
	api        Backend
	mountFn    func(ctx context.Context) error
	mounted    bool
	prompt     Prompter
	clipboard  func(text string) error
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	closers    []func()
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Auth       auth.Authenticator
	API        Backend
	Prompt     Prompter
	Clipboard  func(text string) error
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
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Prompt == nil {
		opts.Prompt = huhPrompter{}
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		auth:       opts.Auth,
		api:        opts.API,
		prompt:     opts.Prompt,
		clipboard:  opts.Clipboard,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// redirectLogs points the runner's logger at a file while the TUI owns the terminal.
//
// Connected services share that logger, so their output moves with it. The file is closed by [Runner.Close].
func (r *Runner) redirectLogs(path string) error {
	f, err := shared.OpenLogFile(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger.SetOutput(f)
	r.closers = append(r.closers, func() { f.Close() })
	return nil
}

// Connect validates the configuration and wires the session store, auth client and API gateway.
//
// It is a no-op once services are present, so tests can inject fakes.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.auth != nil && r.api != nil {
		return ctx, nil
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	db, err := r.openDatabase()
	if err != nil {
		return ctx, err
	}
	r.closers = append(r.closers, func() { db.Close() })

	store := repositories.NewSessionRepository(db)
	provider := auth.NewGoTrueProvider(r.config.Auth, store, r.logger)
	provider.SetHTTPClient(r.httpClient)

	client := auth.NewClient(provider, r.logger)
	r.closers = append(r.closers, client.Close)

	r.auth = client
	r.mountFn = client.Mount
	r.api = api.NewClient(r.config.API, client, r.httpClient, r.logger)

	r.logger.Debug("connected", "api", r.config.API.BaseURL, "auth", r.config.Auth.URL)
	return ctx, nil
}

func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// mount runs the auth client's initial session probe once per process.
func (r *Runner) mount(ctx context.Context) error {
	if r.mounted || r.mountFn == nil {
		return nil
	}
	r.mounted = true

	if err := r.mountFn(ctx); err != nil && !errors.Is(err, auth.ErrAlreadyMounted) {
		return err
	}
	return nil
}

// requireUser mounts the auth client and fails when nobody is signed in.
func (r *Runner) requireUser(ctx context.Context) (*auth.User, error) {
	if err := r.mount(ctx); err != nil {
		return nil, err
	}
	u := r.auth.User()
	if u == nil {
		return nil, fmt.Errorf("%w: run 'ww auth login' first", shared.ErrNotAuthenticated)
	}
	return u, nil
}

// Close releases the connected services.
func (r *Runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, roomsCommand, sessionsCommand, profileCommand, friendsCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
