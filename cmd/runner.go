package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/services"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      services.TokenStore
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      services.TokenStore
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, snapshotCommand, renderCommand, apiCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// tokenStore returns the configured token store, defaulting to the file
// store under the configured tokens directory.
func (r *Runner) tokenStore() services.TokenStore {
	if r.store == nil {
		r.store = services.NewFileTokenStore(r.config.Storage.TokensDir)
	}
	return r.store
}

// authService builds the Xbox authentication service from the loaded
// credentials.
func (r *Runner) authService() (*services.XboxAuthService, error) {
	return services.NewXboxAuthService(r.config.Credentials.Xbox, r.tokenStore())
}

// apiClient obtains a valid token artifact and returns an API client bound to
// it. With a nil prompt the command fails when no stored session exists.
func (r *Runner) apiClient(ctx context.Context, prompt services.DevicePrompt) (*services.XboxAPI, *models.TokenArtifact, error) {
	auth, err := r.authService()
	if err != nil {
		return nil, nil, err
	}

	artifact, err := auth.LoadOrRefresh(ctx, prompt)
	if err != nil {
		return nil, nil, err
	}

	timeout := time.Duration(r.config.API.TimeoutSec) * time.Second
	return services.NewXboxAPI(artifact, r.config.API.Language, timeout), artifact, nil
}

// devicePrompt returns a DevicePrompt that walks the user through the device
// code sign-in on the runner's output.
func (r *Runner) devicePrompt() services.DevicePrompt {
	return func(verificationURI, userCode string) {
		r.writePlain("\nTo sign in, open:\n\n  %s\n\nand enter the code: %s\n\n", verificationURI, userCode)
		r.writePlain("Waiting for approval...\n")
	}
}

// openDatabase opens the configured sqlite database.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
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
