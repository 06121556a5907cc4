// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sentinel-syx/internal/config"
	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/credentials"
	"github.com/jeranaias/sentinel-syx/internal/deepseek"
	"github.com/jeranaias/sentinel-syx/internal/localstore"
	"github.com/jeranaias/sentinel-syx/internal/logging"
	"github.com/jeranaias/sentinel-syx/internal/search"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// App carries the global flags and the lazily opened resources shared by
// all commands.
type App struct {
	configPath string
	verbose    bool

	// stdinIsTerminal reports whether interactive prompts are possible.
	stdinIsTerminal func() bool
	// stdoutIsTerminal reports whether markdown rendering is wanted.
	stdoutIsTerminal func() bool

	cfg     *config.Config
	logger  zerolog.Logger
	closers []io.Closer
	store   *localstore.Store
	creds   *credentials.Manager
}

// NewApp creates an App that talks to the real terminal.
func NewApp() *App {
	return &App{
		stdinIsTerminal:  IsTTY,
		stdoutIsTerminal: IsStdoutTTY,
		logger:           zerolog.Nop(),
	}
}

// Execute runs the sentinel command tree with os.Args.
func Execute() error {
	app := NewApp()
	defer app.Close()
	return app.RootCommand().Execute()
}

// RootCommand builds the command tree. Running it without a subcommand
// starts the TUI.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "S.E.N.T.I.N.E.L S.Y.X - a terminal chat assistant",
		Long: `sentinel is a chat assistant for the terminal.

Replies come from the DeepSeek chat-completion API. In internet mode the
question is first sent to the Serper web-search API and the results are
given to the model as context. A plain-text document can be attached as
extra context.

Run without arguments to start the full-screen interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applyColorMode()
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("sentinel %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.sentinel/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging (to stderr outside the TUI)")

	root.AddCommand(
		a.newAskCommand(),
		a.newChatCommand(),
		a.newSetupCommand(),
		a.newConfigCommand(),
		a.newVersionCommand(),
	)
	return root
}

// Close releases everything opened by the commands.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// =============================================================================
// WIRING
// =============================================================================

func (a *App) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// openLogger starts logging. Console mode writes to stderr when --verbose
// is set; otherwise lines go to the log file.
func (a *App) openLogger(console bool, stderr io.Writer) error {
	level := a.cfg.Log.Level
	if a.verbose {
		level = "debug"
	}

	opts := logging.Options{Level: level, Console: console && a.verbose, Stderr: stderr}
	if !opts.Console {
		path, err := a.cfg.LogPath()
		if err != nil {
			return err
		}
		opts.File = path
	}

	logger, closer, err := logging.New(opts)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

// openCredentials opens the local store and loads the API keys.
func (a *App) openCredentials(ctx context.Context) (*credentials.Manager, error) {
	if a.creds != nil {
		return a.creds, nil
	}

	path, err := a.cfg.StorePath()
	if err != nil {
		return nil, err
	}
	store, err := localstore.OpenBackend(path, a.cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	creds, err := credentials.NewManager(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	a.logger.Debug().
		Str("path", store.Path()).
		Str("backend", store.Backend()).
		Bool("completion_key", creds.Credentials().HasCompletionKey()).
		Bool("search_key", creds.Credentials().HasSearchKey()).
		Msg("credentials loaded")

	a.store = store
	a.creds = creds
	return creds, nil
}

func (a *App) newCompletionClient() *deepseek.Client {
	c := a.cfg.Completion
	return deepseek.NewClient().
		WithBaseURL(c.BaseURL).
		WithModel(c.Model).
		WithMaxTokens(c.MaxTokens).
		WithTimeout(a.cfg.CompletionTimeout()).
		WithLogger(a.logger)
}

func (a *App) newSearchClient() *search.Client {
	s := a.cfg.Search
	return search.NewClient().
		WithBaseURL(s.BaseURL).
		WithLocale(s.Country, s.Language).
		WithNumResults(s.NumResults).
		WithTimeout(a.cfg.SearchTimeout()).
		WithRateLimit(s.RequestsPerSecond).
		WithLogger(a.logger)
}

// newSession wires the clients and credentials into a conversation.
func (a *App) newSession(creds conversation.CredentialSource, opts ...conversation.Option) *conversation.Session {
	base := []conversation.Option{
		conversation.WithLogger(a.logger),
		conversation.WithAssistantName(a.cfg.Assistant.Name),
		conversation.WithTemperature(a.cfg.Completion.Temperature),
		conversation.WithTone(a.cfg.Assistant.Tone),
	}
	return conversation.NewSession(a.newCompletionClient(), a.newSearchClient(), creds, append(base, opts...)...)
}
