// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sentinel-syx/internal/deepseek"
	"github.com/jeranaias/sentinel-syx/internal/model"
)

// errNothingToSave is returned when setup ends without any key entered.
var errNothingToSave = errors.New("no API key entered; nothing saved")

type setupOptions struct {
	completionKey string
	searchKey     string
	forget        bool
}

func (a *App) newSetupCommand() *cobra.Command {
	var opts setupOptions
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Store the DeepSeek and Serper API keys",
		Long: `Store the API keys in the local store (~/.sentinel/localstore.db).

Without flags the keys are prompted for with hidden input, which requires a
terminal. Leave a prompt empty to keep the stored value.`,
		Example: `  sentinel setup
  sentinel setup --completion-key sk-... --search-key abc...
  sentinel setup --forget`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSetup(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.completionKey, "completion-key", "", "DeepSeek API key")
	cmd.Flags().StringVar(&opts.searchKey, "search-key", "", "Serper API key")
	cmd.Flags().BoolVar(&opts.forget, "forget", false, "remove both stored keys")
	return cmd
}

func (a *App) runSetup(cmd *cobra.Command, opts setupOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fromFlags := opts.completionKey != "" || opts.searchKey != ""
	if !fromFlags && !opts.forget && !a.stdinIsTerminal() {
		return &TTYRequiredError{Operation: "prompt for API keys", Hint: "pass --completion-key/--search-key"}
	}

	if err := a.openLogger(true, cmd.ErrOrStderr()); err != nil {
		return err
	}
	manager, err := a.openCredentials(ctx)
	if err != nil {
		return err
	}

	if opts.forget {
		if err := manager.Forget(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Stored API keys removed.")
		return nil
	}

	creds := model.Credentials{CompletionKey: opts.completionKey, SearchKey: opts.searchKey}
	if !fromFlags {
		creds, err = promptCredentials(out, manager.Credentials())
		if err != nil {
			return err
		}
	}
	if !creds.HasCompletionKey() && !creds.HasSearchKey() {
		return errNothingToSave
	}

	if err := manager.Save(ctx, creds); err != nil {
		return err
	}

	saved := manager.Credentials()
	fmt.Fprintf(out, "Saved. DeepSeek key: %s  Serper key: %s\n",
		keyState(saved.CompletionKey), keyState(saved.SearchKey))
	return nil
}

// promptCredentials asks for both keys with hidden input.
func promptCredentials(out io.Writer, current model.Credentials) (model.Credentials, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintln(out, "Enter your API keys. Input is hidden; leave empty to keep the stored value.")

	completion, err := line.PasswordPrompt(keyPrompt("DeepSeek API key", current.HasCompletionKey()))
	if err != nil {
		return model.Credentials{}, fmt.Errorf("setup aborted: %w", err)
	}
	searchKey, err := line.PasswordPrompt(keyPrompt("Serper API key (optional)", current.HasSearchKey()))
	if err != nil {
		return model.Credentials{}, fmt.Errorf("setup aborted: %w", err)
	}

	return model.Credentials{
		CompletionKey: strings.TrimSpace(completion),
		SearchKey:     strings.TrimSpace(searchKey),
	}, nil
}

func keyPrompt(label string, stored bool) string {
	if stored {
		return label + " [stored]: "
	}
	return label + ": "
}

// keyState describes a key without revealing it.
func keyState(key string) string {
	if key == "" {
		return "not set"
	}
	return "set (" + deepseek.Fingerprint(key) + ")"
}
