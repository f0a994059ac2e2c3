package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskfeed/internal/app"
	"taskfeed/internal/auth"
	"taskfeed/internal/config"
	"taskfeed/internal/logging"
)

// env carries the configuration and lazily opened stores of one run.
type env struct {
	cfg    *config.Config
	log    logrus.FieldLogger
	open   func(ctx context.Context, cfg config.StoreConfig, log logrus.FieldLogger) (*app.Stores, error)
	stores *app.Stores
}

func newEnv() *env {
	return &env{open: app.Open}
}

func (e *env) load() error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	// Logs go to stderr so stdout stays machine-readable.
	e.log = logging.NewWithOutput(os.Stderr, "taskctl", cfg.LogLevel)
	return nil
}

func (e *env) Stores(ctx context.Context) (*app.Stores, error) {
	if e.stores != nil {
		return e.stores, nil
	}
	s, err := e.open(ctx, e.cfg.Store, e.log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", e.cfg.Store.Driver, err)
	}
	e.stores = s
	return s, nil
}

func (e *env) Tokens() (*auth.Tokens, error) {
	if e.cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET must be set to issue tokens", config.ErrInvalid)
	}
	return auth.NewTokens(e.cfg.Auth.Secret, e.cfg.Auth.Issuer, time.Duration(e.cfg.Auth.TokenTTL)), nil
}

func (e *env) close() {
	if e.stores != nil {
		e.stores.Close()
	}
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Administer a taskfeed deployment",
		Long: `taskctl works directly against the configured store (STORE_DRIVER,
DATABASE_URL, MONGO_URI, ...): it creates tables, inspects tasks and
activity, verifies the activity hash chain, registers users and issues
bearer tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
	}
	root.AddCommand(
		newInitCommand(e),
		newStatusCommand(e),
		newConfigCommand(e),
		newTaskCommand(e),
		newActivityCommand(e),
		newUserCommand(e),
		newTokenCommand(e),
	)
	return root
}

func newInitCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			if err := stores.EnsureTables(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok", "message": "all tables initialized"})
		},
	}
}

func newStatusCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show task and activity counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := stores.Tasks.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count tasks: %w", err)
			}
			events, err := stores.Activity.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count activity: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{"tasks": tasks, "activity": events})
		},
	}
}

func newConfigCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML (secret redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *e.cfg
			if cfg.Auth.Secret != "" {
				cfg.Auth.Secret = "<redacted>"
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func truncStr(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
