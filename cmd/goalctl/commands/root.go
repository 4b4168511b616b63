// Package commands implements the goalctl operator CLI.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-goals/internal/app"
	"github.com/benvon/smart-goals/internal/config"
	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates the goalctl root command
func NewRootCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:           "goalctl",
		Short:         "Operator tool for the smart-goals service",
		Long:          "Run database migrations, inspect the goal template catalog and read goals and progress history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log backend activity to stderr")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newTemplatesCmd(&debug))
	cmd.AddCommand(newGoalsCmd(&debug))
	return cmd
}

// openEngine loads configuration and opens the configured backends
func openEngine(ctx context.Context, debug bool) (*goals.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := zap.NewNop()
	if debug {
		if log, err = logger.NewDevelopmentLogger(true); err != nil {
			return nil, nil, fmt.Errorf("create logger: %w", err)
		}
	}

	backends, err := app.Open(ctx, cfg, logger.Component(log, "goalctl", "backends"))
	if err != nil {
		return nil, nil, fmt.Errorf("open backends: %w", err)
	}
	cleanup := func() {
		_ = backends.Close()
		_ = logger.Sync(log)
	}
	return backends.Engine(), cleanup, nil
}

func parseIDFlag(name, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--%s must be a non-nil UUID", name)
	}
	return id, nil
}

// engineError turns the engine's opaque errors into CLI messages
func engineError(err error, what string) error {
	switch {
	case errors.Is(err, goals.ErrNotFound):
		return fmt.Errorf("%s not found", what)
	case errors.Is(err, goals.ErrInvalidInput):
		return fmt.Errorf("invalid %s request", what)
	default:
		return fmt.Errorf("%s lookup failed (run with --debug for details)", what)
	}
}
