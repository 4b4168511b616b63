package commands

import (
	"context"
	"strings"

	"github.com/benvon/smart-goals/internal/goals"
	"github.com/benvon/smart-goals/internal/models"
	"github.com/benvon/smart-goals/internal/validation"
	"github.com/spf13/cobra"
)

func newGoalsCmd(debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Read a user's goals",
	}
	cmd.AddCommand(newGoalsListCmd(debug))
	cmd.AddCommand(newGoalsHistoryCmd(debug))
	return cmd
}

type goalFilterFlags struct {
	status, category, priority, search string
}

func (f goalFilterFlags) filter() (models.GoalFilter, error) {
	filter := models.GoalFilter{Search: strings.TrimSpace(f.search)}
	if f.status != "" {
		if err := validation.ValidateGoalStatus(f.status); err != nil {
			return filter, err
		}
		s := models.GoalStatus(f.status)
		filter.Status = &s
	}
	if f.category != "" {
		if err := validation.ValidateGoalCategory(f.category); err != nil {
			return filter, err
		}
		c := models.GoalCategory(f.category)
		filter.Category = &c
	}
	if f.priority != "" {
		if err := validation.ValidateGoalPriority(f.priority); err != nil {
			return filter, err
		}
		p := models.GoalPriority(f.priority)
		filter.Priority = &p
	}
	return filter, nil
}

func newGoalsListCmd(debug *bool) *cobra.Command {
	var (
		user  string
		flags goalFilterFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's goals, highest priority first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseIDFlag("user", user)
			if err != nil {
				return err
			}
			filter, err := flags.filter()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			engine, cleanup, err := openEngine(ctx, *debug)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := engine.GetGoals(ctx, userID, filter)
			if err != nil {
				return engineError(err, "goal")
			}
			writeGoals(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID")
	cmd.Flags().StringVar(&flags.status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&flags.category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&flags.priority, "priority", "", "Filter by priority")
	cmd.Flags().StringVar(&flags.search, "search", "", "Case-insensitive text search in title and description")
	return cmd
}

func newGoalsHistoryCmd(debug *bool) *cobra.Command {
	var (
		user, goal string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a goal's progress history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseIDFlag("user", user)
			if err != nil {
				return err
			}
			goalID, err := parseIDFlag("goal", goal)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			engine, cleanup, err := openEngine(ctx, *debug)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := engine.GetGoalProgressHistory(ctx, userID, goalID, limit)
			if err != nil {
				return engineError(err, "goal")
			}
			writeHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID")
	cmd.Flags().StringVar(&goal, "goal", "", "Goal ID")
	cmd.Flags().IntVar(&limit, "limit", goals.DefaultHistoryLimit, "Maximum entries to show")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
