package commands

import (
	"fmt"

	"github.com/benvon/smart-goals/internal/catalog"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(debug *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the goal template catalog",
	}
	cmd.AddCommand(newTemplatesListCmd())
	cmd.AddCommand(newTemplatesValidateCmd())
	cmd.AddCommand(newTemplatesRecommendCmd(debug))
	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog templates",
		Long:  "List the built-in catalog, or the catalog in --file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(file)
			if err != nil {
				return err
			}
			templates, err := c.Templates(commandContext(cmd))
			if err != nil {
				return err
			}
			writeTemplates(cmd.OutOrStdout(), templates)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Catalog YAML file (default: built-in catalog)")
	return cmd
}

func newTemplatesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d templates OK\n", args[0], c.Len())
			return nil
		},
	}
}

func newTemplatesRecommendCmd(debug *bool) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show templates recommended for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseIDFlag("user", user)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			engine, cleanup, err := openEngine(ctx, *debug)
			if err != nil {
				return err
			}
			defer cleanup()

			templates, err := engine.GetRecommendedGoalTemplates(ctx, userID)
			if err != nil {
				return engineError(err, "template")
			}
			writeTemplates(cmd.OutOrStdout(), templates)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID")
	return cmd
}
