package cli

import (
	"errors"
	"net/url"

	"github.com/spf13/cobra"
)

func newTownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "town",
		Short: "Town management commands",
	}

	cmd.AddCommand(newTownListCmd())
	cmd.AddCommand(newTownCreateCmd())
	cmd.AddCommand(newTownUpdateCmd())
	cmd.AddCommand(newTownDeleteCmd())

	return cmd
}

func townPath(townID string) string {
	return "/api/v1/towns/" + url.PathEscape(townID)
}

func newTownListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List public towns",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TownList

			if err := client.Get(cmd.Context(), "/api/v1/towns", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newTownCreateCmd() *cobra.Command {
	var private bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new town",
		Long: `Create a new town. The update password printed here is needed to
rename or delete the town and cannot be recovered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"friendly_name":      args[0],
				"is_publicly_listed": !private,
			}

			var result CreatedTown

			if err := client.Post(cmd.Context(), "/api/v1/towns", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "Hide the town from the public list")

	return cmd
}

func newTownUpdateCmd() *cobra.Command {
	var (
		password string
		name     string
		listed   bool
	)

	cmd := &cobra.Command{
		Use:   "update <town>",
		Short: "Rename a town or change its listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"password": password}
			if cmd.Flags().Changed("name") {
				req["friendly_name"] = name
			}
			if cmd.Flags().Changed("listed") {
				req["is_publicly_listed"] = listed
			}
			if len(req) == 1 {
				return errors.New("nothing to update: pass --name and/or --listed")
			}

			if err := client.Patch(cmd.Context(), townPath(args[0]), req); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Town updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Town update password (required)")
	cmd.Flags().StringVar(&name, "name", "", "New friendly name")
	cmd.Flags().BoolVar(&listed, "listed", true, "Whether the town is publicly listed")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newTownDeleteCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "delete <town>",
		Short: "Delete a town, disconnecting everyone in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), townPath(args[0]), map[string]string{"password": password}); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Town deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Town update password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
