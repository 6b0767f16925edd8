package cli

import (
	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <town> <name>",
		Short: "Join a town and save the session token",
		Long: `Join a town as a new player. The session token is saved to the
token file under the town id, so that a later watch of the same town
connects as this player.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result JoinResult

			if err := client.Post(cmd.Context(), townPath(args[0])+"/sessions", map[string]string{"user_name": args[1]}, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(args[0], result.SessionToken); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
