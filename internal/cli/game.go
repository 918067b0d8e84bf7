package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameActionCmd("roll-initial", "Roll your opening die", "/api/v1/session/initial-roll"))
	cmd.AddCommand(newGameActionCmd("roll", "Roll the dice for your turn", "/api/v1/session/roll"))
	cmd.AddCommand(newGameMoveCmd())
	cmd.AddCommand(newGameActionCmd("rematch", "Start another game once this one is finished", "/api/v1/session/rematch"))

	return cmd
}

// newGameActionCmd builds a command for an action that takes no arguments
func newGameActionCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState

			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <piece> <to>",
		Short: "Move one of your pieces (spikes as seen from your side, 24 bears off)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			piece, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid piece: %w", err)
			}

			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid destination: %w", err)
			}

			req := map[string]int{"piece": piece, "to": to}
			var result GameState

			if err := client.Post("/api/v1/session/move", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
