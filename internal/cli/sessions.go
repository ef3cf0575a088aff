package cli

import (
	"time"

	"catalog-cli/internal/store"

	"github.com/spf13/cobra"
)

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored browsing sessions",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions not used for a while",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return writeErr(cmd, errInvalidArg("--older-than", olderThan.String(), "must be positive"))
			}
			s, err := store.Open()
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := s.PruneSessions(cmd.Context(), olderThan)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"pruned": n}})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age threshold")
	cmd.AddCommand(prune)

	current := &cobra.Command{
		Use:   "current",
		Short: "Print the session the TUI will reuse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open()
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := s.LoadTUIState()
			if err != nil {
				return writeErr(cmd, err)
			}
			id := app.Session
			if id == "" {
				id = st.LastSession
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"session":     id,
				"lastNodeId":  st.LastNodeID,
				"recentNodes": st.RecentNodeIDs,
			}})
		},
	}
	cmd.AddCommand(current)

	return cmd
}
