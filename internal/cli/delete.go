package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"catalog-cli/internal/catalog"

	"github.com/spf13/cobra"
)

// promptConfirmer asks on out and reads a y/yes answer from in. EOF counts as no.
func promptConfirmer(in io.Reader, out io.Writer) catalog.Confirmer {
	return catalog.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <parent-id> <entity-id>",
		Short: "Delete one row of a node after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseNodeID("parent id", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			entityID, err := parseNodeID("entity id", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}

			ctrl, err := app.newController()
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if err := ctrl.NavigateTo(ctx, parentID); err != nil {
				return writeErr(cmd, describeErr(err))
			}

			confirm := promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes {
				confirm = catalog.Answered(true)
			}
			err = ctrl.DeleteRequested(ctx, entityID, confirm)
			switch {
			case errors.Is(err, catalog.ErrConfirmationDeclined):
				return writeOut(cmd, app, map[string]any{
					"data":   map[string]any{"id": entityID, "deleted": false},
					"_hints": []string{"cancelled; pass --yes to skip the prompt"},
				})
			case errors.Is(err, catalog.ErrUnknownEntity):
				return writeErr(cmd, errNotFound("entity", fmt.Sprintf("%d under node %d", entityID, parentID)))
			case err != nil:
				return writeErr(cmd, describeErr(err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": entityID, "deleted": true}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
