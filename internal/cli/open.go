package cli

import (
	"context"
	"os"
	"os/signal"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/logx"
	"catalog-cli/internal/store"
	"catalog-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newOpenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open <node-id>",
		Short: "Browse the catalog starting at a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID("node id", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return runTUI(cmd, app, id)
		},
	}
}

// runTUI starts the interactive browser at node, or at the last visited node when
// node is negative.
func runTUI(cmd *cobra.Command, app *App, node int64) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// The TUI owns the terminal: logs only go to --log-file.
	if app.LogFile == "" {
		app.log = logx.Discard()
	}

	s, err := store.Open()
	if err != nil {
		return writeErr(cmd, err)
	}
	hist, err := tui.NewHistory(s, app.logger())
	if err != nil {
		return writeErr(cmd, err)
	}
	if node < 0 {
		node = hist.LastNode()
	}

	sess, err := openSession(ctx, s, app, hist.LastSession())
	if err != nil {
		return writeErr(cmd, err)
	}
	defer sess.Close()
	if err := hist.SetSession(sess.ID); err != nil {
		app.logger().Warn("remember session", "error", err)
	}

	ctrl, err := app.newController(catalog.WithHistory(hist))
	if err != nil {
		return writeErr(cmd, err)
	}

	opts := tui.Options{
		Controller: ctrl,
		StartNode:  node,
		Scroll:     sess,
		Log:        app.logger(),
	}
	if t := app.cfg.TUI; t != nil {
		opts.Profile = t.Profile
		opts.Panels = t.Panels
	}
	if err := tui.Run(ctx, opts); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// openSession resolves the session id from --session, then fallback, then a new one.
func openSession(ctx context.Context, s store.Store, app *App, fallback string) (*store.Session, error) {
	id := app.Session
	if id == "" {
		id = fallback
	}
	return s.OpenSession(ctx, id)
}
