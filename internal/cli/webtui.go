package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catalog-cli/internal/webtui"

	"github.com/spf13/cobra"
)

// childTUIArgs forwards the connection settings to TUI processes spawned per browser tab.
func childTUIArgs(app *App) []string {
	args := []string{"--base-url", app.BaseURL}
	if s := strings.TrimSpace(app.Timeout); s != "" {
		args = append(args, "--timeout", s)
	}
	if s := strings.TrimSpace(app.Session); s != "" {
		args = append(args, "--session", s)
	}
	if s := strings.TrimSpace(app.LogFile); s != "" {
		args = append(args, "--log-file", s)
	}
	if app.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

func newWebTUICmd(app *App) *cobra.Command {
	var (
		addr string
		node int64
	)

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the TUI in your browser (pty + websocket, experimental)",
		Long: strings.TrimSpace(`
Run the terminal UI over the web via a server-side pty and a browser terminal emulator.

Notes:
- No authentication; bind to localhost.
- Each browser tab starts a TUI subprocess on the server.
- Open /terminal?node=ID to start at a specific node.
`),
		Example: strings.TrimSpace(`
# Serve on localhost
catalog webtui --addr 127.0.0.1:3334

# Start every tab at node 42
catalog --base-url http://catalog.internal:8080 webtui --node 42
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := node
			if !cmd.Flags().Changed("node") {
				start = -1
			}
			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:      strings.TrimSpace(addr),
				Args:      childTUIArgs(app),
				StartNode: start,
				Log:       app.logger(),
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := srv.Addr()
			if listenAddr == "" {
				return writeErr(cmd, errors.New("webtui: missing --addr"))
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      listenAddr,
					"baseUrl":   app.BaseURL,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open http://" + listenAddr},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "catalog webtui running at http://%s\n", listenAddr)

			hs := &http.Server{Addr: listenAddr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				_ = hs.Close()
			}()
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	cmd.Flags().Int64Var(&node, "node", 0, "Node every tab starts at (default: last visited)")
	return cmd
}
