package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/fetch"
	"catalog-cli/internal/format"
	"catalog-cli/internal/logx"
	"catalog-cli/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type App struct {
	BaseURL    string
	Timeout    string
	Session    string
	Format     string
	PrettyJSON bool
	LogFile    string
	Verbose    bool
	Node       int64

	cfg      *store.GlobalConfig
	log      *slog.Logger
	logClose io.Closer
}

func NewRootCmd() *cobra.Command {
	loadDotEnv(".env")

	app := &App{}

	cmd := &cobra.Command{
		Use:          "catalog",
		Short:        "Catalog browser (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Browse from the last visited node
  catalog

  # Open a node directly (shortcut for: catalog open 42)
  catalog 42

  # Print the derived view of a node
  catalog show 42 --page Product=2

  # Edit one row
  catalog save 42 7 --set name=Boots --set active=true
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			node := app.Node
			if !cmd.Flags().Changed("node") {
				node = -1
			}
			return runTUI(cmd, app, node)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.PersistentFlags().StringVar(&app.BaseURL, "base-url", envOr("CATALOG_BASE_URL", ""), "Catalog API root (default from config, then "+store.DefaultBaseURL+")")
	cmd.PersistentFlags().StringVar(&app.Timeout, "timeout", envOr("CATALOG_TIMEOUT", ""), "HTTP timeout as a Go duration (default 10s)")
	cmd.PersistentFlags().StringVar(&app.Session, "session", envOr("CATALOG_SESSION", ""), "Session id for scroll restoration (default: last session)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CATALOG_FORMAT", ""), "Output format (json|edn)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("CATALOG_LOG_FILE", ""), "Append logs to this file")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug output")
	cmd.Flags().Int64Var(&app.Node, "node", 0, "Node to open (default: last visited)")

	cmd.AddCommand(newOpenCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newSaveCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newWebTUICmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newSessionsCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// loadDotEnv reads path into the environment without overriding variables that are
// already set. A missing file is not an error.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	if strings.TrimSpace(app.BaseURL) == "" {
		app.BaseURL = cfg.BaseURLOrDefault()
	}
	if strings.TrimSpace(app.Format) == "" {
		app.Format = cfg.Format
	}
	if _, err := format.Normalize(app.Format); err != nil {
		return writeErr(cmd, err)
	}

	level := slog.LevelWarn
	if app.Verbose {
		level = slog.LevelDebug
	}
	switch {
	case app.LogFile != "":
		l, c, err := logx.OpenFile(app.LogFile, level)
		if err != nil {
			return writeErr(cmd, fmt.Errorf("open log file: %w", err))
		}
		app.log, app.logClose = l, c
	default:
		app.log = logx.New(cmd.ErrOrStderr(), level)
	}
	return nil
}

func (app *App) close() error {
	if app.logClose == nil {
		return nil
	}
	err := app.logClose.Close()
	app.logClose = nil
	return err
}

func (app *App) timeout() (time.Duration, error) {
	if s := strings.TrimSpace(app.Timeout); s != "" {
		return (&store.GlobalConfig{Timeout: s}).TimeoutOrDefault()
	}
	return app.cfg.TimeoutOrDefault()
}

func (app *App) logger() *slog.Logger {
	if app.log == nil {
		return logx.Discard()
	}
	return app.log
}

// newController wires the HTTP fetcher into a navigation controller.
func (app *App) newController(opts ...catalog.Option) (*catalog.Controller, error) {
	d, err := app.timeout()
	if err != nil {
		return nil, err
	}
	client, err := fetch.New(app.BaseURL, fetch.WithTimeout(d), fetch.WithLogger(app.logger()))
	if err != nil {
		return nil, err
	}
	opts = append([]catalog.Option{catalog.WithLogger(app.logger())}, opts...)
	return catalog.New(client, opts...), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// describeErr adds a hint for the errors a user can act on.
func describeErr(err error) error {
	var nerr *catalog.NetworkError
	var derr *catalog.DataIntegrityError
	switch {
	case errors.As(err, &nerr):
		return fmt.Errorf("%w (check --base-url)", err)
	case errors.As(err, &derr):
		return fmt.Errorf("malformed response: %w", err)
	}
	return err
}
