package cli

import (
	"catalog-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		to       string
		page     []string
		allRows  bool
		withHTML bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "export <node-id>",
		Short: "Write a node as markdown (and html) files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID("node id", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			reqs, err := parsePages(page)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctrl, err := app.newController()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ctrl.NavigateTo(cmd.Context(), id); err != nil {
				return writeErr(cmd, describeErr(err))
			}
			if err := applyPages(ctrl, reqs); err != nil {
				return writeErr(cmd, err)
			}

			res, err := publish.WriteNode(ctrl.View(), to, publish.WriteOptions{
				AllRows:   allRows,
				HTML:      withHTML,
				Overwrite: force,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	cmd.Flags().StringVar(&to, "to", ".", "Output directory")
	cmd.Flags().StringArrayVar(&page, "page", nil, "Select a page per group as Layout=N (1-based, repeatable)")
	cmd.Flags().BoolVar(&allRows, "all", false, "Export every row instead of the selected page")
	cmd.Flags().BoolVar(&withHTML, "html", false, "Also write an html page")
	cmd.Flags().BoolVar(&force, "overwrite", false, "Replace existing files")
	return cmd
}
