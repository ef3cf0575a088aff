package cli

import (
	"strconv"
	"strings"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/model"

	"github.com/spf13/cobra"
)

type groupOut struct {
	Layout    string         `json:"layout"`
	Columns   []string       `json:"columns"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageCount int            `json:"pageCount"`
	PageInfo  string         `json:"pageInfo"`
	Rows      []model.Entity `json:"rows"`
}

type viewOut struct {
	NodeID      int64              `json:"nodeId"`
	Label       string             `json:"label"`
	Breadcrumbs []model.Breadcrumb `json:"breadcrumbs"`
	ParentHTML  string             `json:"parentHtml,omitempty"`
	Groups      []groupOut         `json:"groups"`
}

// viewOutput is the printable shape of v: renderable groups with their visible page only.
// Pages are reported 1-based.
func viewOutput(v catalog.View) viewOut {
	out := viewOut{
		NodeID:      v.NodeID,
		Label:       catalog.NodeLabel(v),
		Breadcrumbs: v.Breadcrumbs,
		ParentHTML:  v.ParentHTML,
		Groups:      []groupOut{},
	}
	if out.Breadcrumbs == nil {
		out.Breadcrumbs = []model.Breadcrumb{}
	}
	for _, g := range v.Groups {
		if !g.Renderable() {
			continue
		}
		name := g.Layout.Name
		cols := make([]string, 0, len(g.Layout.Attributes))
		for _, a := range g.Layout.Attributes {
			cols = append(cols, a.Key)
		}
		out.Groups = append(out.Groups, groupOut{
			Layout:    name,
			Columns:   cols,
			Total:     len(g.Entities),
			Page:      v.Page(name) + 1,
			PageCount: v.PageCount(name),
			PageInfo:  v.PageInfo(name),
			Rows:      v.VisibleSlice(name),
		})
	}
	return out
}

type pageReq struct {
	layout string
	index  int
}

// parsePages reads repeated Layout=N flags; N is 1-based.
func parsePages(flags []string) ([]pageReq, error) {
	reqs := make([]pageReq, 0, len(flags))
	for _, p := range flags {
		k, v, err := splitPair("--page", p)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return nil, errInvalidArg("--page", p, "page must be a positive integer")
		}
		reqs = append(reqs, pageReq{layout: k, index: n - 1})
	}
	return reqs, nil
}

func applyPages(ctrl *catalog.Controller, reqs []pageReq) error {
	for _, r := range reqs {
		if _, ok := ctrl.View().Groups.Find(r.layout); !ok {
			return errNotFound("layout", r.layout)
		}
		ctrl.SetPage(r.layout, r.index)
	}
	return nil
}

func newShowCmd(app *App) *cobra.Command {
	var pages []string

	cmd := &cobra.Command{
		Use:   "show <node-id>",
		Short: "Print the grouped, paginated view of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID("node id", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			reqs, err := parsePages(pages)
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

			v := ctrl.View()
			env := map[string]any{"data": viewOutput(v)}
			if v.NodeID != model.RootID && len(v.Breadcrumbs) == 0 {
				env["_hints"] = []string{"server sent no parents for this node; breadcrumbs are empty"}
			}
			return writeOut(cmd, app, env)
		},
	}
	cmd.Flags().StringArrayVar(&pages, "page", nil, "Select a page per group as Layout=N (1-based, repeatable)")
	return cmd
}
