package tui

import (
	"fmt"
	"strconv"
	"strings"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/model"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/microcosm-cc/bluemonday"
)

var stripTags = bluemonday.StrictPolicy()

// tableAttributes are the columns of a group: attributes flagged for the table, or all
// of them when none is flagged.
func tableAttributes(l model.Layout) []model.Attribute {
	var out []model.Attribute
	for _, a := range l.Attributes {
		if a.Table {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return l.Attributes
	}
	return out
}

// formatCell is the read-mode text of one attribute.
func formatCell(a model.Attribute, e model.Entity) string {
	v, ok := e.Value(a.Key)
	if !ok || v == nil {
		return ""
	}
	switch a.Resolve {
	case model.ResolveHTML:
		return strings.TrimSpace(stripTags.Sanitize(model.FormatValue(v)))
	case model.ResolveBoolean:
		switch a.Resolve.Format(v) {
		case "true":
			return "✓"
		case "false":
			return "✗"
		}
	case model.ResolveImage:
		return "[img] " + model.FormatValue(v)
	case model.ResolveFile:
		return "[file] " + model.FormatValue(v)
	}
	return a.Resolve.Format(v)
}

// renderGroup draws one group: title, table of the visible page and the page footer.
// cursor is the selected row inside the visible page, or -1.
func renderGroup(v catalog.View, g catalog.Group, focused bool, cursor int, width int) string {
	attrs := tableAttributes(g.Layout)
	visible := v.VisibleSlice(g.Layout.Name)

	colW := 12
	if n := len(attrs) + 1; n > 0 && width > 0 {
		colW = max((width-3*n-1)/n, 4)
	}

	headers := make([]string, 0, len(attrs)+1)
	headers = append(headers, "#")
	for _, a := range attrs {
		headers = append(headers, truncateCell(attrLabel(a), colW))
	}

	rows := make([][]string, 0, len(visible))
	editRow := -1
	for i, e := range visible {
		row := make([]string, 0, len(attrs)+1)
		id := strconv.FormatInt(e.ID, 10)
		if v.Edit.IsEditing(e.ID) {
			id += " ✎"
			editRow = i
		}
		row = append(row, id)
		for _, a := range attrs {
			row = append(row, truncateCell(formatCell(a, e), colW))
		}
		rows = append(rows, row)
	}

	base := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return base.Bold(true).Foreground(colorChromeFg)
			case row == editRow:
				return base.Background(colorEditBg)
			case focused && row == cursor:
				return base.Foreground(colorSelectFg).Background(colorSelectBg).Bold(true)
			}
			return base
		})

	title := styleGroupTitle(focused).Render(g.Layout.Name)
	footer := v.PageInfo(g.Layout.Name)
	if n := v.PageCount(g.Layout.Name); n > 1 {
		p := paginator.New()
		p.Type = paginator.Dots
		p.PerPage = catalog.PageSize
		p.ActiveDot = lipgloss.NewStyle().Foreground(colorAccent).Render("•")
		p.InactiveDot = styleMuted().Render("•")
		p.SetTotalPages(len(g.Entities))
		p.Page = min(v.Page(g.Layout.Name), n-1)
		footer = fmt.Sprintf("%s  %s", footer, p.View())
	}
	if len(visible) == 0 {
		footer = fmt.Sprintf("page %d of %d is empty", v.Page(g.Layout.Name)+1, v.PageCount(g.Layout.Name))
	}

	return strings.Join([]string{title, t.String(), styleMuted().Render(footer)}, "\n")
}

// renderableGroups are the groups the view shows, in layout order.
func renderableGroups(v catalog.View) []catalog.Group {
	out := make([]catalog.Group, 0, len(v.Groups))
	for _, g := range v.Groups {
		if g.Renderable() {
			out = append(out, g)
		}
	}
	return out
}
