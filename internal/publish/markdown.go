package publish

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/model"
)

type RenderOptions struct {
	// AllRows exports every row of each group instead of the selected page only.
	AllRows bool
}

// Title is the heading of an exported node.
func Title(v catalog.View) string {
	if label := strings.TrimSpace(catalog.NodeLabel(v)); label != "" {
		return label
	}
	return "Node " + strconv.FormatInt(v.NodeID, 10)
}

// RenderNodeMarkdown renders a loaded view as a markdown document: meta, the parent
// content and one table per renderable group.
func RenderNodeMarkdown(v catalog.View, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + Title(v))
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + strconv.FormatInt(v.NodeID, 10))
	path := []string{catalog.RootLabel}
	for _, b := range v.Breadcrumbs {
		path = append(path, b.StringValue)
	}
	if v.NodeID != model.RootID {
		path = append(path, Title(v))
	}
	writeLn("- Path: " + strings.Join(path, " / "))
	if v.ParentLayout != nil {
		writeLn("- Layout: " + v.ParentLayout.Name)
	}
	writeLn("")

	if md := HTMLToMarkdown(v.ParentHTML); md != "" {
		writeLn(md)
		writeLn("")
	}

	for _, g := range v.Groups {
		if !g.Renderable() {
			continue
		}
		name := g.Layout.Name
		rows := v.VisibleSlice(name)
		info := v.PageInfo(name)
		if opt.AllRows {
			rows = g.Entities
			info = fmt.Sprintf("%d entries", len(rows))
		}

		writeLn("## " + name)
		writeLn("")
		writeLn("_" + info + "_")
		writeLn("")
		writeTable(&buf, g.Layout, rows)
		writeLn("")
	}
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

func writeTable(buf *bytes.Buffer, l model.Layout, rows []model.Entity) {
	head := []string{"ID"}
	sep := []string{"---"}
	for _, a := range l.Attributes {
		label := a.Name
		if strings.TrimSpace(label) == "" {
			label = a.Key
		}
		head = append(head, escapeCell(label))
		sep = append(sep, "---")
	}
	buf.WriteString("| " + strings.Join(head, " | ") + " |\n")
	buf.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, e := range rows {
		cells := []string{strconv.FormatInt(e.ID, 10)}
		for _, a := range l.Attributes {
			cells = append(cells, escapeCell(cellText(a, e)))
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func cellText(a model.Attribute, e model.Entity) string {
	v, ok := e.Value(a.Key)
	if !ok || v == nil {
		return ""
	}
	s := a.Resolve.Format(v)
	switch a.Resolve {
	case model.ResolveHTML:
		s = HTMLToMarkdown(catalog.SanitizeHTML(s))
	case model.ResolveImage:
		if s != "" {
			s = "![](" + s + ")"
		}
	case model.ResolveFile:
		if s != "" {
			s = "[" + s + "](" + s + ")"
		}
	}
	return s
}

// escapeCell keeps a value on one table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\\\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
