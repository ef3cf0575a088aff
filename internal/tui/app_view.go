package tui

import (
	"fmt"
	"strconv"
	"strings"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/publish"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	if m.width == 0 {
		return "loading…"
	}
	if m.confirm != nil {
		modal := renderConfirmModal(m.width, "Delete", m.confirm.prompt, "Delete", "Cancel", m.confirm.focus)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	parts := []string{m.renderHeader()}
	if b := m.renderBanner(); b != "" {
		parts = append(parts, b)
	}
	parts = append(parts, m.vp.View(), m.renderFooter())
	return strings.Join(parts, "\n")
}

// layoutViewport sizes the scrolling body between header/banner and footer.
func (m *appModel) layoutViewport() {
	if m.width == 0 {
		return
	}
	chrome := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderFooter())
	if b := m.renderBanner(); b != "" {
		chrome += lipgloss.Height(b)
	}
	m.vp.Width = m.width
	m.vp.Height = max(m.height-chrome, 1)
	m.refreshContent()
}

func (m *appModel) refreshContent() {
	y := m.vp.YOffset
	m.vp.SetContent(m.renderBody(max(m.width, 20)))
	if m.pendingScroll >= 0 && m.width > 0 {
		y, m.pendingScroll = m.pendingScroll, -1
	}
	m.vp.SetYOffset(y)
}

// crumbs returns the trail labels: root first, then ancestors, then the current node.
func (m appModel) crumbs() []string {
	out := []string{"[1] " + catalog.RootLabel}
	if m.v.NodeID == 0 {
		return out
	}
	for i, b := range m.v.Breadcrumbs {
		label := b.StringValue
		if i+2 <= 9 {
			label = "[" + strconv.Itoa(i+2) + "] " + label
		}
		out = append(out, label)
	}
	cur := catalog.NodeLabel(m.v)
	if cur == "" {
		cur = "#" + strconv.FormatInt(m.v.NodeID, 10)
	}
	return append(out, cur)
}

func (m appModel) renderHeader() string {
	cs := m.crumbs()
	styled := make([]string, len(cs))
	for i, c := range cs {
		if i == len(cs)-1 {
			styled[i] = styleCrumbCurrent().Render(c)
		} else {
			styled[i] = styleCrumb().Render(c)
		}
	}
	line := strings.Join(styled, styleMuted().Render(" › "))
	if m.v.Loading || m.v.Saving {
		line = m.spin.View() + " " + line
	}
	return normalizePane(line, m.width, 1)
}

func (m appModel) renderBanner() string {
	switch {
	case m.v.Err != nil:
		return styleBanner(true).Width(m.width).Render("error: " + m.v.Err.Error() + "  (x to dismiss)")
	case m.v.Warning != nil:
		return styleBanner(false).Width(m.width).Render("warning: " + m.v.Warning.Error() + "  (x to dismiss)")
	}
	return ""
}

func (m appModel) renderFooter() string {
	status := ""
	if m.status != "" {
		status = styleBanner(m.statusErr).Render(m.status)
	}
	var helpView string
	if m.form != nil {
		helpView = m.help.View(m.formKeys)
	} else {
		helpView = m.help.View(m.keys)
	}
	return normalizePane(status, m.width, 1) + "\n" + helpView
}

func (m appModel) renderBody(width int) string {
	var blocks []string

	if html := m.v.ParentHTML; html != "" {
		if md := renderMarkdown(publish.HTMLToMarkdown(html), width-2); md != "" {
			blocks = append(blocks, md)
		}
	}
	for _, p := range m.panels {
		blocks = append(blocks, styleMuted().Render(p.Title())+"\n"+p.Render(m.v, width))
	}
	if m.form != nil {
		blocks = append(blocks, m.form.view(width, m.v.Saving))
	}

	gs := renderableGroups(m.v)
	for i, g := range gs {
		focused := i == m.group && m.form == nil
		cursor := -1
		if focused {
			cursor = m.row
		}
		blocks = append(blocks, renderGroup(m.v, g, focused, cursor, width))
	}
	if len(gs) == 0 && m.v.Loaded {
		blocks = append(blocks, styleMuted().Render(fmt.Sprintf("Node %d has no children.", m.v.NodeID)))
	}
	return strings.Join(blocks, "\n\n")
}
