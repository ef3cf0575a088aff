package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"catalog-cli/internal/catalog"
)

// Panel is an extra block mounted under the parent panel. Panels are picked by id
// from the registry (config: tui.panels).
type Panel interface {
	Title() string
	Render(v catalog.View, width int) string
}

type PanelFactory func() Panel

var (
	panelsMu sync.RWMutex
	panels   = map[string]PanelFactory{
		"summary": func() Panel { return summaryPanel{} },
		"node":    func() Panel { return nodePanel{} },
	}
)

// RegisterPanel adds a panel constructor under id. Ids are unique.
func RegisterPanel(id string, f PanelFactory) error {
	id = strings.TrimSpace(id)
	if id == "" || f == nil {
		return fmt.Errorf("register panel: empty id or constructor")
	}
	panelsMu.Lock()
	defer panelsMu.Unlock()
	if _, ok := panels[id]; ok {
		return fmt.Errorf("register panel: %q already registered", id)
	}
	panels[id] = f
	return nil
}

func PanelIDs() []string {
	panelsMu.RLock()
	defer panelsMu.RUnlock()
	out := make([]string, 0, len(panels))
	for id := range panels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func mountPanels(ids []string) ([]Panel, error) {
	panelsMu.RLock()
	defer panelsMu.RUnlock()
	out := make([]Panel, 0, len(ids))
	for _, id := range ids {
		f, ok := panels[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("unknown panel %q (known: %s)", id, strings.Join(sortedKeys(panels), ", "))
		}
		out = append(out, f())
	}
	return out, nil
}

func sortedKeys(m map[string]PanelFactory) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type summaryPanel struct{}

func (summaryPanel) Title() string { return "Summary" }

func (summaryPanel) Render(v catalog.View, width int) string {
	parts := make([]string, 0, len(v.Groups))
	for _, g := range v.Groups {
		if len(g.Entities) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", g.Layout.Name, len(g.Entities)))
	}
	if len(parts) == 0 {
		return "no children"
	}
	return truncateCell(strings.Join(parts, "  ·  "), width)
}

type nodePanel struct{}

func (nodePanel) Title() string { return "Node" }

func (nodePanel) Render(v catalog.View, width int) string {
	label := catalog.NodeLabel(v)
	if label == "" {
		label = "-"
	}
	layout := "-"
	if v.ParentLayout != nil {
		layout = v.ParentLayout.Name
	}
	return truncateCell(fmt.Sprintf("id %d  label %s  layout %s  depth %d", v.NodeID, label, layout, len(v.Breadcrumbs)), width)
}
