package catalog

import (
	"strings"

	"catalog-cli/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.UGCPolicy()

// SanitizeHTML strips scripts, handlers and other unsafe markup from server-supplied html.
func SanitizeHTML(s string) string {
	return htmlPolicy.Sanitize(s)
}

// resolveParent finds the entity being viewed inside the payload and its layout.
func resolveParent(currentID int64, entities []model.Entity, layouts []model.Layout) (*model.Entity, *model.Layout) {
	var parent *model.Entity
	for i := range entities {
		if entities[i].ID == currentID {
			e := entities[i]
			parent = &e
			break
		}
	}
	if parent == nil {
		return nil, nil
	}
	for i := range layouts {
		if layouts[i].Name == parent.LayoutName {
			l := layouts[i]
			return parent, &l
		}
	}
	return parent, nil
}

// RenderParentHTML substitutes {{key}} placeholders of the layout template with the
// parent's field values and sanitizes the result. Without a layout there is no panel.
func RenderParentHTML(parent *model.Entity, layout *model.Layout) string {
	if parent == nil || layout == nil || strings.TrimSpace(layout.HTML) == "" {
		return ""
	}
	fields := parent.Fields()
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{{"+k+"}}", model.FormatValue(v))
	}
	return SanitizeHTML(strings.NewReplacer(pairs...).Replace(layout.HTML))
}
