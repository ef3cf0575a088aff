package catalog

import (
	"strconv"
	"strings"

	"catalog-cli/internal/model"

	"github.com/ohler55/ojg/jp"
)

// RootLabel is the breadcrumb label of the catalog root.
const RootLabel = "root"

// DeriveTrail turns the closest-first ancestor list of a payload into a root-first trail.
func DeriveTrail(parents []model.Entity) []model.Breadcrumb {
	out := make([]model.Breadcrumb, 0, len(parents))
	for i := len(parents) - 1; i >= 0; i-- {
		p := parents[i]
		out = append(out, model.Breadcrumb{ID: p.ID, StringValue: p.StringValue()})
	}
	return out
}

// NodeLabel names the node currently viewed: "root" for the root, the attribute picked
// by the parent layout's breadCrumbElementName when set, the parent id otherwise.
// A breadCrumbElementName starting with "$" is a JSONPath over the parent's fields.
func NodeLabel(v View) string {
	if v.NodeID == model.RootID {
		return RootLabel
	}
	if v.Parent == nil {
		return ""
	}
	fallback := strconv.FormatInt(v.Parent.ID, 10)
	if v.ParentLayout == nil || strings.TrimSpace(v.ParentLayout.BreadCrumbElementName) == "" {
		return fallback
	}
	sel := strings.TrimSpace(v.ParentLayout.BreadCrumbElementName)
	if strings.HasPrefix(sel, "$") {
		x, err := jp.ParseString(sel)
		if err != nil {
			return fallback
		}
		res := x.Get(v.Parent.Fields())
		if len(res) == 0 {
			return fallback
		}
		if s := model.FormatValue(res[0]); s != "" {
			return s
		}
		return fallback
	}
	if val, ok := v.Parent.Value(sel); ok {
		if s := model.FormatValue(val); s != "" {
			return s
		}
	}
	return fallback
}
