package catalog

import (
	"fmt"

	"catalog-cli/internal/model"
)

// PageSize is the fixed number of rows shown per group page.
const PageSize = 10

// PageCount is the number of pages needed for n rows.
func PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// VisibleSlice returns the rows of page. A page past the end (for example after a
// save shrank the group) yields an empty slice.
func VisibleSlice(ents []model.Entity, page int) []model.Entity {
	if page < 0 {
		return nil
	}
	start := page * PageSize
	if start >= len(ents) {
		return nil
	}
	end := start + PageSize
	if end > len(ents) {
		end = len(ents)
	}
	return ents[start:end]
}

// PageInfoText describes which rows page shows. A page with no rows, such as a cursor
// left past the end after the group shrank, reads "Showing 0 to 0 of N entries".
func PageInfoText(total, page int) string {
	if page < 0 || page*PageSize >= total {
		return fmt.Sprintf("Showing 0 to 0 of %d entries", total)
	}
	first := page*PageSize + 1
	last := page*PageSize + PageSize
	if last > total {
		last = total
	}
	return fmt.Sprintf("Showing %d to %d of %d entries", first, last, total)
}

// Pages holds one page cursor per layout name.
type Pages map[string]int

func (p Pages) Get(layoutName string) int { return p[layoutName] }

func (p Pages) with(layoutName string, page int) Pages {
	out := make(Pages, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[layoutName] = page
	return out
}

// carryPages computes cursors for a freshly grouped view. Navigating to another node
// starts every group at page 0; a refetch of the same node keeps the cursor of each
// layout that is still present.
func carryPages(prev Pages, groups Groups, sameNode bool) Pages {
	out := make(Pages, len(groups))
	for _, g := range groups {
		page := 0
		if sameNode {
			page = prev[g.Layout.Name]
		}
		out[g.Layout.Name] = page
	}
	return out
}
