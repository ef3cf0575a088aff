package catalog

import "catalog-cli/internal/model"

// Group holds every entity of the current node that shares one layout.
type Group struct {
	Layout   model.Layout   `json:"layout"`
	Entities []model.Entity `json:"entities"`
}

// Renderable reports whether a view layer should draw the group at all. Empty groups
// and layouts without attributes are skipped regardless of edit state.
func (g Group) Renderable() bool {
	return len(g.Entities) > 0 && g.Layout.HasAttributes()
}

// Groups keeps groups in layout arrival order. Values are shared between views, so
// every change goes through a copy.
type Groups []Group

func (gs Groups) index(name string) int {
	for i := range gs {
		if gs[i].Layout.Name == name {
			return i
		}
	}
	return -1
}

// Find returns the group of the named layout.
func (gs Groups) Find(name string) (Group, bool) {
	i := gs.index(name)
	if i < 0 {
		return Group{}, false
	}
	return gs[i], true
}

// Names lists layout names in group order.
func (gs Groups) Names() []string {
	out := make([]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, g.Layout.Name)
	}
	return out
}

// Locate returns the group and position of the entity with the given id.
func (gs Groups) Locate(id int64) (group int, pos int, ok bool) {
	for gi := range gs {
		for ei := range gs[gi].Entities {
			if gs[gi].Entities[ei].ID == id {
				return gi, ei, true
			}
		}
	}
	return -1, -1, false
}

// withEntities returns a copy of gs where group i holds ents. Other groups share storage.
func (gs Groups) withEntities(i int, ents []model.Entity) Groups {
	out := make(Groups, len(gs))
	copy(out, gs)
	out[i].Entities = ents
	return out
}

// replace swaps the entity with e.ID inside the named group for e, wholesale.
func (gs Groups) replace(layoutName string, e model.Entity) (Groups, bool) {
	gi := gs.index(layoutName)
	if gi < 0 {
		return gs, false
	}
	for ei, cur := range gs[gi].Entities {
		if cur.ID != e.ID {
			continue
		}
		ents := make([]model.Entity, len(gs[gi].Entities))
		copy(ents, gs[gi].Entities)
		ents[ei] = e
		return gs.withEntities(gi, ents), true
	}
	return gs, false
}

func (gs Groups) remove(id int64) (Groups, bool) {
	gi, ei, ok := gs.Locate(id)
	if !ok {
		return gs, false
	}
	src := gs[gi].Entities
	ents := make([]model.Entity, 0, len(src)-1)
	ents = append(ents, src[:ei]...)
	ents = append(ents, src[ei+1:]...)
	return gs.withEntities(gi, ents), true
}

// GroupEntities partitions entities by layout name. Groups are seeded from layouts in
// arrival order (a repeated name keeps its first layout), so layouts without entities
// still get an empty group. The current node is never listed as its own child.
func GroupEntities(layouts []model.Layout, entities []model.Entity, currentID int64) (Groups, error) {
	groups := make(Groups, 0, len(layouts))
	seen := make(map[string]int, len(layouts))
	for _, l := range layouts {
		if _, ok := seen[l.Name]; ok {
			continue
		}
		seen[l.Name] = len(groups)
		groups = append(groups, Group{Layout: l, Entities: []model.Entity{}})
	}
	for _, e := range entities {
		if e.ID == currentID {
			continue
		}
		i, ok := seen[e.LayoutName]
		if !ok {
			return nil, &DataIntegrityError{EntityID: e.ID, LayoutName: e.LayoutName}
		}
		groups[i].Entities = append(groups[i].Entities, e)
	}
	return groups, nil
}
