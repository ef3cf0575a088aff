package catalog

import (
	"testing"

	"catalog-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layout(name string, keys ...string) model.Layout {
	l := model.Layout{Name: name}
	for _, k := range keys {
		l.Attributes = append(l.Attributes, model.Attribute{Key: k, Name: k, Resolve: model.ResolveText})
	}
	return l
}

func entity(id int64, layoutName string, attrs ...any) model.Entity {
	e := model.Entity{ID: id, LayoutName: layoutName, Attrs: map[string]any{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs[attrs[i].(string)] = attrs[i+1]
	}
	return e
}

func ids(ents []model.Entity) []int64 {
	out := make([]int64, 0, len(ents))
	for _, e := range ents {
		out = append(out, e.ID)
	}
	return out
}

func TestGroupEntities_SeedsGroupsInLayoutOrder(t *testing.T) {
	t.Parallel()

	layouts := []model.Layout{layout("Product", "name"), layout("Category", "title"), layout("Empty", "x")}
	ents := []model.Entity{entity(3, "Category"), entity(1, "Product"), entity(2, "Product")}

	groups, err := GroupEntities(layouts, ents, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Category", "Empty"}, groups.Names())

	g, ok := groups.Find("Product")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, ids(g.Entities))

	g, ok = groups.Find("Empty")
	require.True(t, ok)
	assert.NotNil(t, g.Entities)
	assert.Empty(t, g.Entities)
	assert.False(t, g.Renderable())
}

func TestGroupEntities_DuplicateLayoutNamesCollapse(t *testing.T) {
	t.Parallel()

	first := layout("Product", "name")
	second := layout("Product", "price", "sku")
	groups, err := GroupEntities([]model.Layout{first, second}, []model.Entity{entity(1, "Product")}, 0)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, first, groups[0].Layout)
	assert.Equal(t, []int64{1}, ids(groups[0].Entities))
}

func TestGroupEntities_ExcludesCurrentNode(t *testing.T) {
	t.Parallel()

	layouts := []model.Layout{layout("Category", "name"), layout("Product", "name")}
	ents := []model.Entity{entity(4, "Category"), entity(5, "Product"), entity(6, "Product")}

	groups, err := GroupEntities(layouts, ents, 4)
	require.NoError(t, err)
	_, _, found := groups.Locate(4)
	assert.False(t, found)
	g, _ := groups.Find("Category")
	assert.Empty(t, g.Entities)
}

func TestGroupEntities_IsDeterministic(t *testing.T) {
	t.Parallel()

	layouts := []model.Layout{layout("A", "k"), layout("B", "k")}
	ents := []model.Entity{entity(5, "B"), entity(1, "A"), entity(9, "B"), entity(2, "A")}

	first, err := GroupEntities(layouts, ents, 0)
	require.NoError(t, err)
	second, err := GroupEntities(layouts, ents, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	b, _ := first.Find("B")
	assert.Equal(t, []int64{5, 9}, ids(b.Entities))
}

func TestGroupEntities_UnknownLayoutIsDataIntegrityError(t *testing.T) {
	t.Parallel()

	_, err := GroupEntities([]model.Layout{layout("A", "k")}, []model.Entity{entity(1, "A"), entity(2, "Ghost")}, 0)
	var die *DataIntegrityError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, int64(2), die.EntityID)
	assert.Equal(t, "Ghost", die.LayoutName)
}

func TestGroups_ReplaceAndRemoveCopy(t *testing.T) {
	t.Parallel()

	groups, err := GroupEntities([]model.Layout{layout("X", "name")},
		[]model.Entity{entity(4, "X", "name", "D"), entity(5, "X", "name", "A"), entity(6, "X", "name", "C")}, 0)
	require.NoError(t, err)

	replaced, ok := groups.replace("X", entity(5, "X", "name", "B"))
	require.True(t, ok)
	assert.Equal(t, "B", replaced[0].Entities[1].Attrs["name"])
	assert.Equal(t, "A", groups[0].Entities[1].Attrs["name"], "original groups must not change")

	_, ok = groups.replace("X", entity(77, "X"))
	assert.False(t, ok)
	_, ok = groups.replace("Nope", entity(5, "X"))
	assert.False(t, ok)

	removed, ok := groups.remove(4)
	require.True(t, ok)
	assert.Equal(t, []int64{5, 6}, ids(removed[0].Entities))
	assert.Equal(t, []int64{4, 5, 6}, ids(groups[0].Entities))
}
