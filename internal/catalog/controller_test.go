package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalog-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type saveCall struct {
	parentID   int64
	layoutName string
	fields     map[string]any
}

type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[int64]*model.Payload
	fetchErr error
	// gates block Fetch(id) until the channel is closed.
	gates map[int64]chan struct{}

	saveRes *model.SaveResult
	saveErr error
	// saveGate blocks Save until the channel is closed.
	saveGate chan struct{}

	deleteErr error

	fetches []int64
	saves   []saveCall
	deletes []int64
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{payloads: map[int64]*model.Payload{}, gates: map[int64]chan struct{}{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, id int64) (*model.Payload, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, id)
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p, ok := f.payloads[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (f *fakeFetcher) Save(ctx context.Context, parentID int64, layoutName string, fields map[string]any) (*model.SaveResult, error) {
	f.mu.Lock()
	f.saves = append(f.saves, saveCall{parentID: parentID, layoutName: layoutName, fields: fields})
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.saveRes, nil
}

func (f *fakeFetcher) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeFetcher) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

type recordingHistory struct{ paths []string }

func (h *recordingHistory) Push(path string) { h.paths = append(h.paths, path) }

// catalogFixture: root(0) > Category 1 "Clothes" > Category 2 "Shoes" with products.
func catalogFixture() *fakeFetcher {
	f := newFakeFetcher()
	cat := layout("Category", "name")
	cat.BreadCrumbElementName = "name"
	cat.HTML = "<h1>{{name}}</h1>"
	prod := layout("Product", "name", "price")

	f.payloads[0] = &model.Payload{
		Success:  true,
		Entities: []model.Entity{entity(1, "Category", "name", "Clothes")},
		Layouts:  []model.Layout{cat},
	}
	f.payloads[1] = &model.Payload{
		Success:  true,
		Entities: []model.Entity{entity(1, "Category", "name", "Clothes"), entity(2, "Category", "name", "Shoes")},
		Layouts:  []model.Layout{cat},
		Parents:  []model.Entity{},
	}
	shoes := []model.Entity{entity(2, "Category", "name", "Shoes")}
	for i := int64(10); i < 22; i++ {
		shoes = append(shoes, entity(i, "Product", "name", "P", "price", float64(i)))
	}
	f.payloads[2] = &model.Payload{
		Success:  true,
		Entities: shoes,
		Layouts:  []model.Layout{cat, prod},
		Parents:  []model.Entity{entity(1, "Category", "stringValue", "Clothes")},
	}
	return f
}

func TestNavigateTo_BuildsView(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	h := &recordingHistory{}
	c := New(f, WithHistory(h))
	ctx := context.Background()

	require.NoError(t, c.NavigateTo(ctx, 2))
	v := c.View()
	assert.True(t, v.Loaded)
	assert.False(t, v.Loading)
	assert.Equal(t, int64(2), v.NodeID)
	assert.Equal(t, []string{"Category", "Product"}, v.Groups.Names())
	assert.Len(t, v.VisibleSlice("Product"), 10)
	assert.Equal(t, 2, v.PageCount("Product"))
	assert.Equal(t, "Showing 1 to 10 of 12 entries", v.PageInfo("Product"))
	assert.Equal(t, []model.Breadcrumb{{ID: 1, StringValue: "Clothes"}}, v.Breadcrumbs)
	require.NotNil(t, v.Parent)
	assert.Equal(t, int64(2), v.Parent.ID)
	assert.Equal(t, "<h1>Shoes</h1>", v.ParentHTML)
	assert.Equal(t, "Shoes", NodeLabel(v))
	assert.Equal(t, []string{"/apicatalog/2"}, h.paths)

	cat, _ := v.Groups.Find("Category")
	assert.Empty(t, cat.Entities, "current node must not list itself")
}

func TestNavigateTo_KeepsTrailWhenParentsOmitted(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))

	f.payloads[5] = &model.Payload{Success: true, Layouts: []model.Layout{layout("Product", "name")}}
	require.NoError(t, c.NavigateTo(ctx, 5))
	assert.Equal(t, []model.Breadcrumb{{ID: 1, StringValue: "Clothes"}}, c.View().Breadcrumbs)

	require.NoError(t, c.NavigateTo(ctx, 1))
	assert.Empty(t, c.View().Breadcrumbs, "an empty parents list replaces the trail")

	require.NoError(t, c.NavigateTo(ctx, 2))
	require.NoError(t, c.NavigateTo(ctx, 0))
	v := c.View()
	assert.Empty(t, v.Breadcrumbs)
	assert.Equal(t, "root", NodeLabel(v))
	assert.Nil(t, v.Parent)
	assert.Empty(t, v.ParentHTML)
}

func TestNavigateTo_FetchErrorKeepsPreviousView(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))

	f.fetchErr = errors.New("connection refused")
	err := c.NavigateTo(ctx, 1)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "fetch", ne.Op)

	v := c.View()
	assert.Equal(t, int64(2), v.NodeID)
	assert.False(t, v.Loading)
	assert.ErrorAs(t, v.Err, &ne)
	assert.Len(t, v.VisibleSlice("Product"), 10)

	c.DismissError()
	assert.NoError(t, c.View().Err)
}

func TestNavigateTo_MalformedPayloadSurfacesLoadError(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	f.payloads[9] = &model.Payload{
		Success:  true,
		Entities: []model.Entity{entity(10, "Ghost")},
		Layouts:  []model.Layout{layout("Product", "name")},
	}
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))

	err := c.NavigateTo(ctx, 9)
	var die *DataIntegrityError
	require.ErrorAs(t, err, &die)
	v := c.View()
	assert.Equal(t, int64(2), v.NodeID)
	assert.ErrorAs(t, v.Err, &die)
}

func TestNavigateTo_StaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	gate := make(chan struct{})
	f.gates[1] = gate
	c := New(f)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- c.NavigateTo(ctx, 1) }()
	require.Eventually(t, func() bool { return f.fetchCount() == 1 }, timeout, tick)

	require.NoError(t, c.NavigateTo(ctx, 2))
	close(gate)
	require.ErrorIs(t, <-slow, ErrSuperseded)

	v := c.View()
	assert.Equal(t, int64(2), v.NodeID)
	assert.False(t, v.Loading)
}

func TestSetPage(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))
	fetches := f.fetchCount()

	assert.False(t, c.SetPage("Product", 0), "same page is a no-op")
	assert.False(t, c.SetPage("Nope", 1))
	assert.False(t, c.SetPage("Product", -1))

	assert.True(t, c.SetPage("Product", 1))
	v := c.View()
	assert.Equal(t, "Showing 11 to 12 of 12 entries", v.PageInfo("Product"))
	assert.Equal(t, []int64{20, 21}, ids(v.VisibleSlice("Product")))
	assert.Equal(t, 0, v.Page("Category"))
	assert.Equal(t, fetches, f.fetchCount(), "paging must not refetch")
}

func TestPages_SurviveRefreshButResetOnNavigation(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))
	require.True(t, c.SetPage("Product", 1))

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, 1, c.View().Page("Product"))

	require.NoError(t, c.NavigateTo(ctx, 1))
	require.NoError(t, c.NavigateTo(ctx, 2))
	assert.Equal(t, 0, c.View().Page("Product"))
}

func TestEditSession_Exclusive(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))

	require.ErrorIs(t, c.BeginEdit(999), ErrUnknownEntity)
	require.NoError(t, c.BeginEdit(10))
	require.ErrorIs(t, c.BeginEdit(11), ErrEditInProgress)

	v := c.View()
	assert.True(t, v.Edit.IsEditing(10))
	assert.False(t, v.Edit.IsEditing(11))

	fetches := f.fetchCount()
	assert.ErrorIs(t, c.RowClicked(ctx, 11), ErrEditInProgress)
	assert.ErrorIs(t, c.BreadcrumbClicked(ctx, 1), ErrEditInProgress)
	assert.ErrorIs(t, c.RootClicked(ctx), ErrEditInProgress)
	assert.ErrorIs(t, c.Refresh(ctx), ErrEditInProgress)
	assert.False(t, c.SetPage("Product", 1))
	assert.ErrorIs(t, c.DeleteRequested(ctx, 11, Answered(true)), ErrEditInProgress)
	assert.Equal(t, fetches, f.fetchCount())

	assert.True(t, c.CancelEdit())
	assert.False(t, c.View().Edit.Active())
	assert.False(t, c.CancelEdit())
	require.NoError(t, c.RowClicked(ctx, 1))
}

func TestSave_ReconcilesInPlace(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher()
	f.payloads[4] = &model.Payload{
		Success:  true,
		Entities: []model.Entity{entity(4, "X", "name", "Z"), entity(6, "X", "name", "C"), entity(5, "X", "name", "A"), entity(7, "X", "name", "D")},
		Layouts:  []model.Layout{layout("X", "name")},
	}
	f.saveRes = &model.SaveResult{Success: true, Entity: entity(5, "X", "name", "B"), Layout: &model.Layout{Name: "X"}}
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 4))
	fetches := f.fetchCount()

	require.NoError(t, c.BeginEdit(5))
	got, err := c.Save(ctx, map[string]any{"name": "B"})
	require.NoError(t, err)
	assert.Equal(t, "B", got.Attrs["name"])

	require.Len(t, f.saves, 1)
	call := f.saves[0]
	assert.Equal(t, int64(4), call.parentID)
	assert.Equal(t, "X", call.layoutName)
	assert.Equal(t, "X", call.fields["type"])
	assert.Equal(t, int64(5), call.fields["id"])
	assert.Equal(t, "B", call.fields["name"])

	v := c.View()
	g, _ := v.Groups.Find("X")
	assert.Equal(t, []int64{6, 5, 7}, ids(g.Entities))
	assert.Equal(t, "C", g.Entities[0].Attrs["name"])
	assert.Equal(t, "B", g.Entities[1].Attrs["name"])
	assert.Equal(t, "D", g.Entities[2].Attrs["name"])
	assert.False(t, v.Edit.Active())
	assert.False(t, v.Saving)
	assert.NoError(t, v.Warning)
	assert.Equal(t, fetches, f.fetchCount(), "save must not refetch")
}

func TestSave_MissIsWarning(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	f.saveRes = &model.SaveResult{Success: true, Entity: entity(99, "Product", "name", "new"), Layout: &model.Layout{Name: "Product"}}
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))
	before := c.View().Groups

	require.NoError(t, c.BeginEdit(10))
	_, err := c.Save(ctx, map[string]any{"name": "x"})
	require.NoError(t, err)

	v := c.View()
	var miss *ReconciliationMiss
	require.ErrorAs(t, v.Warning, &miss)
	assert.Equal(t, int64(99), miss.EntityID)
	assert.Equal(t, "Product", miss.LayoutName)
	assert.NoError(t, v.Err)
	assert.Equal(t, before, v.Groups)
	assert.False(t, v.Edit.Active())
}

func TestSave_FailureRevertsToIdle(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	f.saveErr = errors.New("503")
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))
	before := c.View().Groups

	require.NoError(t, c.BeginEdit(10))
	_, err := c.Save(ctx, map[string]any{"name": "x"})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "save", ne.Op)

	v := c.View()
	assert.False(t, v.Edit.Active())
	assert.ErrorAs(t, v.Err, &ne)
	assert.Equal(t, before, v.Groups)
}

func TestSave_RefetchWhilePendingKeepsSession(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	f.saveRes = &model.SaveResult{Success: true, Entity: entity(10, "Product", "name", "saved"), Layout: &model.Layout{Name: "Product"}}
	gate := make(chan struct{})
	f.saveGate = gate
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))
	require.NoError(t, c.BeginEdit(10))

	done := make(chan error, 1)
	go func() {
		_, err := c.Save(ctx, map[string]any{"name": "saved"})
		done <- err
	}()
	require.Eventually(t, func() bool { return f.saveCount() == 1 && c.View().Saving }, timeout, tick)

	require.NoError(t, c.NavigateTo(ctx, 2))
	v := c.View()
	assert.True(t, v.Saving)
	assert.True(t, v.Edit.IsEditing(10))
	assert.False(t, c.CancelEdit(), "cancel must wait for the pending persist")
	_, err := c.Save(ctx, map[string]any{"name": "again"})
	assert.ErrorIs(t, err, ErrSaveInProgress)
	assert.Equal(t, 1, f.saveCount())

	close(gate)
	require.NoError(t, <-done)
	v = c.View()
	assert.False(t, v.Saving)
	assert.False(t, v.Edit.Active())
	g, _ := v.Groups.Find("Product")
	assert.Equal(t, "saved", g.Entities[0].Attrs["name"])
}

func TestSave_WithoutEdit(t *testing.T) {
	t.Parallel()

	c := New(catalogFixture())
	_, err := c.Save(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoEdit)
}

func TestDeleteRequested(t *testing.T) {
	t.Parallel()

	f := catalogFixture()
	c := New(f)
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))

	var prompt string
	declined := ConfirmFunc(func(ctx context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	})
	require.ErrorIs(t, c.DeleteRequested(ctx, 10, declined), ErrConfirmationDeclined)
	assert.Equal(t, "Are you sure you want to delete element 10?", prompt)
	assert.Empty(t, f.deletes)
	assert.NoError(t, c.View().Err)

	require.ErrorIs(t, c.DeleteRequested(ctx, 404, Answered(true)), ErrUnknownEntity)

	require.NoError(t, c.DeleteRequested(ctx, 10, Answered(true)))
	assert.Equal(t, []int64{10}, f.deletes)
	g, _ := c.View().Groups.Find("Product")
	assert.Len(t, g.Entities, 11)
	assert.Equal(t, int64(11), g.Entities[0].ID)

	f.deleteErr = errors.New("locked")
	var ne *NetworkError
	require.ErrorAs(t, c.DeleteRequested(ctx, 11, Answered(true)), &ne)
	g, _ = c.View().Groups.Find("Product")
	assert.Len(t, g.Entities, 11)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	c := New(catalogFixture())
	var mu sync.Mutex
	var seen []View
	cancel := c.Subscribe(func(v View) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	require.NoError(t, c.NavigateTo(context.Background(), 2))
	mu.Lock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.True(t, seen[1].Loaded)
	mu.Unlock()

	cancel()
	c.SetPage("Product", 1)
	mu.Lock()
	assert.Len(t, seen, 2)
	mu.Unlock()
}

func TestSubscribe_DeliversLatestLast(t *testing.T) {
	t.Parallel()

	c := New(catalogFixture())
	ctx := context.Background()
	require.NoError(t, c.NavigateTo(ctx, 2))

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var pages []int
	first := true
	c.Subscribe(func(v View) {
		mu.Lock()
		block := first
		first = false
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
		mu.Lock()
		pages = append(pages, v.Page("Product"))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.SetPage("Product", 1)
	}()
	<-entered
	go func() {
		defer wg.Done()
		c.SetPage("Product", 2)
	}()
	require.Eventually(t, func() bool { return c.View().Page("Product") == 2 }, timeout, tick)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, pages)
	assert.Equal(t, 2, pages[len(pages)-1], "subscriber must end on the current page")
	assert.Equal(t, 2, c.View().Page("Product"))
}
