package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type stubFetcher struct {
	mu       sync.Mutex
	payloads map[int64]*model.Payload
	fetches  int
	saved    map[string]any
	deleted  []int64
}

func (s *stubFetcher) Fetch(ctx context.Context, id int64) (*model.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	p, ok := s.payloads[id]
	if !ok {
		return nil, fmt.Errorf("node %d not found", id)
	}
	return p, nil
}

func (s *stubFetcher) Save(ctx context.Context, parentID int64, layoutName string, fields map[string]any) (*model.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = fields
	id, _ := fields["id"].(int64)
	e := model.Entity{ID: id, LayoutName: layoutName, Attrs: map[string]any{}}
	for k, v := range fields {
		if k != "id" && k != "type" {
			e.Attrs[k] = v
		}
	}
	return &model.SaveResult{Success: true, Entity: e, Layout: &model.Layout{Name: layoutName}}, nil
}

func (s *stubFetcher) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

// twelveProducts is root(0) with 12 Product children, each with one child node.
func twelveProducts() *stubFetcher {
	layout := model.Layout{Name: "Product", Attributes: []model.Attribute{{Key: "name", Name: "Name", Resolve: model.ResolveText}}}
	var ents []model.Entity
	for i := int64(1); i <= 12; i++ {
		ents = append(ents, model.Entity{ID: i, LayoutName: "Product", Attrs: map[string]any{"name": fmt.Sprintf("item %d", i)}})
	}
	s := &stubFetcher{payloads: map[int64]*model.Payload{
		0: {Success: true, Entities: ents, Layouts: []model.Layout{layout}},
	}}
	for _, e := range ents {
		s.payloads[e.ID] = &model.Payload{
			Success:  true,
			Entities: []model.Entity{e},
			Layouts:  []model.Layout{layout},
			Parents:  []model.Entity{},
		}
	}
	return s
}

type memScroll struct {
	y     int
	ok    bool
	saves []int
}

func (s *memScroll) SaveScrollOffset(y int) error {
	s.saves = append(s.saves, y)
	s.y, s.ok = y, true
	return nil
}

func (s *memScroll) RestoreScrollOffset() (int, bool) { return s.y, s.ok }

func newTestApp(t *testing.T, f catalog.Fetcher, scroll ScrollStore, w, h int) (appModel, *catalog.Controller) {
	t.Helper()

	ctrl := catalog.New(f)
	m, err := newAppModel(context.Background(), Options{Controller: ctrl, Scroll: scroll})
	if err != nil {
		t.Fatalf("newAppModel: %v", err)
	}
	t.Cleanup(m.unsubscribe)

	mAny, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	m = mAny.(appModel)
	if err := ctrl.NavigateTo(context.Background(), 0); err != nil {
		t.Fatalf("NavigateTo(0): %v", err)
	}
	return syncView(m, ctrl), ctrl
}

func syncView(m appModel, ctrl *catalog.Controller) appModel {
	mAny, _ := m.Update(viewMsg(ctrl.View()))
	return mAny.(appModel)
}

func press(m appModel, k tea.KeyMsg) (appModel, tea.Cmd) {
	mAny, cmd := m.Update(k)
	return mAny.(appModel), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// runOp executes a controller command returned by Update and applies its result.
func runOp(t *testing.T, m appModel, ctrl *catalog.Controller, cmd tea.Cmd) appModel {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	msg := cmd()
	done, ok := msg.(opDoneMsg)
	if !ok {
		t.Fatalf("expected opDoneMsg; got %T", msg)
	}
	mAny, _ := m.Update(done)
	return syncView(mAny.(appModel), ctrl)
}

func TestApp_RendersFirstPage(t *testing.T) {
	m, _ := newTestApp(t, twelveProducts(), nil, 100, 60)

	out := m.View()
	for _, want := range []string{"Product", "Showing 1 to 10 of 12 entries", "item 1", "item 10", "[1] root"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q; got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "item 11") {
		t.Fatalf("expected item 11 to be on the second page")
	}
}

func TestApp_NextPage_DoesNotRefetch(t *testing.T) {
	f := twelveProducts()
	m, ctrl := newTestApp(t, f, nil, 100, 60)
	before := f.fetches

	m, _ = press(m, runes("l"))
	if got := ctrl.View().Page("Product"); got != 1 {
		t.Fatalf("expected page 1; got %d", got)
	}
	if f.fetches != before {
		t.Fatalf("expected no refetch; fetches %d -> %d", before, f.fetches)
	}
	if out := m.View(); !strings.Contains(out, "Showing 11 to 12 of 12 entries") {
		t.Fatalf("expected second page info; got:\n%s", out)
	}

	// Past the last page is a no-op.
	m, _ = press(m, runes("l"))
	if got := ctrl.View().Page("Product"); got != 1 {
		t.Fatalf("expected page to stay 1; got %d", got)
	}
	m, _ = press(m, runes("h"))
	if got := ctrl.View().Page("Product"); got != 0 {
		t.Fatalf("expected page 0; got %d", got)
	}
}

func TestApp_EnterNavigatesIntoSelectedRow(t *testing.T) {
	m, ctrl := newTestApp(t, twelveProducts(), nil, 100, 60)

	m, _ = press(m, runes("j"))
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runOp(t, m, ctrl, cmd)

	if got := ctrl.View().NodeID; got != 2 {
		t.Fatalf("expected to navigate to 2; got %d", got)
	}
	if cs := m.crumbs(); len(cs) != 2 || cs[1] != "2" {
		t.Fatalf("unexpected crumbs: %#v", cs)
	}

	// Up one level returns to the root.
	m, cmd = press(m, runes("u"))
	m = runOp(t, m, ctrl, cmd)
	if got := ctrl.View().NodeID; got != 0 {
		t.Fatalf("expected root; got %d", got)
	}
}

func TestApp_EditAndSave_ReconcilesRow(t *testing.T) {
	f := twelveProducts()
	m, ctrl := newTestApp(t, f, nil, 100, 60)
	fetches := f.fetches

	m, _ = press(m, runes("e"))
	if m.form == nil {
		t.Fatalf("expected edit form")
	}
	if got := m.form.inputs[0].Value(); got != "item 1" {
		t.Fatalf("expected form prefilled with %q; got %q", "item 1", got)
	}

	m.form.inputs[0].SetValue("renamed")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = runOp(t, m, ctrl, cmd)

	if m.form != nil {
		t.Fatalf("expected form to close after save")
	}
	if f.saved["type"] != "Product" || f.saved["name"] != "renamed" {
		t.Fatalf("unexpected save fields: %#v", f.saved)
	}
	g, _ := ctrl.View().Groups.Find("Product")
	if g.Entities[0].Attrs["name"] != "renamed" {
		t.Fatalf("expected row 1 reconciled; got %#v", g.Entities[0])
	}
	if f.fetches != fetches {
		t.Fatalf("expected save without refetch")
	}
	if !strings.Contains(m.View(), "renamed") {
		t.Fatalf("expected renamed row in view")
	}
}

func TestApp_EditBlocksBrowsingUntilCancel(t *testing.T) {
	m, ctrl := newTestApp(t, twelveProducts(), nil, 100, 60)

	m, _ = press(m, runes("e"))
	if m.form == nil {
		t.Fatalf("expected edit form")
	}
	// Keys go to the form: "l" is typed, not a page change.
	m, _ = press(m, runes("l"))
	if got := ctrl.View().Page("Product"); got != 0 {
		t.Fatalf("expected paging suppressed while editing; got page %d", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.form != nil || ctrl.View().Edit.Active() {
		t.Fatalf("expected edit to be cancelled")
	}
}

func TestApp_DeleteAsksFirst(t *testing.T) {
	f := twelveProducts()
	m, ctrl := newTestApp(t, f, nil, 100, 60)

	m, _ = press(m, runes("d"))
	if m.confirm == nil {
		t.Fatalf("expected confirm modal")
	}
	if out := m.View(); !strings.Contains(out, "Are you sure you want to delete element 1?") {
		t.Fatalf("expected prompt in view; got:\n%s", out)
	}

	m, cmd := press(m, runes("n"))
	m = runOp(t, m, ctrl, cmd)
	if len(f.deleted) != 0 {
		t.Fatalf("expected no delete after declining; got %v", f.deleted)
	}

	m, _ = press(m, runes("d"))
	m, cmd = press(m, runes("y"))
	m = runOp(t, m, ctrl, cmd)
	if len(f.deleted) != 1 || f.deleted[0] != 1 {
		t.Fatalf("expected delete of 1; got %v", f.deleted)
	}
	g, _ := ctrl.View().Groups.Find("Product")
	if len(g.Entities) != 11 {
		t.Fatalf("expected 11 rows after delete; got %d", len(g.Entities))
	}
	if m.confirm != nil {
		t.Fatalf("expected modal closed")
	}
}

func TestApp_FetchErrorShowsBanner(t *testing.T) {
	m, ctrl := newTestApp(t, twelveProducts(), nil, 100, 60)

	// Node 99 is unknown to the stub.
	_ = ctrl.NavigateTo(context.Background(), 99)
	m = syncView(m, ctrl)
	out := m.View()
	if !strings.Contains(out, "error: fetch 99") {
		t.Fatalf("expected error banner; got:\n%s", out)
	}
	if !strings.Contains(out, "item 1") {
		t.Fatalf("expected previous content to stay visible")
	}

	m, _ = press(m, runes("x"))
	if strings.Contains(m.View(), "error:") {
		t.Fatalf("expected banner dismissed")
	}
}

func TestApp_RestoresAndSavesScrollOffset(t *testing.T) {
	scroll := &memScroll{y: 4, ok: true}
	m, _ := newTestApp(t, twelveProducts(), scroll, 100, 12)

	if m.vp.YOffset != 4 {
		t.Fatalf("expected restored offset 4; got %d", m.vp.YOffset)
	}

	m, cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if len(scroll.saves) == 0 || scroll.saves[len(scroll.saves)-1] != 4 {
		t.Fatalf("expected offset saved on quit; got %v", scroll.saves)
	}
}
