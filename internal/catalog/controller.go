package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"catalog-cli/internal/model"
)

var (
	// ErrSuperseded is returned by a navigation whose response arrived after a newer
	// navigation was started. The response is discarded.
	ErrSuperseded = errors.New("navigation superseded")
	// ErrSaveInProgress is returned when Save is called while a previous save is pending.
	ErrSaveInProgress = errors.New("save in progress")
)

// Fetcher is the content collaborator: it loads subtrees and persists single entities.
type Fetcher interface {
	Fetch(ctx context.Context, id int64) (*model.Payload, error)
	Save(ctx context.Context, parentID int64, layoutName string, fields map[string]any) (*model.SaveResult, error)
	Delete(ctx context.Context, id int64) error
}

// History records navigations (the browser URL in a web client).
type History interface {
	Push(path string)
}

// Confirmer asks the user a yes/no question before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// View is the derived, immutable state a view layer renders. The controller replaces it
// wholesale on every transition.
type View struct {
	NodeID       int64
	Parent       *model.Entity
	ParentLayout *model.Layout
	// ParentHTML is the sanitized parent panel; empty when no layout matched.
	ParentHTML  string
	Groups      Groups
	Breadcrumbs []model.Breadcrumb
	Pages       Pages
	Edit        EditSession

	Loaded  bool
	Loading bool
	Saving  bool

	// Err is the last surfaced failure (load banner). The previous content stays valid.
	Err error
	// Warning is set for non-fatal conditions such as a ReconciliationMiss.
	Warning error

	// seq orders published views; subscribers never see a lower seq after a higher one.
	seq uint64
}

func (v View) Page(layoutName string) int { return v.Pages.Get(layoutName) }

func (v View) VisibleSlice(layoutName string) []model.Entity {
	g, ok := v.Groups.Find(layoutName)
	if !ok {
		return nil
	}
	return VisibleSlice(g.Entities, v.Page(layoutName))
}

func (v View) PageCount(layoutName string) int {
	g, ok := v.Groups.Find(layoutName)
	if !ok {
		return 0
	}
	return PageCount(len(g.Entities))
}

func (v View) PageInfo(layoutName string) string {
	g, ok := v.Groups.Find(layoutName)
	if !ok {
		return ""
	}
	return PageInfoText(len(g.Entities), v.Page(layoutName))
}

// Controller owns the current View and exposes the handlers a view layer binds to.
// Network calls run outside the lock; a navigation token discards stale responses.
type Controller struct {
	fetcher Fetcher
	history History
	log     *slog.Logger

	mu     sync.Mutex
	view   View
	token  uint64
	seq    uint64
	subs   map[int]func(View)
	nextID int

	// notifyMu serializes delivery so subscribers observe views in commit order.
	notifyMu  sync.Mutex
	delivered uint64
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithHistory(h History) Option {
	return func(c *Controller) { c.history = h }
}

func New(f Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: f,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:    map[int]func(View){},
		view:    View{Pages: Pages{}},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Subscribe registers fn for every new View. fn runs on the goroutine that caused the
// transition and must not call back into the controller synchronously. A view superseded
// before its delivery started is skipped, so the last value fn sees is the current one.
func (c *Controller) Subscribe(fn func(View)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// commitLocked stamps and stores v and returns the subscribers to notify once the lock
// is released.
func (c *Controller) commitLocked(v *View) []func(View) {
	c.seq++
	v.seq = c.seq
	c.view = *v
	out := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func (c *Controller) notify(subs []func(View), v View) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if v.seq <= c.delivered {
		return
	}
	c.delivered = v.seq
	for _, fn := range subs {
		fn(v)
	}
}

func (c *Controller) update(fn func(v View) (View, bool)) (View, bool) {
	c.mu.Lock()
	v, changed := fn(c.view)
	if !changed {
		c.mu.Unlock()
		return v, false
	}
	subs := c.commitLocked(&v)
	c.mu.Unlock()
	c.notify(subs, v)
	return v, true
}

// NavigateTo loads the subtree of id and makes it the current node. Only the response
// of the most recent navigation is applied.
func (c *Controller) NavigateTo(ctx context.Context, id int64) error {
	c.mu.Lock()
	c.token++
	tok := c.token
	v := c.view
	v.Loading = true
	subs := c.commitLocked(&v)
	c.mu.Unlock()
	c.notify(subs, v)

	c.log.Debug("fetch", "node", id, "token", tok)
	p, err := c.fetcher.Fetch(ctx, id)

	c.mu.Lock()
	if tok != c.token {
		c.mu.Unlock()
		c.log.Debug("discarding stale response", "node", id, "token", tok)
		return ErrSuperseded
	}
	v = c.view
	v.Loading = false
	if err == nil && p == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		nerr := &NetworkError{Op: "fetch", NodeID: id, Err: err}
		v.Err = nerr
		subs = c.commitLocked(&v)
		c.mu.Unlock()
		c.log.Error("fetch failed", "node", id, "error", err)
		c.notify(subs, v)
		return nerr
	}

	groups, err := GroupEntities(p.Layouts, p.Entities, id)
	if err != nil {
		v.Err = err
		subs = c.commitLocked(&v)
		c.mu.Unlock()
		c.log.Error("malformed payload", "node", id, "error", err)
		c.notify(subs, v)
		return err
	}

	sameNode := c.view.Loaded && c.view.NodeID == id
	nv := View{
		NodeID:      id,
		Groups:      groups,
		Pages:       carryPages(c.view.Pages, groups, sameNode),
		Breadcrumbs: c.view.Breadcrumbs,
		Loaded:      true,
	}
	switch {
	case id == model.RootID:
		nv.Breadcrumbs = []model.Breadcrumb{}
	case p.Parents != nil:
		nv.Breadcrumbs = DeriveTrail(p.Parents)
	}
	nv.Parent, nv.ParentLayout = resolveParent(id, p.Entities, p.Layouts)
	nv.ParentHTML = RenderParentHTML(nv.Parent, nv.ParentLayout)
	if c.view.Saving {
		// The session stays pinned until the pending persist completes.
		nv.Saving = true
		nv.Edit = c.view.Edit
	} else if target, ok := c.view.Edit.Target(); ok {
		if _, _, found := groups.Locate(target); found && sameNode {
			nv.Edit = c.view.Edit
		} else {
			c.log.Warn("edit target left the view, closing edit", "entity", target)
		}
	}
	subs = c.commitLocked(&nv)
	c.mu.Unlock()

	c.log.Info("navigated", "node", id, "groups", len(groups), "entities", len(p.Entities))
	if c.history != nil {
		c.history.Push(fmt.Sprintf("/apicatalog/%d", id))
	}
	c.notify(subs, nv)
	return nil
}

func (c *Controller) editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Edit.Active()
}

// RowClicked navigates into a child row unless an edit is in progress.
func (c *Controller) RowClicked(ctx context.Context, id int64) error {
	if c.editing() {
		c.log.Debug("row click suppressed while editing", "entity", id)
		return ErrEditInProgress
	}
	return c.NavigateTo(ctx, id)
}

func (c *Controller) BreadcrumbClicked(ctx context.Context, id int64) error {
	return c.RowClicked(ctx, id)
}

func (c *Controller) RootClicked(ctx context.Context) error {
	return c.RowClicked(ctx, model.RootID)
}

// Refresh refetches the current node, keeping page cursors.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.editing() {
		return ErrEditInProgress
	}
	return c.NavigateTo(ctx, c.View().NodeID)
}

// SetPage moves the cursor of one group. It reports whether anything changed; nothing
// is refetched.
func (c *Controller) SetPage(layoutName string, index int) bool {
	_, changed := c.update(func(v View) (View, bool) {
		if v.Edit.Active() || index < 0 {
			return v, false
		}
		if _, ok := v.Groups.Find(layoutName); !ok {
			return v, false
		}
		if v.Pages.Get(layoutName) == index {
			return v, false
		}
		v.Pages = v.Pages.with(layoutName, index)
		return v, true
	})
	return changed
}

// BeginEdit switches the row id to write mode. A second edit is rejected while one is
// active.
func (c *Controller) BeginEdit(id int64) error {
	var err error
	c.update(func(v View) (View, bool) {
		if _, _, ok := v.Groups.Locate(id); !ok {
			err = ErrUnknownEntity
			return v, false
		}
		v.Edit, err = v.Edit.begin(id)
		if err != nil {
			return v, false
		}
		v.Warning = nil
		return v, true
	})
	return err
}

// CancelEdit discards the active edit, if any.
func (c *Controller) CancelEdit() bool {
	_, changed := c.update(func(v View) (View, bool) {
		if !v.Edit.Active() || v.Saving {
			return v, false
		}
		v.Edit = EditSession{}
		return v, true
	})
	return changed
}

// DismissError clears the surfaced error and warning.
func (c *Controller) DismissError() {
	c.update(func(v View) (View, bool) {
		if v.Err == nil && v.Warning == nil {
			return v, false
		}
		v.Err, v.Warning = nil, nil
		return v, true
	})
}

// Save persists the edited row with fields collected by the view layer and reconciles
// the returned entity into its group in place. The session ends either way; on failure
// the edits are discarded and the error is surfaced.
func (c *Controller) Save(ctx context.Context, fields map[string]any) (model.Entity, error) {
	c.mu.Lock()
	v := c.view
	target, ok := v.Edit.Target()
	if !ok {
		c.mu.Unlock()
		return model.Entity{}, ErrNoEdit
	}
	if v.Saving {
		c.mu.Unlock()
		return model.Entity{}, ErrSaveInProgress
	}
	gi, _, found := v.Groups.Locate(target)
	if !found {
		v.Edit = EditSession{}
		subs := c.commitLocked(&v)
		c.mu.Unlock()
		c.notify(subs, v)
		return model.Entity{}, ErrUnknownEntity
	}
	layoutName := v.Groups[gi].Layout.Name
	nodeID := v.NodeID
	v.Saving = true
	subs := c.commitLocked(&v)
	c.mu.Unlock()
	c.notify(subs, v)

	body := make(map[string]any, len(fields)+2)
	for k, val := range fields {
		body[k] = val
	}
	body["id"] = target
	body["type"] = layoutName

	res, err := c.fetcher.Save(ctx, nodeID, layoutName, body)
	if err == nil && res == nil {
		err = errors.New("empty response")
	}

	c.mu.Lock()
	v = c.view
	v.Saving = false
	v.Edit = EditSession{}
	if err != nil {
		nerr := &NetworkError{Op: "save", NodeID: target, Err: err}
		v.Err = nerr
		subs = c.commitLocked(&v)
		c.mu.Unlock()
		c.log.Error("save failed, edits discarded", "entity", target, "error", err)
		c.notify(subs, v)
		return model.Entity{}, nerr
	}

	group := layoutName
	if res.Layout != nil && res.Layout.Name != "" {
		group = res.Layout.Name
	}
	var miss *ReconciliationMiss
	if v.NodeID != nodeID {
		miss = &ReconciliationMiss{EntityID: res.Entity.ID, LayoutName: group}
	} else if groups, ok := v.Groups.replace(group, res.Entity); ok {
		v.Groups = groups
		v.Err, v.Warning = nil, nil
	} else {
		miss = &ReconciliationMiss{EntityID: res.Entity.ID, LayoutName: group}
	}
	if miss != nil {
		v.Warning = miss
	}
	subs = c.commitLocked(&v)
	c.mu.Unlock()

	if miss != nil {
		c.log.Warn("saved entity not reconciled", "entity", miss.EntityID, "layout", miss.LayoutName)
	} else {
		c.log.Info("saved", "entity", res.Entity.ID, "layout", group)
	}
	c.notify(subs, v)
	return res.Entity, nil
}

// DeletePrompt is the question put to the Confirmer before deleting id.
func DeletePrompt(id int64) string {
	return fmt.Sprintf("Are you sure you want to delete element %d?", id)
}

// Answered is a Confirmer for a question the view layer already asked.
func Answered(yes bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return yes, nil })
}

// DeleteRequested asks for confirmation, deletes the entity through the Fetcher and drops
// it from its group. Declining returns ErrConfirmationDeclined and changes nothing.
func (c *Controller) DeleteRequested(ctx context.Context, id int64, confirm Confirmer) error {
	c.mu.Lock()
	v := c.view
	if v.Edit.Active() {
		c.mu.Unlock()
		return ErrEditInProgress
	}
	if _, _, ok := v.Groups.Locate(id); !ok {
		c.mu.Unlock()
		return ErrUnknownEntity
	}
	nodeID := v.NodeID
	c.mu.Unlock()

	if confirm == nil {
		return ErrConfirmationDeclined
	}
	yes, err := confirm.Confirm(ctx, DeletePrompt(id))
	if err != nil {
		return err
	}
	if !yes {
		c.log.Debug("delete declined", "entity", id)
		return ErrConfirmationDeclined
	}

	if err := c.fetcher.Delete(ctx, id); err != nil {
		nerr := &NetworkError{Op: "delete", NodeID: id, Err: err}
		c.update(func(v View) (View, bool) {
			v.Err = nerr
			return v, true
		})
		c.log.Error("delete failed", "entity", id, "error", err)
		return nerr
	}

	c.update(func(v View) (View, bool) {
		if v.NodeID != nodeID {
			return v, false
		}
		groups, ok := v.Groups.remove(id)
		if !ok {
			return v, false
		}
		v.Groups = groups
		return v, true
	})
	c.log.Info("deleted", "entity", id)
	return nil
}
