package tui

import (
	"context"
	"log/slog"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/logx"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// viewMsg carries a View published by the controller.
type viewMsg catalog.View

// opDoneMsg reports the end of a controller call made from a command.
type opDoneMsg struct {
	op  string
	err error
}

type statusClearMsg struct{ seq int }

type appModel struct {
	ctx         context.Context
	ctrl        *catalog.Controller
	views       chan catalog.View
	unsubscribe func()
	scroll      ScrollStore
	log         *slog.Logger
	start       int64

	v      catalog.View
	width  int
	height int

	keys     keyMap
	formKeys formKeyMap
	help     help.Model
	spin     spinner.Model
	vp       viewport.Model
	panels   []Panel

	// group indexes renderableGroups(v); row indexes the group's visible page.
	group int
	row   int

	form    *editForm
	confirm *confirmModal

	status    string
	statusErr bool
	statusSeq int

	scrollRestored bool
	// pendingScroll is a restored offset waiting for content; -1 when none.
	pendingScroll int
}

func newAppModel(ctx context.Context, opts Options) (appModel, error) {
	ps, err := mountPanels(opts.Panels)
	if err != nil {
		return appModel{}, err
	}
	log := opts.Log
	if log == nil {
		log = logx.Discard()
	}

	views := make(chan catalog.View, 16)
	cancel := opts.Controller.Subscribe(func(v catalog.View) {
		// Latest wins: drop the oldest queued view when the UI lags.
		for {
			select {
			case views <- v:
				return
			default:
			}
			select {
			case <-views:
			default:
			}
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := appModel{
		ctx:         ctx,
		ctrl:        opts.Controller,
		views:       views,
		unsubscribe: cancel,
		scroll:      opts.Scroll,
		log:         log,
		start:       opts.StartNode,
		v:           opts.Controller.View(),
		keys:        defaultKeyMap(),
		formKeys:    defaultFormKeyMap(),
		help:        help.New(),
		spin:        sp,
		vp:          viewport.New(80, 20),
		panels:      ps,

		pendingScroll: -1,
	}
	return m, nil
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		waitForView(m.views),
		m.spin.Tick,
		m.call("navigate", func(ctx context.Context) error { return m.ctrl.NavigateTo(ctx, m.start) }),
	)
}

func waitForView(ch <-chan catalog.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

// call runs fn off the update loop and reports its result as an opDoneMsg.
func (m appModel) call(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m appModel) saveScroll() {
	if m.scroll == nil {
		return
	}
	if err := m.scroll.SaveScrollOffset(m.vp.YOffset); err != nil {
		m.log.Warn("save scroll offset", "error", err)
	}
}

// focused returns the focused group, if any group is rendered.
func (m appModel) focused() (catalog.Group, bool) {
	gs := renderableGroups(m.v)
	if len(gs) == 0 {
		return catalog.Group{}, false
	}
	return gs[min(m.group, len(gs)-1)], true
}

// selectedID is the entity under the row cursor.
func (m appModel) selectedID() (int64, bool) {
	g, ok := m.focused()
	if !ok {
		return 0, false
	}
	rows := m.v.VisibleSlice(g.Layout.Name)
	if m.row < 0 || m.row >= len(rows) {
		return 0, false
	}
	return rows[m.row].ID, true
}

// clampCursor keeps group/row inside the current view.
func (m *appModel) clampCursor() {
	gs := renderableGroups(m.v)
	if len(gs) == 0 {
		m.group, m.row = 0, 0
		return
	}
	m.group = min(max(m.group, 0), len(gs)-1)
	n := len(m.v.VisibleSlice(gs[m.group].Layout.Name))
	m.row = min(max(m.row, 0), max(n-1, 0))
}
