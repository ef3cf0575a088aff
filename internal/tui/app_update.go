package tui

import (
	"context"
	"errors"
	"time"

	"catalog-cli/internal/catalog"
	"catalog-cli/internal/model"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const statusTTL = 4 * time.Second

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layoutViewport()
		return m, nil

	case viewMsg:
		m.applyView(catalog.View(msg))
		return m, waitForView(m.views)

	case opDoneMsg:
		return m.handleOpDone(msg)

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status, m.statusErr = "", false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case m.confirm != nil:
			return m.updateConfirm(msg)
		case m.form != nil:
			return m.updateForm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

// applyView installs a new controller View and keeps cursor, form and scroll in sync.
func (m *appModel) applyView(v catalog.View) {
	prev := m.v
	m.v = v
	if prev.NodeID != v.NodeID || !prev.Loaded {
		m.group, m.row = 0, 0
	}
	m.clampCursor()

	switch target, editing := v.Edit.Target(); {
	case editing && (m.form == nil || m.form.entity.ID != target):
		if gi, pos, ok := v.Groups.Locate(target); ok {
			f := newEditForm(v.Groups[gi].Entities[pos], v.Groups[gi].Layout)
			m.form = &f
		}
	case !editing:
		m.form = nil
	}

	if v.Loaded && !m.scrollRestored {
		m.scrollRestored = true
		if m.scroll != nil {
			if y, ok := m.scroll.RestoreScrollOffset(); ok {
				m.pendingScroll = y
			}
		}
	} else if prev.Loaded && prev.NodeID != v.NodeID {
		m.vp.GotoTop()
	}
	m.layoutViewport()
}

func (m appModel) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	err := msg.err
	switch {
	case err == nil:
		switch msg.op {
		case "save":
			return m.flash("saved", false)
		case "delete":
			return m.flash("deleted", false)
		}
		return m, nil
	case errors.Is(err, catalog.ErrSuperseded), errors.Is(err, catalog.ErrConfirmationDeclined):
		return m, nil
	case errors.Is(err, catalog.ErrEditInProgress):
		return m.flash("finish or cancel the edit first (esc)", true)
	}
	// Fetch/save/delete failures are already in View.Err and shown in the banner.
	m.log.Debug("operation failed", "op", msg.op, "error", err)
	var nerr *catalog.NetworkError
	var derr *catalog.DataIntegrityError
	if errors.As(err, &nerr) || errors.As(err, &derr) {
		return m, nil
	}
	return m.flash(err.Error(), true)
}

func (m appModel) flash(s string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusSeq++
	seq := m.statusSeq
	m.status, m.statusErr = s, isErr
	return m, tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (m appModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.saveScroll()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layoutViewport()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clampCursor()
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampCursor()
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.NextGroup), key.Matches(msg, m.keys.PrevGroup):
		n := len(renderableGroups(m.v))
		if n == 0 {
			return m, nil
		}
		step := 1
		if key.Matches(msg, m.keys.PrevGroup) {
			step = n - 1
		}
		m.group = (m.group + step) % n
		m.row = 0
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.keys.NextPage), key.Matches(msg, m.keys.PrevPage):
		g, ok := m.focused()
		if !ok {
			return m, nil
		}
		page := m.v.Page(g.Layout.Name)
		if key.Matches(msg, m.keys.NextPage) {
			if page+1 >= m.v.PageCount(g.Layout.Name) {
				return m, nil
			}
			page++
		} else {
			if page == 0 {
				return m, nil
			}
			page--
		}
		if m.ctrl.SetPage(g.Layout.Name, page) {
			m.v = m.ctrl.View()
			m.row = 0
			m.refreshContent()
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		m.saveScroll()
		return m, m.call("navigate", func(ctx context.Context) error { return m.ctrl.RowClicked(ctx, id) })

	case key.Matches(msg, m.keys.Parent):
		if m.v.NodeID == model.RootID {
			return m, nil
		}
		target := model.RootID
		if n := len(m.v.Breadcrumbs); n > 0 {
			target = m.v.Breadcrumbs[n-1].ID
		}
		return m, m.call("navigate", func(ctx context.Context) error { return m.ctrl.BreadcrumbClicked(ctx, target) })

	case key.Matches(msg, m.keys.Root):
		return m, m.call("navigate", func(ctx context.Context) error { return m.ctrl.RootClicked(ctx) })

	case key.Matches(msg, m.keys.Crumb):
		n := int(msg.Runes[0] - '0')
		if n == 1 {
			return m, m.call("navigate", func(ctx context.Context) error { return m.ctrl.RootClicked(ctx) })
		}
		if n-2 >= len(m.v.Breadcrumbs) {
			return m, nil
		}
		id := m.v.Breadcrumbs[n-2].ID
		return m, m.call("navigate", func(ctx context.Context) error { return m.ctrl.BreadcrumbClicked(ctx, id) })

	case key.Matches(msg, m.keys.Refresh):
		return m, m.call("navigate", func(ctx context.Context) error { return m.ctrl.Refresh(ctx) })

	case key.Matches(msg, m.keys.Edit):
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		if err := m.ctrl.BeginEdit(id); err != nil {
			return m.handleOpDone(opDoneMsg{op: "edit", err: err})
		}
		m.applyView(m.ctrl.View())
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		m.confirm = &confirmModal{prompt: catalog.DeletePrompt(id), entityID: id, focus: confirmFocusCancel}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.ctrl.DismissError()
		m.v = m.ctrl.View()
		m.layoutViewport()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.vp.SetYOffset(m.vp.YOffset - max(m.vp.Height/2, 1))
		return m, nil

	case key.Matches(msg, m.keys.ScrollDn):
		m.vp.SetYOffset(m.vp.YOffset + max(m.vp.Height/2, 1))
		return m, nil
	}
	return m, nil
}

func (m appModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := *m.form
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		if m.v.Saving {
			return m, nil
		}
		m.ctrl.CancelEdit()
		m.form = nil
		m.applyView(m.ctrl.View())
		return m, nil

	case key.Matches(msg, m.formKeys.Save):
		if m.v.Saving {
			return m, nil
		}
		fields, err := f.values()
		if err != nil {
			f.err = err.Error()
			m.form = &f
			m.refreshContent()
			return m, nil
		}
		return m, m.call("save", func(ctx context.Context) error {
			_, err := m.ctrl.Save(ctx, fields)
			return err
		})

	case key.Matches(msg, m.formKeys.Next):
		f.setFocus(f.focus + 1)
		m.form = &f
		m.refreshContent()
		return m, nil

	case key.Matches(msg, m.formKeys.Prev):
		f.setFocus(f.focus - 1)
		m.form = &f
		m.refreshContent()
		return m, nil
	}

	f, cmd := f.update(msg)
	m.form = &f
	m.refreshContent()
	return m, cmd
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := *m.confirm
	answer := func(yes bool) (tea.Model, tea.Cmd) {
		m.confirm = nil
		id := c.entityID
		return m, m.call("delete", func(ctx context.Context) error {
			return m.ctrl.DeleteRequested(ctx, id, catalog.Answered(yes))
		})
	}
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		c.focus = c.focus.toggle()
		m.confirm = &c
		return m, nil
	case "y":
		return answer(true)
	case "n", "esc", "ctrl+g", "q":
		return answer(false)
	case "enter":
		return answer(c.focus == confirmFocusConfirm)
	}
	return m, nil
}
