package tui

import (
	"context"
	"errors"
	"log/slog"

	"catalog-cli/internal/catalog"

	tea "github.com/charmbracelet/bubbletea"
)

// ScrollStore persists the vertical scroll offset for the session.
type ScrollStore interface {
	SaveScrollOffset(y int) error
	RestoreScrollOffset() (int, bool)
}

type Options struct {
	Controller *catalog.Controller
	// StartNode is fetched on startup.
	StartNode int64
	// Scroll is optional; without it the offset is not kept.
	Scroll ScrollStore
	// Panels are registry ids mounted above the groups.
	Panels []string
	// Profile is the color profile ("default" or "mono").
	Profile string
	Log     *slog.Logger
}

func Run(ctx context.Context, opts Options) error {
	if opts.Controller == nil {
		return errors.New("tui: nil controller")
	}
	applyThemePreference()
	applyColorProfilePreference(opts.Profile)

	m, err := newAppModel(ctx, opts)
	if err != nil {
		return err
	}
	defer m.unsubscribe()

	final, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	if fm, ok := final.(appModel); ok {
		fm.saveScroll()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
