package tui

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"catalog-cli/internal/logx"
	"catalog-cli/internal/store"
)

const historyPrefix = "/apicatalog/"

// History records navigations into the store's TUI state so the next launch reopens
// the last node.
type History struct {
	store store.Store
	log   *slog.Logger

	mu sync.Mutex
	st *store.TUIState
}

func NewHistory(s store.Store, log *slog.Logger) (*History, error) {
	st, err := s.LoadTUIState()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logx.Discard()
	}
	return &History{store: s, log: log, st: st}, nil
}

// Push implements catalog.History.
func (h *History) Push(path string) {
	id, ok := nodeFromPath(path)
	if !ok {
		h.log.Warn("ignoring unexpected history path", "path", path)
		return
	}
	h.mu.Lock()
	h.st.Visit(id)
	st := *h.st
	h.mu.Unlock()
	if err := h.store.SaveTUIState(&st); err != nil {
		h.log.Warn("save tui state", "error", err)
	}
}

// LastNode returns the last visited node, or the root.
func (h *History) LastNode() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.LastNodeID
}

func (h *History) LastSession() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st.LastSession
}

// SetSession remembers the session id used for scroll restoration.
func (h *History) SetSession(id string) error {
	h.mu.Lock()
	h.st.LastSession = id
	st := *h.st
	h.mu.Unlock()
	return h.store.SaveTUIState(&st)
}

func nodeFromPath(path string) (int64, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(path), historyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
