package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const tuiStateFileName = "tui_state.json"

// TUIState remembers where the TUI was left so a relaunch reopens the same node.
// Best effort: missing or corrupted files load as the zero state.
type TUIState struct {
	Version int `json:"version"`

	// LastNodeID is the node shown when the TUI last navigated.
	LastNodeID int64 `json:"lastNodeId"`

	// LastSession is the session id used for scroll restoration.
	LastSession string `json:"lastSession,omitempty"`

	// RecentNodeIDs are visited node ids, newest first.
	RecentNodeIDs []int64 `json:"recentNodeIds,omitempty"`
}

const maxRecentNodes = 20

// Visit records id as the last node and moves it to the front of the recent list.
func (st *TUIState) Visit(id int64) {
	st.LastNodeID = id
	out := make([]int64, 0, len(st.RecentNodeIDs)+1)
	out = append(out, id)
	for _, v := range st.RecentNodeIDs {
		if v != id {
			out = append(out, v)
		}
	}
	if len(out) > maxRecentNodes {
		out = out[:maxRecentNodes]
	}
	st.RecentNodeIDs = out
}

func (s Store) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}

func (s Store) LoadTUIState() (*TUIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.tuiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, tuiStateFileName+".*.tmp", s.tuiStatePath(), b, 0o644)
}
