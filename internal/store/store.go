package store

import (
	"os"
	"path/filepath"
)

const sqliteFileName = "session.sqlite"

// Store is the local state directory (by default ~/.catalog).
type Store struct {
	Dir string
}

// DefaultDir returns the config directory, honoring CATALOG_CONFIG_DIR.
func DefaultDir() (string, error) {
	return ConfigDir()
}

func Open() (Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return Store{}, err
	}
	s := Store{Dir: dir}
	return s, s.Ensure()
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}
