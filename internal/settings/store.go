// internal/settings/store.go
//
// JSON-document store for the two singleton settings files.
//
// Context
// -------
// Site branding and outbound-email configuration are operator data edited
// through the back office, not deployment configuration, so they live as
// JSON documents under the data directory rather than in conf/global.yaml.
// Saves are read-modify-write at the caller and atomic at the file level
// (write to a temp file, then rename), so a crashed save never leaves a
// half-written document behind.
package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const (
	siteFile  = "site_settings.json"
	emailFile = "email_settings.json"
)

// Store reads and writes the settings documents under one data directory.
// A single mutex covers both files; settings writes are rare admin actions.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a Store rooted at dataDir, creating it when missing.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dataDir}, nil
}

// readJSON decodes the named document into v.  A missing file is not an
// error; v keeps its zero value so defaults apply.
func (s *Store) readJSON(name string, v any) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(raw, v)
}

// writeJSON encodes v and atomically replaces the named document.
func (s *Store) writeJSON(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dst := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
