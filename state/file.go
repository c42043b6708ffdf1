package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the state of each document in a YAML file of a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store writing into dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the file holding the state of documentID.
func (s *FileStore) Path(documentID string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, documentID)
	return filepath.Join(s.dir, name+".amsthm.yaml")
}

func (s *FileStore) Load(documentID string) (*Document, error) {
	if len(documentID) == 0 {
		return nil, ErrNoDocumentID
	}

	data, err := os.ReadFile(s.Path(documentID))
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state of %s: %w", documentID, err)
	}

	return Unmarshal(data)
}

// Save writes the state to a temporary file and renames it over the old one.
func (s *FileStore) Save(documentID string, d *Document) error {
	if len(documentID) == 0 {
		return ErrNoDocumentID
	}

	data, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding state of %s: %w", documentID, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".amsthm-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state of %s: %w", documentID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state of %s: %w", documentID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing state of %s: %w", documentID, err)
	}

	if err := os.Rename(tmp.Name(), s.Path(documentID)); err != nil {
		return fmt.Errorf("replacing state of %s: %w", documentID, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
