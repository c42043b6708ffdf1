// Package state persists numbering state between the separately compiled
// chapters of a book.
//
// A Store is read at the start of a chapter and written at its end. Only one
// compile may write the state of a document at a time. A document with no
// saved state is a normal condition, not an error: Load returns an empty Document.
package state

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoDocumentID is returned when a store is used without a document identity.
var ErrNoDocumentID = errors.New("document id is required")

// Document is the state carried from one chapter to the next.
type Document struct {
	// Counters holds the values of the global-style counter buckets
	Counters map[string]int `yaml:"counters"`

	// AssignedNumbers maps environment key -> canonical id -> display number
	AssignedNumbers map[string]map[string]string `yaml:"assignedNumbers"`

	// OriginFiles maps environment key -> canonical id -> file holding the block
	OriginFiles map[string]map[string]string `yaml:"originFiles"`

	// ChapterStarts maps file -> counter bucket -> value before the file was compiled
	ChapterStarts map[string]map[string]int `yaml:"chapterStarts,omitempty"`
}

// Store loads and saves the state of a document.
type Store interface {
	// Load returns the saved state, or an empty state when there is none.
	Load(documentID string) (*Document, error)
	// Save replaces the saved state atomically.
	Save(documentID string, d *Document) error
	Close() error
}

// New returns an empty state.
func New() *Document {
	d := &Document{}
	d.ensure()
	return d
}

func (d *Document) ensure() {
	if d.Counters == nil {
		d.Counters = make(map[string]int)
	}
	if d.AssignedNumbers == nil {
		d.AssignedNumbers = make(map[string]map[string]string)
	}
	if d.OriginFiles == nil {
		d.OriginFiles = make(map[string]map[string]string)
	}
	if d.ChapterStarts == nil {
		d.ChapterStarts = make(map[string]map[string]int)
	}
}

// Record stores the number assigned to id and the file it came from.
func (d *Document) Record(envKey, id, number, file string) {
	if d.AssignedNumbers[envKey] == nil {
		d.AssignedNumbers[envKey] = make(map[string]string)
	}
	if d.OriginFiles[envKey] == nil {
		d.OriginFiles[envKey] = make(map[string]string)
	}
	d.AssignedNumbers[envKey][id] = number
	d.OriginFiles[envKey][id] = file
}

// ForgetFile drops every number recorded for blocks of file, so a recompiled
// chapter does not leave stale identifiers behind.
func (d *Document) ForgetFile(file string) {
	for envKey, origins := range d.OriginFiles {
		for id, origin := range origins {
			if origin != file {
				continue
			}
			delete(origins, id)
			delete(d.AssignedNumbers[envKey], id)
		}
		if len(origins) == 0 {
			delete(d.OriginFiles, envKey)
			delete(d.AssignedNumbers, envKey)
		}
	}
}

// StartFor returns the counter values a compile of file starts from.
// The first compile of a file starts from the current counters and remembers them,
// so compiling the same chapter again gives the same numbers.
func (d *Document) StartFor(file string) map[string]int {
	start, found := d.ChapterStarts[file]
	if !found {
		start = make(map[string]int, len(d.Counters))
		for k, v := range d.Counters {
			start[k] = v
		}
		d.ChapterStarts[file] = start
	}

	c := make(map[string]int, len(start))
	for k, v := range start {
		c[k] = v
	}
	return c
}

// Marshal encodes the state as YAML.
func Marshal(d *Document) ([]byte, error) {
	return yaml.Marshal(d)
}

// Unmarshal decodes a state. Empty data is the empty state.
func Unmarshal(data []byte) (*Document, error) {
	d := &Document{}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, d); err != nil {
			return nil, fmt.Errorf("decoding state: %w", err)
		}
	}
	d.ensure()
	return d, nil
}

// MemoryStore keeps states in memory. It is used for single-file runs and tests.
type MemoryStore struct {
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(documentID string) (*Document, error) {
	if len(documentID) == 0 {
		return nil, ErrNoDocumentID
	}
	return Unmarshal(s.docs[documentID])
}

func (s *MemoryStore) Save(documentID string, d *Document) error {
	if len(documentID) == 0 {
		return ErrNoDocumentID
	}
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	s.docs[documentID] = data
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
