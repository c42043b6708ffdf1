package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *Document {
	d := New()
	d.Counters["shared"] = 3
	d.Record("prm", "thm-prm-a", "1", "ch1.rite")
	d.Record("axm", "thm-axm-a", "2", "ch1.rite")
	d.Record("prm", "thm-prm-b", "3", "ch2.rite")
	return d
}

// storeCases runs the same checks against every Store implementation.
func storeCases(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	db, err := NewSQLiteStore(filepath.Join(dir, "db", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(dir, "files")),
		"sqlite": db,
	}
}

func TestStore_MissingStateIsEmpty(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			d, err := s.Load("never-saved")
			require.NoError(t, err)
			assert.Empty(t, d.Counters)
			assert.Empty(t, d.AssignedNumbers)
			assert.NotNil(t, d.OriginFiles)
		})
	}
}

func TestStore_SaveThenLoad(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save("book", sampleState()))

			d, err := s.Load("book")
			require.NoError(t, err)
			assert.Equal(t, 3, d.Counters["shared"])
			assert.Equal(t, "2", d.AssignedNumbers["axm"]["thm-axm-a"])
			assert.Equal(t, "ch2.rite", d.OriginFiles["prm"]["thm-prm-b"])

			// A second save overwrites the first one
			d.Counters["shared"] = 7
			require.NoError(t, s.Save("book", d))
			again, err := s.Load("book")
			require.NoError(t, err)
			assert.Equal(t, 7, again.Counters["shared"])
		})
	}
}

func TestStore_RequiresDocumentID(t *testing.T) {
	for name, s := range storeCases(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load("")
			assert.ErrorIs(t, err, ErrNoDocumentID)
			assert.ErrorIs(t, s.Save("", New()), ErrNoDocumentID)
		})
	}
}

func TestFileStore_EmptyFileIsEmptyState(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, os.WriteFile(s.Path("book"), nil, 0o644))

	d, err := s.Load("book")
	require.NoError(t, err)
	assert.Empty(t, d.Counters)
}

func TestFileStore_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save("my book/1", sampleState()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "my_book_1.amsthm.yaml", entries[0].Name())
}

func TestDocument_ForgetFile(t *testing.T) {
	d := sampleState()
	d.ForgetFile("ch1.rite")

	assert.NotContains(t, d.AssignedNumbers, "axm")
	assert.NotContains(t, d.AssignedNumbers["prm"], "thm-prm-a")
	assert.Equal(t, "3", d.AssignedNumbers["prm"]["thm-prm-b"])
}

func TestDocument_StartForIsStable(t *testing.T) {
	d := New()
	d.Counters["shared"] = 4

	first := d.StartFor("ch2.rite")
	assert.Equal(t, 4, first["shared"])

	// The chapter advanced the counter; compiling it again starts from the same place
	d.Counters["shared"] = 9
	second := d.StartFor("ch2.rite")
	assert.Equal(t, 4, second["shared"])

	// A new chapter starts where the last compile ended
	assert.Equal(t, 9, d.StartFor("ch3.rite")["shared"])
}
