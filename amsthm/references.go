package amsthm

import (
	"errors"
	"sort"
)

var errTableFrozen = errors.New("reference table is read-only after traversal")

// Entry is what the reference table knows about a numbered block.
type Entry struct {
	DisplayNumber   string
	EnvKey          string
	ReferencePrefix string
	OriginFile      string
}

// ReferenceTable maps canonical identifiers to their entries.
// It is filled during traversal and frozen before references are resolved.
type ReferenceTable struct {
	entries map[string]Entry
	frozen  bool
}

func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{entries: make(map[string]Entry)}
}

// Add records the entry for id, replacing an entry carried over from another file.
func (t *ReferenceTable) Add(id string, e Entry) error {
	if t.frozen {
		return errTableFrozen
	}
	t.entries[id] = e
	return nil
}

// Lookup returns the entry for a canonical identifier.
func (t *ReferenceTable) Lookup(id string) (Entry, bool) {
	e, found := t.entries[id]
	return e, found
}

// Freeze makes the table read-only.
func (t *ReferenceTable) Freeze() {
	t.frozen = true
}

// Len returns the number of entries.
func (t *ReferenceTable) Len() int {
	return len(t.entries)
}

// IDs returns the identifiers in the table, sorted.
func (t *ReferenceTable) IDs() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolvedReference is the formatted text and target of a reference.
type ResolvedReference struct {
	Text      string // like "Axiom 1"
	Prefix    string
	Number    string
	Target    string // canonical identifier of the block
	CrossFile string // file holding the block, when it is not the current one
}

// Resolver turns reference targets into formatted references.
type Resolver struct {
	table *ReferenceTable
	ids   *Canonicalizer
	file  string
}

// NewResolver returns a resolver for references found in file.
func NewResolver(table *ReferenceTable, ids *Canonicalizer, file string) *Resolver {
	return &Resolver{table: table, ids: ids, file: file}
}

// Resolve looks up id, given either in its original or canonical form.
// The second result is false when no numbered block has that identifier;
// the returned reference then only carries the target.
func (r *Resolver) Resolve(id string) (ResolvedReference, bool) {
	target := r.ids.Lookup(id)

	e, found := r.table.Lookup(target)
	if !found && !r.ids.IsCanonical(target) {
		// Blocks of previous chapters are only known by their canonical form
		target = r.ids.namespace + "-" + id
		e, found = r.table.Lookup(target)
	}
	if !found {
		return ResolvedReference{Target: r.ids.Lookup(id)}, false
	}

	ref := ResolvedReference{
		Text:   e.ReferencePrefix,
		Prefix: e.ReferencePrefix,
		Number: e.DisplayNumber,
		Target: target,
	}
	if len(e.DisplayNumber) > 0 {
		ref.Text = e.ReferencePrefix + " " + e.DisplayNumber
	}
	if len(e.OriginFile) > 0 && e.OriginFile != r.file {
		ref.CrossFile = e.OriginFile
	}
	return ref, true
}
