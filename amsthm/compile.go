package amsthm

import (
	"errors"
	"fmt"

	"github.com/hesusruiz/amsthm/rite"
	"github.com/hesusruiz/amsthm/state"
	"go.uber.org/zap"
)

// Phase is a step of a compilation. Phases are entered strictly in order.
type Phase int

const (
	PhaseConfigLoaded Phase = iota
	PhaseTraversing
	PhaseReferencesResolved
	PhaseHeaderEmitted
	PhaseStatePersisted
	PhaseDone
)

var phaseNames = [...]string{
	PhaseConfigLoaded:       "ConfigLoaded",
	PhaseTraversing:         "Traversing",
	PhaseReferencesResolved: "ReferencesResolved",
	PhaseHeaderEmitted:      "HeaderEmitted",
	PhaseStatePersisted:     "StatePersisted",
	PhaseDone:               "Done",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Adapter renders numbered blocks and resolved references for one output format.
type Adapter interface {
	// Name is the output format, as used for raw nodes ("html", "latex")
	Name() string
	// Block renders a matched block. The block already carries its canonical
	// identifier and no longer has the title heading or the override attributes.
	Block(n *rite.Node, lbl Label) rite.Action
	// Reference renders a reference node. When ok is false the reference is unresolved
	// and res only carries the target.
	Reference(ref *rite.Node, res ResolvedReference, ok bool) rite.Action
	// Section is called for every heading that starts a section, with the
	// identifier of the new section.
	Section(n *rite.Node, section string) rite.Action
	// Header returns the preamble declarations of the output, one per line.
	// start is the numbering state the document begins with.
	Header(cfg *Config, start Start) []string
}

// Start is the numbering state a document begins with.
type Start struct {
	// Section is the section identifier before the first heading: the chapter in book mode
	Section string
	// Counters holds the global buckets carried over from previous chapters, by scope
	Counters map[string]int
}

// CounterFor returns the value a global bucket starts from.
func (s Start) CounterFor(scope string) int {
	return s.Counters[scope]
}

// Options of a compilation.
type Options struct {
	// File is the name of the document being compiled, recorded as the origin of its blocks
	File string

	// DocumentID identifies the book in the state store. Defaults to the configured book id.
	DocumentID string

	// Store keeps the cross-document state in book mode. Without it nothing is persisted.
	Store state.Store

	Logger *zap.SugaredLogger

	// Suffix generates the random part of identifiers for blocks without one
	Suffix func() string
}

// Result is the outcome of a successful compilation.
type Result struct {
	Start       Start
	Header      []string
	Diagnostics []Diagnostic
	Labels      []Label
	IDMap       map[string]string // original to canonical identifiers
	Table       *ReferenceTable
}

// Compilation holds the mutable state of one compile of one document.
// Nothing in it outlives the compile except what Persist writes to the store.
type Compilation struct {
	cfg     *Config
	adapter Adapter
	opts    Options
	log     *zap.SugaredLogger

	phase Phase
	err   error

	counter *Counter
	ids     *Canonicalizer
	table   *ReferenceTable
	state   *state.Document
	docID   string
	start   Start

	labels      []Label
	diagnostics []Diagnostic
	header      []string
}

// NewCompilation prepares a compile of a document with a validated configuration.
// In book mode the cross-document state is loaded: the blocks previously recorded
// for this file are forgotten, the global counters are restored and the numbers of
// the other chapters are made available to references.
func NewCompilation(cfg *Config, adapter Adapter, opts Options) (*Compilation, error) {
	if cfg == nil || cfg.Matcher() == nil {
		return nil, fmt.Errorf("%w: configuration was not loaded", ErrMalformedConfig)
	}

	c := &Compilation{
		cfg:     cfg,
		adapter: adapter,
		opts:    opts,
		log:     opts.Logger,
		phase:   PhaseConfigLoaded,
		ids:     NewCanonicalizer(cfg.Namespace),
		table:   NewReferenceTable(),
		docID:   opts.DocumentID,
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	if opts.Suffix != nil {
		c.ids.suffix = opts.Suffix
	}
	if len(c.docID) == 0 {
		c.docID = cfg.DocumentID
	}

	var start map[string]int
	if cfg.Book && opts.Store != nil {
		if len(c.docID) == 0 {
			c.log.Warnw("book mode without a document id, numbering state will not be kept", "file", opts.File, "chapter", cfg.Chapter)
		} else {
			doc, err := opts.Store.Load(c.docID)
			if err != nil {
				return nil, fmt.Errorf("loading state of %s: %w", c.docID, err)
			}
			doc.ForgetFile(opts.File)
			start = doc.StartFor(opts.File)
			c.state = doc
			if err := c.seedTable(doc); err != nil {
				return nil, err
			}
			c.log.Debugw("state loaded", "document", c.docID, "chapter", cfg.Chapter, "counters", start, "entries", c.table.Len())
		}
	}

	c.counter = NewCounter(cfg, start)
	c.start = Start{Section: c.counter.Section(), Counters: start}
	return c, nil
}

// seedTable makes the blocks of previous chapters known to references.
func (c *Compilation) seedTable(doc *state.Document) error {
	for envKey, numbers := range doc.AssignedNumbers {
		prefix := envKey
		if env, found := c.cfg.Environment(envKey); found {
			prefix = env.ReferencePrefix
		}
		for id, number := range numbers {
			err := c.table.Add(id, Entry{
				DisplayNumber:   number,
				EnvKey:          envKey,
				ReferencePrefix: prefix,
				OriginFile:      doc.OriginFiles[envKey][id],
			})
			if err != nil {
				return fmt.Errorf("seeding %s: %w", id, err)
			}
		}
	}
	return nil
}

// Phase returns the phase the compilation is in.
func (c *Compilation) Phase() Phase {
	return c.phase
}

// Diagnostics returns the diagnostics emitted so far.
func (c *Compilation) Diagnostics() []Diagnostic {
	return c.diagnostics
}

func (c *Compilation) advance(next Phase) error {
	if c.err != nil {
		return c.err
	}
	if next != c.phase+1 {
		return &PhaseError{Current: c.phase, Next: next}
	}
	c.phase = next
	return nil
}

func (c *Compilation) fail(err error) error {
	c.err = err
	return err
}

func (c *Compilation) diagnose(d Diagnostic) {
	if len(d.File) == 0 {
		d.File = c.opts.File
	}
	c.diagnostics = append(c.diagnostics, d)
}

// Traverse numbers every matched block of the document in one pre-order walk,
// canonicalizing identifiers and building the reference table.
// A duplicate override aborts the compilation.
func (c *Compilation) Traverse(doc *rite.Node) error {
	if err := c.advance(PhaseTraversing); err != nil {
		return err
	}

	if err := rite.Walk(doc, c.number); err != nil {
		return c.fail(err)
	}

	c.table.Freeze()
	c.log.Debugw("traversal done", "file", c.opts.File, "blocks", len(c.labels), "entries", c.table.Len())
	return nil
}

func (c *Compilation) number(n *rite.Node) (rite.Action, error) {
	switch n.Type {
	case rite.HeadingNode:
		if c.counter.ObserveHeading(n) {
			return c.adapter.Section(n, c.counter.Section()), nil
		}
		return rite.KeepNode(), nil
	case rite.BlockNode:
	default:
		return rite.KeepNode(), nil
	}

	env, found := c.cfg.Matcher().Match(n)
	if !found {
		return rite.KeepNode(), nil
	}

	title, explicit := ExtractTitle(n, env)
	original := n.Id
	n.Id = c.ids.Canonicalize(n.Id, env)

	override, hasOverride := n.Attribute("number")
	if hasOverride && len(override) == 0 {
		hasOverride = false
	}
	if hasOverride && env.NumberingStyle == SectionStyle && c.cfg.SectionOverrides == IgnoreSectionOverrides {
		c.diagnose(Diagnostic{
			Severity:    SeverityWarning,
			Kind:        IgnoredOverride,
			Environment: env.Name,
			Value:       override,
			IDs:         []string{n.Id},
			Line:        n.LineNumber,
			Message:     fmt.Sprintf("%s number %q of %q ignored: section numbered environments do not take overrides", env.Name, override, n.Id),
		})
		c.log.Warnw("override ignored", "environment", env.Key, "value", override, "id", n.Id, "line", n.LineNumber)
		hasOverride = false
	}

	lbl, err := c.counter.Assign(n.Id, env, override, hasOverride)
	if err != nil {
		var dup *DuplicateOverrideError
		if errors.As(err, &dup) {
			c.diagnose(Diagnostic{
				Severity:    SeverityError,
				Kind:        DuplicateOverride,
				Environment: dup.Environment,
				Value:       dup.Value,
				IDs:         []string{dup.FirstID, dup.DuplicateID},
				Line:        n.LineNumber,
				Message:     dup.Error(),
			})
			c.log.Errorw("duplicate override", "environment", env.Key, "value", dup.Value, "first", dup.FirstID, "duplicate", dup.DuplicateID, "line", n.LineNumber)
		}
		return rite.Action{}, fmt.Errorf("%s:%d: %w", c.opts.File, n.LineNumber, err)
	}
	lbl.Title = title
	lbl.ExplicitTitle = explicit

	n.DeleteAttribute("number")
	n.DeleteAttribute("title")

	err = c.table.Add(n.Id, Entry{
		DisplayNumber:   lbl.Number,
		EnvKey:          env.Key,
		ReferencePrefix: env.ReferencePrefix,
		OriginFile:      c.opts.File,
	})
	if err != nil {
		return rite.Action{}, fmt.Errorf("%s:%d: %w", c.opts.File, n.LineNumber, err)
	}
	if c.state != nil {
		c.state.Record(env.Key, n.Id, lbl.Number, c.opts.File)
	}
	c.labels = append(c.labels, lbl)

	c.log.Debugw("numbered", "environment", env.Key, "id", original, "canonical", n.Id, "number", lbl.Number, "section", c.counter.Section())
	return c.adapter.Block(n, lbl), nil
}

// ResolveReferences replaces every reference of the document with its formatted text.
// Unresolved references are reported and left to the adapter.
func (c *Compilation) ResolveReferences(doc *rite.Node) error {
	if err := c.advance(PhaseReferencesResolved); err != nil {
		return err
	}

	resolver := NewResolver(c.table, c.ids, c.opts.File)
	err := rite.Walk(doc, func(n *rite.Node) (rite.Action, error) {
		if n.Type != rite.RefNode {
			return rite.KeepNode(), nil
		}

		res, ok := resolver.Resolve(n.Id)
		if !ok {
			c.diagnose(Diagnostic{
				Severity: SeverityWarning,
				Kind:     UnresolvedReference,
				Value:    n.Id,
				IDs:      []string{res.Target},
				Line:     n.LineNumber,
				Message:  fmt.Sprintf("reference to unknown identifier %q", n.Id),
			})
			c.log.Warnw("unresolved reference", "id", n.Id, "file", c.opts.File, "line", n.LineNumber)
		}
		return c.adapter.Reference(n, res, ok), nil
	})
	if err != nil {
		return c.fail(err)
	}
	return nil
}

// EmitHeader produces the preamble of the output format.
func (c *Compilation) EmitHeader() ([]string, error) {
	if err := c.advance(PhaseHeaderEmitted); err != nil {
		return nil, err
	}
	c.header = c.adapter.Header(c.cfg, c.start)
	return c.header, nil
}

// Persist writes the cross-document state for the next chapter.
// Outside book mode, or without a store, there is nothing to write.
func (c *Compilation) Persist() error {
	if err := c.advance(PhaseStatePersisted); err != nil {
		return err
	}
	if c.state == nil {
		return nil
	}

	// A chapter compiled again may end below the chapters compiled after it,
	// and the counters must not give their numbers out again.
	for scope, value := range c.counter.GlobalCounters() {
		if value > c.state.Counters[scope] {
			c.state.Counters[scope] = value
		}
	}
	if err := c.opts.Store.Save(c.docID, c.state); err != nil {
		return c.fail(fmt.Errorf("saving state of %s: %w", c.docID, err))
	}

	c.log.Debugw("state saved", "document", c.docID, "counters", c.state.Counters)
	return nil
}

// Finish ends the compilation and returns its result.
func (c *Compilation) Finish() (*Result, error) {
	if err := c.advance(PhaseDone); err != nil {
		return nil, err
	}
	return &Result{
		Start:       c.start,
		Header:      c.header,
		Diagnostics: c.diagnostics,
		Labels:      c.labels,
		IDMap:       c.ids.Mappings(),
		Table:       c.table,
	}, nil
}

// Compile runs all the phases of a compilation of doc, in order.
// The tree is modified in place.
func Compile(doc *rite.Node, cfg *Config, adapter Adapter, opts Options) (*Result, error) {
	c, err := NewCompilation(cfg, adapter, opts)
	if err != nil {
		return nil, err
	}
	if err := c.Traverse(doc); err != nil {
		return nil, err
	}
	if err := c.ResolveReferences(doc); err != nil {
		return nil, err
	}
	if _, err := c.EmitHeader(); err != nil {
		return nil, err
	}
	if err := c.Persist(); err != nil {
		return nil, err
	}
	return c.Finish()
}
