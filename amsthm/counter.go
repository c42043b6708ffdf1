package amsthm

import (
	"strconv"

	"github.com/hesusruiz/amsthm/rite"
)

// SharedScope is the bucket scope of all environments in shared mode
const SharedScope = "shared"

// globalEpoch marks the buckets that are not scoped to a section
const globalEpoch = -1

// Label is what the counter engine assigns to one block.
type Label struct {
	Env           *Environment
	ID            string // canonical identifier of the block
	Number        string // display number, empty when unnumbered
	Override      bool   // Number comes from the author, not from a counter
	Numeric       bool   // the override is a plain integer
	Title         string // title given by the author, empty when none
	ExplicitTitle bool
}

// Numbered reports whether the label carries a number.
func (l Label) Numbered() bool {
	return len(l.Number) > 0
}

// ShowNumber reports whether renderers should display the number under the policy.
func (l Label) ShowNumber(policy OverrideDisplay) bool {
	if !l.Numbered() {
		return false
	}
	return !l.Override || l.Numeric || policy != DisplayTitleOnly
}

// Name is the title to display: the author's title or the environment name.
func (l Label) Name() string {
	if l.ExplicitTitle {
		return l.Title
	}
	return l.Env.Name
}

// Text is the label as shown in the rendered block, like "Problem 1".
func (l Label) Text() string {
	if !l.Numbered() {
		return l.Env.Name
	}
	return l.Env.Name + " " + l.Number
}

// Display is the label followed by the author's title, like "Problem 1 (Fermat)".
func (l Label) Display() string {
	if l.ExplicitTitle {
		return l.Text() + " (" + l.Title + ")"
	}
	return l.Text()
}

type bucketKey struct {
	scope string
	epoch int
}

type overrideKey struct {
	env   string
	value string
}

// Counter is the numbering state machine of one compilation.
type Counter struct {
	sharing CounterSharing

	// section is the identifier of the current section, "" before the first one
	section string

	// epoch counts the section boundaries crossed, so each section gets fresh buckets
	epoch    int
	topLevel int
	sections int
	book     bool

	buckets   map[bucketKey]int
	overrides map[overrideKey]string
}

// NewCounter returns a counter for cfg. start holds the values of the global buckets
// carried over from previous chapters; it may be nil.
func NewCounter(cfg *Config, start map[string]int) *Counter {
	c := &Counter{
		sharing:   cfg.Sharing,
		book:      cfg.Book,
		buckets:   make(map[bucketKey]int),
		overrides: make(map[overrideKey]string),
	}
	if cfg.Book {
		c.section = cfg.Chapter
	}
	for scope, value := range start {
		c.buckets[bucketKey{scope: scope, epoch: globalEpoch}] = value
	}
	return c
}

// Section returns the identifier of the current section.
func (c *Counter) Section() string {
	return c.section
}

// ObserveHeading updates the section state with a heading met during traversal,
// and reports whether the heading starts a new section.
// The first heading seen sets the top level, and a later shallower heading lowers it.
// Every top-level heading not marked unnumbered starts a new section.
// Headings nested in blocks are part of the block, not of the document outline.
// In book mode the chapter is the only section and headings are ignored.
func (c *Counter) ObserveHeading(n *rite.Node) bool {
	if c.book || n.Type != rite.HeadingNode || n.HasClass("unnumbered") {
		return false
	}
	if n.Parent != nil && n.Parent.Type != rite.DocumentNode {
		return false
	}

	if c.topLevel == 0 || n.Level < c.topLevel {
		c.topLevel = n.Level
	}
	if n.Level != c.topLevel {
		return false
	}

	c.sections++
	c.epoch++
	if number, found := n.Attribute("number"); found && len(number) > 0 {
		c.section = number
	} else {
		c.section = strconv.Itoa(c.sections)
	}
	return true
}

// Assign gives a label to the block id of environment env.
// With hasOverride the author's value is used as is: it is registered for duplicate
// detection and no counter moves. Otherwise the bucket of the environment is incremented.
func (c *Counter) Assign(id string, env *Environment, override string, hasOverride bool) (Label, error) {
	lbl := Label{Env: env, ID: id}

	if !env.Numbered {
		return lbl, nil
	}

	if hasOverride {
		key := overrideKey{env: env.Key, value: override}
		if first, found := c.overrides[key]; found {
			return lbl, &DuplicateOverrideError{
				Environment: env.Name,
				Value:       override,
				FirstID:     first,
				DuplicateID: id,
			}
		}
		c.overrides[key] = id

		lbl.Number = override
		lbl.Override = true
		lbl.Numeric = isPlainNumber(override)
		return lbl, nil
	}

	key := c.bucketFor(env)
	c.buckets[key]++
	value := strconv.Itoa(c.buckets[key])

	if key.epoch != globalEpoch && len(c.section) > 0 {
		lbl.Number = c.section + "." + value
	} else {
		lbl.Number = value
	}
	return lbl, nil
}

func (c *Counter) bucketFor(env *Environment) bucketKey {
	key := bucketKey{scope: env.Key, epoch: globalEpoch}
	if c.sharing == Shared {
		key.scope = SharedScope
	}
	if env.NumberingStyle == SectionStyle {
		key.epoch = c.epoch
	}
	return key
}

// ScopeOf returns the name of the bucket env draws from, as used in persisted state.
func (c *Counter) ScopeOf(env *Environment) string {
	return c.bucketFor(env).scope
}

// GlobalCounters returns the values of the buckets that are not scoped to a section.
func (c *Counter) GlobalCounters() map[string]int {
	m := make(map[string]int)
	for k, v := range c.buckets {
		if k.epoch == globalEpoch {
			m[k.scope] = v
		}
	}
	return m
}

func isPlainNumber(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
