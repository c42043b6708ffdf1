// Package amsthm numbers custom theorem-like environments of a rite document
// and resolves the cross-references to them.
//
// A compilation runs in strict phases: the document tree is traversed once to
// match, title, canonicalize and number every block, and only then a second
// traversal resolves references, because a reference may appear before the
// block it points to.
package amsthm

import (
	"errors"
	"fmt"
	"strings"

	vyaml "github.com/hesusruiz/vcutils/yaml"
	"gopkg.in/yaml.v3"
)

// NumberingStyle tells if a counter restarts at every section or runs through the document.
type NumberingStyle string

const (
	SectionStyle NumberingStyle = "section"
	GlobalStyle  NumberingStyle = "global"
)

// CounterSharing tells if all environments draw from one counter.
type CounterSharing string

const (
	Shared      CounterSharing = "shared"
	Independent CounterSharing = "independent"
)

// OverrideDisplay decides whether a non-numeric override value is shown as a number.
type OverrideDisplay string

const (
	// DisplayLiteral shows the override value in the number slot, whatever it is
	DisplayLiteral OverrideDisplay = "literal"
	// DisplayTitleOnly hides override values that are not plain integers
	DisplayTitleOnly OverrideDisplay = "title-only"
)

// SectionOverrides decides whether overrides are honoured for section-scoped environments.
type SectionOverrides string

const (
	AllowSectionOverrides  SectionOverrides = "allow"
	IgnoreSectionOverrides SectionOverrides = "ignore"
)

// DefaultNamespace is the prefix of the shared reference namespace.
const DefaultNamespace = "thm"

// ReservedOutputNames are the theorem-like environments the host already defines.
var ReservedOutputNames = []string{
	"theorem", "lemma", "corollary", "proposition", "conjecture",
	"definition", "example", "exercise", "remark", "solution", "proof",
}

// Environment is a declared theorem-like block type. It is immutable once loaded.
type Environment struct {
	Key             string
	Name            string
	ReferencePrefix string
	OutputName      string
	Numbered        bool
	NumberingStyle  NumberingStyle
}

// Config holds everything a compilation needs from the document metadata.
type Config struct {
	Environments     []*Environment
	Sharing          CounterSharing
	Namespace        string
	OverrideDisplay  OverrideDisplay
	SectionOverrides SectionOverrides

	// Book mode: set when the title carries a chapter number
	Book       bool
	Chapter    string
	DocumentID string
	Title      string

	matcher *Matcher
}

// Matcher returns the matcher built for the declared environments.
func (c *Config) Matcher() *Matcher {
	return c.matcher
}

// Environment returns the declared environment with the given key.
func (c *Config) Environment(key string) (*Environment, bool) {
	for _, e := range c.Environments {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

type environmentRecord struct {
	Key             string `yaml:"key"`
	Name            string `yaml:"name"`
	ReferencePrefix string `yaml:"reference-prefix"`
	LatexName       string `yaml:"latex-name"`
	OutputName      string `yaml:"output-name"`
	Numbered        *bool  `yaml:"numbered"`
	NumberingStyle  string `yaml:"numbering-style"`
}

type frontMatter struct {
	Environments []environmentRecord `yaml:"custom-amsthm"`
	Book         struct {
		ID      string `yaml:"id"`
		Chapter string `yaml:"chapter"`
	} `yaml:"book"`
}

// ParseConfig loads the configuration from the YAML front matter of a document.
func ParseConfig(raw string) (*Config, error) {
	if len(strings.TrimSpace(raw)) == 0 {
		return LoadConfig(nil, raw)
	}
	y, err := vyaml.ParseYaml(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	return LoadConfig(y, raw)
}

// LoadConfig builds and validates the configuration. y gives access to the
// document-level settings and raw is the same front matter, used for the
// ordered list of environment declarations.
func LoadConfig(y *vyaml.YAML, raw string) (*Config, error) {
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}

	setting := func(path, def string) string {
		if y == nil {
			return def
		}
		return y.String(path, def)
	}

	cfg := &Config{
		Sharing:          CounterSharing(setting("amsthm.counter-sharing", string(Shared))),
		Namespace:        setting("amsthm.reference-namespace", DefaultNamespace),
		OverrideDisplay:  OverrideDisplay(setting("amsthm.override-display", string(DisplayLiteral))),
		SectionOverrides: SectionOverrides(setting("amsthm.section-overrides", string(AllowSectionOverrides))),
		Title:            setting("title", ""),
		Chapter:          strings.TrimSpace(fm.Book.Chapter),
		DocumentID:       fm.Book.ID,
	}
	cfg.Book = len(cfg.Chapter) > 0

	for _, rec := range fm.Environments {
		cfg.Environments = append(cfg.Environments, rec.environment())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.matcher = NewMatcher(cfg.Environments, cfg.Namespace)
	return cfg, nil
}

// NewConfig builds a validated configuration from already constructed environments,
// with default document-level settings.
func NewConfig(sharing CounterSharing, envs ...*Environment) (*Config, error) {
	cfg := &Config{
		Environments:     envs,
		Sharing:          sharing,
		Namespace:        DefaultNamespace,
		OverrideDisplay:  DisplayLiteral,
		SectionOverrides: AllowSectionOverrides,
	}
	for _, e := range envs {
		e.applyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.matcher = NewMatcher(cfg.Environments, cfg.Namespace)
	return cfg, nil
}

func (rec environmentRecord) environment() *Environment {
	e := &Environment{
		Key:             strings.TrimSpace(rec.Key),
		Name:            strings.TrimSpace(rec.Name),
		ReferencePrefix: rec.ReferencePrefix,
		OutputName:      rec.OutputName,
		Numbered:        true,
		NumberingStyle:  NumberingStyle(rec.NumberingStyle),
	}
	if len(e.OutputName) == 0 {
		e.OutputName = rec.LatexName
	}
	if rec.Numbered != nil {
		e.Numbered = *rec.Numbered
	}
	e.applyDefaults()
	return e
}

func (e *Environment) applyDefaults() {
	if len(e.ReferencePrefix) == 0 {
		e.ReferencePrefix = e.Name
	}
	if len(e.OutputName) == 0 {
		e.OutputName = e.Key
	}
	if len(e.NumberingStyle) == 0 {
		e.NumberingStyle = SectionStyle
	}
}

// Validate checks the document-level settings and every environment declaration.
// All the problems found are returned together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(index int, field, format string, args ...any) {
		errs = append(errs, &MalformedConfigError{Index: index, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch c.Sharing {
	case Shared, Independent:
	default:
		bad(-1, "counter-sharing", "must be %q or %q, got %q", Shared, Independent, c.Sharing)
	}
	switch c.OverrideDisplay {
	case DisplayLiteral, DisplayTitleOnly:
	default:
		bad(-1, "override-display", "must be %q or %q, got %q", DisplayLiteral, DisplayTitleOnly, c.OverrideDisplay)
	}
	switch c.SectionOverrides {
	case AllowSectionOverrides, IgnoreSectionOverrides:
	default:
		bad(-1, "section-overrides", "must be %q or %q, got %q", AllowSectionOverrides, IgnoreSectionOverrides, c.SectionOverrides)
	}
	if len(c.Namespace) == 0 || strings.ContainsAny(c.Namespace, " -") {
		bad(-1, "reference-namespace", "must be a single word without '-', got %q", c.Namespace)
	}

	keys := make(map[string]int)
	outputs := make(map[string]int)
	for i, e := range c.Environments {
		if len(e.Key) == 0 {
			bad(i, "key", "is required")
		} else if first, found := keys[e.Key]; found {
			bad(i, "key", "%q is already declared by environment #%d", e.Key, first+1)
		} else {
			keys[e.Key] = i
		}
		if len(e.Name) == 0 {
			bad(i, "name", "is required")
		}
		switch e.NumberingStyle {
		case SectionStyle, GlobalStyle:
		default:
			bad(i, "numbering-style", "must be %q or %q, got %q", SectionStyle, GlobalStyle, e.NumberingStyle)
		}
		for _, reserved := range ReservedOutputNames {
			if e.OutputName == reserved {
				bad(i, "output-name", "%q collides with a built-in environment", e.OutputName)
			}
		}
		if first, found := outputs[e.OutputName]; found {
			bad(i, "output-name", "%q is already used by environment #%d", e.OutputName, first+1)
		} else {
			outputs[e.OutputName] = i
		}
	}

	return errors.Join(errs...)
}
