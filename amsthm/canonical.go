package amsthm

import (
	"strings"

	"github.com/google/uuid"
)

// Canonicalizer rewrites block identifiers into the shared reference namespace,
// so that every environment type can be referenced the same way.
type Canonicalizer struct {
	namespace string
	ids       map[string]string

	// suffix generates the random part of identifiers for anonymous blocks
	suffix func() string
}

// NewCanonicalizer returns a canonicalizer for the namespace prefix (e.g. "thm").
func NewCanonicalizer(namespace string) *Canonicalizer {
	return &Canonicalizer{
		namespace: namespace,
		ids:       make(map[string]string),
		suffix:    randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// IsCanonical reports whether id already belongs to the reference namespace.
func (c *Canonicalizer) IsCanonical(id string) bool {
	return strings.HasPrefix(id, c.namespace+"-")
}

// Canonicalize returns the canonical form of the identifier of a block of env,
// recording the mapping when the identifier changed.
// Canonicalize(Canonicalize(x)) == Canonicalize(x) for every x.
func (c *Canonicalizer) Canonicalize(id string, env *Environment) string {
	if c.IsCanonical(id) {
		return id
	}

	if len(id) == 0 {
		return c.namespace + "-" + env.Key + "-" + c.suffix()
	}

	canonical := c.namespace + "-" + id
	c.ids[id] = canonical
	return canonical
}

// Lookup maps a reference target to its canonical identifier.
// Identifiers that were never rewritten are returned unchanged.
func (c *Canonicalizer) Lookup(id string) string {
	if canonical, found := c.ids[id]; found {
		return canonical
	}
	return id
}

// Mappings returns a copy of the original to canonical identifier map.
func (c *Canonicalizer) Mappings() map[string]string {
	m := make(map[string]string, len(c.ids))
	for k, v := range c.ids {
		m[k] = v
	}
	return m
}
