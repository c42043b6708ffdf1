package amsthm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCanonicalize(t *testing.T) {
	env := newEnv("prm", "Problem", SectionStyle)
	c := NewCanonicalizer("thm")
	c.suffix = func() string { return "0a1b2c3d" }

	assert.Equal(t, "thm-prm-a", c.Canonicalize("prm-a", env))
	assert.Equal(t, "thm-prm-b", c.Canonicalize("thm-prm-b", env))
	assert.Equal(t, "thm-prm-0a1b2c3d", c.Canonicalize("", env))

	// Only changed, non-empty identifiers are recorded
	assert.Equal(t, map[string]string{"prm-a": "thm-prm-a"}, c.Mappings())

	assert.Equal(t, "thm-prm-a", c.Lookup("prm-a"))
	assert.Equal(t, "thm-prm-a", c.Lookup("thm-prm-a"))
	assert.Equal(t, "unknown", c.Lookup("unknown"))
}

func TestCanonicalize_RandomSuffix(t *testing.T) {
	env := newEnv("prm", "Problem", SectionStyle)
	c := NewCanonicalizer("thm")

	a := c.Canonicalize("", env)
	b := c.Canonicalize("", env)
	assert.Regexp(t, `^thm-prm-[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func TestCanonicalize_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newEnv(rapid.StringMatching(`[a-z]{1,4}`).Draw(t, "key"), "Env", SectionStyle)
		id := rapid.StringMatching(`(thm-)?[a-z0-9-]{0,12}`).Draw(t, "id")

		c := NewCanonicalizer("thm")
		once := c.Canonicalize(id, env)
		twice := c.Canonicalize(once, env)

		if once != twice {
			t.Fatalf("Canonicalize(%q) = %q, but Canonicalize(%q) = %q", id, once, once, twice)
		}
		if !c.IsCanonical(once) {
			t.Fatalf("Canonicalize(%q) = %q is not in the namespace", id, once)
		}
	})
}
