package amsthm

import (
	"strings"

	"github.com/hesusruiz/amsthm/rite"
)

// Matcher decides which declared environment owns a block.
// The index is built once per configuration, so matching a block costs one map
// probe per '-' in its identifier plus one per class.
type Matcher struct {
	envs      []*Environment
	order     map[string]int
	namespace string
}

// NewMatcher indexes envs by key, keeping the declaration order for first-match-wins.
func NewMatcher(envs []*Environment, namespace string) *Matcher {
	m := &Matcher{
		envs:      envs,
		order:     make(map[string]int, len(envs)),
		namespace: namespace,
	}
	for i, e := range envs {
		if _, dup := m.order[e.Key]; !dup {
			m.order[e.Key] = i
		}
	}
	return m
}

// Match returns the first declared environment that owns the block: its identifier
// starts with key + "-" or it carries the class key. Identifiers already in the
// reference namespace are also tried without the namespace prefix.
func (m *Matcher) Match(n *rite.Node) (*Environment, bool) {
	if n.Type != rite.BlockNode {
		return nil, false
	}

	best := -1
	consider := func(key string) {
		if i, found := m.order[key]; found && (best == -1 || i < best) {
			best = i
		}
	}

	ids := []string{n.Id}
	if stripped, found := strings.CutPrefix(n.Id, m.namespace+"-"); found {
		ids = append(ids, stripped)
	}
	for _, id := range ids {
		for i := 0; i < len(id); i++ {
			if id[i] == '-' {
				consider(id[:i])
			}
		}
	}
	for _, class := range n.Classes {
		consider(class)
	}

	if best == -1 {
		return nil, false
	}
	return m.envs[best], true
}
