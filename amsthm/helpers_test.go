package amsthm

import (
	"testing"

	"github.com/hesusruiz/amsthm/rite"
	"github.com/stretchr/testify/require"
)

func newEnv(key, name string, style NumberingStyle) *Environment {
	return &Environment{Key: key, Name: name, Numbered: true, NumberingStyle: style}
}

func mustConfig(t *testing.T, sharing CounterSharing, envs ...*Environment) *Config {
	t.Helper()
	cfg, err := NewConfig(sharing, envs...)
	require.NoError(t, err)
	return cfg
}

func block(id string, classes ...string) *rite.Node {
	return &rite.Node{Type: rite.BlockNode, Name: "div", Id: id, Classes: classes}
}

func heading(level int, attrs ...rite.Attribute) *rite.Node {
	return &rite.Node{Type: rite.HeadingNode, Level: level, Attr: attrs}
}

func parseDoc(t *testing.T, file, src string) (*rite.Node, *Config) {
	t.Helper()
	p, err := rite.ParseFromBytes(file, []byte(src))
	require.NoError(t, err)
	cfg, err := LoadConfig(p.Config, p.FrontMatter)
	require.NoError(t, err)
	return p.Document(), cfg
}

// recorder is an adapter that keeps the labels and turns references into plain text
type recorder struct {
	labels   []Label
	refs     []ResolvedReference
	sections []string
}

func (r *recorder) Name() string { return "test" }

func (r *recorder) Block(n *rite.Node, lbl Label) rite.Action {
	r.labels = append(r.labels, lbl)
	return rite.KeepNode()
}

func (r *recorder) Reference(ref *rite.Node, res ResolvedReference, ok bool) rite.Action {
	r.refs = append(r.refs, res)
	if !ok {
		return rite.ReplaceNode(rite.NewText("??" + ref.Id))
	}
	return rite.ReplaceNode(rite.NewText(res.Text))
}

func (r *recorder) Section(n *rite.Node, section string) rite.Action {
	r.sections = append(r.sections, section)
	return rite.KeepNode()
}

func (r *recorder) Header(cfg *Config, start Start) []string {
	return []string{"% " + string(cfg.Sharing)}
}

func (r *recorder) texts() []string {
	var list []string
	for _, l := range r.labels {
		list = append(list, l.Text())
	}
	return list
}
