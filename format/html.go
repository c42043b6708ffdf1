// Package format holds the output adapters of the numbering engine.
//
// HTML marks matched blocks up in place, while LaTeX replaces them with
// theorem environments and declares the counters they share.
package format

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/hesusruiz/amsthm/amsthm"
	"github.com/hesusruiz/amsthm/rite"
)

// New returns the adapter for the output format name.
func New(name string, cfg *amsthm.Config) (amsthm.Adapter, error) {
	switch name {
	case "html":
		return NewHTML(cfg), nil
	case "latex", "tex":
		return NewLaTeX(cfg), nil
	}
	return nil, fmt.Errorf("unknown output format %q", name)
}

// HTML is the structured-markup adapter.
type HTML struct {
	display amsthm.OverrideDisplay
}

func NewHTML(cfg *amsthm.Config) *HTML {
	return &HTML{display: cfg.OverrideDisplay}
}

func (h *HTML) Name() string {
	return "html"
}

// Block adds the theorem classes and the label attributes to the block.
// The structure of the document is not changed.
func (h *HTML) Block(n *rite.Node, lbl amsthm.Label) rite.Action {
	n.AddClass("theorem")
	n.AddClass(lbl.Env.Key)
	n.SetAttribute("name", lbl.Name())
	if lbl.ShowNumber(h.display) {
		n.SetAttribute("data-number", lbl.Number)
	} else {
		n.DeleteAttribute("data-number")
	}
	return rite.KeepNode()
}

// Reference becomes a link to the block, pointing to the page of another chapter
// when needed. Unresolved references stay visible so the author notices them.
func (h *HTML) Reference(ref *rite.Node, res amsthm.ResolvedReference, ok bool) rite.Action {
	if !ok {
		marker := `<span class="xref-unresolved">?` + html.EscapeString(ref.Id) + `</span>`
		return rite.ReplaceNode(rite.NewRaw(h.Name(), marker, true))
	}

	link := &rite.Node{
		Type:       rite.LinkNode,
		Href:       pageOf(res.CrossFile) + "#" + res.Target,
		Classes:    []string{"xref"},
		LineNumber: ref.LineNumber,
	}
	link.AppendChild(rite.NewText(res.Text))
	return rite.ReplaceNode(link)
}

// Section marks the heading with the identifier the section numbers start with.
func (h *HTML) Section(n *rite.Node, section string) rite.Action {
	n.SetAttribute("data-section", section)
	return rite.KeepNode()
}

// Header is empty: the page styles are outside of the document.
func (h *HTML) Header(cfg *amsthm.Config, start amsthm.Start) []string {
	return nil
}

// pageOf returns the page generated for a source file, or "" for the current page.
func pageOf(file string) string {
	if len(file) == 0 {
		return ""
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}
