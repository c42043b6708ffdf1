package rite

import (
	"strings"

	"github.com/hesusruiz/amsthm/sliceedit"
)

var latexSectioning = []string{"section", "subsection", "subsubsection", "paragraph", "subparagraph"}

// latexSpecials maps the characters with a special meaning for TeX to their escaped form
var latexSpecials = []struct{ old, new string }{
	{`\`, `\textbackslash{}`},
	{`{`, `\{`},
	{`}`, `\}`},
	{`$`, `\$`},
	{`&`, `\&`},
	{`#`, `\#`},
	{`_`, `\_`},
	{`%`, `\%`},
	{`~`, `\textasciitilde{}`},
	{`^`, `\textasciicircum{}`},
}

// EscapeLaTeX escapes the TeX special characters of s.
// All replacements are computed on the original text, so the output of one is never escaped again.
func EscapeLaTeX(s string) string {
	b := sliceedit.NewBuffer([]byte(s))
	for _, sp := range latexSpecials {
		b.ReplaceAllString(sp.old, sp.new)
	}
	return b.String()
}

// RenderLaTeX renders the tree rooted at doc as a LaTeX body fragment.
// The shallowest heading level of the outline becomes \section.
func RenderLaTeX(doc *Node) ([]byte, error) {
	br := &ByteRenderer{}
	renderLaTeXNode(br, doc, topLevel(doc)-1)
	return br.Bytes(), nil
}

// topLevel returns the shallowest level of the numbered headings that are children of doc, 1 when none.
func topLevel(doc *Node) int {
	top := 0
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == HeadingNode && !c.HasClass("unnumbered") && (top == 0 || c.Level < top) {
			top = c.Level
		}
	}
	if top == 0 {
		return 1
	}
	return top
}

func renderLaTeXNode(br *ByteRenderer, n *Node, shift int) {
	switch n.Type {

	case DocumentNode, FragmentNode, BlockNode:
		renderLaTeXChildren(br, n, shift)

	case HeadingNode:
		level := n.Level - shift
		if level < 1 {
			level = 1
		}
		if level > len(latexSectioning) {
			level = len(latexSectioning)
		}
		br.Render(`\`, latexSectioning[level-1])
		if n.HasClass("unnumbered") {
			br.Render("*")
		}
		br.Render("{")
		renderLaTeXChildren(br, n, shift)
		br.Render("}")
		if len(n.Id) > 0 {
			br.Render(`\label{`, n.Id, "}")
		}
		br.Renderln()
		br.Renderln()

	case ParagraphNode:
		renderLaTeXChildren(br, n, shift)
		br.Renderln()
		br.Renderln()

	case VerbatimNode:
		br.Renderln(`\begin{verbatim}`)
		br.Renderln(n.Text)
		br.Renderln(`\end{verbatim}`)
		br.Renderln()

	case TextNode:
		br.Render(EscapeLaTeX(n.Text))

	case RefNode:
		br.Render(`\ref{`, n.Id, "}")

	case LinkNode:
		br.Render(`\href{`, strings.ReplaceAll(n.Href, "#", `\#`), "}{")
		renderLaTeXChildren(br, n, shift)
		br.Render("}")

	case RawNode:
		if n.Format != "latex" {
			return
		}
		if n.Inline {
			br.Render(n.Text)
		} else {
			br.Renderln(n.Text)
		}
	}
}

func renderLaTeXChildren(br *ByteRenderer, n *Node, shift int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderLaTeXNode(br, c, shift)
	}
}
