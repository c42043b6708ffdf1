package rite

import (
	"bytes"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// HTMLWriter renders a document tree as an HTML fragment.
type HTMLWriter struct {
	// CodeStyle is the chroma style used for x-code blocks
	CodeStyle string

	md goldmark.Markdown
}

// NewHTMLWriter returns a writer using the given chroma style ("github" when empty).
func NewHTMLWriter(codeStyle string) *HTMLWriter {
	if len(codeStyle) == 0 {
		codeStyle = "github"
	}
	return &HTMLWriter{
		CodeStyle: codeStyle,
		md:        goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
	}
}

// RenderHTML renders the tree rooted at doc with the default writer.
func RenderHTML(doc *Node) ([]byte, error) {
	return NewHTMLWriter("").Render(doc)
}

// Render renders recursively to HTML the node and its children.
func (w *HTMLWriter) Render(doc *Node) ([]byte, error) {
	br := &ByteRenderer{}
	if err := w.renderNode(br, doc); err != nil {
		return nil, err
	}
	return br.Bytes(), nil
}

func (w *HTMLWriter) renderNode(br *ByteRenderer, n *Node) error {
	switch n.Type {

	case DocumentNode, FragmentNode:
		return w.renderChildren(br, n)

	case HeadingNode:
		br.Render("<", n.Name)
		renderHTMLAttributes(br, n)
		br.Render(">")
		if err := w.renderChildren(br, n); err != nil {
			return err
		}
		br.Renderln("</", n.Name, ">")

	case BlockNode:
		br.Render("<", n.Name)
		renderHTMLAttributes(br, n)
		br.Renderln(">")
		if err := w.renderChildren(br, n); err != nil {
			return err
		}
		br.Renderln("</", n.Name, ">")

	case ParagraphNode:
		br.Render("<p")
		renderHTMLAttributes(br, n)
		br.Render(">")
		if err := w.renderChildren(br, n); err != nil {
			return err
		}
		br.Renderln("</p>")

	case VerbatimNode:
		return w.renderVerbatim(br, n)

	case TextNode:
		br.Render(w.inlineMarkdown(n.Text))

	case RefNode:
		// A reference nobody resolved is rendered as a plain link to the target
		br.Render(`<a href="#`, html.EscapeString(n.Id), `" class="xref">[`, html.EscapeString(n.Id), "]</a>")

	case LinkNode:
		br.Render(`<a href="`, html.EscapeString(n.Href), `"`)
		if len(n.Classes) > 0 {
			br.Render(` class="`, html.EscapeString(strings.Join(n.Classes, " ")), `"`)
		}
		br.Render(">")
		if err := w.renderChildren(br, n); err != nil {
			return err
		}
		br.Render("</a>")

	case RawNode:
		if n.Format != "html" {
			return nil
		}
		if n.Inline {
			br.Render(n.Text)
		} else {
			br.Renderln(n.Text)
		}
	}

	return nil
}

func (w *HTMLWriter) renderChildren(br *ByteRenderer, n *Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := w.renderNode(br, c); err != nil {
			return err
		}
	}
	return nil
}

func renderHTMLAttributes(br *ByteRenderer, n *Node) {
	if len(n.Id) > 0 {
		br.Render(` id="`, html.EscapeString(n.Id), `"`)
	}
	if len(n.Classes) > 0 {
		br.Render(` class="`, html.EscapeString(strings.Join(n.Classes, " ")), `"`)
	}
	for _, a := range n.Attr {
		br.Render(" ", a.Key, `="`, html.EscapeString(a.Val), `"`)
	}
}

// inlineMarkdown converts a text run, keeping the surrounding whitespace that goldmark trims
func (w *HTMLWriter) inlineMarkdown(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 {
		return text
	}

	var buf bytes.Buffer
	if err := w.md.Convert([]byte(trimmed), &buf); err != nil {
		return html.EscapeString(text)
	}

	out := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(out, "<p>") || !strings.HasSuffix(out, "</p>") || strings.Count(out, "<p>") != 1 {
		// Anything that is not a single paragraph is not inline content
		return html.EscapeString(text)
	}
	out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")

	lead := text[:len(text)-len(strings.TrimLeft(text, " \t\n"))]
	trail := text[len(strings.TrimRight(text, " \t\n")):]
	return lead + out + trail
}

func (w *HTMLWriter) renderVerbatim(br *ByteRenderer, n *Node) error {
	if n.Name != "x-code" {
		br.Render("<pre")
		renderHTMLAttributes(br, n)
		br.Render(">", html.EscapeString(n.Text))
		br.Renderln("</pre>")
		return nil
	}

	// Determine lexer from the first class, or guess it from the contents
	var l chroma.Lexer
	if len(n.Classes) > 0 {
		l = lexers.Get(n.Classes[0])
	}
	if l == nil {
		l = lexers.Analyse(n.Text)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	s := styles.Get(w.CodeStyle)
	f := hlhtml.New(hlhtml.Standalone(false), hlhtml.PreventSurroundingPre(true))

	it, err := l.Tokenise(nil, n.Text)
	if err != nil {
		return err
	}

	rb := &bytes.Buffer{}
	if err := f.Format(rb, s, it); err != nil {
		return err
	}

	br.Renderln(`<div class="codecolor">`)
	br.Render("<pre class='nohighlight precolor'>")
	br.Render(rb.Bytes())
	br.Renderln("</pre>")
	br.Renderln(`</div>`)
	return nil
}
