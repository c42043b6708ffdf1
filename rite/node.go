package rite

import (
	"strconv"
	"strings"
)

// TreeNode holds the links of a Node inside the document tree.
type TreeNode struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// A NodeType is the type of a Node.
type NodeType uint32

const (
	ErrorNode NodeType = iota
	DocumentNode
	HeadingNode
	BlockNode
	ParagraphNode
	VerbatimNode
	TextNode
	RefNode
	LinkNode
	RawNode
	FragmentNode
)

// String returns a string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ErrorNode:
		return "Error"
	case DocumentNode:
		return "Document"
	case HeadingNode:
		return "Heading"
	case BlockNode:
		return "Block"
	case ParagraphNode:
		return "Paragraph"
	case VerbatimNode:
		return "Verbatim"
	case TextNode:
		return "Text"
	case RefNode:
		return "Ref"
	case LinkNode:
		return "Link"
	case RawNode:
		return "Raw"
	case FragmentNode:
		return "Fragment"
	}
	return "Invalid(" + strconv.Itoa(int(t)) + ")"
}

// Node is an element of the document tree.
// Block level nodes (headings, blocks, paragraphs) contain inline children
// (text, references, links and raw snippets).
type Node struct {
	TreeNode
	Type        NodeType
	Name        string // tag name for blocks, e.g. "div" or "x-code"
	Level       int    // heading level, 1 for '#'
	Id          string
	Classes     []string
	Attr        []Attribute
	Text        string // text of TextNode and RawNode, raw content of VerbatimNode
	Href        string // target of LinkNode
	Format      string // output format of RawNode ("html" or "latex")
	Inline      bool   // RawNode rendered inside a line
	LineNumber  int
	Indentation int
}

// An Attribute is a key-value pair of a node, in declaration order.
type Attribute struct {
	Key string
	Val string
}

// NewText returns a text node.
func NewText(s string) *Node {
	return &Node{Type: TextNode, Text: s}
}

// NewRaw returns a raw node for the given output format.
func NewRaw(format string, s string, inline bool) *Node {
	return &Node{Type: RawNode, Format: format, Text: s, Inline: inline}
}

// NewFragment returns a transparent container holding the given nodes.
func NewFragment(children ...*Node) *Node {
	f := &Node{Type: FragmentNode}
	for _, c := range children {
		f.AppendChild(c)
	}
	return f
}

// InsertBefore inserts newChild as a child of n, immediately before oldChild
// in the sequence of n's children. oldChild may be nil, in which case newChild
// is appended to the end of n's children.
//
// It will panic if newChild already has a parent or siblings.
func (n *Node) InsertBefore(newChild, oldChild *Node) {
	if newChild.Parent != nil || newChild.PrevSibling != nil || newChild.NextSibling != nil {
		panic("InsertBefore called for an attached child Node")
	}
	var prev, next *Node
	if oldChild != nil {
		prev, next = oldChild.PrevSibling, oldChild
	} else {
		prev = n.LastChild
	}
	if prev != nil {
		prev.NextSibling = newChild
	} else {
		n.FirstChild = newChild
	}
	if next != nil {
		next.PrevSibling = newChild
	} else {
		n.LastChild = newChild
	}
	newChild.Parent = n
	newChild.PrevSibling = prev
	newChild.NextSibling = next
}

// AppendChild adds a node child as a child of parent.
//
// It will panic if child already has a parent or siblings.
func (parent *Node) AppendChild(child *Node) {
	if child.Parent != nil || child.PrevSibling != nil || child.NextSibling != nil {
		panic("AppendChild called for an already attached child Node")
	}
	last := parent.LastChild
	if last != nil {
		last.NextSibling = child
	} else {
		parent.FirstChild = child
	}
	parent.LastChild = child

	child.Parent = parent
	child.PrevSibling = last
}

// RemoveChild removes a node child that is a child of n. Afterwards, child will have
// no parent and no siblings.
//
// It will panic if child's parent is not parent.
func (parent *Node) RemoveChild(child *Node) {
	if child.Parent != parent {
		panic("RemoveChild called for a non-child Node")
	}
	if parent.FirstChild == child {
		parent.FirstChild = child.NextSibling
	}
	if child.NextSibling != nil {
		child.NextSibling.PrevSibling = child.PrevSibling
	}
	if parent.LastChild == child {
		parent.LastChild = child.PrevSibling
	}
	if child.PrevSibling != nil {
		child.PrevSibling.NextSibling = child.NextSibling
	}

	// Make the child alone in the universe ...
	child.Parent = nil
	child.PrevSibling = nil
	child.NextSibling = nil
}

// ReparentChildren reparents all of src's child nodes to n.
func (n *Node) ReparentChildren(src *Node) {
	for {
		child := src.FirstChild
		if child == nil {
			break
		}
		src.RemoveChild(child)
		n.AppendChild(child)
	}
}

// Children returns a snapshot of the children of n.
// The tree can be modified while iterating over the result.
func (n *Node) Children() []*Node {
	var list []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		list = append(list, c)
	}
	return list
}

// Clone returns a new node with the same type, name and attributes.
// The Clone has no parent, no siblings and no children.
func (n *Node) Clone() *Node {
	m := &Node{
		Type:        n.Type,
		Name:        n.Name,
		Level:       n.Level,
		Id:          n.Id,
		Text:        n.Text,
		Href:        n.Href,
		Format:      n.Format,
		Inline:      n.Inline,
		LineNumber:  n.LineNumber,
		Indentation: n.Indentation,
		Classes:     make([]string, len(n.Classes)),
		Attr:        make([]Attribute, len(n.Attr)),
	}
	copy(m.Classes, n.Classes)
	copy(m.Attr, n.Attr)
	return m
}

// HasClass reports whether the node carries the class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class if the node does not have it yet.
func (n *Node) AddClass(class string) {
	if !n.HasClass(class) {
		n.Classes = append(n.Classes, class)
	}
}

// Attribute returns the value of the attribute and whether it is present.
func (n *Node) Attribute(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute replaces the value of key, or appends it when missing.
func (n *Node) SetAttribute(key string, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, Attribute{Key: key, Val: val})
}

// DeleteAttribute removes key from the attributes of the node.
func (n *Node) DeleteAttribute(key string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// PlainText concatenates the text of all inline descendants of n.
func (n *Node) PlainText() string {
	var sb strings.Builder
	var collect func(m *Node)
	collect = func(m *Node) {
		switch m.Type {
		case TextNode:
			sb.WriteString(m.Text)
		case RefNode:
			sb.WriteString(m.Id)
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

// String returns a short description of the node, for logging.
func (n *Node) String() string {
	switch n.Type {
	case DocumentNode:
		return "TopLevelDocument"
	case HeadingNode:
		return "<h" + strconv.Itoa(n.Level) + n.attrString() + ">"
	case BlockNode, VerbatimNode:
		return "<" + n.Name + n.attrString() + ">"
	case RefNode:
		return "<x-ref \"" + n.Id + "\">"
	}
	return n.Type.String()
}

func (n *Node) attrString() string {
	var sb strings.Builder
	if len(n.Id) > 0 {
		sb.WriteString(" #")
		sb.WriteString(n.Id)
	}
	for _, c := range n.Classes {
		sb.WriteString(" .")
		sb.WriteString(c)
	}
	for _, a := range n.Attr {
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(a.Val)
		sb.WriteString(`"`)
	}
	return sb.String()
}
