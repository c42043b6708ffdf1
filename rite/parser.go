package rite

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hesusruiz/vcutils/yaml"
)

const blank byte = ' '
const commentPrefix = "//"

type SyntaxError struct {
	Filename string
	Line     int
	Column   int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Msg)
}

// Text is one source line, with the indentation already stripped from Content.
type Text struct {
	LineNumber  int
	Indentation int
	Content     string
	Raw         string
}

type Parser struct {
	// The source of the document for scanning
	s *bufio.Scanner

	// doc is the document root element.
	doc *Node

	// the file of the name being processed
	fileName string

	// To support one-level backtracking, which is enough for this parser
	bufferedLine *Text

	// currentLineCounter is the number of lines processed
	currentLineCounter int

	// This is true when we have read the whole file
	atEOF bool

	// Contains the last error encountered. When this is set, parsing stops
	lastError error

	syntaxErrors []*SyntaxError

	// FrontMatter is the raw YAML header of the document, if any
	FrontMatter string

	// Config gives dotted-path access to the front matter
	Config *yaml.YAML
}

var ErrorNoContent = errors.New("no content")

// NewParser parses a document reading lines from linescanner.
// filename is for logging/tracing purposes.
func NewParser(fileName string, linescanner *bufio.Scanner) *Parser {
	p := &Parser{
		fileName: fileName,
		s:        linescanner,
		doc: &Node{
			Type:        DocumentNode,
			Indentation: -1,
		},
	}

	// Initialise the config just in case we do not find a suitable one
	p.Config, _ = yaml.ParseYaml("")

	return p
}

func (p *Parser) AddSyntaxError(se *SyntaxError) {
	p.syntaxErrors = append(p.syntaxErrors, se)
}

func (p *Parser) syntaxError(line *Text, format string, args ...any) {
	p.AddSyntaxError(&SyntaxError{
		Filename: p.fileName,
		Line:     line.LineNumber,
		Column:   line.Indentation + 1,
		Msg:      fmt.Sprintf(format, args...),
	})
}

// Document returns the root of the parsed tree.
func (p *Parser) Document() *Node {
	return p.doc
}

// FileName returns the name of the file being parsed.
func (p *Parser) FileName() string {
	return p.fileName
}

// ParseFromBytes uses a byte array as the source and parses it in memory.
// filename is for logging/tracing purposes.
func ParseFromBytes(fileName string, src []byte) (*Parser, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, ErrorNoContent
	}

	linescanner := bufio.NewScanner(bytes.NewReader(src))
	p := NewParser(fileName, linescanner)

	if err := p.PreprocessYAMLHeader(); err != nil {
		return nil, err
	}

	if err := p.Parse(); err != nil {
		return nil, err
	}

	return p, nil
}

// ParseFromFile reads a file and parses it in memory.
func ParseFromFile(fileName string) (*Parser, error) {
	src, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return ParseFromBytes(fileName, src)
}

// Parse builds the document tree from the remaining lines of the source.
func (p *Parser) Parse() error {
	p.parseChildren(p.doc, p.doc.Indentation)

	if p.lastError != nil {
		return p.lastError
	}
	if len(p.syntaxErrors) > 0 {
		errs := make([]error, len(p.syntaxErrors))
		for i, se := range p.syntaxErrors {
			errs[i] = se
		}
		return errors.Join(errs...)
	}
	return nil
}

// ReadLine returns one line from the underlying bufio.Scanner, or nil at EOF.
// Blank lines are returned with empty Content.
// It supports one-level backtracking, with the UnreadLine method.
func (p *Parser) ReadLine() *Text {
	if p.lastError != nil {
		return nil
	}

	// If there is a line alredy buffered, return it
	if p.bufferedLine != nil {
		line := p.bufferedLine
		p.bufferedLine = nil
		return line
	}

	if p.s.Scan() {
		rawLine := p.s.Text()
		p.currentLineCounter++

		// We do not support other whitespace like tabs for indentation
		content := strings.TrimLeft(rawLine, string(blank))
		return &Text{
			LineNumber:  p.currentLineCounter,
			Indentation: len(rawLine) - len(content),
			Content:     strings.TrimSpace(content),
			Raw:         rawLine,
		}
	}

	if err := p.s.Err(); err != nil {
		p.lastError = err
		return nil
	}

	p.atEOF = true
	return nil
}

// UnreadLine allows one-level backtracking by buffering one line that was already returned
func (p *Parser) UnreadLine(line *Text) {
	if p.bufferedLine != nil {
		p.lastError = fmt.Errorf("unreadLine: too many calls in line: %d", p.currentLineCounter)
		return
	}
	p.bufferedLine = line
}

// SkipBlankLines skips blank or comment lines.
// Returns true if a non-blank line was found, false on EOF.
func (p *Parser) SkipBlankLines() bool {
	for {
		line := p.ReadLine()
		if line == nil {
			return false
		}
		if len(line.Content) == 0 || strings.HasPrefix(line.Content, commentPrefix) {
			continue
		}
		p.UnreadLine(line)
		return true
	}
}

// parseChildren appends to parent all the nodes more indented than parentIndentation
func (p *Parser) parseChildren(parent *Node, parentIndentation int) {
	for p.SkipBlankLines() {
		line := p.ReadLine()
		if line.Indentation <= parentIndentation {
			p.UnreadLine(line)
			return
		}

		switch {
		case isHeading(line.Content):
			parent.AppendChild(p.newHeading(line))

		case isBlockTag(line.Content):
			n, rest := p.newBlock(line)
			parent.AppendChild(n)
			if n.Type == VerbatimNode {
				p.parseVerbatim(n, line.Indentation)
				continue
			}
			if len(rest) > 0 {
				para := &Node{Type: ParagraphNode, LineNumber: line.LineNumber, Indentation: line.Indentation + 1}
				appendInlines(para, rest)
				n.AppendChild(para)
			}
			p.parseChildren(n, line.Indentation)

		default:
			parent.AppendChild(p.newParagraph(line))
		}
	}
}

func isHeading(content string) bool {
	trimmed := strings.TrimLeft(content, "#")
	level := len(content) - len(trimmed)
	return level > 0 && level <= 6 && (len(trimmed) == 0 || trimmed[0] == ' ')
}

func isBlockTag(content string) bool {
	if len(content) < 3 || content[0] != StartHTMLTag {
		return false
	}
	name, _ := ReadTagName(content[1:])
	if i := strings.IndexByte(name, EndHTMLTag); i >= 0 {
		name = name[:i]
	}
	if len(name) == 0 || strings.HasPrefix(name, "x-ref") {
		return false
	}
	return !contains(NoBlockElements, name) && !contains(VoidElements, name)
}

// newHeading builds a heading node from a line like '## Title {#id .unnumbered}'
func (p *Parser) newHeading(line *Text) *Node {
	trimmed := strings.TrimLeft(line.Content, "#")
	n := &Node{
		Type:        HeadingNode,
		Level:       len(line.Content) - len(trimmed),
		LineNumber:  line.LineNumber,
		Indentation: line.Indentation,
	}
	n.Name = fmt.Sprintf("h%d", n.Level)

	text := strings.TrimSpace(trimmed)

	// An optional attribute set at the end of the heading
	if strings.HasSuffix(text, "}") {
		if i := strings.LastIndexByte(text, '{'); i >= 0 {
			if err := parseAttributes(n, text[i+1:len(text)-1]); err != nil {
				p.syntaxError(line, "heading attributes: %v", err)
			}
			text = strings.TrimSpace(text[:i])
		}
	}

	appendInlines(n, text)
	return n
}

// newBlock builds a node from a line starting with a tag, returning the rest of the line
func (p *Parser) newBlock(line *Text) (*Node, string) {
	n := &Node{
		Type:        BlockNode,
		LineNumber:  line.LineNumber,
		Indentation: line.Indentation,
	}

	// The end bracket is optional if there is no more text in the line after the tag attributes
	content := line.Content
	end := indexTagEnd(content)
	var tagString, rest string
	if end == -1 {
		tagString = content[1:]
	} else {
		tagString = content[1:end]
		rest = strings.TrimSpace(content[end+1:])
	}

	name, restOfTag := ReadTagName(tagString)
	n.Name = name

	switch n.Name {
	case "pre", "x-code":
		n.Type = VerbatimNode
	}

	if err := parseAttributes(n, restOfTag); err != nil {
		p.syntaxError(line, "tag <%s>: %v", n.Name, err)
	}

	return n, rest
}

// parseVerbatim reads the lines indented more than the tag, keeping them as they are
func (p *Parser) parseVerbatim(n *Node, tagIndentation int) {
	var lines []string
	contentIndentation := -1

	for {
		line := p.ReadLine()
		if line == nil {
			break
		}
		if len(line.Content) > 0 && line.Indentation <= tagIndentation {
			p.UnreadLine(line)
			break
		}
		if len(line.Content) > 0 && (contentIndentation == -1 || line.Indentation < contentIndentation) {
			contentIndentation = line.Indentation
		}
		lines = append(lines, line.Raw)
	}

	// Trailing blank lines belong to the surrounding text
	for len(lines) > 0 && len(strings.TrimSpace(lines[len(lines)-1])) == 0 {
		lines = lines[:len(lines)-1]
	}

	for i, l := range lines {
		if len(l) >= contentIndentation && contentIndentation > 0 {
			lines[i] = l[contentIndentation:]
		} else {
			lines[i] = strings.TrimLeft(l, string(blank))
		}
	}
	n.Text = strings.Join(lines, "\n")
}

// newParagraph reads contiguous lines at the same indentation
func (p *Parser) newParagraph(first *Text) *Node {
	n := &Node{
		Type:        ParagraphNode,
		LineNumber:  first.LineNumber,
		Indentation: first.Indentation,
	}

	parts := []string{first.Content}
	for {
		line := p.ReadLine()
		if line == nil {
			break
		}
		if len(line.Content) == 0 || line.Indentation != first.Indentation ||
			isHeading(line.Content) || isBlockTag(line.Content) ||
			strings.HasPrefix(line.Content, commentPrefix) {
			p.UnreadLine(line)
			break
		}
		parts = append(parts, line.Content)
	}

	appendInlines(n, strings.Join(parts, "\n"))
	return n
}

var reXRef = regexp.MustCompile(`<x-ref +"?([^"\s>]+)"? *>`)

// appendInlines splits text in text runs and cross-references
func appendInlines(n *Node, text string) {
	matches := reXRef.FindAllStringSubmatchIndex(text, -1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			n.AppendChild(NewText(text[last:m[0]]))
		}
		n.AppendChild(&Node{Type: RefNode, Id: text[m[2]:m[3]], LineNumber: n.LineNumber})
		last = m[1]
	}
	if last < len(text) {
		n.AppendChild(NewText(text[last:]))
	}
}

// PreprocessYAMLHeader reads the front matter at the beginning of the file, if there is one
func (p *Parser) PreprocessYAMLHeader() error {
	if !p.SkipBlankLines() {
		return ErrorNoContent
	}

	line := p.ReadLine()

	// We accept YAML data only at the beginning of the file
	if line.Content != "---" {
		p.UnreadLine(line)
		return nil
	}

	// Build a string with all subsequent lines up to the next "---"
	var yamlString strings.Builder
	var endYamlFound bool

	for {
		line := p.ReadLine()
		if line == nil {
			break
		}
		if line.Content == "---" {
			endYamlFound = true
			break
		}
		yamlString.WriteString(line.Raw)
		yamlString.WriteString("\n")
	}

	if !endYamlFound {
		return &SyntaxError{Filename: p.fileName, Line: p.currentLineCounter, Column: 1,
			Msg: "end of file reached but no end of YAML section found"}
	}

	p.FrontMatter = yamlString.String()

	config, err := yaml.ParseYaml(p.FrontMatter)
	if err != nil {
		return fmt.Errorf("%s: malformed YAML metadata: %w", p.fileName, err)
	}
	p.Config = config

	return nil
}
