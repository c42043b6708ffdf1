package rite

import (
	"fmt"
	"strings"
)

const StartHTMLTag = '<'
const EndHTMLTag = '>'

var VoidElements = []string{
	"area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "source", "track", "wbr",
}
var NoBlockElements = []string{
	"p", "a", "code", "b", "i", "em", "strong", "small", "s", "span",
}

func contains(set []string, tagName string) bool {
	for _, el := range set {
		if tagName == el {
			return true
		}
	}
	return false
}

// SkipWhiteSpace returns line without its leading blanks and tabs
func SkipWhiteSpace(line string) string {
	return strings.TrimLeft(line, " \t")
}

// ReadWord returns the first blank-delimited word and the rest of the line
func ReadWord(line string) (word string, rest string) {
	indexSpace := strings.IndexAny(line, " \t")
	if indexSpace == -1 {
		return line, ""
	}
	return line[:indexSpace], SkipWhiteSpace(line[indexSpace+1:])
}

// ReadTagName returns the tag name of a tag spec and the rest of the spec
func ReadTagName(tagSpec string) (tagName string, rest string) {
	return ReadWord(tagSpec)
}

// ReadQuotedWords reads a value that may be enclosed in single or double quotes.
// Unquoted values end at the first blank.
func ReadQuotedWords(spec string) (word string, rest string, err error) {
	if len(spec) == 0 {
		return "", "", nil
	}

	quote := spec[0]
	if quote != '"' && quote != '\'' {
		word, rest = ReadWord(spec)
		return word, rest, nil
	}

	i := strings.IndexByte(spec[1:], quote)
	if i == -1 {
		return "", "", fmt.Errorf("missing closing %c in %q", quote, spec)
	}
	return spec[1 : i+1], SkipWhiteSpace(spec[i+2:]), nil
}

// indexTagEnd returns the index of the '>' closing a tag, skipping quoted values
func indexTagEnd(content string) int {
	var quote byte
	for i := 1; i < len(content); i++ {
		c := content[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == EndHTMLTag:
			return i
		}
	}
	return -1
}

// parseAttributes processes the attributes of a tag or heading attribute set:
//
//	#id          shortcut for id="id"
//	.class       shortcut for class="class", accumulated
//	=value       shortcut for number="value"
//	key=value    standard attribute, value may be quoted
//	key          attribute without value
func parseAttributes(n *Node, spec string) error {
	for {
		spec = SkipWhiteSpace(spec)
		if len(spec) == 0 {
			return nil
		}

		var val string
		var err error

		switch spec[0] {
		case '#':
			if len(spec) < 2 {
				return fmt.Errorf("length of attributes must be greater than 1")
			}
			val, spec, err = ReadQuotedWords(spec[1:])
			if err != nil {
				return err
			}
			// Only the first id attribute is used, others are ignored
			if len(n.Id) == 0 {
				n.Id = val
			}

		case '.':
			if len(spec) < 2 {
				return fmt.Errorf("length of attributes must be greater than 1")
			}
			val, spec = ReadWord(spec[1:])
			n.AddClass(val)

		case '=':
			if len(spec) < 2 {
				return fmt.Errorf("length of attributes must be greater than 1")
			}
			val, spec, err = ReadQuotedWords(spec[1:])
			if err != nil {
				return err
			}
			if _, found := n.Attribute("number"); !found {
				n.SetAttribute("number", val)
			}

		default:
			var attr Attribute
			attr, spec, err = readTagAttrKey(spec)
			if err != nil {
				return err
			}
			switch attr.Key {
			case "id":
				if len(n.Id) == 0 {
					n.Id = attr.Val
				}
			case "class":
				for _, c := range strings.Fields(attr.Val) {
					n.AddClass(c)
				}
			default:
				n.Attr = append(n.Attr, attr)
			}
		}
	}
}

// readTagAttrKey reads an attribute in 'key=val' format, or a plain 'key'
func readTagAttrKey(spec string) (Attribute, string, error) {
	attr := Attribute{}

	i := strings.IndexAny(spec, " \t=")
	if i == -1 {
		attr.Key = spec
		return attr, "", nil
	}
	attr.Key = spec[:i]

	rest := SkipWhiteSpace(spec[i:])
	if len(rest) == 0 || rest[0] != '=' {
		return attr, rest, nil
	}

	val, rest, err := ReadQuotedWords(SkipWhiteSpace(rest[1:]))
	if err != nil {
		return attr, "", fmt.Errorf("attribute %s: %w", attr.Key, err)
	}
	attr.Val = val
	return attr, rest, nil
}
