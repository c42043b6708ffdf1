package amsthm

import "github.com/hesusruiz/amsthm/rite"

// ExtractTitle returns the title of a matched block and whether it was given by the author.
// An explicit title attribute wins. Otherwise a heading that is the first child of the
// block becomes the title and is removed from the block. Without either, the display
// name of the environment is returned.
func ExtractTitle(n *rite.Node, env *Environment) (string, bool) {
	if title, found := n.Attribute("title"); found {
		return title, len(title) > 0
	}

	first := n.FirstChild
	if first != nil && first.Type == rite.HeadingNode {
		title := first.PlainText()
		n.RemoveChild(first)
		if len(title) > 0 {
			return title, true
		}
	}

	return env.Name, false
}
