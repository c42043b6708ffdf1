package rite

import "fmt"

// ActionKind tells the walker what to do with the node that was visited.
type ActionKind int

const (
	Keep ActionKind = iota
	Replace
	ReplaceWithSequence
	Remove
)

func (k ActionKind) String() string {
	switch k {
	case Keep:
		return "Keep"
	case Replace:
		return "Replace"
	case ReplaceWithSequence:
		return "ReplaceWithSequence"
	case Remove:
		return "Remove"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// Action is the decision taken by a visitor for one node.
// Use the constructors instead of building it by hand.
type Action struct {
	Kind  ActionKind
	Nodes []*Node
}

// KeepNode leaves the node in place and descends into its children.
func KeepNode() Action { return Action{Kind: Keep} }

// ReplaceNode substitutes the visited node by n.
func ReplaceNode(n *Node) Action { return Action{Kind: Replace, Nodes: []*Node{n}} }

// ReplaceWith substitutes the visited node by the sequence of nodes, in order.
func ReplaceWith(nodes ...*Node) Action { return Action{Kind: ReplaceWithSequence, Nodes: nodes} }

// RemoveNode deletes the visited node from the tree.
func RemoveNode() Action { return Action{Kind: Remove} }

// Visitor decides what happens to a node. It may modify the node in place.
type Visitor func(n *Node) (Action, error)

// Walk visits the tree rooted at root in pre-order, asking visit for exactly one
// decision per node. Nodes introduced by Replace or ReplaceWithSequence are not
// offered to visit, but their children are walked. The visited node may be one
// of the nodes of a ReplaceWithSequence, to insert nodes around it.
// The root itself is always kept.
func Walk(root *Node, visit Visitor) error {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling

		action, err := visit(c)
		if err != nil {
			return err
		}

		switch action.Kind {
		case Keep:
			if err := Walk(c, visit); err != nil {
				return err
			}

		case Replace, ReplaceWithSequence:
			if action.Kind == Replace && len(action.Nodes) != 1 {
				return fmt.Errorf("replace of %s needs exactly one node, got %d", c, len(action.Nodes))
			}

			// The visited node may be part of its own replacement: the nodes before it
			// are inserted before it and the ones after it before its old next sibling.
			anchor, kept := c, false
			for _, m := range action.Nodes {
				if m == c {
					anchor, kept = next, true
					continue
				}
				if m.Parent != nil {
					m.Parent.RemoveChild(m)
				}
				root.InsertBefore(m, anchor)
			}
			if !kept {
				root.RemoveChild(c)
			}
			for _, m := range action.Nodes {
				if err := Walk(m, visit); err != nil {
					return err
				}
			}

		case Remove:
			root.RemoveChild(c)

		default:
			return fmt.Errorf("unknown action %s for %s", action.Kind, c)
		}

		c = next
	}
	return nil
}
