// Package drivertest provides an in-memory driver.Driver over a hand-built
// node tree, with a journal of every state-changing call.
package drivertest

import "strings"

// Node is one element of the fake DOM.
type Node struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []*Node
	Hidden   bool
	Disabled bool
	// HideOnClick hides the node once clicked, the way a popup close button
	// or a submitted login overlay disappears.
	HideOnClick bool
	// OnClick runs after the click is journaled.
	OnClick func()

	parent   *Node
	detached bool
	sub      map[string][]*Node
}

// El builds a node and adopts children.
func El(tag, text string, children ...*Node) *Node {
	n := &Node{Tag: strings.ToLower(tag), Text: text}
	n.Append(children...)
	return n
}

// Append adds children in order.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Attr sets an attribute and returns n.
func (n *Node) Attr(name, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[name] = value
	return n
}

// On registers nodes returned by Find/FindAll(xpath) relative to n, for
// expressions the structural matcher does not understand.
func (n *Node) On(xpath string, nodes ...*Node) *Node {
	if n.sub == nil {
		n.sub = map[string][]*Node{}
	}
	n.sub[xpath] = append(n.sub[xpath], nodes...)
	return n
}

// Detach marks the node and its subtree as removed from the document.
func (n *Node) Detach() { n.detached = true }

func (n *Node) stale() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.detached {
			return true
		}
	}
	return false
}

func (n *Node) descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

// query resolves the small XPath subset the tests need: ".//*", "./*",
// ".//tag" and "./tag". Anything else goes through On registrations.
func (n *Node) query(xpath string) []*Node {
	if nodes, ok := n.sub[xpath]; ok {
		return nodes
	}
	var pool []*Node
	var tag string
	switch {
	case strings.HasPrefix(xpath, ".//"):
		pool, tag = n.descendants(), strings.TrimPrefix(xpath, ".//")
	case strings.HasPrefix(xpath, "./"):
		pool, tag = n.Children, strings.TrimPrefix(xpath, "./")
	default:
		return nil
	}
	if tag == "*" {
		return pool
	}
	var out []*Node
	for _, c := range pool {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}
