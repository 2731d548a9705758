// Package tree projects the flat facts of a sentence into nodes with
// attributes and the relation edges between them.
package tree

import (
	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// Node is a token or other node with its literal attributes.
type Node struct {
	URI string `json:"uri"`
	// ID is the last path segment of URI.
	ID    string            `json:"id"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Attr returns an attribute value, or "" when the node does not have it.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// Label returns the identifier used in minimal edges: the token id
// attribute when present, the derived ID otherwise.
func (n *Node) Label() string {
	if v, ok := n.Attrs[syntax.ID]; ok {
		return v
	}
	return n.ID
}

// Edge is a relation from a child to its parent.
type Edge struct {
	Child     *Node
	Predicate string
	Parent    *Node
}

// MinimalEdge is an edge reduced to identifiers.
type MinimalEdge struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// Options controls which relational facts become edges.
type Options struct {
	// IgnoreRel drops the generic rel marker.
	IgnoreRel bool
	// IgnoreGrammatical drops rel_* relations.
	IgnoreGrammatical bool
	// PredicateFilter, when not empty, keeps only the listed predicates.
	PredicateFilter []string
}

// DefaultOptions drops rel and keeps everything else.
func DefaultOptions() Options {
	return Options{IgnoreRel: true}
}

// Tree is the materialized view of a sentence.
type Tree struct {
	Nodes map[string]*Node
	// Order lists node URIs in the order they were first seen.
	Order []string
	Edges []Edge
}

// Materialize builds the tree from facts in a single pass. Predicates are
// reported as local names of ns. Repeated literal values for the same node
// and attribute are joined with triple.LiteralSeparator. rdf:type facts
// never become edges.
func Materialize(facts []triple.Triple, ns syntax.Namespace, opts Options) *Tree {
	t := &Tree{Nodes: make(map[string]*Node)}

	var allow map[string]bool
	if len(opts.PredicateFilter) > 0 {
		allow = make(map[string]bool, len(opts.PredicateFilter))
		for _, p := range opts.PredicateFilter {
			allow[p] = true
		}
	}

	for _, f := range facts {
		child := t.node(f.Subject)
		pred, _ := ns.Local(f.Predicate)

		if f.Object.IsLiteral() {
			if prev, ok := child.Attrs[pred]; ok {
				child.Attrs[pred] = prev + triple.LiteralSeparator + f.Object.Value
			} else {
				child.Attrs[pred] = f.Object.Value
			}
			continue
		}

		switch {
		case f.Predicate == syntax.RDFType:
			continue
		case opts.IgnoreRel && pred == syntax.Rel:
			continue
		case opts.IgnoreGrammatical && syntax.IsGrammatical(pred):
			continue
		case allow != nil && !allow[pred]:
			continue
		}
		t.Edges = append(t.Edges, Edge{Child: child, Predicate: pred, Parent: t.node(f.Object.Value)})
	}
	return t
}

func (t *Tree) node(uri string) *Node {
	if n, ok := t.Nodes[uri]; ok {
		return n
	}
	n := &Node{URI: uri, ID: syntax.ShortID(uri), Attrs: make(map[string]string)}
	t.Nodes[uri] = n
	t.Order = append(t.Order, uri)
	return n
}

// Node returns the node for uri, or nil.
func (t *Tree) Node(uri string) *Node {
	return t.Nodes[uri]
}

// Minimal returns the edges reduced to node labels.
func (t *Tree) Minimal() []MinimalEdge {
	out := make([]MinimalEdge, len(t.Edges))
	for i, e := range t.Edges {
		out[i] = MinimalEdge{Subject: e.Child.Label(), Predicate: e.Predicate, Object: e.Parent.Label()}
	}
	return out
}

// EdgeNodes returns the nodes that take part in at least one edge, in node
// order.
func (t *Tree) EdgeNodes() []*Node {
	used := make(map[*Node]bool)
	for _, e := range t.Edges {
		used[e.Child] = true
		used[e.Parent] = true
	}
	var out []*Node
	for _, uri := range t.Order {
		if n := t.Nodes[uri]; used[n] {
			out = append(out, n)
		}
	}
	return out
}
