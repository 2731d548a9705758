package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/syntaxrules/tree"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// DefaultIgnoreAttrs are the node attributes left out of DOT labels.
var DefaultIgnoreAttrs = []string{syntax.ID, syntax.Offset, syntax.Sentence, "uri", syntax.Word}

// DOTOptions controls Graphviz rendering.
type DOTOptions struct {
	// IgnoreAttrs lists attributes not shown in node labels. Nil uses
	// DefaultIgnoreAttrs.
	IgnoreAttrs []string
	// EdgeAttrs returns extra attributes for an edge. Nil draws grammatical
	// relations grey.
	EdgeAttrs func(tree.Edge) map[string]string
}

// GreyGrammatical colors rel_* edges grey.
func GreyGrammatical(e tree.Edge) map[string]string {
	if syntax.IsGrammatical(e.Predicate) {
		return map[string]string{"color": "grey"}
	}
	return nil
}

// DOT renders the nodes taking part in edges, and the edges, as a bottom to
// top Graphviz digraph.
func DOT(t *tree.Tree, opts DOTOptions) string {
	ignore := opts.IgnoreAttrs
	if ignore == nil {
		ignore = DefaultIgnoreAttrs
	}
	skip := make(map[string]bool, len(ignore))
	for _, a := range ignore {
		skip[a] = true
	}
	edgeAttrs := opts.EdgeAttrs
	if edgeAttrs == nil {
		edgeAttrs = GreyGrammatical
	}

	var sb strings.Builder
	sb.WriteString("digraph {\n")
	sb.WriteString("  graph [rankdir=BT];\n")
	sb.WriteString("  node [shape=rect, fontsize=10];\n")
	sb.WriteString("  edge [fontsize=10, edgesize=10];\n")

	for _, n := range t.EdgeNodes() {
		label := n.Label() + ": " + n.Attr(syntax.Word)
		names := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			if !skip[k] {
				names = append(names, k)
			}
		}
		sort.Strings(names)
		for _, k := range names {
			label += "\n" + k + ": " + n.Attrs[k]
		}
		sb.WriteString(fmt.Sprintf("  %s [label=%s];\n", quoteDOT(n.ID), quoteDOT(label)))
	}

	for _, e := range t.Edges {
		attrs := map[string]string{}
		for k, v := range edgeAttrs(e) {
			attrs[k] = v
		}
		if _, ok := attrs["label"]; !ok {
			attrs["label"] = e.Predicate
		}
		sb.WriteString(fmt.Sprintf("  %s -> %s [%s];\n", quoteDOT(e.Child.ID), quoteDOT(e.Parent.ID), formatAttrs(attrs)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func formatAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + quoteDOT(attrs[k])
	}
	return strings.Join(parts, ", ")
}

func quoteDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return `"` + s + `"`
}

// TreeDocument is the JSON view of a tree.
type TreeDocument struct {
	Nodes []*tree.Node `json:"nodes"`
	Edges []TreeEdge   `json:"edges"`
}

// TreeEdge references nodes by URI.
type TreeEdge struct {
	Child     string `json:"child"`
	Predicate string `json:"predicate"`
	Parent    string `json:"parent"`
}

// JSON renders the tree. With minimal set only the edges reduced to node ids
// are written.
func JSON(t *tree.Tree, minimal bool) ([]byte, error) {
	if minimal {
		return json.MarshalIndent(t.Minimal(), "", "  ")
	}
	doc := TreeDocument{Nodes: make([]*tree.Node, 0, len(t.Order)), Edges: make([]TreeEdge, 0, len(t.Edges))}
	for _, uri := range t.Order {
		doc.Nodes = append(doc.Nodes, t.Nodes[uri])
	}
	for _, e := range t.Edges {
		doc.Edges = append(doc.Edges, TreeEdge{Child: e.Child.URI, Predicate: e.Predicate, Parent: e.Parent.URI})
	}
	return json.MarshalIndent(doc, "", "  ")
}
