package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/syntaxrules/triple"
)

// NTriples serializes facts one statement per line, in fact order.
func NTriples(facts []triple.Triple) string {
	var sb strings.Builder
	for _, f := range facts {
		sb.WriteString(f.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// TurtleWriter writes facts in Turtle format, grouping them by subject and
// abbreviating IRIs with the configured prefixes.
type TurtleWriter struct {
	prefixes map[string]string
	sb       strings.Builder
}

// NewTurtleWriter creates a Turtle writer with the given prefixes.
func NewTurtleWriter(prefixes map[string]string) *TurtleWriter {
	w := &TurtleWriter{prefixes: make(map[string]string, len(prefixes))}
	for k, v := range prefixes {
		w.prefixes[k] = v
	}
	return w
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations in prefix order.
func (w *TurtleWriter) WritePrefixes() {
	for _, prefix := range w.sortedPrefixes() {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, w.prefixes[prefix]))
	}
	w.sb.WriteString("\n")
}

// WriteFacts writes one block per subject, in first seen order.
func (w *TurtleWriter) WriteFacts(facts []triple.Triple) {
	for _, g := range groupBySubject(facts) {
		w.sb.WriteString(w.iri(g.subject))
		w.sb.WriteString("\n")
		for i, f := range g.facts {
			terminator := " ;"
			if i == len(g.facts)-1 {
				terminator = " ."
			}
			w.sb.WriteString(fmt.Sprintf("    %s %s%s\n", w.iri(f.Predicate), w.object(f.Object), terminator))
		}
		w.sb.WriteString("\n")
	}
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

func (w *TurtleWriter) sortedPrefixes() []string {
	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// iri abbreviates with the longest matching namespace when the local part is
// a plain name.
func (w *TurtleWriter) iri(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range w.prefixes {
		if ns != "" && strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS != "" {
		if local := iri[len(bestNS):]; isPlainLocal(local) {
			return best + ":" + local
		}
	}
	return "<" + iri + ">"
}

func (w *TurtleWriter) object(t triple.Term) string {
	if t.IsLiteral() {
		return t.String()
	}
	return w.iri(t.Value)
}

// isPlainLocal reports whether s can follow a prefix in Turtle as written.
// A leading '-' is not a valid PN_LOCAL start.
func isPlainLocal(s string) bool {
	if s == "" || s[0] == '-' {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// Turtle serializes facts with prefix declarations.
func Turtle(facts []triple.Triple, prefixes map[string]string) string {
	w := NewTurtleWriter(prefixes)
	w.WritePrefixes()
	w.WriteFacts(facts)
	return w.String()
}

// JSONLDDocument represents a JSON-LD document structure.
type JSONLDDocument struct {
	Context map[string]string `json:"@context"`
	Graph   []JSONLDNode      `json:"@graph"`
}

// JSONLDNode represents a node in a JSON-LD graph.
type JSONLDNode struct {
	ID         string
	Properties map[string][]any
}

// MarshalJSON flattens the properties next to @id. Single valued properties
// are written as values, repeated ones as arrays.
func (n JSONLDNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Properties)+1)
	m["@id"] = n.ID
	for k, vs := range n.Properties {
		if len(vs) == 1 {
			m[k] = vs[0]
		} else {
			m[k] = vs
		}
	}
	return json.Marshal(m)
}

// JSONLD serializes facts as a JSON-LD graph with one node per subject.
func JSONLD(facts []triple.Triple, prefixes map[string]string) ([]byte, error) {
	doc := JSONLDDocument{Context: make(map[string]string, len(prefixes)), Graph: make([]JSONLDNode, 0)}
	for k, v := range prefixes {
		if k == "" {
			k = "@vocab"
		}
		doc.Context[k] = v
	}
	for _, g := range groupBySubject(facts) {
		node := JSONLDNode{ID: g.subject, Properties: make(map[string][]any)}
		for _, f := range g.facts {
			var v any = f.Object.Value
			if !f.Object.IsLiteral() {
				v = map[string]string{"@id": f.Object.Value}
			}
			node.Properties[f.Predicate] = append(node.Properties[f.Predicate], v)
		}
		doc.Graph = append(doc.Graph, node)
	}
	return json.MarshalIndent(doc, "", "  ")
}

type subjectGroup struct {
	subject string
	facts   []triple.Triple
}

func groupBySubject(facts []triple.Triple) []subjectGroup {
	var groups []subjectGroup
	pos := make(map[string]int)
	for _, f := range facts {
		i, ok := pos[f.Subject]
		if !ok {
			i = len(groups)
			pos[f.Subject] = i
			groups = append(groups, subjectGroup{subject: f.Subject})
		}
		groups[i].facts = append(groups[i].facts, f)
	}
	return groups
}
