// Package triple defines the facts held for a sentence: subject, predicate,
// object triples whose object is either a node reference or a literal.
package triple

import (
	"fmt"
	"strings"
)

// LiteralSeparator joins multiple literal values of the same subject and
// predicate when they are shown as a single attribute.
const LiteralSeparator = "; "

// Kind distinguishes node references from literal values.
type Kind uint8

const (
	// KindIRI is a reference to a node or predicate.
	KindIRI Kind = iota + 1
	// KindLiteral is a string valued attribute.
	KindLiteral
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Term is an object value.
type Term struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// IRI returns a node reference term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Literal returns a literal term.
func Literal(v string) Term { return Term{Kind: KindLiteral, Value: v} }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String formats the term in N-Triples notation.
func (t Term) String() string {
	if t.Kind == KindLiteral {
		return `"` + EscapeLiteral(t.Value) + `"`
	}
	return "<" + t.Value + ">"
}

// Triple is a single fact. Subject and Predicate are always IRIs.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    Term   `json:"object"`
}

// New builds a relational triple between two nodes.
func New(subject, predicate, object string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: IRI(object)}
}

// NewLiteral builds an attribute triple.
func NewLiteral(subject, predicate, value string) Triple {
	return Triple{Subject: subject, Predicate: predicate, Object: Literal(value)}
}

// Key returns a string that is equal for equal triples.
func (t Triple) Key() string {
	return t.Subject + "\x00" + t.Predicate + "\x00" + t.Object.Kind.String() + "\x00" + t.Object.Value
}

// String formats the triple as an N-Triples statement.
func (t Triple) String() string {
	return fmt.Sprintf("<%s> <%s> %s .", t.Subject, t.Predicate, t.Object)
}

// EscapeLiteral escapes a literal value for N-Triples and Turtle output.
func EscapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
