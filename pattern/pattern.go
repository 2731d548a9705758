// Package pattern implements the triple pattern language used by rewrite
// rules: conjunctive "where" clauses that are matched against a set of
// facts, and templates that are instantiated once per solution.
package pattern

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/syntaxrules/triple"
)

// Errors returned while instantiating templates.
var (
	// ErrUnboundVariable is returned when a template references a variable
	// that the condition does not bind.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrLiteralPosition is returned when a literal would end up in subject
	// or predicate position.
	ErrLiteralPosition = errors.New("literal in subject or predicate position")
)

// TermKind is the kind of a pattern term.
type TermKind uint8

const (
	// Var is a variable, written ?name.
	Var TermKind = iota + 1
	// IRI is a fixed node or predicate.
	IRI
	// Literal is a fixed literal value.
	Literal
)

// Term is one position of a triple pattern.
type Term struct {
	Kind  TermKind
	Value string
}

// Variable returns a variable term.
func Variable(name string) Term { return Term{Kind: Var, Value: name} }

// Node returns a fixed IRI term.
func Node(iri string) Term { return Term{Kind: IRI, Value: iri} }

// Lit returns a fixed literal term.
func Lit(v string) Term { return Term{Kind: Literal, Value: v} }

// FromTerm converts a concrete term into a fixed pattern term.
func FromTerm(t triple.Term) Term {
	if t.IsLiteral() {
		return Lit(t.Value)
	}
	return Node(t.Value)
}

func (t Term) String() string {
	switch t.Kind {
	case Var:
		return "?" + t.Value
	case Literal:
		return `"` + triple.EscapeLiteral(t.Value) + `"`
	default:
		return "<" + t.Value + ">"
	}
}

// TriplePattern is a triple whose positions may be variables.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (tp TriplePattern) terms() [3]Term {
	return [3]Term{tp.Subject, tp.Predicate, tp.Object}
}

func (tp TriplePattern) String() string {
	return tp.Subject.String() + " " + tp.Predicate.String() + " " + tp.Object.String() + " ."
}

// Pattern is a conjunction of triple patterns.
type Pattern []TriplePattern

// Variables returns the distinct variable names of the pattern, sorted.
func (p Pattern) Variables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, tp := range p {
		for _, term := range tp.terms() {
			if term.Kind == Var && !seen[term.Value] {
				seen[term.Value] = true
				names = append(names, term.Value)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, tp := range p {
		parts[i] = tp.String()
	}
	return strings.Join(parts, "\n")
}

// Template is a pattern used to produce facts from a binding.
type Template Pattern

// Variables returns the distinct variable names of the template, sorted.
func (t Template) Variables() []string { return Pattern(t).Variables() }

func (t Template) String() string { return Pattern(t).String() }

// Instantiate substitutes the binding into every triple of the template.
func (t Template) Instantiate(b Binding) ([]triple.Triple, error) {
	out := make([]triple.Triple, 0, len(t))
	for _, tp := range t {
		s, err := b.resolve(tp.Subject)
		if err != nil {
			return nil, err
		}
		p, err := b.resolve(tp.Predicate)
		if err != nil {
			return nil, err
		}
		o, err := b.resolve(tp.Object)
		if err != nil {
			return nil, err
		}
		if s.IsLiteral() || p.IsLiteral() {
			return nil, fmt.Errorf("%w: %s", ErrLiteralPosition, tp)
		}
		out = append(out, triple.Triple{Subject: s.Value, Predicate: p.Value, Object: o})
	}
	return out, nil
}

// Unbound returns the template variables that vars does not contain.
func (t Template) Unbound(vars []string) []string {
	have := make(map[string]bool, len(vars))
	for _, v := range vars {
		have[v] = true
	}
	var missing []string
	for _, v := range t.Variables() {
		if !have[v] {
			missing = append(missing, v)
		}
	}
	return missing
}

// Binding maps variable names to values.
type Binding map[string]triple.Term

func (b Binding) resolve(t Term) (triple.Term, error) {
	switch t.Kind {
	case Var:
		v, ok := b[t.Value]
		if !ok {
			return triple.Term{}, fmt.Errorf("%w: ?%s", ErrUnboundVariable, t.Value)
		}
		return v, nil
	case Literal:
		return triple.Literal(t.Value), nil
	default:
		return triple.IRI(t.Value), nil
	}
}

func (b Binding) clone() Binding {
	c := make(Binding, len(b)+1)
	for k, v := range b {
		c[k] = v
	}
	return c
}

func (b Binding) key(vars []string) string {
	var sb strings.Builder
	for _, v := range vars {
		term := b[v]
		sb.WriteString(term.Kind.String())
		sb.WriteByte(0)
		sb.WriteString(term.Value)
		sb.WriteByte(0)
	}
	return sb.String()
}
