package triplestore

import (
	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// Token is a subject together with its literal attributes.
type Token struct {
	Subject string
	Attrs   map[string]string
}

// Tokens groups the literal facts by subject. Attribute names are local to
// ns; predicates outside it keep their full IRI. Repeated values are joined
// with triple.LiteralSeparator. Tokens are returned in the order their
// subject first carries a literal.
func Tokens(facts []triple.Triple, ns syntax.Namespace) []Token {
	var out []Token
	pos := make(map[string]int)
	for _, f := range facts {
		if !f.Object.IsLiteral() {
			continue
		}
		i, ok := pos[f.Subject]
		if !ok {
			i = len(out)
			pos[f.Subject] = i
			out = append(out, Token{Subject: f.Subject, Attrs: make(map[string]string)})
		}
		name, _ := ns.Local(f.Predicate)
		if prev, ok := out[i].Attrs[name]; ok {
			out[i].Attrs[name] = prev + triple.LiteralSeparator + f.Object.Value
		} else {
			out[i].Attrs[name] = f.Object.Value
		}
	}
	return out
}
