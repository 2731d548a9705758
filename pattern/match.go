package pattern

import "github.com/c360studio/syntaxrules/triple"

// Match returns every distinct binding of the pattern's variables for which
// each triple pattern unifies with at least one fact. Solutions are returned
// in the order they are found walking the facts in order. An empty pattern
// has exactly one, empty, solution.
func Match(p Pattern, facts []triple.Triple) []Binding {
	if len(p) == 0 {
		return []Binding{{}}
	}

	m := &matcher{
		facts: facts,
		order: planOrder(p),
		vars:  p.Variables(),
		seen:  make(map[string]bool),
	}
	m.solve(0, Binding{})
	return m.results
}

type matcher struct {
	facts   []triple.Triple
	order   []TriplePattern
	vars    []string
	seen    map[string]bool
	results []Binding
}

func (m *matcher) solve(depth int, b Binding) {
	if depth == len(m.order) {
		k := b.key(m.vars)
		if !m.seen[k] {
			m.seen[k] = true
			m.results = append(m.results, b)
		}
		return
	}

	tp := m.order[depth]
	for _, f := range m.facts {
		next, ok := unify(tp, f, b)
		if ok {
			m.solve(depth+1, next)
		}
	}
}

// unify returns b extended with the bindings needed for tp to equal f.
func unify(tp TriplePattern, f triple.Triple, b Binding) (Binding, bool) {
	values := [3]triple.Term{triple.IRI(f.Subject), triple.IRI(f.Predicate), f.Object}
	terms := tp.terms()

	var added Binding
	lookup := func(name string) (triple.Term, bool) {
		if v, ok := b[name]; ok {
			return v, true
		}
		v, ok := added[name]
		return v, ok
	}

	for i, term := range terms {
		val := values[i]
		switch term.Kind {
		case Var:
			if bound, ok := lookup(term.Value); ok {
				if bound != val {
					return nil, false
				}
				continue
			}
			if added == nil {
				added = make(Binding, 3)
			}
			added[term.Value] = val
		case Literal:
			if !val.IsLiteral() || val.Value != term.Value {
				return nil, false
			}
		default:
			if val.IsLiteral() || val.Value != term.Value {
				return nil, false
			}
		}
	}

	if len(added) == 0 {
		return b, true
	}
	next := b.clone()
	for k, v := range added {
		next[k] = v
	}
	return next, true
}

// planOrder orders triple patterns so that each step has as many positions
// fixed as possible, given the variables bound by the steps before it. Ties
// keep the written order.
func planOrder(p Pattern) []TriplePattern {
	remaining := make([]TriplePattern, len(p))
	copy(remaining, p)
	bound := make(map[string]bool)
	order := make([]TriplePattern, 0, len(p))

	for len(remaining) > 0 {
		best, bestScore := 0, -1
		for i, tp := range remaining {
			score := 0
			for _, term := range tp.terms() {
				if term.Kind != Var || bound[term.Value] {
					score++
				}
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		tp := remaining[best]
		order = append(order, tp)
		for _, term := range tp.terms() {
			if term.Kind == Var {
				bound[term.Value] = true
			}
		}
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return order
}
