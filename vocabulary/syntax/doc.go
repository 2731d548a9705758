// Package syntax provides the vocabulary used to describe a dependency
// parsed sentence as triples.
//
// Token nodes live under a configurable base namespace. Token attributes
// (lemma, pos, word, ...) are literal valued predicates in that namespace,
// dependency relations are node to node predicates named rel_<relation>,
// and every dependency is additionally marked with the generic rel
// predicate.
//
// # Namespaces
//
// All prefix handling on IRIs happens through Namespace:
//
//	ns := syntax.Namespace(syntax.DefaultBase)
//	ns.IRI(syntax.Lemma)          // "http://example.com/jitp/lemma"
//	ns.Local("http://example.com/jitp/rel_nsubj") // "rel_nsubj", true
package syntax
