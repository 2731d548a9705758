package syntax

import "strings"

// Token attribute predicates. These are local names; use Namespace.IRI to
// obtain the predicate IRI.
const (
	// ID is the token sequence id within the document.
	ID = "id"

	// Sentence is the sentence number the token belongs to.
	Sentence = "sentence"

	// Word is the surface form of the token.
	Word = "word"

	// Lemma is the dictionary form of the token.
	Lemma = "lemma"

	// Pos is the part of speech tag.
	Pos = "pos"

	// Offset is the character offset of the token.
	Offset = "offset"

	// LexClass is attached to tokens by lexicon rules.
	LexClass = "lexclass"
)

// Relation predicates.
const (
	// Rel marks every dependency edge regardless of its relation.
	Rel = "rel"

	// GrammaticalPrefix starts every relation specific predicate.
	GrammaticalPrefix = "rel_"
)

// Relation returns the local predicate name for a grammatical relation,
// e.g. Relation("nsubj") == "rel_nsubj".
func Relation(name string) string {
	return GrammaticalPrefix + name
}

// IsGrammatical reports whether local is a relation specific predicate.
func IsGrammatical(local string) bool {
	return strings.HasPrefix(local, GrammaticalPrefix)
}
