package syntax

import (
	"strings"

	"github.com/c360studio/semstreams/vocabulary"
)

// Registered predicate names. These follow the domain.category.property
// convention of the semstreams vocabulary registry and are the predicates
// used when sentence facts leave the process as message triples.
const (
	// TokenID is the token sequence id.
	TokenID = "syntax.token.id"

	// TokenSentence is the sentence number of the token.
	TokenSentence = "syntax.token.sentence"

	// TokenWord is the surface form.
	TokenWord = "syntax.token.word"

	// TokenLemma is the dictionary form.
	TokenLemma = "syntax.token.lemma"

	// TokenPos is the part of speech tag.
	TokenPos = "syntax.token.pos"

	// TokenOffset is the character offset.
	TokenOffset = "syntax.token.offset"

	// TokenLexClass is a lexical class assigned by a lexicon.
	TokenLexClass = "syntax.token.lexclass"

	// DependencyAny marks every dependency edge.
	DependencyAny = "syntax.dependency.any"
)

const (
	relationCategory  = "syntax.relation."
	attributeCategory = "syntax.attribute."
)

// CommonRelations are the dependency relations registered up front. Other
// relations still map to a predicate name, just without registry metadata.
var CommonRelations = []string{
	"acl", "advcl", "advmod", "amod", "appos", "aux", "case", "cc", "ccomp",
	"compound", "conj", "cop", "det", "iobj", "mark", "nmod", "nsubj",
	"nummod", "obj", "obl", "punct", "root", "xcomp",
}

var tokenPredicates = map[string]string{
	ID:       TokenID,
	Sentence: TokenSentence,
	Word:     TokenWord,
	Lemma:    TokenLemma,
	Pos:      TokenPos,
	Offset:   TokenOffset,
	LexClass: TokenLexClass,
}

// PredicateName maps a local predicate name to its registered name:
// token attributes to syntax.token.*, rel to syntax.dependency.any, rel_X to
// syntax.relation.X and anything else to syntax.attribute.<local>.
func PredicateName(local string) string {
	if name, ok := tokenPredicates[local]; ok {
		return name
	}
	if local == Rel {
		return DependencyAny
	}
	if rel, ok := strings.CutPrefix(local, GrammaticalPrefix); ok {
		return RelationPredicate(rel)
	}
	return attributeCategory + local
}

// RelationPredicate returns the registered name of a dependency relation.
func RelationPredicate(relation string) string {
	return relationCategory + relation
}

func init() {
	base := Namespace(DefaultBase)

	// Register token predicates
	vocabulary.Register(TokenID,
		vocabulary.WithDescription("Token sequence id within the document"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(base.IRI(ID)))

	vocabulary.Register(TokenSentence,
		vocabulary.WithDescription("Sentence number the token belongs to"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(base.IRI(Sentence)))

	vocabulary.Register(TokenWord,
		vocabulary.WithDescription("Surface form of the token"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(base.IRI(Word)))

	vocabulary.Register(TokenLemma,
		vocabulary.WithDescription("Dictionary form of the token"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(base.IRI(Lemma)))

	vocabulary.Register(TokenPos,
		vocabulary.WithDescription("Part of speech tag"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(base.IRI(Pos)))

	vocabulary.Register(TokenOffset,
		vocabulary.WithDescription("Character offset of the token"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(base.IRI(Offset)))

	vocabulary.Register(TokenLexClass,
		vocabulary.WithDescription("Lexical class assigned by a lexicon entry; repeated values stack"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(base.IRI(LexClass)))

	// Register relation predicates
	vocabulary.Register(DependencyAny,
		vocabulary.WithDescription("Generic marker on every dependency edge"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(base.IRI(Rel)))

	for _, rel := range CommonRelations {
		vocabulary.Register(RelationPredicate(rel),
			vocabulary.WithDescription("Dependency relation "+rel+" from child to parent"),
			vocabulary.WithDataType("entity_id"),
			vocabulary.WithIRI(base.IRI(Relation(rel))))
	}
}
