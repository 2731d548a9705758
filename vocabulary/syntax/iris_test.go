package syntax_test

import (
	"testing"

	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

func TestNamespaceRoundTrip(t *testing.T) {
	ns := syntax.Namespace(syntax.DefaultBase)

	iri := ns.IRI(syntax.Lemma)
	if iri != "http://example.com/jitp/lemma" {
		t.Fatalf("unexpected IRI %q", iri)
	}

	local, ok := ns.Local(iri)
	if !ok || local != syntax.Lemma {
		t.Errorf("Local(%q) = %q, %v", iri, local, ok)
	}

	if _, ok := ns.Local(syntax.RDFType); ok {
		t.Error("rdf:type should not be inside the base namespace")
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		iri  string
		want string
	}{
		{"http://example.com/jitp/t_1_dog", "t_1_dog"},
		{syntax.RDFType, "type"},
		{"plain", "plain"},
		{"http://example.com/", "http://example.com/"},
	}
	for _, tt := range tests {
		t.Run(tt.iri, func(t *testing.T) {
			if got := syntax.ShortID(tt.iri); got != tt.want {
				t.Errorf("ShortID(%q) = %q, want %q", tt.iri, got, tt.want)
			}
		})
	}
}

func TestIsGrammatical(t *testing.T) {
	if !syntax.IsGrammatical(syntax.Relation("nsubj")) {
		t.Error("rel_nsubj should be grammatical")
	}
	if syntax.IsGrammatical(syntax.Rel) {
		t.Error("rel is the generic marker, not a grammatical relation")
	}
}
