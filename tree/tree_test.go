package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/syntaxrules/rules"
	"github.com/c360studio/syntaxrules/tree"
	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/triplestore"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

const base = syntax.DefaultBase

var (
	ns    = syntax.Namespace(base)
	dog   = base + "t_1_dog"
	barks = base + "t_2_bark"
)

func sentence() []triple.Triple {
	return []triple.Triple{
		triple.NewLiteral(dog, base+"id", "1"),
		triple.NewLiteral(dog, base+"lemma", "dog"),
		triple.NewLiteral(dog, base+"word", "dog"),
		triple.NewLiteral(dog, base+"pos", "N"),
		triple.NewLiteral(barks, base+"id", "2"),
		triple.NewLiteral(barks, base+"lemma", "bark"),
		triple.NewLiteral(barks, base+"word", "barks"),
		triple.NewLiteral(barks, base+"pos", "V"),
		triple.New(dog, base+"rel_nsubj", barks),
		triple.New(dog, base+"rel", barks),
		triple.New(dog, syntax.RDFType, base+"Token"),
		triple.New(barks, base+"frame", base+"f_1"),
	}
}

func predicates(tr *tree.Tree) []string {
	var out []string
	for _, e := range tr.Edges {
		out = append(out, e.Predicate)
	}
	return out
}

func TestMaterializeAttributes(t *testing.T) {
	facts := append(sentence(), triple.NewLiteral(dog, base+"lexclass", "animal"), triple.NewLiteral(dog, base+"lexclass", "pet"))
	tr := tree.Materialize(facts, ns, tree.DefaultOptions())

	n := tr.Node(dog)
	require.NotNil(t, n)
	assert.Equal(t, "t_1_dog", n.ID)
	assert.Equal(t, dog, n.URI)
	assert.Equal(t, "dog", n.Attr("lemma"))
	assert.Equal(t, "animal; pet", n.Attr("lexclass"))
	assert.Equal(t, "", n.Attr("missing"))
	assert.Equal(t, []string{dog, barks, base + "f_1"}, tr.Order)
}

func TestMaterializeFilters(t *testing.T) {
	tests := []struct {
		name string
		opts tree.Options
		want []string
	}{
		{"defaults drop rel and type", tree.DefaultOptions(), []string{"rel_nsubj", "frame"}},
		{"keep rel", tree.Options{}, []string{"rel_nsubj", "rel", "frame"}},
		{"ignore grammatical", tree.Options{IgnoreRel: true, IgnoreGrammatical: true}, []string{"frame"}},
		{"allow list", tree.Options{PredicateFilter: []string{"rel", "rel_nsubj"}}, []string{"rel_nsubj", "rel"}},
		{"allow list with rel ignored", tree.Options{IgnoreRel: true, PredicateFilter: []string{"rel"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tree.Materialize(sentence(), ns, tt.opts)
			assert.Equal(t, tt.want, predicates(tr))
		})
	}
}

func TestMinimal(t *testing.T) {
	tr := tree.Materialize(sentence(), ns, tree.DefaultOptions())
	assert.Equal(t, []tree.MinimalEdge{
		{Subject: "1", Predicate: "rel_nsubj", Object: "2"},
		{Subject: "2", Predicate: "frame", Object: "f_1"},
	}, tr.Minimal())

	nodes := tr.EdgeNodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, dog, nodes[0].URI)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := triplestore.NewMemory()
	require.NoError(t, store.Load(ctx, sentence()))

	a := rules.NewApplier(store, ns)
	_, err := a.ApplyRuleset(ctx, rules.Ruleset{Rules: []rules.Rule{
		{Condition: `?x :lemma "dog"`, Insert: `?x :lexclass "animal"`},
	}})
	require.NoError(t, err)

	facts, err := store.Triples(ctx)
	require.NoError(t, err)
	tr := tree.Materialize(facts, ns, tree.DefaultOptions())

	assert.Equal(t, "animal", tr.Node(dog).Attr("lexclass"))
	require.NotEmpty(t, tr.Edges)
	e := tr.Edges[0]
	assert.Equal(t, "rel_nsubj", e.Predicate)
	assert.Equal(t, dog, e.Child.URI)
	assert.Equal(t, barks, e.Parent.URI)
	assert.Equal(t, "barks", e.Parent.Attr("word"))
}
