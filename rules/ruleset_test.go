package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/syntaxrules/pattern"
)

func TestLexEntryMatches(t *testing.T) {
	tests := []struct {
		name  string
		entry LexEntry
		pos   string
		lemma string
		want  bool
	}{
		{"exact", LexEntry{Lemma: Lemmas{"run", "walk"}}, "V", "run", true},
		{"case insensitive", LexEntry{Lemma: Lemmas{"Run"}}, "V", "RUN", true},
		{"wildcard prefix", LexEntry{Lemma: Lemmas{"run*"}}, "V", "running", true},
		{"wildcard matches stem itself", LexEntry{Lemma: Lemmas{"run*"}}, "V", "run", true},
		{"wildcard case insensitive", LexEntry{Lemma: Lemmas{"RUN*"}}, "V", "Running", true},
		{"no match", LexEntry{Lemma: Lemmas{"walk"}}, "V", "run", false},
		{"star only inside", LexEntry{Lemma: Lemmas{"r*n"}}, "V", "run", false},
		{"pos matches", LexEntry{Lemma: Lemmas{"run"}, Pos: "V"}, "V", "run", true},
		{"pos mismatch", LexEntry{Lemma: Lemmas{"run"}, Pos: "N"}, "V", "run", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Matches(tt.pos, tt.lemma))
		})
	}
}

func TestDecodeLemmas(t *testing.T) {
	t.Run("json string and list", func(t *testing.T) {
		rs, err := Decode(strings.NewReader(`{
			"lexicon": [
				{"lexclass": "motion", "lemma": ["run", "walk"], "pos": "V"},
				{"lexclass": "animal", "lemma": "dog"}
			],
			"rules": []
		}`), "json")
		require.NoError(t, err)
		require.Len(t, rs.Lexicon, 2)
		assert.Equal(t, Lemmas{"run", "walk"}, rs.Lexicon[0].Lemma)
		assert.Equal(t, Lemmas{"dog"}, rs.Lexicon[1].Lemma)
	})

	t.Run("yaml string and list", func(t *testing.T) {
		rs, err := Decode(strings.NewReader(`
lexicon:
  - lexclass: motion
    lemma: [run, walk]
    pos: V
  - lexclass: animal
    lemma: dog
rules:
  - name: animal-subject
    condition: '?x :lexclass "animal" . ?x :rel_nsubj ?y'
    insert: '?y :agent ?x'
`), "yaml")
		require.NoError(t, err)
		assert.Equal(t, Lemmas{"run", "walk"}, rs.Lexicon[0].Lemma)
		assert.Equal(t, Lemmas{"dog"}, rs.Lexicon[1].Lemma)
		require.Len(t, rs.Rules, 1)
		assert.Equal(t, "animal-subject", rs.Rules[0].Name)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"lexicon": [], "rules": [], "extra": 1}`), "json")
		assert.Error(t, err)
		_, err = Decode(strings.NewReader("rules:\n  - condition: x\n    insrt: y\n"), "yaml")
		assert.Error(t, err)
	})

	t.Run("wrong lemma shape", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"lexicon": [{"lexclass": "x", "lemma": 3}]}`), "json")
		assert.Error(t, err)
		_, err = Decode(strings.NewReader("lexicon:\n  - lexclass: x\n    lemma: {a: b}\n"), "yaml")
		assert.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"lexicon": [{"lemma": "dog"}]}`), "json")
		assert.ErrorContains(t, err, "lexclass is required")
		_, err = Decode(strings.NewReader(`{"rules": [{"condition": "?x :a ?y"}]}`), "json")
		assert.ErrorContains(t, err, "insert or delete is required")
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := Decode(strings.NewReader(""), "xml")
		assert.Error(t, err)
	})
}

func TestRuleCompile(t *testing.T) {
	p := pattern.NewParser(nil)

	c, err := Rule{Condition: `?x :lemma "dog"`, Insert: `?x :lexclass "animal"`}.Compile(p)
	require.NoError(t, err)
	assert.Len(t, c.Where, 1)
	assert.Len(t, c.Insert, 1)
	assert.Empty(t, c.Delete)

	_, err = Rule{Condition: `?x :lemma "dog"`, Insert: `?y :lexclass "animal"`}.Compile(p)
	assert.ErrorIs(t, err, pattern.ErrUnboundVariable)
	assert.ErrorContains(t, err, "?y")

	_, err = Rule{Condition: `?x :lemma "dog"`, Delete: `?x :lemma ?l`}.Compile(p)
	assert.ErrorIs(t, err, pattern.ErrUnboundVariable)

	_, err = Rule{Condition: `?x :lemma`, Insert: `?x :a "b"`}.Compile(p)
	var se *pattern.SyntaxError
	assert.ErrorAs(t, err, &se)
}

func TestRuleLabel(t *testing.T) {
	assert.Equal(t, "rule[3]", Rule{}.Label(3))
	assert.Equal(t, "named", Rule{Name: "named"}.Label(3))
}
