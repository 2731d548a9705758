package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/syntaxrules/tree"
	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return nil
}

const base = syntax.DefaultBase

func sampleFacts() []triple.Triple {
	return []triple.Triple{
		triple.NewLiteral(base+"t_1_dog", base+"id", "1"),
		triple.NewLiteral(base+"t_1_dog", base+"lemma", "dog"),
		triple.NewLiteral(base+"t_2_bark", base+"id", "2"),
		triple.New(base+"t_1_dog", base+"rel_nsubj", base+"t_2_bark"),
		triple.New(base+"t_1_dog", syntax.RDFType, base+"Token"),
	}
}

func sampleMessage(runID string, sentence int) TreeMessage {
	facts := sampleFacts()
	tr := tree.Materialize(facts, base, tree.DefaultOptions())
	return NewTreeMessage(runID, sentence, facts, tr, base)
}

func TestNewTreeMessage(t *testing.T) {
	msg := sampleMessage("run-1", 3)

	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, 3, msg.Sentence)
	assert.Equal(t, []tree.MinimalEdge{{Subject: "1", Predicate: "rel_nsubj", Object: "2"}}, msg.Edges)
	require.Len(t, msg.Triples, 5)

	predicates := make([]string, len(msg.Triples))
	for i, tr := range msg.Triples {
		predicates[i] = tr.Predicate
		assert.Equal(t, tripleSource, tr.Source)
	}
	assert.Equal(t, []string{
		syntax.TokenID,
		syntax.TokenLemma,
		syntax.TokenID,
		syntax.RelationPredicate("nsubj"),
		syntax.RDFType,
	}, predicates)
	assert.Equal(t, base+"t_2_bark", msg.Triples[3].Object)
	assert.Equal(t, "dog", msg.Triples[1].Object)
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "", nil)

	require.NoError(t, p.Publish(context.Background(), sampleMessage("run-1", 3)))
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, DefaultSubject, conn.msgs[0].subject)

	var decoded struct {
		RunID    string `json:"run_id"`
		Sentence int    `json:"sentence"`
		Nodes    []any  `json:"nodes"`
		Triples  []struct {
			Subject   string `json:"subject"`
			Predicate string `json:"predicate"`
		} `json:"triples"`
	}
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 3, decoded.Sentence)
	assert.Len(t, decoded.Nodes, 2)
	assert.Len(t, decoded.Triples, 5)
}

func TestPublishError(t *testing.T) {
	conn := &fakeConn{err: errors.New("boom")}
	p := NewPublisher(conn, "custom", nil)
	err := p.Publish(context.Background(), sampleMessage("run", 1))
	assert.ErrorContains(t, err, "publish tree")
}

func TestNilPublisher(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), sampleMessage("run", 1)))
	p.Close()

	// No client: graceful skip
	assert.NoError(t, NewPublisher(nil, "", nil).Publish(context.Background(), sampleMessage("run", 1)))
}
