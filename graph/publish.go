// Package graph publishes materialized sentence trees to NATS.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/syntaxrules/tree"
	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// DefaultSubject is the subject trees are published on.
const DefaultSubject = "syntaxrules.tree.materialized"

// tripleSource tags every published triple.
const tripleSource = "syntaxrules.apply"

// TreeMessage is the published message format. Triples carries the
// sentence's facts with registered predicate names; Edges is the minimal
// tree view.
type TreeMessage struct {
	RunID     string             `json:"run_id"`
	Sentence  int                `json:"sentence"`
	Nodes     []*tree.Node       `json:"nodes"`
	Edges     []tree.MinimalEdge `json:"edges"`
	Triples   []message.Triple   `json:"triples"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewTreeMessage builds the message for one sentence. Facts whose predicate
// lies outside ns keep the full predicate IRI.
func NewTreeMessage(runID string, sentence int, facts []triple.Triple, t *tree.Tree, ns syntax.Namespace) TreeMessage {
	now := time.Now()
	msg := TreeMessage{
		RunID:     runID,
		Sentence:  sentence,
		Nodes:     make([]*tree.Node, 0, len(t.Order)),
		Edges:     t.Minimal(),
		Triples:   make([]message.Triple, 0, len(facts)),
		UpdatedAt: now,
	}
	for _, uri := range t.Order {
		msg.Nodes = append(msg.Nodes, t.Nodes[uri])
	}
	for _, f := range facts {
		predicate := f.Predicate
		if local, ok := ns.Local(f.Predicate); ok {
			predicate = syntax.PredicateName(local)
		}
		msg.Triples = append(msg.Triples, message.Triple{
			Subject:    f.Subject,
			Predicate:  predicate,
			Object:     f.Object.Value,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}
	return msg
}

// Conn is the part of a NATS client the publisher uses.
type Conn interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Publisher sends trees to a subject. A nil *Publisher, or one without a
// connection, publishes nothing.
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
	close   func()
}

// NewPublisher wraps an existing client.
func NewPublisher(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

// Connect dials url and returns a publisher that owns the client.
func Connect(ctx context.Context, url, subject string, logger *slog.Logger) (*Publisher, error) {
	client, err := natsclient.NewClient(url,
		natsclient.WithName("syntaxrules"),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		client.Close(ctx)
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	p := NewPublisher(client, subject, logger)
	p.close = func() { client.Close(context.Background()) }
	return p, nil
}

// Publish sends the message.
func (p *Publisher) Publish(ctx context.Context, msg TreeMessage) error {
	if p == nil || p.conn == nil {
		return nil // Publishing is optional
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal tree message: %w", err)
	}

	if err := p.conn.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("publish tree: %w", err)
	}

	p.logger.Debug("Published tree",
		slog.String("subject", p.subject),
		slog.String("run_id", msg.RunID),
		slog.Int("edges", len(msg.Edges)),
		slog.Int("triples", len(msg.Triples)))
	return nil
}

// Close closes the client if the publisher owns it.
func (p *Publisher) Close() {
	if p != nil && p.close != nil {
		p.close()
	}
}
