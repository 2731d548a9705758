package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/c360studio/syntaxrules/config"
	"github.com/c360studio/syntaxrules/export"
	"github.com/c360studio/syntaxrules/graph"
	"github.com/c360studio/syntaxrules/rules"
	"github.com/c360studio/syntaxrules/saf"
	"github.com/c360studio/syntaxrules/tree"
	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/triplestore"
)

// Request selects the sentence to process and how to render it.
type Request struct {
	SAFPath  string
	Sentence int
	Format   export.Format
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Reports []rules.Report
	Facts   []triple.Triple
	Tree    *tree.Tree
	Output  []byte
}

// App wires the store, the rule applier and the outputs together.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *rules.Metrics

	publisher *graph.Publisher
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	metrics, err := rules.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return &App{cfg: cfg, logger: logger, registry: registry, metrics: metrics}, nil
}

// ConnectNATS enables publishing of materialized trees.
func (a *App) ConnectNATS(ctx context.Context) error {
	if a.cfg.NATS.URL == "" {
		return fmt.Errorf("publishing requires nats.url")
	}
	p, err := graph.Connect(ctx, a.cfg.NATS.URL, a.cfg.NATS.Subject, a.logger)
	if err != nil {
		return err
	}
	a.publisher = p
	return nil
}

// Close releases the NATS connection, if any.
func (a *App) Close() {
	a.publisher.Close()
}

// Run ingests one sentence, applies every configured ruleset in path order,
// materializes the tree and renders it.
func (a *App) Run(ctx context.Context, req Request) (*Result, error) {
	ns := a.cfg.BaseNamespace()
	prefixes := a.cfg.Prefixes()
	res := &Result{RunID: uuid.NewString()}
	logger := a.logger.With(slog.String("run_id", res.RunID))

	doc, err := readSAF(req.SAFPath)
	if err != nil {
		return nil, err
	}

	rulesets, err := rules.LoadGlob(a.cfg.Rules.Paths...)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	store := triplestore.NewMemory()
	if err := saf.Load(ctx, store, doc, req.Sentence, ns); err != nil {
		return nil, fmt.Errorf("load sentence %d: %w", req.Sentence, err)
	}
	logger.Debug("Loaded sentence",
		slog.Int("sentence", req.Sentence),
		slog.Int("triples", store.Len()))

	opts := []rules.Option{
		rules.WithLogger(logger),
		rules.WithMetrics(a.metrics),
		rules.WithPrefixes(prefixes),
	}
	if a.cfg.Rules.ContinueOnError {
		opts = append(opts, rules.WithContinueOnError())
	}
	applier := rules.NewApplier(store, ns, opts...)

	for _, rs := range rulesets {
		report, err := applier.ApplyRuleset(ctx, rs)
		res.Reports = append(res.Reports, report)
		if err != nil {
			return res, fmt.Errorf("ruleset %s: %w", rs.Name, err)
		}
	}

	res.Facts, err = store.Triples(ctx)
	if err != nil {
		return res, err
	}
	res.Tree = tree.Materialize(res.Facts, ns, a.cfg.TreeOptions())

	res.Output, err = render(req.Format, res.Facts, res.Tree, prefixes)
	if err != nil {
		return res, err
	}

	if a.publisher != nil {
		msg := graph.NewTreeMessage(res.RunID, req.Sentence, res.Facts, res.Tree, ns)
		if err := a.publisher.Publish(ctx, msg); err != nil {
			return res, err
		}
	}
	return res, nil
}

// WriteMetrics writes the rule counters in the Prometheus text format.
func (a *App) WriteMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func readSAF(path string) (*saf.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open saf: %w", err)
	}
	defer f.Close()
	doc, err := saf.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func render(format export.Format, facts []triple.Triple, t *tree.Tree, prefixes map[string]string) ([]byte, error) {
	switch format {
	case export.FormatNTriples:
		return []byte(export.NTriples(facts)), nil
	case export.FormatTurtle:
		return []byte(export.Turtle(facts, prefixes)), nil
	case export.FormatJSONLD:
		return export.JSONLD(facts, prefixes)
	case export.FormatJSON:
		return export.JSON(t, false)
	case export.FormatMinimal:
		return export.JSON(t, true)
	case export.FormatDOT:
		return []byte(export.DOT(t, export.DOTOptions{})), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
