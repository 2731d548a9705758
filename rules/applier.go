package rules

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/c360studio/syntaxrules/pattern"
	"github.com/c360studio/syntaxrules/triplestore"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// Applier applies rules and lexicons to a single store. It is not safe for
// concurrent use; use one store and applier per sentence.
type Applier struct {
	store           triplestore.Backend
	ns              syntax.Namespace
	parser          *pattern.Parser
	logger          *slog.Logger
	metrics         *Metrics
	continueOnError bool
}

// Option configures an Applier.
type Option func(*Applier)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Applier) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records rule applications in m.
func WithMetrics(m *Metrics) Option {
	return func(a *Applier) { a.metrics = m }
}

// WithPrefixes replaces the prefixes rules are parsed with.
func WithPrefixes(prefixes map[string]string) Option {
	return func(a *Applier) { a.parser = pattern.NewParser(prefixes) }
}

// WithContinueOnError makes ApplyRuleset record failing rules in the report
// and carry on with the next one instead of stopping.
func WithContinueOnError() Option {
	return func(a *Applier) { a.continueOnError = true }
}

// NewApplier creates an applier for store. ns is the namespace of token
// attributes and of the empty prefix in rules.
func NewApplier(store triplestore.Backend, ns syntax.Namespace, opts ...Option) *Applier {
	a := &Applier{
		store:  store,
		ns:     ns,
		parser: pattern.NewParser(syntax.DefaultPrefixes(ns)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RuleReport is the outcome of one rule.
type RuleReport struct {
	Index  int
	Name   string
	Result triplestore.UpdateResult
	Err    error
}

// Report is the outcome of a ruleset application.
type Report struct {
	RunID          string
	Ruleset        string
	LexiconMatches int
	LexiconErr     error
	Rules          []RuleReport
}

// Failed returns the reports of rules that returned an error.
func (r Report) Failed() []RuleReport {
	var out []RuleReport
	for _, rr := range r.Rules {
		if rr.Err != nil {
			out = append(out, rr)
		}
	}
	return out
}

// ApplyRule compiles and applies a single rule. Errors are *RuleError.
func (a *Applier) ApplyRule(ctx context.Context, rule Rule) (triplestore.UpdateResult, error) {
	return a.applyRule(ctx, a.logger, 0, rule)
}

func (a *Applier) applyRule(ctx context.Context, logger *slog.Logger, index int, rule Rule) (triplestore.UpdateResult, error) {
	c, err := rule.Compile(a.parser)
	if err != nil {
		a.metrics.observeRule(triplestore.UpdateResult{}, err)
		return triplestore.UpdateResult{}, &RuleError{Index: index, Rule: rule, Err: err}
	}

	res, err := a.store.Update(ctx, triplestore.Update{Where: c.Where, Insert: c.Insert, Delete: c.Delete})
	a.metrics.observeRule(res, err)
	if err != nil {
		return triplestore.UpdateResult{}, &RuleError{Index: index, Rule: rule, Err: err}
	}

	logger.Debug("Applied rule",
		slog.String("rule", rule.Label(index)),
		slog.Int("bindings", res.Bindings),
		slog.Int("inserted", res.Inserted),
		slog.Int("deleted", res.Deleted))
	return res, nil
}

// ApplyRuleset applies the lexicon and then every rule in order. Each rule
// sees the effects of the rules before it. By default the first failing rule
// stops the run and its error is returned together with the partial report.
// Build the Applier WithContinueOnError to record failures and keep going.
func (a *Applier) ApplyRuleset(ctx context.Context, rs Ruleset) (Report, error) {
	report := Report{RunID: uuid.NewString(), Ruleset: rs.Name}
	logger := a.logger.With(slog.String("run_id", report.RunID), slog.String("ruleset", rs.Name))

	matches, err := a.applyLexicon(ctx, logger, rs.Lexicon)
	report.LexiconMatches = matches
	if err != nil {
		report.LexiconErr = err
		if !a.continueOnError || !isDataError(err) {
			return report, err
		}
		logger.Warn("Lexicon skipped tokens", slog.String("error", err.Error()))
	}

	for i, rule := range rs.Rules {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := a.applyRule(ctx, logger, i, rule)
		report.Rules = append(report.Rules, RuleReport{Index: i, Name: rule.Label(i), Result: res, Err: err})
		if err != nil {
			if !a.continueOnError {
				return report, err
			}
			logger.Warn("Rule failed", slog.String("rule", rule.Label(i)), slog.String("error", err.Error()))
		}
	}

	logger.Info("Applied ruleset",
		slog.Int("lexicon_matches", report.LexiconMatches),
		slog.Int("rules", len(rs.Rules)),
		slog.Int("failed", len(report.Failed())))
	return report, nil
}

// isDataError reports whether err only consists of missing token attributes.
func isDataError(err error) bool {
	var mae *MissingAttributeError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !errors.As(e, &mae) {
				return false
			}
		}
		return true
	}
	return errors.As(err, &mae)
}
