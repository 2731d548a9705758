package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/syntaxrules/pattern"
	"github.com/c360studio/syntaxrules/triplestore"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// ApplyLexicon attaches a lexclass attribute to every token matched by a
// lexicon entry and returns the number of (token, entry) matches. Every
// matching entry applies, so a token matched by several entries carries
// several classes.
//
// Tokens without pos or lemma are skipped and reported as
// *MissingAttributeError values joined into the returned error; the other
// tokens are still classified.
func (a *Applier) ApplyLexicon(ctx context.Context, entries []LexEntry) (int, error) {
	return a.applyLexicon(ctx, a.logger, entries)
}

func (a *Applier) applyLexicon(ctx context.Context, logger *slog.Logger, entries []LexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	facts, err := a.store.Triples(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	matches, inserted := 0, 0
	for _, tok := range triplestore.Tokens(facts, a.ns) {
		pos, ok := tok.Attrs[syntax.Pos]
		if !ok {
			errs = append(errs, &MissingAttributeError{Subject: tok.Subject, Attribute: syntax.Pos})
			continue
		}
		lemma, ok := tok.Attrs[syntax.Lemma]
		if !ok {
			errs = append(errs, &MissingAttributeError{Subject: tok.Subject, Attribute: syntax.Lemma})
			continue
		}

		for _, entry := range entries {
			if !entry.Matches(pos, lemma) {
				continue
			}
			res, err := a.store.Update(ctx, triplestore.Update{Insert: a.lexclassTemplate(tok.Subject, entry.LexClass)})
			if err != nil {
				a.metrics.observeLexicon(matches, inserted)
				return matches, fmt.Errorf("lexicon %s for %s: %w", entry.LexClass, tok.Subject, err)
			}
			matches++
			inserted += res.Inserted
			logger.Debug("Lexicon match",
				slog.String("token", tok.Subject),
				slog.String("lexclass", entry.LexClass))
		}
	}

	a.metrics.observeLexicon(matches, inserted)
	return matches, errors.Join(errs...)
}

func (a *Applier) lexclassTemplate(subject, class string) pattern.Template {
	return pattern.Template{{
		Subject:   pattern.Node(subject),
		Predicate: pattern.Node(a.ns.IRI(syntax.LexClass)),
		Object:    pattern.Lit(class),
	}}
}
