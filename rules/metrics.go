package rules

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/syntaxrules/triplestore"
)

// Metrics counts rule applications. A nil *Metrics records nothing.
type Metrics struct {
	rules    *prometheus.CounterVec
	bindings prometheus.Counter
	inserted prometheus.Counter
	deleted  prometheus.Counter
	lexicon  prometheus.Counter
}

// NewMetrics creates the rule counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syntaxrules",
			Name:      "rules_applied_total",
			Help:      "Rules applied, by outcome.",
		}, []string{"outcome"}),
		bindings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syntaxrules",
			Name:      "bindings_total",
			Help:      "Condition solutions found by applied rules.",
		}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syntaxrules",
			Name:      "triples_inserted_total",
			Help:      "Facts added by rules.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syntaxrules",
			Name:      "triples_deleted_total",
			Help:      "Facts removed by rules.",
		}),
		lexicon: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "syntaxrules",
			Name:      "lexicon_matches_total",
			Help:      "Token and lexicon entry matches.",
		}),
	}
	for _, c := range []prometheus.Collector{m.rules, m.bindings, m.inserted, m.deleted, m.lexicon} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRule(res triplestore.UpdateResult, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.rules.WithLabelValues("error").Inc()
		return
	}
	m.rules.WithLabelValues("ok").Inc()
	m.bindings.Add(float64(res.Bindings))
	m.inserted.Add(float64(res.Inserted))
	m.deleted.Add(float64(res.Deleted))
}

func (m *Metrics) observeLexicon(matches, inserted int) {
	if m == nil {
		return
	}
	m.lexicon.Add(float64(matches))
	m.inserted.Add(float64(inserted))
}
