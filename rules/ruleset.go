// Package rules applies rulesets to a sentence's triple store: a lexicon that
// attaches lexical classes to tokens, followed by an ordered list of rewrite
// rules.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/syntaxrules/pattern"
)

// Rule is a rewrite rule as written in a ruleset document. Condition is a
// where clause; Insert and Delete are templates over its variables. Either
// template may be empty.
type Rule struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Condition string `json:"condition" yaml:"condition"`
	Insert    string `json:"insert,omitempty" yaml:"insert,omitempty"`
	Delete    string `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// Label returns the rule name, or a positional name when it has none.
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rule[%d]", index)
}

// Compiled is a parsed rule ready to be applied.
type Compiled struct {
	Where  pattern.Pattern
	Insert pattern.Template
	Delete pattern.Template
}

// Compile parses the rule and checks that both templates only use variables
// bound by the condition.
func (r Rule) Compile(p *pattern.Parser) (Compiled, error) {
	var c Compiled
	var err error
	if c.Where, err = p.Parse(r.Condition); err != nil {
		return Compiled{}, fmt.Errorf("condition: %w", err)
	}
	if c.Insert, err = p.ParseTemplate(r.Insert); err != nil {
		return Compiled{}, fmt.Errorf("insert: %w", err)
	}
	if c.Delete, err = p.ParseTemplate(r.Delete); err != nil {
		return Compiled{}, fmt.Errorf("delete: %w", err)
	}

	vars := c.Where.Variables()
	if missing := c.Insert.Unbound(vars); len(missing) > 0 {
		return Compiled{}, fmt.Errorf("insert: %w: ?%s", pattern.ErrUnboundVariable, strings.Join(missing, ", ?"))
	}
	if missing := c.Delete.Unbound(vars); len(missing) > 0 {
		return Compiled{}, fmt.Errorf("delete: %w: ?%s", pattern.ErrUnboundVariable, strings.Join(missing, ", ?"))
	}
	return c, nil
}

// LexEntry assigns LexClass to tokens whose lemma is listed in Lemma and,
// when Pos is set, whose part of speech equals Pos. A lemma ending in '*'
// matches every lemma starting with the text before it.
type LexEntry struct {
	LexClass string `json:"lexclass" yaml:"lexclass"`
	Lemma    Lemmas `json:"lemma" yaml:"lemma"`
	Pos      string `json:"pos,omitempty" yaml:"pos,omitempty"`
}

// Matches reports whether the entry applies to a token. Lemmas are compared
// case-insensitively; pos is compared exactly.
func (e LexEntry) Matches(pos, lemma string) bool {
	if e.Pos != "" && e.Pos != pos {
		return false
	}
	lemma = strings.ToLower(lemma)
	for _, target := range e.Lemma {
		target = strings.ToLower(target)
		if prefix, ok := strings.CutSuffix(target, "*"); ok {
			if strings.HasPrefix(lemma, prefix) {
				return true
			}
			continue
		}
		if target == lemma {
			return true
		}
	}
	return false
}

// Lemmas is a list of lemmas that may be written as a single string.
type Lemmas []string

// UnmarshalJSON accepts a string or a list of strings.
func (l *Lemmas) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = Lemmas{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("lemma must be a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (l *Lemmas) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*l = Lemmas{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*l = many
		return nil
	default:
		return fmt.Errorf("line %d: lemma must be a string or a list of strings", value.Line)
	}
}

// Ruleset is a lexicon followed by rules applied in order.
type Ruleset struct {
	Name    string     `json:"name,omitempty" yaml:"name,omitempty"`
	Lexicon []LexEntry `json:"lexicon" yaml:"lexicon"`
	Rules   []Rule     `json:"rules" yaml:"rules"`
}

// Validate checks the parts of a ruleset that do not need parsing.
func (rs Ruleset) Validate() error {
	for i, e := range rs.Lexicon {
		if e.LexClass == "" {
			return fmt.Errorf("lexicon entry %d: lexclass is required", i)
		}
		if len(e.Lemma) == 0 {
			return fmt.Errorf("lexicon entry %d: lemma is required", i)
		}
	}
	for i, r := range rs.Rules {
		if r.Insert == "" && r.Delete == "" {
			return fmt.Errorf("%s: insert or delete is required", r.Label(i))
		}
	}
	return nil
}
