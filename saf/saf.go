// Package saf converts analyzed sentence documents (tokens plus dependency
// relations) into the facts of a single sentence.
package saf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/c360studio/syntaxrules/triple"
	"github.com/c360studio/syntaxrules/triplestore"
	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// FormatError reports a document that does not have the expected shape.
type FormatError struct {
	Where string
	Msg   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("saf %s: %s", e.Where, e.Msg)
}

// Document is an analyzed article.
type Document struct {
	Tokens       []map[string]any `json:"tokens"`
	Dependencies []Dependency     `json:"dependencies"`
}

// Dependency links a child token to its parent token.
type Dependency struct {
	Child    json.Number `json:"child"`
	Parent   json.Number `json:"parent"`
	Relation string      `json:"relation"`
}

// Decode reads a JSON document.
func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode saf document: %w", err)
	}
	return &doc, nil
}

// Triples returns the facts for one sentence: a literal fact per token
// attribute and, per dependency whose child is in the sentence, a rel_<name>
// fact and a rel fact from child to parent.
func Triples(doc *Document, sentenceID int, ns syntax.Namespace) ([]triple.Triple, error) {
	var out []triple.Triple
	uris := make(map[int]string)

	for i, tok := range doc.Tokens {
		where := fmt.Sprintf("token %d", i)
		sentence, err := intAttr(tok, syntax.Sentence, where)
		if err != nil {
			return nil, err
		}
		if sentence != sentenceID {
			continue
		}
		id, err := intAttr(tok, syntax.ID, where)
		if err != nil {
			return nil, err
		}
		lemma, err := stringAttr(tok, syntax.Lemma, where)
		if err != nil {
			return nil, err
		}

		uri := ns.IRI(TokenLocal(id, lemma))
		if _, dup := uris[id]; dup {
			return nil, &FormatError{Where: where, Msg: fmt.Sprintf("duplicate token id %d", id)}
		}
		uris[id] = uri

		keys := make([]string, 0, len(tok))
		for k := range tok {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := stringAttr(tok, k, where)
			if err != nil {
				return nil, err
			}
			out = append(out, triple.NewLiteral(uri, ns.IRI(k), Transliterate(v)))
		}
	}

	for i, dep := range doc.Dependencies {
		where := fmt.Sprintf("dependency %d", i)
		child, err := numberID(dep.Child, "child", where)
		if err != nil {
			return nil, err
		}
		childURI, ok := uris[child]
		if !ok {
			continue
		}
		parent, err := numberID(dep.Parent, "parent", where)
		if err != nil {
			return nil, err
		}
		parentURI, ok := uris[parent]
		if !ok {
			return nil, &FormatError{Where: where, Msg: fmt.Sprintf("parent %d is not in sentence %d", parent, sentenceID)}
		}
		if dep.Relation == "" {
			return nil, &FormatError{Where: where, Msg: "missing relation"}
		}
		out = append(out,
			triple.New(childURI, ns.IRI(syntax.Relation(dep.Relation)), parentURI),
			triple.New(childURI, ns.IRI(syntax.Rel), parentURI),
		)
	}
	return out, nil
}

// Load converts the sentence and replaces the contents of store with it.
func Load(ctx context.Context, store triplestore.Backend, doc *Document, sentenceID int, ns syntax.Namespace) error {
	facts, err := Triples(doc, sentenceID, ns)
	if err != nil {
		return err
	}
	return store.Load(ctx, facts)
}

// TokenLocal returns the local name of a token node: t_<id>_<lemma> with the
// lemma reduced to URI safe ASCII.
func TokenLocal(id int, lemma string) string {
	return fmt.Sprintf("t_%d_%s", id, SafeLocal(Transliterate(lemma)))
}

func stringAttr(tok map[string]any, key, where string) (string, error) {
	v, ok := tok[key]
	if !ok {
		return "", &FormatError{Where: where, Msg: "missing " + key}
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", &FormatError{Where: where, Msg: fmt.Sprintf("%s has unsupported type %T", key, v)}
	}
}

func intAttr(tok map[string]any, key, where string) (int, error) {
	s, err := stringAttr(tok, key, where)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &FormatError{Where: where, Msg: fmt.Sprintf("%s %q is not an integer", key, s)}
	}
	return n, nil
}

func numberID(n json.Number, field, where string) (int, error) {
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, &FormatError{Where: where, Msg: fmt.Sprintf("%s %q is not an integer", field, n)}
	}
	return v, nil
}
