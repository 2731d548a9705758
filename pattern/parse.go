package pattern

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/c360studio/syntaxrules/vocabulary/syntax"
)

// SyntaxError reports malformed pattern text.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parser turns pattern text into patterns, resolving prefixed names.
type Parser struct {
	prefixes map[string]string
}

// NewParser creates a parser for the given prefix map. A nil map uses the
// default prefixes of the default base namespace.
func NewParser(prefixes map[string]string) *Parser {
	if prefixes == nil {
		prefixes = syntax.DefaultPrefixes(syntax.DefaultBase)
	}
	return &Parser{prefixes: prefixes}
}

// Parse parses a conjunctive where clause.
//
// Triples are separated by '.', ';' repeats the subject and ',' repeats the
// subject and predicate. Terms are ?var, prefix:local, <iri>, "literal",
// bare numbers (read as literals) and 'a' for rdf:type. Text after '#' up to
// the end of the line is a comment. Surrounding braces are optional.
func (p *Parser) Parse(src string) (Pattern, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	toks = stripBraces(toks)

	st := &parseState{p: p, toks: toks}
	return st.triples()
}

// ParseTemplate parses template text using the same syntax as Parse.
func (p *Parser) ParseTemplate(src string) (Template, error) {
	pat, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	return Template(pat), nil
}

type tokKind uint8

const (
	tokVar tokKind = iota + 1
	tokIRI
	tokPName
	tokLiteral
	tokPunct
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case r == '.' || r == ';' || r == ',' || r == '{' || r == '}':
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i++
		case r == '?' || r == '$':
			start := i
			i++
			j := scanName(src, i)
			if j == i {
				return nil, &SyntaxError{Offset: start, Msg: "empty variable name"}
			}
			toks = append(toks, token{kind: tokVar, text: src[i:j], pos: start})
			i = j
		case r == '<':
			end := strings.IndexByte(src[i:], '>')
			if end < 0 {
				return nil, &SyntaxError{Offset: i, Msg: "unterminated IRI"}
			}
			toks = append(toks, token{kind: tokIRI, text: src[i+1 : i+end], pos: i})
			i += end + 1
		case r == '"' || r == '\'':
			val, n, err := scanLiteral(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokLiteral, text: val, pos: i})
			i += n
		case r == '-' || r == '+' || unicode.IsDigit(r):
			start := i
			i++
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && i+1 < len(src) && isDigit(src[i+1]))) {
				i++
			}
			toks = append(toks, token{kind: tokLiteral, text: src[start:i], pos: start})
		case r == ':' || isNameRune(r):
			start := i
			j := scanName(src, i)
			if j < len(src) && src[j] == ':' {
				j = scanLocal(src, j+1)
			}
			if j == start {
				return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			toks = append(toks, token{kind: tokPName, text: src[start:j], pos: start})
			i = j
		default:
			return nil, &SyntaxError{Offset: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	return toks, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNameRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func scanName(src string, i int) int {
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if !isNameRune(r) {
			break
		}
		i += size
	}
	return i
}

// scanLocal scans the local part of a prefixed name. Dots are allowed inside
// but not at the end, where they terminate the triple.
func scanLocal(src string, i int) int {
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if r == '.' {
			if i+1 < len(src) {
				next, _ := utf8.DecodeRuneInString(src[i+1:])
				if isNameRune(next) {
					i += size
					continue
				}
			}
			break
		}
		if !isNameRune(r) {
			break
		}
		i += size
	}
	return i
}

func scanLiteral(src string, start int) (string, int, error) {
	quote := src[start]
	var sb strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return sb.String(), i - start + 1, nil
		case c == '\\':
			if i+1 >= len(src) {
				return "", 0, &SyntaxError{Offset: i, Msg: "dangling escape"}
			}
			switch src[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"', '\'', '\\':
				sb.WriteByte(src[i+1])
			default:
				return "", 0, &SyntaxError{Offset: i, Msg: fmt.Sprintf("unknown escape \\%c", src[i+1])}
			}
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", 0, &SyntaxError{Offset: start, Msg: "unterminated literal"}
}

func stripBraces(toks []token) []token {
	if len(toks) >= 2 && toks[0].kind == tokPunct && toks[0].text == "{" {
		last := toks[len(toks)-1]
		if last.kind == tokPunct && last.text == "}" {
			return toks[1 : len(toks)-1]
		}
	}
	return toks
}

type parseState struct {
	p    *Parser
	toks []token
	i    int
}

func (s *parseState) peek() (token, bool) {
	if s.i >= len(s.toks) {
		return token{}, false
	}
	return s.toks[s.i], true
}

func (s *parseState) punct(text string) bool {
	t, ok := s.peek()
	if ok && t.kind == tokPunct && t.text == text {
		s.i++
		return true
	}
	return false
}

func (s *parseState) end() int {
	if len(s.toks) == 0 {
		return 0
	}
	return s.toks[len(s.toks)-1].pos
}

func (s *parseState) triples() (Pattern, error) {
	var out Pattern
	for {
		if _, ok := s.peek(); !ok {
			return out, nil
		}
		if s.punct(".") {
			continue
		}

		subj, err := s.term(posSubject)
		if err != nil {
			return nil, err
		}
		for {
			pred, err := s.term(posPredicate)
			if err != nil {
				return nil, err
			}
			for {
				obj, err := s.term(posObject)
				if err != nil {
					return nil, err
				}
				out = append(out, TriplePattern{Subject: subj, Predicate: pred, Object: obj})
				if !s.punct(",") {
					break
				}
			}
			if !s.punct(";") {
				break
			}
			// A trailing ';' before '.' or the end is allowed.
			if t, ok := s.peek(); !ok || (t.kind == tokPunct && t.text == ".") {
				break
			}
		}

		if t, ok := s.peek(); ok && !s.punct(".") {
			return nil, &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("expected '.' but found %q", t.text)}
		}
	}
}

type position uint8

const (
	posSubject position = iota
	posPredicate
	posObject
)

func (p position) String() string {
	switch p {
	case posSubject:
		return "subject"
	case posPredicate:
		return "predicate"
	default:
		return "object"
	}
}

func (s *parseState) term(at position) (Term, error) {
	t, ok := s.peek()
	if !ok {
		return Term{}, &SyntaxError{Offset: s.end(), Msg: fmt.Sprintf("missing %s", at)}
	}
	s.i++

	switch t.kind {
	case tokVar:
		return Variable(t.text), nil
	case tokIRI:
		return Node(t.text), nil
	case tokLiteral:
		if at != posObject {
			return Term{}, &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("literal not allowed as %s", at)}
		}
		return Lit(t.text), nil
	case tokPName:
		if t.text == "a" && at == posPredicate {
			return Node(syntax.RDFType), nil
		}
		iri, err := s.p.expand(t)
		if err != nil {
			return Term{}, err
		}
		return Node(iri), nil
	default:
		return Term{}, &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("unexpected %q, expected %s", t.text, at)}
	}
}

func (p *Parser) expand(t token) (string, error) {
	prefix, local, ok := strings.Cut(t.text, ":")
	if !ok {
		return "", &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("bare name %q is not a prefixed name", t.text)}
	}
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf("unknown prefix %q", prefix)}
	}
	return ns + local, nil
}
