package saf

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into an ASCII base and a combining mark.
var special = map[rune]string{
	'ß': "ss", 'æ': "ae", 'Æ': "AE", 'ø': "o", 'Ø': "O", 'œ': "oe", 'Œ': "OE",
	'ł': "l", 'Ł': "L", 'đ': "d", 'Đ': "D", 'þ': "th", 'Þ': "Th", 'ı': "i",
	'‘': "'", '’': "'", '“': "\"", '”': "\"", '–': "-", '—': "-", '…': "...",
}

// Transliterate reduces s to ASCII: accents are stripped, a few letters are
// spelled out and anything else outside ASCII is dropped.
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var sb strings.Builder
	for _, r := range stripped {
		switch {
		case r < unicode.MaxASCII:
			sb.WriteRune(r)
		case special[r] != "":
			sb.WriteString(special[r])
		}
	}
	return sb.String()
}

// SafeLocal replaces characters that cannot appear in a prefixed local name
// with '_'.
func SafeLocal(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			return r
		}
		return '_'
	}, s)
}
