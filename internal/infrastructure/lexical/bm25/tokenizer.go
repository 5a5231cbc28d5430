package bm25

import (
	"strings"
	"unicode"
)

// Tokenizer turns query or document text into scoring tokens.
type Tokenizer func(string) []string

// tokenizerFor resolves the tokenizer named by the index. Unknown names get
// the empty tokenizer, which yields no tokens and therefore no lexical hits.
func tokenizerFor(name string) Tokenizer {
	switch name {
	case "newmm", "thai":
		return tokenizeThai
	case "whitespace":
		return tokenizeWhitespace
	default:
		return tokenizeNone
	}
}

func tokenizeNone(string) []string { return nil }

func tokenizeWhitespace(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func isThaiRune(r rune) bool {
	return r >= 0x0E00 && r <= 0x0E7F
}

// tokenizeThai emits lowercased latin/digit runs as-is. Thai script has no
// word delimiters, so each Thai run contributes the full run plus its
// character bigrams; the same scheme on both index and query side keeps
// BM25 term statistics consistent.
func tokenizeThai(s string) []string {
	if s == "" {
		return nil
	}

	out := make([]string, 0, 24)
	var latin strings.Builder
	var thai []rune

	flushLatin := func() {
		if latin.Len() > 0 {
			out = append(out, latin.String())
			latin.Reset()
		}
	}
	flushThai := func() {
		if len(thai) == 0 {
			return
		}
		out = append(out, string(thai))
		for i := 0; i+1 < len(thai); i++ {
			out = append(out, string(thai[i:i+2]))
		}
		thai = thai[:0]
	}

	for _, r := range s {
		switch {
		case isThaiRune(r):
			flushLatin()
			thai = append(thai, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushThai()
			latin.WriteRune(unicode.ToLower(r))
		default:
			flushLatin()
			flushThai()
		}
	}
	flushLatin()
	flushThai()
	return out
}
