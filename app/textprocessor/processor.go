// Package textprocessor reduces surface text to normalized stems. Indexing
// and querying both go through it, so the same surface word always maps to
// the same stem regardless of caller.
package textprocessor

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

// Token is a surviving stem together with the 0-based position of its source
// token, counted before stop-word and empty-stem removal.
type Token struct {
	Position int64
	Stem     string
}

// Transform runs the full pipeline over free-form text: tokenize, normalize,
// drop stop words, stem, drop empty stems. Duplicates are preserved in
// source order.
func Transform(text string) []Token {
	tokens := Tokenize(text)
	out := make([]Token, 0, len(tokens))

	for pos, token := range tokens {
		stem := TransformWord(token)
		if stem == "" {
			continue
		}
		out = append(out, Token{Position: int64(pos), Stem: stem})
	}

	return out
}

// TransformWord runs the pipeline on a single, already-delimited word.
// Returns "" for stop words and for words that normalize or stem to nothing.
func TransformWord(word string) string {
	word = NormalizeToken(word)
	if word == "" || stopWords[word] {
		return ""
	}

	stemmed, err := snowball.Stem(word, "english", false)
	if err != nil {
		return word
	}
	return stemmed
}

// NormalizeToken produces the case- and diacritic-insensitive normal form of
// a token:
//  1. decompose into Unicode compatibility form (NFKD), separating base
//     letters from combining marks and folding lookalike characters,
//  2. strip every non-alphanumeric rune, which also removes the decomposed
//     diacritics,
//  3. recompose (NFKC) to restore precomposed base characters,
//  4. lowercase.
func NormalizeToken(token string) string {
	decomposed := norm.NFKD.String(token)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) {
			return r
		}
		return -1
	}, decomposed)
	return strings.ToLower(norm.NFKC.String(stripped))
}
