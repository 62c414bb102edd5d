package search

import (
	"strings"
	"unicode"
)

// Query is a parsed search input. Terms and phrases are unordered
// requirement sets; repeated entries are preserved so they can weight the
// query vector.
type Query struct {
	// Free tokens: words the result must contain somewhere.
	Terms []string
	// Quoted substrings, matched as consecutive runs, whitespace included.
	Phrases []string
}

// Parse splits a raw query into free terms and quoted phrases. A quote that
// is never closed starts a phrase that extends to the end of the input.
func Parse(raw string) Query {
	query := Query{Terms: []string{}, Phrases: []string{}}
	var token strings.Builder
	inPhrase := false

	for _, r := range raw {
		if inPhrase {
			if r == '"' {
				query.Phrases = append(query.Phrases, token.String())
				token.Reset()
				inPhrase = false
				continue
			}
			token.WriteRune(r)
			continue
		}

		if unicode.IsSpace(r) || r == '"' {
			if token.Len() > 0 {
				query.Terms = append(query.Terms, token.String())
				token.Reset()
			}
			if r == '"' {
				inPhrase = true
			}
			continue
		}
		token.WriteRune(r)
	}

	if token.Len() > 0 {
		if inPhrase {
			query.Phrases = append(query.Phrases, token.String())
		} else {
			query.Terms = append(query.Terms, token.String())
		}
	}

	return query
}
