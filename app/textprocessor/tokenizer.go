package textprocessor

import "unicode"

// Tokenize splits text at whitespace and punctuation boundaries. Punctuation
// splits off as its own token; hyphens and apostrophes stay token-internal
// when they sit between alphanumerics ("don't", "well-known"). Every token,
// punctuation included, occupies one position, so positions stay comparable
// across pages after the later pipeline stages drop non-word tokens.
func Tokenize(text string) []string {
	runes := []rune(text)
	tokens := []string{}
	var current []rune

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isWordRune(r):
			current = append(current, r)
		case (r == '\'' || r == '-') && len(current) > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			current = append(current, r)
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}
