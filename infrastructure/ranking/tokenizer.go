// Package ranking orders candidates by TF-IDF cosine similarity to a query.
package ranking

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// minTokenRunes is the shortest token kept; single characters are noise.
const minTokenRunes = 2

// Tokenize splits text into folded word tokens. A token is a maximal run of
// letters, digits or underscores at least two runes long. Stop words are
// dropped. The result preserves document order and may contain duplicates.
func Tokenize(text string) []string {
	// cases.Caser keeps state and must not be shared between goroutines.
	folded := cases.Fold().String(norm.NFKC.String(text))

	var (
		tokens []string
		start  = -1
	)
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := folded[start:end]
		start = -1
		if utf8.RuneCountInString(tok) < minTokenRunes || IsStopWord(tok) {
			return
		}
		tokens = append(tokens, tok)
	}

	for i, r := range folded {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(folded))
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
