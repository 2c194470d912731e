// Package analysis provides the shared text tokenisation used by the
// lexical index and the local embedder. Both sides must tokenise
// identically or query terms will never match postings.
package analysis

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Tokenize lowercases text and splits it into word tokens, dropping
// stopwords.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TermFrequencies tokenises text and returns term counts plus the total
// token count.
func TermFrequencies(text string) (map[string]int, int) {
	tokens := Tokenize(text)
	terms := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		terms[tok]++
	}
	return terms, len(tokens)
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
		"from", "had", "has", "have", "he", "her", "his", "if", "in",
		"into", "is", "it", "its", "no", "not", "of", "on", "or", "our",
		"she", "such", "that", "the", "their", "then", "there", "these",
		"they", "this", "to", "was", "we", "were", "which", "will",
		"with", "you", "your",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
