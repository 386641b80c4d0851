// Package keywords extracts and ranks the salient terms of an article so they
// can be embedded in an LLM prompt.
package keywords

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FranksOps/scribe/internal/keywords/stopwords"
)

// Kind distinguishes single-word keywords from multi-word key phrases.
type Kind int

const (
	KindWord Kind = iota
	KindPhrase
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindPhrase:
		return "phrase"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind appear as a readable string in JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Keyword is a term and the number of times it occurs in the source text.
type Keyword struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
	Kind  Kind   `json:"kind"`
}

// Keywords is an ordered list of keywords. Order is meaningful: every sort in
// this package is stable, so equal entries keep the order they were added in.
type Keywords []Keyword

// Terms returns the terms in list order.
func (ks Keywords) Terms() []string {
	terms := make([]string, len(ks))
	for i, k := range ks {
		terms[i] = k.Term
	}
	return terms
}

// wordPattern matches what \w+ matches on Unicode text.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and returns every maximal run of word characters.
// Punctuation is dropped, numbers are kept.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// RemoveStopwords returns tokens without the words contained in stops,
// preserving order. Tokens are compared as-is, so they must already be
// lowercased.
func RemoveStopwords(tokens []string, stops *stopwords.Set) []string {
	filtered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if stops.Contains(t) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// CountFrequencies counts tokens. Entries appear in first-seen order.
func CountFrequencies(tokens []string) Keywords {
	index := make(map[string]int, len(tokens))
	counts := make(Keywords, 0)
	for _, t := range tokens {
		if i, ok := index[t]; ok {
			counts[i].Count++
			continue
		}
		index[t] = len(counts)
		counts = append(counts, Keyword{Term: t, Count: 1, Kind: KindWord})
	}
	return counts
}

// MostCommon returns the n entries with the highest counts. Entries with equal
// counts keep their relative order. n <= 0 returns an empty list.
func MostCommon(counts Keywords, n int) Keywords {
	if n <= 0 || len(counts) == 0 {
		return Keywords{}
	}
	sorted := make(Keywords, len(counts))
	copy(sorted, counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// SingleWordKeywords returns at most topN of the most frequent non-stopword
// tokens of text, dropping those seen fewer than minOccurrences times. The
// threshold is applied after the topN cut.
func SingleWordKeywords(text string, stops *stopwords.Set, topN, minOccurrences int) Keywords {
	tokens := RemoveStopwords(Tokenize(text), stops)
	top := MostCommon(CountFrequencies(tokens), topN)

	result := make(Keywords, 0, len(top))
	for _, k := range top {
		if k.Count < minOccurrences {
			continue
		}
		result = append(result, k)
	}
	return result
}

// Merge concatenates phrase and word keywords, phrases first.
func Merge(phrases, words Keywords) Keywords {
	merged := make(Keywords, 0, len(phrases)+len(words))
	merged = append(merged, phrases...)
	merged = append(merged, words...)
	return merged
}
