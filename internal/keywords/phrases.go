package keywords

import (
	"fmt"
	"strings"
)

// PhraseExtractor ranks candidate key phrases of a text by relevance.
// Implementations return at most maxPhrases phrases of up to ngramSize words,
// best first.
type PhraseExtractor interface {
	ExtractPhrases(text string, maxPhrases, ngramSize int) ([]string, error)
}

// LongTailKeywords asks pe for the top maxPhrases candidates of the raw text
// and keeps the lowercased multi-word ones. Single-word candidates are
// dropped, so the result may be shorter than maxPhrases.
func LongTailKeywords(text string, pe PhraseExtractor, maxPhrases, ngramSize int) ([]string, error) {
	candidates, err := pe.ExtractPhrases(text, maxPhrases, ngramSize)
	if err != nil {
		return nil, fmt.Errorf("phrase extraction failed: %w", err)
	}

	seen := make(map[string]struct{}, len(candidates))
	phrases := make([]string, 0, len(candidates))
	for _, c := range candidates {
		p := strings.ToLower(c)
		if !strings.Contains(p, " ") {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	return phrases, nil
}

// CountPhraseOccurrences counts each phrase in the lowercased text. Counting is
// literal and non-overlapping, not word-boundary aware: "web design" is also
// counted inside "web designer". Phrases that never occur are dropped.
func CountPhraseOccurrences(text string, phrases []string) Keywords {
	lower := strings.ToLower(text)

	counts := make(Keywords, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		n := strings.Count(lower, p)
		if n == 0 {
			continue
		}
		counts = append(counts, Keyword{Term: p, Count: n, Kind: KindPhrase})
	}
	return counts
}
