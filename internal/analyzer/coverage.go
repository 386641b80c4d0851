// Package analyzer measures how a generated article uses the keywords taken
// from its reference post.
package analyzer

import (
	"strings"

	"github.com/FranksOps/scribe/internal/keywords"
)

// TermMatch is one keyword's use in the article.
type TermMatch struct {
	Term string `json:"term"`
	// Reference is the keyword's count in the reference text.
	Reference int `json:"reference"`
	Count     int `json:"count"`
	// Sentence is the first sentence using the term, if any.
	Sentence string `json:"sentence,omitempty"`
}

// Coverage summarises keyword use across an article.
type Coverage struct {
	Matches []TermMatch `json:"matches"`
	Used    int         `json:"used"`
	Total   int         `json:"total"`
}

// Ratio is the share of keywords the article uses, or 0 with no keywords.
func (c Coverage) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Used) / float64(c.Total)
}

// Missing lists the keywords the article never uses, in keyword order.
func (c Coverage) Missing() []string {
	var out []string
	for _, m := range c.Matches {
		if m.Count == 0 {
			out = append(out, m.Term)
		}
	}
	return out
}

// Measure counts each keyword in text, case-insensitively and as a
// substring, the same way phrase counts are taken from the reference.
func Measure(text string, ks keywords.Keywords) Coverage {
	cov := Coverage{Matches: make([]TermMatch, 0, len(ks)), Total: len(ks)}
	if len(ks) == 0 {
		return cov
	}

	lower := strings.ToLower(text)
	sentences := splitSentences(text)

	for _, k := range ks {
		term := strings.ToLower(k.Term)
		m := TermMatch{Term: k.Term, Reference: k.Count}
		if term != "" {
			m.Count = strings.Count(lower, term)
		}
		if m.Count > 0 {
			cov.Used++
			for _, s := range sentences {
				if strings.Contains(s.lower, term) {
					m.Sentence = s.original
					break
				}
			}
		}
		cov.Matches = append(cov.Matches, m)
	}
	return cov
}

type sentence struct {
	original string
	lower    string
}

// splitSentences breaks text after '.', '!', '?' and newlines. Markdown
// headings and list items end without punctuation, so a line break closes
// a sentence too.
func splitSentences(text string) []sentence {
	var out []sentence
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, sentence{original: s, lower: strings.ToLower(s)})
		}
	}

	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?', '\n':
			add(text[start : i+1])
			start = i + 1
		}
	}
	add(text[start:])
	return out
}
