package keywords

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NoKeywordsFound is rendered in place of an empty keyword list.
const NoKeywordsFound = "No relevant keywords found."

// RankedHeader prefixes the numbered list produced by FormatRanked.
const RankedHeader = "Important keywords ranked by relevance:"

// Format selects how a keyword list is rendered for the prompt.
type Format string

const (
	// FormatRanked sorts longer phrases first, then by count, and renders a
	// numbered list under RankedHeader.
	FormatRanked Format = "ranked"
	// FormatTuples sorts by count only and renders ('term', count) tuples
	// joined by commas.
	FormatTuples Format = "tuples"
)

// ParseFormat maps a config value to a Format. An empty string selects
// FormatRanked.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatRanked:
		return FormatRanked, nil
	case FormatTuples:
		return FormatTuples, nil
	default:
		return "", fmt.Errorf("unknown keyword format %q", s)
	}
}

// Render formats ks in the given format.
func (f Format) Render(ks Keywords) string {
	switch f {
	case FormatTuples:
		return RenderTuples(ks)
	default:
		return RenderRanked(ks)
	}
}

// SortRanked orders keywords by the number of spaces in the term, then by
// count, both descending. Ties keep input order.
func SortRanked(ks Keywords) Keywords {
	sorted := make(Keywords, len(ks))
	copy(sorted, ks)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := strings.Count(sorted[i].Term, " "), strings.Count(sorted[j].Term, " ")
		if si != sj {
			return si > sj
		}
		return sorted[i].Count > sorted[j].Count
	})
	return sorted
}

// SortByCount orders keywords by count descending. Ties keep input order.
func SortByCount(ks Keywords) Keywords {
	sorted := make(Keywords, len(ks))
	copy(sorted, ks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	return sorted
}

// RenderRanked returns
//
//	Important keywords ranked by relevance:
//	1. <term> (<count>)
//	2. ...
func RenderRanked(ks Keywords) string {
	if len(ks) == 0 {
		return NoKeywordsFound
	}

	var sb strings.Builder
	sb.WriteString(RankedHeader)
	for i, k := range SortRanked(ks) {
		sb.WriteByte('\n')
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(k.Term)
		sb.WriteString(" (")
		sb.WriteString(strconv.Itoa(k.Count))
		sb.WriteByte(')')
	}
	return sb.String()
}

// RenderTuples returns ('<term>', <count>) entries joined by ", ".
func RenderTuples(ks Keywords) string {
	if len(ks) == 0 {
		return NoKeywordsFound
	}

	parts := make([]string, 0, len(ks))
	for _, k := range SortByCount(ks) {
		parts = append(parts, fmt.Sprintf("('%s', %d)", k.Term, k.Count))
	}
	return strings.Join(parts, ", ")
}
