// Package yake ranks the key phrases of a single document without any
// training data, following the YAKE! method: every word is scored from local
// statistics (casing, position, frequency, context diversity and sentence
// spread) and n-gram candidates combine the scores of their words. Lower
// scores are more relevant.
package yake

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FranksOps/scribe/internal/keywords/stopwords"
	"github.com/agnivade/levenshtein"
)

// ErrInvalidNgram is returned when the requested n-gram size is below one.
var ErrInvalidNgram = errors.New("yake: ngram size must be at least 1")

// Config configures an Extractor.
type Config struct {
	// Stopwords used to reject candidate boundaries. Defaults to English.
	Stopwords *stopwords.Set
	// WindowSize is the co-occurrence window, in words. Defaults to 1.
	WindowSize int
	// DedupThreshold drops a candidate whose similarity to an already
	// selected one is above it. Defaults to 0.9.
	DedupThreshold float64
	// Dedup selects the similarity measure. Defaults to DedupSeqm.
	Dedup Dedup
}

// Dedup names a string similarity measure used to drop near-duplicate
// candidates.
type Dedup string

const (
	// DedupSeqm is the indel ratio 1 - indel/(len(a)+len(b)), i.e.
	// 2*LCS/(len(a)+len(b)).
	DedupSeqm Dedup = "seqm"
	// DedupLevs is one minus the Levenshtein distance over the longer length.
	DedupLevs Dedup = "levs"
)

// Phrase is a ranked candidate.
type Phrase struct {
	Text  string
	Score float64
}

// Extractor ranks key phrases. It is stateless between calls.
type Extractor struct {
	stops     *stopwords.Set
	window    int
	dedupeLim float64
	similar   func(a, b string) float64
}

// New returns an Extractor with defaults applied.
func New(cfg Config) *Extractor {
	if cfg.Stopwords == nil {
		cfg.Stopwords = stopwords.English()
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 1
	}
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = 0.9
	}
	similar := seqm
	if cfg.Dedup == DedupLevs {
		similar = levs
	}
	return &Extractor{
		stops:     cfg.Stopwords,
		window:    cfg.WindowSize,
		dedupeLim: cfg.DedupThreshold,
		similar:   similar,
	}
}

// ExtractPhrases returns the text of the top phrases, best first.
func (e *Extractor) ExtractPhrases(text string, top, ngramSize int) ([]string, error) {
	phrases, err := e.Extract(text, top, ngramSize)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = p.Text
	}
	return out, nil
}

type wordStats struct {
	key     string
	stop    bool
	tf      float64
	tfCase  [2]float64 // acronym, proper noun
	sents   []int      // distinct sentence ids, ascending
	left    map[string]float64
	right   map[string]float64
	h       float64
	lastSid int
}

type candidate struct {
	key     string
	surface string
	words   []*wordStats
	tf      float64
	score   float64
}

// Extract returns up to top phrases of at most ngramSize words, best first.
// The same text always yields the same result.
func (e *Extractor) Extract(text string, top, ngramSize int) ([]Phrase, error) {
	if ngramSize < 1 {
		return nil, ErrInvalidNgram
	}
	if top <= 0 {
		return []Phrase{}, nil
	}

	sentences := parse(text)
	if len(sentences) == 0 {
		return []Phrase{}, nil
	}

	words := make(map[string]*wordStats)
	cands := make(map[string]*candidate)
	var candOrder []*candidate

	for sid, sent := range sentences {
		for _, b := range sent.blocks {
			seq := make([]*wordStats, 0, len(b))
			for i, tok := range b {
				w := e.word(words, tok.key, sid)
				w.tf++
				switch tok.tag {
				case tagAcronym:
					w.tfCase[0]++
				case tagProper:
					w.tfCase[1]++
				}

				for j := max(0, i-e.window); j < i; j++ {
					prev := seq[j]
					prev.right[w.key]++
					w.left[prev.key]++
				}
				seq = append(seq, w)

				// candidates ending at this word
				for n := 1; n <= ngramSize && n <= i+1; n++ {
					start := i + 1 - n
					if !validCandidate(b[start:i+1], seq[start:i+1]) {
						continue
					}
					key := joinKeys(b[start : i+1])
					c, ok := cands[key]
					if !ok {
						c = &candidate{
							key:     key,
							surface: joinSurface(b[start : i+1]),
							words:   append([]*wordStats(nil), seq[start:i+1]...),
						}
						cands[key] = c
						candOrder = append(candOrder, c)
					}
					c.tf++
				}
			}
		}
	}

	e.scoreWords(words, len(sentences))
	for _, c := range candOrder {
		c.score = scoreCandidate(c)
	}

	sort.SliceStable(candOrder, func(i, j int) bool {
		return candOrder[i].score < candOrder[j].score
	})

	result := make([]Phrase, 0, top)
	var kept []string
	for _, c := range candOrder {
		if math.IsNaN(c.score) || math.IsInf(c.score, 0) {
			continue
		}
		if e.isDuplicate(c.key, kept) {
			continue
		}
		kept = append(kept, c.key)
		result = append(result, Phrase{Text: c.surface, Score: c.score})
		if len(result) == top {
			break
		}
	}
	return result, nil
}

func (e *Extractor) word(words map[string]*wordStats, key string, sid int) *wordStats {
	w, ok := words[key]
	if !ok {
		w = &wordStats{
			key:     key,
			stop:    e.stops.Contains(key) || len([]rune(key)) < 3,
			left:    make(map[string]float64),
			right:   make(map[string]float64),
			lastSid: -1,
		}
		words[key] = w
	}
	if w.lastSid != sid {
		w.sents = append(w.sents, sid)
		w.lastSid = sid
	}
	return w
}

func validCandidate(toks []token, ws []*wordStats) bool {
	if ws[0].stop || ws[len(ws)-1].stop {
		return false
	}
	for _, t := range toks {
		if t.tag == tagDigit || t.tag == tagUnusual {
			return false
		}
	}
	return true
}

func joinKeys(toks []token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.key
	}
	return strings.Join(parts, " ")
}

func joinSurface(toks []token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.surface
	}
	return strings.Join(parts, " ")
}

// scoreWords computes the H score of every word.
func (e *Extractor) scoreWords(words map[string]*wordStats, numSentences int) {
	var tfs []float64
	maxTF := 0.0
	for _, w := range words {
		if w.tf > maxTF {
			maxTF = w.tf
		}
		if !w.stop {
			tfs = append(tfs, w.tf)
		}
	}
	// summation order must not depend on map iteration
	sort.Float64s(tfs)
	mean, std := meanStd(tfs)
	freqNorm := mean + std
	if freqNorm == 0 {
		freqNorm = 1
	}

	for _, w := range words {
		rel := (0.5 + diversity(w.left)*(w.tf/maxTF)) + (0.5 + diversity(w.right)*(w.tf/maxTF))
		freq := w.tf / freqNorm
		spread := float64(len(w.sents)) / float64(numSentences)
		casing := math.Max(w.tfCase[0], w.tfCase[1]) / (1 + math.Log(w.tf))
		pos := math.Log(math.Log(3 + median(w.sents)))

		w.h = (pos * rel) / (casing + freq/rel + spread/rel)
	}
}

// diversity is the number of distinct neighbours over the number of
// co-occurrences on one side of a word.
func diversity(edges map[string]float64) float64 {
	if len(edges) == 0 {
		return 0
	}
	total := 0.0
	for _, n := range edges {
		total += n
	}
	return float64(len(edges)) / total
}

// scoreCandidate combines word scores. Stopwords inside a phrase weigh in by
// how likely they are to glue their neighbours together.
func scoreCandidate(c *candidate) float64 {
	prod, sum := 1.0, 0.0
	for i, w := range c.words {
		if !w.stop {
			prod *= w.h
			sum += w.h
			continue
		}
		var pPrev, pNext float64
		if i > 0 {
			prev := c.words[i-1]
			if n, ok := prev.right[w.key]; ok && prev.tf > 0 {
				pPrev = n / prev.tf
			}
		}
		if i+1 < len(c.words) {
			next := c.words[i+1]
			if n, ok := w.right[next.key]; ok && next.tf > 0 {
				pNext = n / next.tf
			}
		}
		p := pPrev * pNext
		prod *= 1 + (1 - p)
		sum -= 1 - p
	}
	denom := (sum + 1) * c.tf
	if denom <= 0 {
		return math.Inf(1)
	}
	return prod / denom
}

func (e *Extractor) isDuplicate(key string, kept []string) bool {
	for _, k := range kept {
		if e.similar(key, k) > e.dedupeLim {
			return true
		}
	}
	return false
}

// levs is one minus the normalized edit distance.
func levs(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// seqm is the indel similarity ratio: edits may only insert or delete, so
// the distance is len(a)+len(b)-2*LCS.
func seqm(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return float64(2*prev[len(rb)]) / float64(total)
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	sq := 0.0
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// median of an ascending slice.
func median(xs []int) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(xs[n/2])
	}
	return float64(xs[n/2-1]+xs[n/2]) / 2
}

func (p Phrase) String() string {
	return fmt.Sprintf("%s (%.4f)", p.Text, p.Score)
}
