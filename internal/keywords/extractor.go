package keywords

import (
	"fmt"
	"os"

	"github.com/FranksOps/scribe/internal/keywords/stopwords"
)

// Config controls a keyword extraction. Zero fields are unset and take the
// ArticleConfig defaults, so a zero MinOccurrences means three, not "no
// floor"; use 1 for no floor, since every counted word occurs at least once.
// Negative values are rejected by config validation.
type Config struct {
	// TopN caps the number of single-word keywords.
	TopN int `mapstructure:"top_n"`
	// MinOccurrences drops single-word keywords seen fewer times.
	MinOccurrences int `mapstructure:"min_occurrences"`
	// MaxKeyPhrases is the number of phrase candidates requested from the
	// phrase extractor, single-word candidates included.
	MaxKeyPhrases int `mapstructure:"max_key_phrases"`
	// NgramSize is the maximum number of words per phrase.
	NgramSize int `mapstructure:"ngram_size"`
	// Format selects the rendering used by Summarize. Empty takes the
	// preset's format.
	Format Format `mapstructure:"format"`
}

// ArticleConfig is tuned for a scraped article: a wide single-word net with
// a frequency floor of three, rendered as tuples.
func ArticleConfig() Config {
	return Config{
		TopN:           100,
		MinOccurrences: 3,
		MaxKeyPhrases:  20,
		NgramSize:      4,
		Format:         FormatTuples,
	}
}

// ReferenceFileConfig is tuned for a curated reference document where every
// frequent word counts, rendered as a ranked list.
func ReferenceFileConfig() Config {
	return Config{
		TopN:           30,
		MinOccurrences: 1,
		MaxKeyPhrases:  30,
		NgramSize:      4,
		Format:         FormatRanked,
	}
}

func (c Config) withDefaults() Config {
	def := ArticleConfig()
	if c.TopN == 0 {
		c.TopN = def.TopN
	}
	if c.MinOccurrences == 0 {
		c.MinOccurrences = def.MinOccurrences
	}
	if c.MaxKeyPhrases == 0 {
		c.MaxKeyPhrases = def.MaxKeyPhrases
	}
	if c.NgramSize == 0 {
		c.NgramSize = def.NgramSize
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	return c
}

// Extractor combines single-word counting and key-phrase extraction. It holds
// no mutable state and may be shared between goroutines.
type Extractor struct {
	cfg     Config
	stops   *stopwords.Set
	phrases PhraseExtractor
}

// NewExtractor returns an Extractor. A nil stops uses the English set.
func NewExtractor(cfg Config, stops *stopwords.Set, pe PhraseExtractor) *Extractor {
	if stops == nil {
		stops = stopwords.English()
	}
	return &Extractor{
		cfg:     cfg.withDefaults(),
		stops:   stops,
		phrases: pe,
	}
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Extract returns the merged phrase and single-word keywords of text, phrases
// first, in extraction order. Errors from the phrase extractor are returned
// as-is wrapped; nothing is retried.
func (e *Extractor) Extract(text string) (Keywords, error) {
	words := SingleWordKeywords(text, e.stops, e.cfg.TopN, e.cfg.MinOccurrences)

	if e.phrases == nil {
		return Merge(nil, words), nil
	}

	candidates, err := LongTailKeywords(text, e.phrases, e.cfg.MaxKeyPhrases, e.cfg.NgramSize)
	if err != nil {
		return nil, err
	}
	return Merge(CountPhraseOccurrences(text, candidates), words), nil
}

// Summarize extracts keywords from text and renders them in the configured
// format.
func (e *Extractor) Summarize(text string) (string, error) {
	ks, err := e.Extract(text)
	if err != nil {
		return "", err
	}
	return e.cfg.Format.Render(ks), nil
}

// ExtractFile reads a UTF-8 text file and summarizes it. A missing file
// yields an error wrapping fs.ErrNotExist.
func (e *Extractor) ExtractFile(path string) (string, Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ks, err := e.Extract(string(data))
	if err != nil {
		return "", nil, err
	}
	return e.cfg.Format.Render(ks), ks, nil
}
