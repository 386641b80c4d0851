package yake

import (
	"regexp"
	"strings"
	"unicode"
)

// token is a word as it appears in a sentence.
type token struct {
	surface string
	key     string
	tag     tag
}

type tag byte

const (
	tagPlain   tag = 'p'
	tagProper  tag = 'n'
	tagAcronym tag = 'a'
	tagDigit   tag = 'd'
	tagUnusual tag = 'u'
)

// block is a run of words inside one sentence with no punctuation between
// them. Candidates never span two blocks.
type block []token

type sentence struct {
	blocks []block
}

// wordOrPunct matches either a word (letters/digits with inner apostrophes,
// hyphens or dots) or a single punctuation rune.
var wordOrPunct = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.\-][\p{L}\p{N}]+)*|[^\p{L}\p{N}\s]`)

// splitSentences splits text on '.', '!', '?' and line breaks, keeping the
// delimiter with the sentence it ends.
func splitSentences(text string) []string {
	if len(text) == 0 {
		return nil
	}

	estimated := len(text) / 50
	if estimated < 1 {
		estimated = 1
	}

	sentences := make([]string, 0, estimated)
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' && r != '\n' {
			continue
		}
		// a dot between two alphanumerics is part of a word ("3.5", "example.com")
		if r == '.' && i > 0 && i+1 < len(text) && isAlnumByte(text[i-1]) && isAlnumByte(text[i+1]) {
			continue
		}
		end := i + 1
		for end < len(text) && unicode.IsSpace(rune(text[end])) {
			end++
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isAlnumByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// parse turns text into sentences of word blocks.
func parse(text string) []sentence {
	raw := splitSentences(text)
	out := make([]sentence, 0, len(raw))
	for _, s := range raw {
		var sent sentence
		var cur block
		wordIdx := 0
		for _, m := range wordOrPunct.FindAllString(s, -1) {
			if !isWord(m) {
				if len(cur) > 0 {
					sent.blocks = append(sent.blocks, cur)
					cur = nil
				}
				continue
			}
			cur = append(cur, token{
				surface: m,
				key:     strings.ToLower(m),
				tag:     classify(m, wordIdx),
			})
			wordIdx++
		}
		if len(cur) > 0 {
			sent.blocks = append(sent.blocks, cur)
		}
		if len(sent.blocks) > 0 {
			out = append(out, sent)
		}
	}
	return out
}

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// classify tags a word by shape. position is the word's index in its sentence.
func classify(w string, position int) tag {
	var letters, digits, upper, other int
	for _, r := range w {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		default:
			other++
		}
	}

	switch {
	case letters == 0 && digits > 0:
		return tagDigit
	case (letters > 0 && digits > 0) || other > 1:
		return tagUnusual
	case letters > 1 && upper == letters:
		return tagAcronym
	case position > 0 && startsUpper(w):
		return tagProper
	default:
		return tagPlain
	}
}

func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}
