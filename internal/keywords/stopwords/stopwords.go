package stopwords

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed english.txt
var englishList []byte

// Set is an immutable collection of lowercase stopwords. It is safe for
// concurrent use once built.
type Set struct {
	words map[string]struct{}
}

// New builds a Set from the provided words. Words are lowercased and trimmed.
func New(words ...string) *Set {
	s := &Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		s.words[w] = struct{}{}
	}
	return s
}

// Contains reports whether word is a stopword. The lookup is exact, callers
// are expected to pass lowercased tokens.
func (s *Set) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Len returns the number of stopwords in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// Load reads a stopword list with one word per line. Blank lines and lines
// starting with '#' are ignored.
func Load(r io.Reader) (*Set, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stopwords: %w", err)
	}
	return New(words...), nil
}

// LoadFile reads a stopword list from disk.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stopwords file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var english = sync.OnceValue(func() *Set {
	s, err := Load(bytes.NewReader(englishList))
	if err != nil {
		// the list is compiled into the binary
		panic(fmt.Sprintf("stopwords: embedded english list: %v", err))
	}
	return s
})

// English returns the process-wide English stopword set. The set is built on
// first use and shared afterwards.
func English() *Set {
	return english()
}
