package keywords

import (
	"reflect"
	"strings"
	"testing"

	"github.com/FranksOps/scribe/internal/keywords/stopwords"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"punctuation only", "... !!! ---", []string{}},
		{"lowercases and strips punctuation", "SEO, seo & Seo!", []string{"seo", "seo", "seo"}},
		{"numbers are tokens", "Top 10 tips for 2024", []string{"top", "10", "tips", "for", "2024"}},
		{"apostrophes split words", "don't stop", []string{"don", "t", "stop"}},
		{"underscore is a word char", "snake_case words", []string{"snake_case", "words"}},
		{"unicode letters", "Café déjà vu", []string{"café", "déjà", "vu"}},
		{"markup fragments", "<p>Hello</p>", []string{"p", "hello", "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRemoveStopwords_PreservesOrder(t *testing.T) {
	tokens := []string{"the", "web", "is", "a", "design", "tool", "web"}
	got := RemoveStopwords(tokens, stopwords.English())
	want := []string{"web", "design", "tool", "web"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRemoveStopwords_CaseSensitiveCompare(t *testing.T) {
	// Tokens are expected lowercased; an uppercase token is not a stopword.
	got := RemoveStopwords([]string{"THE", "the"}, stopwords.English())
	if !reflect.DeepEqual(got, []string{"THE"}) {
		t.Errorf("got %v", got)
	}
}

func TestCountFrequencies_FirstSeenOrder(t *testing.T) {
	got := CountFrequencies([]string{"b", "a", "b", "c", "a", "b"})
	want := Keywords{
		{Term: "b", Count: 3, Kind: KindWord},
		{Term: "a", Count: 2, Kind: KindWord},
		{Term: "c", Count: 1, Kind: KindWord},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMostCommon_TiesKeepInsertionOrder(t *testing.T) {
	counts := Keywords{
		{Term: "x", Count: 1},
		{Term: "y", Count: 2},
		{Term: "z", Count: 1},
		{Term: "w", Count: 2},
	}
	got := MostCommon(counts, 3).Terms()
	want := []string{"y", "w", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if n := len(MostCommon(counts, 0)); n != 0 {
		t.Errorf("expected empty result for n=0, got %d", n)
	}
	if n := len(MostCommon(counts, 10)); n != 4 {
		t.Errorf("expected all 4 entries, got %d", n)
	}
}

func TestSingleWordKeywords_DesignExample(t *testing.T) {
	text := "Design is great. Web design is fun. Web design matters."
	got := SingleWordKeywords(text, stopwords.English(), 15, 2)
	want := Keywords{
		{Term: "design", Count: 3, Kind: KindWord},
		{Term: "web", Count: 2, Kind: KindWord},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSingleWordKeywords_Bounds(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta alpha beta alpha ", 3) + "epsilon"
	stops := stopwords.English()

	tests := []struct {
		name    string
		topN    int
		minOcc  int
		wantLen int
	}{
		{"topN caps result", 2, 1, 2},
		{"threshold applies after cut", 5, 4, 2},
		{"threshold removes everything", 5, 100, 0},
		{"zero topN", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SingleWordKeywords(text, stops, tt.topN, tt.minOcc)
			if len(got) != tt.wantLen {
				t.Fatalf("expected %d keywords, got %d (%v)", tt.wantLen, len(got), got)
			}
			if len(got) > tt.topN && tt.topN > 0 {
				t.Errorf("result longer than topN")
			}
			for _, k := range got {
				if k.Count < tt.minOcc {
					t.Errorf("%q has count %d below threshold %d", k.Term, k.Count, tt.minOcc)
				}
			}
		})
	}
}

func TestSingleWordKeywords_CaseInsensitive(t *testing.T) {
	got := SingleWordKeywords("SEO seo Seo sEo", stopwords.English(), 10, 1)
	if len(got) != 1 || got[0].Term != "seo" || got[0].Count != 4 {
		t.Errorf("expected single seo entry with count 4, got %v", got)
	}
}

func TestSingleWordKeywords_Empty(t *testing.T) {
	if got := SingleWordKeywords("", stopwords.English(), 10, 1); len(got) != 0 {
		t.Errorf("expected no keywords, got %v", got)
	}
	if got := SingleWordKeywords("the and of is", stopwords.English(), 10, 1); len(got) != 0 {
		t.Errorf("expected no keywords for stopword-only text, got %v", got)
	}
}

func TestMerge_PhrasesFirst(t *testing.T) {
	phrases := Keywords{{Term: "web design", Count: 2, Kind: KindPhrase}}
	words := Keywords{{Term: "design", Count: 3, Kind: KindWord}}
	got := Merge(phrases, words)
	if len(got) != 2 || got[0].Kind != KindPhrase || got[1].Kind != KindWord {
		t.Errorf("unexpected merge result %v", got)
	}
}

func TestKind_String(t *testing.T) {
	if KindWord.String() != "word" || KindPhrase.String() != "phrase" || Kind(9).String() != "unknown" {
		t.Errorf("unexpected kind names")
	}
}
