package analyzer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/FranksOps/scribe/internal/keywords"
)

const article = `# Responsive Web Design

Web design decides how a site feels. Responsive web design adapts layouts to every screen!
- Typography first
Good WEB DESIGN is invisible.`

func TestMeasure(t *testing.T) {
	ks := keywords.Keywords{
		{Term: "web design", Count: 5, Kind: keywords.KindPhrase},
		{Term: "typography", Count: 3, Kind: keywords.KindWord},
		{Term: "accessibility", Count: 2, Kind: keywords.KindWord},
	}

	cov := Measure(article, ks)
	if cov.Total != 3 || cov.Used != 2 {
		t.Fatalf("unexpected totals %+v", cov)
	}

	want := []TermMatch{
		{Term: "web design", Reference: 5, Count: 4, Sentence: "# Responsive Web Design"},
		{Term: "typography", Reference: 3, Count: 1, Sentence: "- Typography first"},
		{Term: "accessibility", Reference: 2},
	}
	if !reflect.DeepEqual(cov.Matches, want) {
		t.Errorf("matches = %+v\nwant %+v", cov.Matches, want)
	}
	if got := cov.Missing(); !reflect.DeepEqual(got, []string{"accessibility"}) {
		t.Errorf("missing = %v", got)
	}
	if r := cov.Ratio(); r < 0.66 || r > 0.67 {
		t.Errorf("ratio = %f", r)
	}
}

func TestMeasure_Empty(t *testing.T) {
	cov := Measure(article, nil)
	if cov.Total != 0 || cov.Ratio() != 0 || cov.Missing() != nil {
		t.Errorf("unexpected coverage %+v", cov)
	}

	cov = Measure("", keywords.Keywords{{Term: "seo", Count: 1}})
	if cov.Used != 0 || len(cov.Missing()) != 1 {
		t.Errorf("unexpected coverage of empty text %+v", cov)
	}
}

func TestSplitSentences(t *testing.T) {
	var got []string
	for _, s := range splitSentences("One. Two!\n\n# Three\nFour? five") {
		got = append(got, s.original)
	}
	want := []string{"One.", "Two!", "# Three", "Four?", "five"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func BenchmarkMeasure(b *testing.B) {
	text := strings.Repeat(article+"\n", 200)
	ks := keywords.Keywords{
		{Term: "web design"}, {Term: "responsive"}, {Term: "typography"},
		{Term: "layouts"}, {Term: "screen"}, {Term: "accessibility"},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Measure(text, ks)
	}
}
