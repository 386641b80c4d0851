package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStage(t *testing.T) {
	before := testutil.ToFloat64(StageFailures.WithLabelValues("scrape"))

	ObserveStage("scrape", 250*time.Millisecond, nil)
	ObserveStage("scrape", time.Second, errors.New("blocked"))

	if got := testutil.ToFloat64(StageFailures.WithLabelValues("scrape")) - before; got != 1 {
		t.Errorf("expected one failure, got %v", got)
	}
}

func TestRecordFetch(t *testing.T) {
	RecordFetch(Fetch{Host: "example.com", StatusCode: 200, Bytes: 11, Duration: time.Second})
	RecordFetch(Fetch{Host: "example.com", Failed: true})
	RecordFetch(Fetch{Host: "example.com", StatusCode: 403, BlockedBy: "Cloudflare"})

	if got := testutil.ToFloat64(FetchBytesTotal.WithLabelValues("example.com")); got != 11 {
		t.Errorf("expected 11 bytes, got %v", got)
	}
	if got := testutil.ToFloat64(FetchRequestsTotal.WithLabelValues("example.com", "error", "")); got != 1 {
		t.Errorf("expected one errored fetch, got %v", got)
	}
	if got := testutil.ToFloat64(FetchRequestsTotal.WithLabelValues("example.com", "403", "Cloudflare")); got != 1 {
		t.Errorf("expected one blocked fetch, got %v", got)
	}
}

func TestSetKeywords(t *testing.T) {
	SetKeywords(12, 4)
	if got := testutil.ToFloat64(KeywordsExtracted.WithLabelValues("phrase")); got != 4 {
		t.Errorf("expected 4 phrases, got %v", got)
	}
}

func TestFlush_Textfile(t *testing.T) {
	SetKeywords(3, 1)
	path := filepath.Join(t.TempDir(), "scribe.prom")

	if err := Flush(Sink{Textfile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(body), `scribe_keywords_extracted{kind="word"} 3`) {
		t.Errorf("textfile missing keyword gauge:\n%s", body)
	}
}

func TestFlush_Pushgateway(t *testing.T) {
	var gotPath, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "scribe_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	if err := flush(Sink{Pushgateway: ts.URL, Job: "nightly"}, reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/metrics/job/nightly" {
		t.Errorf("unexpected push path %q", gotPath)
	}
	if gotBody == "" {
		t.Error("expected pushed payload")
	}
}

func TestFlush_Nothing(t *testing.T) {
	if err := Flush(Sink{}); err != nil {
		t.Errorf("empty sink should be a no-op, got %v", err)
	}
}
