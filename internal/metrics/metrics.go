// Package metrics holds the Prometheus collectors for a generation run.
// scribe is a batch job, so collectors are flushed once at exit to a
// node-exporter textfile and/or a Pushgateway instead of being scraped.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 180},
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_stage_failures_total",
			Help: "Total number of pipeline stage failures",
		},
		[]string{"stage"},
	)

	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_fetch_requests_total",
			Help: "Total number of page fetches",
		},
		[]string{"host", "status", "blocked_by"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_fetch_bytes_total",
			Help: "Total bytes downloaded across all fetches",
		},
		[]string{"host"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	KeywordsExtracted = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scribe_keywords_extracted",
			Help: "Keywords extracted in the last run, by kind",
		},
		[]string{"kind"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy"},
	)

	KeywordCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scribe_keyword_coverage_ratio",
			Help: "Share of extracted keywords used by the last generated article",
		},
	)

	CompletionChars = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_completion_chars",
			Help:    "Length of generated articles in characters",
			Buckets: prometheus.ExponentialBuckets(250, 2, 8),
		},
		[]string{"provider", "model"},
	)
)

// ObserveStage records how long a pipeline stage took and whether it failed.
func ObserveStage(stage string, d time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		StageFailures.WithLabelValues(stage).Inc()
	}
}

// Fetch describes one page fetch for RecordFetch.
type Fetch struct {
	Host       string
	StatusCode int
	Failed     bool
	BlockedBy  string
	Bytes      int
	Duration   time.Duration
}

// RecordFetch updates the fetch collectors.
func RecordFetch(f Fetch) {
	status := strconv.Itoa(f.StatusCode)
	if f.Failed {
		status = "error"
	}
	FetchRequestsTotal.WithLabelValues(f.Host, status, f.BlockedBy).Inc()
	FetchDuration.WithLabelValues(f.Host).Observe(f.Duration.Seconds())
	FetchBytesTotal.WithLabelValues(f.Host).Add(float64(f.Bytes))
}

// SetKeywords records the size of the extracted keyword list.
func SetKeywords(words, phrases int) {
	KeywordsExtracted.WithLabelValues("word").Set(float64(words))
	KeywordsExtracted.WithLabelValues("phrase").Set(float64(phrases))
}

// Sink names where Flush sends the collected metrics. Empty fields are skipped.
type Sink struct {
	Textfile    string `mapstructure:"textfile"`
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

// Flush writes the default registry to every configured destination.
func Flush(s Sink) error {
	return flush(s, prometheus.DefaultGatherer)
}

func flush(s Sink, g prometheus.Gatherer) error {
	var errs []error
	if s.Textfile != "" {
		if err := prometheus.WriteToTextfile(s.Textfile, g); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
		}
	}
	if s.Pushgateway != "" {
		job := s.Job
		if job == "" {
			job = "scribe"
		}
		if err := push.New(s.Pushgateway, job).Gatherer(g).Push(); err != nil {
			errs = append(errs, fmt.Errorf("failed to push metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
