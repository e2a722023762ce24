// Package metrics exposes quiz, counter and speech statistics to Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hablago/pkg/tracker"
)

var (
	visitorCountDesc = prometheus.NewDesc(
		"hablago_visitor_count",
		"Persisted visitor count",
		nil, nil,
	)
	activeSessionsDesc = prometheus.NewDesc(
		"hablago_quiz_active_sessions",
		"Quiz sessions currently held by the server",
		nil, nil,
	)
	speechCacheDesc = prometheus.NewDesc(
		"hablago_speech_cache_lookups_total",
		"Speech cache lookups by engine and result",
		[]string{"engine", "result"}, nil,
	)
	speechSynthesisDesc = prometheus.NewDesc(
		"hablago_speech_syntheses_total",
		"Speech engine calls by engine and outcome",
		[]string{"engine", "outcome"}, nil,
	)
	speechLatencyDesc = prometheus.NewDesc(
		"hablago_speech_synthesis_avg_seconds",
		"Mean latency of successful speech engine calls",
		[]string{"engine"}, nil,
	)
)

// CountSource reads the visitor count without incrementing it.
type CountSource interface {
	Current(ctx context.Context) (int64, error)
}

// SessionCounter reports live quiz sessions.
type SessionCounter interface {
	Len() int
}

// Sources are read on every scrape. Nil sources are skipped.
type Sources struct {
	Counter  CountSource
	Sessions SessionCounter
	Speech   *tracker.Tracker
}

// Collector is a custom Prometheus collector that reads its sources on each scrape.
type Collector struct {
	src Sources
}

// Describe sends the metric descriptors to the channel.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- visitorCountDesc
	ch <- activeSessionsDesc
	ch <- speechCacheDesc
	ch <- speechSynthesisDesc
	ch <- speechLatencyDesc
}

// Collect emits the current values of all sources.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.src.Counter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		n, err := c.src.Counter.Current(ctx)
		cancel()
		if err != nil {
			slog.Error("failed to collect visitor count", "error", err)
		} else {
			ch <- prometheus.MustNewConstMetric(visitorCountDesc, prometheus.GaugeValue, float64(n))
		}
	}
	if c.src.Sessions != nil {
		ch <- prometheus.MustNewConstMetric(activeSessionsDesc, prometheus.GaugeValue, float64(c.src.Sessions.Len()))
	}
	if c.src.Speech != nil {
		for engine, s := range c.src.Speech.Snapshot() {
			ch <- prometheus.MustNewConstMetric(speechCacheDesc, prometheus.CounterValue, float64(s.CacheHits), engine, "hit")
			ch <- prometheus.MustNewConstMetric(speechCacheDesc, prometheus.CounterValue, float64(s.CacheMisses), engine, "miss")
			ch <- prometheus.MustNewConstMetric(speechSynthesisDesc, prometheus.CounterValue, float64(s.Syntheses), engine, "success")
			ch <- prometheus.MustNewConstMetric(speechSynthesisDesc, prometheus.CounterValue, float64(s.Failures), engine, "failure")
			ch <- prometheus.MustNewConstMetric(speechLatencyDesc, prometheus.GaugeValue, s.AvgLatency().Seconds(), engine)
		}
	}
}

// Metrics owns a private registry with the custom collector and event counters.
type Metrics struct {
	reg       *prometheus.Registry
	answers   *prometheus.CounterVec
	sessions  prometheus.Counter
	completed prometheus.Counter
	accuracy  prometheus.Histogram
	visits    prometheus.Counter
}

// New registers the collector for src plus runtime collectors.
func New(src Sources) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hablago_quiz_answers_total",
			Help: "Submitted answers by outcome",
		}, []string{"outcome"}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hablago_quiz_sessions_started_total",
			Help: "Quiz sessions created",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hablago_quiz_sessions_completed_total",
			Help: "Quiz sessions that reached the summary",
		}),
		accuracy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hablago_quiz_accuracy_percent",
			Help:    "Final accuracy of completed sessions",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		visits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hablago_visits_total",
			Help: "Visitor count increments since start",
		}),
	}
	m.reg.MustRegister(
		&Collector{src: src},
		m.answers, m.sessions, m.completed, m.accuracy, m.visits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// RecordAnswer counts an evaluated answer ("correct", "incorrect", "empty").
func (m *Metrics) RecordAnswer(outcome string) {
	m.answers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSessionStarted() {
	m.sessions.Inc()
}

// RecordSessionCompleted counts a finished session and its accuracy.
func (m *Metrics) RecordSessionCompleted(accuracy int) {
	m.completed.Inc()
	m.accuracy.Observe(float64(accuracy))
}

func (m *Metrics) RecordVisit() {
	m.visits.Inc()
}
