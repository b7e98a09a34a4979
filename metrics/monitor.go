// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metrics

import (
	"sync"
	"time"

	"github.com/poiesic/fileoracle/core"
	"github.com/poiesic/fileoracle/ingestion"
	"github.com/poiesic/fileoracle/search"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fileoracle"

// Monitor records search and ingestion activity as prometheus metrics.
// It is safe for concurrent use.
type Monitor struct {
	registry *prometheus.Registry

	searches        *prometheus.CounterVec
	attempts        prometheus.Histogram
	searchDuration  prometheus.Histogram
	narrowSteps     *prometheus.CounterVec
	overrides       prometheus.Counter
	keywordCalls    *prometheus.CounterVec
	channelSearches *prometheus.CounterVec
	channelHits     *prometheus.CounterVec
	filterFallbacks prometheus.Counter
	refinements     *prometheus.CounterVec
	reranks         *prometheus.CounterVec
	filesIngested   *prometheus.CounterVec
	chunksIngested  prometheus.Counter

	mu      sync.Mutex
	started map[string]time.Time
}

var _ search.SearchMonitor = (*Monitor)(nil)

// NewMonitor creates a Monitor with its own registry.
func NewMonitor() *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		started:  make(map[string]time.Time),

		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed searches by final outcome",
		}, []string{"outcome"}),

		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_attempts",
			Help:      "Attempts used per search",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),

		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of a search",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		narrowSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrow_steps_total",
			Help:      "Directory narrowing steps by traversal state",
		}, []string{"state"}),

		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrowing_overrides_total",
			Help:      "Attempts where an explicit search restriction replaced narrowing",
		}),

		keywordCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keyword_generations_total",
			Help:      "Keyword generation calls by outcome",
		}, []string{"outcome"}),

		channelSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_searches_total",
			Help:      "File search invocations by channel and outcome",
		}, []string{"channel", "outcome"}),

		channelHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_hits_total",
			Help:      "Paths returned by each search channel",
		}, []string{"channel"}),

		filterFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_fallbacks_total",
			Help:      "Relevance filter passes that kept the unfiltered list",
		}),

		refinements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refinements_total",
			Help:      "Query refinements by outcome",
		}, []string{"outcome"}),

		reranks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reranks_total",
			Help:      "Re-rank calls by outcome",
		}, []string{"outcome"}),

		filesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_ingested_total",
			Help:      "Files seen by the indexer by status",
		}, []string{"status"}),

		chunksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Chunks written to the index",
		}),
	}

	m.registry.MustRegister(
		m.searches, m.attempts, m.searchDuration,
		m.narrowSteps, m.overrides, m.keywordCalls,
		m.channelSearches, m.channelHits, m.filterFallbacks,
		m.refinements, m.reranks,
		m.filesIngested, m.chunksIngested,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Monitor) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Monitor) Start(query string, attempt int) {
	if attempt != 1 {
		return
	}
	m.mu.Lock()
	m.started[query] = time.Now()
	m.mu.Unlock()
}

func (m *Monitor) NarrowStep(root string, state search.NarrowState, dir string) {
	m.narrowSteps.WithLabelValues(state.String()).Inc()
}

func (m *Monitor) AfterNarrowing(dirs []string, overridden bool) {
	if overridden {
		m.overrides.Inc()
	}
}

func (m *Monitor) AfterKeywordGeneration(keywords core.KeywordSet, outcome core.Outcome) {
	m.keywordCalls.WithLabelValues(outcome.String()).Inc()
}

func (m *Monitor) ChannelSearch(channel search.Channel, dir, keyword string, hits int, outcome core.Outcome) {
	m.channelSearches.WithLabelValues(string(channel), outcome.String()).Inc()
	m.channelHits.WithLabelValues(string(channel)).Add(float64(hits))
}

func (m *Monitor) AfterFiltering(before, after int, fellBack bool) {
	if fellBack {
		m.filterFallbacks.Inc()
	}
}

func (m *Monitor) Refined(from, to string, outcome core.Outcome) {
	m.refinements.WithLabelValues(outcome.String()).Inc()
}

func (m *Monitor) AfterRerank(best string, outcome core.Outcome) {
	m.reranks.WithLabelValues(outcome.String()).Inc()
}

func (m *Monitor) Finish(report *core.SearchReport) {
	m.searches.WithLabelValues(report.Outcome.String()).Inc()
	m.attempts.Observe(float64(report.Attempts))

	m.mu.Lock()
	start, ok := m.started[report.Query]
	delete(m.started, report.Query)
	m.mu.Unlock()
	if ok {
		m.searchDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveIngestion counts the files and chunks of an indexing run.
func (m *Monitor) ObserveIngestion(report *ingestion.Report) {
	for _, result := range report.Results {
		m.filesIngested.WithLabelValues(result.Status.String()).Inc()
	}
	m.chunksIngested.Add(float64(report.Chunks))
}

// ObserveFile counts a single file result, as produced by watch mode.
func (m *Monitor) ObserveFile(result ingestion.FileResult) {
	m.filesIngested.WithLabelValues(result.Status.String()).Inc()
	if result.Status == ingestion.StatusIndexed {
		m.chunksIngested.Add(float64(result.Chunks))
	}
}
