// Package metrics counts what the search agent and the indexer do.
//
// Monitor implements search.SearchMonitor on a private prometheus registry, so
// every stage of a search (narrowing, keyword generation, channel searches,
// filtering, refinement, re-ranking) is tallied by outcome. Because the CLI is
// a short-lived process, metrics are exported with WriteTextfile in the node
// exporter textfile format rather than served over HTTP.
package metrics
