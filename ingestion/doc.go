// Package ingestion builds the retrieval index used to answer questions.
//
// A Pipeline takes file paths (or raw text with a source label), extracts
// their text, splits it into overlapping chunks, embeds the chunks and stores
// them. Files whose size and modification time match the last indexing run are
// skipped; changed files have their previous chunks replaced.
package ingestion
