// Package reembed regenerates the embedding of every stored chunk.
//
// It is used after switching embedding models: vectors from different models
// are not comparable, so the whole index has to be rebuilt. Chunks are read in
// batches, embedded with exponential backoff on failure, normalized to unit
// length, and written back. Progress is reported through a Reporter.
package reembed
