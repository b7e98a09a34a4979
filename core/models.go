package core

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// KeywordSet is an ordered, deduplicated sequence of search terms derived from a query.
type KeywordSet []string

// NewKeywordSet builds a KeywordSet from terms, trimming whitespace and
// dropping empty entries. Duplicates are detected case-insensitively and the
// first spelling seen is kept.
func NewKeywordSet(terms ...string) KeywordSet {
	seen := make(map[string]bool, len(terms))
	set := make(KeywordSet, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			continue
		}
		seen[key] = true
		set = append(set, term)
	}
	return set
}

// Contains reports whether the set holds term exactly.
func (k KeywordSet) Contains(term string) bool {
	return slices.Contains(k, term)
}

// ResultSet is a deduplicated set of file paths produced by the search channels.
// Iteration order is not meaningful; use Sorted for a stable listing.
type ResultSet map[string]struct{}

// NewResultSet creates a ResultSet holding paths.
func NewResultSet(paths ...string) ResultSet {
	rs := make(ResultSet, len(paths))
	rs.Add(paths...)
	return rs
}

// Add inserts paths into the set. Empty paths are ignored.
func (rs ResultSet) Add(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		rs[p] = struct{}{}
	}
}

// Union adds every path of other into rs.
func (rs ResultSet) Union(other ResultSet) {
	for p := range other {
		rs[p] = struct{}{}
	}
}

// Contains reports whether path is in the set.
func (rs ResultSet) Contains(path string) bool {
	_, ok := rs[path]
	return ok
}

// Len returns the number of paths in the set.
func (rs ResultSet) Len() int {
	return len(rs)
}

// Sorted returns the paths in lexical order.
func (rs ResultSet) Sorted() []string {
	paths := make([]string, 0, len(rs))
	for p := range rs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// SearchReport is the final product of one search: the best file and the surviving candidates.
type SearchReport struct {
	Query      string   // Query as supplied by the caller
	FinalQuery string   // Query used by the last attempt (differs after refinement)
	BestFile   string   // Empty when no candidate survived or re-ranking had nothing to choose from
	Candidates []string // Filtered, truncated candidate list
	Keywords   KeywordSet
	Attempts   int
	Outcome    Outcome
}

// Chunk is a piece of extracted document text stored in the retrieval index.
type Chunk struct {
	Id         ID
	Source     string    // File path or document reference the text came from
	Ordinal    int       // Position of the chunk within its source
	Text       string
	Vector     []float32 // Embedding vector (populated by the ingestion pipeline)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ChunkID derives the content-based ID for a chunk of a source.
func ChunkID(source string, ordinal int, text string) ID {
	var b strings.Builder
	b.WriteString(source)
	b.WriteByte(0)
	b.WriteString(text)
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(ordinal))
	return IDFromContent(b.String())
}

// ChunkMatch is a chunk returned by a similarity search.
type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}

// SourceState records what the index knows about an ingested source.
// It lets the ingestion pipeline skip files that have not changed.
type SourceState struct {
	Source    string
	ModTime   time.Time
	Size      int64
	Chunks    int
	IndexedAt time.Time
}

// Unchanged reports whether a file with the given modification time and size
// matches the recorded state.
func (s *SourceState) Unchanged(modTime time.Time, size int64) bool {
	if s == nil {
		return false
	}
	return s.Size == size && s.ModTime.Equal(modTime)
}
