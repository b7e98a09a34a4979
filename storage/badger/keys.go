package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/fileoracle/core"
)

// Key prefixes for different data types
const (
	chunkPrefix       = "chunk"
	chunkSourcePrefix = "chunksrc"
	sourcePrefix      = "source"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkSourceKey generates a composite key for the source index.
// Format: prefix:sourceID:ordinal:chunkID
func makeChunkSourceKey(source string, ordinal int, chunkID core.ID) []byte {
	prefix := makePartialChunkSourceKey(source)
	buf := make([]byte, len(prefix)+16) // 8 bytes for ordinal + 8 bytes for chunkID
	offset := copy(buf, prefix)
	// Write in BigEndian order so chunks of a source iterate by ordinal
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkID))
	return buf
}

// makePartialChunkSourceKey generates a partial key for source queries.
// Format: prefix:sourceID
func makePartialChunkSourceKey(source string) []byte {
	prefix := chunkSourcePrefix + ":"
	buf := make([]byte, len(prefix)+8) // 8 bytes for sourceID
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(source)))
	return buf
}

// makeSourceKey generates a key for a source's indexing state.
func makeSourceKey(source string) []byte {
	return []byte(sourcePrefix + ":" + source)
}
