package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/lexindex/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	chunkPrefix         = "chkrec"
	documentChunkPrefix = "docchk"
	documentIDSeq       = "docrecseq"
	chunkIDSeq          = "chkrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeDocumentChunkKey generates a composite key for the per-document
// chunk index. Format: prefix:documentID:chunkIndex
func makeDocumentChunkKey(documentID core.ID, index int) []byte {
	prefix := documentChunkPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for index
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort follows chunk order
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialDocumentChunkKey generates a partial key for scanning all
// chunks of a document. Format: prefix:documentID
func makePartialDocumentChunkKey(documentID core.ID) []byte {
	prefix := documentChunkPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for documentID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}
