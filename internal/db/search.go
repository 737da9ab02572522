package db

import (
	"encoding/binary"
	"math"
)

// KNNQuery asks for the K hashes nearest to Vector.
type KNNQuery struct {
	IndexName string
	// Field is the vector attribute alias; empty means DefaultVectorAlias.
	Field        string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult holds KNN hits ordered nearest first.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Distance is the engine's raw __vector_score,
// lower meaning closer; it is removed from Fields.
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}

// VectorBlob packs v as the little-endian FLOAT32 blob used both for stored
// vector fields and for KNN query parameters.
func VectorBlob(v []float32) string {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
