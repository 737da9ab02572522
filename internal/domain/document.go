package domain

import (
	"fmt"
	"strconv"
)

// Document is a piece of text plus flat metadata as submitted by a client.
type Document struct {
	Content  string
	Metadata map[string]any
}

// DocumentID formats the sequential identifier assigned on insert.
func DocumentID(n int64) string {
	return "doc_" + strconv.FormatInt(n, 10)
}

// QueryResult holds parallel sequences for a single query text.
// Distances are raw cosine distances, lower is more similar.
type QueryResult struct {
	Documents []string
	Metadatas []map[string]any
	Distances []float64
}

// Len returns the number of hits.
func (r QueryResult) Len() int { return len(r.Documents) }

// ValidateMetadata rejects nested values. Numbers decoded from JSON arrive as float64.
func ValidateMetadata(m map[string]any) error {
	for k, v := range m {
		switch v.(type) {
		case string, bool, float64, float32, int, int64:
		default:
			return fmt.Errorf("%w: key %q has type %T", ErrInvalidMetadata, k, v)
		}
	}
	return nil
}
