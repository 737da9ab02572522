package document

import (
	"encoding/json"

	"github.com/kailas-cloud/docgate/internal/db"
	"github.com/kailas-cloud/docgate/internal/domain"
)

const (
	fieldContent  = "__content"
	fieldMetadata = "__metadata"
	fieldVector   = "__vector"
)

// toQueryResult flattens KNN entries into parallel sequences.
func toQueryResult(res *db.SearchResult) domain.QueryResult {
	out := domain.QueryResult{
		Documents: []string{},
		Metadatas: []map[string]any{},
		Distances: []float64{},
	}
	if res == nil {
		return out
	}
	for i := range res.Entries {
		e := &res.Entries[i]
		out.Documents = append(out.Documents, e.Fields[fieldContent])
		out.Metadatas = append(out.Metadatas, parseMetadata(e.Fields[fieldMetadata]))
		out.Distances = append(out.Distances, e.Distance)
	}
	return out
}

func parseMetadata(raw string) map[string]any {
	m := map[string]any{}
	if raw == "" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}
