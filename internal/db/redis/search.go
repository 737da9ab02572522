package redis

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docgate/internal/db"
)

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
// Entries come back ordered by ascending distance.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	args, err := BuildKNNArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return ParseKNNResult(raw)
}

// SearchCount returns the number of indexed documents via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// BuildKNNArgs renders FT.SEARCH arguments for a pure KNN query. The vector
// travels as a PARAMS blob, which requires DIALECT 2.
func BuildKNNArgs(q *db.KNNQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", q.K)
	}

	field := q.Field
	if field == "" {
		field = db.DefaultVectorAlias
	}
	args := []string{q.IndexName, fmt.Sprintf("*=>[KNN %d @%s $BLOB]", q.K, field)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", db.VectorBlob(q.Vector),
		"DIALECT", "2",
	)
	return args, nil
}

// scoreField is the pseudo-field FT.SEARCH adds for the KNN distance.
const scoreField = "__vector_score"

// ParseKNNResult decodes a RESP2 FT.SEARCH reply laid out as
// [total, key1, [f, v, ...], key2, [f, v, ...], ...].
// Hits that cannot be decoded are skipped. The distance is lifted out of the
// fields and entries are returned nearest first.
func ParseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	hits := raw[1:]
	entries := make([]db.SearchEntry, 0, len(hits)/2)
	for i := 0; i+1 < len(hits); i += 2 {
		if e, ok := parseHit(hits[i], hits[i+1]); ok {
			entries = append(entries, e)
		}
	}
	slices.SortStableFunc(entries, func(a, b db.SearchEntry) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseHit(keyMsg, fieldsMsg rueidis.RedisMessage) (db.SearchEntry, bool) {
	key, err := keyMsg.ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	pairs, err := fieldsMsg.ToArray()
	if err != nil {
		return db.SearchEntry{}, false
	}

	// A hit without a usable score cannot be ranked.
	scored := false
	e := db.SearchEntry{Key: key, Fields: make(map[string]string, len(pairs)/2)}
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nerr := pairs[j].ToString()
		value, verr := pairs[j+1].ToString()
		if nerr != nil || verr != nil {
			continue
		}
		if name == scoreField {
			if e.Distance, err = strconv.ParseFloat(value, 64); err != nil {
				return db.SearchEntry{}, false
			}
			scored = true
			continue
		}
		e.Fields[name] = value
	}
	return e, scored
}
