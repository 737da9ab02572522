package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/docgate/internal/db"
)

// CreateIndex runs FT.CREATE for def. An index that already exists is
// reported as db.ErrIndexExists so concurrent starters can ignore it.
func (s *Store) CreateIndex(ctx context.Context, def *db.VectorIndex) error {
	args, err := BuildCreateArgs(def)
	if err != nil {
		return err
	}

	if err := s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists checks with FT.INFO. RediSearch answers "Unknown index name"
// and valkey-search "not found" for a missing index.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isRedisErr(err, "unknown index name"), isRedisErr(err, "not found"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// BuildCreateArgs renders FT.CREATE arguments. RediSearch and valkey-search
// accept the same grammar for a single vector attribute on hashes.
func BuildCreateArgs(def *db.VectorIndex) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	v := def.WithDefaults()

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(v.Distance),
	}
	switch v.Algorithm {
	case db.VectorHNSW:
		attrs = appendPositive(attrs, "M", v.M)
		attrs = appendPositive(attrs, "EF_CONSTRUCTION", v.EFConstruction)
	case db.VectorFlat:
		attrs = appendPositive(attrs, "BLOCK_SIZE", v.BlockSize)
	}

	args := make([]string, 0, 12+len(attrs))
	args = append(args,
		v.Name, "ON", "HASH",
		"PREFIX", "1", v.Prefix,
		"SCHEMA", v.Field, "AS", v.Alias,
		"VECTOR", string(v.Algorithm), strconv.Itoa(len(attrs)),
	)
	return append(args, attrs...), nil
}

func appendPositive(attrs []string, name string, n int) []string {
	if n <= 0 {
		return attrs
	}
	return append(attrs, name, strconv.Itoa(n))
}
