package redis

import (
	"context"
	"maps"
	"slices"

	"github.com/kailas-cloud/docgate/internal/db"
)

// scanBatch is the COUNT hint passed to every SCAN page.
const scanBatch = 100

// HSet writes every field of a document hash in one round trip.
// Field order is sorted so the command is stable across calls.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.b().Hset().Key(key).FieldValue()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		cmd = cmd.FieldValue(name, fields[name])
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// CountKeys walks SCAN pages for pattern and returns how many keys matched.
// Keys are not retained, so large collections cost one page of memory.
// SCAN may report a key twice while the keyspace is rehashing; the
// result is an estimate in that window.
func (s *Store) CountKeys(ctx context.Context, pattern string) (int, error) {
	var (
		total  int
		cursor uint64
	)
	for {
		page, err := s.do(ctx, s.b().Scan().Cursor(cursor).Match(pattern).Count(scanBatch).Build()).AsScanEntry()
		if err != nil {
			return 0, &db.Error{Op: db.OpScan, Err: err}
		}
		total += len(page.Elements)
		if cursor = page.Cursor; cursor == 0 {
			return total, nil
		}
	}
}
