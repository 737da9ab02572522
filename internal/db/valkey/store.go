// Package valkey adapts the rueidis store to valkey-search, which lacks
// bare FT.SEARCH queries without a KNN clause.
package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docgate/internal/db"
	dbRedis "github.com/kailas-cloud/docgate/internal/db/redis"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Valkey store. Valkey cluster
// mode has no SELECT, so there is no DB number.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	ClientName  string
	DialTimeout time.Duration
}

// Store implements db.Store for Valkey with the valkey-search module.
// Commands are shared with the Redis store except where valkey-search differs.
type Store struct {
	*dbRedis.Store
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	inner, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
		ClientName:  cfg.ClientName,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Store{Store: inner}, nil
}

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{Store: dbRedis.NewStoreForTest(c)}
}

// SearchCount counts documents by SCAN over the index key prefix
// because valkey-search does not support FT.SEARCH "*".
func (s *Store) SearchCount(ctx context.Context, index string) (int, error) {
	n, err := s.CountKeys(ctx, indexToKeyPrefix(index)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan for count: %w", err)
	}
	return n, nil
}

// indexToKeyPrefix converts index name to a SCAN prefix.
// "docgate:documents:idx" -> "docgate:documents:"
func indexToKeyPrefix(index string) string {
	if strings.HasSuffix(index, ":idx") {
		return index[:len(index)-3]
	}
	return index + ":"
}
