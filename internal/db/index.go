package db

import (
	"errors"
	"fmt"
	"strings"
)

// DistanceMetric is the DISTANCE_METRIC of a vector attribute.
type DistanceMetric string

// Supported distance metrics. Document search always uses cosine; the
// others are accepted so an index created by hand can still be described.
const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm is the vector index type in FT.CREATE.
type VectorAlgorithm string

const (
	// VectorHNSW is the approximate graph index.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat is exact brute-force search, fine for small collections.
	VectorFlat VectorAlgorithm = "FLAT"
)

// DefaultVectorAlias is the attribute name KNN clauses refer to.
const DefaultVectorAlias = "vector"

// ParseVectorAlgorithm maps a config value to a VectorAlgorithm. Empty means HNSW.
func ParseVectorAlgorithm(s string) (VectorAlgorithm, error) {
	switch strings.ToUpper(s) {
	case "", string(VectorHNSW):
		return VectorHNSW, nil
	case string(VectorFlat):
		return VectorFlat, nil
	default:
		return "", fmt.Errorf("unknown vector algorithm %q", s)
	}
}

// VectorIndex describes an FT index over hashes that carries a single
// FLOAT32 vector attribute. Document text and metadata are stored alongside
// but not indexed, so no other attribute kinds exist.
type VectorIndex struct {
	Name   string
	Prefix string // key prefix the index covers, e.g. "docgate:documents:"

	Field     string // hash field holding the packed vector
	Alias     string // defaults to DefaultVectorAlias
	Dim       int
	Algorithm VectorAlgorithm // defaults to HNSW
	Distance  DistanceMetric  // defaults to COSINE

	M              int // HNSW max edges per node, 0 keeps the server default
	EFConstruction int // HNSW build-time candidate list, 0 keeps the server default
	BlockSize      int // FLAT only
}

// WithDefaults returns a copy with empty alias, algorithm and distance filled in.
func (v VectorIndex) WithDefaults() VectorIndex {
	if v.Alias == "" {
		v.Alias = DefaultVectorAlias
	}
	if v.Algorithm == "" {
		v.Algorithm = VectorHNSW
	}
	if v.Distance == "" {
		v.Distance = DistanceCosine
	}
	return v
}

// Validate reports the first problem that would make FT.CREATE fail.
func (v VectorIndex) Validate() error {
	switch {
	case v.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(v.Name):
		return fmt.Errorf("index name %q contains invalid characters", v.Name)
	case v.Prefix == "":
		return errors.New("index prefix is required")
	case v.Field == "":
		return errors.New("vector field is required")
	case v.Dim <= 0:
		return fmt.Errorf("vector DIM must be positive, got %d", v.Dim)
	case v.M < 0 || v.EFConstruction < 0 || v.BlockSize < 0:
		return errors.New("vector tuning parameters must not be negative")
	}
	switch v.Algorithm {
	case "", VectorHNSW, VectorFlat:
	default:
		return fmt.Errorf("unknown vector algorithm %q", v.Algorithm)
	}
	switch v.Distance {
	case "", DistanceCosine, DistanceL2, DistanceIP:
	default:
		return fmt.Errorf("unknown distance metric %q", v.Distance)
	}
	return nil
}

// String renders a short FT.CREATE-like summary for logs.
func (v VectorIndex) String() string {
	d := v.WithDefaults()
	return fmt.Sprintf("FT.CREATE %s ON HASH PREFIX %s SCHEMA %s AS %s VECTOR %s DIM %d %s",
		d.Name, d.Prefix, d.Field, d.Alias, d.Algorithm, d.Dim, d.Distance)
}

// IsValidIdentifier reports whether s is non-empty and made of [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return true
}
